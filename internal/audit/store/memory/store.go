package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"trialreg/internal/audit"
	id "trialreg/pkg/domain"
)

// Store keeps audit entries in process memory, oldest first.
type Store struct {
	mu      sync.RWMutex
	entries []*audit.Entry
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, entry *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *entry
	s.entries = append(s.entries, &cp)
	return nil
}

// List returns matching entries newest first.
func (s *Store) List(_ context.Context, filter audit.ListFilter) ([]*audit.Entry, error) {
	filter.Normalize()
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*audit.Entry, 0)
	for i := len(s.entries) - 1; i >= 0 && len(out) < filter.Limit; i-- {
		if filter.Matches(s.entries[i]) {
			cp := *s.entries[i]
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// ListUnpublished returns the oldest entries not yet relayed.
func (s *Store) ListUnpublished(_ context.Context, limit int) ([]*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*audit.Entry
	for _, e := range s.entries {
		if len(out) >= limit {
			break
		}
		if e.PublishedAt == nil {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) MarkPublished(_ context.Context, ids []id.AuditEntryID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[id.AuditEntryID]struct{}, len(ids))
	for _, i := range ids {
		want[i] = struct{}{}
	}
	for _, e := range s.entries {
		if _, ok := want[e.ID]; ok && e.PublishedAt == nil {
			ts := at
			e.PublishedAt = &ts
		}
	}
	return nil
}

// Clear drops all entries.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}
