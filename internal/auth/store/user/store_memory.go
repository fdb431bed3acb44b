package user

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"trialreg/internal/auth/models"
	id "trialreg/pkg/domain"
	"trialreg/pkg/platform/sentinel"
)

// ErrNotFound is returned when a user does not exist.
var ErrNotFound = fmt.Errorf("user not found: %w", sentinel.ErrNotFound)

// ErrUsernameTaken is returned when another user holds the same username.
var ErrUsernameTaken = fmt.Errorf("username already taken: %w", sentinel.ErrAlreadyUsed)

// InMemoryUserStore keeps users in memory for tests and single-node runs.
type InMemoryUserStore struct {
	mu         sync.RWMutex
	users      map[id.UserID]*models.User
	byUsername map[string]id.UserID
}

func New() *InMemoryUserStore {
	return &InMemoryUserStore{
		users:      make(map[id.UserID]*models.User),
		byUsername: make(map[string]id.UserID),
	}
}

func (s *InMemoryUserStore) Save(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if owner, ok := s.byUsername[user.Username]; ok && owner != user.ID {
		return ErrUsernameTaken
	}
	if prev, ok := s.users[user.ID]; ok && prev.Username != user.Username {
		delete(s.byUsername, prev.Username)
	}
	cp := *user
	s.users[user.ID] = &cp
	s.byUsername[user.Username] = user.ID
	return nil
}

func (s *InMemoryUserStore) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *InMemoryUserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byUsername[models.NormalizeUsername(username)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s.users[userID]
	return &cp, nil
}

func (s *InMemoryUserStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// List returns every user ordered by username.
func (s *InMemoryUserStore) List(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}
