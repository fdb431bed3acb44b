// Package audit records the administrative change log.
//
// Recorder writes entries with fail-closed semantics: the write is synchronous
// and, when it fails, the caller must fail its own operation. Stores bound to
// a database pick up the caller's transaction from the context, so the entry
// commits or rolls back together with the mutation it describes.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	id "trialreg/pkg/domain"
	"trialreg/pkg/requestcontext"
)

// Store persists audit entries.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter ListFilter) ([]*Entry, error)
}

// Record is what a service hands to the recorder; the recorder fills in
// actor, time and request metadata from the context.
type Record struct {
	Action        Action
	Model         Model
	RecordID      string
	Justification string
	Changes       ChangeSet
}

// Recorder emits audit entries.
type Recorder struct {
	store   Store
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures the Recorder.
type Option func(*Recorder)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// NewRecorder creates a recorder backed by store.
func NewRecorder(store Store, opts ...Option) *Recorder {
	r := &Recorder{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record synchronously persists an entry. A returned error means the entry
// was not written and the surrounding operation must not proceed.
func (r *Recorder) Record(ctx context.Context, rec Record) error {
	start := time.Now()

	session, ok := requestcontext.SessionFrom(ctx)
	if !ok || session.Username == "" {
		return fmt.Errorf("audit entry requires an authenticated actor")
	}
	if rec.Action == "" || rec.Model == "" {
		return fmt.Errorf("audit entry requires action and model")
	}
	rec.Justification = strings.TrimSpace(rec.Justification)
	if rec.Action != ActionCreate && rec.Justification == "" {
		return fmt.Errorf("audit %s entry requires a justification", rec.Action)
	}
	if rec.Changes == nil {
		rec.Changes = NewChangeSet()
	}

	entry := &Entry{
		ID:            id.NewAuditEntryID(),
		Timestamp:     requestcontext.Now(ctx),
		Actor:         Actor{UserID: session.UserID, Username: session.Username},
		Action:        rec.Action,
		Model:         rec.Model,
		RecordID:      rec.RecordID,
		Justification: rec.Justification,
		Changes:       rec.Changes,
		Client:        DescribeClient(requestcontext.ClientIP(ctx), requestcontext.UserAgent(ctx)),
		RequestID:     requestcontext.RequestID(ctx),
	}

	if err := r.store.Append(ctx, entry); err != nil {
		r.metrics.incPersistFailures()
		if r.logger != nil {
			r.logger.ErrorContext(ctx, "audit entry persistence failed",
				"model", rec.Model,
				"action", rec.Action,
				"record_id", rec.RecordID,
				"request_id", entry.RequestID,
				"error", err,
			)
		}
		return fmt.Errorf("audit persistence failed: %w", err)
	}

	r.metrics.observePersist(time.Since(start).Seconds())
	r.metrics.incRecorded(rec.Model, rec.Action)
	return nil
}

// List returns entries newest first.
func (r *Recorder) List(ctx context.Context, filter ListFilter) ([]*Entry, error) {
	filter.Normalize()
	return r.store.List(ctx, filter)
}
