package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	id "trialreg/pkg/domain"
)

// Outbox exposes entries that have not been relayed yet.
type Outbox interface {
	ListUnpublished(ctx context.Context, limit int) ([]*Entry, error)
	MarkPublished(ctx context.Context, ids []id.AuditEntryID, at time.Time) error
}

// Sink delivers entries downstream. Publish must be all-or-nothing from the
// relay's point of view: on error the whole batch is retried.
type Sink interface {
	Publish(ctx context.Context, entries []*Entry) error
}

const (
	defaultRelayInterval = 2 * time.Second
	defaultRelayBatch    = 100
)

// Relay polls the outbox and forwards entries to a sink. Delivery is
// at-least-once; consumers deduplicate on the entry id.
type Relay struct {
	outbox   Outbox
	sink     Sink
	interval time.Duration
	batch    int
	logger   *slog.Logger
	metrics  *Metrics
}

// RelayOption configures the Relay.
type RelayOption func(*Relay)

func WithRelayInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithRelayBatch(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batch = n
		}
	}
}

func WithRelayLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) {
		r.logger = logger
	}
}

func WithRelayMetrics(m *Metrics) RelayOption {
	return func(r *Relay) {
		r.metrics = m
	}
}

// NewRelay builds a relay from outbox to sink.
func NewRelay(outbox Outbox, sink Sink, opts ...RelayOption) *Relay {
	r := &Relay{
		outbox:   outbox,
		sink:     sink,
		interval: defaultRelayInterval,
		batch:    defaultRelayBatch,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays until ctx is cancelled. Batch failures are logged and retried on
// the next tick; they never stop the loop.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		if _, err := r.Flush(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.metrics.incRelayFailures()
			r.logger.ErrorContext(ctx, "audit relay batch failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Flush relays pending entries batch by batch until the outbox is drained.
// It returns how many entries were published.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	total := 0
	for {
		entries, err := r.outbox.ListUnpublished(ctx, r.batch)
		if err != nil {
			return total, err
		}
		r.metrics.setBacklog(len(entries))
		if len(entries) == 0 {
			return total, nil
		}
		if err := r.sink.Publish(ctx, entries); err != nil {
			return total, err
		}
		ids := make([]id.AuditEntryID, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		if err := r.outbox.MarkPublished(ctx, ids, time.Now()); err != nil {
			return total, err
		}
		total += len(entries)
		r.metrics.addRelayed(len(entries))
		if len(entries) < r.batch {
			return total, nil
		}
	}
}
