package memory

import (
	"context"
	"sync"
	"time"

	"trialreg/internal/registry/service"
	dErrors "trialreg/pkg/domain-errors"
)

// defaultTxTimeout is the maximum duration for a registry transaction.
const defaultTxTimeout = 5 * time.Second

// Tx runs registry transactions against a Store. One coarse lock serializes
// transactions; each one works on a private snapshot that replaces the
// store's state only when fn returns nil.
type Tx struct {
	mu      sync.Mutex
	store   *Store
	timeout time.Duration
}

var _ service.StoreTx = (*Tx)(nil)

// NewTx wraps store.
func NewTx(store *Store) *Tx {
	return &Tx{store: store}
}

func (t *Tx) RunInTx(ctx context.Context, fn func(ctx context.Context, s service.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	t.store.mu.RLock()
	staged := &Store{st: t.store.st.clone()}
	t.store.mu.RUnlock()

	if err := fn(ctx, staged); err != nil {
		return err
	}

	t.store.mu.Lock()
	t.store.st = staged.st
	t.store.mu.Unlock()
	return nil
}
