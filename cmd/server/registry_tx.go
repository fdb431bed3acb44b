package main

import (
	"context"
	"database/sql"
	"time"

	"trialreg/internal/registry/service"
	dErrors "trialreg/pkg/domain-errors"
	txcontext "trialreg/pkg/platform/tx"
)

const defaultRegistryTxTimeout = 5 * time.Second

// postgresTx binds a database transaction to the context so every store that
// resolves its querier with txcontext.Pick joins it, audit entries included.
type postgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newPostgresTx(db *sql.DB, timeout time.Duration) *postgresTx {
	return &postgresTx{db: db, timeout: timeout}
}

func (t *postgresTx) run(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultRegistryTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		if ctx.Err() != nil {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
		}
		return err
	}
	return nil
}

// registryTx adapts postgresTx to service.StoreTx.
type registryTx struct {
	*postgresTx
	store service.Store
}

func (t registryTx) RunInTx(ctx context.Context, fn func(ctx context.Context, s service.Store) error) error {
	return t.run(ctx, func(ctx context.Context) error {
		return fn(ctx, t.store)
	})
}

// userTx adapts postgresTx to the auth service transaction port.
type userTx struct {
	*postgresTx
}

func (t userTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return t.run(ctx, fn)
}
