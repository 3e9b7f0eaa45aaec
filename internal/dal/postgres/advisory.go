package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// WithAdvisoryLock runs fn while holding the transaction scoped advisory lock for key.
// Every process sharing the database waits on the same lock, and it is released when the
// transaction ends, even if the connection drops.
func (p *Client) WithAdvisoryLock(ctx context.Context, key int64, fn func(ctx context.Context) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin lock transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			zap.L().Error("Failed to roll back advisory lock transaction", zap.Int64("key", key), zap.Error(err))
		}
	}()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", key); err != nil {
		return fmt.Errorf("failed to take advisory lock %d: %w", key, err)
	}

	if err := fn(ctx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to release advisory lock %d: %w", key, err)
	}

	return nil
}
