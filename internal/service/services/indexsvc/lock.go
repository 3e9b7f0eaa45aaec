package indexsvc

import (
	"context"

	"github.com/cespare/xxhash/v2"
	"github.com/corray333/backend-labs/storefront/internal/dal/postgres"
	"github.com/google/uuid"
)

const defaultLockStripes = 64

// productLocker runs fn exclusively for one product. Lane events, inbox retries and
// reindex all write a product's document under it, so a rebuild that read stale rows
// can never land after the write of a newer change.
type productLocker interface {
	WithProductLock(ctx context.Context, id uuid.UUID, fn func(ctx context.Context) error) error
}

func lockKey(id uuid.UUID) uint64 {
	return xxhash.Sum64(id[:])
}

// stripedLocker serializes products inside one process.
type stripedLocker struct {
	stripes []chan struct{}
}

func newStripedLocker(n int) *stripedLocker {
	l := &stripedLocker{stripes: make([]chan struct{}, n)}
	for i := range l.stripes {
		l.stripes[i] = make(chan struct{}, 1)
	}

	return l
}

func (l *stripedLocker) WithProductLock(ctx context.Context, id uuid.UUID, fn func(ctx context.Context) error) error {
	stripe := l.stripes[lockKey(id)%uint64(len(l.stripes))]

	select {
	case stripe <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-stripe }()

	return fn(ctx)
}

// advisoryLocker serializes products across every replica through Postgres advisory locks.
type advisoryLocker struct {
	client *postgres.Client
}

func (l advisoryLocker) WithProductLock(ctx context.Context, id uuid.UUID, fn func(ctx context.Context) error) error {
	return l.client.WithAdvisoryLock(ctx, int64(lockKey(id)), fn)
}
