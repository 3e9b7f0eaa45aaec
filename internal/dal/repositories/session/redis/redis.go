package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/dal/redis"
	"github.com/corray333/backend-labs/storefront/internal/service/models/checkout"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "storefront:checkout-session:"

// SessionRedisRepository caches the checkout session created for an order.
type SessionRedisRepository struct {
	rdb *goredis.Client
}

// NewSessionRedisRepository creates a new session cache.
func NewSessionRedisRepository(client *redis.Client) *SessionRedisRepository {
	return &SessionRedisRepository{rdb: client.RDB()}
}

// Get returns the cached session of the order, ok is false on a miss.
func (r *SessionRedisRepository) Get(ctx context.Context, orderID uuid.UUID) (checkout.Session, bool, error) {
	raw, err := r.rdb.Get(ctx, keyPrefix+orderID.String()).Bytes()
	if errors.Is(err, goredis.Nil) {
		return checkout.Session{}, false, nil
	}
	if err != nil {
		return checkout.Session{}, false, fmt.Errorf("failed to read cached session: %w", err)
	}

	var sess checkout.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return checkout.Session{}, false, fmt.Errorf("failed to decode cached session: %w", err)
	}

	if !sess.ExpiresAt.IsZero() && time.Now().After(sess.ExpiresAt) {
		return checkout.Session{}, false, nil
	}

	return sess, true, nil
}

// Set stores the session under the order id for ttl.
func (r *SessionRedisRepository) Set(
	ctx context.Context,
	orderID uuid.UUID,
	sess checkout.Session,
	ttl time.Duration,
) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := r.rdb.Set(ctx, keyPrefix+orderID.String(), raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache session: %w", err)
	}

	return nil
}

// Delete drops the cached session of the order.
func (r *SessionRedisRepository) Delete(ctx context.Context, orderID uuid.UUID) error {
	if err := r.rdb.Del(ctx, keyPrefix+orderID.String()).Err(); err != nil {
		return fmt.Errorf("failed to drop cached session: %w", err)
	}

	return nil
}
