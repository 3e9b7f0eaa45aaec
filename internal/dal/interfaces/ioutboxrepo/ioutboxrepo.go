package ioutboxrepo

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/service/models/outbox"
)

// IOutboxRepository stages catalog events until the relay hands them to the broker.
type IOutboxRepository interface {
	Insert(ctx context.Context, msg outbox.OutboxMessage) error

	// GetPendingMessages returns due rows oldest first. Within a transaction the rows
	// stay locked and other relays skip them.
	GetPendingMessages(ctx context.Context, limit int) ([]outbox.OutboxMessage, error)

	DeleteBatch(ctx context.Context, ids []int64) error

	UpdateRetry(ctx context.Context, id int64, retryCount int, lastError string, nextRetryAt time.Time) error
}
