package iinboxrepo

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/service/models/inbox"
	"github.com/google/uuid"
)

// IInboxRepository stores catalog changes whose index update failed.
type IInboxRepository interface {
	// Insert parks a failed delivery.
	Insert(ctx context.Context, msg inbox.InboxMessage) error

	// GetPendingMessages returns due messages in arrival order, locking them for the caller's transaction.
	GetPendingMessages(ctx context.Context, limit int) ([]inbox.InboxMessage, error)

	// DeleteSettled removes every parked message of the product up to and including upToID,
	// exhausted ones too, and returns how many went.
	DeleteSettled(ctx context.Context, targetID uuid.UUID, upToID int64) (int64, error)

	UpdateRetry(
		ctx context.Context,
		id int64,
		retryCount int,
		lastError string,
		nextRetryAt time.Time,
	) error
}
