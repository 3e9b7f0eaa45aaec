package iorderrepo

import (
	"context"

	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/status"
	"github.com/google/uuid"
)

// IOrderRepository is an interface for order postgres repository.
type IOrderRepository interface {
	Insert(ctx context.Context, o order.Order) (order.Order, error)
	Get(ctx context.Context, id uuid.UUID) (order.Order, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (order.Order, error)
	UpdateStatuses(ctx context.Context, id uuid.UUID, update order.StatusUpdate) (order.Order, error)
	SetPaymentStatus(ctx context.Context, id uuid.UUID, s status.PaymentStatus) error
}
