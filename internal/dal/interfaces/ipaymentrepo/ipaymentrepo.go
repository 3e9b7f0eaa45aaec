package ipaymentrepo

import (
	"context"

	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/corray333/backend-labs/storefront/internal/service/models/status"
	"github.com/google/uuid"
)

// IPaymentRepository is an interface for payment postgres repository.
type IPaymentRepository interface {
	Insert(ctx context.Context, p payment.Payment) (payment.Payment, error)
	GetByOrder(ctx context.Context, orderID uuid.UUID) (payment.Payment, error)
	GetByOrderForUpdate(ctx context.Context, orderID uuid.UUID) (payment.Payment, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, s status.PaymentStatus) error
	SetSessionID(ctx context.Context, orderID uuid.UUID, sessionID string) error
}
