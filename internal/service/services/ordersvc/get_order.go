package ordersvc

import (
	"context"
	"fmt"

	"github.com/corray333/backend-labs/storefront/internal/service/errs"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/principal"
	"github.com/google/uuid"
)

// GetOrder returns the full order to its owner or to an admin.
func (s *OrderService) GetOrder(ctx context.Context, p principal.Principal, id uuid.UUID) (order.Order, error) {
	work := s.newUOW()

	o, err := work.OrderRepository().Get(ctx, id)
	if err != nil {
		return order.Order{}, err
	}
	if !p.CanAccess(o.UserID) {
		return order.Order{}, fmt.Errorf("order %s: %w", id, errs.ErrForbidden)
	}

	if err := loadChildren(ctx, work, &o); err != nil {
		return order.Order{}, err
	}

	return o, nil
}

// loadChildren fills in the items and payment owned by the order.
func loadChildren(ctx context.Context, work unitOfWork, o *order.Order) error {
	items, err := work.OrderItemRepository().ListByOrder(ctx, o.ID)
	if err != nil {
		return err
	}
	o.Items = items

	pay, err := work.PaymentRepository().GetByOrder(ctx, o.ID)
	if err != nil {
		return err
	}
	o.Payment = &pay

	return nil
}
