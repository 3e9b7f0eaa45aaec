package ordersvc

import (
	"context"
	"fmt"

	"github.com/corray333/backend-labs/storefront/internal/service/errs"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/principal"
	"github.com/corray333/backend-labs/storefront/internal/service/models/status"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UpdateStatusRequest carries raw status values. Nil means leave the axis alone.
type UpdateStatusRequest struct {
	OrderStatus    *string
	PaymentStatus  *string
	DeliveryStatus *string
}

// Parse validates every provided value against its enumeration.
func (r UpdateStatusRequest) Parse() (order.StatusUpdate, error) {
	var update order.StatusUpdate

	if r.OrderStatus != nil {
		v, err := status.ParseOrderStatus(*r.OrderStatus)
		if err != nil {
			return order.StatusUpdate{}, err
		}
		update.OrderStatus = &v
	}
	if r.PaymentStatus != nil {
		v, err := status.ParsePaymentStatus(*r.PaymentStatus)
		if err != nil {
			return order.StatusUpdate{}, err
		}
		update.PaymentStatus = &v
	}
	if r.DeliveryStatus != nil {
		v, err := status.ParseDeliveryStatus(*r.DeliveryStatus)
		if err != nil {
			return order.StatusUpdate{}, err
		}
		update.DeliveryStatus = &v
	}

	return update, nil
}

// UpdateStatus writes the provided status axes of an order. Each axis is independent.
// The order row is locked for the duration so that a concurrent reconciliation
// cannot interleave with the transition check.
func (s *OrderService) UpdateStatus(
	ctx context.Context,
	p principal.Principal,
	id uuid.UUID,
	req UpdateStatusRequest,
) (order.Order, error) {
	if !p.IsAdmin() {
		return order.Order{}, fmt.Errorf("status update requires admin: %w", errs.ErrForbidden)
	}

	update, err := req.Parse()
	if err != nil {
		return order.Order{}, err
	}
	if update.Empty() {
		return s.GetOrder(ctx, p, id)
	}

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return order.Order{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.rollback(ctx, work)

	current, err := work.OrderRepository().GetForUpdate(ctx, id)
	if err != nil {
		return order.Order{}, err
	}

	if err := s.checkTransitions(current, update); err != nil {
		return order.Order{}, err
	}

	updated, err := work.OrderRepository().UpdateStatuses(ctx, id, update)
	if err != nil {
		return order.Order{}, err
	}

	if err := loadChildren(ctx, work, &updated); err != nil {
		return order.Order{}, err
	}

	if err := work.Commit(ctx); err != nil {
		return order.Order{}, fmt.Errorf("failed to commit status update: %w", err)
	}

	s.log.Info("Order status updated",
		zap.String("order_id", id.String()),
		zap.String("order_status", updated.OrderStatus.String()),
		zap.String("payment_status", updated.PaymentStatus.String()),
		zap.String("delivery_status", updated.DeliveryStatus.String()),
	)

	return updated, nil
}

func (s *OrderService) checkTransitions(current order.Order, update order.StatusUpdate) error {
	if update.OrderStatus != nil {
		if err := status.Check(s.policy, status.FieldOrderStatus, status.OrderTable,
			current.OrderStatus, *update.OrderStatus); err != nil {
			return err
		}
	}
	if update.PaymentStatus != nil {
		if err := status.Check(s.policy, status.FieldPaymentStatus, status.PaymentTable,
			current.PaymentStatus, *update.PaymentStatus); err != nil {
			return err
		}
	}
	if update.DeliveryStatus != nil {
		if err := status.Check(s.policy, status.FieldDeliveryStatus, status.DeliveryTable,
			current.DeliveryStatus, *update.DeliveryStatus); err != nil {
			return err
		}
	}

	return nil
}
