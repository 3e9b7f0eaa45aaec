package ordersvc

import (
	"context"
	"fmt"

	"github.com/corray333/backend-labs/storefront/internal/service/errs"
	"github.com/corray333/backend-labs/storefront/internal/service/models/cartitem"
	"github.com/corray333/backend-labs/storefront/internal/service/models/delivery"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/corray333/backend-labs/storefront/internal/service/models/principal"
	"github.com/corray333/backend-labs/storefront/internal/service/models/status"
	"github.com/corray333/backend-labs/storefront/internal/service/services/pricing"
	"github.com/corray333/backend-labs/storefront/internal/service/services/stockledger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateOrderRequest is the checkout input.
type CreateOrderRequest struct {
	CartItemIDs     []uuid.UUID
	DeliveryMethod  delivery.Method
	PaymentMethod   payment.Method
	ShippingAddress delivery.Address
}

// Validate checks the request shape before any row is touched.
func (r CreateOrderRequest) Validate() error {
	if len(r.CartItemIDs) == 0 {
		return errs.InvalidInputf("no cart items selected")
	}

	seen := make(map[uuid.UUID]struct{}, len(r.CartItemIDs))
	for _, id := range r.CartItemIDs {
		if _, dup := seen[id]; dup {
			return errs.InvalidInputf("cart item %s selected twice", id)
		}
		seen[id] = struct{}{}
	}

	if _, err := delivery.ParseMethod(r.DeliveryMethod.String()); err != nil {
		return err
	}
	if _, err := payment.ParseMethod(r.PaymentMethod.String()); err != nil {
		return err
	}

	return nil
}

// CreateOrder turns the selected cart items into an order, its items and its payment record.
// Everything happens in one transaction: stock reservations, inserts and the cart cleanup
// either all commit or none do.
func (s *OrderService) CreateOrder(
	ctx context.Context,
	p principal.Principal,
	req CreateOrderRequest,
) (order.Order, error) {
	if p.UserID == uuid.Nil {
		return order.Order{}, errs.ErrUnauthorized
	}
	if err := req.Validate(); err != nil {
		return order.Order{}, err
	}

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return order.Order{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.rollback(ctx, work)

	items, err := s.resolveCartItems(ctx, work, p, req.CartItemIDs)
	if err != nil {
		return order.Order{}, err
	}

	reqs := make([]stockledger.Request, len(items))
	for i, item := range items {
		reqs[i] = stockledger.Request{VariantID: item.VariantID, Quantity: item.Quantity}
	}

	reserved, err := stockledger.New(work.VariantRepository()).ReserveAll(ctx, reqs)
	if err != nil {
		return order.Order{}, err
	}

	fee := req.DeliveryMethod.Fee()
	o := order.Order{
		UserID:          p.UserID,
		OrderStatus:     status.OrderPending,
		PaymentStatus:   status.PaymentPending,
		DeliveryStatus:  status.DeliveryPreparing,
		DeliveryMethod:  req.DeliveryMethod,
		DeliveryFee:     fee,
		ShippingAddress: req.ShippingAddress,
	}
	for i, item := range items {
		o.Items = append(o.Items, pricing.Snapshot(item, reserved[i]))
	}
	o.TotalAmount = pricing.Total(o.Items, fee)

	if err := o.ValidateTotals(); err != nil {
		return order.Order{}, fmt.Errorf("order totals mismatch: %w", err)
	}

	snapshot := o.Items
	o, err = work.OrderRepository().Insert(ctx, o)
	if err != nil {
		return order.Order{}, err
	}

	for i := range snapshot {
		snapshot[i].OrderID = o.ID
	}
	o.Items, err = work.OrderItemRepository().BulkInsert(ctx, snapshot)
	if err != nil {
		return order.Order{}, err
	}

	pay, err := work.PaymentRepository().Insert(ctx, payment.Payment{
		OrderID: o.ID,
		Amount:  o.TotalAmount,
		Method:  req.PaymentMethod,
		Status:  status.PaymentPending,
	})
	if err != nil {
		return order.Order{}, err
	}
	o.Payment = &pay

	if err := work.CartItemRepository().DeleteByIDs(ctx, req.CartItemIDs); err != nil {
		return order.Order{}, err
	}

	if err := work.Commit(ctx); err != nil {
		return order.Order{}, fmt.Errorf("failed to commit order: %w", err)
	}

	s.log.Info("Order created",
		zap.String("order_id", o.ID.String()),
		zap.String("user_id", p.UserID.String()),
		zap.String("total", o.TotalAmount.StringFixed(2)),
		zap.Int("items", len(o.Items)),
	)

	return o, nil
}

// resolveCartItems locks the selected cart items and returns them in request order.
func (s *OrderService) resolveCartItems(
	ctx context.Context,
	work unitOfWork,
	p principal.Principal,
	ids []uuid.UUID,
) ([]cartitem.CartItem, error) {
	found, err := work.CartItemRepository().GetForUpdate(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]cartitem.CartItem, len(found))
	for _, item := range found {
		byID[item.ID] = item
	}

	items := make([]cartitem.CartItem, 0, len(ids))
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			return nil, errs.NotFoundf("cart item %s", id)
		}
		items = append(items, item)
	}

	for _, item := range items {
		if item.UserID != p.UserID {
			return nil, fmt.Errorf("cart item %s belongs to another user: %w", item.ID, errs.ErrForbidden)
		}
	}

	return items, nil
}
