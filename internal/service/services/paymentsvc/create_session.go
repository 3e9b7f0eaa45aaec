package paymentsvc

import (
	"context"
	"fmt"

	"github.com/corray333/backend-labs/storefront/internal/service/errs"
	"github.com/corray333/backend-labs/storefront/internal/service/models/checkout"
	"github.com/corray333/backend-labs/storefront/internal/service/models/currency"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/corray333/backend-labs/storefront/internal/service/models/principal"
	"github.com/corray333/backend-labs/storefront/internal/service/models/status"
	"github.com/corray333/backend-labs/storefront/internal/service/services/pricing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionResult is the outcome of CreatePaymentSession.
// Skipped is set for cash orders, which are settled on delivery.
type SessionResult struct {
	Skipped    bool   `json:"skipped"`
	SessionID  string `json:"sessionId,omitempty"`
	SessionURL string `json:"sessionUrl,omitempty"`
}

// CreatePaymentSession opens a hosted checkout session for the order.
// A gateway failure leaves the order untouched, so the call can be repeated.
func (s *PaymentService) CreatePaymentSession(
	ctx context.Context,
	p principal.Principal,
	orderID uuid.UUID,
) (SessionResult, error) {
	work := s.newUOW()

	o, err := work.OrderRepository().Get(ctx, orderID)
	if err != nil {
		return SessionResult{}, err
	}
	if !p.CanAccess(o.UserID) {
		return SessionResult{}, fmt.Errorf("order %s: %w", orderID, errs.ErrForbidden)
	}

	pay, err := work.PaymentRepository().GetByOrder(ctx, orderID)
	if err != nil {
		return SessionResult{}, err
	}

	if pay.Status == status.PaymentCompleted {
		return SessionResult{}, fmt.Errorf("order %s: %w", orderID, errs.ErrAlreadyPaid)
	}
	if pay.Method == payment.MethodCash {
		return SessionResult{Skipped: true}, nil
	}

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, orderID)
		if err != nil {
			s.log.Warn("Session cache read failed", zap.String("order_id", orderID.String()), zap.Error(err))
		} else if ok {
			return SessionResult{SessionID: cached.ID, SessionURL: cached.URL}, nil
		}
	}

	o.Items, err = work.OrderItemRepository().ListByOrder(ctx, orderID)
	if err != nil {
		return SessionResult{}, err
	}

	sess, err := s.gateway.CreateCheckoutSession(ctx, BuildCheckoutRequest(o, s.currency))
	if err != nil {
		s.log.Error("Failed to create checkout session", zap.String("order_id", orderID.String()), zap.Error(err))

		return SessionResult{}, fmt.Errorf("%w: %s", errs.ErrGatewayFailure, err.Error())
	}

	if err := work.PaymentRepository().SetSessionID(ctx, orderID, sess.ID); err != nil {
		return SessionResult{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, orderID, sess, s.sessionTTL); err != nil {
			s.log.Warn("Failed to cache checkout session", zap.String("order_id", orderID.String()), zap.Error(err))
		}
	}

	s.log.Info("Checkout session created",
		zap.String("order_id", orderID.String()),
		zap.String("session_id", sess.ID),
	)

	return SessionResult{SessionID: sess.ID, SessionURL: sess.URL}, nil
}

// BuildCheckoutRequest lists one line per order item plus the shipping fee when there is one.
func BuildCheckoutRequest(o order.Order, cur currency.Currency) checkout.SessionRequest {
	req := checkout.SessionRequest{
		OrderID:        o.ID.String(),
		Currency:       cur.Lower(),
		Metadata:       map[string]string{checkout.MetadataOrderID: o.ID.String()},
		IdempotencyKey: "checkout-session:" + o.ID.String(),
	}

	for _, item := range o.Items {
		req.Items = append(req.Items, checkout.LineItem{
			Name:       fmt.Sprintf("%s (Size: %s, Scent: %s)", item.VariantName, item.Size, item.Scent),
			UnitAmount: pricing.MinorUnits(item.UnitPrice),
			Quantity:   int64(item.Quantity),
		})
	}

	if o.DeliveryFee.IsPositive() {
		req.Items = append(req.Items, checkout.LineItem{
			Name:       fmt.Sprintf("Shipping Fee (%s)", o.DeliveryMethod),
			UnitAmount: pricing.MinorUnits(o.DeliveryFee),
			Quantity:   1,
		})
	}

	return req
}
