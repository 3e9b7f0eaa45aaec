package paymentsvc

import (
	"context"
	"fmt"

	"github.com/corray333/backend-labs/storefront/internal/service/errs"
	"github.com/corray333/backend-labs/storefront/internal/service/models/checkout"
	"github.com/corray333/backend-labs/storefront/internal/service/models/status"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReconcileResult reports what Reconcile found and did.
type ReconcileResult struct {
	OrderID          uuid.UUID `json:"orderId"`
	Paid             bool      `json:"paid"`
	AlreadyCompleted bool      `json:"alreadyCompleted"`
}

// Reconcile asks the gateway for the session and, if it is paid, marks the order
// and its payment COMPLETED. Repeated calls converge on the same state.
func (s *PaymentService) Reconcile(ctx context.Context, sessionID string) (ReconcileResult, error) {
	state, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		s.log.Error("Failed to retrieve checkout session", zap.String("session_id", sessionID), zap.Error(err))

		return ReconcileResult{}, fmt.Errorf("%w: %s", errs.ErrGatewayFailure, err.Error())
	}
	if !state.Paid {
		return ReconcileResult{}, nil
	}

	orderID, err := uuid.Parse(state.Metadata[checkout.MetadataOrderID])
	if err != nil {
		return ReconcileResult{}, errs.InvalidInputf("session %s carries no valid order id", sessionID)
	}

	res := ReconcileResult{OrderID: orderID, Paid: true}

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return ReconcileResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.rollback(ctx, work)

	// order row first, the same order UpdateStatus locks in
	if _, err := work.OrderRepository().GetForUpdate(ctx, orderID); err != nil {
		return ReconcileResult{}, err
	}

	pay, err := work.PaymentRepository().GetByOrderForUpdate(ctx, orderID)
	if err != nil {
		return ReconcileResult{}, err
	}
	if pay.Status == status.PaymentCompleted {
		res.AlreadyCompleted = true

		return res, nil
	}

	if err := work.OrderRepository().SetPaymentStatus(ctx, orderID, status.PaymentCompleted); err != nil {
		return ReconcileResult{}, err
	}
	if err := work.PaymentRepository().UpdateStatus(ctx, orderID, status.PaymentCompleted); err != nil {
		return ReconcileResult{}, err
	}

	if err := work.Commit(ctx); err != nil {
		return ReconcileResult{}, fmt.Errorf("failed to commit reconciliation: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, orderID); err != nil {
			s.log.Warn("Failed to drop cached session", zap.String("order_id", orderID.String()), zap.Error(err))
		}
	}

	s.log.Info("Payment completed",
		zap.String("order_id", orderID.String()),
		zap.String("session_id", sessionID),
	)

	return res, nil
}
