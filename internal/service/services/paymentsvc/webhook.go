package paymentsvc

import (
	"context"

	"github.com/corray333/backend-labs/storefront/internal/service/errs"
	"github.com/corray333/backend-labs/storefront/internal/service/models/checkout"
	"go.uber.org/zap"
)

// HandleWebhook verifies a gateway notification and reconciles the session it confirms.
// Event types other than payment confirmations are acknowledged and ignored.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return errs.InvalidInputf("webhook rejected: %v", err)
	}

	switch event.Type {
	case checkout.EventSessionCompleted, checkout.EventAsyncPaymentSucceeded:
	default:
		s.log.Debug("Ignoring webhook event", zap.String("event_id", event.ID), zap.String("type", event.Type))

		return nil
	}

	if event.SessionID == "" {
		return errs.InvalidInputf("webhook event %s has no session", event.ID)
	}

	_, err = s.Reconcile(ctx, event.SessionID)

	return err
}
