package payment

import (
	"context"
	"io"
	"net/http"

	"github.com/corray333/backend-labs/storefront/internal/service/errs"
	"github.com/corray333/backend-labs/storefront/internal/service/models/principal"
	"github.com/corray333/backend-labs/storefront/internal/service/services/paymentsvc"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/respond"
	"github.com/google/uuid"
	"github.com/gorilla/schema"
)

const maxWebhookBody = 64 << 10

type service interface {
	CreatePaymentSession(ctx context.Context, p principal.Principal, orderID uuid.UUID) (paymentsvc.SessionResult, error)
	Reconcile(ctx context.Context, sessionID string) (paymentsvc.ReconcileResult, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type createSessionRequest struct {
	OrderID uuid.UUID `json:"orderId" validate:"required"`
}

type verifyRequest struct {
	SessionID string `schema:"session_id" validate:"required"`
}

var decoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}()

// CreateSession opens a hosted checkout page for the order.
func CreateSession(w http.ResponseWriter, r *http.Request, service service) {
	p, err := respond.Principal(r)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	req := createSessionRequest{}
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)

		return
	}

	res, err := service.CreatePaymentSession(r.Context(), p, req.OrderID)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, r, http.StatusOK, res)
}

// Verify reconciles the session the gateway redirected the customer back with.
func Verify(w http.ResponseWriter, r *http.Request, service service) {
	req := verifyRequest{}
	if err := decoder.Decode(&req, r.URL.Query()); err != nil {
		respond.Error(w, r, errs.InvalidInputf("invalid query: %v", err))

		return
	}
	if err := respond.Validate(&req); err != nil {
		respond.Error(w, r, err)

		return
	}

	res, err := service.Reconcile(r.Context(), req.SessionID)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, r, http.StatusOK, res)
}

// Webhook receives signed gateway notifications.
func Webhook(w http.ResponseWriter, r *http.Request, service service) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respond.Error(w, r, errs.InvalidInputf("failed to read body: %v", err))

		return
	}

	if err := service.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		respond.Error(w, r, err)

		return
	}

	w.WriteHeader(http.StatusOK)
}
