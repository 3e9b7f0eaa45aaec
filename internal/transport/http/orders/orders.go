package orders

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/storefront/internal/service/errs"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/principal"
	"github.com/corray333/backend-labs/storefront/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/respond"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type service interface {
	GetOrder(ctx context.Context, p principal.Principal, id uuid.UUID) (order.Order, error)
	UpdateStatus(
		ctx context.Context,
		p principal.Principal,
		id uuid.UUID,
		req ordersvc.UpdateStatusRequest,
	) (order.Order, error)
}

// updateStatusRequest carries the optional new status of each axis.
type updateStatusRequest struct {
	OrderStatus    *string `json:"orderStatus"`
	PaymentStatus  *string `json:"paymentStatus"`
	DeliveryStatus *string `json:"deliveryStatus"`
}

// GetOrder returns one order with its items and payment.
func GetOrder(w http.ResponseWriter, r *http.Request, service service) {
	p, id, err := principalAndID(r)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	o, err := service.GetOrder(r.Context(), p, id)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, r, http.StatusOK, o)
}

// UpdateStatus changes any subset of the three status axes of an order.
func UpdateStatus(w http.ResponseWriter, r *http.Request, service service) {
	p, id, err := principalAndID(r)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	req := updateStatusRequest{}
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)

		return
	}

	o, err := service.UpdateStatus(r.Context(), p, id, ordersvc.UpdateStatusRequest{
		OrderStatus:    req.OrderStatus,
		PaymentStatus:  req.PaymentStatus,
		DeliveryStatus: req.DeliveryStatus,
	})
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, r, http.StatusOK, o)
}

func principalAndID(r *http.Request) (principal.Principal, uuid.UUID, error) {
	p, err := respond.Principal(r)
	if err != nil {
		return principal.Principal{}, uuid.Nil, err
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return principal.Principal{}, uuid.Nil, errs.InvalidInputf("invalid order id %q", chi.URLParam(r, "id"))
	}

	return p, id, nil
}
