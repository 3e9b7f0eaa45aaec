package checkout

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/storefront/internal/service/models/delivery"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/corray333/backend-labs/storefront/internal/service/models/principal"
	"github.com/corray333/backend-labs/storefront/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/respond"
	"github.com/google/uuid"
)

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, p principal.Principal, req ordersvc.CreateOrderRequest) (order.Order, error)
}

// addressInCheckoutRequest represents the shipping address of a checkout.
type addressInCheckoutRequest struct {
	HouseNumber string `json:"houseNumber" validate:"required"`
	StreetName  string `json:"streetName"  validate:"required"`
	City        string `json:"city"        validate:"required"`
	State       string `json:"state"`
	Country     string `json:"country"     validate:"required"`
	PostalCode  string `json:"postalCode"`
}

// checkoutRequest represents a checkout request.
type checkoutRequest struct {
	CartItemIDs    []uuid.UUID              `json:"cartItemIds"    validate:"required,min=1"`
	DeliveryMethod string                   `json:"deliveryMethod" validate:"required"`
	PaymentMethod  string                   `json:"paymentMethod"  validate:"required"`
	Address        addressInCheckoutRequest `json:"address"`
}

// toModel converts checkoutRequest to ordersvc.CreateOrderRequest.
func (r *checkoutRequest) toModel() (ordersvc.CreateOrderRequest, error) {
	dm, err := delivery.ParseMethod(r.DeliveryMethod)
	if err != nil {
		return ordersvc.CreateOrderRequest{}, err
	}
	pm, err := payment.ParseMethod(r.PaymentMethod)
	if err != nil {
		return ordersvc.CreateOrderRequest{}, err
	}

	return ordersvc.CreateOrderRequest{
		CartItemIDs:    r.CartItemIDs,
		DeliveryMethod: dm,
		PaymentMethod:  pm,
		ShippingAddress: delivery.Address{
			HouseNumber: r.Address.HouseNumber,
			StreetName:  r.Address.StreetName,
			City:        r.Address.City,
			State:       r.Address.State,
			Country:     r.Address.Country,
			PostalCode:  r.Address.PostalCode,
		},
	}, nil
}

// Checkout handles the checkout request.
func Checkout(w http.ResponseWriter, r *http.Request, service service) {
	p, err := respond.Principal(r)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	req := checkoutRequest{}
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)

		return
	}

	model, err := req.toModel()
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	o, err := service.CreateOrder(r.Context(), p, model)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, r, http.StatusCreated, o)
}
