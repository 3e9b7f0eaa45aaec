package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/corray333/backend-labs/storefront/internal/service/errs"
	"github.com/corray333/backend-labs/storefront/internal/service/models/catalog"
	"github.com/corray333/backend-labs/storefront/internal/service/models/delivery"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/corray333/backend-labs/storefront/internal/service/models/principal"
	"github.com/corray333/backend-labs/storefront/internal/service/models/searchdoc"
	"github.com/corray333/backend-labs/storefront/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/storefront/internal/service/services/paymentsvc"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/middleware/auth"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/respond"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeServices struct {
	caller principal.Principal

	createReq  ordersvc.CreateOrderRequest
	createErr  error
	getErr     error
	statusReq  ordersvc.UpdateStatusRequest
	sessionErr error
	reconciled string
	webhook    []byte
	signature  string
	restocked  int
	brand      string
}

func (f *fakeServices) CreateOrder(_ context.Context, p principal.Principal, req ordersvc.CreateOrderRequest) (order.Order, error) {
	f.caller = p
	f.createReq = req
	if f.createErr != nil {
		return order.Order{}, f.createErr
	}

	return order.Order{ID: uuid.New(), UserID: p.UserID, DeliveryMethod: req.DeliveryMethod}, nil
}

func (f *fakeServices) GetOrder(_ context.Context, p principal.Principal, id uuid.UUID) (order.Order, error) {
	f.caller = p
	if f.getErr != nil {
		return order.Order{}, f.getErr
	}

	return order.Order{ID: id, UserID: p.UserID}, nil
}

func (f *fakeServices) UpdateStatus(
	_ context.Context,
	p principal.Principal,
	id uuid.UUID,
	req ordersvc.UpdateStatusRequest,
) (order.Order, error) {
	f.caller = p
	f.statusReq = req

	return order.Order{ID: id}, nil
}

func (f *fakeServices) CreatePaymentSession(_ context.Context, p principal.Principal, _ uuid.UUID) (paymentsvc.SessionResult, error) {
	f.caller = p
	if f.sessionErr != nil {
		return paymentsvc.SessionResult{}, f.sessionErr
	}

	return paymentsvc.SessionResult{SessionID: "cs_test_1", SessionURL: "https://checkout.stripe.com/c/cs_test_1"}, nil
}

func (f *fakeServices) Reconcile(_ context.Context, sessionID string) (paymentsvc.ReconcileResult, error) {
	f.reconciled = sessionID

	return paymentsvc.ReconcileResult{Paid: true}, nil
}

func (f *fakeServices) HandleWebhook(_ context.Context, payload []byte, signature string) error {
	f.webhook = payload
	f.signature = signature
	if signature != "valid" {
		return errs.InvalidInputf("bad signature")
	}

	return nil
}

func (f *fakeServices) UpdateBrand(_ context.Context, _ principal.Principal, b catalog.Brand) (catalog.Brand, error) {
	return b, nil
}

func (f *fakeServices) DeleteBrand(context.Context, principal.Principal, uuid.UUID) error {
	return nil
}

func (f *fakeServices) CreateProduct(_ context.Context, _ principal.Principal, prod catalog.Product) (catalog.Product, error) {
	return prod, nil
}

func (f *fakeServices) UpdateProduct(_ context.Context, _ principal.Principal, prod catalog.Product) (catalog.Product, error) {
	return prod, nil
}

func (f *fakeServices) DeleteProduct(context.Context, principal.Principal, uuid.UUID) error {
	return nil
}

func (f *fakeServices) CreateVariant(
	_ context.Context,
	_ principal.Principal,
	_ uuid.UUID,
	v catalog.Variant,
) (catalog.Variant, error) {
	return v, nil
}

func (f *fakeServices) UpdateVariant(_ context.Context, _ principal.Principal, v catalog.Variant) (catalog.Variant, error) {
	return v, nil
}

func (f *fakeServices) DeleteVariant(context.Context, principal.Principal, uuid.UUID) error {
	return nil
}

func (f *fakeServices) Restock(_ context.Context, p principal.Principal, _ uuid.UUID, quantity int) error {
	if !p.IsAdmin() {
		return errs.ErrForbidden
	}
	f.restocked = quantity

	return nil
}

func (f *fakeServices) Reindex(_ context.Context, p principal.Principal) (int, error) {
	if !p.IsAdmin() {
		return 0, errs.ErrForbidden
	}

	return 3, nil
}

func (f *fakeServices) SearchByBrand(_ context.Context, _ principal.Principal, brand string) ([]searchdoc.Document, error) {
	f.brand = brand

	return []searchdoc.Document{{ID: uuid.NewString(), BrandName: brand}}, nil
}

func newTestTransport(t *testing.T) (*HTTPTransport, *fakeServices) {
	t.Helper()

	f := &fakeServices{}
	h := NewHTTPTransport(Services{Orders: f, Payments: f, Catalog: f, Index: f}, auth.NewVerifier(testSecret))
	h.RegisterRoutes()

	return h, f
}

func token(t *testing.T, userID uuid.UUID, role principal.Role) string {
	t.Helper()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UserID: userID.String(),
		Role:   string(role),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	return signed
}

func do(t *testing.T, h *HTTPTransport, method, target, bearer, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, req)

	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) respond.ErrorBody {
	t.Helper()

	var body respond.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body
}

const checkoutBody = `{
	"cartItemIds": ["6b0c2a0e-4a36-4d6c-9e0b-1b1f3a2d7c11"],
	"deliveryMethod": "GRAB_EXPRESS",
	"paymentMethod": "STRIPE",
	"address": {"houseNumber": "12", "streetName": "Le Loi", "city": "Hanoi", "country": "VN"}
}`

func TestAuth_RejectsMissingAndForgedTokens(t *testing.T) {
	h, _ := newTestTransport(t)

	rec := do(t, h, http.MethodPost, "/api/checkout", "", checkoutBody)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UserID: uuid.NewString(),
		Role:   "ADMIN",
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	rec = do(t, h, http.MethodPost, "/api/checkout", forged, checkoutBody)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckout_PassesPrincipalAndRequest(t *testing.T) {
	h, f := newTestTransport(t)
	userID := uuid.New()

	rec := do(t, h, http.MethodPost, "/api/checkout", token(t, userID, principal.RoleUser), checkoutBody)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, principal.Principal{UserID: userID, Role: principal.RoleUser}, f.caller)
	assert.Equal(t, delivery.GrabExpress, f.createReq.DeliveryMethod)
	assert.Equal(t, payment.MethodStripe, f.createReq.PaymentMethod)
	assert.Equal(t, "Hanoi", f.createReq.ShippingAddress.City)
	require.Len(t, f.createReq.CartItemIDs, 1)

	var o order.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &o))
	assert.Equal(t, userID, o.UserID)
}

func TestCheckout_ValidationErrors(t *testing.T) {
	h, _ := newTestTransport(t)
	tok := token(t, uuid.New(), principal.RoleUser)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"cartItemIds":`},
		{"no items", `{"cartItemIds": [], "deliveryMethod": "GRAB_EXPRESS", "paymentMethod": "CASH"}`},
		{"unknown delivery", strings.Replace(checkoutBody, "GRAB_EXPRESS", "PIGEON", 1)},
		{"unknown payment", strings.Replace(checkoutBody, "STRIPE", "BARTER", 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/checkout", tok, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCheckout_OutOfStockReportsAvailable(t *testing.T) {
	h, f := newTestTransport(t)
	f.createErr = &errs.OutOfStockError{VariantName: "50ml", Requested: 2, Available: 1}

	rec := do(t, h, http.MethodPost, "/api/checkout", token(t, uuid.New(), principal.RoleUser), checkoutBody)

	require.Equal(t, http.StatusConflict, rec.Code)
	body := decodeError(t, rec)
	require.NotNil(t, body.Available)
	assert.Equal(t, 1, *body.Available)
	assert.Contains(t, body.Error, "50ml")
}

func TestGetOrder(t *testing.T) {
	h, f := newTestTransport(t)
	tok := token(t, uuid.New(), principal.RoleUser)
	id := uuid.New()

	rec := do(t, h, http.MethodGet, "/api/orders/"+id.String(), tok, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/orders/not-a-uuid", tok, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.getErr = errs.NotFoundf("order %s", id)
	rec = do(t, h, http.MethodGet, "/api/orders/"+id.String(), tok, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	f.getErr = errs.ErrForbidden
	rec = do(t, h, http.MethodGet, "/api/orders/"+id.String(), tok, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateOrderStatus_PassesOnlyGivenAxes(t *testing.T) {
	h, f := newTestTransport(t)

	rec := do(t, h, http.MethodPut, "/api/orders/"+uuid.NewString(),
		token(t, uuid.New(), principal.RoleAdmin), `{"deliveryStatus": "SHIPPED"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, f.statusReq.OrderStatus)
	assert.Nil(t, f.statusReq.PaymentStatus)
	require.NotNil(t, f.statusReq.DeliveryStatus)
	assert.Equal(t, "SHIPPED", *f.statusReq.DeliveryStatus)
}

func TestPaymentSession_GatewayFailure(t *testing.T) {
	h, f := newTestTransport(t)
	tok := token(t, uuid.New(), principal.RoleUser)
	body := `{"orderId": "` + uuid.NewString() + `"}`

	rec := do(t, h, http.MethodPost, "/api/payment/create-session", tok, body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cs_test_1")

	f.sessionErr = errs.ErrGatewayFailure
	rec = do(t, h, http.MethodPost, "/api/payment/create-session", tok, body)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestVerifyPayment_IsPublic(t *testing.T) {
	h, f := newTestTransport(t)

	rec := do(t, h, http.MethodGet, "/api/payment/verify?session_id=cs_test_9", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cs_test_9", f.reconciled)

	rec = do(t, h, http.MethodGet, "/api/payment/verify", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentWebhook_ForwardsSignature(t *testing.T) {
	h, f := newTestTransport(t)

	req := httptest.NewRequest(http.MethodPost, "/api/payment/webhook", strings.NewReader(`{"id":"evt_1"}`))
	req.Header.Set("Stripe-Signature", "valid")
	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"evt_1"}`, string(f.webhook))
	assert.Equal(t, "valid", f.signature)

	req = httptest.NewRequest(http.MethodPost, "/api/payment/webhook", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "forged")
	rec = httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRoutes(t *testing.T) {
	h, f := newTestTransport(t)
	admin := token(t, uuid.New(), principal.RoleAdmin)
	user := token(t, uuid.New(), principal.RoleUser)
	restock := "/api/admin/variants/" + uuid.NewString() + "/restock"

	rec := do(t, h, http.MethodPost, restock, admin, `{"quantity": 5}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 5, f.restocked)

	rec = do(t, h, http.MethodPost, restock, admin, `{"quantity": 0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Quantity", decodeError(t, rec).Field)

	rec = do(t, h, http.MethodPost, restock, user, `{"quantity": 5}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/admin/search/reindex", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"indexed": 3}`, rec.Body.String())
}

func TestSearchByBrand(t *testing.T) {
	h, f := newTestTransport(t)
	admin := token(t, uuid.New(), principal.RoleAdmin)

	rec := do(t, h, http.MethodGet, "/api/admin/search?brand=Maison+Lune", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Maison Lune", f.brand)

	var docs []searchdoc.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "Maison Lune", docs[0].BrandName)

	rec = do(t, h, http.MethodGet, "/api/admin/search", admin, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
