package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/service/models/catalog"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/principal"
	"github.com/corray333/backend-labs/storefront/internal/service/models/searchdoc"
	"github.com/corray333/backend-labs/storefront/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/storefront/internal/service/services/paymentsvc"
	admincatalog "github.com/corray333/backend-labs/storefront/internal/transport/http/admin_catalog"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/checkout"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/docs"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/orders"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/payment"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/search"
	"github.com/corray333/backend-labs/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type orderService interface {
	CreateOrder(ctx context.Context, p principal.Principal, req ordersvc.CreateOrderRequest) (order.Order, error)
	GetOrder(ctx context.Context, p principal.Principal, id uuid.UUID) (order.Order, error)
	UpdateStatus(
		ctx context.Context,
		p principal.Principal,
		id uuid.UUID,
		req ordersvc.UpdateStatusRequest,
	) (order.Order, error)
}

type paymentService interface {
	CreatePaymentSession(ctx context.Context, p principal.Principal, orderID uuid.UUID) (paymentsvc.SessionResult, error)
	Reconcile(ctx context.Context, sessionID string) (paymentsvc.ReconcileResult, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type catalogService interface {
	UpdateBrand(ctx context.Context, p principal.Principal, b catalog.Brand) (catalog.Brand, error)
	DeleteBrand(ctx context.Context, p principal.Principal, id uuid.UUID) error
	CreateProduct(ctx context.Context, p principal.Principal, prod catalog.Product) (catalog.Product, error)
	UpdateProduct(ctx context.Context, p principal.Principal, prod catalog.Product) (catalog.Product, error)
	DeleteProduct(ctx context.Context, p principal.Principal, id uuid.UUID) error
	CreateVariant(ctx context.Context, p principal.Principal, productID uuid.UUID, v catalog.Variant) (catalog.Variant, error)
	UpdateVariant(ctx context.Context, p principal.Principal, v catalog.Variant) (catalog.Variant, error)
	DeleteVariant(ctx context.Context, p principal.Principal, id uuid.UUID) error
	Restock(ctx context.Context, p principal.Principal, variantID uuid.UUID, quantity int) error
}

type indexService interface {
	Reindex(ctx context.Context, p principal.Principal) (int, error)
	SearchByBrand(ctx context.Context, p principal.Principal, brand string) ([]searchdoc.Document, error)
}

type authenticator interface {
	Middleware(next http.Handler) http.Handler
}

// Services groups what the HTTP API calls into.
type Services struct {
	Orders   orderService
	Payments paymentService
	Catalog  catalogService
	Index    indexService
}

type HTTPTransport struct {
	server   *http.Server
	router   *chi.Mux
	services Services
	auth     authenticator
}

//goland:noinspection GoExportedFuncWithUnexportedType
func NewHTTPTransport(services Services, auth authenticator) *HTTPTransport {
	router := newRouter()
	server := newServer(router)

	return &HTTPTransport{
		server:   server,
		router:   router,
		services: services,
		auth:     auth,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// Handler exposes the router, used by tests.
func (h *HTTPTransport) Handler() http.Handler {
	return h.router
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Get("/swagger/doc.json", docs.Handler)
	h.router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	h.router.Route("/api", func(r chi.Router) {
		r.Get("/payment/verify", h.verifyPayment)
		r.Post("/payment/webhook", h.paymentWebhook)

		r.Group(func(r chi.Router) {
			r.Use(h.auth.Middleware)

			r.Post("/checkout", h.checkout)
			r.Get("/orders/{id}", h.getOrder)
			r.Put("/orders/{id}", h.updateOrderStatus)
			r.Post("/payment/create-session", h.createPaymentSession)

			r.Route("/admin", func(r chi.Router) {
				r.Put("/brands/{id}", h.updateBrand)
				r.Delete("/brands/{id}", h.deleteBrand)
				r.Post("/products", h.createProduct)
				r.Put("/products/{id}", h.updateProduct)
				r.Delete("/products/{id}", h.deleteProduct)
				r.Post("/products/{id}/variants", h.createVariant)
				r.Put("/variants/{id}", h.updateVariant)
				r.Delete("/variants/{id}", h.deleteVariant)
				r.Post("/variants/{id}/restock", h.restockVariant)
				r.Post("/search/reindex", h.reindex)
				r.Get("/search", h.searchByBrand)
			})
		})
	})
}

func (h *HTTPTransport) checkout(w http.ResponseWriter, r *http.Request) {
	checkout.Checkout(w, r, h.services.Orders)
}

func (h *HTTPTransport) getOrder(w http.ResponseWriter, r *http.Request) {
	orders.GetOrder(w, r, h.services.Orders)
}

func (h *HTTPTransport) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orders.UpdateStatus(w, r, h.services.Orders)
}

func (h *HTTPTransport) createPaymentSession(w http.ResponseWriter, r *http.Request) {
	payment.CreateSession(w, r, h.services.Payments)
}

func (h *HTTPTransport) verifyPayment(w http.ResponseWriter, r *http.Request) {
	payment.Verify(w, r, h.services.Payments)
}

func (h *HTTPTransport) paymentWebhook(w http.ResponseWriter, r *http.Request) {
	payment.Webhook(w, r, h.services.Payments)
}

func (h *HTTPTransport) updateBrand(w http.ResponseWriter, r *http.Request) {
	admincatalog.UpdateBrand(w, r, h.services.Catalog)
}

func (h *HTTPTransport) deleteBrand(w http.ResponseWriter, r *http.Request) {
	admincatalog.DeleteBrand(w, r, h.services.Catalog)
}

func (h *HTTPTransport) createProduct(w http.ResponseWriter, r *http.Request) {
	admincatalog.CreateProduct(w, r, h.services.Catalog)
}

func (h *HTTPTransport) updateProduct(w http.ResponseWriter, r *http.Request) {
	admincatalog.UpdateProduct(w, r, h.services.Catalog)
}

func (h *HTTPTransport) deleteProduct(w http.ResponseWriter, r *http.Request) {
	admincatalog.DeleteProduct(w, r, h.services.Catalog)
}

func (h *HTTPTransport) createVariant(w http.ResponseWriter, r *http.Request) {
	admincatalog.CreateVariant(w, r, h.services.Catalog)
}

func (h *HTTPTransport) updateVariant(w http.ResponseWriter, r *http.Request) {
	admincatalog.UpdateVariant(w, r, h.services.Catalog)
}

func (h *HTTPTransport) deleteVariant(w http.ResponseWriter, r *http.Request) {
	admincatalog.DeleteVariant(w, r, h.services.Catalog)
}

func (h *HTTPTransport) restockVariant(w http.ResponseWriter, r *http.Request) {
	admincatalog.Restock(w, r, h.services.Catalog)
}

func (h *HTTPTransport) reindex(w http.ResponseWriter, r *http.Request) {
	search.Reindex(w, r, h.services.Index)
}

func (h *HTTPTransport) searchByBrand(w http.ResponseWriter, r *http.Request) {
	search.ByBrand(w, r, h.services.Index)
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(logger.NewLoggerMiddleware(zap.L().Named("http")))

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:              "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
