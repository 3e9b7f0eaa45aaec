package paymentsvc

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/ipaymentrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/postgres"
	"github.com/corray333/backend-labs/storefront/internal/dal/uow"
	"github.com/corray333/backend-labs/storefront/internal/service/models/checkout"
	"github.com/corray333/backend-labs/storefront/internal/service/models/currency"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const defaultSessionTTL = 1380 * time.Minute

type gateway interface {
	CreateCheckoutSession(ctx context.Context, req checkout.SessionRequest) (checkout.Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (checkout.SessionState, error)
	ParseWebhook(payload []byte, signature string) (checkout.WebhookEvent, error)
}

type sessionCache interface {
	Get(ctx context.Context, orderID uuid.UUID) (checkout.Session, bool, error)
	Set(ctx context.Context, orderID uuid.UUID, sess checkout.Session, ttl time.Duration) error
	Delete(ctx context.Context, orderID uuid.UUID) error
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
	PaymentRepository() ipaymentrepo.IPaymentRepository
}

// PaymentService opens hosted checkout sessions and reconciles their outcome with orders.
type PaymentService struct {
	pgClient   *postgres.Client
	uowFactory func() unitOfWork
	gateway    gateway
	cache      sessionCache
	currency   currency.Currency
	sessionTTL time.Duration
	log        *zap.Logger
}

func (s *PaymentService) newUOW() unitOfWork {
	if s.uowFactory != nil {
		return s.uowFactory()
	}

	return uow.NewUnitOfWork(s.pgClient)
}

// option is a function that configures the PaymentService.
type option func(*PaymentService)

// MustNewPaymentService creates a new PaymentService.
func MustNewPaymentService(opts ...option) *PaymentService {
	s := &PaymentService{
		currency:   currency.CurrencyUSD,
		sessionTTL: defaultSessionTTL,
		log:        zap.L(),
	}
	if c, err := currency.ParseCurrency(viper.GetString("stripe.currency")); err == nil {
		s.currency = c
	}
	if minutes := viper.GetInt("payment.session_cache_ttl_minutes"); minutes > 0 {
		s.sessionTTL = time.Duration(minutes) * time.Minute
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.pgClient == nil && s.uowFactory == nil {
		panic("paymentsvc: postgres client is required")
	}
	if s.gateway == nil {
		panic("paymentsvc: payment gateway is required")
	}

	return s
}

// WithPostgresClient sets the Postgres client for the PaymentService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *PaymentService) {
		s.pgClient = pgClient
	}
}

// WithUnitOfWorkFactory replaces the Postgres backed unit of work.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory[U unitOfWork](factory func() U) option {
	return func(s *PaymentService) {
		s.uowFactory = func() unitOfWork { return factory() }
	}
}

// WithGateway sets the hosted checkout provider.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithGateway(g gateway) option {
	return func(s *PaymentService) {
		s.gateway = g
	}
}

// WithSessionCache sets the cache of created sessions. Without one every call reaches the gateway.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithSessionCache(c sessionCache) option {
	return func(s *PaymentService) {
		s.cache = c
	}
}

// WithCurrency overrides the charge currency.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithCurrency(c currency.Currency) option {
	return func(s *PaymentService) {
		s.currency = c
	}
}

// WithLogger sets the logger for the PaymentService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithLogger(log *zap.Logger) option {
	return func(s *PaymentService) {
		s.log = log
	}
}

func (s *PaymentService) rollback(ctx context.Context, work unitOfWork) {
	if err := work.Rollback(ctx); err != nil {
		s.log.Error("Failed to rollback transaction", zap.Error(err))
	}
}
