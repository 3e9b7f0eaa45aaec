package ordersvc

import (
	"context"

	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/icartrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/ipaymentrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/ivariantrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/postgres"
	"github.com/corray333/backend-labs/storefront/internal/dal/uow"
	"github.com/corray333/backend-labs/storefront/internal/service/models/status"
	"go.uber.org/zap"
)

// OrderService materializes carts into orders and moves their statuses.
type OrderService struct {
	pgClient   *postgres.Client
	uowFactory func() unitOfWork
	policy     status.Policy
	log        *zap.Logger
}

func (s *OrderService) newUOW() unitOfWork {
	if s.uowFactory != nil {
		return s.uowFactory()
	}

	return uow.NewUnitOfWork(s.pgClient)
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	CartItemRepository() icartrepo.ICartItemRepository
	VariantRepository() ivariantrepo.IVariantRepository
	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
	PaymentRepository() ipaymentrepo.IPaymentRepository
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{
		log: zap.L(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.pgClient == nil && s.uowFactory == nil {
		panic("ordersvc: postgres client is required")
	}

	return s
}

// WithPostgresClient sets the Postgres client for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *OrderService) {
		s.pgClient = pgClient
	}
}

// WithUnitOfWorkFactory replaces the Postgres backed unit of work.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory[U unitOfWork](factory func() U) option {
	return func(s *OrderService) {
		s.uowFactory = func() unitOfWork { return factory() }
	}
}

// WithStatusPolicy sets whether the transition tables are enforced.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithStatusPolicy(policy status.Policy) option {
	return func(s *OrderService) {
		s.policy = policy
	}
}

// WithLogger sets the logger for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithLogger(log *zap.Logger) option {
	return func(s *OrderService) {
		s.log = log
	}
}

// rollback is deferred after Begin. Once Commit succeeded it does nothing.
func (s *OrderService) rollback(ctx context.Context, work unitOfWork) {
	if err := work.Rollback(ctx); err != nil {
		s.log.Error("Failed to rollback transaction", zap.Error(err))
	}
}
