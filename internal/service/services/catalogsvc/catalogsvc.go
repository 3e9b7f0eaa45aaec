package catalogsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/icatalogrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/ivariantrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/postgres"
	"github.com/corray333/backend-labs/storefront/internal/dal/uow"
	"github.com/corray333/backend-labs/storefront/internal/service/errs"
	"github.com/corray333/backend-labs/storefront/internal/service/models/catalog"
	"github.com/corray333/backend-labs/storefront/internal/service/models/outbox"
	"github.com/corray333/backend-labs/storefront/internal/service/models/principal"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	defaultExchange   = "catalog.events"
	defaultMaxRetries = 10
	routingKeyPrefix  = "catalog.product."
)

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	CatalogRepository() icatalogrepo.ICatalogRepository
	VariantRepository() ivariantrepo.IVariantRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository
}

// CatalogService applies admin catalog mutations and records a change event for every
// product whose search document they affect, in the same transaction as the mutation.
type CatalogService struct {
	pgClient   *postgres.Client
	uowFactory func() unitOfWork
	exchange   string
	maxRetries int
	now        func() time.Time
	log        *zap.Logger
}

func (s *CatalogService) newUOW() unitOfWork {
	if s.uowFactory != nil {
		return s.uowFactory()
	}

	return uow.NewUnitOfWork(s.pgClient)
}

// option is a function that configures the CatalogService.
type option func(*CatalogService)

// MustNewCatalogService creates a new CatalogService.
func MustNewCatalogService(opts ...option) *CatalogService {
	s := &CatalogService{
		exchange:   viper.GetString("rabbitmq.catalog_exchange"),
		maxRetries: viper.GetInt("outbox.max_retries"),
		now:        time.Now,
		log:        zap.L(),
	}
	if s.exchange == "" {
		s.exchange = defaultExchange
	}
	if s.maxRetries <= 0 {
		s.maxRetries = defaultMaxRetries
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.pgClient == nil && s.uowFactory == nil {
		panic("catalogsvc: postgres client is required")
	}

	return s
}

// WithPostgresClient sets the Postgres client for the CatalogService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *CatalogService) {
		s.pgClient = pgClient
	}
}

// WithUnitOfWorkFactory replaces the Postgres backed unit of work.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory[U unitOfWork](factory func() U) option {
	return func(s *CatalogService) {
		s.uowFactory = func() unitOfWork { return factory() }
	}
}

// WithClock sets the time source stamped on change events.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *CatalogService) {
		s.now = now
	}
}

// WithLogger sets the logger for the CatalogService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithLogger(log *zap.Logger) option {
	return func(s *CatalogService) {
		s.log = log
	}
}

// inTx runs fn inside a transaction that only commits when fn succeeds.
func (s *CatalogService) inTx(ctx context.Context, p principal.Principal, fn func(work unitOfWork) error) error {
	if !p.IsAdmin() {
		return fmt.Errorf("catalog changes require admin: %w", errs.ErrForbidden)
	}

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := work.Rollback(ctx); err != nil {
			s.log.Error("Failed to rollback transaction", zap.Error(err))
		}
	}()

	if err := fn(work); err != nil {
		return err
	}

	if err := work.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit catalog change: %w", err)
	}

	return nil
}

// enqueue writes the change event for one product to the outbox.
func (s *CatalogService) enqueue(
	ctx context.Context,
	work unitOfWork,
	productID uuid.UUID,
	op catalog.Operation,
) error {
	now := s.now().UTC()

	payload, err := json.Marshal(catalog.ChangeEvent{
		TargetID:   productID,
		Operation:  op,
		OccurredAt: now,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	err = work.OutboxRepository().Insert(ctx, outbox.OutboxMessage{
		AggregateID:  productID,
		ExchangeName: s.exchange,
		RoutingKey:   RoutingKey(op),
		Payload:      payload,
		ContentType:  "application/json",
		MaxRetries:   s.maxRetries,
		CreatedAt:    now,
		UpdatedAt:    now,
		NextRetryAt:  now,
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue %s event for product %s: %w", op, productID, err)
	}

	return nil
}

// RoutingKey is the topic a change event of the given kind is published under.
func RoutingKey(op catalog.Operation) string {
	return routingKeyPrefix + strings.ToLower(string(op))
}
