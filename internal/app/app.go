package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/dal/elastic"
	"github.com/corray333/backend-labs/storefront/internal/dal/postgres"
	"github.com/corray333/backend-labs/storefront/internal/dal/rabbitmq"
	"github.com/corray333/backend-labs/storefront/internal/dal/redis"
	rabbitmqrepo "github.com/corray333/backend-labs/storefront/internal/dal/repositories/catalogevents/rabbitmq"
	inboxrepo "github.com/corray333/backend-labs/storefront/internal/dal/repositories/inbox/postgres"
	elasticrepo "github.com/corray333/backend-labs/storefront/internal/dal/repositories/searchindex/elastic"
	redisrepo "github.com/corray333/backend-labs/storefront/internal/dal/repositories/session/redis"
	stripegw "github.com/corray333/backend-labs/storefront/internal/dal/stripe"
	"github.com/corray333/backend-labs/storefront/internal/dal/uow"
	"github.com/corray333/backend-labs/storefront/internal/service/models/status"
	"github.com/corray333/backend-labs/storefront/internal/service/services/catalogsvc"
	"github.com/corray333/backend-labs/storefront/internal/service/services/indexsvc"
	"github.com/corray333/backend-labs/storefront/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/storefront/internal/service/services/paymentsvc"
	"github.com/corray333/backend-labs/storefront/internal/transport/consumer"
	grpctransport "github.com/corray333/backend-labs/storefront/internal/transport/grpc"
	httptransport "github.com/corray333/backend-labs/storefront/internal/transport/http"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/middleware/auth"
	"github.com/corray333/backend-labs/storefront/internal/worker/inbox"
	"github.com/corray333/backend-labs/storefront/internal/worker/outbox"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

var (
	ErrBrokerConnectionLost = errors.New("rabbitmq connection lost")
	ErrPublisherClosed      = errors.New("rabbitmq publishing channel closed")
)

// App represents the application.
type App struct {
	httpTransport *httptransport.HTTPTransport
	grpcTransport *grpctransport.GRPCTransport
	consumer      *consumer.Consumer
	outboxWorker  *outbox.Worker
	inboxWorker   *inbox.Worker
	publisher     *rabbitmqrepo.CatalogEventsRabbitMQRepository

	postgresClient *postgres.Client
	rabbitClient   *rabbitmq.Client
	redisClient    *redis.Client
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		panic("JWT_SECRET is not set")
	}

	postgresClient := postgres.MustNewClient()
	rabbitClient := rabbitmq.MustNewClient()
	redisClient := redis.MustNewClient()
	elasticClient := elastic.MustNewClient()
	stripeClient := stripegw.MustNewClient()

	searchRepo := elasticrepo.NewSearchIndexElasticRepository(elasticClient)
	if err := searchRepo.EnsureIndex(context.Background()); err != nil {
		panic(err)
	}

	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithPostgresClient(postgresClient),
		ordersvc.WithStatusPolicy(status.Policy{Enforce: viper.GetBool("status.enforce_transitions")}),
	)

	paymentSvc := paymentsvc.MustNewPaymentService(
		paymentsvc.WithPostgresClient(postgresClient),
		paymentsvc.WithGateway(stripeClient),
		paymentsvc.WithSessionCache(redisrepo.NewSessionRedisRepository(redisClient)),
	)

	catalogSvc := catalogsvc.MustNewCatalogService(
		catalogsvc.WithPostgresClient(postgresClient),
	)

	indexSvc := indexsvc.MustNewIndexService(
		indexsvc.WithPostgresClient(postgresClient),
		indexsvc.WithSearchIndex(searchRepo),
	)

	newUOW := func() *uow.UnitOfWork { return uow.NewUnitOfWork(postgresClient) }

	publisher := rabbitmqrepo.NewCatalogEventsRabbitMQRepository(rabbitClient)
	outboxWorker := outbox.NewWorker(newUOW, publisher)
	inboxWorker := inbox.NewWorker(newUOW, indexSvc)

	catalogConsumer := consumer.NewConsumer(
		rabbitClient,
		indexSvc,
		inboxrepo.NewInboxRepository(postgresClient.Pool()),
	)

	httpTransport := httptransport.NewHTTPTransport(httptransport.Services{
		Orders:   orderSvc,
		Payments: paymentSvc,
		Catalog:  catalogSvc,
		Index:    indexSvc,
	}, auth.NewVerifier(jwtSecret))
	httpTransport.RegisterRoutes()

	return &App{
		httpTransport:  httpTransport,
		grpcTransport:  grpctransport.NewGRPCTransport(),
		consumer:       catalogConsumer,
		outboxWorker:   outboxWorker,
		inboxWorker:    inboxWorker,
		publisher:      publisher,
		postgresClient: postgresClient,
		rabbitClient:   rabbitClient,
		redisClient:    redisClient,
	}
}

// Run starts the application and blocks until an interrupt signal or until the broker
// connection, the publishing channel or the consumer is lost. In the second case the
// application shuts down and returns the cause, so the process exits and gets restarted
// instead of running on without search sync.
func (a *App) Run() error {
	log := zap.L()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	connClosed := a.rabbitClient.NotifyClose()
	fatal := make(chan error, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		log.Info("Starting HTTP server")
		if err := a.httpTransport.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", zap.Error(err))
		}
	}()

	go func() {
		if err := a.grpcTransport.Run(); err != nil {
			log.Error("gRPC server error", zap.Error(err))
		}
	}()

	go func() {
		if err := a.consumer.Run(ctx); err != nil {
			fatal <- fmt.Errorf("catalog consumer stopped: %w", err)
		}
	}()

	go a.outboxWorker.Start(ctx)
	go a.inboxWorker.Start(ctx)

	runErr := waitForExit(stop, fatal, connClosed, a.publisher.Closed())
	if runErr != nil {
		log.Error("Shutting down after a component failure", zap.Error(runErr))
	} else {
		log.Info("Shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := a.httpTransport.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped gracefully")
	}

	if err := a.grpcTransport.Shutdown(shutdownCtx); err != nil {
		log.Error("gRPC server shutdown error", zap.Error(err))
	} else {
		log.Info("gRPC server stopped gracefully")
	}

	if err := a.consumer.Shutdown(); err != nil {
		log.Error("Consumer shutdown error", zap.Error(err))
	}

	a.outboxWorker.Stop()
	a.inboxWorker.Stop()
	cancel()

	if err := a.rabbitClient.Close(); err != nil {
		log.Error("RabbitMQ connection close error", zap.Error(err))
	}

	if err := a.redisClient.Close(); err != nil {
		log.Error("Redis connection close error", zap.Error(err))
	}

	a.postgresClient.Close()
	log.Info("Database connection closed gracefully")

	log.Info("Application shutdown complete")
	_ = log.Sync()

	return runErr
}

// waitForExit returns nil on a signal and an error when one of the broker resources is lost.
func waitForExit(
	stop <-chan os.Signal,
	fatal <-chan error,
	connClosed <-chan *amqp.Error,
	publisherClosed <-chan struct{},
) error {
	select {
	case <-stop:
		return nil
	case err := <-fatal:
		return err
	case amqpErr := <-connClosed:
		if amqpErr == nil {
			return ErrBrokerConnectionLost
		}

		return fmt.Errorf("%w: %s", ErrBrokerConnectionLost, amqpErr.Error())
	case <-publisherClosed:
		return ErrPublisherClosed
	}
}
