package outbox

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/storefront/internal/service/models/outbox"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	OutboxRepository() ioutboxrepo.IOutboxRepository
}

type publisher interface {
	PublishOrdered(ctx context.Context, messages []outbox.OutboxMessage) (published []int64, failed map[int64]error)
}

// Worker relays committed outbox rows to RabbitMQ.
type Worker struct {
	newUOW        func() unitOfWork
	publisher     publisher
	pollInterval  time.Duration
	batchSize     int
	retryInterval time.Duration
	stopCh        chan struct{}
	log           *zap.Logger
}

// NewWorker creates a new outbox worker.
func NewWorker[U unitOfWork](newUOW func() U, pub publisher) *Worker {
	pollIntervalSeconds := viper.GetInt("outbox.poll_interval_seconds")
	if pollIntervalSeconds == 0 {
		pollIntervalSeconds = 2
	}

	batchSize := viper.GetInt("outbox.batch_size")
	if batchSize == 0 {
		batchSize = 100
	}

	retryIntervalSeconds := viper.GetInt("outbox.retry_interval_seconds")
	if retryIntervalSeconds == 0 {
		retryIntervalSeconds = 30
	}

	return &Worker{
		newUOW:        func() unitOfWork { return newUOW() },
		publisher:     pub,
		pollInterval:  time.Duration(pollIntervalSeconds) * time.Second,
		batchSize:     batchSize,
		retryInterval: time.Duration(retryIntervalSeconds) * time.Second,
		stopCh:        make(chan struct{}),
		log:           zap.L().Named("outbox"),
	}
}

// Start begins relaying messages until ctx is done or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.log.Info("Outbox worker started",
		zap.Duration("poll_interval", w.pollInterval),
		zap.Int("batch_size", w.batchSize),
	)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Outbox worker shutting down")

			return
		case <-w.stopCh:
			w.log.Info("Outbox worker stopped")

			return
		case <-ticker.C:
			if _, err := w.RelayOnce(ctx); err != nil {
				w.log.Error("Outbox relay failed", zap.Error(err))
			}
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	close(w.stopCh)
}

// RelayOnce publishes one batch of pending messages and returns how many went out.
// The batch rows stay locked for the whole relay, so concurrent relays skip them.
// A message that fails to publish is rescheduled, and later messages of the same
// product wait behind it.
func (w *Worker) RelayOnce(ctx context.Context) (int, error) {
	work := w.newUOW()
	if err := work.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := work.Rollback(ctx); err != nil {
			w.log.Error("Failed to rollback transaction", zap.Error(err))
		}
	}()

	messages, err := work.OutboxRepository().GetPendingMessages(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to get pending messages: %w", err)
	}
	if len(messages) == 0 {
		return 0, nil
	}

	published, failed := w.publisher.PublishOrdered(ctx, messages)

	if err := work.OutboxRepository().DeleteBatch(ctx, published); err != nil {
		return 0, err
	}

	for _, msg := range messages {
		pubErr, ok := failed[msg.ID]
		if !ok {
			continue
		}

		retryCount, exhausted := msg.Failed()
		nextRetryAt := time.Now().Add(Backoff(w.retryInterval, retryCount))

		fields := []zap.Field{
			zap.Int64("outbox_id", msg.ID),
			zap.String("aggregate_id", msg.AggregateID.String()),
			zap.Int("retry_count", retryCount),
			zap.Error(pubErr),
		}
		if exhausted {
			w.log.Error("Outbox message exhausted its retries", fields...)
		} else {
			w.log.Warn("Failed to publish outbox message, will retry",
				append(fields, zap.Time("next_retry", nextRetryAt))...)
		}

		if err := work.OutboxRepository().UpdateRetry(ctx, msg.ID, retryCount, pubErr.Error(), nextRetryAt); err != nil {
			return 0, err
		}
	}

	if err := work.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit outbox batch: %w", err)
	}

	if len(published) > 0 {
		w.log.Debug("Outbox messages published", zap.Int("count", len(published)))
	}

	return len(published), nil
}

// Backoff returns base * 2^retry: 60s, 120s, 240s and so on for a 30s base.
func Backoff(base time.Duration, retry int) time.Duration {
	return time.Duration(math.Pow(2, float64(retry)) * float64(base))
}
