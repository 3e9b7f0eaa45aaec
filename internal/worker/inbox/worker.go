package inbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iinboxrepo"
	"github.com/corray333/backend-labs/storefront/internal/service/models/catalog"
	"github.com/corray333/backend-labs/storefront/internal/service/models/inbox"
	"github.com/corray333/backend-labs/storefront/internal/worker/outbox"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	InboxRepository() iinboxrepo.IInboxRepository
}

// service represents the service layer interface.
type service interface {
	OnCatalogChange(ctx context.Context, event catalog.ChangeEvent) error
}

// Worker retries catalog changes whose index update failed on first delivery.
type Worker struct {
	newUOW        func() unitOfWork
	service       service
	pollInterval  time.Duration
	batchSize     int
	retryInterval time.Duration
	stopCh        chan struct{}
	log           *zap.Logger
}

// NewWorker creates a new inbox worker.
func NewWorker[U unitOfWork](newUOW func() U, svc service) *Worker {
	pollIntervalSeconds := viper.GetInt("inbox.poll_interval_seconds")
	if pollIntervalSeconds == 0 {
		pollIntervalSeconds = 5
	}

	batchSize := viper.GetInt("inbox.batch_size")
	if batchSize == 0 {
		batchSize = 50
	}

	retryIntervalSeconds := viper.GetInt("inbox.retry_interval_seconds")
	if retryIntervalSeconds == 0 {
		retryIntervalSeconds = 30
	}

	return &Worker{
		newUOW:        func() unitOfWork { return newUOW() },
		service:       svc,
		pollInterval:  time.Duration(pollIntervalSeconds) * time.Second,
		batchSize:     batchSize,
		retryInterval: time.Duration(retryIntervalSeconds) * time.Second,
		stopCh:        make(chan struct{}),
		log:           zap.L().Named("inbox"),
	}
}

// Start begins processing messages from the inbox.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.log.Info("Inbox worker started",
		zap.Duration("poll_interval", w.pollInterval),
		zap.Int("batch_size", w.batchSize),
	)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Inbox worker shutting down")

			return
		case <-w.stopCh:
			w.log.Info("Inbox worker stopped")

			return
		case <-ticker.C:
			if _, err := w.ProcessOnce(ctx); err != nil {
				w.log.Error("Inbox processing failed", zap.Error(err))
			}
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	close(w.stopCh)
}

// ProcessOnce retries one batch of parked messages and returns how many were settled.
// The index handler rebuilds a product from the database, so only the newest parked event
// of each product is applied; on success every older message of that product goes with it.
func (w *Worker) ProcessOnce(ctx context.Context) (int, error) {
	work := w.newUOW()
	if err := work.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := work.Rollback(ctx); err != nil {
			w.log.Error("Failed to rollback transaction", zap.Error(err))
		}
	}()

	repo := work.InboxRepository()

	messages, err := repo.GetPendingMessages(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to get pending messages: %w", err)
	}

	settled := 0
	for _, group := range byTarget(messages) {
		latest := group[len(group)-1]

		var event catalog.ChangeEvent
		procErr := json.Unmarshal(latest.Payload, &event)
		if procErr == nil {
			procErr = w.service.OnCatalogChange(ctx, event)
		}

		if procErr == nil {
			n, err := repo.DeleteSettled(ctx, latest.TargetID, latest.ID)
			if err != nil {
				return settled, err
			}
			settled += int(n)

			w.log.Info("Parked catalog changes applied",
				zap.String("target_id", latest.TargetID.String()),
				zap.Int64("settled", n),
			)

			continue
		}

		for _, msg := range group {
			if err := w.reschedule(ctx, repo, msg, procErr); err != nil {
				return settled, err
			}
		}
	}

	if err := work.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit inbox batch: %w", err)
	}

	return settled, nil
}

func (w *Worker) reschedule(ctx context.Context, repo iinboxrepo.IInboxRepository, msg inbox.InboxMessage, cause error) error {
	retryCount, exhausted := msg.Failed()
	nextRetryAt := time.Now().Add(outbox.Backoff(w.retryInterval, retryCount))

	if exhausted {
		w.log.Error("Catalog change exhausted its retries",
			zap.Int64("inbox_id", msg.ID),
			zap.String("message_id", msg.MessageID),
			zap.String("target_id", msg.TargetID.String()),
			zap.Error(cause),
		)
	} else {
		w.log.Warn("Failed to apply catalog change, will retry",
			zap.Int64("inbox_id", msg.ID),
			zap.Int("retry_count", retryCount),
			zap.Time("next_retry", nextRetryAt),
			zap.Error(cause),
		)
	}

	return repo.UpdateRetry(ctx, msg.ID, retryCount, cause.Error(), nextRetryAt)
}

// byTarget groups messages per product, keeping arrival order inside each group
// and the order in which products first appear.
func byTarget(messages []inbox.InboxMessage) [][]inbox.InboxMessage {
	index := make(map[uuid.UUID]int)
	var groups [][]inbox.InboxMessage
	for _, msg := range messages {
		i, ok := index[msg.TargetID]
		if !ok {
			i = len(groups)
			index[msg.TargetID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], msg)
	}

	return groups
}
