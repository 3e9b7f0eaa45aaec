package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/storefront/internal/dal/postgres"
	"github.com/corray333/backend-labs/storefront/internal/service/models/inbox"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var inboxColumns = []string{
	"id",
	"message_id",
	"target_id",
	"queue_name",
	"routing_key",
	"payload",
	"content_type",
	"retry_count",
	"max_retries",
	"last_error",
	"created_at",
	"updated_at",
	"next_retry_at",
}

// InboxRepository keeps parked catalog deliveries in PostgreSQL.
type InboxRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
}

// NewInboxRepository creates a new inbox repository.
func NewInboxRepository(conn postgres.Conn) *InboxRepository {
	return &InboxRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert parks a delivery together with the error that sent it here.
func (r *InboxRepository) Insert(ctx context.Context, msg inbox.InboxMessage) error {
	query, args, err := r.sb.Insert("inbox").
		Columns(inboxColumns[1:]...).
		Values(
			msg.MessageID,
			msg.TargetID,
			msg.QueueName,
			msg.RoutingKey,
			msg.Payload,
			msg.ContentType,
			msg.RetryCount,
			msg.MaxRetries,
			msg.LastError,
			msg.CreatedAt,
			msg.UpdatedAt,
			msg.NextRetryAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to park message %s for product %s: %w", msg.MessageID, msg.TargetID, err)
	}

	return nil
}

// GetPendingMessages returns due, not exhausted messages. Rows held by another worker are skipped.
func (r *InboxRepository) GetPendingMessages(ctx context.Context, limit int) ([]inbox.InboxMessage, error) {
	query, args, err := r.sb.Select(inboxColumns...).
		From("inbox").
		Where(sq.LtOrEq{"next_retry_at": time.Now()}).
		Where(sq.Expr("retry_count < max_retries")).
		OrderBy("id ASC").
		Limit(uint64(limit)).
		Suffix("FOR UPDATE SKIP LOCKED").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query inbox: %w", err)
	}

	messages, err := pgx.CollectRows(rows, scanInboxMessage)
	if err != nil {
		return nil, fmt.Errorf("failed to scan inbox: %w", err)
	}

	return messages, nil
}

func scanInboxMessage(row pgx.CollectableRow) (inbox.InboxMessage, error) {
	var msg inbox.InboxMessage
	err := row.Scan(
		&msg.ID,
		&msg.MessageID,
		&msg.TargetID,
		&msg.QueueName,
		&msg.RoutingKey,
		&msg.Payload,
		&msg.ContentType,
		&msg.RetryCount,
		&msg.MaxRetries,
		&msg.LastError,
		&msg.CreatedAt,
		&msg.UpdatedAt,
		&msg.NextRetryAt,
	)

	return msg, err
}

// DeleteSettled drops the parked messages of a product once its document has been rebuilt.
func (r *InboxRepository) DeleteSettled(ctx context.Context, targetID uuid.UUID, upToID int64) (int64, error) {
	query, args, err := r.sb.Delete("inbox").
		Where(sq.Eq{"target_id": targetID}).
		Where(sq.LtOrEq{"id": upToID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to settle inbox for product %s: %w", targetID, err)
	}

	return tag.RowsAffected(), nil
}

// UpdateRetry records a failed attempt and when to try again.
func (r *InboxRepository) UpdateRetry(
	ctx context.Context,
	id int64,
	retryCount int,
	lastError string,
	nextRetryAt time.Time,
) error {
	query, args, err := r.sb.Update("inbox").
		Set("retry_count", retryCount).
		Set("last_error", lastError).
		Set("next_retry_at", nextRetryAt).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update inbox message %d: %w", id, err)
	}

	return nil
}
