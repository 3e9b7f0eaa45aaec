package postgresrepo

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/storefront/internal/dal/postgres"
	"github.com/corray333/backend-labs/storefront/internal/service/errs"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/corray333/backend-labs/storefront/internal/service/models/status"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var paymentColumns = []string{"id", "order_id", "amount", "method", "status", "session_id", "created_at", "updated_at"}

// PostgresPaymentRepository represents a Postgres payment repository.
type PostgresPaymentRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
}

// NewPostgresPaymentRepository creates a new Postgres payment repository.
func NewPostgresPaymentRepository(conn postgres.Conn) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert stores the payment record of an order.
func (r *PostgresPaymentRepository) Insert(ctx context.Context, p payment.Payment) (payment.Payment, error) {
	sql, args, err := r.sb.Insert("payments").
		Columns("order_id", "amount", "method", "status").
		Values(p.OrderID, p.Amount, p.Method.String(), p.Status.String()).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return payment.Payment{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if postgres.IsUniqueViolation(err) {
			return payment.Payment{}, fmt.Errorf("order %s already has a payment: %w", p.OrderID, errs.ErrConflict)
		}

		return payment.Payment{}, fmt.Errorf("failed to insert payment: %w", err)
	}

	return p, nil
}

// GetByOrder returns the payment of the order.
func (r *PostgresPaymentRepository) GetByOrder(ctx context.Context, orderID uuid.UUID) (payment.Payment, error) {
	return r.getByOrder(ctx, orderID, "")
}

// GetByOrderForUpdate returns the payment of the order and locks the row.
func (r *PostgresPaymentRepository) GetByOrderForUpdate(
	ctx context.Context,
	orderID uuid.UUID,
) (payment.Payment, error) {
	return r.getByOrder(ctx, orderID, "FOR UPDATE")
}

func (r *PostgresPaymentRepository) getByOrder(
	ctx context.Context,
	orderID uuid.UUID,
	suffix string,
) (payment.Payment, error) {
	query := r.sb.Select(paymentColumns...).From("payments").Where(sq.Eq{"order_id": orderID})
	if suffix != "" {
		query = query.Suffix(suffix)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return payment.Payment{}, fmt.Errorf("failed to build query: %w", err)
	}

	var (
		p          payment.Payment
		method, st string
	)
	err = r.conn.QueryRow(ctx, sql, args...).Scan(
		&p.ID, &p.OrderID, &p.Amount, &method, &st, &p.SessionID, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return payment.Payment{}, errs.NotFoundf("payment for order %s", orderID)
	}
	if err != nil {
		return payment.Payment{}, fmt.Errorf("failed to get payment: %w", err)
	}

	p.Method = payment.Method(method)
	p.Status = status.PaymentStatus(st)

	return p, nil
}

// UpdateStatus sets the payment status of the order's payment.
func (r *PostgresPaymentRepository) UpdateStatus(
	ctx context.Context,
	orderID uuid.UUID,
	s status.PaymentStatus,
) error {
	return r.update(ctx, orderID, "status", s.String())
}

// SetSessionID records the last checkout session created for the order.
func (r *PostgresPaymentRepository) SetSessionID(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	return r.update(ctx, orderID, "session_id", sessionID)
}

func (r *PostgresPaymentRepository) update(ctx context.Context, orderID uuid.UUID, column string, value any) error {
	sql, args, err := r.sb.Update("payments").
		Set(column, value).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"order_id": orderID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFoundf("payment for order %s", orderID)
	}

	return nil
}
