package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/storefront/internal/dal/postgres"
	"github.com/corray333/backend-labs/storefront/internal/service/errs"
	"github.com/corray333/backend-labs/storefront/internal/service/models/delivery"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/status"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var orderColumns = []string{
	"id",
	"user_id",
	"total_amount",
	"order_status",
	"payment_status",
	"delivery_status",
	"delivery_method",
	"delivery_fee",
	"house_number",
	"street_name",
	"city",
	"state",
	"country",
	"postal_code",
	"created_at",
	"updated_at",
}

// OrderDal represents order data access layer model.
type OrderDal struct {
	Id             uuid.UUID       `db:"id"`
	UserId         uuid.UUID       `db:"user_id"`
	TotalAmount    decimal.Decimal `db:"total_amount"`
	OrderStatus    string          `db:"order_status"`
	PaymentStatus  string          `db:"payment_status"`
	DeliveryStatus string          `db:"delivery_status"`
	DeliveryMethod string          `db:"delivery_method"`
	DeliveryFee    decimal.Decimal `db:"delivery_fee"`
	HouseNumber    string          `db:"house_number"`
	StreetName     string          `db:"street_name"`
	City           string          `db:"city"`
	State          string          `db:"state"`
	Country        string          `db:"country"`
	PostalCode     string          `db:"postal_code"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

func (d *OrderDal) scanTargets() []any {
	return []any{
		&d.Id, &d.UserId, &d.TotalAmount, &d.OrderStatus, &d.PaymentStatus, &d.DeliveryStatus,
		&d.DeliveryMethod, &d.DeliveryFee, &d.HouseNumber, &d.StreetName, &d.City, &d.State,
		&d.Country, &d.PostalCode, &d.CreatedAt, &d.UpdatedAt,
	}
}

// ToModel converts OrderDal to service layer Order model.
func (d *OrderDal) ToModel() order.Order {
	return order.Order{
		ID:             d.Id,
		UserID:         d.UserId,
		TotalAmount:    d.TotalAmount,
		OrderStatus:    status.OrderStatus(d.OrderStatus),
		PaymentStatus:  status.PaymentStatus(d.PaymentStatus),
		DeliveryStatus: status.DeliveryStatus(d.DeliveryStatus),
		DeliveryMethod: delivery.Method(d.DeliveryMethod),
		DeliveryFee:    d.DeliveryFee,
		ShippingAddress: delivery.Address{
			HouseNumber: d.HouseNumber,
			StreetName:  d.StreetName,
			City:        d.City,
			State:       d.State,
			Country:     d.Country,
			PostalCode:  d.PostalCode,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// PostgresOrderRepository represents a Postgres order repository.
type PostgresOrderRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderRepository creates a new Postgres order repository.
func NewPostgresOrderRepository(conn postgres.Conn) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert stores the order shell. Items and payment are stored by their own repositories.
func (r *PostgresOrderRepository) Insert(ctx context.Context, o order.Order) (order.Order, error) {
	addr := o.ShippingAddress
	sql, args, err := r.sb.Insert("orders").
		Columns(orderColumns[1:14]...).
		Values(
			o.UserID,
			o.TotalAmount,
			o.OrderStatus.String(),
			o.PaymentStatus.String(),
			o.DeliveryStatus.String(),
			o.DeliveryMethod.String(),
			o.DeliveryFee,
			addr.HouseNumber,
			addr.StreetName,
			addr.City,
			addr.State,
			addr.Country,
			addr.PostalCode,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return order.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}

	return o, nil
}

// Get loads the order shell by id.
func (r *PostgresOrderRepository) Get(ctx context.Context, id uuid.UUID) (order.Order, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate loads the order shell and locks the row until the transaction ends.
func (r *PostgresOrderRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (order.Order, error) {
	return r.get(ctx, id, "FOR UPDATE")
}

func (r *PostgresOrderRepository) get(ctx context.Context, id uuid.UUID, suffix string) (order.Order, error) {
	query := r.sb.Select(orderColumns...).From("orders").Where(sq.Eq{"id": id})
	if suffix != "" {
		query = query.Suffix(suffix)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build query: %w", err)
	}

	var dal OrderDal
	err = r.conn.QueryRow(ctx, sql, args...).Scan(dal.scanTargets()...)
	if errors.Is(err, pgx.ErrNoRows) {
		return order.Order{}, errs.NotFoundf("order %s", id)
	}
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	return dal.ToModel(), nil
}

// UpdateStatuses writes only the axes present in update and returns the new shell.
func (r *PostgresOrderRepository) UpdateStatuses(
	ctx context.Context,
	id uuid.UUID,
	update order.StatusUpdate,
) (order.Order, error) {
	query := r.sb.Update("orders").
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(orderColumns, ", "))

	if update.OrderStatus != nil {
		query = query.Set("order_status", update.OrderStatus.String())
	}
	if update.PaymentStatus != nil {
		query = query.Set("payment_status", update.PaymentStatus.String())
	}
	if update.DeliveryStatus != nil {
		query = query.Set("delivery_status", update.DeliveryStatus.String())
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build update query: %w", err)
	}

	var dal OrderDal
	err = r.conn.QueryRow(ctx, sql, args...).Scan(dal.scanTargets()...)
	if errors.Is(err, pgx.ErrNoRows) {
		return order.Order{}, errs.NotFoundf("order %s", id)
	}
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to update order statuses: %w", err)
	}

	return dal.ToModel(), nil
}

// SetPaymentStatus updates the payment axis of the order.
func (r *PostgresOrderRepository) SetPaymentStatus(
	ctx context.Context,
	id uuid.UUID,
	s status.PaymentStatus,
) error {
	_, err := r.UpdateStatuses(ctx, id, order.StatusUpdate{PaymentStatus: &s})

	return err
}
