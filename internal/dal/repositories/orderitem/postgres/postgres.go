package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/storefront/internal/dal/postgres"
	"github.com/corray333/backend-labs/storefront/internal/service/models/orderitem"
	"github.com/google/uuid"
)

var orderItemColumns = []string{
	"id",
	"order_id",
	"variant_id",
	"product_id",
	"product_name",
	"variant_name",
	"size",
	"scent",
	"description",
	"thumbnail",
	"unit_price",
	"quantity",
	"total_price",
}

// PostgresOrderItemRepository represents a Postgres order item repository.
type PostgresOrderItemRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderItemRepository creates a new Postgres order item repository.
func NewPostgresOrderItemRepository(conn postgres.Conn) *PostgresOrderItemRepository {
	return &PostgresOrderItemRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// BulkInsert inserts the snapshots in one statement and returns them with ids.
func (r *PostgresOrderItemRepository) BulkInsert(
	ctx context.Context,
	orderItems []orderitem.OrderItem,
) ([]orderitem.OrderItem, error) {
	if len(orderItems) == 0 {
		return []orderitem.OrderItem{}, nil
	}

	query := r.sb.Insert("order_items").Columns(orderItemColumns[1:]...)
	for _, oi := range orderItems {
		query = query.Values(
			oi.OrderID,
			oi.VariantID,
			oi.ProductID,
			oi.ProductName,
			oi.VariantName,
			oi.Size,
			oi.Scent,
			oi.Description,
			oi.Thumbnail,
			oi.UnitPrice,
			oi.Quantity,
			oi.TotalPrice,
		)
	}

	sql, args, err := query.Suffix("RETURNING id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk insert order items: %w", err)
	}
	defer rows.Close()

	result := make([]orderitem.OrderItem, len(orderItems))
	copy(result, orderItems)

	i := 0
	for rows.Next() {
		if i >= len(result) {
			return nil, fmt.Errorf("bulk insert returned more rows than items")
		}
		if err := rows.Scan(&result[i].ID); err != nil {
			return nil, fmt.Errorf("failed to scan order item id: %w", err)
		}
		i++
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// ListByOrder returns the snapshots of one order.
func (r *PostgresOrderItemRepository) ListByOrder(
	ctx context.Context,
	orderID uuid.UUID,
) ([]orderitem.OrderItem, error) {
	sql, args, err := r.sb.Select(orderItemColumns...).
		From("order_items").
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("product_name", "variant_name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	result := make([]orderitem.OrderItem, 0)
	for rows.Next() {
		var oi orderitem.OrderItem
		if err := rows.Scan(
			&oi.ID,
			&oi.OrderID,
			&oi.VariantID,
			&oi.ProductID,
			&oi.ProductName,
			&oi.VariantName,
			&oi.Size,
			&oi.Scent,
			&oi.Description,
			&oi.Thumbnail,
			&oi.UnitPrice,
			&oi.Quantity,
			&oi.TotalPrice,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		result = append(result, oi)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
