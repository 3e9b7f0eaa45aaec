package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/storefront/internal/dal/postgres"
	"github.com/corray333/backend-labs/storefront/internal/service/models/cartitem"
	"github.com/google/uuid"
)

// PostgresCartItemRepository represents a Postgres cart item repository.
type PostgresCartItemRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
}

// NewPostgresCartItemRepository creates a new Postgres cart item repository.
func NewPostgresCartItemRepository(conn postgres.Conn) *PostgresCartItemRepository {
	return &PostgresCartItemRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// GetForUpdate loads the cart items with their owner and locks them until the transaction ends.
// Ids that do not resolve are simply absent from the result.
func (r *PostgresCartItemRepository) GetForUpdate(
	ctx context.Context,
	ids []uuid.UUID,
) ([]cartitem.CartItem, error) {
	if len(ids) == 0 {
		return []cartitem.CartItem{}, nil
	}

	sql, args, err := r.sb.
		Select("ci.id", "ci.cart_id", "c.user_id", "ci.product_variant_id", "ci.quantity", "ci.price").
		From("cart_items ci").
		Join("carts c ON c.id = ci.cart_id").
		Where(sq.Eq{"ci.id": ids}).
		Suffix("FOR UPDATE OF ci").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	result := make([]cartitem.CartItem, 0, len(ids))
	for rows.Next() {
		var item cartitem.CartItem
		if err := rows.Scan(
			&item.ID,
			&item.CartID,
			&item.UserID,
			&item.VariantID,
			&item.Quantity,
			&item.PriceAtAddTime,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// DeleteByIDs removes the given cart items.
func (r *PostgresCartItemRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	sql, args, err := r.sb.Delete("cart_items").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to delete cart items: %w", err)
	}

	return nil
}
