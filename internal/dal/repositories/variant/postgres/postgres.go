package postgresrepo

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/storefront/internal/dal/postgres"
	"github.com/corray333/backend-labs/storefront/internal/service/errs"
	"github.com/corray333/backend-labs/storefront/internal/service/models/catalog"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// decrementSQL takes the units only when enough are left. The row lock taken by the
// UPDATE makes a concurrent reservation wait and then re-check the predicate.
const decrementSQL = `
	UPDATE product_variants v
	SET stock = v.stock - $2, updated_at = now()
	FROM products p
	WHERE v.id = $1 AND v.stock >= $2 AND p.id = v.product_id
	RETURNING v.id, v.product_id, v.name, v.size, v.scent, v.stock, v.price,
	          p.name, p.description, p.thumbnail_image
`

// PostgresVariantRepository represents a Postgres repository for variant stock counters.
type PostgresVariantRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
}

// NewPostgresVariantRepository creates a new Postgres variant repository.
func NewPostgresVariantRepository(conn postgres.Conn) *PostgresVariantRepository {
	return &PostgresVariantRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// DecrementIfAvailable atomically reserves quantity units of the variant.
func (r *PostgresVariantRepository) DecrementIfAvailable(
	ctx context.Context,
	id uuid.UUID,
	quantity int,
) (catalog.ReservedVariant, bool, error) {
	var rv catalog.ReservedVariant
	err := r.conn.QueryRow(ctx, decrementSQL, id, quantity).Scan(
		&rv.ID,
		&rv.ProductID,
		&rv.Name,
		&rv.Size,
		&rv.Scent,
		&rv.Stock,
		&rv.Price,
		&rv.ProductName,
		&rv.ProductDescription,
		&rv.Thumbnail,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.ReservedVariant{}, false, nil
	}
	if err != nil {
		if postgres.IsCheckViolation(err) {
			return catalog.ReservedVariant{}, false, fmt.Errorf("stock underflow on variant %s: %w", id, errs.ErrConflict)
		}

		return catalog.ReservedVariant{}, false, fmt.Errorf("failed to decrement stock: %w", err)
	}

	return rv, true, nil
}

// Increment adds quantity units back to the variant.
func (r *PostgresVariantRepository) Increment(ctx context.Context, id uuid.UUID, quantity int) error {
	sql, args, err := r.sb.Update("product_variants").
		Set("stock", sq.Expr("stock + ?", quantity)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to increment stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFoundf("variant %s", id)
	}

	return nil
}

// Get returns the current state of a variant.
func (r *PostgresVariantRepository) Get(ctx context.Context, id uuid.UUID) (catalog.Variant, error) {
	sql, args, err := r.sb.
		Select("id", "product_id", "name", "size", "scent", "stock", "price").
		From("product_variants").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return catalog.Variant{}, fmt.Errorf("failed to build query: %w", err)
	}

	var v catalog.Variant
	err = r.conn.QueryRow(ctx, sql, args...).Scan(&v.ID, &v.ProductID, &v.Name, &v.Size, &v.Scent, &v.Stock, &v.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Variant{}, errs.NotFoundf("variant %s", id)
	}
	if err != nil {
		return catalog.Variant{}, fmt.Errorf("failed to get variant: %w", err)
	}

	return v, nil
}
