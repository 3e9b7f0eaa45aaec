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

var productColumns = []string{
	"p.id",
	"p.brand_id",
	"p.name",
	"p.description",
	"p.product_material",
	"p.inspiration",
	"p.usage_instructions",
	"p.thumbnail_image",
	"p.is_active",
	"p.min_price",
	"p.max_price",
}

var variantColumns = []string{"id", "product_id", "name", "size", "scent", "stock", "price"}

// PostgresCatalogRepository represents a Postgres repository for brands, products and variants.
type PostgresCatalogRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
}

// NewPostgresCatalogRepository creates a new Postgres catalog repository.
func NewPostgresCatalogRepository(conn postgres.Conn) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// UpdateBrand renames or re-describes a brand.
func (r *PostgresCatalogRepository) UpdateBrand(ctx context.Context, b catalog.Brand) (catalog.Brand, error) {
	sql, args, err := r.sb.Update("brands").
		Set("name", b.Name).
		Set("description", b.Description).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": b.ID}).
		Suffix("RETURNING id, name, description").
		ToSql()
	if err != nil {
		return catalog.Brand{}, fmt.Errorf("failed to build update query: %w", err)
	}

	var out catalog.Brand
	err = r.conn.QueryRow(ctx, sql, args...).Scan(&out.ID, &out.Name, &out.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Brand{}, errs.NotFoundf("brand %s", b.ID)
	}
	if err != nil {
		return catalog.Brand{}, fmt.Errorf("failed to update brand: %w", err)
	}

	return out, nil
}

// DeleteBrand removes the brand. Its products keep existing without a brand.
func (r *PostgresCatalogRepository) DeleteBrand(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "brands", "brand", id)
}

// ListProductIDsByBrand returns the ids of every product under the brand.
func (r *PostgresCatalogRepository) ListProductIDsByBrand(
	ctx context.Context,
	brandID uuid.UUID,
) ([]uuid.UUID, error) {
	sql, args, err := r.sb.Select("id").
		From("products").
		Where(sq.Eq{"brand_id": brandID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	return r.queryIDs(ctx, sql, args...)
}

// CreateProduct inserts a product and returns it with its id.
func (r *PostgresCatalogRepository) CreateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	sql, args, err := r.sb.Insert("products").
		Columns(
			"brand_id",
			"name",
			"description",
			"product_material",
			"inspiration",
			"usage_instructions",
			"thumbnail_image",
			"is_active",
		).
		Values(
			p.BrandID,
			p.Name,
			p.Description,
			p.ProductMaterial,
			p.Inspiration,
			p.UsageInstructions,
			p.ThumbnailImage,
			p.IsActive,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return catalog.Product{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&p.ID); err != nil {
		return catalog.Product{}, fmt.Errorf("failed to insert product: %w", err)
	}

	return p, nil
}

// UpdateProduct overwrites the descriptive fields of a product.
func (r *PostgresCatalogRepository) UpdateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	sql, args, err := r.sb.Update("products").
		Set("brand_id", p.BrandID).
		Set("name", p.Name).
		Set("description", p.Description).
		Set("product_material", p.ProductMaterial).
		Set("inspiration", p.Inspiration).
		Set("usage_instructions", p.UsageInstructions).
		Set("thumbnail_image", p.ThumbnailImage).
		Set("is_active", p.IsActive).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": p.ID}).
		ToSql()
	if err != nil {
		return catalog.Product{}, fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("failed to update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.Product{}, errs.NotFoundf("product %s", p.ID)
	}

	return p, nil
}

// DeleteProduct removes a product and, through the foreign key, its variants.
func (r *PostgresCatalogRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "products", "product", id)
}

// GetProductFull loads a product with its brand and every variant.
func (r *PostgresCatalogRepository) GetProductFull(ctx context.Context, id uuid.UUID) (catalog.Product, error) {
	sql, args, err := r.sb.Select(append(productColumns, "b.id", "b.name", "b.description")...).
		From("products p").
		LeftJoin("brands b ON b.id = p.brand_id").
		Where(sq.Eq{"p.id": id}).
		ToSql()
	if err != nil {
		return catalog.Product{}, fmt.Errorf("failed to build query: %w", err)
	}

	var (
		p         catalog.Product
		brandID   *uuid.UUID
		brandName *string
		brandDesc *string
	)
	err = r.conn.QueryRow(ctx, sql, args...).Scan(
		&p.ID,
		&p.BrandID,
		&p.Name,
		&p.Description,
		&p.ProductMaterial,
		&p.Inspiration,
		&p.UsageInstructions,
		&p.ThumbnailImage,
		&p.IsActive,
		&p.MinPrice,
		&p.MaxPrice,
		&brandID,
		&brandName,
		&brandDesc,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Product{}, errs.NotFoundf("product %s", id)
	}
	if err != nil {
		return catalog.Product{}, fmt.Errorf("failed to get product: %w", err)
	}

	if brandID != nil {
		p.Brand = &catalog.Brand{ID: *brandID, Name: deref(brandName), Description: deref(brandDesc)}
	}

	p.Variants, err = r.listVariants(ctx, id)
	if err != nil {
		return catalog.Product{}, err
	}

	return p, nil
}

// ListProductIDs pages through products by id.
func (r *PostgresCatalogRepository) ListProductIDs(
	ctx context.Context,
	after uuid.UUID,
	limit int,
) ([]uuid.UUID, error) {
	sql, args, err := r.sb.Select("id").
		From("products").
		Where(sq.Gt{"id": after}).
		OrderBy("id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	return r.queryIDs(ctx, sql, args...)
}

// RefreshPriceRange recomputes min_price and max_price from the product's variants.
func (r *PostgresCatalogRepository) RefreshPriceRange(ctx context.Context, productID uuid.UUID) error {
	sql, args, err := r.sb.Update("products").
		Set("min_price", sq.Expr("COALESCE((SELECT MIN(price) FROM product_variants WHERE product_id = ?), 0)", productID)).
		Set("max_price", sq.Expr("COALESCE((SELECT MAX(price) FROM product_variants WHERE product_id = ?), 0)", productID)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to refresh price range: %w", err)
	}

	return nil
}

// CreateVariant inserts a variant with its opening stock.
func (r *PostgresCatalogRepository) CreateVariant(ctx context.Context, v catalog.Variant) (catalog.Variant, error) {
	sql, args, err := r.sb.Insert("product_variants").
		Columns(variantColumns[1:]...).
		Values(v.ProductID, v.Name, v.Size, v.Scent, v.Stock, v.Price).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return catalog.Variant{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&v.ID); err != nil {
		return catalog.Variant{}, fmt.Errorf("failed to insert variant: %w", err)
	}

	return v, nil
}

// UpdateVariant changes the descriptive fields and price. Stock is left to the stock ledger.
func (r *PostgresCatalogRepository) UpdateVariant(ctx context.Context, v catalog.Variant) (catalog.Variant, error) {
	sql, args, err := r.sb.Update("product_variants").
		Set("name", v.Name).
		Set("size", v.Size).
		Set("scent", v.Scent).
		Set("price", v.Price).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": v.ID}).
		Suffix("RETURNING id, product_id, name, size, scent, stock, price").
		ToSql()
	if err != nil {
		return catalog.Variant{}, fmt.Errorf("failed to build update query: %w", err)
	}

	var out catalog.Variant
	err = r.conn.QueryRow(ctx, sql, args...).Scan(
		&out.ID, &out.ProductID, &out.Name, &out.Size, &out.Scent, &out.Stock, &out.Price,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Variant{}, errs.NotFoundf("variant %s", v.ID)
	}
	if err != nil {
		return catalog.Variant{}, fmt.Errorf("failed to update variant: %w", err)
	}

	return out, nil
}

// DeleteVariant removes a variant and returns its product id.
func (r *PostgresCatalogRepository) DeleteVariant(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	sql, args, err := r.sb.Delete("product_variants").
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING product_id").
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to build delete query: %w", err)
	}

	var productID uuid.UUID
	err = r.conn.QueryRow(ctx, sql, args...).Scan(&productID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, errs.NotFoundf("variant %s", id)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to delete variant: %w", err)
	}

	return productID, nil
}

// variantsOf lists a product's variants cheapest first. id breaks ties so documents come out the same every time.
func (r *PostgresCatalogRepository) variantsOf(productID uuid.UUID) sq.SelectBuilder {
	return r.sb.Select(variantColumns...).
		From("product_variants").
		Where(sq.Eq{"product_id": productID}).
		OrderBy("price", "name", "id")
}

func (r *PostgresCatalogRepository) listVariants(ctx context.Context, productID uuid.UUID) ([]catalog.Variant, error) {
	sql, args, err := r.variantsOf(productID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query variants: %w", err)
	}
	defer rows.Close()

	variants := make([]catalog.Variant, 0)
	for rows.Next() {
		var v catalog.Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.Size, &v.Scent, &v.Stock, &v.Price); err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		variants = append(variants, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return variants, nil
}

func (r *PostgresCatalogRepository) queryIDs(ctx context.Context, sql string, args ...any) ([]uuid.UUID, error) {
	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ids: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("failed to collect ids: %w", err)
	}

	return ids, nil
}

func (r *PostgresCatalogRepository) deleteByID(ctx context.Context, table, kind string, id uuid.UUID) error {
	sql, args, err := r.sb.Delete(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFoundf("%s %s", kind, id)
	}

	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
