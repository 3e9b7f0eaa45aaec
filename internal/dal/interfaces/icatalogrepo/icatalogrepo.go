package icatalogrepo

import (
	"context"

	"github.com/corray333/backend-labs/storefront/internal/service/models/catalog"
	"github.com/google/uuid"
)

// ICatalogRepository covers brands, products and the descriptive side of variants.
type ICatalogRepository interface {
	UpdateBrand(ctx context.Context, b catalog.Brand) (catalog.Brand, error)
	DeleteBrand(ctx context.Context, id uuid.UUID) error
	ListProductIDsByBrand(ctx context.Context, brandID uuid.UUID) ([]uuid.UUID, error)

	CreateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error)
	UpdateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	// GetProductFull loads a product with its brand and all variants
	GetProductFull(ctx context.Context, id uuid.UUID) (catalog.Product, error)
	// ListProductIDs pages through product ids in ascending order, starting after the given id
	ListProductIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
	// RefreshPriceRange recomputes the product's min and max price columns from its variants
	RefreshPriceRange(ctx context.Context, productID uuid.UUID) error

	CreateVariant(ctx context.Context, v catalog.Variant) (catalog.Variant, error)
	UpdateVariant(ctx context.Context, v catalog.Variant) (catalog.Variant, error)
	// DeleteVariant removes the variant and returns the product it belonged to
	DeleteVariant(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}
