package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Brand groups products under a maker name.
type Brand struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

// Product is a catalog entry. Its variants carry stock and price.
type Product struct {
	ID                uuid.UUID       `json:"id"`
	BrandID           *uuid.UUID      `json:"brandId"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	ProductMaterial   string          `json:"productMaterial"`
	Inspiration       string          `json:"inspiration"`
	UsageInstructions string          `json:"usageInstructions"`
	ThumbnailImage    string          `json:"thumbnailImage"`
	IsActive          bool            `json:"isActive"`
	MinPrice          decimal.Decimal `json:"minPrice"`
	MaxPrice          decimal.Decimal `json:"maxPrice"`
	Brand             *Brand          `json:"brand,omitempty"`
	Variants          []Variant       `json:"variants,omitempty"`
}

// Variant is a purchasable SKU of a product.
type Variant struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Size      string          `json:"size"`
	Scent     string          `json:"scent"`
	Stock     int             `json:"stock"`
	Price     decimal.Decimal `json:"price"`
}

// ReservedVariant is what the stock ledger hands back after a successful reservation:
// the variant price at reservation time plus the descriptive fields for the order snapshot.
type ReservedVariant struct {
	Variant
	ProductName        string
	ProductDescription string
	Thumbnail          string
}

// Operation is the kind of catalog change.
type Operation string

const (
	OperationCreate Operation = "CREATE"
	OperationUpdate Operation = "UPDATE"
	OperationDelete Operation = "DELETE"
)

// ChangeEvent is the fact that a product's search projection is no longer current.
type ChangeEvent struct {
	TargetID   uuid.UUID `json:"targetId"`
	Operation  Operation `json:"operation"`
	OccurredAt time.Time `json:"occurredAt"`
}

// PriceRange returns the min and max variant price, zero when there are no variants.
func PriceRange(variants []Variant) (decimal.Decimal, decimal.Decimal) {
	if len(variants) == 0 {
		return decimal.Zero, decimal.Zero
	}

	lo, hi := variants[0].Price, variants[0].Price
	for _, v := range variants[1:] {
		lo = decimal.Min(lo, v.Price)
		hi = decimal.Max(hi, v.Price)
	}

	return lo, hi
}
