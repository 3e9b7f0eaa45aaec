package searchdoc

import (
	"github.com/corray333/backend-labs/storefront/internal/service/models/catalog"
	"github.com/shopspring/decimal"
)

// Document is the denormalized projection of a product stored in the search engine.
type Document struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	ProductMaterial   string          `json:"productMaterial"`
	Inspiration       string          `json:"inspiration"`
	UsageInstructions string          `json:"usageInstructions"`
	ThumbnailImage    string          `json:"thumbnailImage"`
	MinPrice          decimal.Decimal `json:"minPrice"`
	MaxPrice          decimal.Decimal `json:"maxPrice"`
	IsActive          bool            `json:"isActive"`
	BrandName         string          `json:"brandName"`
	VariantNames      []string        `json:"variantNames"`
	VariantSizes      []string        `json:"variantSizes"`
	VariantScents     []string        `json:"variantScents"`
}

// FromProduct builds the document from a product loaded with its brand and variants.
func FromProduct(p catalog.Product) Document {
	doc := Document{
		ID:                p.ID.String(),
		Name:              p.Name,
		Description:       p.Description,
		ProductMaterial:   p.ProductMaterial,
		Inspiration:       p.Inspiration,
		UsageInstructions: p.UsageInstructions,
		ThumbnailImage:    p.ThumbnailImage,
		IsActive:          p.IsActive,
		VariantNames:      make([]string, 0, len(p.Variants)),
		VariantSizes:      make([]string, 0, len(p.Variants)),
		VariantScents:     make([]string, 0, len(p.Variants)),
	}
	if p.Brand != nil {
		doc.BrandName = p.Brand.Name
	}

	doc.MinPrice, doc.MaxPrice = catalog.PriceRange(p.Variants)
	for _, v := range p.Variants {
		doc.VariantNames = append(doc.VariantNames, v.Name)
		doc.VariantSizes = append(doc.VariantSizes, v.Size)
		doc.VariantScents = append(doc.VariantScents, v.Scent)
	}

	return doc
}
