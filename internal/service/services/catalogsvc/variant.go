package catalogsvc

import (
	"context"
	"strings"

	"github.com/corray333/backend-labs/storefront/internal/service/errs"
	"github.com/corray333/backend-labs/storefront/internal/service/models/catalog"
	"github.com/corray333/backend-labs/storefront/internal/service/models/principal"
	"github.com/corray333/backend-labs/storefront/internal/service/services/stockledger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateVariant adds a variant to a product and refreshes the product's price range.
func (s *CatalogService) CreateVariant(
	ctx context.Context,
	p principal.Principal,
	productID uuid.UUID,
	v catalog.Variant,
) (catalog.Variant, error) {
	if err := validateVariant(v); err != nil {
		return catalog.Variant{}, err
	}
	v.ProductID = productID

	err := s.inTx(ctx, p, func(work unitOfWork) error {
		var err error
		if v, err = work.CatalogRepository().CreateVariant(ctx, v); err != nil {
			return err
		}

		return s.touchProduct(ctx, work, productID)
	})
	if err != nil {
		return catalog.Variant{}, err
	}

	s.log.Info("Variant created", zap.String("variant_id", v.ID.String()), zap.String("product_id", productID.String()))

	return v, nil
}

// UpdateVariant changes the descriptive fields and price of a variant. Stock is left to the ledger.
func (s *CatalogService) UpdateVariant(
	ctx context.Context,
	p principal.Principal,
	v catalog.Variant,
) (catalog.Variant, error) {
	if err := validateVariant(v); err != nil {
		return catalog.Variant{}, err
	}

	err := s.inTx(ctx, p, func(work unitOfWork) error {
		var err error
		if v, err = work.CatalogRepository().UpdateVariant(ctx, v); err != nil {
			return err
		}

		return s.touchProduct(ctx, work, v.ProductID)
	})
	if err != nil {
		return catalog.Variant{}, err
	}

	s.log.Info("Variant updated", zap.String("variant_id", v.ID.String()))

	return v, nil
}

// DeleteVariant removes a variant from its product.
func (s *CatalogService) DeleteVariant(ctx context.Context, p principal.Principal, id uuid.UUID) error {
	err := s.inTx(ctx, p, func(work unitOfWork) error {
		productID, err := work.CatalogRepository().DeleteVariant(ctx, id)
		if err != nil {
			return err
		}

		return s.touchProduct(ctx, work, productID)
	})
	if err != nil {
		return err
	}

	s.log.Info("Variant deleted", zap.String("variant_id", id.String()))

	return nil
}

// Restock adds units to a variant. Stock is not part of the search document, so no event is written.
func (s *CatalogService) Restock(ctx context.Context, p principal.Principal, variantID uuid.UUID, quantity int) error {
	err := s.inTx(ctx, p, func(work unitOfWork) error {
		return stockledger.New(work.VariantRepository()).Restock(ctx, variantID, quantity)
	})
	if err != nil {
		return err
	}

	s.log.Info("Variant restocked", zap.String("variant_id", variantID.String()), zap.Int("quantity", quantity))

	return nil
}

// touchProduct refreshes the price range after a variant change and marks the product for reindexing.
func (s *CatalogService) touchProduct(ctx context.Context, work unitOfWork, productID uuid.UUID) error {
	if err := work.CatalogRepository().RefreshPriceRange(ctx, productID); err != nil {
		return err
	}

	return s.enqueue(ctx, work, productID, catalog.OperationUpdate)
}

func validateVariant(v catalog.Variant) error {
	if strings.TrimSpace(v.Name) == "" {
		return errs.InvalidInputf("variant name is required")
	}
	if v.Price.IsNegative() {
		return errs.InvalidInputf("variant price must not be negative")
	}
	if v.Stock < 0 {
		return errs.InvalidInputf("variant stock must not be negative")
	}

	return nil
}
