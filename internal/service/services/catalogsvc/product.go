package catalogsvc

import (
	"context"
	"strings"

	"github.com/corray333/backend-labs/storefront/internal/service/errs"
	"github.com/corray333/backend-labs/storefront/internal/service/models/catalog"
	"github.com/corray333/backend-labs/storefront/internal/service/models/principal"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateProduct inserts a product together with any variants it arrives with.
func (s *CatalogService) CreateProduct(
	ctx context.Context,
	p principal.Principal,
	prod catalog.Product,
) (catalog.Product, error) {
	if err := validateProduct(prod); err != nil {
		return catalog.Product{}, err
	}
	for _, v := range prod.Variants {
		if err := validateVariant(v); err != nil {
			return catalog.Product{}, err
		}
	}

	err := s.inTx(ctx, p, func(work unitOfWork) error {
		variants := prod.Variants

		created, err := work.CatalogRepository().CreateProduct(ctx, prod)
		if err != nil {
			return err
		}

		for _, v := range variants {
			v.ProductID = created.ID
			v, err = work.CatalogRepository().CreateVariant(ctx, v)
			if err != nil {
				return err
			}
			created.Variants = append(created.Variants, v)
		}

		if len(variants) > 0 {
			if err := work.CatalogRepository().RefreshPriceRange(ctx, created.ID); err != nil {
				return err
			}
			created.MinPrice, created.MaxPrice = catalog.PriceRange(created.Variants)
		}

		prod = created

		return s.enqueue(ctx, work, created.ID, catalog.OperationCreate)
	})
	if err != nil {
		return catalog.Product{}, err
	}

	s.log.Info("Product created", zap.String("product_id", prod.ID.String()))

	return prod, nil
}

// UpdateProduct replaces the descriptive fields of a product.
func (s *CatalogService) UpdateProduct(
	ctx context.Context,
	p principal.Principal,
	prod catalog.Product,
) (catalog.Product, error) {
	if err := validateProduct(prod); err != nil {
		return catalog.Product{}, err
	}

	err := s.inTx(ctx, p, func(work unitOfWork) error {
		var err error
		if prod, err = work.CatalogRepository().UpdateProduct(ctx, prod); err != nil {
			return err
		}

		return s.enqueue(ctx, work, prod.ID, catalog.OperationUpdate)
	})
	if err != nil {
		return catalog.Product{}, err
	}

	s.log.Info("Product updated", zap.String("product_id", prod.ID.String()))

	return prod, nil
}

// DeleteProduct removes a product and its variants. Order items keep their snapshot.
func (s *CatalogService) DeleteProduct(ctx context.Context, p principal.Principal, id uuid.UUID) error {
	err := s.inTx(ctx, p, func(work unitOfWork) error {
		if err := work.CatalogRepository().DeleteProduct(ctx, id); err != nil {
			return err
		}

		return s.enqueue(ctx, work, id, catalog.OperationDelete)
	})
	if err != nil {
		return err
	}

	s.log.Info("Product deleted", zap.String("product_id", id.String()))

	return nil
}

func validateProduct(prod catalog.Product) error {
	if strings.TrimSpace(prod.Name) == "" {
		return errs.InvalidInputf("product name is required")
	}

	return nil
}
