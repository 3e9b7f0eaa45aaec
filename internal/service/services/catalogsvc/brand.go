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

// UpdateBrand renames or re-describes a brand. Every product of the brand carries the
// brand name in its search document, so each one gets an UPDATE event.
func (s *CatalogService) UpdateBrand(ctx context.Context, p principal.Principal, b catalog.Brand) (catalog.Brand, error) {
	if strings.TrimSpace(b.Name) == "" {
		return catalog.Brand{}, errs.InvalidInputf("brand name is required")
	}

	var affected []uuid.UUID
	err := s.inTx(ctx, p, func(work unitOfWork) error {
		var err error
		if b, err = work.CatalogRepository().UpdateBrand(ctx, b); err != nil {
			return err
		}

		if affected, err = work.CatalogRepository().ListProductIDsByBrand(ctx, b.ID); err != nil {
			return err
		}

		for _, id := range affected {
			if err := s.enqueue(ctx, work, id, catalog.OperationUpdate); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return catalog.Brand{}, err
	}

	s.log.Info("Brand updated", zap.String("brand_id", b.ID.String()), zap.Int("products", len(affected)))

	return b, nil
}

// DeleteBrand removes a brand. Its products stay and lose the brand.
func (s *CatalogService) DeleteBrand(ctx context.Context, p principal.Principal, id uuid.UUID) error {
	var affected []uuid.UUID
	err := s.inTx(ctx, p, func(work unitOfWork) error {
		var err error
		// listed before the delete, which nulls products.brand_id
		if affected, err = work.CatalogRepository().ListProductIDsByBrand(ctx, id); err != nil {
			return err
		}

		if err := work.CatalogRepository().DeleteBrand(ctx, id); err != nil {
			return err
		}

		for _, pid := range affected {
			if err := s.enqueue(ctx, work, pid, catalog.OperationUpdate); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("Brand deleted", zap.String("brand_id", id.String()), zap.Int("products", len(affected)))

	return nil
}
