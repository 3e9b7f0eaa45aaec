package indexsvc

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/corray333/backend-labs/storefront/internal/service/errs"
	"github.com/corray333/backend-labs/storefront/internal/service/models/principal"
	"github.com/corray333/backend-labs/storefront/internal/service/models/searchdoc"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Reindex rebuilds the document of every product and returns how many were written.
func (s *IndexService) Reindex(ctx context.Context, p principal.Principal) (int, error) {
	if !p.IsAdmin() {
		return 0, fmt.Errorf("reindex requires admin: %w", errs.ErrForbidden)
	}

	var indexed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)

	after := uuid.Nil
	for {
		ids, err := s.catalog.ListProductIDs(gctx, after, s.pageSize)
		if err != nil {
			_ = g.Wait()

			return int(indexed.Load()), fmt.Errorf("failed to list products: %w", err)
		}
		if len(ids) == 0 {
			break
		}

		for _, id := range ids {
			g.Go(func() error {
				err := s.locks.WithProductLock(gctx, id, func(ctx context.Context) error {
					return s.rebuild(ctx, id)
				})
				if err != nil {
					return fmt.Errorf("product %s: %w", id, err)
				}
				indexed.Add(1)

				return nil
			})
		}

		if len(ids) < s.pageSize {
			break
		}
		after = ids[len(ids)-1]
	}

	if err := g.Wait(); err != nil {
		return int(indexed.Load()), err
	}

	n := int(indexed.Load())
	s.log.Info("Search index rebuilt", zap.Int("products", n))

	return n, nil
}

// SearchByBrand returns the indexed products whose brand name matches.
func (s *IndexService) SearchByBrand(
	ctx context.Context,
	p principal.Principal,
	brand string,
) ([]searchdoc.Document, error) {
	if !p.IsAdmin() {
		return nil, fmt.Errorf("search requires admin: %w", errs.ErrForbidden)
	}
	if brand == "" {
		return nil, errs.InvalidInputf("brand is required")
	}

	return s.index.SearchByBrand(ctx, brand, s.searchLimit)
}
