package indexsvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/corray333/backend-labs/storefront/internal/service/errs"
	"github.com/corray333/backend-labs/storefront/internal/service/models/catalog"
	"github.com/corray333/backend-labs/storefront/internal/service/models/searchdoc"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OnCatalogChange applies one change event to the index. The payload only names the product:
// CREATE and UPDATE rebuild the document from the current rows, so replays and late
// retries converge on the same document.
//
// Each product is handled under its lock: the rows are read and the document written
// before any other event, retry or reindex of that product may start.
func (s *IndexService) OnCatalogChange(ctx context.Context, event catalog.ChangeEvent) error {
	var apply func(ctx context.Context, id uuid.UUID) error
	switch event.Operation {
	case catalog.OperationCreate, catalog.OperationUpdate:
		apply = s.rebuild
	case catalog.OperationDelete:
		apply = s.remove
	default:
		return errs.InvalidInputf("unknown catalog operation %q", event.Operation)
	}

	return s.locks.WithProductLock(ctx, event.TargetID, func(ctx context.Context) error {
		return apply(ctx, event.TargetID)
	})
}

func (s *IndexService) rebuild(ctx context.Context, id uuid.UUID) error {
	prod, err := s.catalog.GetProductFull(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		s.log.Debug("Product gone, dropping its document", zap.String("product_id", id.String()))

		return s.remove(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("failed to load product %s: %w", id, err)
	}

	if err := s.index.Upsert(ctx, searchdoc.FromProduct(prod)); err != nil {
		return err
	}

	s.log.Debug("Product indexed", zap.String("product_id", id.String()))

	return nil
}

func (s *IndexService) remove(ctx context.Context, id uuid.UUID) error {
	return s.index.Delete(ctx, id.String())
}
