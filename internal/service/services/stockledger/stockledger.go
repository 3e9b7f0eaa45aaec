// Package stockledger is the only writer of variant stock counters.
package stockledger

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/ivariantrepo"
	"github.com/corray333/backend-labs/storefront/internal/service/errs"
	"github.com/corray333/backend-labs/storefront/internal/service/models/catalog"
	"github.com/google/uuid"
)

// Request asks for quantity units of one variant.
type Request struct {
	VariantID uuid.UUID
	Quantity  int
}

// Ledger reserves and returns stock through a repository bound to the caller's transaction.
type Ledger struct {
	variants ivariantrepo.IVariantRepository
}

// New creates a ledger on top of the given variant repository.
func New(variants ivariantrepo.IVariantRepository) *Ledger {
	return &Ledger{variants: variants}
}

// Reserve takes quantity units of the variant or fails with an *errs.OutOfStockError.
// Nothing is committed here, the caller's transaction decides.
func (l *Ledger) Reserve(ctx context.Context, variantID uuid.UUID, quantity int) (catalog.ReservedVariant, error) {
	if quantity <= 0 {
		return catalog.ReservedVariant{}, errs.InvalidInputf("quantity must be positive, got %d", quantity)
	}

	reserved, ok, err := l.variants.DecrementIfAvailable(ctx, variantID, quantity)
	if err != nil {
		return catalog.ReservedVariant{}, err
	}
	if ok {
		return reserved, nil
	}

	current, err := l.variants.Get(ctx, variantID)
	if err != nil {
		return catalog.ReservedVariant{}, err
	}

	return catalog.ReservedVariant{}, &errs.OutOfStockError{
		VariantID:   variantID,
		VariantName: current.Name,
		Requested:   quantity,
		Available:   current.Stock,
	}
}

// ReserveAll reserves every request or returns the first failure.
// Rows are locked in ascending variant id order so that two multi-item checkouts
// cannot wait on each other. Results come back in request order.
func (l *Ledger) ReserveAll(ctx context.Context, reqs []Request) ([]catalog.ReservedVariant, error) {
	idx := make([]int, len(reqs))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return slices.Compare(reqs[a].VariantID[:], reqs[b].VariantID[:])
	})

	out := make([]catalog.ReservedVariant, len(reqs))
	for _, i := range idx {
		reserved, err := l.Reserve(ctx, reqs[i].VariantID, reqs[i].Quantity)
		if err != nil {
			var oos *errs.OutOfStockError
			if errors.As(err, &oos) {
				return nil, err
			}

			return nil, fmt.Errorf("failed to reserve variant %s: %w", reqs[i].VariantID, err)
		}
		out[i] = reserved
	}

	return out, nil
}

// Restock puts quantity units back on the shelf.
func (l *Ledger) Restock(ctx context.Context, variantID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return errs.InvalidInputf("quantity must be positive, got %d", quantity)
	}

	return l.variants.Increment(ctx, variantID, quantity)
}
