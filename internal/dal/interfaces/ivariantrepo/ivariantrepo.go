package ivariantrepo

import (
	"context"

	"github.com/corray333/backend-labs/storefront/internal/service/models/catalog"
	"github.com/google/uuid"
)

// IVariantRepository holds the stock counter operations. Only the stock ledger calls it.
type IVariantRepository interface {
	// DecrementIfAvailable subtracts quantity when stock allows it.
	// ok is false when the variant is missing or has less than quantity in stock.
	DecrementIfAvailable(
		ctx context.Context,
		id uuid.UUID,
		quantity int,
	) (variant catalog.ReservedVariant, ok bool, err error)

	// Increment adds quantity to the stock counter
	Increment(ctx context.Context, id uuid.UUID, quantity int) error

	// Get returns the variant, errs.ErrNotFound if it does not exist
	Get(ctx context.Context, id uuid.UUID) (catalog.Variant, error)
}
