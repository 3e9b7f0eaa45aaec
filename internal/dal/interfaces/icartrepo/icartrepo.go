package icartrepo

import (
	"context"

	"github.com/corray333/backend-labs/storefront/internal/service/models/cartitem"
	"github.com/google/uuid"
)

// ICartItemRepository is an interface for cart item postgres repository.
type ICartItemRepository interface {
	// GetForUpdate loads and row-locks the given cart items together with their cart owner
	GetForUpdate(ctx context.Context, ids []uuid.UUID) ([]cartitem.CartItem, error)

	// DeleteByIDs removes consumed cart items
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) error
}
