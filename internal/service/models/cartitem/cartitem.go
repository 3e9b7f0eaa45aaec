package cartitem

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is a line in a user's cart waiting to be checked out.
type CartItem struct {
	ID             uuid.UUID       `json:"id"`
	CartID         uuid.UUID       `json:"cartId"`
	UserID         uuid.UUID       `json:"userId"`
	VariantID      uuid.UUID       `json:"variantId"`
	Quantity       int             `json:"quantity"`
	PriceAtAddTime decimal.Decimal `json:"priceAtAddTime"`
}
