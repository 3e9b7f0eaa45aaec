package orderitem

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is an immutable price and description snapshot of a purchased variant.
// VariantID and ProductID are plain copies and may point at rows that no longer exist.
type OrderItem struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"orderId"`
	VariantID   *uuid.UUID      `json:"variantId"`
	ProductID   *uuid.UUID      `json:"productId"`
	ProductName string          `json:"productName"`
	VariantName string          `json:"variantName"`
	Size        string          `json:"size"`
	Scent       string          `json:"scent"`
	Description string          `json:"description"`
	Thumbnail   string          `json:"thumbnail"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
}
