// Package pricing turns reserved variants into order line snapshots.
package pricing

import (
	"github.com/corray333/backend-labs/storefront/internal/service/models/cartitem"
	"github.com/corray333/backend-labs/storefront/internal/service/models/catalog"
	"github.com/corray333/backend-labs/storefront/internal/service/models/orderitem"
	"github.com/shopspring/decimal"
)

// LineTotal is unit * quantity, exact.
func LineTotal(unit decimal.Decimal, quantity int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity)))
}

// Snapshot copies the variant's price and description at reservation time into a new order line.
// The price used is the variant's current price, not the price the item had when it entered the cart.
func Snapshot(item cartitem.CartItem, variant catalog.ReservedVariant) orderitem.OrderItem {
	variantID := variant.ID
	productID := variant.ProductID

	return orderitem.OrderItem{
		VariantID:   &variantID,
		ProductID:   &productID,
		ProductName: variant.ProductName,
		VariantName: variant.Name,
		Size:        variant.Size,
		Scent:       variant.Scent,
		Description: variant.ProductDescription,
		Thumbnail:   variant.Thumbnail,
		UnitPrice:   variant.Price,
		Quantity:    item.Quantity,
		TotalPrice:  LineTotal(variant.Price, item.Quantity),
	}
}

// Total sums the line totals and adds the delivery fee.
func Total(items []orderitem.OrderItem, deliveryFee decimal.Decimal) decimal.Decimal {
	total := deliveryFee
	for _, item := range items {
		total = total.Add(item.TotalPrice)
	}

	return total
}

// MinorUnits converts an amount to integer cents, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
