package pricing

import (
	"testing"

	"github.com/corray333/backend-labs/storefront/internal/service/models/cartitem"
	"github.com/corray333/backend-labs/storefront/internal/service/models/catalog"
	"github.com/corray333/backend-labs/storefront/internal/service/models/delivery"
	"github.com/corray333/backend-labs/storefront/internal/service/models/orderitem"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSnapshot_UsesReservedPriceNotCartPrice(t *testing.T) {
	variantID := uuid.New()
	productID := uuid.New()

	item := cartitem.CartItem{
		ID:             uuid.New(),
		VariantID:      variantID,
		Quantity:       2,
		PriceAtAddTime: dec("80.00"),
	}
	reserved := catalog.ReservedVariant{
		Variant: catalog.Variant{
			ID:        variantID,
			ProductID: productID,
			Name:      "Oud 50ml",
			Size:      "50ml",
			Scent:     "Oud",
			Price:     dec("100.00"),
		},
		ProductName:        "Oud Royale",
		ProductDescription: "Smoky",
		Thumbnail:          "oud.png",
	}

	line := Snapshot(item, reserved)

	assert.True(t, dec("100.00").Equal(line.UnitPrice))
	assert.True(t, dec("200.00").Equal(line.TotalPrice))
	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, "Oud 50ml", line.VariantName)
	assert.Equal(t, "Oud Royale", line.ProductName)
	assert.Equal(t, "Smoky", line.Description)
	require.NotNil(t, line.VariantID)
	require.NotNil(t, line.ProductID)
	assert.Equal(t, variantID, *line.VariantID)
	assert.Equal(t, productID, *line.ProductID)
}

func TestTotal_AddsDeliveryFee(t *testing.T) {
	items := []orderitem.OrderItem{
		{TotalPrice: dec("200.00")},
		{TotalPrice: dec("50.00")},
	}

	total := Total(items, delivery.GrabExpress.Fee())

	assert.Equal(t, "285.00", total.StringFixed(2))
}

func TestLineTotal_IsExact(t *testing.T) {
	assert.Equal(t, "0.30", LineTotal(dec("0.10"), 3).StringFixed(2))
}

func TestMinorUnits(t *testing.T) {
	cases := []struct {
		amount string
		want   int64
	}{
		{"100.00", 10000},
		{"25", 2500},
		{"19.99", 1999},
		{"0.005", 1},
		{"0", 0},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, MinorUnits(dec(tc.amount)), tc.amount)
	}
}

func TestDeliveryFees(t *testing.T) {
	assert.Equal(t, "25.00", delivery.ViettelPost.Fee().StringFixed(2))
	assert.Equal(t, "35.00", delivery.GrabExpress.Fee().StringFixed(2))
	assert.Equal(t, "20.00", delivery.ShopeeExpress.Fee().StringFixed(2))
	assert.Equal(t, "36.00", delivery.RaumaniaExpress.Fee().StringFixed(2))

	_, err := delivery.ParseMethod("CARRIER_PIGEON")
	assert.Error(t, err)
}
