package order

import (
	"fmt"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/service/models/delivery"
	"github.com/corray333/backend-labs/storefront/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/corray333/backend-labs/storefront/internal/service/models/status"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is the aggregate root of a checkout. Items and Payment belong to it.
type Order struct {
	ID              uuid.UUID             `json:"id"`
	UserID          uuid.UUID             `json:"userId"`
	TotalAmount     decimal.Decimal       `json:"totalAmount"`
	OrderStatus     status.OrderStatus    `json:"orderStatus"`
	PaymentStatus   status.PaymentStatus  `json:"paymentStatus"`
	DeliveryStatus  status.DeliveryStatus `json:"deliveryStatus"`
	DeliveryMethod  delivery.Method       `json:"deliveryMethod"`
	DeliveryFee     decimal.Decimal       `json:"deliveryFee"`
	ShippingAddress delivery.Address      `json:"shippingAddress"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
	Items           []orderitem.OrderItem `json:"items"`
	Payment         *payment.Payment      `json:"payment,omitempty"`
}

// ValidateTotals checks that the line totals plus the delivery fee add up to TotalAmount.
func (o *Order) ValidateTotals() error {
	sum := o.DeliveryFee
	for _, item := range o.Items {
		if !item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Equal(item.TotalPrice) {
			return fmt.Errorf("order item %s: total %s does not match %d x %s",
				item.VariantName, item.TotalPrice, item.Quantity, item.UnitPrice)
		}
		sum = sum.Add(item.TotalPrice)
	}

	if !sum.Equal(o.TotalAmount) {
		return fmt.Errorf("order total %s does not match items plus fee %s", o.TotalAmount, sum)
	}

	return nil
}

// StatusUpdate carries the optional new values for each status axis.
type StatusUpdate struct {
	OrderStatus    *status.OrderStatus
	PaymentStatus  *status.PaymentStatus
	DeliveryStatus *status.DeliveryStatus
}

// Empty reports whether no axis is being changed.
func (u StatusUpdate) Empty() bool {
	return u.OrderStatus == nil && u.PaymentStatus == nil && u.DeliveryStatus == nil
}
