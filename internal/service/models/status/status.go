// Package status defines the three independent status axes of an order.
package status

import (
	"github.com/corray333/backend-labs/storefront/internal/service/errs"
)

// Field names reported by InvalidStatusError and IllegalTransitionError.
const (
	FieldOrderStatus    = "orderStatus"
	FieldPaymentStatus  = "paymentStatus"
	FieldDeliveryStatus = "deliveryStatus"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
	OrderReturned   OrderStatus = "RETURNED"
	OrderRefunded   OrderStatus = "REFUNDED"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

type DeliveryStatus string

const (
	DeliveryPreparing  DeliveryStatus = "PREPARING"
	DeliveryDelivering DeliveryStatus = "DELIVERING"
	DeliveryDelivered  DeliveryStatus = "DELIVERED"
	DeliveryCancelled  DeliveryStatus = "CANCELLED"
)

func (s OrderStatus) String() string    { return string(s) }
func (s PaymentStatus) String() string  { return string(s) }
func (s DeliveryStatus) String() string { return string(s) }

// ParseOrderStatus validates s against the order status enumeration.
func ParseOrderStatus(s string) (OrderStatus, error) {
	v := OrderStatus(s)
	if _, ok := OrderTable[v]; !ok {
		return "", &errs.InvalidStatusError{Field: FieldOrderStatus, Value: s}
	}

	return v, nil
}

// ParsePaymentStatus validates s against the payment status enumeration.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	v := PaymentStatus(s)
	if _, ok := PaymentTable[v]; !ok {
		return "", &errs.InvalidStatusError{Field: FieldPaymentStatus, Value: s}
	}

	return v, nil
}

// ParseDeliveryStatus validates s against the delivery status enumeration.
func ParseDeliveryStatus(s string) (DeliveryStatus, error) {
	v := DeliveryStatus(s)
	if _, ok := DeliveryTable[v]; !ok {
		return "", &errs.InvalidStatusError{Field: FieldDeliveryStatus, Value: s}
	}

	return v, nil
}
