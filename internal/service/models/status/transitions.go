package status

import (
	"slices"

	"github.com/corray333/backend-labs/storefront/internal/service/errs"
)

// Table lists, for every known state, the states it may move to.
// Every value of the enumeration is a key, terminal states map to nil.
type Table[S ~string] map[S][]S

// Allows reports whether from -> to is listed. Staying in place is always allowed.
func (t Table[S]) Allows(from, to S) bool {
	if from == to {
		return true
	}

	return slices.Contains(t[from], to)
}

// Terminal reports whether s has no outgoing transitions.
func (t Table[S]) Terminal(s S) bool {
	next, ok := t[s]

	return ok && len(next) == 0
}

var OrderTable = Table[OrderStatus]{
	OrderPending:    {OrderProcessing, OrderCancelled, OrderReturned, OrderRefunded},
	OrderProcessing: {OrderShipped, OrderCancelled, OrderReturned, OrderRefunded},
	OrderShipped:    {OrderDelivered, OrderCancelled, OrderReturned, OrderRefunded},
	OrderDelivered:  nil,
	OrderCancelled:  nil,
	OrderReturned:   nil,
	OrderRefunded:   nil,
}

var PaymentTable = Table[PaymentStatus]{
	PaymentPending:   {PaymentCompleted, PaymentFailed, PaymentCancelled},
	PaymentCompleted: {PaymentRefunded},
	PaymentFailed:    nil,
	PaymentRefunded:  nil,
	PaymentCancelled: nil,
}

var DeliveryTable = Table[DeliveryStatus]{
	DeliveryPreparing:  {DeliveryDelivering, DeliveryCancelled},
	DeliveryDelivering: {DeliveryDelivered, DeliveryCancelled},
	DeliveryDelivered:  nil,
	DeliveryCancelled:  nil,
}

// Policy decides whether the transition tables block status writes.
// With Enforce unset only unknown values are rejected, at parse time.
type Policy struct {
	Enforce bool
}

// Check validates a single axis move under the policy.
func Check[S ~string](p Policy, field string, t Table[S], from, to S) error {
	if !p.Enforce || t.Allows(from, to) {
		return nil
	}

	return &errs.IllegalTransitionError{Field: field, From: string(from), To: string(to)}
}
