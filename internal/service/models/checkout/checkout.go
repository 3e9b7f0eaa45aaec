package checkout

import "time"

// MetadataOrderID is the session metadata key that carries the order id.
const MetadataOrderID = "order_id"

// LineItem is one row of a hosted checkout page. UnitAmount is in minor units.
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// SessionRequest describes the hosted checkout session to create for an order.
type SessionRequest struct {
	OrderID        string
	Currency       string
	Items          []LineItem
	Metadata       map[string]string
	IdempotencyKey string
}

// Session is a created hosted checkout session.
type Session struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionState is the gateway's authoritative view of a session.
type SessionState struct {
	ID            string
	PaymentStatus string
	Paid          bool
	Metadata      map[string]string
}

// WebhookEvent is a verified gateway notification about a session.
type WebhookEvent struct {
	ID        string
	Type      string
	SessionID string
}

// Webhook event types that confirm a payment.
const (
	EventSessionCompleted      = "checkout.session.completed"
	EventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
)
