package payment

import (
	"time"

	"github.com/corray333/backend-labs/storefront/internal/service/errs"
	"github.com/corray333/backend-labs/storefront/internal/service/models/status"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Method is how the customer intends to pay.
type Method string

const (
	MethodCash           Method = "CASH"
	MethodBankTransfer   Method = "BANK_TRANSFER"
	MethodCreditCard     Method = "CREDIT_CARD"
	MethodDebitCard      Method = "DEBIT_CARD"
	MethodPaypal         Method = "PAYPAL"
	MethodStripe         Method = "STRIPE"
	MethodGooglePay      Method = "GOOGLE_PAY"
	MethodApplePay       Method = "APPLE_PAY"
	MethodCryptocurrency Method = "CRYPTOCURRENCY"
	MethodOther          Method = "OTHER"
)

var methods = map[Method]struct{}{
	MethodCash: {}, MethodBankTransfer: {}, MethodCreditCard: {}, MethodDebitCard: {},
	MethodPaypal: {}, MethodStripe: {}, MethodGooglePay: {}, MethodApplePay: {},
	MethodCryptocurrency: {}, MethodOther: {},
}

func (m Method) String() string {
	return string(m)
}

// ParseMethod validates s against the known payment methods.
func ParseMethod(s string) (Method, error) {
	m := Method(s)
	if _, ok := methods[m]; !ok {
		return "", errs.InvalidInputf("unknown payment method %q", s)
	}

	return m, nil
}

// Payment is the payment record owned 1:1 by an order.
type Payment struct {
	ID        uuid.UUID            `json:"id"`
	OrderID   uuid.UUID            `json:"orderId"`
	Amount    decimal.Decimal      `json:"amount"`
	Method    Method               `json:"method"`
	Status    status.PaymentStatus `json:"status"`
	SessionID string               `json:"sessionId,omitempty"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}
