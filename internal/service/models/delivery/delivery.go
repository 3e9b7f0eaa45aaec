package delivery

import (
	"github.com/corray333/backend-labs/storefront/internal/service/errs"
	"github.com/shopspring/decimal"
)

// Method is a shipping carrier offered at checkout.
type Method string

const (
	ViettelPost     Method = "VIETTEL_POST"
	GrabExpress     Method = "GRAB_EXPRESS"
	ShopeeExpress   Method = "SHOPEE_EXPRESS"
	RaumaniaExpress Method = "RAUMANIA_EXPRESS"
)

// flat fee per method, in the store currency
var fees = map[Method]decimal.Decimal{
	ViettelPost:     decimal.RequireFromString("25.00"),
	GrabExpress:     decimal.RequireFromString("35.00"),
	ShopeeExpress:   decimal.RequireFromString("20.00"),
	RaumaniaExpress: decimal.RequireFromString("36.00"),
}

func (m Method) String() string {
	return string(m)
}

// Fee returns the flat delivery fee for the method.
func (m Method) Fee() decimal.Decimal {
	return fees[m]
}

// ParseMethod validates s against the known delivery methods.
func ParseMethod(s string) (Method, error) {
	m := Method(s)
	if _, ok := fees[m]; !ok {
		return "", errs.InvalidInputf("unknown delivery method %q", s)
	}

	return m, nil
}

// Address is the shipping destination captured at checkout.
type Address struct {
	HouseNumber string `json:"houseNumber"`
	StreetName  string `json:"streetName"`
	City        string `json:"city"`
	State       string `json:"state"`
	Country     string `json:"country"`
	PostalCode  string `json:"postalCode"`
}
