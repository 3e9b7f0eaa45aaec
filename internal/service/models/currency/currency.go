package currency

import (
	"errors"
	"strings"
)

// Currency is an ISO 4217 code in upper case.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

var ErrInvalidCurrency = errors.New("invalid currency")

func (c Currency) String() string {
	return string(c)
}

// Lower returns the ISO code in the lowercase form payment gateways expect.
func (c Currency) Lower() string {
	return strings.ToLower(string(c))
}

// ParseCurrency accepts a supported code in any case.
func ParseCurrency(s string) (Currency, error) {
	switch Currency(strings.ToUpper(s)) {
	case CurrencyUSD:
		return CurrencyUSD, nil
	case CurrencyEUR:
		return CurrencyEUR, nil
	default:
		return "", ErrInvalidCurrency
	}
}
