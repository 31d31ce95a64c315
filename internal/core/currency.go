package core

import (
	"strings"
)

// Currency is one of the supported ISO codes.
type Currency string

const (
	UAH Currency = "UAH"
	USD Currency = "USD"
	EUR Currency = "EUR"
)

// DefaultCurrency is assigned to users that never picked one.
const DefaultCurrency = UAH

// Currencies lists every supported currency in display order.
func Currencies() []Currency {
	return []Currency{UAH, USD, EUR}
}

// ParseCurrency accepts a code in any case and surrounding whitespace.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", ErrInvalidCurrency
	}
	return c, nil
}

// IsValid reports whether c is one of the supported currencies.
func (c Currency) IsValid() bool {
	switch c {
	case UAH, USD, EUR:
		return true
	default:
		return false
	}
}

// Symbol returns the display symbol, or the code itself for unknown values.
func (c Currency) Symbol() string {
	switch c {
	case UAH:
		return "₴"
	case USD:
		return "$"
	case EUR:
		return "€"
	default:
		return string(c)
	}
}

func (c Currency) String() string {
	return string(c)
}
