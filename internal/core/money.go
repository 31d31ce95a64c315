// Package core provides the budget domain types and money handling.
//
// Amounts are decimal values with two fractional digits. Running sums are
// rounded after every addition (see Accumulate) so totals match the figures
// users have always been shown.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest single transaction amount accepted.
var MaxAmount = decimal.RequireFromString("999999999.99")

// ParseAmount converts user input to a positive amount with two decimals.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up on the third decimal place. Signs, exponents, NaN/Inf spellings,
// zero, and values above MaxAmount are rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,345") -> 12.35
//	ParseAmount("0")      -> ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, part := range parts {
		for _, r := range part {
			if !unicode.IsDigit(r) || r > unicode.MaxASCII {
				return decimal.Zero, ErrInvalidAmount
			}
		}
	}
	if parts[0] == "" {
		s = "0" + s
	}
	if strings.HasSuffix(s, ".") {
		s += "0"
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = Round2(d)
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ValidateAmount checks 0 < d <= MaxAmount with at most two decimals.
func ValidateAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrInvalidAmount
	}
	if d.GreaterThan(MaxAmount) {
		return ErrInvalidAmount
	}
	if !d.Equal(Round2(d)) {
		return ErrInvalidAmount
	}
	return nil
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Accumulate returns round2(sum + x).
func Accumulate(sum, x decimal.Decimal) decimal.Decimal {
	return Round2(sum.Add(x))
}

// ToCents converts a two-decimal amount to integer minor units.
func ToCents(d decimal.Decimal) int64 {
	return Round2(d).Shift(2).IntPart()
}

// FromCents converts minor units back to an amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
