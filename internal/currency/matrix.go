// Package currency provides exchange rates between the supported currencies
// and conversion of amounts using them.
package currency

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"budgethelper/internal/core"
)

// Table maps from -> to -> multiplier: amount_in_to = amount_in_from * Table[from][to].
type Table map[core.Currency]map[core.Currency]decimal.Decimal

// RateMatrix is a rate table with its provenance. Matrices are never mutated
// after construction.
type RateMatrix struct {
	Rates     Table
	Source    string
	FetchedAt time.Time
}

// Rate returns the multiplier for from -> to.
func (m RateMatrix) Rate(from, to core.Currency) (decimal.Decimal, bool) {
	row, ok := m.Rates[from]
	if !ok {
		return decimal.Zero, false
	}
	r, ok := row[to]
	return r, ok
}

// IsFallback reports whether m is the static table.
func (m RateMatrix) IsFallback() bool {
	return m.Source == SourceFallback
}

// FromPivot derives the full matrix from the value of one unit of every
// supported currency expressed in a common pivot currency:
//
//	rate[X][Y] = pivotPer[X] / pivotPer[Y]
//
// The diagonal is exactly 1.
func FromPivot(pivotPer map[core.Currency]decimal.Decimal) (Table, error) {
	return build(pivotPer, func(from, to decimal.Decimal) decimal.Decimal {
		return from.Div(to)
	})
}

// FromQuotes derives the full matrix from how many units of every supported
// currency one unit of the pivot buys:
//
//	rate[X][Y] = perPivot[Y] / perPivot[X]
func FromQuotes(perPivot map[core.Currency]decimal.Decimal) (Table, error) {
	return build(perPivot, func(from, to decimal.Decimal) decimal.Decimal {
		return to.Div(from)
	})
}

func build(values map[core.Currency]decimal.Decimal, cross func(from, to decimal.Decimal) decimal.Decimal) (Table, error) {
	for _, c := range core.Currencies() {
		v, ok := values[c]
		if !ok {
			return nil, fmt.Errorf("missing rate for %s", c)
		}
		if !v.IsPositive() {
			return nil, fmt.Errorf("non-positive rate for %s: %s", c, v)
		}
	}

	t := make(Table, len(values))
	for _, from := range core.Currencies() {
		row := make(map[core.Currency]decimal.Decimal, len(values))
		for _, to := range core.Currencies() {
			if from == to {
				row[to] = decimal.NewFromInt(1)
				continue
			}
			row[to] = cross(values[from], values[to])
		}
		t[from] = row
	}
	return t, nil
}
