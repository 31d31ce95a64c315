package currency

import (
	"time"

	"github.com/shopspring/decimal"

	"budgethelper/internal/core"
)

// SourceFallback names the static table in RateMatrix.Source.
const SourceFallback = "fallback"

// The static table is not reciprocal-consistent; entries are used as-is.
var fallbackTable = map[core.Currency]map[core.Currency]string{
	core.UAH: {core.UAH: "1", core.USD: "0.024", core.EUR: "0.023"},
	core.USD: {core.UAH: "41.5", core.USD: "1", core.EUR: "0.95"},
	core.EUR: {core.UAH: "43.5", core.USD: "1.05", core.EUR: "1"},
}

// Fallback returns the static rate matrix stamped with now.
func Fallback(now time.Time) RateMatrix {
	t := make(Table, len(fallbackTable))
	for from, row := range fallbackTable {
		r := make(map[core.Currency]decimal.Decimal, len(row))
		for to, v := range row {
			r[to] = decimal.RequireFromString(v)
		}
		t[from] = r
	}
	return RateMatrix{Rates: t, Source: SourceFallback, FetchedAt: now}
}
