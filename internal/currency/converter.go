package currency

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"budgethelper/internal/core"
)

// RateReader yields the current matrix. *Provider implements it.
type RateReader interface {
	Rates(ctx context.Context) RateMatrix
}

// Converter converts amounts using the current matrix.
type Converter struct {
	rates RateReader
}

func NewConverter(rates RateReader) *Converter {
	return &Converter{rates: rates}
}

// Convert returns round2(amount * rate[from][to]). Equal currencies return
// amount untouched without consulting the rates. When the pair is missing
// the original amount is returned together with core.ErrConversionUnavailable.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to core.Currency) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}

	r, ok := c.rates.Rates(ctx).Rate(from, to)
	if !ok {
		return amount, fmt.Errorf("%s -> %s: %w", from, to, core.ErrConversionUnavailable)
	}
	return core.Round2(amount.Mul(r)), nil
}
