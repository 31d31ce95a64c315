package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"budgethelper/internal/core"
	"budgethelper/internal/log"
	"budgethelper/internal/ports"
)

// CurrencyResolver yields the currency a user's totals are normalised to.
// *UserService implements it.
type CurrencyResolver interface {
	Currency(ctx context.Context, userID int64) (core.Currency, error)
}

// Aggregator groups a user's transactions of one type over a period, by
// category and by currency.
//
// Every running sum is rounded to two decimals after each addition, so totals
// can differ by a cent from a sum rounded once at the end.
type Aggregator struct {
	transactions ports.TransactionStore
	categories   ports.CategoryStore
	converter    ports.Converter
	currencies   CurrencyResolver
	now          func() time.Time
	logger       *log.Logger
}

func NewAggregator(transactions ports.TransactionStore, categories ports.CategoryStore, converter ports.Converter, currencies CurrencyResolver, logger *log.Logger) *Aggregator {
	if logger == nil {
		logger = log.Default(log.ComponentAggregate)
	}
	return &Aggregator{
		transactions: transactions,
		categories:   categories,
		converter:    converter,
		currencies:   currencies,
		now:          time.Now,
		logger:       logger.WithComponent(log.ComponentAggregate),
	}
}

// Aggregate loads the user's transactions of txType inside period and
// summarises them in the user's default currency.
func (a *Aggregator) Aggregate(ctx context.Context, userID int64, txType core.TransactionType, period core.Period) (*core.AggregateResult, error) {
	r, err := period.Range(a.now())
	if err != nil {
		return nil, err
	}
	target, err := a.currencies.Currency(ctx, userID)
	if err != nil {
		return nil, err
	}
	return a.AggregateRange(ctx, userID, txType, r, target)
}

// AggregateRange is Aggregate over an explicit window and target currency.
func (a *Aggregator) AggregateRange(ctx context.Context, userID int64, txType core.TransactionType, r core.DateRange, target core.Currency) (*core.AggregateResult, error) {
	if !txType.IsValid() {
		return nil, core.ErrInvalidType
	}

	txs, err := a.transactions.FindInRange(ctx, txType, userID, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", txType, err)
	}
	return a.Summarize(ctx, txType, txs, target)
}

// Summarize folds txs into an AggregateResult. An empty slice yields empty
// maps and a zero total. Unresolvable categories are grouped under
// core.OtherCategory; failed conversions add the unconverted amount.
func (a *Aggregator) Summarize(ctx context.Context, txType core.TransactionType, txs []core.Transaction, target core.Currency) (*core.AggregateResult, error) {
	res := core.NewAggregateResult(txType, target)
	names := res.CategoryNames

	for _, tx := range txs {
		name, err := a.categoryName(ctx, names, tx.CategoryID)
		if err != nil {
			return nil, err
		}

		converted := a.convert(ctx, tx, target)

		byCur, ok := res.ByCategoryCurrency[name]
		if !ok {
			byCur = make(map[core.Currency]decimal.Decimal)
			res.ByCategoryCurrency[name] = byCur
		}
		byCur[tx.Currency] = core.Accumulate(byCur[tx.Currency], tx.Amount)
		res.ByCategory[name] = core.Accumulate(res.ByCategory[name], converted)
		res.TotalByCurrency[tx.Currency] = core.Accumulate(res.TotalByCurrency[tx.Currency], tx.Amount)
		res.Total = core.Accumulate(res.Total, converted)

		res.Transactions = append(res.Transactions, tx)
	}

	return res, nil
}

func (a *Aggregator) categoryName(ctx context.Context, names map[string]string, id string) (string, error) {
	if name, ok := names[id]; ok {
		return name, nil
	}

	name := core.OtherCategory
	c, err := a.categories.FindByID(ctx, id)
	switch {
	case err == nil:
		name = c.Name
	case errors.Is(err, core.ErrDataAccess):
		return "", fmt.Errorf("resolve category: %w", err)
	default:
		a.logger.WarnContext(ctx, "Category not resolvable, grouping as other",
			log.FieldCategoryID, id, log.FieldError, err)
	}

	names[id] = name
	return name, nil
}

func (a *Aggregator) convert(ctx context.Context, tx core.Transaction, target core.Currency) decimal.Decimal {
	v, err := a.converter.Convert(ctx, tx.Amount, tx.Currency, target)
	if err != nil {
		a.logger.WarnContext(ctx, "Conversion failed, using unconverted amount",
			log.FieldTxID, tx.ID,
			log.FieldCurrency, string(tx.Currency),
			"target", string(target),
			log.FieldError, err)
		return tx.Amount
	}
	return v
}
