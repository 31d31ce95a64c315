package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"budgethelper/internal/core"
	"budgethelper/internal/log"
	"budgethelper/internal/ports"
)

var hundred = decimal.NewFromInt(100)

// ReportBuilder combines income and expense aggregates of a period and,
// optionally, compares them with the preceding window of equal length.
//
// The income and expense reads are separate store operations; a write that
// lands between them is visible in one and not the other.
type ReportBuilder struct {
	aggregator   *Aggregator
	transactions ports.TransactionStore
	converter    ports.Converter
	currencies   CurrencyResolver
	now          func() time.Time
	logger       *log.Logger
}

func NewReportBuilder(aggregator *Aggregator, transactions ports.TransactionStore, converter ports.Converter, currencies CurrencyResolver, logger *log.Logger) *ReportBuilder {
	if logger == nil {
		logger = log.Default(log.ComponentReport)
	}
	return &ReportBuilder{
		aggregator:   aggregator,
		transactions: transactions,
		converter:    converter,
		currencies:   currencies,
		now:          time.Now,
		logger:       logger.WithComponent(log.ComponentReport),
	}
}

// Build computes the report for period. Any store failure fails the whole
// build; no partial report is returned.
func (b *ReportBuilder) Build(ctx context.Context, userID int64, period core.Period, includeComparison bool) (*core.Report, error) {
	now := b.now()
	r, err := period.Range(now)
	if err != nil {
		return nil, err
	}
	target, err := b.currencies.Currency(ctx, userID)
	if err != nil {
		return nil, err
	}

	income, err := b.aggregator.AggregateRange(ctx, userID, core.Income, r, target)
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}
	expense, err := b.aggregator.AggregateRange(ctx, userID, core.Expense, r, target)
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}

	rep := &core.Report{
		UserID:           userID,
		Period:           period,
		Start:            r.Start,
		End:              r.End,
		Currency:         target,
		GeneratedAt:      now,
		Income:           income,
		Expense:          expense,
		TotalIncome:      income.Total,
		TotalExpense:     expense.Total,
		NetBalance:       core.Round2(income.Total.Sub(expense.Total)),
		IncomeCount:      income.Count(),
		ExpenseCount:     expense.Count(),
		TransactionCount: income.Count() + expense.Count(),
		AvgIncome:        average(income.Total, income.Count()),
		AvgExpense:       average(expense.Total, expense.Count()),
	}

	if includeComparison && rep.TransactionCount > 0 {
		cmp, err := b.compare(ctx, rep, r.Previous())
		if err != nil {
			return nil, fmt.Errorf("build report: %w", err)
		}
		rep.PreviousPeriod = cmp
	}

	b.logger.DebugContext(ctx, "Report built",
		log.FieldUserID, userID,
		log.FieldPeriod, string(period),
		log.FieldCount, rep.TransactionCount,
		"comparison", rep.PreviousPeriod != nil)

	return rep, nil
}

// compare returns nil when the previous window has no income and no expense.
func (b *ReportBuilder) compare(ctx context.Context, rep *core.Report, prev core.DateRange) (*core.PeriodComparison, error) {
	prevIncome, err := b.total(ctx, rep.UserID, core.Income, prev, rep.Currency)
	if err != nil {
		return nil, err
	}
	prevExpense, err := b.total(ctx, rep.UserID, core.Expense, prev, rep.Currency)
	if err != nil {
		return nil, err
	}
	if prevIncome.IsZero() && prevExpense.IsZero() {
		return nil, nil
	}

	prevBalance := core.Round2(prevIncome.Sub(prevExpense))
	cmp := &core.PeriodComparison{
		Start:            prev.Start,
		End:              prev.End,
		PrevTotalIncome:  prevIncome,
		PrevTotalExpense: prevExpense,
		PrevNetBalance:   prevBalance,
		IncomeChange:     core.Round2(rep.TotalIncome.Sub(prevIncome)),
		ExpenseChange:    core.Round2(rep.TotalExpense.Sub(prevExpense)),
		BalanceChange:    core.Round2(rep.NetBalance.Sub(prevBalance)),
	}
	cmp.IncomeChangePercent = percentChange(cmp.IncomeChange, prevIncome)
	cmp.ExpenseChangePercent = percentChange(cmp.ExpenseChange, prevExpense)
	// A negative previous balance would flip the sign of the change.
	cmp.BalanceChangePercent = percentChange(cmp.BalanceChange, prevBalance.Abs())
	return cmp, nil
}

// total sums txType over the window in native currencies and converts each
// currency subtotal to target.
func (b *ReportBuilder) total(ctx context.Context, userID int64, txType core.TransactionType, r core.DateRange, target core.Currency) (decimal.Decimal, error) {
	sums, err := b.transactions.SumByCurrency(ctx, txType, userID, r.Start, r.End)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum previous %s: %w", txType, err)
	}

	total := decimal.Zero
	for _, cur := range core.Currencies() {
		amount, ok := sums[cur]
		if !ok {
			continue
		}
		v, err := b.converter.Convert(ctx, amount, cur, target)
		if err != nil {
			b.logger.WarnContext(ctx, "Conversion failed, using unconverted amount",
				log.FieldCurrency, string(cur), "target", string(target), log.FieldError, err)
			v = amount
		}
		total = core.Accumulate(total, v)
	}
	return total, nil
}

func average(total decimal.Decimal, count int) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return core.Round2(total.Div(decimal.NewFromInt(int64(count))))
}

// percentChange is change / prev * 100, or 0 when prev is 0.
func percentChange(change, prev decimal.Decimal) decimal.Decimal {
	if prev.IsZero() {
		return decimal.Zero
	}
	return core.Round2(change.Div(prev).Mul(hundred))
}
