package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// AggregateResult groups one transaction type over a period.
type AggregateResult struct {
	Type         TransactionType
	Transactions []Transaction

	// ByCategory holds per-category totals converted to Currency.
	ByCategory map[string]decimal.Decimal
	// ByCategoryCurrency holds per-category totals in native currencies.
	ByCategoryCurrency map[string]map[Currency]decimal.Decimal

	Total           decimal.Decimal
	Currency        Currency
	TotalByCurrency map[Currency]decimal.Decimal

	// CategoryNames maps each category id seen to its resolved label.
	CategoryNames map[string]string
}

// NewAggregateResult returns an empty result with initialised maps.
func NewAggregateResult(t TransactionType, target Currency) *AggregateResult {
	return &AggregateResult{
		Type:               t,
		Transactions:       []Transaction{},
		ByCategory:         make(map[string]decimal.Decimal),
		ByCategoryCurrency: make(map[string]map[Currency]decimal.Decimal),
		Total:              decimal.Zero,
		Currency:           target,
		TotalByCurrency:    make(map[Currency]decimal.Decimal),
		CategoryNames:      make(map[string]string),
	}
}

// Count is the number of transactions aggregated.
func (a *AggregateResult) Count() int {
	return len(a.Transactions)
}

// Report is computed per request and never persisted.
type Report struct {
	UserID      int64
	Period      Period
	Start       time.Time
	End         time.Time
	Currency    Currency
	GeneratedAt time.Time

	Income  *AggregateResult
	Expense *AggregateResult

	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	NetBalance   decimal.Decimal

	IncomeCount      int
	ExpenseCount     int
	TransactionCount int

	AvgIncome  decimal.Decimal
	AvgExpense decimal.Decimal

	PreviousPeriod *PeriodComparison
}

// IsEmpty reports whether the period had no transactions at all.
func (r *Report) IsEmpty() bool {
	return r.TransactionCount == 0
}

// PeriodComparison compares a report against the preceding window of equal
// length.
type PeriodComparison struct {
	Start time.Time
	End   time.Time

	PrevTotalIncome  decimal.Decimal
	PrevTotalExpense decimal.Decimal
	PrevNetBalance   decimal.Decimal

	IncomeChange         decimal.Decimal
	IncomeChangePercent  decimal.Decimal
	ExpenseChange        decimal.Decimal
	ExpenseChangePercent decimal.Decimal
	BalanceChange        decimal.Decimal
	BalanceChangePercent decimal.Decimal
}
