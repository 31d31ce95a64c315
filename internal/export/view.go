package export

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"budgethelper/internal/core"
)

// Converter converts transaction amounts to the report currency.
type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to core.Currency) (decimal.Decimal, error)
}

// View is the presentation model shared by all renderers.
type View struct {
	Title       string
	UserID      int64
	Period      core.Period
	Start       time.Time
	End         time.Time
	GeneratedAt time.Time
	Currency    core.Currency

	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	NetBalance   decimal.Decimal
	IncomeCount  int
	ExpenseCount int
	AvgIncome    decimal.Decimal
	AvgExpense   decimal.Decimal

	IncomeCategories  []CategoryRow
	ExpenseCategories []CategoryRow
	Transactions      []TransactionRow
	Daily             []DayRow

	Comparison *core.PeriodComparison
}

type CategoryRow struct {
	Name       string
	Amount     decimal.Decimal
	Percent    decimal.Decimal
	ByCurrency []CurrencyAmount
}

type CurrencyAmount struct {
	Currency core.Currency
	Amount   decimal.Decimal
}

type TransactionRow struct {
	Date        time.Time
	Type        core.TransactionType
	Category    string
	Description string
	Amount      decimal.Decimal
	Currency    core.Currency
}

// DayRow holds per-day totals in the report currency and the running balance.
type DayRow struct {
	Date    string
	Income  decimal.Decimal
	Expense decimal.Decimal
	Balance decimal.Decimal
}

// BuildView flattens rep into sorted rows. Failed conversions fall back to the
// native amount.
func BuildView(ctx context.Context, rep *core.Report, conv Converter) *View {
	v := &View{
		Title:        "Budget report: " + string(rep.Period),
		UserID:       rep.UserID,
		Period:       rep.Period,
		Start:        rep.Start,
		End:          rep.End,
		GeneratedAt:  rep.GeneratedAt,
		Currency:     rep.Currency,
		TotalIncome:  rep.TotalIncome,
		TotalExpense: rep.TotalExpense,
		NetBalance:   rep.NetBalance,
		IncomeCount:  rep.IncomeCount,
		ExpenseCount: rep.ExpenseCount,
		AvgIncome:    rep.AvgIncome,
		AvgExpense:   rep.AvgExpense,
		Comparison:   rep.PreviousPeriod,
	}

	v.IncomeCategories = categoryRows(rep.Income)
	v.ExpenseCategories = categoryRows(rep.Expense)

	days := make(map[string]*DayRow)
	for _, agg := range []*core.AggregateResult{rep.Income, rep.Expense} {
		if agg == nil {
			continue
		}
		for _, tx := range agg.Transactions {
			name, ok := agg.CategoryNames[tx.CategoryID]
			if !ok {
				name = core.OtherCategory
			}
			v.Transactions = append(v.Transactions, TransactionRow{
				Date:        tx.AddDate,
				Type:        tx.Type,
				Category:    name,
				Description: tx.Description,
				Amount:      tx.Amount,
				Currency:    tx.Currency,
			})

			amount := tx.Amount
			if conv != nil {
				if c, err := conv.Convert(ctx, tx.Amount, tx.Currency, rep.Currency); err == nil {
					amount = c
				}
			}
			key := tx.AddDate.Format("2006-01-02")
			d, ok := days[key]
			if !ok {
				d = &DayRow{Date: key}
				days[key] = d
			}
			if tx.Type == core.Income {
				d.Income = core.Accumulate(d.Income, amount)
			} else {
				d.Expense = core.Accumulate(d.Expense, amount)
			}
		}
	}

	sort.SliceStable(v.Transactions, func(i, j int) bool {
		return v.Transactions[i].Amount.GreaterThan(v.Transactions[j].Amount)
	})

	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	balance := decimal.Zero
	for _, k := range keys {
		d := days[k]
		balance = core.Round2(balance.Add(d.Income).Sub(d.Expense))
		d.Balance = balance
		v.Daily = append(v.Daily, *d)
	}

	return v
}

// categoryRows sorts categories by converted amount, largest first.
func categoryRows(agg *core.AggregateResult) []CategoryRow {
	if agg == nil {
		return nil
	}

	rows := make([]CategoryRow, 0, len(agg.ByCategory))
	for name, amount := range agg.ByCategory {
		row := CategoryRow{Name: name, Amount: amount, Percent: decimal.Zero}
		if agg.Total.IsPositive() {
			row.Percent = core.Round2(amount.Div(agg.Total).Mul(decimal.NewFromInt(100)))
		}
		for _, cur := range core.Currencies() {
			if a, ok := agg.ByCategoryCurrency[name][cur]; ok {
				row.ByCurrency = append(row.ByCurrency, CurrencyAmount{Currency: cur, Amount: a})
			}
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Amount.Equal(rows[j].Amount) {
			return rows[i].Amount.GreaterThan(rows[j].Amount)
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}
