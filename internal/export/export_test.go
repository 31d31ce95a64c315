package export

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"budgethelper/internal/core"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type rateConverter map[core.Currency]decimal.Decimal

func (r rateConverter) Convert(ctx context.Context, amount decimal.Decimal, from, to core.Currency) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	return core.Round2(amount.Mul(r[from])), nil
}

func sampleReport() *core.Report {
	day1 := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 4, 18, 30, 0, 0, time.UTC)

	income := core.NewAggregateResult(core.Income, core.UAH)
	income.Transactions = []core.Transaction{
		{ID: "i1", Type: core.Income, Amount: dec("50"), Currency: core.USD, CategoryID: "salary", AddDate: day1},
	}
	income.CategoryNames["salary"] = "Salary"
	income.ByCategory["Salary"] = dec("2075")
	income.ByCategoryCurrency["Salary"] = map[core.Currency]decimal.Decimal{core.USD: dec("50")}
	income.Total = dec("2075")
	income.TotalByCurrency[core.USD] = dec("50")

	expense := core.NewAggregateResult(core.Expense, core.UAH)
	expense.Transactions = []core.Transaction{
		{ID: "e1", Type: core.Expense, Amount: dec("300"), Currency: core.UAH, CategoryID: "food", Description: "market <fresh>", AddDate: day1},
		{ID: "e2", Type: core.Expense, Amount: dec("100"), Currency: core.UAH, CategoryID: "gone", AddDate: day2},
	}
	expense.CategoryNames["food"] = "Food"
	expense.ByCategory["Food"] = dec("300")
	expense.ByCategory[core.OtherCategory] = dec("100")
	expense.ByCategoryCurrency["Food"] = map[core.Currency]decimal.Decimal{core.UAH: dec("300")}
	expense.ByCategoryCurrency[core.OtherCategory] = map[core.Currency]decimal.Decimal{core.UAH: dec("100")}
	expense.Total = dec("400")
	expense.TotalByCurrency[core.UAH] = dec("400")

	return &core.Report{
		UserID:           42,
		Period:           core.PeriodMonth,
		Start:            time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		End:              time.Date(2025, 3, 13, 15, 0, 0, 0, time.UTC),
		Currency:         core.UAH,
		GeneratedAt:      time.Date(2025, 3, 13, 15, 0, 1, 0, time.UTC),
		Income:           income,
		Expense:          expense,
		TotalIncome:      dec("2075"),
		TotalExpense:     dec("400"),
		NetBalance:       dec("1675"),
		IncomeCount:      1,
		ExpenseCount:     2,
		TransactionCount: 3,
		AvgIncome:        dec("2075"),
		AvgExpense:       dec("200"),
		PreviousPeriod: &core.PeriodComparison{
			PrevTotalIncome:     dec("2000"),
			IncomeChange:        dec("75"),
			IncomeChangePercent: dec("3.75"),
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, f)

	f, err = ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "report_42_20250313_150001.xlsx", FileName(sampleReport(), FormatXLSX))
}

func TestBuildView(t *testing.T) {
	v := BuildView(context.Background(), sampleReport(), rateConverter{core.USD: dec("41.5")})

	require.Len(t, v.ExpenseCategories, 2)
	assert.Equal(t, "Food", v.ExpenseCategories[0].Name)
	assert.Equal(t, "75.00", v.ExpenseCategories[0].Percent.StringFixed(2))
	assert.Equal(t, core.OtherCategory, v.ExpenseCategories[1].Name)

	require.Len(t, v.Transactions, 3)
	assert.Equal(t, "300.00", v.Transactions[0].Amount.StringFixed(2))
	assert.Equal(t, core.OtherCategory, v.Transactions[1].Category)
	assert.Equal(t, "Salary", v.Transactions[2].Category)

	require.Len(t, v.Daily, 2)
	assert.Equal(t, "2025-03-03", v.Daily[0].Date)
	assert.Equal(t, "2075.00", v.Daily[0].Income.StringFixed(2))
	assert.Equal(t, "1775.00", v.Daily[0].Balance.StringFixed(2))
	assert.Equal(t, "1675.00", v.Daily[1].Balance.StringFixed(2))
}

func TestBuildViewEmptyReport(t *testing.T) {
	rep := &core.Report{
		Period:   core.PeriodToday,
		Currency: core.UAH,
		Income:   core.NewAggregateResult(core.Income, core.UAH),
		Expense:  core.NewAggregateResult(core.Expense, core.UAH),
	}
	v := BuildView(context.Background(), rep, nil)
	assert.Empty(t, v.Transactions)
	assert.Empty(t, v.Daily)
	assert.Empty(t, v.IncomeCategories)
}

func TestExportHTML(t *testing.T) {
	e, err := NewExporter(rateConverter{core.USD: dec("41.5")})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, e.Export(context.Background(), &buf, sampleReport(), FormatHTML))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "Budget report: month")
	assert.Contains(t, out, "2075.00 ₴")
	assert.Contains(t, out, "50.00 $")
	assert.Contains(t, out, "+3.75%")
	assert.Contains(t, out, "market &lt;fresh&gt;")
	assert.NotContains(t, out, "market <fresh>")
}

func TestExportXLSX(t *testing.T) {
	e, err := NewExporter(nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, e.Export(context.Background(), &buf, sampleReport(), FormatXLSX))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetSummary, sheetCategories, sheetTransactions}, f.GetSheetList())

	title, err := f.GetCellValue(sheetSummary, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Budget report: month", title)

	income, err := f.GetCellValue(sheetSummary, "B6")
	require.NoError(t, err)
	assert.Equal(t, "2075", income)

	cat, err := f.GetCellValue(sheetCategories, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Salary", cat)

	desc, err := f.GetCellValue(sheetTransactions, "D2")
	require.NoError(t, err)
	assert.Equal(t, "market <fresh>", desc)
}

func TestExportUnsupportedFormat(t *testing.T) {
	e, err := NewExporter(nil)
	require.NoError(t, err)
	err = e.Export(context.Background(), &bytes.Buffer{}, sampleReport(), Format("pdf"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
