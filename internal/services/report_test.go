package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgethelper/internal/core"
)

// With f.now on Thursday 15:00 the "today" window is [Thu 00:00, Thu 15:00]
// and the previous one is [Wed 09:00, Wed 23:59:59].
func yesterdayNoon(f *fixture) time.Time { return f.now.Add(-27 * time.Hour) }

func TestReportEmptyYear(t *testing.T) {
	f := newFixture()
	// Only data from the previous year.
	f.tx(core.Income, "1000", core.UAH, "salary", time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local))

	rep, err := f.reports.Build(context.Background(), 42, core.PeriodYear, true)
	require.NoError(t, err)

	assert.True(t, rep.IsEmpty())
	assert.True(t, rep.TotalIncome.IsZero())
	assert.True(t, rep.TotalExpense.IsZero())
	assert.True(t, rep.NetBalance.IsZero())
	assert.Zero(t, rep.TransactionCount)
	assert.True(t, rep.AvgIncome.IsZero())
	assert.True(t, rep.AvgExpense.IsZero())
	assert.Nil(t, rep.PreviousPeriod)
}

func TestReportTotalsAndAverages(t *testing.T) {
	f := newFixture()
	at := f.now.Add(-time.Hour)
	f.tx(core.Income, "100", core.UAH, "salary", at)
	f.tx(core.Income, "50", core.UAH, "gift", at)
	f.tx(core.Expense, "10", core.UAH, "food", at)
	f.tx(core.Expense, "10", core.UAH, "food", at)
	f.tx(core.Expense, "10.01", core.UAH, "transport", at)

	rep, err := f.reports.Build(context.Background(), 42, core.PeriodToday, false)
	require.NoError(t, err)

	assert.Equal(t, core.PeriodToday, rep.Period)
	assert.Equal(t, core.UAH, rep.Currency)
	assert.True(t, rep.End.Equal(f.now))
	assert.Equal(t, "150.00", rep.TotalIncome.StringFixed(2))
	assert.Equal(t, "30.01", rep.TotalExpense.StringFixed(2))
	assert.Equal(t, "119.99", rep.NetBalance.StringFixed(2))
	assert.Equal(t, 2, rep.IncomeCount)
	assert.Equal(t, 3, rep.ExpenseCount)
	assert.Equal(t, 5, rep.TransactionCount)
	assert.Equal(t, "75.00", rep.AvgIncome.StringFixed(2))
	assert.Equal(t, "10.00", rep.AvgExpense.StringFixed(2))
	assert.Nil(t, rep.PreviousPeriod)
}

func TestReportComparison(t *testing.T) {
	f := newFixture()
	f.tx(core.Income, "1000", core.UAH, "salary", yesterdayNoon(f))
	f.tx(core.Income, "1200", core.UAH, "salary", f.now.Add(-time.Hour))

	rep, err := f.reports.Build(context.Background(), 42, core.PeriodToday, true)
	require.NoError(t, err)
	require.NotNil(t, rep.PreviousPeriod)

	cmp := rep.PreviousPeriod
	assert.Equal(t, "1000.00", cmp.PrevTotalIncome.StringFixed(2))
	assert.Equal(t, "200.00", cmp.IncomeChange.StringFixed(2))
	assert.Equal(t, "20.00", cmp.IncomeChangePercent.StringFixed(2))
	assert.True(t, cmp.End.Equal(rep.Start.Add(-time.Second)))
	assert.Equal(t, rep.End.Sub(rep.Start), cmp.End.Add(time.Second).Sub(cmp.Start))
}

func TestReportComparisonOmittedForEmptyBaseline(t *testing.T) {
	f := newFixture()
	f.tx(core.Income, "1200", core.UAH, "salary", f.now.Add(-time.Hour))
	// Two days back is outside the previous window.
	f.tx(core.Income, "500", core.UAH, "salary", f.now.Add(-48*time.Hour))

	rep, err := f.reports.Build(context.Background(), 42, core.PeriodToday, true)
	require.NoError(t, err)
	assert.Nil(t, rep.PreviousPeriod)
}

func TestReportComparisonZeroBaselineMetric(t *testing.T) {
	f := newFixture()
	f.tx(core.Income, "400", core.UAH, "salary", yesterdayNoon(f))
	f.tx(core.Income, "400", core.UAH, "salary", f.now.Add(-time.Hour))
	f.tx(core.Expense, "300", core.UAH, "food", f.now.Add(-time.Hour))

	rep, err := f.reports.Build(context.Background(), 42, core.PeriodToday, true)
	require.NoError(t, err)
	require.NotNil(t, rep.PreviousPeriod)

	cmp := rep.PreviousPeriod
	assert.Equal(t, "300.00", cmp.ExpenseChange.StringFixed(2))
	assert.True(t, cmp.ExpenseChangePercent.IsZero())
	assert.True(t, cmp.IncomeChange.IsZero())
	assert.True(t, cmp.IncomeChangePercent.IsZero())
	// Balance 400 -> 100.
	assert.Equal(t, "-300.00", cmp.BalanceChange.StringFixed(2))
	assert.Equal(t, "-75.00", cmp.BalanceChangePercent.StringFixed(2))
}

func TestReportBalancePercentAgainstNegativeBaseline(t *testing.T) {
	f := newFixture()
	f.tx(core.Income, "100", core.UAH, "salary", yesterdayNoon(f))
	f.tx(core.Expense, "300", core.UAH, "food", yesterdayNoon(f))
	f.tx(core.Income, "500", core.UAH, "salary", f.now.Add(-time.Hour))
	f.tx(core.Expense, "100", core.UAH, "food", f.now.Add(-time.Hour))

	rep, err := f.reports.Build(context.Background(), 42, core.PeriodToday, true)
	require.NoError(t, err)
	require.NotNil(t, rep.PreviousPeriod)

	cmp := rep.PreviousPeriod
	assert.Equal(t, "-200.00", cmp.PrevNetBalance.StringFixed(2))
	assert.Equal(t, "600.00", cmp.BalanceChange.StringFixed(2))
	assert.Equal(t, "300.00", cmp.BalanceChangePercent.StringFixed(2))
	assert.Equal(t, "-66.67", cmp.ExpenseChangePercent.StringFixed(2))
}

func TestReportPreviousTotalsAreConverted(t *testing.T) {
	f := newFixture()
	f.tx(core.Income, "10", core.USD, "salary", yesterdayNoon(f))
	f.tx(core.Income, "10", core.EUR, "salary", yesterdayNoon(f))
	f.tx(core.Income, "1", core.UAH, "salary", f.now.Add(-time.Hour))

	rep, err := f.reports.Build(context.Background(), 42, core.PeriodToday, true)
	require.NoError(t, err)
	require.NotNil(t, rep.PreviousPeriod)
	// 10 * 41.5 + 10 * 43.5
	assert.Equal(t, "850.00", rep.PreviousPeriod.PrevTotalIncome.StringFixed(2))
}

func TestReportWithoutComparisonFlag(t *testing.T) {
	f := newFixture()
	f.tx(core.Income, "1000", core.UAH, "salary", yesterdayNoon(f))
	f.tx(core.Income, "1200", core.UAH, "salary", f.now.Add(-time.Hour))

	rep, err := f.reports.Build(context.Background(), 42, core.PeriodToday, false)
	require.NoError(t, err)
	assert.Nil(t, rep.PreviousPeriod)
}

func TestReportFailsOnDataAccess(t *testing.T) {
	f := newFixture()
	f.tx(core.Income, "1", core.UAH, "salary", f.now)
	f.txs.err = errors.Join(core.ErrDataAccess, errors.New("database is locked"))

	rep, err := f.reports.Build(context.Background(), 42, core.PeriodMonth, true)
	assert.Nil(t, rep)
	assert.ErrorIs(t, err, core.ErrDataAccess)
}

func TestReportUserLookupFailure(t *testing.T) {
	f := newFixture()
	f.users.err = errors.Join(core.ErrDataAccess, errors.New("closed"))

	_, err := f.reports.Build(context.Background(), 42, core.PeriodMonth, false)
	assert.ErrorIs(t, err, core.ErrDataAccess)
}

func TestPercentChange(t *testing.T) {
	cases := []struct{ change, prev, want string }{
		{"200", "1000", "20"},
		{"-50", "200", "-25"},
		{"1", "3", "33.33"},
		{"500", "0", "0"},
	}
	for _, tc := range cases {
		got := percentChange(dec(tc.change), dec(tc.prev))
		assert.True(t, got.Equal(dec(tc.want)), "%s/%s = %s", tc.change, tc.prev, got)
	}
}
