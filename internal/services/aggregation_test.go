package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgethelper/internal/core"
)

func TestAggregateSingleExpenseToday(t *testing.T) {
	f := newFixture()
	f.tx(core.Expense, "100.00", core.UAH, "food", f.now.Add(-time.Hour))

	res, err := f.aggregator.Aggregate(context.Background(), 42, core.Expense, core.PeriodToday)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Count())
	assert.Equal(t, core.UAH, res.Currency)
	assert.Equal(t, "100.00", res.Total.StringFixed(2))
	require.Contains(t, res.ByCategoryCurrency, "Food")
	assert.Len(t, res.ByCategoryCurrency["Food"], 1)
	assert.Equal(t, "100.00", res.ByCategoryCurrency["Food"][core.UAH].StringFixed(2))
	assert.Equal(t, "100.00", res.ByCategory["Food"].StringFixed(2))
	assert.Equal(t, "100.00", res.TotalByCurrency[core.UAH].StringFixed(2))
}

func TestAggregateConvertsToUserCurrency(t *testing.T) {
	f := newFixture()
	monthStart := time.Date(2025, 3, 1, 8, 0, 0, 0, time.Local)
	f.tx(core.Income, "50", core.USD, "salary", monthStart)
	f.tx(core.Income, "50", core.EUR, "salary", monthStart.Add(24*time.Hour))

	res, err := f.aggregator.Aggregate(context.Background(), 42, core.Income, core.PeriodMonth)
	require.NoError(t, err)

	assert.Equal(t, "4250.00", res.ByCategory["Salary"].StringFixed(2))
	assert.Equal(t, "4250.00", res.Total.StringFixed(2))
	assert.Equal(t, "50.00", res.ByCategoryCurrency["Salary"][core.USD].StringFixed(2))
	assert.Equal(t, "50.00", res.ByCategoryCurrency["Salary"][core.EUR].StringFixed(2))
	assert.Equal(t, "50.00", res.TotalByCurrency[core.USD].StringFixed(2))
}

func TestAggregateHonoursUserCurrency(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.userSvc.Ensure(ctx, 42, "olena", core.English)
	require.NoError(t, err)
	require.NoError(t, f.userSvc.SetCurrency(ctx, 42, core.USD))

	f.tx(core.Expense, "100", core.UAH, "food", f.now.Add(-time.Minute))
	f.tx(core.Expense, "3", core.USD, "food", f.now.Add(-time.Minute))

	res, err := f.aggregator.Aggregate(ctx, 42, core.Expense, core.PeriodToday)
	require.NoError(t, err)
	assert.Equal(t, core.USD, res.Currency)
	// 100 UAH * 0.024 = 2.40
	assert.Equal(t, "5.40", res.Total.StringFixed(2))
}

func TestAggregateEmptyPeriod(t *testing.T) {
	f := newFixture()
	// Outside every window ending on f.now.
	f.tx(core.Expense, "10", core.UAH, "food", f.now.AddDate(-2, 0, 0))

	for _, p := range []core.Period{core.PeriodToday, core.PeriodWeek, core.PeriodMonth, core.PeriodYear} {
		res, err := f.aggregator.Aggregate(context.Background(), 42, core.Expense, p)
		require.NoError(t, err)
		assert.Zero(t, res.Count(), p)
		assert.Empty(t, res.ByCategory, p)
		assert.Empty(t, res.ByCategoryCurrency, p)
		assert.Empty(t, res.TotalByCurrency, p)
		assert.True(t, res.Total.IsZero(), p)
	}
}

func TestAggregateRespectsPeriodBoundaries(t *testing.T) {
	f := newFixture()
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)
	f.tx(core.Expense, "1", core.UAH, "food", monday.Add(-time.Second))
	f.tx(core.Expense, "2", core.UAH, "food", monday)
	f.tx(core.Expense, "4", core.UAH, "food", f.now)

	res, err := f.aggregator.Aggregate(context.Background(), 42, core.Expense, core.PeriodWeek)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count())
	assert.Equal(t, "6.00", res.Total.StringFixed(2))

	res, err = f.aggregator.Aggregate(context.Background(), 42, core.Expense, core.PeriodMonth)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Count())
}

func TestSummarizeTotalsAreConsistent(t *testing.T) {
	f := newFixture()
	at := f.now.Add(-time.Hour)
	txs := []core.Transaction{
		f.tx(core.Expense, "10.10", core.UAH, "food", at),
		f.tx(core.Expense, "0.01", core.USD, "food", at),
		f.tx(core.Expense, "0.01", core.USD, "transport", at),
		f.tx(core.Expense, "7.77", core.EUR, "transport", at),
		f.tx(core.Expense, "1.99", core.UAH, "transport", at),
		f.tx(core.Expense, "0.01", core.USD, "food", at),
	}

	res, err := f.aggregator.Summarize(context.Background(), core.Expense, txs, core.UAH)
	require.NoError(t, err)

	// Native totals per currency equal the per-category native sums.
	for _, cur := range core.Currencies() {
		sum := decimal.Zero
		for _, byCur := range res.ByCategoryCurrency {
			sum = sum.Add(byCur[cur])
		}
		assert.True(t, sum.Equal(res.TotalByCurrency[cur]), "currency %s", cur)
	}

	catSum := decimal.Zero
	for _, v := range res.ByCategory {
		catSum = catSum.Add(v)
	}
	tolerance := decimal.NewFromFloat(0.01).Mul(decimal.NewFromInt(int64(len(res.ByCategory))))
	assert.True(t, catSum.Sub(res.Total).Abs().LessThanOrEqual(tolerance))

	// Each 0.01 USD converts to 0.42 UAH (0.415 rounded), so per-addition
	// rounding yields 0.84 for food rather than 0.83.
	assert.Equal(t, "10.94", res.ByCategory["Food"].StringFixed(2))
}

func TestSummarizeDanglingCategory(t *testing.T) {
	f := newFixture()
	at := f.now.Add(-time.Hour)
	txs := []core.Transaction{
		f.tx(core.Expense, "5", core.UAH, "deleted-1", at),
		f.tx(core.Expense, "6", core.UAH, "deleted-2", at),
		f.tx(core.Expense, "7", core.UAH, "food", at),
	}

	res, err := f.aggregator.Summarize(context.Background(), core.Expense, txs, core.UAH)
	require.NoError(t, err)
	assert.Equal(t, "11.00", res.ByCategory[core.OtherCategory].StringFixed(2))
	assert.Equal(t, "7.00", res.ByCategory["Food"].StringFixed(2))
}

func TestSummarizeConversionFailureAddsNativeAmount(t *testing.T) {
	f := newFixture()
	agg := NewAggregator(f.txs, f.cats, failingConverter{}, f.userSvc, nil)
	at := f.now.Add(-time.Hour)
	txs := []core.Transaction{
		f.tx(core.Income, "10", core.USD, "salary", at),
		f.tx(core.Income, "5", core.UAH, "salary", at),
	}

	res, err := agg.Summarize(context.Background(), core.Income, txs, core.UAH)
	require.NoError(t, err)
	assert.Equal(t, "15.00", res.Total.StringFixed(2))
}

func TestAggregateDataAccessFailure(t *testing.T) {
	f := newFixture()
	f.txs.err = errors.Join(core.ErrDataAccess, errors.New("disk I/O error"))

	_, err := f.aggregator.Aggregate(context.Background(), 42, core.Expense, core.PeriodMonth)
	assert.ErrorIs(t, err, core.ErrDataAccess)
}

func TestAggregateCategoryStoreFailure(t *testing.T) {
	f := newFixture()
	f.tx(core.Expense, "1", core.UAH, "food", f.now)
	f.cats.err = errors.Join(core.ErrDataAccess, errors.New("locked"))

	_, err := f.aggregator.Aggregate(context.Background(), 42, core.Expense, core.PeriodToday)
	assert.ErrorIs(t, err, core.ErrDataAccess)
}

func TestAggregateRejectsInvalidInput(t *testing.T) {
	f := newFixture()
	_, err := f.aggregator.Aggregate(context.Background(), 42, core.Expense, core.Period("decade"))
	assert.ErrorIs(t, err, core.ErrInvalidPeriod)

	_, err = f.aggregator.Aggregate(context.Background(), 42, core.TransactionType("transfer"), core.PeriodToday)
	assert.ErrorIs(t, err, core.ErrInvalidType)
}
