package http

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"budgethelper/internal/core"
	"budgethelper/internal/currency"
)

// Amounts cross the wire as fixed two-decimal strings so clients never see
// binary float rounding.
func amountString(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func currencyTotals(m map[core.Currency]decimal.Decimal) map[string]string {
	out := make(map[string]string, len(m))
	for cur, v := range m {
		out[string(cur)] = amountString(v)
	}
	return out
}

type userResponse struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username,omitempty"`
	Language string `json:"language"`
	Currency string `json:"currency"`
}

func newUserResponse(u core.User) userResponse {
	return userResponse{
		UserID:   u.UserID,
		Username: u.Username,
		Language: string(u.Language),
		Currency: string(u.DefaultCurrency),
	}
}

type transactionResponse struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	UserID      int64  `json:"user_id"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	CategoryID  string `json:"category_id"`
	Description string `json:"description"`
	AddDate     string `json:"add_date"`
	UpdateDate  string `json:"update_date"`
}

func newTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Type:        string(tx.Type),
		UserID:      tx.UserID,
		Amount:      amountString(tx.Amount),
		Currency:    string(tx.Currency),
		CategoryID:  tx.CategoryID,
		Description: tx.Description,
		AddDate:     tx.AddDate.Format(time.RFC3339),
		UpdateDate:  tx.UpdateDate.Format(time.RFC3339),
	}
}

func newTransactionList(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, newTransactionResponse(tx))
	}
	return out
}

type categoryResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	IsDefault bool   `json:"is_default"`
}

func newCategoryList(cats []core.Category) []categoryResponse {
	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, newCategoryResponse(c))
	}
	return out
}

func newCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Type:      string(c.Type),
		IsDefault: c.IsDefault,
	}
}

type categoryTotal struct {
	Category   string            `json:"category"`
	Total      string            `json:"total"`
	ByCurrency map[string]string `json:"by_currency"`
}

type aggregateResponse struct {
	Type            string            `json:"type"`
	Currency        string            `json:"currency"`
	Total           string            `json:"total"`
	Count           int               `json:"count"`
	TotalByCurrency map[string]string `json:"total_by_currency"`
	ByCategory      []categoryTotal   `json:"by_category"`
}

// newAggregateResponse lists categories by converted total, largest first,
// ties broken by name.
func newAggregateResponse(a *core.AggregateResult) aggregateResponse {
	rows := make([]categoryTotal, 0, len(a.ByCategory))
	for name, total := range a.ByCategory {
		rows = append(rows, categoryTotal{
			Category:   name,
			Total:      amountString(total),
			ByCurrency: currencyTotals(a.ByCategoryCurrency[name]),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		ti := a.ByCategory[rows[i].Category]
		tj := a.ByCategory[rows[j].Category]
		if !ti.Equal(tj) {
			return ti.GreaterThan(tj)
		}
		return rows[i].Category < rows[j].Category
	})

	return aggregateResponse{
		Type:            string(a.Type),
		Currency:        string(a.Currency),
		Total:           amountString(a.Total),
		Count:           a.Count(),
		TotalByCurrency: currencyTotals(a.TotalByCurrency),
		ByCategory:      rows,
	}
}

type comparisonResponse struct {
	Start                string `json:"start"`
	End                  string `json:"end"`
	PrevTotalIncome      string `json:"prev_total_income"`
	PrevTotalExpense     string `json:"prev_total_expense"`
	PrevNetBalance       string `json:"prev_net_balance"`
	IncomeChange         string `json:"income_change"`
	IncomeChangePercent  string `json:"income_change_percent"`
	ExpenseChange        string `json:"expense_change"`
	ExpenseChangePercent string `json:"expense_change_percent"`
	BalanceChange        string `json:"balance_change"`
	BalanceChangePercent string `json:"balance_change_percent"`
}

type reportResponse struct {
	UserID           int64               `json:"user_id"`
	Period           string              `json:"period"`
	Start            string              `json:"start"`
	End              string              `json:"end"`
	Currency         string              `json:"currency"`
	GeneratedAt      string              `json:"generated_at"`
	TotalIncome      string              `json:"total_income"`
	TotalExpense     string              `json:"total_expense"`
	NetBalance       string              `json:"net_balance"`
	IncomeCount      int                 `json:"income_count"`
	ExpenseCount     int                 `json:"expense_count"`
	TransactionCount int                 `json:"transaction_count"`
	AvgIncome        string              `json:"avg_income"`
	AvgExpense       string              `json:"avg_expense"`
	Income           aggregateResponse   `json:"income"`
	Expense          aggregateResponse   `json:"expense"`
	Comparison       *comparisonResponse `json:"comparison"`
}

func newReportResponse(rep *core.Report) reportResponse {
	out := reportResponse{
		UserID:           rep.UserID,
		Period:           string(rep.Period),
		Start:            rep.Start.Format(time.RFC3339),
		End:              rep.End.Format(time.RFC3339),
		Currency:         string(rep.Currency),
		GeneratedAt:      rep.GeneratedAt.Format(time.RFC3339),
		TotalIncome:      amountString(rep.TotalIncome),
		TotalExpense:     amountString(rep.TotalExpense),
		NetBalance:       amountString(rep.NetBalance),
		IncomeCount:      rep.IncomeCount,
		ExpenseCount:     rep.ExpenseCount,
		TransactionCount: rep.TransactionCount,
		AvgIncome:        amountString(rep.AvgIncome),
		AvgExpense:       amountString(rep.AvgExpense),
	}
	if rep.Income != nil {
		out.Income = newAggregateResponse(rep.Income)
	}
	if rep.Expense != nil {
		out.Expense = newAggregateResponse(rep.Expense)
	}
	if c := rep.PreviousPeriod; c != nil {
		out.Comparison = &comparisonResponse{
			Start:                c.Start.Format(time.RFC3339),
			End:                  c.End.Format(time.RFC3339),
			PrevTotalIncome:      amountString(c.PrevTotalIncome),
			PrevTotalExpense:     amountString(c.PrevTotalExpense),
			PrevNetBalance:       amountString(c.PrevNetBalance),
			IncomeChange:         amountString(c.IncomeChange),
			IncomeChangePercent:  amountString(c.IncomeChangePercent),
			ExpenseChange:        amountString(c.ExpenseChange),
			ExpenseChangePercent: amountString(c.ExpenseChangePercent),
			BalanceChange:        amountString(c.BalanceChange),
			BalanceChangePercent: amountString(c.BalanceChangePercent),
		}
	}
	return out
}

type ratesResponse struct {
	Source    string                       `json:"source"`
	FetchedAt string                       `json:"fetched_at"`
	Fallback  bool                         `json:"fallback"`
	Rates     map[string]map[string]string `json:"rates"`
}

// Rates keep their full precision; only amounts are fixed to two places.
func newRatesResponse(m currency.RateMatrix) ratesResponse {
	rates := make(map[string]map[string]string, len(m.Rates))
	for from, row := range m.Rates {
		out := make(map[string]string, len(row))
		for to, r := range row {
			out[string(to)] = r.String()
		}
		rates[string(from)] = out
	}
	return ratesResponse{
		Source:    m.Source,
		FetchedAt: m.FetchedAt.Format(time.RFC3339),
		Fallback:  m.IsFallback(),
		Rates:     rates,
	}
}
