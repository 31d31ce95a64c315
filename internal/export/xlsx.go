package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"budgethelper/internal/core"
)

const (
	sheetSummary      = "Summary"
	sheetCategories   = "Categories"
	sheetTransactions = "Transactions"
)

// XLSXRenderer renders a workbook with summary, category and transaction
// sheets.
type XLSXRenderer struct{}

type xlsxStyles struct {
	header, data, total int
}

func (XLSXRenderer) Render(w io.Writer, v *View) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{sheetCategories, sheetTransactions} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	styles, err := newXLSXStyles(f)
	if err != nil {
		return err
	}

	for _, write := range []func(*excelize.File, *View, xlsxStyles) error{
		writeSummary, writeCategories, writeTransactions,
	} {
		if err := write(f, v, styles); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func newXLSXStyles(f *excelize.File) (xlsxStyles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "D9D9D9", Style: 1},
		{Type: "top", Color: "D9D9D9", Style: 1},
		{Type: "bottom", Color: "D9D9D9", Style: 1},
		{Type: "right", Color: "D9D9D9", Style: 1},
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return xlsxStyles{}, fmt.Errorf("header style: %w", err)
	}

	data, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return xlsxStyles{}, fmt.Errorf("data style: %w", err)
	}

	total, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Border: border,
	})
	if err != nil {
		return xlsxStyles{}, fmt.Errorf("total style: %w", err)
	}

	return xlsxStyles{header: header, data: data, total: total}, nil
}

func writeRow(f *excelize.File, sheet string, row int, style int, values ...any) error {
	for i, val := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if d, ok := val.(decimal.Decimal); ok {
			val = d.Round(2).InexactFloat64()
		}
		if err := f.SetCellValue(sheet, cell, val); err != nil {
			return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
		}
	}
	if len(values) == 0 {
		return nil
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(values), row)
	return f.SetCellStyle(sheet, first, last, style)
}

func writeSummary(f *excelize.File, v *View, s xlsxStyles) error {
	f.SetColWidth(sheetSummary, "A", "A", 24)
	f.SetColWidth(sheetSummary, "B", "E", 16)

	if err := f.SetCellValue(sheetSummary, "A1", v.Title); err != nil {
		return err
	}
	if err := f.MergeCell(sheetSummary, "A1", "E1"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheetSummary, "A2", fmt.Sprintf("%s - %s",
		v.Start.Format(core.TimestampLayout), v.End.Format(core.TimestampLayout))); err != nil {
		return err
	}

	rows := [][]any{
		{"Currency", string(v.Currency)},
		{"Total income", v.TotalIncome},
		{"Total expenses", v.TotalExpense},
		{"Net balance", v.NetBalance},
		{"Income transactions", v.IncomeCount},
		{"Expense transactions", v.ExpenseCount},
		{"Average income", v.AvgIncome},
		{"Average expense", v.AvgExpense},
	}
	if err := writeRow(f, sheetSummary, 4, s.header, "Metric", "Value"); err != nil {
		return err
	}
	for i, r := range rows {
		if err := writeRow(f, sheetSummary, 5+i, s.data, r...); err != nil {
			return err
		}
	}

	if c := v.Comparison; c != nil {
		row := 5 + len(rows) + 1
		if err := writeRow(f, sheetSummary, row, s.header, "Previous period", "Previous", "Change", "Change %"); err != nil {
			return err
		}
		for i, r := range [][]any{
			{"Income", c.PrevTotalIncome, c.IncomeChange, c.IncomeChangePercent},
			{"Expenses", c.PrevTotalExpense, c.ExpenseChange, c.ExpenseChangePercent},
			{"Balance", c.PrevNetBalance, c.BalanceChange, c.BalanceChangePercent},
		} {
			if err := writeRow(f, sheetSummary, row+1+i, s.data, r...); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeCategories(f *excelize.File, v *View, s xlsxStyles) error {
	f.SetColWidth(sheetCategories, "A", "A", 12)
	f.SetColWidth(sheetCategories, "B", "B", 24)
	f.SetColWidth(sheetCategories, "C", "G", 14)

	if err := writeRow(f, sheetCategories, 1, s.header, "Type", "Category", "Amount", "Share %", "UAH", "USD", "EUR"); err != nil {
		return err
	}

	row := 2
	for _, group := range []struct {
		t    core.TransactionType
		rows []CategoryRow
		sum  decimal.Decimal
	}{
		{core.Income, v.IncomeCategories, v.TotalIncome},
		{core.Expense, v.ExpenseCategories, v.TotalExpense},
	} {
		if len(group.rows) == 0 {
			continue
		}
		for _, c := range group.rows {
			native := map[core.Currency]any{}
			for _, ca := range c.ByCurrency {
				native[ca.Currency] = ca.Amount
			}
			vals := []any{string(group.t), c.Name, c.Amount, c.Percent}
			for _, cur := range core.Currencies() {
				if a, ok := native[cur]; ok {
					vals = append(vals, a)
				} else {
					vals = append(vals, "")
				}
			}
			if err := writeRow(f, sheetCategories, row, s.data, vals...); err != nil {
				return err
			}
			row++
		}
		if err := writeRow(f, sheetCategories, row, s.total, string(group.t), "Total", group.sum); err != nil {
			return err
		}
		row++
	}
	return nil
}

func writeTransactions(f *excelize.File, v *View, s xlsxStyles) error {
	f.SetColWidth(sheetTransactions, "A", "A", 20)
	f.SetColWidth(sheetTransactions, "B", "C", 14)
	f.SetColWidth(sheetTransactions, "D", "D", 32)
	f.SetColWidth(sheetTransactions, "E", "F", 12)

	if err := writeRow(f, sheetTransactions, 1, s.header, "Date", "Type", "Category", "Description", "Amount", "Currency"); err != nil {
		return err
	}
	for i, tx := range v.Transactions {
		if err := writeRow(f, sheetTransactions, i+2, s.data,
			tx.Date.Format(core.TimestampLayout), string(tx.Type), tx.Category, tx.Description, tx.Amount, string(tx.Currency)); err != nil {
			return err
		}
	}
	return nil
}
