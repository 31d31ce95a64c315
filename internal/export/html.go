package export

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"budgethelper/internal/core"
)

//go:embed templates/report.html.tmpl
var templatesFS embed.FS

// HTMLRenderer renders a self-contained HTML page.
type HTMLRenderer struct {
	tmpl *template.Template
}

type categoryTable struct {
	Rows     []CategoryRow
	Currency core.Currency
}

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal, c core.Currency) string {
		return d.StringFixed(2) + " " + c.Symbol()
	},
	"fixed": func(d decimal.Decimal) string {
		return d.StringFixed(2)
	},
	"signed": func(d decimal.Decimal) string {
		if d.IsPositive() {
			return "+" + d.StringFixed(2)
		}
		return d.StringFixed(2)
	},
	"date": func(t time.Time) string {
		return t.Format(core.TimestampLayout)
	},
	"rows": func(rows []CategoryRow, c core.Currency) categoryTable {
		return categoryTable{Rows: rows, Currency: c}
	},
}

func NewHTMLRenderer() (*HTMLRenderer, error) {
	tmpl, err := template.New("report.html.tmpl").Funcs(funcs).ParseFS(templatesFS, "templates/report.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

func (r *HTMLRenderer) Render(w io.Writer, v *View) error {
	return r.tmpl.Execute(w, v)
}
