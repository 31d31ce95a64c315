// Package export renders reports as downloadable documents.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"budgethelper/internal/core"
)

// Format is a supported export document type.
type Format string

const (
	FormatHTML Format = "html"
	FormatXLSX Format = "xlsx"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat accepts a format name in any case; empty selects HTML.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatHTML, nil
	case FormatHTML, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/html; charset=utf-8"
	}
}

func (f Format) Extension() string {
	return string(f)
}

// FileName is report_<user>_<generated at>.<ext>.
func FileName(rep *core.Report, f Format) string {
	return fmt.Sprintf("report_%d_%s.%s", rep.UserID, rep.GeneratedAt.Format("20060102_150405"), f.Extension())
}

// Renderer writes one document for a prepared view.
type Renderer interface {
	Render(w io.Writer, v *View) error
}

// Exporter builds the view for a report and renders it in the requested format.
type Exporter struct {
	converter Converter
	renderers map[Format]Renderer
}

func NewExporter(converter Converter) (*Exporter, error) {
	html, err := NewHTMLRenderer()
	if err != nil {
		return nil, err
	}
	return &Exporter{
		converter: converter,
		renderers: map[Format]Renderer{
			FormatHTML: html,
			FormatXLSX: XLSXRenderer{},
		},
	}, nil
}

// Export writes rep to w in format f.
func (e *Exporter) Export(ctx context.Context, w io.Writer, rep *core.Report, f Format) error {
	r, ok := e.renderers[f]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	v := BuildView(ctx, rep, e.converter)
	if err := r.Render(w, v); err != nil {
		return fmt.Errorf("render %s: %w", f, err)
	}
	return nil
}
