package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgethelper/internal/core"
	"budgethelper/internal/export"
)

type recordingPublisher struct {
	calls  []string
	failed error
}

func (p *recordingPublisher) PublishReportExport(ctx context.Context, userID int64, period, format string, includeComparison bool) (string, error) {
	if p.failed != nil {
		return "", p.failed
	}
	p.calls = append(p.calls, period+"/"+format)
	return "req-1", nil
}

func newExportService(t *testing.T, f *fixture, pub *recordingPublisher) *ExportService {
	t.Helper()
	exporter, err := export.NewExporter(newTestConverter())
	require.NoError(t, err)
	if pub == nil {
		return NewExportService(f.reports, exporter, nil, nil)
	}
	return NewExportService(f.reports, exporter, pub, nil)
}

func TestExportRenderHTML(t *testing.T) {
	f := newFixture()
	f.tx(core.Expense, "12.50", core.UAH, "food", f.now.Add(-time.Hour))
	svc := newExportService(t, f, nil)

	doc, err := svc.Render(context.Background(), 42, core.PeriodToday, export.FormatHTML, false)
	require.NoError(t, err)

	assert.Equal(t, "report_42_20250313_150000.html", doc.Name)
	assert.Equal(t, "text/html; charset=utf-8", doc.ContentType)
	assert.True(t, strings.Contains(string(doc.Body), "12.50 ₴"))
	assert.False(t, svc.Queued())
}

func TestExportRenderXLSX(t *testing.T) {
	f := newFixture()
	svc := newExportService(t, f, nil)

	doc, err := svc.Render(context.Background(), 42, core.PeriodMonth, export.FormatXLSX, true)
	require.NoError(t, err)
	assert.Equal(t, export.FormatXLSX, doc.Format)
	// XLSX files are zip archives.
	assert.True(t, strings.HasPrefix(string(doc.Body), "PK"))
}

func TestExportRenderPropagatesDataAccess(t *testing.T) {
	f := newFixture()
	f.txs.err = core.ErrDataAccess
	svc := newExportService(t, f, nil)

	_, err := svc.Render(context.Background(), 42, core.PeriodToday, export.FormatHTML, false)
	assert.ErrorIs(t, err, core.ErrDataAccess)
}

func TestExportEnqueue(t *testing.T) {
	f := newFixture()

	t.Run("without queue", func(t *testing.T) {
		svc := newExportService(t, f, nil)
		_, err := svc.Enqueue(context.Background(), 42, core.PeriodWeek, export.FormatXLSX, false)
		assert.ErrorIs(t, err, ErrExportQueueUnavailable)
	})

	t.Run("publishes", func(t *testing.T) {
		pub := &recordingPublisher{}
		svc := newExportService(t, f, pub)
		id, err := svc.Enqueue(context.Background(), 42, core.PeriodWeek, export.FormatXLSX, false)
		require.NoError(t, err)
		assert.Equal(t, "req-1", id)
		assert.Equal(t, []string{"week/xlsx"}, pub.calls)
		assert.True(t, svc.Queued())
	})

	t.Run("validates before publishing", func(t *testing.T) {
		pub := &recordingPublisher{}
		svc := newExportService(t, f, pub)
		_, err := svc.Enqueue(context.Background(), 42, core.Period("decade"), export.FormatHTML, false)
		assert.ErrorIs(t, err, core.ErrInvalidPeriod)
		_, err = svc.Enqueue(context.Background(), 42, core.PeriodWeek, export.Format("pdf"), false)
		assert.ErrorIs(t, err, export.ErrUnsupportedFormat)
		assert.Empty(t, pub.calls)
	})

	t.Run("publisher failure", func(t *testing.T) {
		boom := errors.New("broker down")
		svc := newExportService(t, f, &recordingPublisher{failed: boom})
		_, err := svc.Enqueue(context.Background(), 42, core.PeriodWeek, export.FormatHTML, false)
		assert.ErrorIs(t, err, boom)
	})
}
