// Package worker renders queued report exports to disk.
package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"budgethelper/internal/amqp"
	"budgethelper/internal/core"
	"budgethelper/internal/export"
	"budgethelper/internal/log"
	"budgethelper/internal/services"
)

const tempPrefix = ".export-"

// ReportRenderer produces a finished document for one export request.
type ReportRenderer interface {
	Render(ctx context.Context, userID int64, period core.Period, f export.Format, includeComparison bool) (*services.Document, error)
}

// ExportWorker handles report export messages from AMQP.
type ExportWorker struct {
	renderer ReportRenderer
	dir      string
	logger   *log.Logger
}

func NewExportWorker(renderer ReportRenderer, dir string, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	return &ExportWorker{
		renderer: renderer,
		dir:      dir,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleReportExport renders the requested report and writes it to the export
// directory. Requests that can never succeed are reported as
// amqp.ErrInvalidMessage so the delivery is dropped instead of requeued.
func (w *ExportWorker) HandleReportExport(ctx context.Context, msg *amqp.ReportExportMessage) error {
	period, err := core.ParsePeriod(msg.Period)
	if err != nil {
		return fmt.Errorf("%w: %w", amqp.ErrInvalidMessage, err)
	}
	format, err := export.ParseFormat(msg.Format)
	if err != nil {
		return fmt.Errorf("%w: %w", amqp.ErrInvalidMessage, err)
	}

	doc, err := w.renderer.Render(ctx, msg.UserID, period, format, msg.IncludeComparison)
	if err != nil {
		if permanent(err) {
			return fmt.Errorf("%w: %w", amqp.ErrInvalidMessage, err)
		}
		return fmt.Errorf("render report: %w", err)
	}

	path, err := w.write(doc)
	if err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "Report export written",
		"request_id", msg.RequestID,
		log.FieldUserID, msg.UserID,
		log.FieldPeriod, period,
		log.FieldFormat, format,
		log.FieldFile, path)
	return nil
}

// write stores doc atomically: readers never see a partially written file.
func (w *ExportWorker) write(doc *services.Document) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	tmp, err := os.CreateTemp(w.dir, tempPrefix+"*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(doc.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close export: %w", err)
	}

	path := filepath.Join(w.dir, doc.Name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("move export into place: %w", err)
	}
	return path, nil
}

// CleanupStaleFiles removes temp files left behind by an interrupted write.
// It runs once at startup before consuming.
func (w *ExportWorker) CleanupStaleFiles(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read export dir: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		if err := os.Remove(filepath.Join(w.dir, e.Name())); err != nil {
			w.logger.WarnContext(ctx, "Failed to remove stale export file", log.FieldFile, e.Name(), log.FieldError, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		w.logger.InfoContext(ctx, "Removed stale export files", log.FieldCount, removed)
	}
	return nil
}

func permanent(err error) bool {
	for _, target := range []error{
		core.ErrInvalidUser,
		core.ErrInvalidPeriod,
		export.ErrUnsupportedFormat,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
