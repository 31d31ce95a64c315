package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"budgethelper/internal/core"
	"budgethelper/internal/export"
	"budgethelper/internal/log"
	"budgethelper/internal/ports"
)

var ErrExportQueueUnavailable = errors.New("export queue not configured")

// Document is a rendered report ready to be served or stored.
type Document struct {
	Name        string
	ContentType string
	Format      export.Format
	Body        []byte
}

// ExportService renders reports inline or hands them to the export worker.
type ExportService struct {
	reports   *ReportBuilder
	exporter  *export.Exporter
	publisher ports.ExportPublisher
	logger    *log.Logger
}

// NewExportService wires the renderer. publisher may be nil, in which case
// only inline rendering is available.
func NewExportService(reports *ReportBuilder, exporter *export.Exporter, publisher ports.ExportPublisher, logger *log.Logger) *ExportService {
	if logger == nil {
		logger = log.Default(log.ComponentExport)
	}
	return &ExportService{
		reports:   reports,
		exporter:  exporter,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentExport),
	}
}

// Queued reports whether exports can be sent to the worker.
func (s *ExportService) Queued() bool {
	return s.publisher != nil
}

// Render builds the report for period and renders it in format f.
func (s *ExportService) Render(ctx context.Context, userID int64, period core.Period, f export.Format, includeComparison bool) (*Document, error) {
	rep, err := s.reports.Build(ctx, userID, period, includeComparison)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := s.exporter.Export(ctx, &buf, rep, f); err != nil {
		s.logger.ErrorContext(ctx, "Report rendering failed",
			log.FieldUserID, userID,
			log.FieldPeriod, period,
			log.FieldFormat, f,
			log.FieldError, err)
		return nil, err
	}

	doc := &Document{
		Name:        export.FileName(rep, f),
		ContentType: f.ContentType(),
		Format:      f,
		Body:        buf.Bytes(),
	}
	s.logger.InfoContext(ctx, "Report rendered",
		log.FieldUserID, userID,
		log.FieldPeriod, period,
		log.FieldFormat, f,
		log.FieldFile, doc.Name,
		"bytes", len(doc.Body))
	return doc, nil
}

// Enqueue publishes an export request and returns its request id.
func (s *ExportService) Enqueue(ctx context.Context, userID int64, period core.Period, f export.Format, includeComparison bool) (string, error) {
	if s.publisher == nil {
		return "", ErrExportQueueUnavailable
	}
	if userID == 0 {
		return "", core.ErrInvalidUser
	}
	if !period.IsValid() {
		return "", core.ErrInvalidPeriod
	}
	if _, err := export.ParseFormat(string(f)); err != nil {
		return "", err
	}

	id, err := s.publisher.PublishReportExport(ctx, userID, string(period), string(f), includeComparison)
	if err != nil {
		return "", fmt.Errorf("enqueue export: %w", err)
	}
	s.logger.InfoContext(ctx, "Report export queued",
		"request_id", id,
		log.FieldUserID, userID,
		log.FieldPeriod, period,
		log.FieldFormat, f)
	return id, nil
}
