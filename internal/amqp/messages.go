package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"budgethelper/internal/core"
	"budgethelper/internal/export"
)

// ErrInvalidMessage marks deliveries that can never be processed.
var ErrInvalidMessage = errors.New("invalid export message")

// ReportExportMessage asks the worker to render one report to disk. The worker
// rebuilds the report itself, so only the request parameters travel.
type ReportExportMessage struct {
	RequestID         string    `json:"request_id"`
	UserID            int64     `json:"user_id"`
	Period            string    `json:"period"`
	Format            string    `json:"format"`
	IncludeComparison bool      `json:"include_comparison"`
	Timestamp         time.Time `json:"timestamp"`
}

// NewReportExportMessage creates a message with a fresh request id.
func NewReportExportMessage(userID int64, period, format string, includeComparison bool) *ReportExportMessage {
	return &ReportExportMessage{
		RequestID:         uuid.NewString(),
		UserID:            userID,
		Period:            period,
		Format:            format,
		IncludeComparison: includeComparison,
		Timestamp:         time.Now(),
	}
}

// Validate checks the fields the worker depends on.
func (m *ReportExportMessage) Validate() error {
	if m.RequestID == "" {
		return fmt.Errorf("%w: missing request id", ErrInvalidMessage)
	}
	if m.UserID == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, core.ErrInvalidUser)
	}
	if _, err := core.ParsePeriod(m.Period); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if _, err := export.ParseFormat(m.Format); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	return nil
}

func (m *ReportExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportExportMessageFromJSON decodes and validates a delivery body.
func ReportExportMessageFromJSON(data []byte) (*ReportExportMessage, error) {
	var msg ReportExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
