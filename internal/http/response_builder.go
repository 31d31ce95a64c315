// Package http provides the JSON API server and its handlers.
//
// This file implements the builder used by every handler to write
// responses, and the mapping from domain errors to status codes.

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"budgethelper/internal/core"
	"budgethelper/internal/export"
	"budgethelper/internal/log"
	"budgethelper/internal/services"
)

// ResponseBuilder provides a fluent API for building JSON responses.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
	raw        []byte
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets v as the response payload.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.payload = v
	b.raw = nil
	return b
}

// Attachment sends body as a downloadable file.
func (b *ResponseBuilder) Attachment(name, contentType string, body []byte) *ResponseBuilder {
	b.payload = nil
	b.raw = body
	b.headers["Content-Type"] = contentType
	b.headers["Content-Disposition"] = `attachment; filename="` + name + `"`
	b.headers["Content-Length"] = strconv.Itoa(len(body))
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if b.raw != nil {
		w.WriteHeader(b.statusCode)
		_, _ = w.Write(b.raw)
		return
	}

	if b.payload == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	body, err := json.Marshal(b.payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(body)
}

type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse creates a JSON error response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: message})
}

func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError() *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal error")
}

var statusByError = []struct {
	err    error
	status int
}{
	{core.ErrInvalidAmount, http.StatusBadRequest},
	{core.ErrInvalidCurrency, http.StatusBadRequest},
	{core.ErrInvalidPeriod, http.StatusBadRequest},
	{core.ErrInvalidType, http.StatusBadRequest},
	{core.ErrInvalidLanguage, http.StatusBadRequest},
	{core.ErrInvalidUser, http.StatusBadRequest},
	{core.ErrEmptyName, http.StatusBadRequest},
	{core.ErrNameTooLong, http.StatusBadRequest},
	{core.ErrDescriptionTooLong, http.StatusBadRequest},
	{core.ErrEmptyCategory, http.StatusBadRequest},
	{export.ErrUnsupportedFormat, http.StatusBadRequest},
	{core.ErrNotFound, http.StatusNotFound},
	{core.ErrCategoryNotFound, http.StatusNotFound},
	{core.ErrAlreadyExists, http.StatusConflict},
	{core.ErrCategoryInUse, http.StatusConflict},
	{core.ErrDefaultCategory, http.StatusConflict},
	{core.ErrCategoryMismatch, http.StatusUnprocessableEntity},
	{services.ErrExportQueueUnavailable, http.StatusServiceUnavailable},
}

// StatusFor maps a service error to an HTTP status. Unknown errors, data
// access failures included, are 500.
func StatusFor(err error) int {
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

// writeError maps err to a response. Server-side failures are logged and
// their details hidden from the client.
func writeError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Request failed", err, op, nil)
		InternalServerError().Write(w)
		return
	}
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			ErrorResponse(status, m.err.Error()).Write(w)
			return
		}
	}
}
