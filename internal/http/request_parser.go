// This file implements utilities for parsing and validating request data:
// path parameters, query flags and JSON or form encoded bodies.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"budgethelper/internal/core"
)

// maxBodySize bounds request bodies; every payload here is a handful of
// short fields.
const maxBodySize = 64 << 10

var ErrMalformedBody = errors.New("malformed request body")

// ParseUserID reads the {id} path segment.
func ParseUserID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.PathValue("id")), 10, 64)
	if err != nil || id == 0 {
		return 0, core.ErrInvalidUser
	}
	return id, nil
}

// ParseTypeParam reads the {type} path segment.
func ParseTypeParam(r *http.Request) (core.TransactionType, error) {
	return core.ParseTransactionType(r.PathValue("type"))
}

// ParsePeriodParam reads the {period} path segment.
func ParsePeriodParam(r *http.Request) (core.Period, error) {
	return core.ParsePeriod(r.PathValue("period"))
}

// ParseBoolQuery treats 1, true, yes and on as true; anything else is false.
func ParseBoolQuery(query url.Values, key string) bool {
	switch strings.ToLower(strings.TrimSpace(query.Get(key))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// RequestBodyParser handles JSON and form-encoded bodies.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads at most maxBodySize bytes of the body once.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if p.err == nil && len(p.body) > maxBodySize {
		p.err = fmt.Errorf("%w: body exceeds %d bytes", ErrMalformedBody, maxBodySize)
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.err = fmt.Errorf("%w: %v", ErrMalformedBody, err)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	if p.err != nil {
		p.err = fmt.Errorf("%w: %v", ErrMalformedBody, p.err)
	}
	return p.err
}

// Get returns a trimmed, sanitized string value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Has reports whether key was present in the body.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	return p.formData != nil && p.formData.Has(key)
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON scalar to its string form. Numbers keep
// their literal digits so "amount": 12.5 and "amount": "12.5" parse alike.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput drops control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		if r == 127 {
			return -1
		}
		return r
	}, s)
}

// ParseBodyOrFail parses the request body and writes a 400 on failure.
// Returns nil when the handler should stop.
func ParseBodyOrFail(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(ErrMalformedBody.Error()).Write(w)
		return nil
	}
	return p
}
