package http

import (
	"net/http"

	"budgethelper/internal/core"
	"budgethelper/internal/export"
)

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	userID, t, ok := transactionRoute(w, r, "aggregate")
	if !ok {
		return
	}
	period, err := ParsePeriodParam(r)
	if err != nil {
		writeError(r.Context(), w, "aggregate", err)
		return
	}

	agg, err := s.deps.Aggregator.Aggregate(r.Context(), userID, t, period)
	if err != nil {
		writeError(r.Context(), w, "aggregate", err)
		return
	}
	NewResponse().JSON(newAggregateResponse(agg)).Write(w)
}

func reportRoute(w http.ResponseWriter, r *http.Request, op string) (int64, core.Period, bool) {
	userID, err := ParseUserID(r)
	if err != nil {
		writeError(r.Context(), w, op, err)
		return 0, "", false
	}
	period, err := ParsePeriodParam(r)
	if err != nil {
		writeError(r.Context(), w, op, err)
		return 0, "", false
	}
	return userID, period, true
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	userID, period, ok := reportRoute(w, r, "report")
	if !ok {
		return
	}
	rep, err := s.deps.Reports.Build(r.Context(), userID, period, ParseBoolQuery(r.URL.Query(), "compare"))
	if err != nil {
		writeError(r.Context(), w, "report", err)
		return
	}
	NewResponse().JSON(newReportResponse(rep)).Write(w)
}

// exportFormat defaults to HTML when ?format= is absent.
func exportFormat(r *http.Request) (export.Format, error) {
	return export.ParseFormat(r.URL.Query().Get("format"))
}

// handleExportInline renders the report in the request and serves it as a
// download.
func (s *Server) handleExportInline(w http.ResponseWriter, r *http.Request) {
	userID, period, ok := reportRoute(w, r, "export")
	if !ok {
		return
	}
	f, err := exportFormat(r)
	if err != nil {
		writeError(r.Context(), w, "export", err)
		return
	}

	doc, err := s.deps.Exports.Render(r.Context(), userID, period, f, ParseBoolQuery(r.URL.Query(), "compare"))
	if err != nil {
		writeError(r.Context(), w, "export", err)
		return
	}
	NewResponse().Attachment(doc.Name, doc.ContentType, doc.Body).Write(w)
}

// handleExportQueued hands the export to the worker and returns its request
// id.
func (s *Server) handleExportQueued(w http.ResponseWriter, r *http.Request) {
	userID, period, ok := reportRoute(w, r, "export_queue")
	if !ok {
		return
	}
	f, err := exportFormat(r)
	if err != nil {
		writeError(r.Context(), w, "export_queue", err)
		return
	}

	id, err := s.deps.Exports.Enqueue(r.Context(), userID, period, f, ParseBoolQuery(r.URL.Query(), "compare"))
	if err != nil {
		writeError(r.Context(), w, "export_queue", err)
		return
	}
	NewResponse().Status(http.StatusAccepted).JSON(map[string]string{
		"request_id": id,
		"format":     string(f),
		"period":     string(period),
	}).Write(w)
}
