package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/eocp2024/hungerrush-report/internal/core"
	"github.com/eocp2024/hungerrush-report/internal/services"
	"github.com/eocp2024/hungerrush-report/internal/source"
	"github.com/eocp2024/hungerrush-report/internal/storage"
)

// reportResponse is the wire shape of one report run. Money amounts are
// dollars rounded to two decimals.
type reportResponse struct {
	CashSalesInStore       float64 `json:"cashSalesInStore"`
	CashSalesDelivery      float64 `json:"cashSalesDelivery"`
	CreditCardTipsInStore  float64 `json:"creditCardTipsInStore"`
	CreditCardTipsDelivery float64 `json:"creditCardTipsDelivery"`
	TotalOrders            int     `json:"totalOrders"`
	AverageOrderValue      float64 `json:"averageOrderValue"`
	SkippedRows            int     `json:"skippedRows,omitempty"`
	WindowStart            string  `json:"windowStart"`
	WindowEnd              string  `json:"windowEnd"`
	Fallback               bool    `json:"fallback"`
	Note                   string  `json:"note,omitempty"`
	GeneratedAt            string  `json:"generatedAt"`
}

func toReportResponse(res services.Result) reportResponse {
	s := res.Summary
	return reportResponse{
		CashSalesInStore:       core.Round2(s.CashSalesInStore.Dollars()),
		CashSalesDelivery:      core.Round2(s.CashSalesDelivery.Dollars()),
		CreditCardTipsInStore:  core.Round2(s.CreditCardTipsInStore.Dollars()),
		CreditCardTipsDelivery: core.Round2(s.CreditCardTipsDelivery.Dollars()),
		TotalOrders:            s.TotalOrders,
		AverageOrderValue:      s.AverageOrderValue,
		SkippedRows:            s.SkippedRows,
		WindowStart:            res.Window.Start.String(),
		WindowEnd:              res.Window.End.String(),
		Fallback:               res.Fallback,
		Note:                   res.Note,
		GeneratedAt:            res.GeneratedAt.UTC().Format(time.RFC3339),
	}
}

// handleReport runs (or replays from cache) a report for the requested
// window. GET with start/end query params; POST is accepted as an alias
// and reads the same query parameters.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	start, end, err := parseWindowParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := source.ReportRequest{Start: start, End: end, StoreID: s.storeID}
	res, err := s.reports.Run(r.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrBusy) {
			writeError(w, http.StatusConflict, services.ErrBusy.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "report run failed")
		return
	}

	writeJSON(w, http.StatusOK, toReportResponse(res))
}

// handleStatus reports where the current (or last) run got to.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.reports.Status())
}

// handleHistory lists recent persisted runs, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.history == nil {
		writeError(w, http.StatusNotFound, "report history is not enabled")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be a number between 1 and 500")
			return
		}
		limit = n
	}

	entries, err := s.history.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load report history")
		return
	}
	out := make([]historyResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toHistoryResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// historyResponse is one persisted run on the wire, summary fields flat
// like reportResponse so the audit numbers read the same either way.
type historyResponse struct {
	ID                     int64   `json:"id"`
	StoreID                string  `json:"storeId"`
	WindowStart            string  `json:"windowStart"`
	WindowEnd              string  `json:"windowEnd"`
	CashSalesInStore       float64 `json:"cashSalesInStore"`
	CashSalesDelivery      float64 `json:"cashSalesDelivery"`
	CreditCardTipsInStore  float64 `json:"creditCardTipsInStore"`
	CreditCardTipsDelivery float64 `json:"creditCardTipsDelivery"`
	TotalOrders            int     `json:"totalOrders"`
	AverageOrderValue      float64 `json:"averageOrderValue"`
	Fallback               bool    `json:"fallback"`
	Note                   string  `json:"note,omitempty"`
	GeneratedAt            string  `json:"generatedAt"`
}

func toHistoryResponse(e storage.HistoryEntry) historyResponse {
	s := e.Summary
	return historyResponse{
		ID:                     e.ID,
		StoreID:                e.StoreID,
		WindowStart:            e.WindowStart,
		WindowEnd:              e.WindowEnd,
		CashSalesInStore:       core.Round2(s.CashSalesInStore.Dollars()),
		CashSalesDelivery:      core.Round2(s.CashSalesDelivery.Dollars()),
		CreditCardTipsInStore:  core.Round2(s.CreditCardTipsInStore.Dollars()),
		CreditCardTipsDelivery: core.Round2(s.CreditCardTipsDelivery.Dollars()),
		TotalOrders:            s.TotalOrders,
		AverageOrderValue:      s.AverageOrderValue,
		Fallback:               e.Fallback,
		Note:                   e.Note,
		GeneratedAt:            e.GeneratedAt.UTC().Format(time.RFC3339),
	}
}

// timestampLayouts accepted for start/end parameters.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

func parseWindowParams(r *http.Request) (start, end time.Time, err error) {
	rawStart := r.URL.Query().Get("start")
	rawEnd := r.URL.Query().Get("end")
	if rawStart == "" || rawEnd == "" {
		return start, end, errors.New("start and end query parameters are required")
	}

	start, err = parseTimestamp(rawStart)
	if err != nil {
		return start, end, fmt.Errorf("invalid start: %w", err)
	}
	end, err = parseTimestamp(rawEnd)
	if err != nil {
		return start, end, fmt.Errorf("invalid end: %w", err)
	}
	return start, end, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q (want RFC3339 or 2006-01-02T15:04)", s)
}
