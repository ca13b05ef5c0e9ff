package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/kr-equities/aegis-quant/internal/report"
	"github.com/kr-equities/aegis-quant/pkg/logger"
	"github.com/kr-equities/aegis-quant/pkg/store"
)

const (
	reportHistoryMinLimit     = 1
	reportHistoryMaxLimit     = 30
	reportHistoryDefaultLimit = 10

	// morningReportWindowStart/afternoonReportWindowStart bound
	// /reports/latest's time-of-day selection — spec §9's Open Question,
	// decided: before 08:30 nothing is expected yet (404); 08:30-15:40
	// serves the morning report; from 15:40 the afternoon report, falling
	// back to morning if the afternoon hasn't run yet.
	morningReportWindowStart   = 8*60 + 30
	afternoonReportWindowStart = 15*60 + 40
)

// ReportsHandler serves the Report Engine's persisted morning/afternoon
// reports and lets an operator force an out-of-schedule generation.
type ReportsHandler struct {
	report *report.Engine
	store  *store.Store
	log    *logger.Logger
}

// NewReportsHandler wires a ReportsHandler over the Report Engine and Store.
func NewReportsHandler(engine *report.Engine, st *store.Store, log *logger.Logger) *ReportsHandler {
	return &ReportsHandler{report: engine, store: st, log: log}
}

func parseReportType(raw string) (store.ReportType, bool) {
	switch store.ReportType(raw) {
	case store.ReportMorning, store.ReportAfternoon:
		return store.ReportType(raw), true
	default:
		return "", false
	}
}

func (h *ReportsHandler) respondStoredReport(w http.ResponseWriter, result *store.ReportResult) {
	var payload interface{}
	if err := json.Unmarshal([]byte(result.Payload), &payload); err != nil {
		h.log.WithError(err).Error("reports: stored payload decode failed")
		respondError(w, http.StatusInternalServerError, "stored report payload is corrupt")
		return
	}
	respondData(w, http.StatusOK, payload)
}

// Get returns the persisted report of reportType for date.
// GET /reports/{morning|afternoon}?date=
func (h *ReportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	reportType, ok := parseReportType(mux.Vars(r)["report_type"])
	if !ok {
		respondError(w, http.StatusBadRequest, "report_type must be 'morning' or 'afternoon'")
		return
	}
	date, err := parseDateParam(r, "date", time.Now())
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid date")
		return
	}

	result, err := h.store.GetReportResult(r.Context(), reportType, date)
	if err != nil {
		h.log.WithError(err).Error("reports: lookup failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if result == nil {
		respondError(w, http.StatusNotFound, "report not generated for that date")
		return
	}
	h.respondStoredReport(w, result)
}

// Latest picks morning or afternoon by today's time-of-day.
// GET /reports/latest
func (h *ReportsHandler) Latest(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	minuteOfDay := now.Hour()*60 + now.Minute()

	if minuteOfDay < morningReportWindowStart {
		respondError(w, http.StatusNotFound, "no report expected yet today")
		return
	}

	if minuteOfDay < afternoonReportWindowStart {
		result, err := h.store.GetReportResult(r.Context(), store.ReportMorning, now)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if result == nil {
			respondError(w, http.StatusNotFound, "morning report not generated yet")
			return
		}
		h.respondStoredReport(w, result)
		return
	}

	result, err := h.store.GetReportResult(r.Context(), store.ReportAfternoon, now)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if result != nil {
		h.respondStoredReport(w, result)
		return
	}

	result, err = h.store.GetReportResult(r.Context(), store.ReportMorning, now)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if result == nil {
		respondError(w, http.StatusNotFound, "no report generated yet today")
		return
	}
	h.respondStoredReport(w, result)
}

// Generate fires an out-of-schedule report generation for date (default
// today). Generation is at-most-once per (type, date); calling this after
// the scheduled job already ran just returns the cached result.
// POST /reports/{morning|afternoon}/generate?date=
func (h *ReportsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	reportType, ok := parseReportType(mux.Vars(r)["report_type"])
	if !ok {
		respondError(w, http.StatusBadRequest, "report_type must be 'morning' or 'afternoon'")
		return
	}
	date, err := parseDateParam(r, "date", time.Now())
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid date")
		return
	}

	if reportType == store.ReportMorning {
		result, err := h.report.GenerateMorning(r.Context(), date)
		if err != nil {
			h.log.WithError(err).Error("reports: morning generation failed")
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondData(w, http.StatusOK, result)
		return
	}

	result, err := h.report.GenerateAfternoon(r.Context(), date)
	if err != nil {
		h.log.WithError(err).Error("reports: afternoon generation failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondData(w, http.StatusOK, result)
}

type reportHistoryEntry struct {
	ReportType  string `json:"report_type"`
	Date        string `json:"date"`
	GeneratedAt string `json:"generated_at"`
	Model       string `json:"model"`
	TokensUsed  int    `json:"tokens_used"`
}

// History lists up to limit most recent reports, optionally filtered to
// one report_type.
// GET /reports/history?report_type=&limit=
func (h *ReportsHandler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var reportType store.ReportType
	if raw := q.Get("report_type"); raw != "" {
		rt, ok := parseReportType(raw)
		if !ok {
			respondError(w, http.StatusBadRequest, "report_type must be 'morning' or 'afternoon'")
			return
		}
		reportType = rt
	}

	limit := reportHistoryDefaultLimit
	if limitStr := q.Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < reportHistoryMinLimit || l > reportHistoryMaxLimit {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 30")
			return
		}
		limit = l
	}

	rows, err := h.store.ListReportResults(r.Context(), reportType, limit)
	if err != nil {
		h.log.WithError(err).Error("reports: history lookup failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result := make([]reportHistoryEntry, len(rows))
	for i, row := range rows {
		result[i] = reportHistoryEntry{
			ReportType:  string(row.ReportType),
			Date:        row.Date.Format("2006-01-02"),
			GeneratedAt: row.GeneratedAt.Format(time.RFC3339),
			Model:       row.Model,
			TokensUsed:  row.TokensUsed,
		}
	}
	respondData(w, http.StatusOK, result)
}

type reportStatsResponse struct {
	TotalReports      int `json:"total_reports"`
	MorningCount      int `json:"morning_count"`
	AfternoonCount    int `json:"afternoon_count"`
	TotalTokensUsed   int `json:"total_tokens_used"`
}

// Stats summarizes report-generation volume across the stored history.
// GET /reports/stats
func (h *ReportsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	const allHistory = 10_000
	rows, err := h.store.ListReportResults(r.Context(), "", allHistory)
	if err != nil {
		h.log.WithError(err).Error("reports: stats lookup failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stats := reportStatsResponse{TotalReports: len(rows)}
	for _, row := range rows {
		stats.TotalTokensUsed += row.TokensUsed
		switch row.ReportType {
		case store.ReportMorning:
			stats.MorningCount++
		case store.ReportAfternoon:
			stats.AfternoonCount++
		}
	}
	respondData(w, http.StatusOK, stats)
}
