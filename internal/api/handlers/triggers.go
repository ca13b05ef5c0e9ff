package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/kr-equities/aegis-quant/internal/trigger"
	"github.com/kr-equities/aegis-quant/pkg/logger"
	"github.com/kr-equities/aegis-quant/pkg/store"
)

// TriggersHandler serves the Trigger Engine's scan results and lets an
// operator force an out-of-schedule scan.
type TriggersHandler struct {
	store   *store.Store
	trigger *trigger.Engine
	log     *logger.Logger
}

// NewTriggersHandler wires a TriggersHandler over the Store and trigger.Engine.
func NewTriggersHandler(st *store.Store, triggerEngine *trigger.Engine, log *logger.Logger) *TriggersHandler {
	return &TriggersHandler{store: st, trigger: triggerEngine, log: log}
}

type triggerResultResponse struct {
	Ticker         string  `json:"ticker"`
	Name           string  `json:"name"`
	TriggerType    string  `json:"trigger_type"`
	Session        string  `json:"session"`
	Price          int64   `json:"price"`
	ChangeRate     float64 `json:"change_rate"`
	Volume         int64   `json:"volume"`
	TradingValue   int64   `json:"trading_value"`
	CompositeScore float64 `json:"composite_score"`
	DetectedAt     string  `json:"detected_at"`
}

func toTriggerResultResponse(r store.TriggerResult) triggerResultResponse {
	return triggerResultResponse{
		Ticker:         r.Ticker,
		Name:           r.Name,
		TriggerType:    string(r.TriggerType),
		Session:        string(r.Session),
		Price:          r.Price,
		ChangeRate:     r.ChangeRate,
		Volume:         r.Volume,
		TradingValue:   r.TradingValue,
		CompositeScore: r.CompositeScore,
		DetectedAt:     r.DetectedAt.Format(time.RFC3339),
	}
}

func toTriggerResultResponses(rows []store.TriggerResult) []triggerResultResponse {
	out := make([]triggerResultResponse, len(rows))
	for i, r := range rows {
		out[i] = toTriggerResultResponse(r)
	}
	return out
}

func parseSession(raw string) (store.Session, bool) {
	switch store.Session(raw) {
	case store.SessionMorning, store.SessionAfternoon:
		return store.Session(raw), true
	default:
		return "", false
	}
}

// List returns every trigger fired on date for session.
// GET /triggers?date=&session=
func (h *TriggersHandler) List(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r, "date", time.Now())
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid date")
		return
	}

	sessionParam := r.URL.Query().Get("session")
	if sessionParam == "" {
		sessionParam = string(store.SessionMorning)
	}
	session, ok := parseSession(sessionParam)
	if !ok {
		respondError(w, http.StatusBadRequest, "session must be 'morning' or 'afternoon'")
		return
	}

	rows, err := h.store.ListTriggerResults(r.Context(), date, session)
	if err != nil {
		h.log.WithError(err).Error("triggers: list failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondData(w, http.StatusOK, toTriggerResultResponses(rows))
}

// Latest returns today's most recent session scan: afternoon once it has
// run, morning otherwise.
// GET /triggers/latest
func (h *TriggersHandler) Latest(w http.ResponseWriter, r *http.Request) {
	today := time.Now()

	rows, err := h.store.ListTriggerResults(r.Context(), today, store.SessionAfternoon)
	if err != nil {
		h.log.WithError(err).Error("triggers: latest afternoon lookup failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(rows) > 0 {
		respondData(w, http.StatusOK, toTriggerResultResponses(rows))
		return
	}

	rows, err = h.store.ListTriggerResults(r.Context(), today, store.SessionMorning)
	if err != nil {
		h.log.WithError(err).Error("triggers: latest morning lookup failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rows == nil {
		respondError(w, http.StatusNotFound, "no trigger scan has run today")
		return
	}
	respondData(w, http.StatusOK, toTriggerResultResponses(rows))
}

// ByType returns up to limit rows of one trigger type on date.
// GET /triggers/types/{trigger_type}?date=&limit=
func (h *TriggersHandler) ByType(w http.ResponseWriter, r *http.Request) {
	triggerType := store.TriggerType(mux.Vars(r)["trigger_type"])

	date, err := parseDateParam(r, "date", time.Now())
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid date")
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	rows, err := h.store.ListTriggerResultsByType(r.Context(), date, triggerType, limit)
	if err != nil {
		h.log.WithError(err).Error("triggers: by-type lookup failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondData(w, http.StatusOK, toTriggerResultResponses(rows))
}

// History returns every trigger fired for ticker within the last days days.
// GET /triggers/{ticker}/history?days=
func (h *TriggersHandler) History(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	days := 30
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		if d, err := strconv.Atoi(daysStr); err == nil && d > 0 {
			days = d
		}
	}

	rows, err := h.store.ListTriggerResultsByTicker(r.Context(), ticker, days)
	if err != nil {
		h.log.WithError(err).WithField("ticker", ticker).Error("triggers: history lookup failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondData(w, http.StatusOK, toTriggerResultResponses(rows))
}

// Run fires an out-of-schedule trigger scan for the named session.
// POST /triggers/run/{morning|afternoon}
func (h *TriggersHandler) Run(w http.ResponseWriter, r *http.Request) {
	session := mux.Vars(r)["session"]

	var rows []store.TriggerResult
	var err error
	switch session {
	case "morning":
		rows, err = h.trigger.RunMorning(r.Context(), time.Now())
	case "afternoon":
		rows, err = h.trigger.RunAfternoon(r.Context(), time.Now())
	default:
		respondError(w, http.StatusBadRequest, "session must be 'morning' or 'afternoon'")
		return
	}
	if err != nil {
		h.log.WithError(err).WithField("session", session).Error("triggers: manual run failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondData(w, http.StatusOK, toTriggerResultResponses(rows))
}

type triggerStatsResponse struct {
	TriggerType string `json:"trigger_type"`
	Count       int    `json:"count"`
}

// Stats aggregates firing counts per trigger type across [start_date, end_date].
// GET /triggers/stats?start_date=&end_date=
func (h *TriggersHandler) Stats(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	start, err := parseDateParam(r, "start_date", now.AddDate(0, 0, -7))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid start_date")
		return
	}
	end, err := parseDateParam(r, "end_date", now)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid end_date")
		return
	}

	stats, err := h.store.TriggerStats(r.Context(), start, end)
	if err != nil {
		h.log.WithError(err).Error("triggers: stats lookup failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result := make([]triggerStatsResponse, len(stats))
	for i, s := range stats {
		result[i] = triggerStatsResponse{TriggerType: string(s.TriggerType), Count: s.Count}
	}
	respondData(w, http.StatusOK, result)
}
