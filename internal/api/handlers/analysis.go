package handlers

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/kr-equities/aegis-quant/internal/analysis"
	"github.com/kr-equities/aegis-quant/internal/gateway"
	"github.com/kr-equities/aegis-quant/pkg/logger"
	"github.com/kr-equities/aegis-quant/pkg/store"
)

const (
	analysisBatchMaxTickers = 10
	analysisPopularMinLimit = 1
	analysisPopularMaxLimit = 20
)

// AnalysisHandler serves the Analysis Engine's per-ticker valuation: the
// cached single-ticker read, a forced refresh, cache introspection, a
// batch fan-out, the popular-stocks auto-analysis sweep, and the
// sector-comparison Open Question stub.
type AnalysisHandler struct {
	analysis *analysis.Engine
	store    *store.Store
	gateway  *gateway.Gateway
	log      *logger.Logger
}

// NewAnalysisHandler wires an AnalysisHandler over the Analysis Engine,
// Store, and Gateway.
func NewAnalysisHandler(engine *analysis.Engine, st *store.Store, gw *gateway.Gateway, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{analysis: engine, store: st, gateway: gw, log: log}
}

// Get returns the cached analysis for ticker, computing it on a cache
// miss or when force_refresh=true.
// GET /analysis/{ticker}?force_refresh=
func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	forceRefresh := r.URL.Query().Get("force_refresh") == "true"

	result, err := h.analysis.GetAnalysis(r.Context(), ticker, forceRefresh)
	if err != nil {
		h.log.WithError(err).WithField("ticker", ticker).Error("analysis: get failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondData(w, http.StatusOK, result)
}

// Refresh forces recomputation regardless of the cache.
// POST /analysis/{ticker}/refresh
func (h *AnalysisHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	result, err := h.analysis.GetAnalysis(r.Context(), ticker, true)
	if err != nil {
		h.log.WithError(err).WithField("ticker", ticker).Error("analysis: refresh failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondData(w, http.StatusOK, result)
}

type cacheStatusResponse struct {
	Ticker      string  `json:"ticker"`
	Cached      bool    `json:"cached"`
	GeneratedAt *string `json:"generated_at,omitempty"`
	AgeHours    float64 `json:"age_hours,omitempty"`
}

// CacheStatus reports whether today's analysis for ticker is cached,
// without triggering a generation.
// GET /analysis/{ticker}/cache-status
func (h *AnalysisHandler) CacheStatus(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	cached, err := h.store.GetAnalysisResult(r.Context(), ticker, time.Now())
	if err != nil {
		h.log.WithError(err).WithField("ticker", ticker).Error("analysis: cache-status lookup failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if cached == nil {
		respondData(w, http.StatusOK, cacheStatusResponse{Ticker: ticker, Cached: false})
		return
	}
	generatedAt := cached.GeneratedAt.Format(time.RFC3339)
	respondData(w, http.StatusOK, cacheStatusResponse{
		Ticker:      ticker,
		Cached:      true,
		GeneratedAt: &generatedAt,
		AgeHours:    time.Since(cached.GeneratedAt).Hours(),
	})
}

// Batch computes (or reads cached) analyses for up to
// analysisBatchMaxTickers tickers, sequentially — matching the
// reference's un-parallelized batch path.
// POST /analysis/batch?tickers=005930,000660
func (h *AnalysisHandler) Batch(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("tickers")
	if raw == "" {
		respondError(w, http.StatusBadRequest, "tickers is required")
		return
	}
	tickers := strings.Split(raw, ",")
	if len(tickers) > analysisBatchMaxTickers {
		respondError(w, http.StatusBadRequest, "at most 10 tickers per batch")
		return
	}

	results := make([]analysis.Result, 0, len(tickers))
	for _, t := range tickers {
		t = strings.TrimSpace(t)
		result, err := h.analysis.GetAnalysis(r.Context(), t, false)
		if err != nil {
			h.log.WithError(err).WithField("ticker", t).Warn("analysis: batch entry failed")
			continue
		}
		results = append(results, result)
	}
	respondData(w, http.StatusOK, results)
}

// Popular analyzes the top-traded tickers by today's trading value —
// analysis_service.py's get_popular_stocks_analysis batch.
// GET /analysis/popular?limit=
func (h *AnalysisHandler) Popular(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < analysisPopularMinLimit || l > analysisPopularMaxLimit {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 20")
			return
		}
		limit = l
	}

	rows, err := h.gateway.CurrentMarketData(r.Context(), time.Now())
	if err != nil {
		respondGatewayError(w, err)
		return
	}

	type ranked struct {
		ticker       string
		tradingValue int64
	}
	candidates := make([]ranked, 0, len(rows))
	for ticker, row := range rows {
		candidates = append(candidates, ranked{ticker: ticker, tradingValue: row.TradingValue})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].tradingValue > candidates[j].tradingValue })
	if limit < len(candidates) {
		candidates = candidates[:limit]
	}

	results := make([]analysis.Result, 0, len(candidates))
	for _, c := range candidates {
		result, err := h.analysis.GetAnalysis(r.Context(), c.ticker, false)
		if err != nil {
			h.log.WithError(err).WithField("ticker", c.ticker).Warn("analysis: popular entry failed")
			continue
		}
		results = append(results, result)
	}
	respondData(w, http.StatusOK, results)
}

// Comparison is the sector-comparison Open Question: the data source was
// never settled, so the Gateway returns ErrNotImplemented and this
// surfaces it as a vendor-style 500 rather than fabricating a source.
// GET /analysis/{ticker}/comparison
func (h *AnalysisHandler) Comparison(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	_, err := h.gateway.SectorComparison(r.Context(), ticker)
	if err != nil {
		respondGatewayError(w, err)
		return
	}
}
