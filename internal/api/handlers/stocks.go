package handlers

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/kr-equities/aegis-quant/internal/gateway"
	"github.com/kr-equities/aegis-quant/pkg/logger"
	"github.com/kr-equities/aegis-quant/pkg/store"
)

// StocksHandler serves the read-only stock surface: static fundamentals
// from the FilteredStock batch, price history and technicals from the
// Store, and the current cross-section from the Gateway's
// realtime-then-vendor-snapshot fallback.
type StocksHandler struct {
	store   *store.Store
	gateway *gateway.Gateway
	log     *logger.Logger
}

// NewStocksHandler wires a StocksHandler over the Store and Gateway.
func NewStocksHandler(st *store.Store, gw *gateway.Gateway, log *logger.Logger) *StocksHandler {
	return &StocksHandler{store: st, gateway: gw, log: log}
}

// stockResponse is FilteredStock reshaped for the wire — the internal
// FilterStatus/LastFilterCheck bookkeeping fields stay server-side.
type stockResponse struct {
	Ticker           string  `json:"ticker"`
	Name             string  `json:"name"`
	Market           string  `json:"market"`
	PER              float64 `json:"per"`
	PBR              float64 `json:"pbr"`
	EPS              float64 `json:"eps"`
	BPS              float64 `json:"bps"`
	DividendYield    float64 `json:"dividend_yield"`
	ROE              float64 `json:"roe"`
	DebtRatio        float64 `json:"debt_ratio"`
	YoYRevenueGrowth float64 `json:"yoy_revenue_growth"`
	MarketCap        float64 `json:"market_cap"`
}

func toStockResponse(s store.FilteredStock) stockResponse {
	return stockResponse{
		Ticker:           s.Ticker,
		Name:             s.Name,
		Market:           string(s.Market),
		PER:              s.PER,
		PBR:              s.PBR,
		EPS:              s.EPS,
		BPS:              s.BPS,
		DividendYield:    s.Div,
		ROE:              s.ROE,
		DebtRatio:        s.DebtRatio,
		YoYRevenueGrowth: s.YoYRevenueGrowth,
		MarketCap:        s.MarketCap,
	}
}

// Get returns static fundamentals for one ticker.
// GET /stocks/{ticker}
func (h *StocksHandler) Get(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	s, err := h.store.GetFilteredStock(r.Context(), ticker)
	if err != nil {
		h.log.WithError(err).WithField("ticker", ticker).Error("stocks: lookup failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if s == nil {
		respondError(w, http.StatusNotFound, "ticker not found")
		return
	}
	respondData(w, http.StatusOK, toStockResponse(*s))
}

// List filters the passing universe by keyword (ticker or comma list of
// tickers), market, a minimum PER, and sorts the result.
// GET /stocks?keyword=&market=&min_per=&sort_by=&limit=
func (h *StocksHandler) List(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.store.ListPassingStocks(r.Context())
	if err != nil {
		h.log.WithError(err).Error("stocks: list failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	q := r.URL.Query()
	if keyword := strings.TrimSpace(q.Get("keyword")); keyword != "" {
		wanted := make(map[string]bool)
		for _, t := range strings.Split(keyword, ",") {
			wanted[strings.TrimSpace(t)] = true
		}
		filtered := stocks[:0]
		for _, s := range stocks {
			if wanted[s.Ticker] {
				filtered = append(filtered, s)
			}
		}
		stocks = filtered
	}

	if market := strings.TrimSpace(q.Get("market")); market != "" {
		filtered := stocks[:0]
		for _, s := range stocks {
			if strings.EqualFold(string(s.Market), market) {
				filtered = append(filtered, s)
			}
		}
		stocks = filtered
	}

	if minPERStr := q.Get("min_per"); minPERStr != "" {
		minPER, err := strconv.ParseFloat(minPERStr, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid min_per")
			return
		}
		filtered := stocks[:0]
		for _, s := range stocks {
			if s.PER >= minPER {
				filtered = append(filtered, s)
			}
		}
		stocks = filtered
	}

	switch q.Get("sort_by") {
	case "market_cap":
		sort.Slice(stocks, func(i, j int) bool { return stocks[i].MarketCap > stocks[j].MarketCap })
	case "per":
		sort.Slice(stocks, func(i, j int) bool { return stocks[i].PER < stocks[j].PER })
	case "roe":
		sort.Slice(stocks, func(i, j int) bool { return stocks[i].ROE > stocks[j].ROE })
	}

	limit := 50
	if limitStr := q.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if limit < len(stocks) {
		stocks = stocks[:limit]
	}

	result := make([]stockResponse, len(stocks))
	for i, s := range stocks {
		result[i] = toStockResponse(s)
	}
	respondData(w, http.StatusOK, result)
}

type priceBarResponse struct {
	Date   string `json:"date"`
	Open   int64  `json:"open"`
	High   int64  `json:"high"`
	Low    int64  `json:"low"`
	Close  int64  `json:"close"`
	Volume int64  `json:"volume"`
}

// Price returns the OHLCV history for [start_date, end_date]; period is
// accepted but unused beyond the explicit range — the Store has no
// resampling, only the daily bar it was given.
// GET /stocks/{ticker}/price?start_date=&end_date=&period=
func (h *StocksHandler) Price(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	now := time.Now()

	start, err := parseDateParam(r, "start_date", now.AddDate(0, -6, 0))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid start_date")
		return
	}
	end, err := parseDateParam(r, "end_date", now)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid end_date")
		return
	}

	bars, err := h.store.GetPriceBars(r.Context(), ticker, start, end)
	if err != nil {
		h.log.WithError(err).WithField("ticker", ticker).Error("stocks: price history failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result := make([]priceBarResponse, len(bars))
	for i, b := range bars {
		result[i] = priceBarResponse{
			Date:   b.Date.Format("2006-01-02"),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	respondData(w, http.StatusOK, result)
}

type currentPriceResponse struct {
	Ticker     string  `json:"ticker"`
	Name       string  `json:"name"`
	Current    int64   `json:"current"`
	ChangeRate float64 `json:"change_rate"`
	Volume     int64   `json:"volume"`
	Source     string  `json:"source"`
}

// Current returns today's price, preferring the realtime hot cache and
// falling back to the vendor day snapshot (gateway.CurrentMarketData).
// GET /stocks/{ticker}/current
func (h *StocksHandler) Current(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	rows, err := h.gateway.CurrentMarketData(r.Context(), time.Now())
	if err != nil {
		respondGatewayError(w, err)
		return
	}
	row, ok := rows[ticker]
	if !ok {
		respondError(w, http.StatusNotFound, "no current price for ticker")
		return
	}
	respondData(w, http.StatusOK, currentPriceResponse{
		Ticker:     ticker,
		Name:       row.Name,
		Current:    row.Close,
		ChangeRate: row.ChangeRate,
		Volume:     row.Volume,
		Source:     "market_data",
	})
}

type technicalResponse struct {
	Ticker     string  `json:"ticker"`
	Date       string  `json:"date"`
	RSI14      float64 `json:"rsi_14"`
	MACDStatus string  `json:"macd_status"`
	SMA5       float64 `json:"sma_5"`
	SMA20      float64 `json:"sma_20"`
	SMA60      float64 `json:"sma_60"`
	MAPosition string  `json:"ma_position"`
}

// Technical returns RSI/MACD/SMA for ticker on date (default: today).
// GET /stocks/{ticker}/technical?date=
func (h *StocksHandler) Technical(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	date, err := parseDateParam(r, "date", time.Now())
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid date")
		return
	}

	t, err := h.gateway.Technicals(r.Context(), ticker, date)
	if err != nil {
		respondGatewayError(w, err)
		return
	}
	respondData(w, http.StatusOK, technicalResponse{
		Ticker:     t.Ticker,
		Date:       t.Date.Format("2006-01-02"),
		RSI14:      t.RSI14,
		MACDStatus: string(t.MACDStatus),
		SMA5:       t.SMA5,
		SMA20:      t.SMA20,
		SMA60:      t.SMA60,
		MAPosition: string(t.MAPosition),
	})
}
