// Package analysis implements the cache-first per-ticker valuation and
// LLM write-up engine (morning/afternoon reports draw from its Ranker
// sibling in internal/ranker; this package answers GetAnalysis one
// ticker at a time).
package analysis

import (
	"encoding/json"
	"reflect"
	"time"
)

// Opinion is the LLM's final investment call.
type Opinion string

const (
	OpinionStrongBuy  Opinion = "STRONG_BUY"
	OpinionBuy        Opinion = "BUY"
	OpinionHold       Opinion = "HOLD"
	OpinionSell       Opinion = "SELL"
	OpinionStrongSell Opinion = "STRONG_SELL"
)

func (o Opinion) valid() bool {
	switch o {
	case OpinionStrongBuy, OpinionBuy, OpinionHold, OpinionSell, OpinionStrongSell:
		return true
	}
	return false
}

// FinancialAnalysis is the LLM's read of profitability/growth/stability/valuation.
type FinancialAnalysis struct {
	Profitability string `json:"profitability"`
	Growth        string `json:"growth"`
	Stability     string `json:"stability"`
	Valuation     string `json:"valuation"`
}

// IndustryAnalysis is the LLM's read of sector trend and competitive position.
type IndustryAnalysis struct {
	IndustryTrend        string `json:"industry_trend"`
	CompetitiveAdvantage string `json:"competitive_advantage"`
	MarketPosition       string `json:"market_position"`
}

// NewsAnalysis is the LLM's narrative summary of the dedup'd news sample.
type NewsAnalysis struct {
	Sentiment string   `json:"sentiment"`
	KeyNews   []string `json:"key_news"`
	Impact    string   `json:"impact"`
}

// TechnicalAnalysis is the LLM's narrative read of the chart.
type TechnicalAnalysis struct {
	Trend             string `json:"trend"`
	SupportResistance string `json:"support_resistance"`
	Indicators        string `json:"indicators"`
}

// InvestmentStrategy is the LLM's time-horizon-bucketed recommendation.
type InvestmentStrategy struct {
	ShortTerm string `json:"short_term"`
	MidTerm   string `json:"mid_term"`
	LongTerm  string `json:"long_term"`
}

// Summary is the top-line investment call, shaped the way the frontend
// consumes it rather than the raw LLM response.
type Summary struct {
	Opinion      Opinion  `json:"opinion"`
	TargetPrice  int64    `json:"target_price"`
	CurrentPrice int64    `json:"current_price"`
	Upside       float64  `json:"upside"`
	KeyPoints    []string `json:"key_points"`
}

// Result is the full per-ticker analysis, JSON-encoded into
// store.AnalysisResult.Payload.
type Result struct {
	Ticker             string              `json:"ticker"`
	Date               time.Time           `json:"date"`
	Summary            Summary             `json:"summary"`
	FinancialAnalysis  FinancialAnalysis   `json:"financial_analysis"`
	IndustryAnalysis   IndustryAnalysis    `json:"industry_analysis"`
	TechnicalAnalysis  TechnicalAnalysis   `json:"technical_analysis"`
	NewsAnalysis       NewsAnalysis        `json:"news_analysis"`
	RiskFactors        []string            `json:"risk_factors"`
	InvestmentStrategy InvestmentStrategy  `json:"investment_strategy"`
	StopLossPrice      *int64              `json:"stop_loss_price,omitempty"`
	GeneratedAt        time.Time           `json:"generated_at"`
	Model              string              `json:"model_name"`
	TokensUsed         int                 `json:"tokens_used"`
	Calculation        targetPriceBreakdown `json:"target_price_calculation"`
}

// StringOr decodes either a JSON object into T, or a bare JSON string —
// the latter re-wrapped with the string placed in T's first field. Some
// Gemini responses return a narrative string instead of the requested
// sub-object shape for financial_analysis/industry_analysis/
// technical_analysis/investment_strategy; analysis_service.py's
// ensure_dict() does the same re-wrap rather than rejecting the response.
type StringOr[T any] struct {
	Value T
}

func (s *StringOr[T]) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		var v T
		if asString != "" {
			setFirstField(&v, asString)
		}
		s.Value = v
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	s.Value = v
	return nil
}

func (s StringOr[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Value)
}

// setFirstField writes text into v's first struct field, which by
// convention on every sub-object above is the lead narrative field.
func setFirstField(v interface{}, text string) {
	rv := reflect.ValueOf(v).Elem()
	if rv.Kind() != reflect.Struct || rv.NumField() == 0 {
		return
	}
	field := rv.Field(0)
	if field.Kind() == reflect.String && field.CanSet() {
		field.SetString(text)
	}
}
