// Package report implements the Report Engine (C9): the morning and
// afternoon market reports, grounded on
// original_source/backend/app/services/llm_report.py's
// ReportGenerationService. Both reports share one shape — a structured
// Korean-language prompt over machine-computed market/ranking data,
// answered by a grounded LLM call and persisted as a store.ReportResult —
// but differ in their upstream inputs (Top-N Ranker vs Trigger Engine)
// and response schema.
package report

import "time"

// EntryStrategy is one Top-10 stock's actionable trade plan, the nested
// object llm_report.py's morning prompt requests per top_stocks[i].
type EntryStrategy struct {
	Analysis        string  `json:"analysis"`
	EntryPrice      int64   `json:"entry_price"`
	EntryTiming     string  `json:"entry_timing"`
	TargetPrice1    int64   `json:"target_price_1"`
	TargetPrice2    int64   `json:"target_price_2"`
	StopLoss        int64   `json:"stop_loss"`
	RiskRewardRatio float64 `json:"risk_reward_ratio"`
	HoldingPeriod   string  `json:"holding_period"`
	TechnicalBasis  string  `json:"technical_basis"`
	VolumeStrategy  string  `json:"volume_strategy"`
	ExitCondition   string  `json:"exit_condition"`
	Confidence      string  `json:"confidence"`
}

// TopStockReport is one Top-10 stock as it appears in the morning
// report's response: the LLM's narrative fields plus the composite score
// reattached from the Ranker — the LLM never owns that score.
type TopStockReport struct {
	Rank          int           `json:"rank"`
	Ticker        string        `json:"ticker"`
	Name          string        `json:"name"`
	CurrentPrice  int64         `json:"current_price"`
	Score         float64       `json:"score"`
	Reason        string        `json:"reason"`
	EntryStrategy EntryStrategy `json:"entry_strategy"`
}

// KospiRange is the morning report's implied trading-range call.
type KospiRange struct {
	Low       float64 `json:"low"`
	High      float64 `json:"high"`
	Reasoning string  `json:"reasoning"`
}

// SectorPick is one bullish or bearish sector mention in either report.
type SectorPick struct {
	Sector string `json:"sector"`
	Reason string `json:"reason"`
	Change string `json:"change,omitempty"`
}

// SectorAnalysis groups the bullish/bearish sector lists the LLM returns.
type SectorAnalysis struct {
	Bullish []SectorPick `json:"bullish"`
	Bearish []SectorPick `json:"bearish"`
}

// MorningReport is the persisted payload for ReportResult{Type: morning}.
type MorningReport struct {
	Date              time.Time        `json:"date"`
	GeneratedAt       time.Time        `json:"generated_at"`
	MarketForecast    string           `json:"market_forecast"`
	KospiRange        KospiRange       `json:"kospi_range"`
	MarketRisks       []string         `json:"market_risks"`
	TopStocks         []TopStockReport `json:"top_stocks"`
	SectorAnalysis    SectorAnalysis   `json:"sector_analysis"`
	InvestmentStrategy string          `json:"investment_strategy"`
	DailySchedule     map[string]string `json:"daily_schedule"`
	Metadata          Metadata         `json:"metadata"`
	AlreadyGenerated  bool             `json:"already_generated,omitempty"`
}

// Theme is one of today's driving themes in the afternoon report.
type Theme struct {
	Theme         string   `json:"theme"`
	Drivers       string   `json:"drivers"`
	LeadingStocks []string `json:"leading_stocks"`
}

// SurgeAnalysis explains one surge-listed ticker's move.
type SurgeAnalysis struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Reason   string `json:"reason"`
	Outlook  string `json:"outlook"`
}

// MarketBreadth summarizes the advance/decline tape read.
type MarketBreadth struct {
	Sentiment      string `json:"sentiment"`
	Interpretation string `json:"interpretation"`
}

// AfternoonReport is the persisted payload for ReportResult{Type: afternoon}.
type AfternoonReport struct {
	Date                 time.Time       `json:"date"`
	GeneratedAt          time.Time       `json:"generated_at"`
	MarketSummaryText    string          `json:"market_summary_text"`
	MarketBreadth        MarketBreadth   `json:"market_breadth"`
	SectorAnalysis       SectorAnalysis  `json:"sector_analysis"`
	SupplyDemandAnalysis string          `json:"supply_demand_analysis"`
	TodayThemes          []Theme         `json:"today_themes"`
	SurgeAnalysis        []SurgeAnalysis `json:"surge_analysis"`
	TomorrowStrategy     string          `json:"tomorrow_strategy"`
	CheckPoints          []string        `json:"check_points"`
	MarketSummary        MarketSummary   `json:"market_summary"`
	Metadata             Metadata        `json:"metadata"`
	AlreadyGenerated     bool            `json:"already_generated,omitempty"`
}

// MarketSummary is the macro cross-section both prompts are built from,
// in 100M-KRW units wherever the original carries 억원.
type MarketSummary struct {
	KospiClose           float64 `json:"kospi_close"`
	KospiChange          float64 `json:"kospi_change"`
	KospiPointChange     float64 `json:"kospi_point_change"`
	KosdaqClose          float64 `json:"kosdaq_close"`
	KosdaqChange         float64 `json:"kosdaq_change"`
	KosdaqPointChange    float64 `json:"kosdaq_point_change"`
	TradingValue         int64   `json:"trading_value"`
	ForeignNetKospi      int64   `json:"foreign_net_kospi"`
	InstitutionNetKospi  int64   `json:"institution_net_kospi"`
	IndividualNetKospi   int64   `json:"individual_net_kospi"`
	ForeignNetKosdaq     int64   `json:"foreign_net_kosdaq"`
	InstitutionNetKosdaq int64   `json:"institution_net_kosdaq"`
	IndividualNetKosdaq  int64   `json:"individual_net_kosdaq"`
	AdvanceCount         int     `json:"advance_count"`
	DeclineCount         int     `json:"decline_count"`
	UnchangedCount       int     `json:"unchanged_count"`
}

// Metadata carries the audit trail attached to every generated report.
type Metadata struct {
	Tokens          int      `json:"tokens_used"`
	Model           string   `json:"model"`
	GroundingSources []string `json:"grounding_sources,omitempty"`
}
