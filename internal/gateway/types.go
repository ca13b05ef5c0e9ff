// Package gateway composes the vendor clients (kis, naver, krx, dart)
// behind one uniform market-data interface. kis, naver and krx calls
// retry through pkg/httputil's exponential backoff; dart and the News
// scrape use their own http.Client instances.
package gateway

import "time"

// OHLCV is one day's trading bar for one ticker.
type OHLCV struct {
	Ticker string
	Date   time.Time
	Open   int64
	High   int64
	Low    int64
	Close  int64
	Volume int64
}

// Snapshot is the per-ticker cross-section for one trading date.
type Snapshot struct {
	Date  time.Time
	Table map[string]OHLCV
}

// MarketIndex mirrors pkg/store.MarketIndex for the gateway's index() call.
type MarketIndex struct {
	Date                 time.Time
	KospiClose           float64
	KospiChange          float64
	KospiChangePts       float64
	KosdaqClose          float64
	KosdaqChange         float64
	KosdaqChangePts      float64
	KospiTradingValue    int64
	KosdaqTradingValue   int64
	KospiForeignNet      int64
	KospiInstitutionNet  int64
	KospiIndividualNet   int64
	KosdaqForeignNet     int64
	KosdaqInstitutionNet int64
	KosdaqIndividualNet  int64
	Advancers            int
	Decliners            int
	Unchanged            int
}

// Fundamentals is the static valuation snapshot read from the
// externally-produced filtered-stock table (read-only to this package).
type Fundamentals struct {
	Ticker           string
	Name             string
	Market           string
	BPS              float64
	PER              float64
	PBR              float64
	EPS              float64
	Div              float64
	DPS              float64
	ROE              float64
	DebtRatio        float64
	YoYRevenueGrowth float64
	MarketCap        float64
	TradingValue     float64
}

// NewsItem is one headline, from either the portal HTML table or the RSS
// feed — the two are concatenated with no dedup (C7/C8's job).
type NewsItem struct {
	Ticker    string
	Title     string
	URL       string
	Source    string
	Published time.Time
}

// MACDStatus is the sign-flip classification of the latest MACD histogram.
type MACDStatus string

const (
	MACDGoldenCross MACDStatus = "golden_cross"
	MACDDeadCross   MACDStatus = "dead_cross"
	MACDNeutral     MACDStatus = "neutral"
)

// MAPosition buckets price vs SMA-20 into a ±2% band.
type MAPosition string

const (
	MAPositionAbove   MAPosition = "상회"
	MAPositionBelow   MAPosition = "하회"
	MAPositionNeutral MAPosition = "중립"
)

// Technicals is the technicals(ticker, date) result.
type Technicals struct {
	Ticker     string
	Date       time.Time
	RSI14      float64
	MACDStatus MACDStatus
	SMA5       float64
	SMA20      float64
	SMA60      float64
	MAPosition MAPosition
}

// RealtimeQuote is the realtimeOne/realtimeBulk result shape.
type RealtimeQuote struct {
	Ticker       string
	Current      int64
	ChangeRate   float64
	ChangeAmount int64
	Volume       int64
	UpdatedAt    time.Time
	Source       string
}

// Disclosure is one DART filing, exposed as a supplemented read path for
// the Analysis Engine's "risks" section (see SPEC_FULL.md §12).
type Disclosure struct {
	Ticker     string
	Title      string
	ReportName string
	Category   string
	Filed      time.Time
	URL        string
}
