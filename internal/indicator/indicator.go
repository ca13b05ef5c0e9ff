// Package indicator computes technical and trigger metrics over a
// ticker's price history. Every function is pure and takes bars ordered
// ascending by date (oldest first) — the same order pkg/store.GetPriceBars
// returns. Formulas are ported from the reference MetricsCalculator
// (RSI/EMA/MACD via rolling/ewm means) and the teacher's
// internal/s2_signals/technical.go RSI/EMA loop shape.
package indicator

import "time"

// Bar is the minimal OHLCV shape the indicator functions need, decoupled
// from pkg/store so this package has no storage dependency.
type Bar struct {
	Date   time.Time
	Open   int64
	High   int64
	Low    int64
	Close  int64
	Volume int64
}

// MACDStatus is the sign-flip classification of the latest histogram bar
// against the one before it.
type MACDStatus string

const (
	MACDGoldenCross MACDStatus = "golden_cross"
	MACDDeadCross   MACDStatus = "dead_cross"
	MACDNeutral     MACDStatus = "neutral"
)

// RSI returns the 0-100 Relative Strength Index over the last period
// closes. Fewer than period+1 bars returns the neutral default of 50.
func RSI(bars []Bar, period int) float64 {
	if len(bars) < period+1 {
		return 50.0
	}

	closes := closesOf(bars)
	n := len(closes)
	var gains, losses float64
	for i := n - period; i < n; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses += -delta
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100.0
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// EMA computes the exponential moving average series (adjust=false /
// ewm-style recurrence), seeded by the first value.
func EMA(values []float64, period int) []float64 {
	if len(values) == 0 {
		return nil
	}
	out := make([]float64, len(values))
	multiplier := 2.0 / (float64(period) + 1.0)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*multiplier + out[i-1]*(1-multiplier)
	}
	return out
}

// SMA returns the simple moving average of the last period closes, or 0 if
// there isn't enough history.
func SMA(bars []Bar, period int) float64 {
	if len(bars) < period {
		return 0
	}
	closes := closesOf(bars)
	n := len(closes)
	var sum float64
	for i := n - period; i < n; i++ {
		sum += closes[i]
	}
	return sum / float64(period)
}

// MACDResult is the macd/signal/histogram/status tuple.
type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
	Status    MACDStatus
}

// MACD computes the 12/26/9 MACD and classifies the latest histogram bar
// against the prior one: a sign flip from negative to positive is a golden
// cross, positive to negative a dead cross, otherwise neutral.
func MACD(bars []Bar) MACDResult {
	const fast, slow, signalPeriod = 12, 26, 9
	if len(bars) < slow+signalPeriod {
		return MACDResult{Status: MACDNeutral}
	}

	closes := closesOf(bars)
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)

	macdLine := make([]float64, len(closes))
	for i := range closes {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine := EMA(macdLine, signalPeriod)

	n := len(macdLine)
	histogram := macdLine[n-1] - signalLine[n-1]
	prevHistogram := macdLine[n-2] - signalLine[n-2]

	status := MACDNeutral
	if prevHistogram < 0 && histogram > 0 {
		status = MACDGoldenCross
	} else if prevHistogram > 0 && histogram < 0 {
		status = MACDDeadCross
	}

	return MACDResult{
		MACD:      macdLine[n-1],
		Signal:    signalLine[n-1],
		Histogram: histogram,
		Status:    status,
	}
}

// ATR is the mean of the last period True Ranges over the most recent
// period+1 bars. Fewer bars returns nil.
func ATR(bars []Bar, period int) *float64 {
	if len(bars) < period+1 {
		return nil
	}
	n := len(bars)
	var sum float64
	for i := n - period; i < n; i++ {
		tr := trueRange(bars[i], bars[i-1])
		sum += tr
	}
	atr := sum / float64(period)
	return &atr
}

func trueRange(cur, prev Bar) float64 {
	highLow := float64(cur.High - cur.Low)
	highPrevClose := absFloat64(float64(cur.High - prev.Close))
	lowPrevClose := absFloat64(float64(cur.Low - prev.Close))
	return maxFloat64(highLow, highPrevClose, lowPrevClose)
}

// Gap is the gap-up percentage of today's open vs yesterday's close.
func Gap(todayOpen, prevClose int64) float64 {
	if prevClose == 0 {
		return 0
	}
	return float64(todayOpen-prevClose) * 100 / float64(prevClose)
}

// IntradayChange is the percentage move from the session open to close.
func IntradayChange(open, close int64) float64 {
	if open == 0 {
		return 0
	}
	return (float64(close)/float64(open) - 1) * 100
}

// ClosingStrength is (close-low)/(high-low) clamped to [0,1]; closer to 1
// means the session closed near its high (strong buying pressure). A
// zero-width range (limit-up/down days) is guarded to 0.01.
func ClosingStrength(high, low, close int64) float64 {
	denominator := float64(high - low)
	if denominator == 0 {
		denominator = 0.01
	}
	strength := float64(close-low) / denominator
	if strength < 0 {
		return 0
	}
	if strength > 1 {
		return 1
	}
	return strength
}

// VolumeChangeRate is the percentage change of current volume over the
// previous trading day's volume.
func VolumeChangeRate(current, prev int64) float64 {
	if prev == 0 {
		return 0
	}
	return float64(current-prev) * 100 / float64(prev)
}

// FundInflowRatio is trading value as a percentage of market cap.
func FundInflowRatio(tradingValue, marketCap float64) float64 {
	if marketCap == 0 {
		return 0
	}
	return (tradingValue / marketCap) * 100
}

func closesOf(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = float64(b.Close)
	}
	return out
}

func absFloat64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func maxFloat64(values ...float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
