package trigger

import (
	"context"
	"time"

	"github.com/kr-equities/aegis-quant/internal/gateway"
	"github.com/kr-equities/aegis-quant/pkg/logger"
	"github.com/kr-equities/aegis-quant/pkg/store"
)

const (
	presurgeVolumeThreshold = 3.0
	presurgePriceThreshold  = 3.0
	presurgeLookbackDays    = 10
	presurgeAvgWindow       = 5
)

// AccumulationSignal is a realtime pre_surge add-on hit: volume running
// far above its 5-day average while price has barely moved — the
// "quiet accumulation" pattern PreSurgeDetector.detect_accumulation_signal
// flags as a precursor to a breakout.
type AccumulationSignal struct {
	Ticker        string
	Name          string
	VolumeRatio   float64
	ChangeRate    float64
	CurrentPrice  int64
	CurrentVolume int64
	TradingValue  int64
	Confidence    float64
	DetectedAt    time.Time
}

// detectAccumulation checks one ticker's current volume/price against its
// 5-day average volume. A non-positive average (no history yet) never
// fires.
func detectAccumulation(ticker, name string, currentVolume, avgVolume5d int64, changeRate float64, currentPrice, tradingValue int64, now time.Time) *AccumulationSignal {
	if avgVolume5d <= 0 {
		return nil
	}
	volumeRatio := float64(currentVolume) / float64(avgVolume5d)
	if volumeRatio >= presurgeVolumeThreshold && absFloat(changeRate) <= presurgePriceThreshold {
		confidence := volumeRatio / 5.0
		if confidence > 1.0 {
			confidence = 1.0
		}
		return &AccumulationSignal{
			Ticker:        ticker,
			Name:          name,
			VolumeRatio:   volumeRatio,
			ChangeRate:    changeRate,
			CurrentPrice:  currentPrice,
			CurrentVolume: currentVolume,
			TradingValue:  tradingValue,
			Confidence:    confidence,
			DetectedAt:    now,
		}
	}
	return nil
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// PreSurgeScanner runs the realtime accumulation scan over the filtered
// universe, pairing the Market Data Gateway's current-day rows with
// pkg/store's own price-bar history for the 5-day volume average — the
// Go store already retains that history, so there is no need to walk
// day-by-day snapshots the way the reference batch helper does.
type PreSurgeScanner struct {
	gateway *gateway.Gateway
	store   *store.Store
	log     *logger.Logger
}

// NewPreSurgeScanner wires a scanner over an existing Gateway and Store.
func NewPreSurgeScanner(gw *gateway.Gateway, st *store.Store, log *logger.Logger) *PreSurgeScanner {
	return &PreSurgeScanner{gateway: gw, store: st, log: log}
}

// Scan evaluates every ticker in the filtered universe's current-day
// cross-section against its 5-day average volume, returning every
// accumulation hit.
func (s *PreSurgeScanner) Scan(ctx context.Context, now time.Time) ([]AccumulationSignal, error) {
	rows, err := s.gateway.CurrentMarketData(ctx, now)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var signals []AccumulationSignal
	for ticker, r := range rows {
		avgVolume, err := s.avgVolume5d(ctx, ticker, now)
		if err != nil {
			s.log.WithField("ticker", ticker).WithError(err).Warn("presurge: avg volume lookup failed")
			continue
		}
		if signal := detectAccumulation(ticker, r.Name, r.Volume, avgVolume, r.ChangeRate, r.Close, r.TradingValue, now); signal != nil {
			signals = append(signals, *signal)
		}
	}
	return signals, nil
}

// ScanAndPersist runs Scan and upserts every hit as a pre_surge
// TriggerResult under session, without disturbing the other detectors'
// rows already persisted for that (date, session) — see
// Store.UpsertTriggerResults.
func (s *PreSurgeScanner) ScanAndPersist(ctx context.Context, now time.Time, session store.Session) ([]store.TriggerResult, error) {
	signals, err := s.Scan(ctx, now)
	if err != nil {
		return nil, err
	}
	if len(signals) == 0 {
		return nil, nil
	}

	results := make([]store.TriggerResult, len(signals))
	for i, sig := range signals {
		results[i] = store.TriggerResult{
			Date:           now,
			Session:        session,
			Ticker:         sig.Ticker,
			TriggerType:    store.TriggerPreSurge,
			Name:           sig.Name,
			Price:          sig.CurrentPrice,
			ChangeRate:     sig.ChangeRate,
			Volume:         sig.CurrentVolume,
			TradingValue:   sig.TradingValue,
			CompositeScore: sig.Confidence,
			DetectedAt:     sig.DetectedAt,
		}
	}

	if err := s.store.UpsertTriggerResults(ctx, now, session, results); err != nil {
		return nil, err
	}
	return results, nil
}

// avgVolume5d averages the most recent presurgeAvgWindow daily bars found
// within the last presurgeLookbackDays calendar days, tolerating weekend
// gaps in the bar history.
func (s *PreSurgeScanner) avgVolume5d(ctx context.Context, ticker string, now time.Time) (int64, error) {
	start := now.AddDate(0, 0, -presurgeLookbackDays)
	bars, err := s.store.GetPriceBars(ctx, ticker, start, now.AddDate(0, 0, -1))
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, nil
	}
	if len(bars) > presurgeAvgWindow {
		bars = bars[len(bars)-presurgeAvgWindow:]
	}
	var sum int64
	for _, b := range bars {
		sum += b.Volume
	}
	return sum / int64(len(bars)), nil
}
