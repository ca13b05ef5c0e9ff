package ranker

import (
	"context"
	"math"
	"time"

	"github.com/kr-equities/aegis-quant/internal/normalize"
	"github.com/kr-equities/aegis-quant/pkg/store"
)

// volumeLookbackDays covers the 20-trading-day average volume window
// plus a weekend/holiday buffer.
const volumeLookbackDays = 45

// volumeAvgWindow is the number of trailing bars (excluding today)
// averaged for the 20-day baseline.
const volumeAvgWindow = 20

// volumeScores computes the weighted volume-increase/trading-value
// score (0-10) — _calculate_volume_scores's offset(+100)+ln, percentile-
// clip-normalize(5/95), 0.60/0.40 weighted sum, scaled ×10.
func volumeScores(ctx context.Context, st *store.Store, candidates []candidate, date time.Time) (map[string]float64, error) {
	scores := make(map[string]float64, len(candidates))
	start := date.AddDate(0, 0, -volumeLookbackDays)

	var tickers []string
	var volumeIncreaseLog, tradingValueLog []float64

	for _, c := range candidates {
		bars, err := st.GetPriceBars(ctx, c.Ticker, start, date)
		if err != nil {
			return nil, err
		}
		if len(bars) < volumeAvgWindow+1 {
			scores[c.Ticker] = neutralScore
			continue
		}

		priorBars := bars[len(bars)-1-volumeAvgWindow : len(bars)-1]
		var sumVolume int64
		for _, b := range priorBars {
			sumVolume += b.Volume
		}
		avgVolume := float64(sumVolume) / float64(volumeAvgWindow)

		var increasePct float64
		if avgVolume > 0 {
			increasePct = (float64(c.Volume)/avgVolume - 1) * 100
		}

		tickers = append(tickers, c.Ticker)
		volumeIncreaseLog = append(volumeIncreaseLog, math.Log(maxFloat(increasePct+100, 1)))
		tradingValueLog = append(tradingValueLog, math.Log(maxFloat(float64(c.TradingValue), 1)))
	}

	if len(tickers) == 0 {
		return scores, nil
	}

	volumeNorm := normalize.PercentileClip(volumeIncreaseLog, 5, 95)
	tradingValueNorm := normalize.PercentileClip(tradingValueLog, 5, 95)

	for i, ticker := range tickers {
		scores[ticker] = (volumeNorm[i]*0.60 + tradingValueNorm[i]*0.40) * 10.0
	}
	return scores, nil
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
