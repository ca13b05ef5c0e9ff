package ranker

import (
	"context"
	"time"

	"github.com/kr-equities/aegis-quant/internal/normalize"
	"github.com/kr-equities/aegis-quant/pkg/store"
)

// momentumLookbackDays pads well past 20 trading days to absorb
// weekends/holidays — llm_report.py fetches 50 calendar days for the
// same D-20 window.
const momentumLookbackDays = 50

// momentumBars is the minimum bar count (today + 20 priors) needed to
// compute all three return windows.
const momentumBars = 21

// momentumScores computes the weighted D-1/D-5/D-20 return score (0-10)
// for each candidate — _calculate_momentum_scores's robust-normalize,
// then min-max, then 0.40/0.35/0.25 weighted sum, scaled ×10. Tickers
// with fewer than momentumBars of history get the flat neutral score
// directly rather than participating in the batch normalization,
// mirroring the reference's whole-series neutral fallback applied at
// per-ticker granularity (the Go store keeps per-ticker history rather
// than a shared KOSPI trading-day index, so a single ticker's gap
// cannot take down the whole batch).
func momentumScores(ctx context.Context, st *store.Store, candidates []candidate, date time.Time) (map[string]float64, error) {
	scores := make(map[string]float64, len(candidates))
	start := date.AddDate(0, 0, -momentumLookbackDays)

	var tickers []string
	var d1, d5, d20 []float64

	for _, c := range candidates {
		bars, err := st.GetPriceBars(ctx, c.Ticker, start, date)
		if err != nil {
			return nil, err
		}
		if len(bars) < momentumBars {
			scores[c.Ticker] = neutralScore
			continue
		}

		last := bars[len(bars)-1].Close
		closeD1 := bars[len(bars)-2].Close
		closeD5 := bars[len(bars)-6].Close
		closeD20 := bars[len(bars)-21].Close

		tickers = append(tickers, c.Ticker)
		d1 = append(d1, returnPct(last, closeD1))
		d5 = append(d5, returnPct(last, closeD5))
		d20 = append(d20, returnPct(last, closeD20))
	}

	if len(tickers) == 0 {
		return scores, nil
	}

	d1Norm := normalize.MinMax(normalize.Robust(d1), 0, 1)
	d5Norm := normalize.MinMax(normalize.Robust(d5), 0, 1)
	d20Norm := normalize.MinMax(normalize.Robust(d20), 0, 1)

	for i, ticker := range tickers {
		scores[ticker] = (d1Norm[i]*0.40 + d5Norm[i]*0.35 + d20Norm[i]*0.25) * 10.0
	}
	return scores, nil
}

func returnPct(current, prior int64) float64 {
	if prior == 0 {
		return 0
	}
	return (float64(current)/float64(prior) - 1) * 100
}
