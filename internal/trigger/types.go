// Package trigger implements the Trigger Engine (C6): six scheduled
// detectors (three morning, three afternoon) plus the pre_surge realtime
// add-on, each scanning the filtered universe's current-day cross-section
// for a distinct pattern and scoring candidates with a MinMax-then-
// weighted-sum composite score. Ported from the reference TriggerService
// and PreSurgeDetector (original_source/backend/app/services/trigger_service.py).
package trigger

import (
	"github.com/kr-equities/aegis-quant/internal/gateway"
	"github.com/kr-equities/aegis-quant/internal/indicator"
)

// row is one ticker's current/previous cross-section plus every derived
// metric a detector might score on — the Go equivalent of the reference's
// per-trigger pandas DataFrame column set, computed once per session scan.
type row struct {
	gateway.MarketRow

	PrevClose  int64
	PrevVolume int64

	VolumeChangeRate float64
	GapRatio         float64
	IntradayChange   float64
	ClosingStrength  float64
	FundInflowRatio  float64
}

func buildRows(current map[string]gateway.MarketRow, prev map[string]gateway.MarketRow) map[string]row {
	out := make(map[string]row, len(current))
	for ticker, c := range current {
		r := row{MarketRow: c}
		if p, ok := prev[ticker]; ok {
			r.PrevClose = p.Close
			r.PrevVolume = p.Volume
		}
		r.VolumeChangeRate = indicator.VolumeChangeRate(c.Volume, r.PrevVolume)
		r.GapRatio = indicator.Gap(c.Open, r.PrevClose)
		r.IntradayChange = indicator.IntradayChange(c.Open, c.Close)
		r.ClosingStrength = indicator.ClosingStrength(c.High, c.Low, c.Close)
		r.FundInflowRatio = indicator.FundInflowRatio(float64(c.TradingValue), c.MarketCap)
		out[ticker] = r
	}
	return out
}

func isUptrend(r row) bool {
	return r.Close > r.Open
}

const topN = 3

// candidateScore pairs a ticker's row with its final composite_score so
// the top-N selection doesn't need to re-walk the weighted-sum map.
type candidateScore struct {
	row   row
	score float64
}

func topCandidates(scored []candidateScore, n int) []candidateScore {
	sorted := append([]candidateScore(nil), scored...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].score > sorted[j-1].score; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
