package trigger

import (
	"github.com/kr-equities/aegis-quant/pkg/store"
)

// afternoonIntradayRise fires when the session is up >=3% from its open.
// No uptrend gate beyond the threshold itself — trigger_service.py's
// afternoon_intraday_rise runs after the prior-day snapshot isn't needed.
// Scored 60% intraday move / 40% trading value.
func afternoonIntradayRise(rows map[string]row) ([]store.TriggerResult, error) {
	var candidates []string
	for t, r := range rows {
		if r.IntradayChange >= 3.0 {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	scored, err := score(candidates, rows, []metricColumn{
		{name: "intraday", weight: 0.6, value: func(r row) float64 { return r.IntradayChange }},
		{name: "trading_value", weight: 0.4, value: func(r row) float64 { return float64(r.TradingValue) }},
	})
	if err != nil {
		return nil, err
	}
	return toResults(topCandidates(scored, topN), store.TriggerIntradayRise), nil
}

// afternoonClosingStrength fires on tickers whose volume grew over the
// prior session and which closed above their open, ranked by how close
// the close sits to the session high. Scored 50% closing strength / 30%
// volume growth / 20% trading value — afternoon_closing_strength.
func afternoonClosingStrength(rows map[string]row) ([]store.TriggerResult, error) {
	var candidates []string
	for t, r := range rows {
		if r.VolumeChangeRate > 0 && isUptrend(r) {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	scored, err := score(candidates, rows, []metricColumn{
		{name: "closing_strength", weight: 0.5, value: func(r row) float64 { return r.ClosingStrength }},
		{name: "volume_change", weight: 0.3, value: func(r row) float64 { return r.VolumeChangeRate }},
		{name: "trading_value", weight: 0.2, value: func(r row) float64 { return float64(r.TradingValue) }},
	})
	if err != nil {
		return nil, err
	}
	return toResults(topCandidates(scored, topN), store.TriggerClosingStrength), nil
}

// afternoonSidewaysVolume fires on tickers trading within +/-5% of flat
// that nonetheless saw volume grow >=50% over the prior session — volume
// accumulating under a quiet tape. Scored 60% volume growth / 40% trading
// value — afternoon_sideways_volume.
func afternoonSidewaysVolume(rows map[string]row) ([]store.TriggerResult, error) {
	var candidates []string
	for t, r := range rows {
		if r.IntradayChange >= -5 && r.IntradayChange <= 5 && r.VolumeChangeRate >= 50 {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	scored, err := score(candidates, rows, []metricColumn{
		{name: "volume_change", weight: 0.6, value: func(r row) float64 { return r.VolumeChangeRate }},
		{name: "trading_value", weight: 0.4, value: func(r row) float64 { return float64(r.TradingValue) }},
	})
	if err != nil {
		return nil, err
	}
	return toResults(topCandidates(scored, topN), store.TriggerSidewaysVolume), nil
}
