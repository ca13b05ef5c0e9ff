package trigger

import (
	"github.com/kr-equities/aegis-quant/pkg/store"
)

// morningVolumeSurge fires when volume grew >=30% over the prior session
// and the ticker is in an uptrend. Scored 60% volume growth / 40% raw
// volume — trigger_service.py's morning_volume_surge.
func morningVolumeSurge(rows map[string]row) ([]store.TriggerResult, error) {
	var candidates []string
	for t, r := range rows {
		if isUptrend(r) && r.VolumeChangeRate >= 30 {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	scored, err := score(candidates, rows, []metricColumn{
		{name: "volume_change", weight: 0.6, value: func(r row) float64 { return r.VolumeChangeRate }},
		{name: "volume", weight: 0.4, value: func(r row) float64 { return float64(r.Volume) }},
	})
	if err != nil {
		return nil, err
	}
	return toResults(topCandidates(scored, topN), store.TriggerVolumeSurge), nil
}

// morningGapUp fires when the session opened >=1% above the prior close
// and the ticker is in an uptrend. Scored 50% gap / 30% intraday move /
// 20% trading value — trigger_service.py's morning_gap_up.
func morningGapUp(rows map[string]row) ([]store.TriggerResult, error) {
	var candidates []string
	for t, r := range rows {
		if isUptrend(r) && r.GapRatio >= 1.0 {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	scored, err := score(candidates, rows, []metricColumn{
		{name: "gap", weight: 0.5, value: func(r row) float64 { return r.GapRatio }},
		{name: "intraday", weight: 0.3, value: func(r row) float64 { return r.IntradayChange }},
		{name: "trading_value", weight: 0.2, value: func(r row) float64 { return float64(r.TradingValue) }},
	})
	if err != nil {
		return nil, err
	}
	return toResults(topCandidates(scored, topN), store.TriggerGapUp), nil
}

// morningFundInflow fires on uptrend tickers, ranked by trading value as
// a fraction of market cap. Scored 50% inflow ratio / 30% trading value /
// 20% intraday move — trigger_service.py's morning_fund_inflow.
func morningFundInflow(rows map[string]row) ([]store.TriggerResult, error) {
	var candidates []string
	for t, r := range rows {
		if isUptrend(r) {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	scored, err := score(candidates, rows, []metricColumn{
		{name: "fund_inflow", weight: 0.5, value: func(r row) float64 { return r.FundInflowRatio }},
		{name: "trading_value", weight: 0.3, value: func(r row) float64 { return float64(r.TradingValue) }},
		{name: "intraday", weight: 0.2, value: func(r row) float64 { return r.IntradayChange }},
	})
	if err != nil {
		return nil, err
	}
	return toResults(topCandidates(scored, topN), store.TriggerFundInflow), nil
}

func toResults(scored []candidateScore, triggerType store.TriggerType) []store.TriggerResult {
	out := make([]store.TriggerResult, len(scored))
	for i, c := range scored {
		out[i] = toTriggerResult(c, triggerType)
	}
	return out
}
