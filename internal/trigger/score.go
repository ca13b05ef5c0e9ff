package trigger

import (
	"github.com/kr-equities/aegis-quant/internal/normalize"
	"github.com/kr-equities/aegis-quant/pkg/store"
)

// metricColumn names a scored metric and the per-ticker value extractor,
// mirroring the reference's normalize_and_score(columns=[...], weights=[...]).
type metricColumn struct {
	name   string
	weight float64
	value  func(row) float64
}

// score normalizes each column independently over the candidate
// population with normalize.MinMax, then combines them with
// normalize.WeightedSum. The population is always the session's already
// filtered candidate set, never the full universe.
func score(tickers []string, rows map[string]row, columns []metricColumn) ([]candidateScore, error) {
	n := len(tickers)
	raw := make([][]float64, len(columns))
	for i, col := range columns {
		values := make([]float64, n)
		for j, t := range tickers {
			values[j] = col.value(rows[t])
		}
		raw[i] = normalize.MinMax(values, 0, 1)
	}

	out := make([]candidateScore, n)
	for j, t := range tickers {
		scores := make(map[string]float64, len(columns))
		weights := make(map[string]float64, len(columns))
		for i, col := range columns {
			scores[col.name] = raw[i][j]
			weights[col.name] = col.weight
		}
		composite, err := normalize.WeightedSum(scores, weights)
		if err != nil {
			return nil, err
		}
		out[j] = candidateScore{row: rows[t], score: composite}
	}
	return out, nil
}

// toTriggerResult converts a scored candidate into a persisted row. The
// caller supplies TriggerType; Date/Session/DetectedAt are filled by the
// session orchestrator.
func toTriggerResult(c candidateScore, triggerType store.TriggerType) store.TriggerResult {
	return store.TriggerResult{
		Ticker:         c.row.Ticker,
		TriggerType:    triggerType,
		Name:           c.row.Name,
		Price:          c.row.Close,
		ChangeRate:     c.row.ChangeRate,
		Volume:         c.row.Volume,
		TradingValue:   c.row.TradingValue,
		CompositeScore: c.score,
	}
}
