package ranker

import (
	"context"
	"time"

	"github.com/kr-equities/aegis-quant/internal/gateway"
)

// technicalBatchSize matches Gateway.TechnicalsBatch's batching unit.
const technicalBatchSize = 50

// technicalScores rescales the [-13,+13] adjustment sum to [0,10] —
// _calculate_technical_scores's ((adjustment+13)/26)*10.
func technicalScores(ctx context.Context, gw *gateway.Gateway, tickers []string, date time.Time) (map[string]float64, error) {
	batch, err := gw.TechnicalsBatch(ctx, tickers, date, technicalBatchSize)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]float64, len(tickers))
	for _, ticker := range tickers {
		t, ok := batch[ticker]
		if !ok {
			scores[ticker] = neutralScore
			continue
		}

		adjustment := rsiAdjustment(t.RSI14) + macdAdjustment(t.MACDStatus) + maAdjustment(t.MAPosition)
		scores[ticker] = ((float64(adjustment) + 13) / 26) * 10.0
	}
	return scores, nil
}

func rsiAdjustment(rsi float64) int {
	switch {
	case rsi > 70:
		return -5
	case rsi < 30:
		return 5
	default:
		return 0
	}
}

func macdAdjustment(status gateway.MACDStatus) int {
	switch status {
	case gateway.MACDGoldenCross:
		return 5
	case gateway.MACDDeadCross:
		return -5
	default:
		return 0
	}
}

func maAdjustment(position gateway.MAPosition) int {
	switch position {
	case gateway.MAPositionAbove:
		return 3
	case gateway.MAPositionBelow:
		return -3
	default:
		return 0
	}
}
