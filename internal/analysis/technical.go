package analysis

import "github.com/kr-equities/aegis-quant/internal/gateway"

const (
	technicalAdjMin = -0.10
	technicalAdjMax = 0.10
)

// technicalAdjustment is Step 2: RSI/MACD/MA signals summed into a
// ±10% price-target nudge — analysis_service.py's
// _calculate_technical_adjustment.
type technicalAdjustment struct {
	Adjustment float64 `json:"adjustment"`
	RSIAdj     float64 `json:"rsi_adj"`
	MACDAdj    float64 `json:"macd_adj"`
	MAAdj      float64 `json:"ma_adj"`
}

func calculateTechnicalAdjustment(t gateway.Technicals) technicalAdjustment {
	var rsiAdj float64
	switch {
	case t.RSI14 > 70:
		rsiAdj = -0.05
	case t.RSI14 < 30:
		rsiAdj = 0.05
	}

	var macdAdj float64
	switch t.MACDStatus {
	case gateway.MACDGoldenCross:
		macdAdj = 0.05
	case gateway.MACDDeadCross:
		macdAdj = -0.05
	}

	var maAdj float64
	switch t.MAPosition {
	case gateway.MAPositionAbove:
		maAdj = 0.03
	case gateway.MAPositionBelow:
		maAdj = -0.03
	}

	total := clampFloat(rsiAdj+macdAdj+maAdj, technicalAdjMin, technicalAdjMax)
	return technicalAdjustment{Adjustment: total, RSIAdj: rsiAdj, MACDAdj: macdAdj, MAAdj: maAdj}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
