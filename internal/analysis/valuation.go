package analysis

import "github.com/kr-equities/aegis-quant/internal/gateway"

// baseValuation is Step 1: PER/PBR-implied targets averaged together,
// falling back to the current price when neither multiple is usable —
// analysis_service.py's _calculate_base_valuation.
type baseValuation struct {
	PERTarget     int64   `json:"per_target"`
	PBRTarget     int64   `json:"pbr_target"`
	BaseTarget    int64   `json:"base_target"`
	PERMultiplier float64 `json:"per_multiplier"`
	PBRMultiplier float64 `json:"pbr_multiplier"`
}

func calculateBaseValuation(f gateway.Fundamentals, currentPrice int64) baseValuation {
	perMult := perMultiplier(f.YoYRevenueGrowth)
	pbrMult := pbrMultiplier(f.ROE)

	var perTarget, pbrTarget int64
	if f.PER > 0 {
		eps := float64(currentPrice) / f.PER
		perTarget = int64(eps * f.PER * perMult)
	}
	if f.PBR > 0 {
		bps := float64(currentPrice) / f.PBR
		pbrTarget = int64(bps * f.PBR * pbrMult)
	}

	var sum int64
	var count int64
	if perTarget > 0 {
		sum += perTarget
		count++
	}
	if pbrTarget > 0 {
		sum += pbrTarget
		count++
	}

	baseTarget := currentPrice
	if count > 0 {
		baseTarget = sum / count
	}

	return baseValuation{
		PERTarget:     perTarget,
		PBRTarget:     pbrTarget,
		BaseTarget:    baseTarget,
		PERMultiplier: perMult,
		PBRMultiplier: pbrMult,
	}
}

// perMultiplier buckets YoY revenue growth into the PER adjustment
// multiplier — {≥20, ≥10, ≥0, <0} → {1.2, 1.1, 1.05, 0.95}.
func perMultiplier(yoyRevenueGrowth float64) float64 {
	switch {
	case yoyRevenueGrowth >= 20:
		return 1.2
	case yoyRevenueGrowth >= 10:
		return 1.1
	case yoyRevenueGrowth >= 0:
		return 1.05
	default:
		return 0.95
	}
}

// pbrMultiplier buckets ROE into the PBR adjustment multiplier —
// {≥15, ≥10, ≥5, else} → {1.2, 1.1, 1.0, 0.9}.
func pbrMultiplier(roe float64) float64 {
	switch {
	case roe >= 15:
		return 1.2
	case roe >= 10:
		return 1.1
	case roe >= 5:
		return 1.0
	default:
		return 0.9
	}
}
