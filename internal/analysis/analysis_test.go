package analysis

import (
	"encoding/json"
	"testing"

	"github.com/kr-equities/aegis-quant/internal/gateway"
)

func TestPERMultiplier(t *testing.T) {
	cases := []struct {
		growth float64
		want   float64
	}{{25, 1.2}, {15, 1.1}, {5, 1.05}, {-5, 0.95}}
	for _, c := range cases {
		if got := perMultiplier(c.growth); got != c.want {
			t.Errorf("perMultiplier(%.0f) = %.2f, want %.2f", c.growth, got, c.want)
		}
	}
}

func TestPBRMultiplier(t *testing.T) {
	cases := []struct {
		roe  float64
		want float64
	}{{20, 1.2}, {12, 1.1}, {7, 1.0}, {1, 0.9}}
	for _, c := range cases {
		if got := pbrMultiplier(c.roe); got != c.want {
			t.Errorf("pbrMultiplier(%.0f) = %.2f, want %.2f", c.roe, got, c.want)
		}
	}
}

func TestCalculateBaseValuationAveragesPositiveTargets(t *testing.T) {
	f := gateway.Fundamentals{PER: 10, PBR: 1, ROE: 20, YoYRevenueGrowth: 25}
	base := calculateBaseValuation(f, 100000)
	if base.PERTarget <= 0 || base.PBRTarget <= 0 {
		t.Fatalf("expected both targets positive, got per=%d pbr=%d", base.PERTarget, base.PBRTarget)
	}
	want := (base.PERTarget + base.PBRTarget) / 2
	if base.BaseTarget != want {
		t.Errorf("expected base target %d, got %d", want, base.BaseTarget)
	}
}

func TestCalculateBaseValuationFallsBackToCurrentPrice(t *testing.T) {
	f := gateway.Fundamentals{}
	base := calculateBaseValuation(f, 50000)
	if base.BaseTarget != 50000 {
		t.Errorf("expected fallback to current price, got %d", base.BaseTarget)
	}
}

func TestCalculateTechnicalAdjustmentClamps(t *testing.T) {
	tech := calculateTechnicalAdjustment(gateway.Technicals{
		RSI14:      75,
		MACDStatus: gateway.MACDDeadCross,
		MAPosition: gateway.MAPositionBelow,
	})
	if tech.Adjustment != technicalAdjMin {
		t.Errorf("expected clamp to %.2f, got %.4f", technicalAdjMin, tech.Adjustment)
	}
}

func TestCalculateTechnicalAdjustmentNeutral(t *testing.T) {
	tech := calculateTechnicalAdjustment(gateway.Technicals{
		RSI14:      50,
		MACDStatus: gateway.MACDNeutral,
		MAPosition: gateway.MAPositionNeutral,
	})
	if tech.Adjustment != 0 {
		t.Errorf("expected zero adjustment, got %.4f", tech.Adjustment)
	}
}

func TestCheckAnalysisTrigger(t *testing.T) {
	if !CheckAnalysisTrigger(12.5) {
		t.Error("expected trigger at +12.5%")
	}
	if !CheckAnalysisTrigger(-10.0) {
		t.Error("expected trigger at -10.0% (boundary inclusive)")
	}
	if CheckAnalysisTrigger(5.0) {
		t.Error("did not expect trigger at +5.0%")
	}
}

func TestOpinionValid(t *testing.T) {
	if !OpinionBuy.valid() {
		t.Error("expected BUY to be a valid opinion")
	}
	if Opinion("MAYBE").valid() {
		t.Error("did not expect MAYBE to be a valid opinion")
	}
}

func TestStringOrUnmarshalsObject(t *testing.T) {
	var s StringOr[FinancialAnalysis]
	if err := json.Unmarshal([]byte(`{"profitability": "strong", "growth": "moderate"}`), &s); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if s.Value.Profitability != "strong" || s.Value.Growth != "moderate" {
		t.Errorf("unexpected value: %+v", s.Value)
	}
}

func TestStringOrUnmarshalsBareString(t *testing.T) {
	var s StringOr[FinancialAnalysis]
	if err := json.Unmarshal([]byte(`"fallback narrative"`), &s); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if s.Value.Profitability != "fallback narrative" {
		t.Errorf("expected narrative in first field, got %+v", s.Value)
	}
}

func TestBuildFinalizePromptIncludesTicker(t *testing.T) {
	company := companyInput{Ticker: "005930", Name: "삼성전자", CurrentPrice: 70000}
	base := baseValuation{BaseTarget: 80000}
	tech := technicalAdjustment{}
	sentiment := newsSentiment{}
	prompt := buildFinalizePrompt(company, nil, base, tech, sentiment, 80000)
	if !containsSub(prompt, "005930") || !containsSub(prompt, "삼성전자") {
		t.Errorf("expected prompt to reference ticker and name:\n%s", prompt)
	}
}

func containsSub(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
