package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kr-equities/aegis-quant/internal/gateway"
	"github.com/kr-equities/aegis-quant/internal/llm"
)

const (
	totalAdjMin  = -0.25
	totalAdjMax  = 0.25
	minRiskCount = 3
)

// targetPriceBreakdown is the full Step 1→3 audit trail, carried into
// the persisted Result so the frontend can show its working.
type targetPriceBreakdown struct {
	Step1BaseValuation       baseValuation        `json:"step1_base_valuation"`
	Step2TechnicalAdjustment technicalAdjustment  `json:"step2_technical_adjustment"`
	Step3NewsSentiment       newsSentiment        `json:"step3_news_sentiment"`
	PreliminaryTarget        int64                `json:"preliminary_target"`
	TotalAdjustment          float64              `json:"total_adjustment"`
}

type companyInput struct {
	Ticker       string
	Name         string
	CurrentPrice int64
	MarketCap    float64
	Financial    gateway.Fundamentals
	Technical    gateway.Technicals
	News         []gateway.NewsItem
}

// finalizeResponse is the raw shape the LLM returns; fields typed as
// StringOr tolerate a bare narrative string in place of the requested
// sub-object (see types.go's StringOr doc).
type finalizeResponse struct {
	Summary            string                               `json:"summary"`
	Opinion             Opinion                              `json:"opinion"`
	TargetPrice        int64                                `json:"target_price"`
	StopLossPrice      *int64                               `json:"stop_loss_price"`
	KeyPoints          []string                             `json:"key_points"`
	FinancialAnalysis  StringOr[FinancialAnalysis]          `json:"financial_analysis"`
	IndustryAnalysis   StringOr[IndustryAnalysis]           `json:"industry_analysis"`
	NewsAnalysis       StringOr[NewsAnalysis]                `json:"news_analysis"`
	TechnicalAnalysis  StringOr[TechnicalAnalysis]          `json:"technical_analysis"`
	Risks              []string                             `json:"risks"`
	InvestmentStrategy StringOr[InvestmentStrategy]         `json:"investment_strategy"`
}

// buildResult runs the three deterministic steps, calls the LLM once to
// finalize, and validates/coerces the response into a Result —
// analyze_company's orchestration in llm_company_analysis.py.
func buildResult(ctx context.Context, client *llm.Client, company companyInput, dedupedNews []gateway.NewsItem, base baseValuation, tech technicalAdjustment, sentiment newsSentiment) (Result, error) {
	totalAdjustment := clampFloat(tech.Adjustment+sentiment.Adjustment, totalAdjMin, totalAdjMax)
	preliminaryTarget := int64(float64(base.BaseTarget) * (1 + totalAdjustment))

	prompt := buildFinalizePrompt(company, dedupedNews, base, tech, sentiment, preliminaryTarget)
	response, tokens, err := client.GenerateWithUsage(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("analysis: finalize call: %w", err)
	}

	var parsed finalizeResponse
	if err := json.Unmarshal([]byte(llm.ExtractJSON(response)), &parsed); err != nil {
		return Result{}, fmt.Errorf("analysis: finalize parse: %w", err)
	}

	if !parsed.Opinion.valid() {
		parsed.Opinion = OpinionHold
	}
	for len(parsed.Risks) < minRiskCount {
		parsed.Risks = append(parsed.Risks, "추가 리스크 분석 필요")
	}
	if len(parsed.KeyPoints) == 0 && parsed.Summary != "" {
		parsed.KeyPoints = []string{parsed.Summary}
	}

	targetPrice := parsed.TargetPrice
	if targetPrice == 0 {
		targetPrice = company.CurrentPrice
	}
	var upside float64
	if company.CurrentPrice > 0 {
		upside = (float64(targetPrice) - float64(company.CurrentPrice)) / float64(company.CurrentPrice) * 100
	}

	return Result{
		Ticker: company.Ticker,
		Summary: Summary{
			Opinion:      parsed.Opinion,
			TargetPrice:  targetPrice,
			CurrentPrice: company.CurrentPrice,
			Upside:       roundTo(upside, 1),
			KeyPoints:    parsed.KeyPoints,
		},
		FinancialAnalysis:  parsed.FinancialAnalysis.Value,
		IndustryAnalysis:   parsed.IndustryAnalysis.Value,
		TechnicalAnalysis:  parsed.TechnicalAnalysis.Value,
		NewsAnalysis:       parsed.NewsAnalysis.Value,
		RiskFactors:        parsed.Risks,
		InvestmentStrategy: parsed.InvestmentStrategy.Value,
		StopLossPrice:      parsed.StopLossPrice,
		Model:              client.ModelName(),
		TokensUsed:         tokens,
		Calculation: targetPriceBreakdown{
			Step1BaseValuation:       base,
			Step2TechnicalAdjustment: tech,
			Step3NewsSentiment:       sentiment,
			PreliminaryTarget:        preliminaryTarget,
			TotalAdjustment:          totalAdjustment,
		},
	}, nil
}

func roundTo(v float64, decimals int) float64 {
	scale := 1.0
	for i := 0; i < decimals; i++ {
		scale *= 10
	}
	return float64(int64(v*scale+sign(v)*0.5)) / scale
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func buildFinalizePrompt(company companyInput, news []gateway.NewsItem, base baseValuation, tech technicalAdjustment, sentiment newsSentiment, preliminaryTarget int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "당신은 한국 주식 시장의 전문 애널리스트입니다. %s(%s)에 대한 종합 분석 보고서를 작성하세요.\n\n", company.Name, company.Ticker)

	fmt.Fprintf(&b, "# 기업 정보\n- 현재가: %d원\n- 시가총액: %.0f억원\n", company.CurrentPrice, company.MarketCap/1e8)
	fmt.Fprintf(&b, "\n# 재무 데이터\n- ROE: %.2f%%\n- PER: %.2f\n- PBR: %.2f\n- 부채비율: %.2f%%\n- 매출 성장률(YoY): %.2f%%\n",
		company.Financial.ROE, company.Financial.PER, company.Financial.PBR, company.Financial.DebtRatio, company.Financial.YoYRevenueGrowth)

	b.WriteString("\n# 최근 뉴스\n")
	if len(news) == 0 {
		b.WriteString("최근 뉴스 없음\n")
	}
	limit := len(news)
	if limit > 15 {
		limit = 15
	}
	for i, item := range news[:limit] {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, item.Title, item.Source)
	}

	fmt.Fprintf(&b, "\n# 기술적 지표\n- RSI(14): %.2f\n- MACD 상태: %s\n- MA 위치: %s\n",
		company.Technical.RSI14, company.Technical.MACDStatus, company.Technical.MAPosition)

	fmt.Fprintf(&b, `
# 목표가 계산
## Step 1: 기본 밸류에이션
- PER 목표가: %d원
- PBR 목표가: %d원
- 기본 목표가: %d원

## Step 2: 기술적 지표 조정
- 조정: %+.1f%%

## Step 3: 뉴스 센티먼트 조정
- 긍정 %d개, 부정 %d개, 중립 %d개
- 조정: %+.2f%%

## 예비 목표가: %d원
`, base.PERTarget, base.PBRTarget, base.BaseTarget,
		tech.Adjustment*100, sentiment.PositiveCount, sentiment.NegativeCount, sentiment.NeutralCount,
		sentiment.Adjustment*100, preliminaryTarget)

	b.WriteString(`
다음 JSON 형식으로만 응답하세요 (마크다운 코드 블록 없이):
{
  "summary": "투자 의견과 목표가의 핵심 근거 3줄 요약",
  "opinion": "STRONG_BUY|BUY|HOLD|SELL|STRONG_SELL",
  "target_price": 목표가(정수),
  "stop_loss_price": 손절가(정수, SELL/STRONG_SELL만, 아니면 null),
  "key_points": ["근거1", "근거2", "근거3"],
  "financial_analysis": {"profitability": "", "growth": "", "stability": "", "valuation": ""},
  "industry_analysis": {"industry_trend": "", "competitive_advantage": "", "market_position": ""},
  "news_analysis": {"sentiment": "positive|neutral|negative", "key_news": [], "impact": ""},
  "technical_analysis": {"trend": "", "support_resistance": "", "indicators": ""},
  "risks": ["리스크1", "리스크2", "리스크3"],
  "investment_strategy": {"short_term": "", "mid_term": "", "long_term": ""}
}`)
	return b.String()
}
