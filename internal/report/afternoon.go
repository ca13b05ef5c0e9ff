package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kr-equities/aegis-quant/internal/llm"
	"github.com/kr-equities/aegis-quant/pkg/store"
)

const afternoonGroundingTemperature = 0.3

// GenerateAfternoon runs the afternoon report: afternoon trigger rows
// (falling back to morning's if the afternoon scan found nothing),
// today's extended macro, one grounded LLM call, then merge+persist —
// spec §4.8's four-step afternoon pipeline.
func (e *Engine) GenerateAfternoon(ctx context.Context, date time.Time) (AfternoonReport, error) {
	if existing, err := e.store.GetReportResult(ctx, store.ReportAfternoon, date); err != nil {
		return AfternoonReport{}, fmt.Errorf("report: afternoon cache lookup: %w", err)
	} else if existing != nil {
		var r AfternoonReport
		if err := json.Unmarshal([]byte(existing.Payload), &r); err != nil {
			return AfternoonReport{}, fmt.Errorf("report: afternoon cache decode: %w", err)
		}
		r.AlreadyGenerated = true
		return r, nil
	}

	surges, err := e.store.ListTriggerResults(ctx, date, store.SessionAfternoon)
	if err != nil {
		return AfternoonReport{}, fmt.Errorf("report: afternoon trigger rows: %w", err)
	}
	if len(surges) == 0 {
		surges, err = e.store.ListTriggerResults(ctx, date, store.SessionMorning)
		if err != nil {
			return AfternoonReport{}, fmt.Errorf("report: morning fallback trigger rows: %w", err)
		}
	}

	macro, err := macroFor(ctx, e.gateway, e.store, date)
	if err != nil {
		e.log.WithError(err).Warn("report: afternoon macro unavailable, persisting stub")
		stub := stubAfternoonReport(date, marketSummaryFrom(store.MarketIndex{}))
		return stub, e.persistAfternoon(ctx, date, stub)
	}
	summary := marketSummaryFrom(macro)

	prompt := buildAfternoonPrompt(date, summary, surges)
	text, tokens, err := e.llm.GenerateWithGroundingUsage(ctx, prompt, afternoonGroundingTemperature)
	if err != nil {
		e.log.WithError(err).Warn("report: afternoon LLM call failed, persisting stub")
		stub := stubAfternoonReport(date, summary)
		return stub, e.persistAfternoon(ctx, date, stub)
	}

	var parsed AfternoonReport
	if err := json.Unmarshal([]byte(llm.ExtractJSON(text)), &parsed); err != nil {
		e.log.WithError(err).Warn("report: afternoon response unparseable, persisting stub")
		stub := stubAfternoonReport(date, summary)
		return stub, e.persistAfternoon(ctx, date, stub)
	}

	parsed.Date = date
	parsed.GeneratedAt = time.Now()
	parsed.MarketSummary = summary
	parsed.Metadata = Metadata{Tokens: tokens, Model: e.llm.ModelName()}

	return parsed, e.persistAfternoon(ctx, date, parsed)
}

func (e *Engine) persistAfternoon(ctx context.Context, date time.Time, r AfternoonReport) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("report: encode afternoon report: %w", err)
	}
	return e.store.UpsertReportResult(ctx, store.ReportResult{
		ReportType:  store.ReportAfternoon,
		Date:        date,
		Payload:     string(payload),
		GeneratedAt: r.GeneratedAt,
		Model:       r.Metadata.Model,
		TokensUsed:  r.Metadata.Tokens,
	})
}

func stubAfternoonReport(date time.Time, summary MarketSummary) AfternoonReport {
	return AfternoonReport{
		Date:                 date,
		GeneratedAt:          time.Now(),
		MarketSummaryText:    "시장 데이터 수집 실패로 마감 시황을 생성하지 못했습니다.",
		MarketBreadth:        MarketBreadth{Sentiment: "혼조세", Interpretation: "데이터 없음"},
		SupplyDemandAnalysis: "데이터 없음",
		TomorrowStrategy:     "리포트 생성에 실패하여 내일 전략을 제공할 수 없습니다.",
		CheckPoints:          []string{},
		MarketSummary:        summary,
	}
}

// buildAfternoonPrompt mirrors llm_report.py's _build_afternoon_report_prompt:
// index/flow/breadth header, the surge list, and the full nested JSON
// response schema.
func buildAfternoonPrompt(date time.Time, summary MarketSummary, surges []store.TriggerResult) string {
	var b strings.Builder
	b.WriteString("당신은 한국 주식 시장의 마감 시황 전문 애널리스트입니다.\n\n")
	fmt.Fprintf(&b, "오늘(%s) 장 마감 후 투자자들을 위한 일일 리포트를 작성하세요.\n\n", date.Format("2006-01-02"))

	b.WriteString("[오늘의 시장 데이터]\n\n■ 지수 동향\n")
	fmt.Fprintf(&b, "- KOSPI: %.2f (%+.2f%%, %+.2fp)\n", summary.KospiClose, summary.KospiChange, summary.KospiPointChange)
	fmt.Fprintf(&b, "- KOSDAQ: %.2f (%+.2f%%, %+.2fp)\n", summary.KosdaqClose, summary.KosdaqChange, summary.KosdaqPointChange)
	fmt.Fprintf(&b, "- 거래대금: %d억원\n\n", summary.TradingValue/100000000)

	b.WriteString("■ 수급 동향 (KOSPI / KOSDAQ)\n")
	fmt.Fprintf(&b, "- 외국인: %+d억 / %+d억원\n", summary.ForeignNetKospi/100000000, summary.ForeignNetKosdaq/100000000)
	fmt.Fprintf(&b, "- 기관: %+d억 / %+d억원\n", summary.InstitutionNetKospi/100000000, summary.InstitutionNetKosdaq/100000000)
	fmt.Fprintf(&b, "- 개인: %+d억 / %+d억원\n\n", summary.IndividualNetKospi/100000000, summary.IndividualNetKosdaq/100000000)

	fmt.Fprintf(&b, "■ 시장 폭 (Market Breadth)\n- 상승: %d개 / 하락: %d개 / 보합: %d개\n\n",
		summary.AdvanceCount, summary.DeclineCount, summary.UnchangedCount)

	b.WriteString("[오늘 포착된 주요 급등주 (Top 10)]\n")
	limit := len(surges)
	if limit > 10 {
		limit = 10
	}
	for i, s := range surges[:limit] {
		fmt.Fprintf(&b, "%d. %s (%s) - 등락률: %.2f%%, 거래량: %d주\n", i+1, s.Name, s.Ticker, s.ChangeRate, s.Volume)
	}

	b.WriteString(`
**Google Search를 활용하여** 오늘 시장의 등락 원인, 업종별 강세/약세, 수급 해석, 급등주의 구체적 상승 재료, 내일 영향을 줄 일정을 조사하고,
다음 JSON 형식으로 응답하세요:

{
  "market_summary_text": "KOSPI/KOSDAQ 동향 요약 (3-4문장)",
  "market_breadth": {"sentiment": "강세장|약세장|혼조세", "interpretation": "시장 분위기 해석"},
  "sector_analysis": {
    "bullish": [{"sector": "", "change": "+0.0", "reason": ""}],
    "bearish": [{"sector": "", "change": "-0.0", "reason": ""}]
  },
  "supply_demand_analysis": "외국인/기관/개인 수급 해석 (2-3문장)",
  "today_themes": [{"theme": "", "drivers": "", "leading_stocks": []}],
  "surge_analysis": [{"ticker": "", "name": "", "category": "", "reason": "", "outlook": ""}],
  "tomorrow_strategy": "내일 투자 전략 (4-5문장)",
  "check_points": ["내일 확인해야 할 일정1", "일정2"]
}

JSON만 반환하세요.`)
	return b.String()
}
