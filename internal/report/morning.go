package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kr-equities/aegis-quant/internal/llm"
	"github.com/kr-equities/aegis-quant/internal/ranker"
	"github.com/kr-equities/aegis-quant/pkg/store"
)

const morningGroundingTemperature = 0.3

// GenerateMorning runs the morning report: Top-10 via the Ranker, prior-
// day macro, per-stock realtime+ATR enrichment, one grounded LLM call,
// composite-score reattachment, then persistence — spec §4.8's six-step
// morning pipeline.
func (e *Engine) GenerateMorning(ctx context.Context, date time.Time) (MorningReport, error) {
	if existing, err := e.store.GetReportResult(ctx, store.ReportMorning, date); err != nil {
		return MorningReport{}, fmt.Errorf("report: morning cache lookup: %w", err)
	} else if existing != nil {
		var r MorningReport
		if err := json.Unmarshal([]byte(existing.Payload), &r); err != nil {
			return MorningReport{}, fmt.Errorf("report: morning cache decode: %w", err)
		}
		r.AlreadyGenerated = true
		return r, nil
	}

	ranked, err := e.ranker.Rank(ctx, date)
	if err != nil || len(ranked) == 0 {
		e.log.WithError(err).Warn("report: morning ranking unavailable, persisting stub")
		stub := stubMorningReport(date, ranked)
		return stub, e.persistMorning(ctx, date, stub)
	}

	rows, err := e.gateway.CurrentMarketData(ctx, date)
	if err != nil {
		e.log.WithError(err).Warn("report: morning current market data unavailable, persisting stub")
		stub := stubMorningReport(date, ranked)
		return stub, e.persistMorning(ctx, date, stub)
	}

	inputs := make([]rankedInput, len(ranked))
	for i, r := range ranked {
		inputs[i] = rankedInput{Ticker: r.Ticker, Name: r.Name, Score: r.FinalScore, CurrentPrice: rows[r.Ticker].Close}
	}

	enriched, err := enrichTopStocks(ctx, e.gateway, date, inputs)
	if err != nil {
		e.log.WithError(err).Warn("report: morning enrichment failed, persisting stub")
		stub := stubMorningReport(date, ranked)
		return stub, e.persistMorning(ctx, date, stub)
	}

	prevDate, err := e.gateway.PreviousTradingDay(ctx, date, 10)
	if err != nil {
		e.log.WithError(err).Warn("report: morning previous trading day unavailable, persisting stub")
		stub := stubMorningReport(date, ranked)
		return stub, e.persistMorning(ctx, date, stub)
	}
	macro, err := macroFor(ctx, e.gateway, e.store, prevDate)
	if err != nil {
		e.log.WithError(err).Warn("report: morning macro unavailable, persisting stub")
		stub := stubMorningReport(date, ranked)
		return stub, e.persistMorning(ctx, date, stub)
	}

	prompt := buildMorningPrompt(date, macro, enriched)
	text, tokens, err := e.llm.GenerateWithGroundingUsage(ctx, prompt, morningGroundingTemperature)
	if err != nil {
		e.log.WithError(err).Warn("report: morning LLM call failed, persisting stub")
		stub := stubMorningReport(date, ranked)
		return stub, e.persistMorning(ctx, date, stub)
	}

	var parsed MorningReport
	if err := json.Unmarshal([]byte(llm.ExtractJSON(text)), &parsed); err != nil {
		e.log.WithError(err).Warn("report: morning response unparseable, persisting stub")
		stub := stubMorningReport(date, ranked)
		return stub, e.persistMorning(ctx, date, stub)
	}

	scoreByTicker := make(map[string]float64, len(ranked))
	for _, r := range ranked {
		scoreByTicker[r.Ticker] = r.FinalScore
	}
	for i := range parsed.TopStocks {
		if s, ok := scoreByTicker[parsed.TopStocks[i].Ticker]; ok {
			parsed.TopStocks[i].Score = s
		}
	}

	parsed.Date = date
	parsed.GeneratedAt = time.Now()
	parsed.Metadata = Metadata{Tokens: tokens, Model: e.llm.ModelName()}

	return parsed, e.persistMorning(ctx, date, parsed)
}

func (e *Engine) persistMorning(ctx context.Context, date time.Time, r MorningReport) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("report: encode morning report: %w", err)
	}
	return e.store.UpsertReportResult(ctx, store.ReportResult{
		ReportType:  store.ReportMorning,
		Date:        date,
		Payload:     string(payload),
		GeneratedAt: r.GeneratedAt,
		Model:       r.Metadata.Model,
		TokensUsed:  r.Metadata.Tokens,
	})
}

// stubMorningReport is the fallback persisted on any pipeline failure —
// ten zero-price placeholders (or as many as Rank managed to return) and
// a generic narrative, never a failed job with nothing recorded.
func stubMorningReport(date time.Time, ranked []ranker.RankedStock) MorningReport {
	stocks := make([]TopStockReport, 0, 10)
	for i := 0; i < 10; i++ {
		if i < len(ranked) {
			stocks = append(stocks, TopStockReport{
				Rank: i + 1, Ticker: ranked[i].Ticker, Name: ranked[i].Name,
				Score: ranked[i].FinalScore, Reason: "데이터 수집 실패로 상세 분석을 생성하지 못했습니다.",
			})
			continue
		}
		stocks = append(stocks, TopStockReport{Rank: i + 1, Score: 5.0, Reason: "데이터 없음"})
	}
	return MorningReport{
		Date:               date,
		GeneratedAt:        time.Now(),
		MarketForecast:     "시장 데이터 수집 실패로 예측을 생성하지 못했습니다.",
		MarketRisks:        []string{"데이터 수집 실패"},
		TopStocks:          stocks,
		InvestmentStrategy: "리포트 생성에 실패하여 투자 전략을 제공할 수 없습니다.",
		DailySchedule:      map[string]string{},
	}
}

// buildMorningPrompt mirrors llm_report.py's _build_morning_report_prompt:
// per-stock M/V/T/S breakdown, the D-2-close inversion and regular/after-
// hours split when a realtime snapshot is present, ATR display, and the
// full nested JSON response schema.
func buildMorningPrompt(date time.Time, macro store.MarketIndex, stocks []enrichedStock) string {
	var b strings.Builder
	fmt.Fprintf(&b, "당신은 한국 주식 시장의 장 시작 시황 전문 애널리스트입니다.\n\n")
	fmt.Fprintf(&b, "오늘(%s) 개장 전 투자자들을 위한 아침 리포트를 작성하세요.\n\n", date.Format("2006-01-02"))

	fmt.Fprintf(&b, "[전일 시장 데이터]\n")
	fmt.Fprintf(&b, "- KOSPI: %.2f (%+.2f%%, %+.2fp)\n", macro.KospiClose, macro.KospiChange, macro.KospiChangePts)
	fmt.Fprintf(&b, "- 거래대금: %d억원\n", (macro.KospiTradingValue+macro.KosdaqTradingValue)/100000000)
	fmt.Fprintf(&b, "- 외국인 순매수: %+d억원, 기관 순매수: %+d억원\n\n", macro.KospiForeignNet/100000000, macro.KospiInstitutionNet/100000000)

	b.WriteString("[오늘의 Top 10 후보 종목]\n")
	for i, s := range stocks {
		fmt.Fprintf(&b, "%d. %s (%s) - 점수: %.2f\n", i+1, s.Name, s.Ticker, s.Score)
		if s.HasRealtime {
			fmt.Fprintf(&b, "   현재가: %d원 (D-2 종가 환산: %d원, 등락률 %+.2f%%)\n", s.CurrentPrice, s.D2Close, s.ChangeRate)
		}
		if s.HasATR {
			fmt.Fprintf(&b, "   ATR(14): %.0f원 (%.2f%%)\n", s.ATR, s.ATRPercent)
		}
	}

	b.WriteString(`
**Google Search를 활용하여** 미국 증시 마감 동향, 원/달러 환율, 국내외 거시 지표, 주요 뉴스, 애널리스트 목표가를 조사하고,
다음 JSON 형식으로 응답하세요:

{
  "market_forecast": "오늘 장 전망 (3-4문장)",
  "kospi_range": {"low": 저점, "high": 고점, "reasoning": "근거"},
  "market_risks": ["리스크1", "리스크2"],
  "top_stocks": [
    {
      "rank": 순위, "ticker": "종목코드", "name": "종목명", "current_price": 현재가, "reason": "선정 사유",
      "entry_strategy": {
        "analysis": "", "entry_price": 0, "entry_timing": "", "target_price_1": 0, "target_price_2": 0,
        "stop_loss": 0, "risk_reward_ratio": 0, "holding_period": "", "technical_basis": "",
        "volume_strategy": "", "exit_condition": "", "confidence": ""
      }
    }
  ],
  "sector_analysis": {
    "bullish": [{"sector": "", "reason": ""}],
    "bearish": [{"sector": "", "reason": ""}]
  },
  "investment_strategy": "오늘의 투자 전략 (3-4문장)",
  "daily_schedule": {"09:00-09:30": "개장 동향", "09:30-12:00": "오전장", "12:00-13:00": "점심", "13:00-15:20": "오후장", "15:20-15:30": "동시호가"}
}

JSON만 반환하세요.`)
	return b.String()
}
