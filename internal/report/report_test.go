package report

import (
	"testing"
	"time"

	"github.com/kr-equities/aegis-quant/internal/ranker"
	"github.com/kr-equities/aegis-quant/pkg/store"
)

func TestMarketSummaryFromMapsAllFields(t *testing.T) {
	idx := store.MarketIndex{
		KospiClose: 2500.5, KospiChange: 1.2, KospiChangePts: 30,
		KosdaqTradingValue: 1_000_000, KospiTradingValue: 2_000_000,
		KospiForeignNet: 500_000, Advancers: 600, Decliners: 300, Unchanged: 50,
	}
	summary := marketSummaryFrom(idx)
	if summary.KospiClose != 2500.5 {
		t.Errorf("expected kospi close preserved, got %.2f", summary.KospiClose)
	}
	if summary.TradingValue != 3_000_000 {
		t.Errorf("expected combined trading value, got %d", summary.TradingValue)
	}
	if summary.AdvanceCount != 600 || summary.DeclineCount != 300 {
		t.Errorf("expected breadth counts preserved, got adv=%d dec=%d", summary.AdvanceCount, summary.DeclineCount)
	}
}

func TestStubMorningReportPadsToTen(t *testing.T) {
	ranked := []ranker.RankedStock{
		{Ticker: "005930", Name: "삼성전자", FinalScore: 8.5},
		{Ticker: "000660", Name: "SK하이닉스", FinalScore: 7.2},
	}
	stub := stubMorningReport(time.Now(), ranked)
	if len(stub.TopStocks) != 10 {
		t.Fatalf("expected 10 placeholder stocks, got %d", len(stub.TopStocks))
	}
	if stub.TopStocks[0].Ticker != "005930" || stub.TopStocks[0].Score != 8.5 {
		t.Errorf("expected real ranking preserved in stub, got %+v", stub.TopStocks[0])
	}
	if stub.TopStocks[9].Ticker != "" || stub.TopStocks[9].Score != 5.0 {
		t.Errorf("expected neutral placeholder past ranked count, got %+v", stub.TopStocks[9])
	}
}

func TestStubMorningReportHandlesEmptyRanking(t *testing.T) {
	stub := stubMorningReport(time.Now(), nil)
	if len(stub.TopStocks) != 10 {
		t.Fatalf("expected 10 placeholders with no ranking, got %d", len(stub.TopStocks))
	}
	for _, s := range stub.TopStocks {
		if s.Score != 5.0 {
			t.Errorf("expected neutral score 5.0, got %.1f", s.Score)
		}
	}
}

func TestStubAfternoonReportCarriesMarketSummary(t *testing.T) {
	summary := MarketSummary{KospiClose: 2400, AdvanceCount: 400}
	stub := stubAfternoonReport(time.Now(), summary)
	if stub.MarketSummary.KospiClose != 2400 {
		t.Errorf("expected market summary carried through, got %+v", stub.MarketSummary)
	}
	if stub.MarketBreadth.Sentiment == "" {
		t.Error("expected a non-empty fallback sentiment")
	}
}

func TestBuildMorningPromptIncludesStockAndATR(t *testing.T) {
	stocks := []enrichedStock{
		{Ticker: "005930", Name: "삼성전자", Score: 8.5, CurrentPrice: 70000, HasRealtime: true, ChangeRate: 1.5, D2Close: 68965, HasATR: true, ATR: 1500, ATRPercent: 2.14},
	}
	macro := store.MarketIndex{KospiClose: 2500, KospiChange: 0.5}
	prompt := buildMorningPrompt(time.Now(), macro, stocks)
	if !containsSub(prompt, "005930") || !containsSub(prompt, "삼성전자") {
		t.Errorf("expected prompt to reference the stock's ticker and name:\n%s", prompt)
	}
	if !containsSub(prompt, "ATR") {
		t.Errorf("expected prompt to include ATR info:\n%s", prompt)
	}
}

func TestBuildAfternoonPromptIncludesSurgeStocks(t *testing.T) {
	surges := []store.TriggerResult{
		{Ticker: "035720", Name: "카카오", ChangeRate: 5.2, Volume: 1_200_000},
	}
	summary := MarketSummary{KospiClose: 2480, KosdaqClose: 820}
	prompt := buildAfternoonPrompt(time.Now(), summary, surges)
	if !containsSub(prompt, "035720") || !containsSub(prompt, "카카오") {
		t.Errorf("expected prompt to reference the surge stock:\n%s", prompt)
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
