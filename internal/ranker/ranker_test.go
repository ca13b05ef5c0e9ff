package ranker

import (
	"context"
	"testing"
	"time"

	"github.com/kr-equities/aegis-quant/internal/gateway"
	"github.com/kr-equities/aegis-quant/pkg/config"
	"github.com/kr-equities/aegis-quant/pkg/logger"
	"github.com/kr-equities/aegis-quant/pkg/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	log := logger.New(&config.Config{Env: "test", LogLevel: "error"})
	st, err := store.Open(t.TempDir(), log)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func seedBars(t *testing.T, st *store.Store, ticker string, closes []int64, volumes []int64, start time.Time) {
	t.Helper()
	bars := make([]store.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = store.PriceBar{
			Ticker: ticker,
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: volumes[i],
		}
	}
	if err := st.UpsertPriceBars(context.Background(), bars); err != nil {
		t.Fatalf("seed bars: %v", err)
	}
}

func TestMomentumScoresNeutralWithoutHistory(t *testing.T) {
	st := testStore(t)
	date := time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)

	candidates := []candidate{{Ticker: "000001"}}
	scores, err := momentumScores(context.Background(), st, candidates, date)
	if err != nil {
		t.Fatalf("momentumScores failed: %v", err)
	}
	if scores["000001"] != neutralScore {
		t.Errorf("expected neutral score %.1f, got %.1f", neutralScore, scores["000001"])
	}
}

func TestMomentumScoresWithFullHistory(t *testing.T) {
	st := testStore(t)
	date := time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)
	start := date.AddDate(0, 0, -30)

	closes := make([]int64, 31)
	volumes := make([]int64, 31)
	for i := range closes {
		closes[i] = int64(10000 + i*10) // steadily rising
		volumes[i] = 1000
	}
	seedBars(t, st, "000001", closes, volumes, start)

	candidates := []candidate{{Ticker: "000001"}}
	scores, err := momentumScores(context.Background(), st, candidates, date)
	if err != nil {
		t.Fatalf("momentumScores failed: %v", err)
	}
	if scores["000001"] <= 0 {
		t.Errorf("expected positive momentum score for a steady uptrend, got %.2f", scores["000001"])
	}
}

func TestVolumeScoresNeutralWithoutHistory(t *testing.T) {
	st := testStore(t)
	date := time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)

	candidates := []candidate{{Ticker: "000001", Volume: 5000, TradingValue: 1000000}}
	scores, err := volumeScores(context.Background(), st, candidates, date)
	if err != nil {
		t.Fatalf("volumeScores failed: %v", err)
	}
	if scores["000001"] != neutralScore {
		t.Errorf("expected neutral score, got %.2f", scores["000001"])
	}
}

func TestRSIAdjustment(t *testing.T) {
	cases := []struct {
		rsi  float64
		want int
	}{{75, -5}, {25, 5}, {50, 0}}
	for _, c := range cases {
		if got := rsiAdjustment(c.rsi); got != c.want {
			t.Errorf("rsiAdjustment(%.0f) = %d, want %d", c.rsi, got, c.want)
		}
	}
}

func TestMACDAdjustment(t *testing.T) {
	if macdAdjustment(gateway.MACDGoldenCross) != 5 {
		t.Error("expected +5 for golden cross")
	}
	if macdAdjustment(gateway.MACDDeadCross) != -5 {
		t.Error("expected -5 for dead cross")
	}
	if macdAdjustment(gateway.MACDNeutral) != 0 {
		t.Error("expected 0 for neutral")
	}
}

func TestMAAdjustment(t *testing.T) {
	if maAdjustment(gateway.MAPositionAbove) != 3 {
		t.Error("expected +3 above")
	}
	if maAdjustment(gateway.MAPositionBelow) != -3 {
		t.Error("expected -3 below")
	}
}

func TestSentimentScoresLinearConversion(t *testing.T) {
	tickers := make([]string, 50)
	ranks := make(map[string]int, 50)
	for i := 0; i < 50; i++ {
		tickers[i] = string(rune('A' + i))
		ranks[tickers[i]] = i + 1
	}

	scores := sentimentScores(ranks, tickers)
	if got := scores[tickers[0]]; got != 10.0 {
		t.Errorf("rank 1 expected score 10.0, got %.2f", got)
	}
	if got := scores[tickers[49]]; got != 0.0 {
		t.Errorf("rank 50 expected score 0.0, got %.2f", got)
	}
}

func TestSentimentScoresMissingTickerIsNeutral(t *testing.T) {
	tickers := []string{"A", "B"}
	ranks := map[string]int{"A": 1}
	scores := sentimentScores(ranks, tickers)
	if scores["B"] != neutralScore {
		t.Errorf("expected neutral score for unranked ticker, got %.2f", scores["B"])
	}
}

func TestBuildSentimentPromptHandlesNoNews(t *testing.T) {
	news := map[string][]gateway.NewsItem{
		"000001": nil,
		"000002": {{Title: "실적 개선 발표"}},
	}
	prompt := buildSentimentPrompt(news)
	if !containsAll(prompt, "[000001]", "(no news)", "[000002]", "실적 개선 발표") {
		t.Errorf("prompt missing expected sections:\n%s", prompt)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !contains(s, sub) {
			return false
		}
	}
	return true
}

func contains(s, sub string) bool {
	return len(sub) == 0 || (len(s) >= len(sub) && indexOf(s, sub) >= 0)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
