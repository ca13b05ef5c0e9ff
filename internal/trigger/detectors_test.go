package trigger

import (
	"testing"
	"time"

	"github.com/kr-equities/aegis-quant/internal/gateway"
)

var testNow = time.Date(2026, 7, 29, 10, 0, 0, 0, time.UTC)

func mkRow(ticker string, open, high, low, close, volume, prevVol int64, tradingValue int64, marketCap float64) row {
	m := gateway.MarketRow{
		Ticker:       ticker,
		Name:         ticker + "_name",
		Open:         open,
		High:         high,
		Low:          low,
		Close:        close,
		Volume:       volume,
		TradingValue: tradingValue,
		MarketCap:    marketCap,
	}
	r := row{MarketRow: m, PrevVolume: prevVol, PrevClose: open}
	r.VolumeChangeRate = 0
	if prevVol > 0 {
		r.VolumeChangeRate = (float64(volume)/float64(prevVol) - 1) * 100
	}
	r.IntradayChange = (float64(close)/float64(open) - 1) * 100
	r.ClosingStrength = float64(close-low) / float64(high-low)
	r.FundInflowRatio = float64(tradingValue) / marketCap * 100
	return r
}

func TestMorningVolumeSurgeFiltersAndScores(t *testing.T) {
	rows := map[string]row{
		"A": mkRow("A", 100, 110, 95, 108, 1000, 500, 50_000_000, 100_000_000_000),
		"B": mkRow("B", 100, 105, 98, 95, 500, 500, 20_000_000, 50_000_000_000),  // not uptrend
		"C": mkRow("C", 100, 110, 95, 105, 600, 500, 30_000_000, 60_000_000_000), // below 30% threshold
	}

	results, err := morningVolumeSurge(rows)
	if err != nil {
		t.Fatalf("morningVolumeSurge returned error: %v", err)
	}
	if len(results) != 1 || results[0].Ticker != "A" {
		t.Fatalf("morningVolumeSurge = %+v, want only ticker A", results)
	}
}

func TestMorningGapUpRequiresUptrendAndThreshold(t *testing.T) {
	rows := map[string]row{
		"A": mkRow("A", 100, 110, 99, 106, 1000, 900, 50_000_000, 100_000_000_000),
	}
	rows["A"] = row{MarketRow: rows["A"].MarketRow, GapRatio: 2.0, IntradayChange: 6.0, VolumeChangeRate: 11.1}

	results, err := morningGapUp(rows)
	if err != nil {
		t.Fatalf("morningGapUp returned error: %v", err)
	}
	if len(results) != 1 || results[0].Ticker != "A" {
		t.Fatalf("morningGapUp = %+v, want only ticker A", results)
	}
}

func TestAfternoonSidewaysVolumeRequiresQuietTapeAndVolumeSurge(t *testing.T) {
	quiet := row{MarketRow: gateway.MarketRow{Ticker: "Q", TradingValue: 10_000_000}, IntradayChange: 1.0, VolumeChangeRate: 60}
	loud := row{MarketRow: gateway.MarketRow{Ticker: "L", TradingValue: 10_000_000}, IntradayChange: 8.0, VolumeChangeRate: 60}
	rows := map[string]row{"Q": quiet, "L": loud}

	results, err := afternoonSidewaysVolume(rows)
	if err != nil {
		t.Fatalf("afternoonSidewaysVolume returned error: %v", err)
	}
	if len(results) != 1 || results[0].Ticker != "Q" {
		t.Fatalf("afternoonSidewaysVolume = %+v, want only ticker Q", results)
	}
}

func TestTopCandidatesLimitsAndOrders(t *testing.T) {
	scored := []candidateScore{
		{row: row{MarketRow: gateway.MarketRow{Ticker: "low"}}, score: 0.1},
		{row: row{MarketRow: gateway.MarketRow{Ticker: "high"}}, score: 0.9},
		{row: row{MarketRow: gateway.MarketRow{Ticker: "mid"}}, score: 0.5},
		{row: row{MarketRow: gateway.MarketRow{Ticker: "extra"}}, score: 0.3},
	}
	top := topCandidates(scored, topN)
	if len(top) != topN {
		t.Fatalf("topCandidates returned %d, want %d", len(top), topN)
	}
	if top[0].row.Ticker != "high" || top[1].row.Ticker != "mid" || top[2].row.Ticker != "extra" {
		t.Errorf("topCandidates order = %v, want high,mid,extra", top)
	}
}

func TestDetectAccumulationSignal(t *testing.T) {
	got := detectAccumulation("005930", "samsung", 400, 100, 1.5, 70000, 28_000_000, testNow)
	if got == nil {
		t.Fatal("detectAccumulation = nil, want a hit (4x avg volume, flat price)")
	}
	if got.VolumeRatio != 4.0 {
		t.Errorf("VolumeRatio = %v, want 4.0", got.VolumeRatio)
	}
	if got.Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", got.Confidence)
	}
}

func TestDetectAccumulationSignalPriceMovedTooMuch(t *testing.T) {
	if got := detectAccumulation("005930", "samsung", 400, 100, 5.0, 70000, 28_000_000, testNow); got != nil {
		t.Errorf("detectAccumulation with 5%% price move = %+v, want nil", got)
	}
}

func TestDetectAccumulationSignalNoHistory(t *testing.T) {
	if got := detectAccumulation("005930", "samsung", 400, 0, 0, 70000, 28_000_000, testNow); got != nil {
		t.Errorf("detectAccumulation with zero avg volume = %+v, want nil", got)
	}
}
