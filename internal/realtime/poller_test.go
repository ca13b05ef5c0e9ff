package realtime

import (
	"testing"

	"github.com/kr-equities/aegis-quant/internal/external/kis"
	"github.com/kr-equities/aegis-quant/pkg/store"
)

func TestRemapCallAuctionDuringAuction(t *testing.T) {
	q := kis.MultiQuote{
		Ticker:          "005930",
		CurrentPrice:    0,
		PrevClosePrice:  70000,
		ExpectedDiff:    500,
		ExpectedChgRate: 0.71,
		ExpectedVolume:  12345,
	}

	got := remapCallAuction(q, PhaseOpeningAuction)
	if got.CurrentPrice != 70500 {
		t.Errorf("CurrentPrice = %v, want 70500", got.CurrentPrice)
	}
	if got.ChangeRate != 0.71 {
		t.Errorf("ChangeRate = %v, want 0.71", got.ChangeRate)
	}
	if got.ChangeAmount != 500 {
		t.Errorf("ChangeAmount = %v, want 500", got.ChangeAmount)
	}
	if got.Volume != 12345 {
		t.Errorf("Volume = %v, want 12345", got.Volume)
	}
}

func TestRemapCallAuctionOutsideAuctionIsNoop(t *testing.T) {
	q := kis.MultiQuote{Ticker: "005930", CurrentPrice: 70800}
	got := remapCallAuction(q, PhaseRegular)
	if got.CurrentPrice != 70800 {
		t.Errorf("CurrentPrice = %v, want unchanged 70800", got.CurrentPrice)
	}
}

func TestMarketStatusForPhase(t *testing.T) {
	tests := []struct {
		phase Phase
		want  store.MarketStatus
	}{
		{PhaseRegular, store.MarketStatusOpen},
		{PhaseOpeningAuction, store.MarketStatusOpen},
		{PhaseClosingAuction, store.MarketStatusOpen},
		{PhasePrep, store.MarketStatusPreMarket},
		{PhasePreMarketOff, store.MarketStatusPreMarket},
		{PhasePostCloseOff, store.MarketStatusAfterHours},
		{PhaseAfterHours, store.MarketStatusAfterHours},
		{PhaseClosed, store.MarketStatusClosed},
	}
	for _, tt := range tests {
		if got := marketStatusForPhase(tt.phase); got != tt.want {
			t.Errorf("marketStatusForPhase(%v) = %v, want %v", tt.phase, got, tt.want)
		}
	}
}

func TestToRealtimePriceDropsCallAuctionOnlyFields(t *testing.T) {
	q := kis.MultiQuote{
		Ticker:       "005930",
		CurrentPrice: 70500,
		Volume:       1000,
		TradingValue: 70500000,
	}
	p := toRealtimePrice(q, store.MarketStatusOpen)
	if p.Ticker != "005930" || p.Current != 70500 || p.Volume != 1000 {
		t.Errorf("toRealtimePrice mapped incorrectly: %+v", p)
	}
	if p.MarketStatus != store.MarketStatusOpen {
		t.Errorf("MarketStatus = %v, want open", p.MarketStatus)
	}
}
