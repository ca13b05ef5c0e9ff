package indicator

import (
	"testing"
	"time"
)

func barsFromCloses(closes []int64) []Bar {
	bars := make([]Bar, len(closes))
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = Bar{
			Date:  day.AddDate(0, 0, i),
			Open:  c,
			High:  c,
			Low:   c,
			Close: c,
		}
	}
	return bars
}

func TestRSI_InsufficientData(t *testing.T) {
	bars := barsFromCloses([]int64{100, 101, 102})
	if got := RSI(bars, 14); got != 50.0 {
		t.Errorf("RSI with insufficient data = %v, want 50.0", got)
	}
}

func TestRSI_AllGains(t *testing.T) {
	closes := make([]int64, 16)
	for i := range closes {
		closes[i] = int64(100 + i)
	}
	bars := barsFromCloses(closes)
	if got := RSI(bars, 14); got != 100.0 {
		t.Errorf("RSI with all gains = %v, want 100.0", got)
	}
}

func TestSMA(t *testing.T) {
	bars := barsFromCloses([]int64{10, 20, 30, 40, 50})
	if got := SMA(bars, 5); got != 30.0 {
		t.Errorf("SMA(5) = %v, want 30.0", got)
	}
	if got := SMA(bars, 10); got != 0 {
		t.Errorf("SMA with insufficient data = %v, want 0", got)
	}
}

func TestMACD_InsufficientData(t *testing.T) {
	bars := barsFromCloses([]int64{100, 101, 102})
	result := MACD(bars)
	if result.Status != MACDNeutral {
		t.Errorf("MACD status with insufficient data = %v, want neutral", result.Status)
	}
}

func TestATR(t *testing.T) {
	bars := []Bar{
		{High: 110, Low: 100, Close: 105},
		{High: 112, Low: 103, Close: 108},
		{High: 115, Low: 105, Close: 110},
	}
	got := ATR(bars, 2)
	if got == nil {
		t.Fatal("ATR = nil, want non-nil with 3 bars and period 2")
	}
	// TR[1] = max(112-103, |112-105|, |103-105|) = max(9,7,2) = 9
	// TR[2] = max(115-105, |115-108|, |105-108|) = max(10,7,3) = 10
	want := (9.0 + 10.0) / 2
	if *got != want {
		t.Errorf("ATR(2) = %v, want %v", *got, want)
	}
}

func TestATR_InsufficientBars(t *testing.T) {
	bars := []Bar{{High: 110, Low: 100, Close: 105}}
	if got := ATR(bars, 14); got != nil {
		t.Errorf("ATR with insufficient bars = %v, want nil", got)
	}
}

func TestGap(t *testing.T) {
	if got := Gap(10500, 10000); got != 5.0 {
		t.Errorf("Gap = %v, want 5.0", got)
	}
	if got := Gap(10000, 0); got != 0 {
		t.Errorf("Gap with zero prevClose = %v, want 0", got)
	}
}

func TestClosingStrength(t *testing.T) {
	if got := ClosingStrength(110, 100, 108); got != 0.8 {
		t.Errorf("ClosingStrength = %v, want 0.8", got)
	}
	// Zero-width range (limit day) guards to denominator 0.01.
	if got := ClosingStrength(100, 100, 100); got != 0 {
		t.Errorf("ClosingStrength with zero range = %v, want 0", got)
	}
}

func TestVolumeChangeRate(t *testing.T) {
	if got := VolumeChangeRate(130, 100); got != 30.0 {
		t.Errorf("VolumeChangeRate = %v, want 30.0", got)
	}
	if got := VolumeChangeRate(100, 0); got != 0 {
		t.Errorf("VolumeChangeRate with zero prev = %v, want 0", got)
	}
}

func TestFundInflowRatio(t *testing.T) {
	got := FundInflowRatio(1_000_000_000_000, 430_000_000_000_000)
	want := 0.2325581395348837
	if got < want-1e-9 || got > want+1e-9 {
		t.Errorf("FundInflowRatio = %v, want %v", got, want)
	}
	if got := FundInflowRatio(1000, 0); got != 0 {
		t.Errorf("FundInflowRatio with zero market cap = %v, want 0", got)
	}
}
