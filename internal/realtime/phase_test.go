package realtime

import (
	"testing"
	"time"
)

func at(hh, mm int, weekday time.Weekday) time.Time {
	// 2024-01-08 is a Monday; walk forward to land on the requested weekday.
	base := time.Date(2024, 1, 8, hh, mm, 0, 0, time.Local)
	for base.Weekday() != weekday {
		base = base.AddDate(0, 0, 1)
	}
	return base
}

func TestSessionPhase(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want Phase
	}{
		{"prep start", at(7, 30, time.Tuesday), PhasePrep},
		{"prep end boundary", at(8, 29, time.Tuesday), PhasePrep},
		{"pre-market off-hours", at(8, 35, time.Tuesday), PhasePreMarketOff},
		{"opening call auction", at(8, 45, time.Tuesday), PhaseOpeningAuction},
		{"regular open", at(9, 0, time.Tuesday), PhaseRegular},
		{"regular midday", at(12, 0, time.Tuesday), PhaseRegular},
		{"closing call auction", at(15, 25, time.Tuesday), PhaseClosingAuction},
		{"post-close off-hours", at(15, 35, time.Tuesday), PhasePostCloseOff},
		{"single-price after-hours", at(17, 0, time.Tuesday), PhaseAfterHours},
		{"closed late night", at(22, 0, time.Tuesday), PhaseClosed},
		{"closed early morning", at(6, 0, time.Tuesday), PhaseClosed},
		{"closed on saturday", at(12, 0, time.Saturday), PhaseClosed},
		{"closed on sunday", at(12, 0, time.Sunday), PhaseClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SessionPhase(tt.t); got != tt.want {
				t.Errorf("SessionPhase(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestPhaseIsCallAuction(t *testing.T) {
	if !PhaseOpeningAuction.IsCallAuction() {
		t.Error("PhaseOpeningAuction.IsCallAuction() = false, want true")
	}
	if !PhaseClosingAuction.IsCallAuction() {
		t.Error("PhaseClosingAuction.IsCallAuction() = false, want true")
	}
	if PhaseRegular.IsCallAuction() {
		t.Error("PhaseRegular.IsCallAuction() = true, want false")
	}
}

func TestNextPrepTime(t *testing.T) {
	// Friday 20:00 should roll to the following Monday 07:30, skipping the weekend.
	friday := at(20, 0, time.Friday)
	got := nextPrepTime(friday)
	if got.Weekday() != time.Monday {
		t.Errorf("nextPrepTime(Friday 20:00).Weekday() = %v, want Monday", got.Weekday())
	}
	if got.Hour() != 7 || got.Minute() != 30 {
		t.Errorf("nextPrepTime(Friday 20:00) = %v, want 07:30", got)
	}

	// Before today's 07:30 should resolve to today.
	early := at(6, 0, time.Tuesday)
	got2 := nextPrepTime(early)
	if got2.Day() != early.Day() {
		t.Errorf("nextPrepTime(06:00) rolled to a different day, want same day")
	}
}
