// Package realtime runs the single session-gated poller that keeps
// RealtimePrice warm for the filtered universe.
package realtime

import "time"

// Phase is one of the seven intraday session windows the poller gates
// its behavior on.
type Phase string

const (
	PhasePrep           Phase = "prep"
	PhasePreMarketOff   Phase = "pre_market_off_hours"
	PhaseOpeningAuction Phase = "opening_call_auction"
	PhaseRegular        Phase = "regular"
	PhaseClosingAuction Phase = "closing_call_auction"
	PhasePostCloseOff   Phase = "post_close_off_hours"
	PhaseAfterHours     Phase = "single_price_after_hours"
	PhaseClosed         Phase = "closed"
)

// IsCallAuction reports whether current_price must be remapped from the
// vendor's "expected" fields rather than trusted as-is.
func (p Phase) IsCallAuction() bool {
	return p == PhaseOpeningAuction || p == PhaseClosingAuction
}

// SessionPhase resolves t's phase by local wall clock. Weekends are
// always closed regardless of time of day.
func SessionPhase(t time.Time) Phase {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return PhaseClosed
	}

	hm := t.Hour()*60 + t.Minute()
	at := func(h, m int) int { return h*60 + m }

	switch {
	case hm >= at(7, 30) && hm < at(8, 30):
		return PhasePrep
	case hm >= at(8, 30) && hm < at(8, 40):
		return PhasePreMarketOff
	case hm >= at(8, 40) && hm < at(9, 0):
		return PhaseOpeningAuction
	case hm >= at(9, 0) && hm < at(15, 20):
		return PhaseRegular
	case hm >= at(15, 20) && hm < at(15, 30):
		return PhaseClosingAuction
	case hm >= at(15, 30) && hm < at(16, 0):
		return PhasePostCloseOff
	case hm >= at(16, 0) && hm < at(18, 0):
		return PhaseAfterHours
	default:
		return PhaseClosed
	}
}

// nextPrepTime returns the next 07:30 strictly after t, rolling to the
// next weekday when t already lands on or after today's 07:30, and
// skipping straight past weekends.
func nextPrepTime(t time.Time) time.Time {
	candidate := time.Date(t.Year(), t.Month(), t.Day(), 7, 30, 0, 0, t.Location())
	if !candidate.After(t) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	for candidate.Weekday() == time.Saturday || candidate.Weekday() == time.Sunday {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}
