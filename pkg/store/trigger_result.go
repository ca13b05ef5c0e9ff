package store

import (
	"context"
	"database/sql"
	"time"
)

// TriggerType enumerates the detectors that can fire a TriggerResult.
type TriggerType string

const (
	TriggerVolumeSurge    TriggerType = "volume_surge"
	TriggerGapUp          TriggerType = "gap_up"
	TriggerFundInflow     TriggerType = "fund_inflow"
	TriggerIntradayRise   TriggerType = "intraday_rise"
	TriggerClosingStrength TriggerType = "closing_strength"
	TriggerSidewaysVolume TriggerType = "sideways_volume"
	TriggerPreSurge       TriggerType = "pre_surge"
)

// Session names the half of the trading day a trigger scan ran in.
type Session string

const (
	SessionMorning   Session = "morning"
	SessionAfternoon Session = "afternoon"
)

// TriggerResult is one detector firing for one ticker on one date/session.
// Unique by (Date, Session, Ticker, TriggerType); a session scan replaces
// its whole (Date, Session) slice in one transaction (ReplaceTriggerResults),
// while the repeating pre_surge scan merges row by row (UpsertTriggerResults).
type TriggerResult struct {
	ID             int64
	Date           time.Time
	Session        Session
	Ticker         string
	TriggerType    TriggerType
	Name           string
	Price          int64
	ChangeRate     float64
	Volume         int64
	TradingValue   int64
	CompositeScore float64
	DetectedAt     time.Time
}

// ReplaceTriggerResults deletes every row for (date, session) and inserts
// results in one transaction — a scan is all-or-nothing, never a merge.
func (s *Store) ReplaceTriggerResults(ctx context.Context, date time.Time, session Session, results []TriggerResult) error {
	return s.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.tx.ExecContext(ctx, `DELETE FROM trigger_results WHERE date = ? AND session = ?`,
			date.Format("2006-01-02"), string(session)); err != nil {
			return err
		}
		for _, r := range results {
			if _, err := tx.tx.ExecContext(ctx, `
				INSERT INTO trigger_results (
					date, session, ticker, trigger_type, name, price,
					change_rate, volume, trading_value, composite_score, detected_at
				) VALUES (?,?,?,?,?,?,?,?,?,?,?)
			`,
				date.Format("2006-01-02"), string(session), r.Ticker, string(r.TriggerType),
				r.Name, r.Price, r.ChangeRate, r.Volume, r.TradingValue, r.CompositeScore,
				r.DetectedAt.Format(time.RFC3339),
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpsertTriggerResults inserts or updates rows by their
// (date, session, ticker, trigger_type) unique key, leaving every other
// row for that (date, session) untouched. Used by detectors that fire
// repeatedly through the day — like the realtime pre_surge scan — where
// ReplaceTriggerResults' delete-then-insert would wipe the other
// detectors' already-persisted hits for the same session.
func (s *Store) UpsertTriggerResults(ctx context.Context, date time.Time, session Session, results []TriggerResult) error {
	if len(results) == 0 {
		return nil
	}
	return s.WithTx(ctx, func(tx *Tx) error {
		for _, r := range results {
			if _, err := tx.tx.ExecContext(ctx, `
				INSERT INTO trigger_results (
					date, session, ticker, trigger_type, name, price,
					change_rate, volume, trading_value, composite_score, detected_at
				) VALUES (?,?,?,?,?,?,?,?,?,?,?)
				ON CONFLICT (date, session, ticker, trigger_type) DO UPDATE SET
					name = excluded.name,
					price = excluded.price,
					change_rate = excluded.change_rate,
					volume = excluded.volume,
					trading_value = excluded.trading_value,
					composite_score = excluded.composite_score,
					detected_at = excluded.detected_at
			`,
				date.Format("2006-01-02"), string(session), r.Ticker, string(r.TriggerType),
				r.Name, r.Price, r.ChangeRate, r.Volume, r.TradingValue, r.CompositeScore,
				r.DetectedAt.Format(time.RFC3339),
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListTriggerResults returns every trigger fired on (date, session), ordered
// by composite score descending — the ranker's raw candidate pool.
func (s *Store) ListTriggerResults(ctx context.Context, date time.Time, session Session) ([]TriggerResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, session, ticker, trigger_type, name, price,
			change_rate, volume, trading_value, composite_score, detected_at
		FROM trigger_results WHERE date = ? AND session = ?
		ORDER BY composite_score DESC
	`, date.Format("2006-01-02"), string(session))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTriggerResults(rows)
}

// ListTriggerResultsByType returns up to limit rows of one trigger type on
// date, across both sessions, ordered by composite score descending.
func (s *Store) ListTriggerResultsByType(ctx context.Context, date time.Time, triggerType TriggerType, limit int) ([]TriggerResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, session, ticker, trigger_type, name, price,
			change_rate, volume, trading_value, composite_score, detected_at
		FROM trigger_results WHERE date = ? AND trigger_type = ?
		ORDER BY composite_score DESC LIMIT ?
	`, date.Format("2006-01-02"), string(triggerType), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTriggerResults(rows)
}

// ListTriggerResultsByTicker returns every trigger fired for ticker within
// the last days days, newest first.
func (s *Store) ListTriggerResultsByTicker(ctx context.Context, ticker string, days int) ([]TriggerResult, error) {
	since := time.Now().AddDate(0, 0, -days).Format("2006-01-02")
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, session, ticker, trigger_type, name, price,
			change_rate, volume, trading_value, composite_score, detected_at
		FROM trigger_results WHERE ticker = ? AND date >= ?
		ORDER BY date DESC, composite_score DESC
	`, ticker, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTriggerResults(rows)
}

// TriggerStats is the per-type firing count across a date range, the
// summary `GET /triggers/stats` reports.
type TriggerStats struct {
	TriggerType TriggerType
	Count       int
}

// TriggerStats aggregates firing counts per trigger type across
// [start, end] inclusive.
func (s *Store) TriggerStats(ctx context.Context, start, end time.Time) ([]TriggerStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT trigger_type, COUNT(*) FROM trigger_results
		WHERE date >= ? AND date <= ?
		GROUP BY trigger_type ORDER BY COUNT(*) DESC
	`, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TriggerStats
	for rows.Next() {
		var s TriggerStats
		var ttype string
		if err := rows.Scan(&ttype, &s.Count); err != nil {
			return nil, err
		}
		s.TriggerType = TriggerType(ttype)
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanTriggerResults(rows *sql.Rows) ([]TriggerResult, error) {
	var out []TriggerResult
	for rows.Next() {
		var r TriggerResult
		var d, sess, ttype, detectedAt string
		if err := rows.Scan(&r.ID, &d, &sess, &r.Ticker, &ttype, &r.Name, &r.Price,
			&r.ChangeRate, &r.Volume, &r.TradingValue, &r.CompositeScore, &detectedAt); err != nil {
			return nil, err
		}
		r.Date, _ = time.Parse("2006-01-02", d)
		r.Session = Session(sess)
		r.TriggerType = TriggerType(ttype)
		r.DetectedAt, _ = time.Parse(time.RFC3339, detectedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}
