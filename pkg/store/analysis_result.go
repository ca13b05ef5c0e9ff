package store

import (
	"context"
	"database/sql"
	"time"
)

// AnalysisResult is the LLM-finalized valuation for one ticker on one date,
// cached so a given (Ticker, Date) pair is only ever analyzed once (§8 cache
// law) until explicitly invalidated.
type AnalysisResult struct {
	Ticker      string
	Date        time.Time
	Payload     string // JSON-encoded AnalysisResult body
	GeneratedAt time.Time
	Model       string
	TokensUsed  int
}

// UpsertAnalysisResult writes (or overwrites, on invalidation) the cached
// analysis for one ticker/date.
func (s *Store) UpsertAnalysisResult(ctx context.Context, a AnalysisResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_results (ticker, date, payload, generated_at, model, tokens_used)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT(ticker, date) DO UPDATE SET
			payload=excluded.payload, generated_at=excluded.generated_at,
			model=excluded.model, tokens_used=excluded.tokens_used
	`, a.Ticker, a.Date.Format("2006-01-02"), a.Payload, a.GeneratedAt.Format(time.RFC3339), a.Model, a.TokensUsed)
	return err
}

// GetAnalysisResult returns the cached result, or nil if none exists yet —
// callers use the nil case as the cache-miss signal that triggers a fresh
// LLM pass.
func (s *Store) GetAnalysisResult(ctx context.Context, ticker string, date time.Time) (*AnalysisResult, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT ticker, date, payload, generated_at, model, tokens_used
		FROM analysis_results WHERE ticker = ? AND date = ?
	`, ticker, date.Format("2006-01-02"))

	var a AnalysisResult
	var d, generatedAt string
	err := row.Scan(&a.Ticker, &d, &a.Payload, &generatedAt, &a.Model, &a.TokensUsed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.Date, _ = time.Parse("2006-01-02", d)
	a.GeneratedAt, _ = time.Parse(time.RFC3339, generatedAt)
	return &a, nil
}

// InvalidateAnalysisResult deletes a cached analysis, forcing recomputation
// on next read — used when a ticker re-triggers later the same day with a
// materially different price.
func (s *Store) InvalidateAnalysisResult(ctx context.Context, ticker string, date time.Time) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM analysis_results WHERE ticker = ? AND date = ?`,
		ticker, date.Format("2006-01-02"))
	return err
}
