package store

import (
	"context"
	"database/sql"
	"time"
)

// ReportType names which of the two daily reports a ReportResult holds.
type ReportType string

const (
	ReportMorning   ReportType = "morning"
	ReportAfternoon ReportType = "afternoon"
)

// ReportResult is the generated daily report, unique by (ReportType, Date) —
// the scheduler's at-most-once-per-day guarantee reads this table before
// running a report job.
type ReportResult struct {
	ReportType  ReportType
	Date        time.Time
	Payload     string // JSON-encoded report body
	GeneratedAt time.Time
	Model       string
	TokensUsed  int
}

// UpsertReportResult writes the report for (ReportType, Date).
func (s *Store) UpsertReportResult(ctx context.Context, r ReportResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO report_results (report_type, date, payload, generated_at, model, tokens_used)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT(report_type, date) DO UPDATE SET
			payload=excluded.payload, generated_at=excluded.generated_at,
			model=excluded.model, tokens_used=excluded.tokens_used
	`, string(r.ReportType), r.Date.Format("2006-01-02"), r.Payload, r.GeneratedAt.Format(time.RFC3339), r.Model, r.TokensUsed)
	return err
}

// GetReportResult returns the generated report for (ReportType, Date), or
// nil if it hasn't run yet.
func (s *Store) GetReportResult(ctx context.Context, reportType ReportType, date time.Time) (*ReportResult, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT report_type, date, payload, generated_at, model, tokens_used
		FROM report_results WHERE report_type = ? AND date = ?
	`, string(reportType), date.Format("2006-01-02"))

	var r ReportResult
	var rt, d, generatedAt string
	err := row.Scan(&rt, &d, &r.Payload, &generatedAt, &r.Model, &r.TokensUsed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.ReportType = ReportType(rt)
	r.Date, _ = time.Parse("2006-01-02", d)
	r.GeneratedAt, _ = time.Parse(time.RFC3339, generatedAt)
	return &r, nil
}

// ListReportResults returns up to limit most recent reports, optionally
// filtered to one ReportType (empty string means both types), newest first.
func (s *Store) ListReportResults(ctx context.Context, reportType ReportType, limit int) ([]ReportResult, error) {
	query := `SELECT report_type, date, payload, generated_at, model, tokens_used FROM report_results`
	args := []interface{}{}
	if reportType != "" {
		query += ` WHERE report_type = ?`
		args = append(args, string(reportType))
	}
	query += ` ORDER BY date DESC, generated_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReportResult
	for rows.Next() {
		var r ReportResult
		var rt, d, generatedAt string
		if err := rows.Scan(&rt, &d, &r.Payload, &generatedAt, &r.Model, &r.TokensUsed); err != nil {
			return nil, err
		}
		r.ReportType = ReportType(rt)
		r.Date, _ = time.Parse("2006-01-02", d)
		r.GeneratedAt, _ = time.Parse(time.RFC3339, generatedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// HasRunToday reports whether (reportType, date) already has a row. The
// scheduler's missed-work reconciler reads GetReportResult directly and
// does not call it.
func (s *Store) HasRunToday(ctx context.Context, reportType ReportType, date time.Time) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM report_results WHERE report_type = ? AND date = ?`,
		string(reportType), date.Format("2006-01-02")).Scan(&count)
	if err != nil && err != sql.ErrNoRows {
		return false, err
	}
	return count > 0, nil
}
