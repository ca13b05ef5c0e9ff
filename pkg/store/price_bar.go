package store

import (
	"context"
	"database/sql"
	"sort"
	"time"
)

// PriceBar is immutable once observed: one OHLCV row per (Ticker, Date).
type PriceBar struct {
	Ticker string
	Date   time.Time
	Open   int64
	High   int64
	Low    int64
	Close  int64
	Volume int64
}

// UpsertPriceBar writes (or replaces, if the vendor revises a session) one bar.
func (s *Store) UpsertPriceBar(ctx context.Context, b PriceBar) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO price_bars (ticker, date, open, high, low, close, volume)
		VALUES (?,?,?,?,?,?,?)
		ON CONFLICT(ticker, date) DO UPDATE SET
			open=excluded.open, high=excluded.high, low=excluded.low,
			close=excluded.close, volume=excluded.volume
	`, b.Ticker, b.Date.Format("2006-01-02"), b.Open, b.High, b.Low, b.Close, b.Volume)
	return err
}

// UpsertPriceBars writes a whole history fetch in one transaction.
func (s *Store) UpsertPriceBars(ctx context.Context, bars []PriceBar) error {
	return s.WithTx(ctx, func(tx *Tx) error {
		for _, b := range bars {
			if _, err := tx.tx.ExecContext(ctx, `
				INSERT INTO price_bars (ticker, date, open, high, low, close, volume)
				VALUES (?,?,?,?,?,?,?)
				ON CONFLICT(ticker, date) DO UPDATE SET
					open=excluded.open, high=excluded.high, low=excluded.low,
					close=excluded.close, volume=excluded.volume
			`, b.Ticker, b.Date.Format("2006-01-02"), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetPriceBars returns bars for ticker within [start, end], ascending by date.
func (s *Store) GetPriceBars(ctx context.Context, ticker string, start, end time.Time) ([]PriceBar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ticker, date, open, high, low, close, volume
		FROM price_bars WHERE ticker = ? AND date BETWEEN ? AND ?
		ORDER BY date ASC
	`, ticker, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PriceBar
	for rows.Next() {
		var b PriceBar
		var date string
		if err := rows.Scan(&b.Ticker, &date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		b.Date, _ = time.Parse("2006-01-02", date)
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, rows.Err()
}

// LatestBarBefore returns the most recent bar strictly before (or on) date.
func (s *Store) LatestBarBefore(ctx context.Context, ticker string, date time.Time) (*PriceBar, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT ticker, date, open, high, low, close, volume
		FROM price_bars WHERE ticker = ? AND date <= ?
		ORDER BY date DESC LIMIT 1
	`, ticker, date.Format("2006-01-02"))

	var b PriceBar
	var d string
	err := row.Scan(&b.Ticker, &d, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b.Date, _ = time.Parse("2006-01-02", d)
	return &b, nil
}
