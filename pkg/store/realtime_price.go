package store

import (
	"context"
	"database/sql"
	"time"
)

// MarketStatus is the RealtimePrice's session-phase label at write time.
type MarketStatus string

const (
	MarketStatusPreMarket  MarketStatus = "pre_market"
	MarketStatusOpen       MarketStatus = "open"
	MarketStatusClosed     MarketStatus = "closed"
	MarketStatusAfterHours MarketStatus = "after_hours"
)

// RealtimePrice is written by the poller every cycle; unique by Ticker.
type RealtimePrice struct {
	Ticker        string
	Current       int64
	ChangeRate    float64
	ChangeAmount  int64
	Volume        int64
	Open          int64
	High          int64
	Low           int64
	TradingValue  int64
	MarketStatus  MarketStatus
	DataSource    string
	UpdatedAt     time.Time
}

// Fresh reports whether the row is younger than maxAge. current_price=0
// rows are never considered live quotes regardless of age (§3 invariant).
func (p RealtimePrice) Fresh(maxAge time.Duration) bool {
	if p.Current == 0 {
		return false
	}
	return time.Since(p.UpdatedAt) <= maxAge
}

// UpsertRealtimePrice replaces the full row under the Ticker key.
func (s *Store) UpsertRealtimePrice(ctx context.Context, p RealtimePrice) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO realtime_prices (
			ticker, current_price, change_rate, change_amount, volume,
			open, high, low, trading_value, market_status, data_source, updated_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(ticker) DO UPDATE SET
			current_price=excluded.current_price, change_rate=excluded.change_rate,
			change_amount=excluded.change_amount, volume=excluded.volume,
			open=excluded.open, high=excluded.high, low=excluded.low,
			trading_value=excluded.trading_value, market_status=excluded.market_status,
			data_source=excluded.data_source, updated_at=excluded.updated_at
	`,
		p.Ticker, p.Current, p.ChangeRate, p.ChangeAmount, p.Volume, p.Open,
		p.High, p.Low, p.TradingValue, string(p.MarketStatus), p.DataSource,
		p.UpdatedAt.Format(time.RFC3339),
	)
	return err
}

// UpsertRealtimePrices writes a batch within one transaction — used by
// the poller at the end of each batch call.
func (s *Store) UpsertRealtimePrices(ctx context.Context, prices []RealtimePrice) error {
	return s.WithTx(ctx, func(tx *Tx) error {
		for _, p := range prices {
			if _, err := tx.tx.ExecContext(ctx, `
				INSERT INTO realtime_prices (
					ticker, current_price, change_rate, change_amount, volume,
					open, high, low, trading_value, market_status, data_source, updated_at
				) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
				ON CONFLICT(ticker) DO UPDATE SET
					current_price=excluded.current_price, change_rate=excluded.change_rate,
					change_amount=excluded.change_amount, volume=excluded.volume,
					open=excluded.open, high=excluded.high, low=excluded.low,
					trading_value=excluded.trading_value, market_status=excluded.market_status,
					data_source=excluded.data_source, updated_at=excluded.updated_at
			`,
				p.Ticker, p.Current, p.ChangeRate, p.ChangeAmount, p.Volume, p.Open,
				p.High, p.Low, p.TradingValue, string(p.MarketStatus), p.DataSource,
				p.UpdatedAt.Format(time.RFC3339),
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetRealtimePrice reads one ticker's hot-cache row.
func (s *Store) GetRealtimePrice(ctx context.Context, ticker string) (*RealtimePrice, error) {
	row := s.db.QueryRowContext(ctx, `SELECT
		ticker, current_price, change_rate, change_amount, volume,
		open, high, low, trading_value, market_status, data_source, updated_at
		FROM realtime_prices WHERE ticker = ?`, ticker)
	return scanRealtimePrice(row)
}

// GetRealtimePrices returns only rows younger than staleness; stale rows
// are silently omitted (§4.1 realtimeBulk contract).
func (s *Store) GetRealtimePrices(ctx context.Context, tickers []string, staleness time.Duration) (map[string]RealtimePrice, error) {
	result := make(map[string]RealtimePrice, len(tickers))
	for _, t := range tickers {
		p, err := s.GetRealtimePrice(ctx, t)
		if err != nil {
			return nil, err
		}
		if p != nil && p.Fresh(staleness) {
			result[t] = *p
		}
	}
	return result, nil
}

func scanRealtimePrice(row rowScanner) (*RealtimePrice, error) {
	var p RealtimePrice
	var status, updatedAt string

	err := row.Scan(
		&p.Ticker, &p.Current, &p.ChangeRate, &p.ChangeAmount, &p.Volume,
		&p.Open, &p.High, &p.Low, &p.TradingValue, &status, &p.DataSource, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.MarketStatus = MarketStatus(status)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}
