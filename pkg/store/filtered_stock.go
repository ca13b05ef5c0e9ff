package store

import (
	"context"
	"database/sql"
	"time"
)

// Market is the listing venue of a FilteredStock.
type Market string

const (
	MarketKOSPI  Market = "KOSPI"
	MarketKOSDAQ Market = "KOSDAQ"
	MarketOther  Market = "OTHER"
)

// FilterStatus flags whether a ticker passed the external universe batch.
type FilterStatus string

const (
	FilterPass    FilterStatus = "pass"
	FilterFail    FilterStatus = "fail"
	FilterUnknown FilterStatus = "unknown"
)

// FilteredStock is produced by an external daily batch; core only reads it.
type FilteredStock struct {
	Ticker           string
	Name             string
	Market           Market
	BPS              float64
	PER              float64
	PBR              float64
	EPS              float64
	Div              float64
	DPS              float64
	ROE              float64
	DebtRatio        float64
	YoYRevenueGrowth float64
	MarketCap        float64
	TradingValue     float64
	FilterStatus     FilterStatus
	LastFilterCheck  time.Time
	UpdatedAt        time.Time
}

// UpsertFilteredStock replaces the full row keyed on Ticker.
func (s *Store) UpsertFilteredStock(ctx context.Context, st FilteredStock) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO filtered_stocks (
			ticker, name, market, bps, per, pbr, eps, div, dps, roe,
			debt_ratio, yoy_revenue_growth, market_cap, trading_value,
			filter_status, last_filter_check, updated_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(ticker) DO UPDATE SET
			name=excluded.name, market=excluded.market, bps=excluded.bps,
			per=excluded.per, pbr=excluded.pbr, eps=excluded.eps,
			div=excluded.div, dps=excluded.dps, roe=excluded.roe,
			debt_ratio=excluded.debt_ratio,
			yoy_revenue_growth=excluded.yoy_revenue_growth,
			market_cap=excluded.market_cap, trading_value=excluded.trading_value,
			filter_status=excluded.filter_status,
			last_filter_check=excluded.last_filter_check,
			updated_at=excluded.updated_at
	`,
		st.Ticker, st.Name, string(st.Market), st.BPS, st.PER, st.PBR, st.EPS,
		st.Div, st.DPS, st.ROE, st.DebtRatio, st.YoYRevenueGrowth, st.MarketCap,
		st.TradingValue, string(st.FilterStatus), timeOrNull(st.LastFilterCheck),
		st.UpdatedAt.Format(time.RFC3339),
	)
	return err
}

// GetFilteredStock reads one ticker's universe row.
func (s *Store) GetFilteredStock(ctx context.Context, ticker string) (*FilteredStock, error) {
	row := s.db.QueryRowContext(ctx, `SELECT
		ticker, name, market, bps, per, pbr, eps, div, dps, roe,
		debt_ratio, yoy_revenue_growth, market_cap, trading_value,
		filter_status, last_filter_check, updated_at
		FROM filtered_stocks WHERE ticker = ?`, ticker)
	return scanFilteredStock(row)
}

// ListPassingStocks returns every ticker with filter_status=pass — the
// universe that C5/C6/C7 are allowed to operate on.
func (s *Store) ListPassingStocks(ctx context.Context) ([]FilteredStock, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		ticker, name, market, bps, per, pbr, eps, div, dps, roe,
		debt_ratio, yoy_revenue_growth, market_cap, trading_value,
		filter_status, last_filter_check, updated_at
		FROM filtered_stocks WHERE filter_status = ?`, string(FilterPass))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FilteredStock
	for rows.Next() {
		st, err := scanFilteredStock(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

// MostRecentUpdate returns the latest filtered_stocks.updated_at, used by
// the scheduler's missed-work reconciler to decide whether financial_batch
// ran today.
func (s *Store) MostRecentUpdate(ctx context.Context) (time.Time, error) {
	var raw sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(updated_at) FROM filtered_stocks`).Scan(&raw); err != nil {
		return time.Time{}, err
	}
	if !raw.Valid || raw.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw.String)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFilteredStock(row rowScanner) (*FilteredStock, error) {
	var st FilteredStock
	var market, status string
	var lastCheck sql.NullString
	var updatedAt string

	err := row.Scan(
		&st.Ticker, &st.Name, &market, &st.BPS, &st.PER, &st.PBR, &st.EPS,
		&st.Div, &st.DPS, &st.ROE, &st.DebtRatio, &st.YoYRevenueGrowth,
		&st.MarketCap, &st.TradingValue, &status, &lastCheck, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	st.Market = Market(market)
	st.FilterStatus = FilterStatus(status)
	if lastCheck.Valid && lastCheck.String != "" {
		st.LastFilterCheck, _ = time.Parse(time.RFC3339, lastCheck.String)
	}
	st.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &st, nil
}

func timeOrNull(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339)
}
