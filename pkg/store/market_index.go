package store

import (
	"context"
	"database/sql"
	"time"
)

// MarketIndex holds one day's KOSPI/KOSDAQ macro summary.
type MarketIndex struct {
	Date                 time.Time
	KospiClose           float64
	KospiChange          float64
	KospiChangePts       float64
	KosdaqClose          float64
	KosdaqChange         float64
	KosdaqChangePts      float64
	KospiTradingValue    int64
	KosdaqTradingValue   int64
	KospiForeignNet      int64
	KospiInstitutionNet  int64
	KospiIndividualNet   int64
	KosdaqForeignNet     int64
	KosdaqInstitutionNet int64
	KosdaqIndividualNet  int64
	Advancers            int
	Decliners            int
	Unchanged            int
}

// UpsertMarketIndex replaces the row for Date.
func (s *Store) UpsertMarketIndex(ctx context.Context, m MarketIndex) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO market_indices (
			date, kospi_close, kospi_change, kospi_change_pts,
			kosdaq_close, kosdaq_change, kosdaq_change_pts,
			kospi_trading_value, kosdaq_trading_value,
			kospi_foreign_net, kospi_institution_net, kospi_individual_net,
			kosdaq_foreign_net, kosdaq_institution_net, kosdaq_individual_net,
			advancers, decliners, unchanged
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(date) DO UPDATE SET
			kospi_close=excluded.kospi_close, kospi_change=excluded.kospi_change,
			kospi_change_pts=excluded.kospi_change_pts, kosdaq_close=excluded.kosdaq_close,
			kosdaq_change=excluded.kosdaq_change, kosdaq_change_pts=excluded.kosdaq_change_pts,
			kospi_trading_value=excluded.kospi_trading_value,
			kosdaq_trading_value=excluded.kosdaq_trading_value,
			kospi_foreign_net=excluded.kospi_foreign_net,
			kospi_institution_net=excluded.kospi_institution_net,
			kospi_individual_net=excluded.kospi_individual_net,
			kosdaq_foreign_net=excluded.kosdaq_foreign_net,
			kosdaq_institution_net=excluded.kosdaq_institution_net,
			kosdaq_individual_net=excluded.kosdaq_individual_net,
			advancers=excluded.advancers, decliners=excluded.decliners,
			unchanged=excluded.unchanged
	`, m.Date.Format("2006-01-02"), m.KospiClose, m.KospiChange, m.KospiChangePts,
		m.KosdaqClose, m.KosdaqChange, m.KosdaqChangePts, m.KospiTradingValue,
		m.KosdaqTradingValue, m.KospiForeignNet, m.KospiInstitutionNet,
		m.KospiIndividualNet, m.KosdaqForeignNet, m.KosdaqInstitutionNet,
		m.KosdaqIndividualNet, m.Advancers, m.Decliners, m.Unchanged,
	)
	return err
}

// GetMarketIndex reads one day's macro summary.
func (s *Store) GetMarketIndex(ctx context.Context, date time.Time) (*MarketIndex, error) {
	row := s.db.QueryRowContext(ctx, `SELECT
		date, kospi_close, kospi_change, kospi_change_pts,
		kosdaq_close, kosdaq_change, kosdaq_change_pts,
		kospi_trading_value, kosdaq_trading_value,
		kospi_foreign_net, kospi_institution_net, kospi_individual_net,
		kosdaq_foreign_net, kosdaq_institution_net, kosdaq_individual_net,
		advancers, decliners, unchanged
		FROM market_indices WHERE date = ?`, date.Format("2006-01-02"))

	var m MarketIndex
	var d string
	err := row.Scan(&d, &m.KospiClose, &m.KospiChange, &m.KospiChangePts,
		&m.KosdaqClose, &m.KosdaqChange, &m.KosdaqChangePts, &m.KospiTradingValue,
		&m.KosdaqTradingValue, &m.KospiForeignNet, &m.KospiInstitutionNet,
		&m.KospiIndividualNet, &m.KosdaqForeignNet, &m.KosdaqInstitutionNet,
		&m.KosdaqIndividualNet, &m.Advancers, &m.Decliners, &m.Unchanged)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.Date, _ = time.Parse("2006-01-02", d)
	return &m, nil
}
