package store

// migrate applies versioned, additive schema migrations, following the
// numbered if-version-less-than-N pattern: each block is idempotent and
// records its version so re-running Open is always safe.
func (s *Store) migrate() error {
	version := 0
	_ = s.db.QueryRow(`SELECT version FROM schema_version ORDER BY version DESC LIMIT 1`).Scan(&version)

	if version < 1 {
		if _, err := s.db.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS filtered_stocks (
				ticker            TEXT PRIMARY KEY,
				name              TEXT NOT NULL,
				market            TEXT NOT NULL,
				bps               REAL NOT NULL DEFAULT 0,
				per               REAL NOT NULL DEFAULT 0,
				pbr               REAL NOT NULL DEFAULT 0,
				eps               REAL NOT NULL DEFAULT 0,
				div               REAL NOT NULL DEFAULT 0,
				dps               REAL NOT NULL DEFAULT 0,
				roe               REAL NOT NULL DEFAULT 0,
				debt_ratio        REAL NOT NULL DEFAULT 0,
				yoy_revenue_growth REAL NOT NULL DEFAULT 0,
				market_cap        REAL NOT NULL DEFAULT 0,
				trading_value     REAL NOT NULL DEFAULT 0,
				filter_status     TEXT NOT NULL DEFAULT 'unknown',
				last_filter_check TEXT,
				updated_at        TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS realtime_prices (
				ticker         TEXT PRIMARY KEY,
				current_price  INTEGER NOT NULL DEFAULT 0,
				change_rate    REAL NOT NULL DEFAULT 0,
				change_amount  INTEGER NOT NULL DEFAULT 0,
				volume         INTEGER NOT NULL DEFAULT 0,
				open           INTEGER NOT NULL DEFAULT 0,
				high           INTEGER NOT NULL DEFAULT 0,
				low            INTEGER NOT NULL DEFAULT 0,
				trading_value  INTEGER NOT NULL DEFAULT 0,
				market_status  TEXT NOT NULL DEFAULT 'closed',
				data_source    TEXT NOT NULL DEFAULT '',
				updated_at     TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS price_bars (
				ticker TEXT NOT NULL,
				date   TEXT NOT NULL,
				open   INTEGER NOT NULL,
				high   INTEGER NOT NULL,
				low    INTEGER NOT NULL,
				close  INTEGER NOT NULL,
				volume INTEGER NOT NULL,
				PRIMARY KEY (ticker, date)
			);

			CREATE TABLE IF NOT EXISTS market_indices (
				date                    TEXT PRIMARY KEY,
				kospi_close             REAL NOT NULL DEFAULT 0,
				kospi_change            REAL NOT NULL DEFAULT 0,
				kospi_change_pts        REAL NOT NULL DEFAULT 0,
				kosdaq_close            REAL NOT NULL DEFAULT 0,
				kosdaq_change           REAL NOT NULL DEFAULT 0,
				kosdaq_change_pts       REAL NOT NULL DEFAULT 0,
				kospi_trading_value     INTEGER NOT NULL DEFAULT 0,
				kosdaq_trading_value    INTEGER NOT NULL DEFAULT 0,
				kospi_foreign_net       INTEGER NOT NULL DEFAULT 0,
				kospi_institution_net   INTEGER NOT NULL DEFAULT 0,
				kospi_individual_net    INTEGER NOT NULL DEFAULT 0,
				kosdaq_foreign_net      INTEGER NOT NULL DEFAULT 0,
				kosdaq_institution_net  INTEGER NOT NULL DEFAULT 0,
				kosdaq_individual_net   INTEGER NOT NULL DEFAULT 0,
				advancers               INTEGER NOT NULL DEFAULT 0,
				decliners               INTEGER NOT NULL DEFAULT 0,
				unchanged               INTEGER NOT NULL DEFAULT 0
			);

			CREATE TABLE IF NOT EXISTS trigger_results (
				id             INTEGER PRIMARY KEY AUTOINCREMENT,
				date           TEXT NOT NULL,
				session        TEXT NOT NULL,
				ticker         TEXT NOT NULL,
				trigger_type   TEXT NOT NULL,
				name           TEXT NOT NULL,
				price          INTEGER NOT NULL,
				change_rate    REAL NOT NULL,
				volume         INTEGER NOT NULL,
				trading_value  INTEGER NOT NULL,
				composite_score REAL NOT NULL,
				detected_at    TEXT NOT NULL,
				UNIQUE (date, session, ticker, trigger_type)
			);
			CREATE INDEX IF NOT EXISTS idx_trigger_results_date_session ON trigger_results(date, session);
			CREATE INDEX IF NOT EXISTS idx_trigger_results_ticker ON trigger_results(ticker);

			CREATE TABLE IF NOT EXISTS analysis_results (
				ticker       TEXT NOT NULL,
				date         TEXT NOT NULL,
				payload      TEXT NOT NULL,
				generated_at TEXT NOT NULL,
				model        TEXT NOT NULL,
				tokens_used  INTEGER NOT NULL DEFAULT 0,
				PRIMARY KEY (ticker, date)
			);

			CREATE TABLE IF NOT EXISTS report_results (
				report_type  TEXT NOT NULL,
				date         TEXT NOT NULL,
				payload      TEXT NOT NULL,
				generated_at TEXT NOT NULL,
				model        TEXT NOT NULL,
				tokens_used  INTEGER NOT NULL DEFAULT 0,
				PRIMARY KEY (report_type, date)
			);
		`); err != nil {
			return err
		}
		if _, err := s.db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (1)`); err != nil {
			return err
		}
		version = 1
	}

	return nil
}
