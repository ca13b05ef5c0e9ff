// Package store is the single owner of all persisted tables (§1 C1).
// Every other package accesses it via scoped sessions that commit on
// clean exit and roll back on error.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kr-equities/aegis-quant/pkg/logger"
)

// Store wraps a single embedded SQLite database file.
type Store struct {
	db     *sql.DB
	logger *logger.Logger
}

// Open opens (or creates) the embedded database under dataDir and runs migrations.
func Open(dataDir string, log *logger.Logger) (*Store, error) {
	path := filepath.Join(dataDir, "aegis.db")
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(30000)&_pragma=foreign_keys(1)"

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// WAL mode tolerates only one writer; the poller, scheduler jobs and
	// handlers all funnel through this single *sql.DB.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping store: %w", err)
	}

	s := &Store{db: sqlDB, logger: log.WithField("module", "store")}
	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	s.logger.WithField("path", path).Info("Opened store")
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SqlDB exposes the underlying *sql.DB for HealthCheck-style callers.
func (s *Store) SqlDB() *sql.DB {
	return s.db
}

// HealthStatus mirrors the teacher's database health-check shape.
type HealthStatus struct {
	Healthy      bool   `json:"healthy"`
	ResponseTime string `json:"response_time"`
	Error        string `json:"error,omitempty"`
}

// HealthCheck pings the store and reports round-trip time.
func (s *Store) HealthCheck(ctx context.Context) HealthStatus {
	start := time.Now()
	err := s.db.PingContext(ctx)
	elapsed := time.Since(start)
	if err != nil {
		return HealthStatus{Healthy: false, ResponseTime: elapsed.String(), Error: err.Error()}
	}
	return HealthStatus{Healthy: true, ResponseTime: elapsed.String()}
}

// Tx is a scoped session: Commit on clean exit, Rollback on error.
type Tx struct {
	tx *sql.Tx
}

// WithTx opens one *sql.Tx, runs fn, and commits or rolls back based on
// fn's return value. This is the store's only transaction entry point
// (§3 "scoped acquisition with guaranteed release").
func (s *Store) WithTx(ctx context.Context, fn func(*Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(&Tx{tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("run tx: %w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) tableExists(name string) bool {
	var n int
	_ = s.db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	return n > 0
}

func (s *Store) ensureColumn(table, column, def string) error {
	rows, err := s.db.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return err
		}
		if name == column {
			return nil
		}
	}

	_, err = s.db.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, def))
	return err
}
