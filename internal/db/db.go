package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/goran-ethernal/SubgraphWatcher/internal/logger"
	"github.com/goran-ethernal/SubgraphWatcher/internal/metrics"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/config"
	_ "github.com/mattn/go-sqlite3"
)

// Querier is satisfied by both *sql.DB and *sql.Tx, so storage helpers can run
// standalone or inside a block commit transaction.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

const metricsDB = "sqlite"

type instrumented struct {
	q Querier
}

// Instrument returns a Querier that records statement counts, latencies and
// failures of q in the database metrics.
func Instrument(q Querier) Querier {
	return &instrumented{q: q}
}

func (i *instrumented) Exec(query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := i.q.Exec(query, args...)
	observeQuery("exec", start, err)
	return res, err
}

func (i *instrumented) Query(query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := i.q.Query(query, args...)
	observeQuery("query", start, err)
	return rows, err
}

func (i *instrumented) QueryRow(query string, args ...any) *sql.Row {
	start := time.Now()
	row := i.q.QueryRow(query, args...)
	observeQuery("query_row", start, row.Err())
	return row
}

func observeQuery(operation string, start time.Time, err error) {
	metrics.DBQueryInc(metricsDB, operation)
	metrics.DBQueryDuration(metricsDB, operation, time.Since(start))
	if err != nil {
		metrics.DBErrorsInc(metricsDB, operation)
	}
}

// NewSQLiteDB creates a new SQLite DB
func NewSQLiteDB(dbPath string) (*sql.DB, error) {
	return sql.Open("sqlite3", fmt.Sprintf(
		"file:%s?_txlock=immediate&_foreign_keys=on&_journal_mode=WAL&_busy_timeout=30000",
		dbPath,
	))
}

// NewSQLiteDBFromConfig creates a new SQLite DB with the given configuration.
func NewSQLiteDBFromConfig(cfg config.DatabaseConfig) (*sql.DB, error) {
	foreignKeys := "off"
	if cfg.EnableForeignKeys {
		foreignKeys = "on"
	}

	connStr := fmt.Sprintf(
		"file:%s?_txlock=immediate&_foreign_keys=%s&_journal_mode=%s&_busy_timeout=%d",
		cfg.Path,
		foreignKeys,
		cfg.JournalMode,
		cfg.BusyTimeout,
	)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)

	pragmas := []string{
		fmt.Sprintf("PRAGMA synchronous = %s", cfg.Synchronous),
		fmt.Sprintf("PRAGMA cache_size = %d", cfg.CacheSize),
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	return db, nil
}

// WithTx runs fn inside a transaction, committing when fn returns nil.
// Any error rolls the whole transaction back.
func WithTx(ctx context.Context, db *sql.DB, log *logger.Logger, fn func(tx *sql.Tx) error) (err error) {
	start := time.Now()
	defer func() { observeQuery("tx", start, err) }()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			metrics.DBErrorsInc(metricsDB, "rollback")
			log.Errorf("failed to rollback transaction: %v", err)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Vacuum rebuilds the database file, reclaiming free pages.
func Vacuum(db *sql.DB) error {
	start := time.Now()
	_, err := db.Exec("VACUUM")
	observeQuery("vacuum", start, err)
	if err != nil {
		return fmt.Errorf("vacuum failed: %w", err)
	}
	VacuumRunsInc()
	return nil
}

// DBTotalSize returns the combined size of the database file and its -wal / -shm companions.
// Missing files count as zero bytes.
func DBTotalSize(dbPath string) (int64, error) {
	var total int64
	for _, suffix := range []string{"", "-wal", "-shm"} {
		info, err := os.Stat(dbPath + suffix)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return 0, fmt.Errorf("failed to stat %s: %w", dbPath+suffix, err)
		}
		total += info.Size()
	}

	return total, nil
}
