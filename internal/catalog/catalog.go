// Package catalog persists analysis runs and their per-axis aggregates in a
// local SQLite database, so earlier results stay inspectable after the
// process exits.
//
// The catalog is optional: a dashboard or analysis run works without one,
// it just loses run history.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// DriverName is the database/sql driver the catalog uses.
const DriverName = "sqlite"

// DSN builds the SQLite connection string for a catalog file. Foreign keys
// enforce the run to aggregate relationship, WAL lets the dashboard read
// while an analysis writes, and the busy timeout covers the overlap.
func DSN(path string) string {
	return fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)",
		path,
	)
}

// DBTX is the database interface supporting both connection and transaction
// contexts. Both *sql.DB and *sql.Tx satisfy it, so repositories work inside
// and outside transactions.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)

// Store is an open catalog database.
type Store struct {
	db     *sql.DB
	path   string
	logger zerolog.Logger
}

// Open opens (creating if needed) the catalog at path. Parent directories
// are created. The schema is not touched; run Migrate or a Migrator first.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("catalog path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open(DriverName, DSN(path))
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", path, err)
	}
	// SQLite serializes writers; a single connection keeps SQLITE_BUSY out
	// of the write path.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening catalog %s: %w", path, err)
	}

	logger.Info().Str("path", path).Msg("run catalog opened")
	return &Store{
		db:     db,
		path:   path,
		logger: logger,
	}, nil
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the catalog file path.
func (s *Store) Path() string {
	return s.path
}

// Ping verifies the catalog connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the catalog database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing catalog: %w", err)
	}
	s.logger.Info().Str("path", s.path).Msg("run catalog closed")
	return nil
}

// Migrate brings the catalog schema up to date using the embedded
// migrations.
func (s *Store) Migrate() error {
	m, err := NewMigrator(s.path, s.logger)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}

// WithTransaction executes fn within a transaction. If fn returns an error
// or panics, the transaction is rolled back; otherwise it is committed.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error().
					Err(rbErr).
					Interface("panic", p).
					Msg("failed to rollback transaction after panic")
			}
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error().
				Err(rbErr).
				AnErr("original_error", err).
				Msg("failed to rollback transaction")
			return fmt.Errorf("transaction error: %w (rollback error: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
