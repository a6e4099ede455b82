package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fredxotic/cord19-explorer/internal/domain"
)

// timeLayout is RFC 3339 with a fixed-width fraction so that stored
// timestamps sort chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// List pagination defaults and limits.
const (
	defaultListLimit = 20
	maxListLimit     = 500
)

// txBeginner is satisfied by *sql.DB but not *sql.Tx. SaveAggregates uses
// it to wrap the delete and inserts in a transaction when it holds a plain
// connection rather than an existing transaction.
type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Compile-time interface verification.
var _ RunRepository = (*SQLiteRunRepository)(nil)

// SQLiteRunRepository is a SQLite implementation of RunRepository.
type SQLiteRunRepository struct {
	db DBTX
}

// NewSQLiteRunRepository creates a new SQLite run repository.
func NewSQLiteRunRepository(db DBTX) *SQLiteRunRepository {
	return &SQLiteRunRepository{db: db}
}

// Create inserts a new analysis run.
func (r *SQLiteRunRepository) Create(ctx context.Context, run *domain.AnalysisRun) error {
	if run == nil {
		return domain.NewValidationError("run", "run cannot be nil")
	}
	if run.ID == uuid.Nil {
		return domain.NewValidationError("id", "run ID is required")
	}
	if run.SourcePath == "" {
		return domain.NewValidationError("source_path", "source path is required")
	}

	query := `
		INSERT INTO analysis_runs (
			id, source_path, batch_size,
			total_rows, rows_with_year,
			status, error_message,
			started_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		run.ID.String(), run.SourcePath, run.BatchSize,
		run.TotalRows, run.RowsWithYear,
		string(run.Status), run.ErrorMessage,
		formatTime(run.StartedAt), nullTime(run.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// Finish updates a run's counters and final status.
func (r *SQLiteRunRepository) Finish(ctx context.Context, run *domain.AnalysisRun) error {
	if run == nil {
		return domain.NewValidationError("run", "run cannot be nil")
	}

	query := `
		UPDATE analysis_runs
		SET total_rows = ?, rows_with_year = ?, status = ?, error_message = ?, completed_at = ?
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query,
		run.TotalRows, run.RowsWithYear,
		string(run.Status), run.ErrorMessage, nullTime(run.CompletedAt),
		run.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return domain.NewNotFoundError("run", run.ID.String())
	}
	return nil
}

// Get retrieves a run by its ID.
func (r *SQLiteRunRepository) Get(ctx context.Context, id uuid.UUID) (*domain.AnalysisRun, error) {
	query := `
		SELECT id, source_path, batch_size,
			total_rows, rows_with_year,
			status, error_message,
			started_at, completed_at
		FROM analysis_runs
		WHERE id = ?`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("run", id.String())
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs, newest first.
func (r *SQLiteRunRepository) List(ctx context.Context, limit int) ([]*domain.AnalysisRun, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	query := `
		SELECT id, source_path, batch_size,
			total_rows, rows_with_year,
			status, error_message,
			started_at, completed_at
		FROM analysis_runs
		ORDER BY started_at DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.AnalysisRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// SaveAggregates replaces all stored aggregates for a run. The delete and
// inserts run in one transaction when the repository holds a connection.
func (r *SQLiteRunRepository) SaveAggregates(ctx context.Context, runID uuid.UUID, aggregates []domain.RunAggregate) error {
	if runID == uuid.Nil {
		return domain.NewValidationError("run_id", "run ID is required")
	}

	if beginner, ok := r.db.(txBeginner); ok {
		tx, err := beginner.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()

		if err := saveAggregates(ctx, tx, runID, aggregates); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit aggregates: %w", err)
		}
		return nil
	}

	return saveAggregates(ctx, r.db, runID, aggregates)
}

func saveAggregates(ctx context.Context, db DBTX, runID uuid.UUID, aggregates []domain.RunAggregate) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM run_aggregates WHERE run_id = ?`, runID.String()); err != nil {
		return fmt.Errorf("failed to clear aggregates: %w", err)
	}

	query := `INSERT INTO run_aggregates (run_id, axis, position, key, count) VALUES (?, ?, ?, ?, ?)`
	for _, agg := range aggregates {
		_, err := db.ExecContext(ctx, query,
			runID.String(), string(agg.Axis), agg.Position, agg.Key, agg.Count,
		)
		if err != nil {
			return fmt.Errorf("failed to save %s aggregate %q: %w", agg.Axis, agg.Key, err)
		}
	}
	return nil
}

// GetAggregates returns one axis of a run's aggregates in position order.
func (r *SQLiteRunRepository) GetAggregates(ctx context.Context, runID uuid.UUID, axis domain.Axis) ([]domain.RunAggregate, error) {
	query := `
		SELECT run_id, axis, position, key, count
		FROM run_aggregates
		WHERE run_id = ? AND axis = ?
		ORDER BY position`

	rows, err := r.db.QueryContext(ctx, query, runID.String(), string(axis))
	if err != nil {
		return nil, fmt.Errorf("failed to get aggregates: %w", err)
	}
	defer rows.Close()

	var aggregates []domain.RunAggregate
	for rows.Next() {
		var (
			agg     domain.RunAggregate
			idRaw   string
			axisRaw string
		)
		if err := rows.Scan(&idRaw, &axisRaw, &agg.Position, &agg.Key, &agg.Count); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate: %w", err)
		}
		agg.RunID, err = uuid.Parse(idRaw)
		if err != nil {
			return nil, fmt.Errorf("invalid run ID %q: %w", idRaw, err)
		}
		agg.Axis = domain.Axis(axisRaw)
		aggregates = append(aggregates, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate aggregates: %w", err)
	}
	return aggregates, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanRun.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.AnalysisRun, error) {
	var (
		run         domain.AnalysisRun
		id          string
		status      string
		startedAt   string
		completedAt sql.NullString
	)

	err := row.Scan(
		&id, &run.SourcePath, &run.BatchSize,
		&run.TotalRows, &run.RowsWithYear,
		&status, &run.ErrorMessage,
		&startedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	run.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid run ID %q: %w", id, err)
	}
	run.Status = domain.RunStatus(status)

	run.StartedAt, err = parseTime(startedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid started_at %q: %w", startedAt, err)
	}
	if completedAt.Valid {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("invalid completed_at %q: %w", completedAt.String, err)
		}
		run.CompletedAt = &t
	}
	return &run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// nullTime converts an optional timestamp to a driver value.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
