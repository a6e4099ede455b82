// Package domain provides domain models and business logic for the CORD-19 explorer.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Axis identifies one analysis dimension: the column (or derived token
// stream) whose value counts are aggregated.
// These values must match the database enum stored in run_aggregates.axis.
type Axis string

const (
	AxisYear    Axis = "year"
	AxisJournal Axis = "journal"
	AxisSource  Axis = "source"
	AxisWord    Axis = "word"
)

// Axes lists all analysis axes in report order.
var Axes = []Axis{AxisYear, AxisJournal, AxisSource, AxisWord}

// RunStatus represents the lifecycle states of an analysis run.
// These values must match the database enum stored in analysis_runs.status.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// IsTerminal returns true if the status represents a final state that will not change.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed:
		return true
	default:
		return false
	}
}

// AnalysisRun records one full pass over a metadata file: the source, the
// scan parameters, row accounting, and timing. Runs are written to the local
// catalog so prior results remain inspectable.
type AnalysisRun struct {
	ID uuid.UUID

	// SourcePath is the metadata file that was scanned.
	SourcePath string

	// BatchSize is the row-window size used by the streaming scan.
	BatchSize int

	// TotalRows is the number of data rows read from the source.
	TotalRows int

	// RowsWithYear is the number of rows whose publish_time parsed to a year.
	RowsWithYear int

	// Status and failure detail.
	Status       RunStatus
	ErrorMessage string

	// Timestamps.
	StartedAt   time.Time
	CompletedAt *time.Time
}

// NewAnalysisRun creates a run in the running state for the given source.
func NewAnalysisRun(sourcePath string, batchSize int) *AnalysisRun {
	return &AnalysisRun{
		ID:         uuid.New(),
		SourcePath: sourcePath,
		BatchSize:  batchSize,
		Status:     RunStatusRunning,
		StartedAt:  time.Now().UTC(),
	}
}

// Duration returns the elapsed time of the run.
// Returns elapsed time from start if still running.
func (r *AnalysisRun) Duration() time.Duration {
	if r.CompletedAt != nil {
		return r.CompletedAt.Sub(r.StartedAt)
	}
	return time.Since(r.StartedAt)
}

// Complete marks the run completed at the given time.
func (r *AnalysisRun) Complete(at time.Time) {
	at = at.UTC()
	r.Status = RunStatusCompleted
	r.CompletedAt = &at
}

// Fail marks the run failed with an error message.
func (r *AnalysisRun) Fail(at time.Time, msg string) {
	at = at.UTC()
	r.Status = RunStatusFailed
	r.ErrorMessage = msg
	r.CompletedAt = &at
}

// RunAggregate is one key/count pair produced by a run for one axis,
// stored in rank order (position 1 = highest count for top-N axes,
// ascending year for the year axis).
type RunAggregate struct {
	RunID    uuid.UUID
	Axis     Axis
	Position int
	Key      string
	Count    int
}
