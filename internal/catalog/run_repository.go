package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/fredxotic/cord19-explorer/internal/domain"
)

// RunRepository manages analysis run records and their aggregates.
//
// All methods return domain-specific errors: domain.ErrNotFound when a run
// does not exist, domain.ErrInvalidInput for bad parameters. Database
// errors are wrapped with context.
type RunRepository interface {
	// Create inserts a new run in the running state.
	Create(ctx context.Context, run *domain.AnalysisRun) error

	// Finish updates a run's row counts, status, error message, and
	// completion time.
	Finish(ctx context.Context, run *domain.AnalysisRun) error

	// Get retrieves a run by ID.
	Get(ctx context.Context, id uuid.UUID) (*domain.AnalysisRun, error)

	// List returns the most recent runs, newest first.
	List(ctx context.Context, limit int) ([]*domain.AnalysisRun, error)

	// SaveAggregates replaces all stored aggregates for a run.
	SaveAggregates(ctx context.Context, runID uuid.UUID, aggregates []domain.RunAggregate) error

	// GetAggregates returns one axis of a run's aggregates in position order.
	GetAggregates(ctx context.Context, runID uuid.UUID, axis domain.Axis) ([]domain.RunAggregate, error)
}
