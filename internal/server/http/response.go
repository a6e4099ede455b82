package httpserver

import (
	"time"

	"github.com/fredxotic/cord19-explorer/internal/domain"
)

// Run catalog response types for JSON serialization. The view endpoints
// serialize the explorer view types directly; only catalog records need
// converting here.

type runResponse struct {
	ID           string     `json:"id"`
	SourcePath   string     `json:"source_path"`
	BatchSize    int        `json:"batch_size"`
	TotalRows    int        `json:"total_rows"`
	RowsWithYear int        `json:"rows_with_year"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Duration     string     `json:"duration,omitempty"`
}

type listRunsResponse struct {
	Runs       []runResponse `json:"runs"`
	TotalCount int           `json:"total_count"`
}

type aggregateEntryResponse struct {
	Position int    `json:"position"`
	Key      string `json:"key"`
	Count    int    `json:"count"`
}

type runDetailResponse struct {
	Run        runResponse                         `json:"run"`
	Aggregates map[string][]aggregateEntryResponse `json:"aggregates"`
}

// domainRunToResponse converts an analysis run for JSON output. Duration
// is only reported for finished runs.
func domainRunToResponse(r *domain.AnalysisRun) runResponse {
	resp := runResponse{
		ID:           r.ID.String(),
		SourcePath:   r.SourcePath,
		BatchSize:    r.BatchSize,
		TotalRows:    r.TotalRows,
		RowsWithYear: r.RowsWithYear,
		Status:       string(r.Status),
		ErrorMessage: r.ErrorMessage,
		StartedAt:    r.StartedAt,
		CompletedAt:  r.CompletedAt,
	}
	if r.CompletedAt != nil {
		resp.Duration = r.Duration().String()
	}
	return resp
}
