package httpserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fredxotic/cord19-explorer/internal/dataset"
	"github.com/fredxotic/cord19-explorer/internal/domain"
	"github.com/fredxotic/cord19-explorer/internal/explorer"
)

// handleView parses the panel settings, fetches one view, and writes it
// as JSON. Every /api/v1 view endpoint goes through here.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request, fetch func(ctx context.Context, mode dataset.Mode, p explorer.Params) (interface{}, error)) {
	mode, params, err := s.parseViewQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := fetch(r.Context(), mode, params)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// getOverview handles GET /api/v1/overview.
func (s *Server) getOverview(w http.ResponseWriter, r *http.Request) {
	s.handleView(w, r, func(ctx context.Context, mode dataset.Mode, p explorer.Params) (interface{}, error) {
		return s.service.Overview(ctx, mode, p)
	})
}

// getYears handles GET /api/v1/years.
func (s *Server) getYears(w http.ResponseWriter, r *http.Request) {
	s.handleView(w, r, func(ctx context.Context, mode dataset.Mode, p explorer.Params) (interface{}, error) {
		return s.service.Years(ctx, mode, p)
	})
}

// getJournals handles GET /api/v1/journals.
func (s *Server) getJournals(w http.ResponseWriter, r *http.Request) {
	s.handleView(w, r, func(ctx context.Context, mode dataset.Mode, p explorer.Params) (interface{}, error) {
		return s.service.Journals(ctx, mode, p)
	})
}

// getSources handles GET /api/v1/sources.
func (s *Server) getSources(w http.ResponseWriter, r *http.Request) {
	s.handleView(w, r, func(ctx context.Context, mode dataset.Mode, p explorer.Params) (interface{}, error) {
		return s.service.Sources(ctx, mode, p)
	})
}

// getWords handles GET /api/v1/words.
func (s *Server) getWords(w http.ResponseWriter, r *http.Request) {
	s.handleView(w, r, func(ctx context.Context, mode dataset.Mode, p explorer.Params) (interface{}, error) {
		return s.service.Words(ctx, mode, p)
	})
}

// getSample handles GET /api/v1/sample.
func (s *Server) getSample(w http.ResponseWriter, r *http.Request) {
	s.handleView(w, r, func(ctx context.Context, mode dataset.Mode, p explorer.Params) (interface{}, error) {
		return s.service.Sample(ctx, mode, p)
	})
}

// downloadSampleCSV handles GET /api/v1/sample.csv. It streams the
// filtered rows as a CSV attachment. The body is buffered so a failure
// mid-write still produces a clean error response.
func (s *Server) downloadSampleCSV(w http.ResponseWriter, r *http.Request) {
	mode, params, err := s.parseViewQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	rows, err := s.service.WriteFilteredCSV(r.Context(), mode, params, &buf)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="cord19_filtered.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Filtered-Rows", strconv.Itoa(rows))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Debug().Err(err).Msg("csv download aborted")
	}
}

// listRuns handles GET /api/v1/runs. It returns recent analysis runs,
// newest first. Without a run catalog the list is empty.
func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit, _, err := queryInt(r.URL.Query(), paramLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if limit < 0 {
		writeError(w, http.StatusBadRequest, "limit must not be negative")
		return
	}

	if s.runs == nil {
		writeJSON(w, http.StatusOK, listRunsResponse{Runs: []runResponse{}})
		return
	}

	runs, err := s.runs.List(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := listRunsResponse{
		Runs:       make([]runResponse, len(runs)),
		TotalCount: len(runs),
	}
	for i, run := range runs {
		resp.Runs[i] = domainRunToResponse(run)
	}
	writeJSON(w, http.StatusOK, resp)
}

// getRun handles GET /api/v1/runs/{runID}. It returns one run together
// with its stored aggregates for every axis.
func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := parseUUID(w, chi.URLParam(r, "runID"), "run_id")
	if !ok {
		return
	}

	if s.runs == nil {
		writeError(w, http.StatusNotFound, "run catalog is disabled")
		return
	}

	run, err := s.runs.Get(r.Context(), runID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	detail := runDetailResponse{
		Run:        domainRunToResponse(run),
		Aggregates: make(map[string][]aggregateEntryResponse, len(domain.Axes)),
	}
	for _, axis := range domain.Axes {
		aggs, err := s.runs.GetAggregates(r.Context(), runID, axis)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		entries := make([]aggregateEntryResponse, len(aggs))
		for i, a := range aggs {
			entries[i] = aggregateEntryResponse{
				Position: a.Position,
				Key:      a.Key,
				Count:    a.Count,
			}
		}
		detail.Aggregates[string(axis)] = entries
	}

	writeJSON(w, http.StatusOK, detail)
}

// writeDomainError maps domain errors to appropriate HTTP status codes
// and writes a JSON error response. Internal error details are not
// leaked to clients.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrSourceNotFound):
		writeError(w, http.StatusServiceUnavailable, "dataset not available")
	case errors.Is(err, domain.ErrMissingColumn):
		writeError(w, http.StatusInternalServerError, "dataset is malformed")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
		} else {
			writeError(w, http.StatusBadRequest, "invalid input")
		}
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// parseUUID parses a UUID from a string, writing a 400 error response if invalid.
// Returns the parsed UUID and true on success, or uuid.Nil and false on failure.
// The parse error details are not included to avoid echoing potentially malicious input.
func parseUUID(w http.ResponseWriter, s, fieldName string) (uuid.UUID, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be a valid UUID", fieldName))
		return uuid.Nil, false
	}
	return id, true
}
