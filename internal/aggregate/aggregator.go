package aggregate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/fredxotic/cord19-explorer/internal/domain"
)

// RowSource yields successive fixed-size batches of raw rows from a tabular
// source. ReadBatch returns up to n rows; io.EOF signals exhaustion and may
// accompany the final short batch.
type RowSource interface {
	ReadBatch(n int) ([]domain.Record, error)
}

// AxisSpec describes one aggregation axis computed during a scan. Exactly
// one of Key or Tokens must be set: Key for axes where each row contributes
// at most one occurrence, Tokens for axes where a row expands into many.
type AxisSpec struct {
	Axis   domain.Axis
	Key    KeyFunc
	Tokens TokensFunc
}

// Config holds the construction parameters of an Aggregator. Batch size and
// per-axis key extraction are explicit here rather than package state so
// two aggregators with different settings can coexist.
type Config struct {
	// BatchSize is the number of rows read and counted per step. Must be
	// positive; the final batch may be shorter.
	BatchSize int

	// Clean normalizes each raw row before counting.
	Clean CleanFunc

	// Filter optionally restricts which cleaned rows are counted, applied
	// before every axis. Nil keeps all rows.
	Filter FilterFunc

	// Axes lists the aggregations computed in one pass. At least one.
	Axes []AxisSpec

	// Logger receives throttled scan progress. The zero logger is valid.
	Logger zerolog.Logger
}

// Result holds the outcome of one scan: the final frequency mapping per
// axis plus row accounting.
type Result struct {
	counts map[domain.Axis]*Counts

	// TotalRows is the number of rows read from the source, including rows
	// the filter dropped.
	TotalRows int

	// CountedRows is the number of rows that passed the filter.
	CountedRows int

	// Batches is the number of batches processed.
	Batches int
}

// Counts returns the final mapping for an axis, nil when the axis was not
// part of the scan.
func (r *Result) Counts(axis domain.Axis) *Counts {
	return r.counts[axis]
}

// Aggregator performs streaming frequency aggregation: it reads a row
// source in fixed-size batches, cleans and counts each batch, and merges
// the per-batch partial aggregates into running totals. The final totals
// are identical whatever the batch size; batch boundaries are a memory
// bound, not a semantic one.
type Aggregator struct {
	cfg    Config
	logger zerolog.Logger
}

// New creates an Aggregator, validating the configuration.
func New(cfg Config) (*Aggregator, error) {
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive, got %d", domain.ErrInvalidInput, cfg.BatchSize)
	}
	if cfg.Clean == nil {
		return nil, fmt.Errorf("%w: clean function is required", domain.ErrInvalidInput)
	}
	if len(cfg.Axes) == 0 {
		return nil, fmt.Errorf("%w: at least one axis is required", domain.ErrInvalidInput)
	}
	for _, spec := range cfg.Axes {
		if spec.Axis == "" {
			return nil, fmt.Errorf("%w: axis name is required", domain.ErrInvalidInput)
		}
		if (spec.Key == nil) == (spec.Tokens == nil) {
			return nil, fmt.Errorf("%w: axis %s must set exactly one of key or tokens", domain.ErrInvalidInput, spec.Axis)
		}
	}

	return &Aggregator{
		cfg:    cfg,
		logger: cfg.Logger,
	}, nil
}

// Scan consumes the source and returns the final per-axis totals.
//
// The method:
//  1. Reads batches of up to BatchSize rows until the source reports io.EOF.
//     The final batch may be short; no fixed total row count is assumed.
//  2. Cleans every row of the batch and applies the row filter.
//  3. Counts each axis over the cleaned batch into a partial aggregate.
//  4. Merges each partial into the axis total by key-wise addition, walking
//     the partial in its insertion order so first-occurrence order in the
//     totals does not depend on where batch boundaries fell.
//
// The accumulating totals are owned by this call and discarded with the
// returned Result; nothing persists across scans. Cancelling the context
// stops the scan between batches.
func (a *Aggregator) Scan(ctx context.Context, src RowSource) (*Result, error) {
	result := &Result{
		counts: make(map[domain.Axis]*Counts, len(a.cfg.Axes)),
	}
	for _, spec := range a.cfg.Axes {
		result.counts[spec.Axis] = NewCounts()
	}

	progress := rate.NewLimiter(rate.Every(time.Second), 1)
	cleaned := make([]domain.CleanedRecord, 0, a.cfg.BatchSize)

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scan cancelled: %w", err)
		}

		batch, readErr := src.ReadBatch(a.cfg.BatchSize)
		if len(batch) > 0 {
			cleaned = cleaned[:0]
			for _, row := range batch {
				rec := a.cfg.Clean(row)
				if a.cfg.Filter != nil && !a.cfg.Filter(rec) {
					continue
				}
				cleaned = append(cleaned, rec)
			}

			for _, spec := range a.cfg.Axes {
				partial := a.countBatch(cleaned, spec)
				result.counts[spec.Axis].Merge(partial)
			}

			result.TotalRows += len(batch)
			result.CountedRows += len(cleaned)
			result.Batches++

			if progress.Allow() {
				a.logger.Debug().
					Int("rows", result.TotalRows).
					Int("batches", result.Batches).
					Msg("scan progress")
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read batch: %w", readErr)
		}
	}

	return result, nil
}

// countBatch computes the partial aggregate of one cleaned batch for one axis.
func (a *Aggregator) countBatch(cleaned []domain.CleanedRecord, spec AxisSpec) *Counts {
	if spec.Tokens != nil {
		return CountTokens(cleaned, spec.Tokens)
	}
	return Count(cleaned, spec.Key)
}
