// Package explorer coordinates the analysis pipeline: dataset resolution,
// the streaming scan, report artifacts, the run catalog, and the
// parameterized dashboard views computed over in-memory snapshots.
package explorer

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fredxotic/cord19-explorer/internal/aggregate"
	"github.com/fredxotic/cord19-explorer/internal/catalog"
	"github.com/fredxotic/cord19-explorer/internal/config"
	"github.com/fredxotic/cord19-explorer/internal/dataset"
	"github.com/fredxotic/cord19-explorer/internal/domain"
	"github.com/fredxotic/cord19-explorer/internal/observability"
	"github.com/fredxotic/cord19-explorer/internal/report"
	"github.com/fredxotic/cord19-explorer/internal/tokenize"
)

// Config holds the dataset and analysis settings the service operates with.
type Config struct {
	Dataset  config.DatasetConfig
	Analysis config.AnalysisConfig
}

// Service runs analyses and serves dashboard views. A nil run repository
// disables the catalog: analyses still produce artifacts, they just leave
// no history. Metrics may be nil as well.
type Service struct {
	cfg       Config
	tokenizer *tokenize.Tokenizer
	writer    *report.Writer
	runs      catalog.RunRepository
	snapshots *SnapshotCache
	metrics   *observability.Metrics
	logger    zerolog.Logger
}

// NewService creates the explorer service.
func NewService(cfg Config, runs catalog.RunRepository, metrics *observability.Metrics, logger zerolog.Logger) *Service {
	writer := report.NewWriter(report.Config{
		ResultsDir: cfg.Analysis.ResultsDir,
		ChartsDir:  cfg.Analysis.ChartsDir,
	}, logger, metrics)

	return &Service{
		cfg:       cfg,
		tokenizer: tokenize.New(tokenize.Config{MinTokenLength: cfg.Analysis.MinTokenLength}),
		writer:    writer,
		runs:      runs,
		snapshots: NewSnapshotCache(cfg.Dataset, cfg.Analysis.BatchSize, metrics, logger),
		metrics:   metrics,
		logger:    logger,
	}
}

// AnalysisResult is what one full analysis produced: the catalog run record
// and the report data behind the written artifacts.
type AnalysisResult struct {
	Run  *domain.AnalysisRun
	Data report.Data
}

// RunAnalysis streams the configured metadata file through the aggregator,
// writes all report artifacts, and records the run in the catalog. Catalog
// failures degrade to warnings; artifact failures fail the run.
func (s *Service) RunAnalysis(ctx context.Context) (*AnalysisResult, error) {
	selection, err := dataset.Resolve(s.cfg.Dataset.Dir, dataset.Mode(s.cfg.Dataset.Mode))
	if err != nil {
		return nil, err
	}

	run := domain.NewAnalysisRun(selection.Path, s.cfg.Analysis.BatchSize)
	logger := observability.WithRunContext(s.logger, run.ID.String(), selection.Path)
	logger.Info().
		Str("mode", s.cfg.Dataset.Mode).
		Bool("thinned", selection.Thinned).
		Int("batch_size", run.BatchSize).
		Msg("analysis started")

	recorded := false
	if s.runs != nil {
		if err := s.runs.Create(ctx, run); err != nil {
			logger.Warn().Err(err).Msg("failed to record run start")
		} else {
			recorded = true
		}
	}

	src, err := dataset.Open(selection.Path)
	if err != nil {
		s.finishFailed(ctx, run, recorded, err, logger)
		return nil, err
	}
	defer src.Close()

	var rows aggregate.RowSource = src
	if selection.Thinned {
		rows = dataset.NewThinned(src, dataset.ThinnedConfig{
			ChunkSize:    s.cfg.Dataset.ThinChunkSize,
			KeepFraction: s.cfg.Dataset.ThinKeepFraction,
			MaxChunks:    s.cfg.Dataset.ThinMaxChunks,
			Seed:         s.cfg.Dataset.ThinSeed,
		})
	}

	agg, err := aggregate.New(aggregate.Config{
		BatchSize: s.cfg.Analysis.BatchSize,
		Clean:     s.cleanRecord,
		Axes: []aggregate.AxisSpec{
			{Axis: domain.AxisYear, Key: aggregate.YearKey},
			{Axis: domain.AxisJournal, Key: aggregate.JournalKey},
			{Axis: domain.AxisSource, Key: aggregate.SourceKey},
			{Axis: domain.AxisWord, Tokens: s.titleTokens},
		},
		Logger: logger,
	})
	if err != nil {
		s.finishFailed(ctx, run, recorded, err, logger)
		return nil, err
	}

	start := time.Now()
	if s.metrics != nil {
		s.metrics.RecordScanStarted()
	}

	result, err := agg.Scan(ctx, rows)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordScanFailed(time.Since(start).Seconds())
		}
		s.finishFailed(ctx, run, recorded, err, logger)
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordScanCompleted(result.TotalRows, result.Batches, time.Since(start).Seconds())
	}

	data := report.Data{
		Source:       selection.Path,
		TotalRows:    result.TotalRows,
		RowsWithYear: result.Counts(domain.AxisYear).Sum(),
		Years:        sortYearEntries(result.Counts(domain.AxisYear).Entries()),
		Journals:     aggregate.TopN(result.Counts(domain.AxisJournal), s.cfg.Analysis.TopJournals),
		Sources:      aggregate.TopN(result.Counts(domain.AxisSource), s.cfg.Analysis.TopSources),
		Words:        aggregate.TopN(result.Counts(domain.AxisWord), s.cfg.Analysis.TopWords),
		GeneratedAt:  time.Now().UTC(),
	}

	if err := s.writer.WriteAll(data); err != nil {
		s.finishFailed(ctx, run, recorded, err, logger)
		return nil, err
	}

	run.TotalRows = result.TotalRows
	run.RowsWithYear = data.RowsWithYear
	run.Complete(time.Now())
	if recorded {
		if err := s.runs.Finish(ctx, run); err != nil {
			logger.Warn().Err(err).Msg("failed to record run completion")
		} else if err := s.runs.SaveAggregates(ctx, run.ID, buildRunAggregates(run.ID, data)); err != nil {
			logger.Warn().Err(err).Msg("failed to record run aggregates")
		}
	}

	logger.Info().
		Int("total_rows", run.TotalRows).
		Int("rows_with_year", run.RowsWithYear).
		Dur("duration", run.Duration()).
		Msg("analysis completed")

	return &AnalysisResult{Run: run, Data: data}, nil
}

// History returns the most recent catalog runs, newest first. Without a
// catalog it returns an empty history.
func (s *Service) History(ctx context.Context, limit int) ([]*domain.AnalysisRun, error) {
	if s.runs == nil {
		s.logger.Debug().Msg("run catalog disabled, history is empty")
		return nil, nil
	}
	return s.runs.List(ctx, limit)
}

// finishFailed marks the run failed and records it when the start was
// recorded.
func (s *Service) finishFailed(ctx context.Context, run *domain.AnalysisRun, recorded bool, cause error, logger zerolog.Logger) {
	run.Fail(time.Now(), cause.Error())
	if !recorded {
		return
	}
	if err := s.runs.Finish(ctx, run); err != nil {
		logger.Warn().Err(err).Msg("failed to record run failure")
	}
}

// cleanRecord normalizes one raw row and counts publish_time values that
// were present but did not parse.
func (s *Service) cleanRecord(row domain.Record) domain.CleanedRecord {
	rec := domain.CleanRecord(row)
	if s.metrics != nil && rec.Year == nil && strings.TrimSpace(row.Get(domain.ColumnPublishTime)) != "" {
		s.metrics.RecordFieldParseFailure(domain.ColumnPublishTime)
	}
	return rec
}

// titleTokens expands a row into its title word tokens.
func (s *Service) titleTokens(rec domain.CleanedRecord) []string {
	return s.tokenizer.Tokens(rec.Title)
}

// buildRunAggregates flattens report data into catalog aggregate rows,
// numbering positions within each axis from one.
func buildRunAggregates(runID uuid.UUID, data report.Data) []domain.RunAggregate {
	var aggs []domain.RunAggregate
	add := func(axis domain.Axis, entries []aggregate.Entry) {
		for i, e := range entries {
			aggs = append(aggs, domain.RunAggregate{
				RunID:    runID,
				Axis:     axis,
				Position: i + 1,
				Key:      e.Key,
				Count:    e.Count,
			})
		}
	}
	add(domain.AxisYear, data.Years)
	add(domain.AxisJournal, data.Journals)
	add(domain.AxisSource, data.Sources)
	add(domain.AxisWord, data.Words)
	return aggs
}

// sortYearEntries orders year entries ascending by numeric year. Keys come
// from the year axis, so they always parse.
func sortYearEntries(entries []aggregate.Entry) []aggregate.Entry {
	sorted := make([]aggregate.Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		yi, _ := strconv.Atoi(sorted[i].Key)
		yj, _ := strconv.Atoi(sorted[j].Key)
		return yi < yj
	})
	return sorted
}
