package explorer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fredxotic/cord19-explorer/internal/aggregate"
	"github.com/fredxotic/cord19-explorer/internal/config"
	"github.com/fredxotic/cord19-explorer/internal/dataset"
	"github.com/fredxotic/cord19-explorer/internal/domain"
	"github.com/fredxotic/cord19-explorer/internal/observability"
)

// Fallback year slider bounds, used when no row carries a parseable year.
const (
	FallbackYearMin = 2019
	FallbackYearMax = 2022
)

// Snapshot is one dataset held in memory for the dashboard: every cleaned
// row of the resolved (and possibly thinned) file, plus the observed year
// range. Snapshots are immutable once loaded; views treat them read-only.
type Snapshot struct {
	Source    string
	Mode      dataset.Mode
	Thinned   bool
	Rows      []domain.CleanedRecord
	TotalRows int

	// YearMin and YearMax bound the observed publication years, falling
	// back to FallbackYearMin/FallbackYearMax when no year parsed.
	YearMin int
	YearMax int

	LoadedAt time.Time
}

// SnapshotCache memoizes one Snapshot per dataset mode. The first request
// for a mode loads it; later requests reuse it. Loading holds the lock, so
// concurrent first requests wait for one load instead of racing.
type SnapshotCache struct {
	mu     sync.Mutex
	loaded map[dataset.Mode]*Snapshot

	cfg       config.DatasetConfig
	batchSize int
	metrics   *observability.Metrics
	logger    zerolog.Logger
}

// NewSnapshotCache creates an empty cache over the configured data
// directory.
func NewSnapshotCache(cfg config.DatasetConfig, batchSize int, metrics *observability.Metrics, logger zerolog.Logger) *SnapshotCache {
	return &SnapshotCache{
		loaded:    make(map[dataset.Mode]*Snapshot),
		cfg:       cfg,
		batchSize: batchSize,
		metrics:   metrics,
		logger:    logger,
	}
}

// Get returns the snapshot for a mode, loading it on first use.
func (c *SnapshotCache) Get(ctx context.Context, mode dataset.Mode) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if snap, ok := c.loaded[mode]; ok {
		if c.metrics != nil {
			c.metrics.RecordSnapshotCacheHit()
		}
		return snap, nil
	}

	snap, err := c.load(ctx, mode)
	if err != nil {
		return nil, err
	}
	c.loaded[mode] = snap
	return snap, nil
}

// load reads and cleans the entire resolved file for a mode.
func (c *SnapshotCache) load(ctx context.Context, mode dataset.Mode) (*Snapshot, error) {
	start := time.Now()

	selection, err := dataset.Resolve(c.cfg.Dir, mode)
	if err != nil {
		return nil, err
	}

	src, err := dataset.Open(selection.Path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var rows aggregate.RowSource = src
	if selection.Thinned {
		rows = dataset.NewThinned(src, dataset.ThinnedConfig{
			ChunkSize:    c.cfg.ThinChunkSize,
			KeepFraction: c.cfg.ThinKeepFraction,
			MaxChunks:    c.cfg.ThinMaxChunks,
			Seed:         c.cfg.ThinSeed,
		})
	}

	var cleaned []domain.CleanedRecord
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("snapshot load cancelled: %w", err)
		}

		batch, readErr := rows.ReadBatch(c.batchSize)
		for _, row := range batch {
			cleaned = append(cleaned, domain.CleanRecord(row))
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return nil, fmt.Errorf("loading snapshot from %s: %w", selection.Path, readErr)
		}
	}

	yearMin, yearMax := observedYearRange(cleaned)

	snap := &Snapshot{
		Source:    selection.Path,
		Mode:      mode,
		Thinned:   selection.Thinned,
		Rows:      cleaned,
		TotalRows: len(cleaned),
		YearMin:   yearMin,
		YearMax:   yearMax,
		LoadedAt:  time.Now().UTC(),
	}

	if c.metrics != nil {
		c.metrics.RecordSnapshotRefresh()
	}
	c.logger.Info().
		Str("source", selection.Path).
		Str("mode", string(mode)).
		Bool("thinned", selection.Thinned).
		Int("rows", snap.TotalRows).
		Int("year_min", yearMin).
		Int("year_max", yearMax).
		Dur("duration", time.Since(start)).
		Msg("dataset snapshot loaded")

	return snap, nil
}

// observedYearRange returns the min and max parsed year across rows, or the
// fallback range when no row has one.
func observedYearRange(rows []domain.CleanedRecord) (int, int) {
	min, max := 0, 0
	seen := false
	for _, rec := range rows {
		if rec.Year == nil {
			continue
		}
		y := *rec.Year
		if !seen {
			min, max = y, y
			seen = true
			continue
		}
		if y < min {
			min = y
		}
		if y > max {
			max = y
		}
	}
	if !seen {
		return FallbackYearMin, FallbackYearMax
	}
	return min, max
}
