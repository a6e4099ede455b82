package dataset

import (
	"errors"
	"io"
	"math"
	"math/rand"
	"sort"

	"github.com/fredxotic/cord19-explorer/internal/aggregate"
	"github.com/fredxotic/cord19-explorer/internal/domain"
)

const (
	// DefaultThinChunkSize is the number of rows drawn from the underlying
	// source per thinning step.
	DefaultThinChunkSize = 10000

	// DefaultKeepFraction is the share of each chunk kept.
	DefaultKeepFraction = 0.10

	// DefaultMaxChunks bounds how many chunks are read from the full
	// export before the source reports exhaustion.
	DefaultMaxChunks = 5

	// DefaultThinSeed fixes the sampling so repeated loads of the same
	// file see the same rows.
	DefaultThinSeed = 42
)

// ThinnedConfig holds the construction parameters of a ThinnedSource.
type ThinnedConfig struct {
	// ChunkSize is the number of rows drawn per thinning step.
	ChunkSize int

	// KeepFraction is the share of each chunk kept, in (0, 1].
	KeepFraction float64

	// MaxChunks caps how many chunks are read. Zero means the default;
	// a negative value reads the source to exhaustion.
	MaxChunks int

	// Seed fixes the pseudo-random row selection.
	Seed int64
}

// applyDefaults sets default values for unset configuration fields.
func (c *ThinnedConfig) applyDefaults() {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultThinChunkSize
	}
	if c.KeepFraction <= 0 || c.KeepFraction > 1 {
		c.KeepFraction = DefaultKeepFraction
	}
	if c.MaxChunks == 0 {
		c.MaxChunks = DefaultMaxChunks
	}
	if c.Seed == 0 {
		c.Seed = DefaultThinSeed
	}
}

// ThinnedSource reads a row source chunk by chunk, keeps a fixed fraction
// of each chunk, and stops after a bounded number of chunks. It makes the
// multi-gigabyte full export usable on a laptop while remaining a plain
// row source to the aggregation pipeline.
//
// Row selection is seeded, so two readers over the same file yield the
// same subset. Kept rows stay in file order.
type ThinnedSource struct {
	src     aggregate.RowSource
	cfg     ThinnedConfig
	rng     *rand.Rand
	pending []domain.Record
	chunks  int
	done    bool
}

// Ensure ThinnedSource remains usable wherever a row source is expected.
var _ aggregate.RowSource = (*ThinnedSource)(nil)

// NewThinned wraps a row source with chunked thinning.
func NewThinned(src aggregate.RowSource, cfg ThinnedConfig) *ThinnedSource {
	cfg.applyDefaults()
	return &ThinnedSource{
		src: src,
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// ReadBatch returns up to n thinned rows. io.EOF signals exhaustion and
// may accompany the final short batch.
func (t *ThinnedSource) ReadBatch(n int) ([]domain.Record, error) {
	for len(t.pending) < n && !t.done {
		if err := t.fillChunk(); err != nil {
			return nil, err
		}
	}

	if len(t.pending) == 0 {
		return nil, io.EOF
	}

	serve := n
	if serve > len(t.pending) {
		serve = len(t.pending)
	}
	batch := t.pending[:serve]
	t.pending = t.pending[serve:]

	if len(t.pending) == 0 && t.done {
		return batch, io.EOF
	}
	return batch, nil
}

// fillChunk reads one chunk from the underlying source and appends its
// kept rows to the pending buffer.
func (t *ThinnedSource) fillChunk() error {
	chunk := make([]domain.Record, 0, t.cfg.ChunkSize)
	for len(chunk) < t.cfg.ChunkSize {
		batch, err := t.src.ReadBatch(t.cfg.ChunkSize - len(chunk))
		chunk = append(chunk, batch...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				t.done = true
				break
			}
			return err
		}
	}

	t.chunks++
	if t.cfg.MaxChunks > 0 && t.chunks >= t.cfg.MaxChunks {
		t.done = true
	}

	t.pending = append(t.pending, t.keep(chunk)...)
	return nil
}

// keep selects the configured fraction of a chunk, preserving file order.
func (t *ThinnedSource) keep(chunk []domain.Record) []domain.Record {
	if len(chunk) == 0 {
		return nil
	}
	k := int(math.Round(float64(len(chunk)) * t.cfg.KeepFraction))
	if k >= len(chunk) {
		return chunk
	}
	if k == 0 {
		k = 1
	}

	picked := t.rng.Perm(len(chunk))[:k]
	sort.Ints(picked)

	kept := make([]domain.Record, 0, k)
	for _, i := range picked {
		kept = append(kept, chunk[i])
	}
	return kept
}
