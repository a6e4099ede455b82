package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"

	"github.com/rs/zerolog"

	"github.com/fredxotic/cord19-explorer/internal/domain"
)

const (
	// DefaultSampleChunkSize is the number of rows read per sampling step.
	DefaultSampleChunkSize = 5000

	// DefaultSampleChunks is how many leading chunks rows are drawn from.
	DefaultSampleChunks = 4

	// DefaultRowsPerChunk is the number of rows kept from each chunk.
	DefaultRowsPerChunk = 500

	// DefaultSampleMaxRows caps the total rows written.
	DefaultSampleMaxRows = 2000

	// DefaultSampleSeed fixes the row selection so regenerating the sample
	// from the same export produces the same file.
	DefaultSampleSeed = 42
)

// SampleConfig holds the construction parameters for sample extraction.
type SampleConfig struct {
	// ChunkSize is the number of rows read per sampling step.
	ChunkSize int

	// Chunks is how many leading chunks rows are drawn from.
	Chunks int

	// RowsPerChunk is the number of rows kept from each chunk. Chunks
	// shorter than this are kept whole.
	RowsPerChunk int

	// MaxRows caps the total rows written.
	MaxRows int

	// Seed fixes the pseudo-random row selection.
	Seed int64
}

// applyDefaults sets default values for unset configuration fields.
func (c *SampleConfig) applyDefaults() {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultSampleChunkSize
	}
	if c.Chunks <= 0 {
		c.Chunks = DefaultSampleChunks
	}
	if c.RowsPerChunk <= 0 {
		c.RowsPerChunk = DefaultRowsPerChunk
	}
	if c.MaxRows <= 0 {
		c.MaxRows = DefaultSampleMaxRows
	}
	if c.Seed == 0 {
		c.Seed = DefaultSampleSeed
	}
}

// WriteSample extracts a committed sample from a full metadata export.
//
// It reads the export in fixed-size chunks, keeps a seeded random subset
// of each of the leading chunks, caps the total, and writes the kept rows
// to outPath with the original header. Drawing from several chunks instead
// of the file head keeps the sample from being all one ingestion batch.
// Returns the number of data rows written.
func WriteSample(ctx context.Context, inPath, outPath string, cfg SampleConfig, logger zerolog.Logger) (int, error) {
	cfg.applyDefaults()

	src, err := Open(inPath)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer out.Close()

	writer := csv.NewWriter(out)
	columns := src.Columns()
	if err := writer.Write(columns); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	written := 0

	for chunk := 0; chunk < cfg.Chunks && written < cfg.MaxRows; chunk++ {
		if err := ctx.Err(); err != nil {
			return written, fmt.Errorf("sampling cancelled: %w", err)
		}

		rows, readErr := readChunk(src, cfg.ChunkSize)
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return written, readErr
		}

		for _, rec := range sampleRows(rng, rows, cfg.RowsPerChunk) {
			if written >= cfg.MaxRows {
				break
			}
			line := make([]string, len(columns))
			for i, col := range columns {
				line[i] = rec.Get(col)
			}
			if err := writer.Write(line); err != nil {
				return written, fmt.Errorf("writing row: %w", err)
			}
			written++
		}

		logger.Debug().
			Int("chunk", chunk+1).
			Int("rows_written", written).
			Msg("sample chunk processed")

		if errors.Is(readErr, io.EOF) {
			break
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return written, fmt.Errorf("flushing %s: %w", outPath, err)
	}

	logger.Info().
		Str("input", inPath).
		Str("output", outPath).
		Int("rows", written).
		Msg("sample written")

	return written, nil
}

// readChunk accumulates up to size rows from the source, tolerating the
// short reads a batched reader is allowed to return.
func readChunk(src *CSVSource, size int) ([]domain.Record, error) {
	var rows []domain.Record
	for len(rows) < size {
		batch, err := src.ReadBatch(size - len(rows))
		rows = append(rows, batch...)
		if err != nil {
			return rows, err
		}
	}
	return rows, nil
}

// sampleRows keeps up to k seeded random rows of a chunk in file order.
func sampleRows(rng *rand.Rand, rows []domain.Record, k int) []domain.Record {
	if len(rows) <= k {
		return rows
	}

	picked := rng.Perm(len(rows))[:k]
	sort.Ints(picked)

	kept := make([]domain.Record, 0, k)
	for _, i := range picked {
		kept = append(kept, rows[i])
	}
	return kept
}
