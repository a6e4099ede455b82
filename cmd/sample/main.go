// Package main provides the sample extraction CLI for the CORD-19 explorer.
// It draws a small deterministic sample from the full metadata export so the
// analysis and dashboard can run on a file that fits in memory.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fredxotic/cord19-explorer/internal/config"
	"github.com/fredxotic/cord19-explorer/internal/dataset"
	"github.com/fredxotic/cord19-explorer/internal/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Define CLI flags. Defaults reproduce the committed sample.
	in := flag.String("in", "", "Input metadata CSV (default: metadata.csv in the configured data directory)")
	out := flag.String("out", "", "Output sample CSV (default: small_metadata.csv next to the input)")
	chunkSize := flag.Int("chunk-size", dataset.DefaultSampleChunkSize, "Rows read per sampling step")
	chunks := flag.Int("chunks", dataset.DefaultSampleChunks, "Leading chunks rows are drawn from")
	rowsPerChunk := flag.Int("rows-per-chunk", dataset.DefaultRowsPerChunk, "Rows kept from each chunk")
	maxRows := flag.Int("max-rows", dataset.DefaultSampleMaxRows, "Cap on total rows written")
	seed := flag.Int64("seed", dataset.DefaultSampleSeed, "Seed for the row selection")
	flag.Parse()

	// Load configuration for the data directory default.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	inPath := *in
	if inPath == "" {
		inPath = filepath.Join(cfg.Dataset.Dir, dataset.FullFileName)
	}
	outPath := *out
	if outPath == "" {
		outPath = filepath.Join(filepath.Dir(inPath), dataset.SampleFileName)
	}

	// Set up structured logging with console output for the CLI tool.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: time.RFC3339,
	})
	logger = logger.With().Str("component", "sample").Logger()

	// Set up context with graceful cancellation via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rows, err := dataset.WriteSample(ctx, inPath, outPath, dataset.SampleConfig{
		ChunkSize:    *chunkSize,
		Chunks:       *chunks,
		RowsPerChunk: *rowsPerChunk,
		MaxRows:      *maxRows,
		Seed:         *seed,
	}, logger)
	if err != nil {
		return fmt.Errorf("write sample: %w", err)
	}

	fmt.Printf("Wrote %d rows to %s\n", rows, outPath)
	return nil
}
