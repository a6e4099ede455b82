// Package main provides the batch analysis CLI for the CORD-19 explorer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/fredxotic/cord19-explorer/internal/catalog"
	"github.com/fredxotic/cord19-explorer/internal/config"
	"github.com/fredxotic/cord19-explorer/internal/explorer"
	"github.com/fredxotic/cord19-explorer/internal/observability"
	"github.com/fredxotic/cord19-explorer/internal/report"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Define CLI flags.
	dataDir := flag.String("data", "", "Override the metadata directory")
	mode := flag.String("mode", "", "Dataset variant to analyze (sample, full)")
	batchSize := flag.Int("batch", 0, "Override the scan batch size")
	resultsDir := flag.String("results", "", "Override the results directory")
	chartsDir := flag.String("images", "", "Override the chart image directory")
	noCatalog := flag.Bool("no-catalog", false, "Skip recording the run in the catalog")
	history := flag.Int("history", 0, "List the N most recent runs instead of analyzing")
	flag.Parse()

	// Load configuration (dataset and analysis settings from env/config file).
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Apply flag overrides and re-validate.
	if *dataDir != "" {
		cfg.Dataset.Dir = *dataDir
	}
	if *mode != "" {
		cfg.Dataset.Mode = *mode
	}
	if *batchSize > 0 {
		cfg.Analysis.BatchSize = *batchSize
	}
	if *resultsDir != "" {
		cfg.Analysis.ResultsDir = *resultsDir
	}
	if *chartsDir != "" {
		cfg.Analysis.ChartsDir = *chartsDir
	}
	if *noCatalog {
		cfg.Catalog.Path = ""
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// Console logging on stderr keeps stdout free for the result tables.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: time.RFC3339,
	})
	logger = logger.With().Str("component", "analyze").Logger()

	// Set up context with graceful cancellation via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open the run catalog unless disabled. Analysis works without one, it
	// just leaves no history.
	var runs catalog.RunRepository
	if cfg.Catalog.Path != "" {
		store, err := catalog.Open(cfg.Catalog.Path, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("run catalog unavailable, continuing without history")
		} else {
			defer store.Close()
			if cfg.Catalog.MigrationAutoRun {
				if err := store.Migrate(); err != nil {
					return fmt.Errorf("migrate catalog: %w", err)
				}
			}
			runs = catalog.NewSQLiteRunRepository(store.DB())
		}
	}

	service := explorer.NewService(explorer.Config{
		Dataset:  cfg.Dataset,
		Analysis: cfg.Analysis,
	}, runs, nil, logger)

	if *history > 0 {
		return printHistory(ctx, service, *history)
	}

	result, err := service.RunAnalysis(ctx)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	report.PrintTables(os.Stdout, result.Data)
	fmt.Printf("\nReports written to %s, charts to %s\n", cfg.Analysis.ResultsDir, cfg.Analysis.ChartsDir)
	return nil
}

// printHistory lists the most recent catalog runs, newest first.
func printHistory(ctx context.Context, service *explorer.Service, limit int) error {
	runs, err := service.History(ctx, limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No analysis runs recorded.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Started", "Run ID", "Status", "Rows", "With Year", "Duration", "Source"})
	for _, run := range runs {
		table.Append([]string{
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.ID.String(),
			string(run.Status),
			strconv.Itoa(run.TotalRows),
			strconv.Itoa(run.RowsWithYear),
			run.Duration().Round(time.Millisecond).String(),
			run.SourcePath,
		})
	}
	table.Render()
	return nil
}
