// Package report writes the analysis artifacts: bar chart images, key,count
// CSV summaries, a narrative summary text file, and console tables.
//
// Every artifact is derived from the same per-axis frequency entries the
// aggregation pipeline produced; the package holds no state beyond its
// output directories.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/fredxotic/cord19-explorer/internal/aggregate"
	"github.com/fredxotic/cord19-explorer/internal/observability"
)

// Artifact file names, fixed so downstream consumers can find them.
const (
	YearChartFile    = "publications_by_year.png"
	JournalChartFile = "top_journals.png"
	SourceChartFile  = "top_sources.png"
	WordChartFile    = "top_words.png"

	YearCSVFile    = "yearly_counts.csv"
	JournalCSVFile = "top_journals.csv"
	SourceCSVFile  = "top_sources.csv"
	WordCSVFile    = "top_words.csv"

	SummaryFile = "summary.txt"
)

// Chart titles, shared by the file writer and the dashboard chart endpoints.
const (
	YearChartTitle    = "Publications by Year"
	JournalChartTitle = "Top Journals"
	SourceChartTitle  = "Top Sources"
	WordChartTitle    = "Top Title Words"
)

// Data holds everything one report run writes. The entry slices are in
// display order: years ascending, ranked axes by count descending.
type Data struct {
	// Source is the metadata file the analysis read.
	Source string

	// TotalRows is the number of rows scanned.
	TotalRows int

	// RowsWithYear is the number of rows with a parseable publication year.
	RowsWithYear int

	// Years maps publication year to paper count, ascending by year.
	Years []aggregate.Entry

	// Journals holds the top journals by paper count, descending.
	Journals []aggregate.Entry

	// Sources holds the top sources by paper count, descending.
	Sources []aggregate.Entry

	// Words holds the top title words by occurrence count, descending.
	Words []aggregate.Entry

	// GeneratedAt is when the analysis finished.
	GeneratedAt time.Time
}

// Config holds the construction parameters of a Writer.
type Config struct {
	// ResultsDir is where CSV and text reports are written.
	ResultsDir string

	// ChartsDir is where chart images are written.
	ChartsDir string
}

// Writer writes all report artifacts for a finished analysis.
type Writer struct {
	cfg     Config
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a report writer. Metrics may be nil.
func NewWriter(cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *Writer {
	return &Writer{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
	}
}

// WriteAll writes every artifact: four chart images, four CSV summaries,
// and the narrative summary. Directories are created as needed. Axes with
// no entries skip their chart but still write an empty CSV, so a degenerate
// dataset degrades instead of failing the run.
func (w *Writer) WriteAll(data Data) error {
	if err := os.MkdirAll(w.cfg.ResultsDir, 0o755); err != nil {
		return fmt.Errorf("creating results dir: %w", err)
	}
	if err := os.MkdirAll(w.cfg.ChartsDir, 0o755); err != nil {
		return fmt.Errorf("creating charts dir: %w", err)
	}

	csvs := []struct {
		file    string
		header  []string
		entries []aggregate.Entry
	}{
		{YearCSVFile, []string{"year", "count"}, data.Years},
		{JournalCSVFile, []string{"journal", "count"}, data.Journals},
		{SourceCSVFile, []string{"source", "count"}, data.Sources},
		{WordCSVFile, []string{"word", "count"}, data.Words},
	}
	for _, c := range csvs {
		path := filepath.Join(w.cfg.ResultsDir, c.file)
		if err := w.writeCountsCSV(path, c.header, c.entries); err != nil {
			return err
		}
	}

	charts := []struct {
		file    string
		title   string
		entries []aggregate.Entry
	}{
		{YearChartFile, YearChartTitle, data.Years},
		{JournalChartFile, JournalChartTitle, data.Journals},
		{SourceChartFile, SourceChartTitle, data.Sources},
		{WordChartFile, WordChartTitle, data.Words},
	}
	for _, c := range charts {
		path := filepath.Join(w.cfg.ChartsDir, c.file)
		if err := w.writeChart(path, c.title, c.entries); err != nil {
			return err
		}
	}

	if err := w.writeSummary(filepath.Join(w.cfg.ResultsDir, SummaryFile), data); err != nil {
		return err
	}

	w.logger.Info().
		Str("results_dir", w.cfg.ResultsDir).
		Str("charts_dir", w.cfg.ChartsDir).
		Msg("report artifacts written")
	return nil
}

// writeCountsCSV writes one key,count summary file.
func (w *Writer) writeCountsCSV(path string, header []string, entries []aggregate.Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header of %s: %w", path, err)
	}
	for _, e := range entries {
		if err := cw.Write([]string{e.Key, strconv.Itoa(e.Count)}); err != nil {
			return fmt.Errorf("writing row of %s: %w", path, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}

	if w.metrics != nil {
		w.metrics.RecordReportWritten(filepath.Base(path))
	}
	return nil
}

// writeSummary writes the narrative findings file.
func (w *Writer) writeSummary(path string, data Data) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	fmt.Fprintln(f, "CORD-19 Metadata Analysis Summary")
	fmt.Fprintln(f, "=================================")
	fmt.Fprintf(f, "Generated: %s\n", data.GeneratedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(f, "Source: %s\n", data.Source)
	fmt.Fprintln(f)
	fmt.Fprintf(f, "Total papers analyzed: %d\n", data.TotalRows)
	fmt.Fprintf(f, "Papers with a publication year: %d\n", data.RowsWithYear)
	fmt.Fprintln(f)

	if year, count, ok := maxEntry(data.Years); ok {
		fmt.Fprintf(f, "Year with the most publications: %s (%d papers)\n", year, count)
	} else {
		fmt.Fprintln(f, "Year with the most publications: none (no dated papers)")
	}
	if journal, count, ok := firstEntry(data.Journals); ok {
		fmt.Fprintf(f, "Most prolific journal: %s (%d papers)\n", journal, count)
	} else {
		fmt.Fprintln(f, "Most prolific journal: none")
	}
	if source, count, ok := firstEntry(data.Sources); ok {
		fmt.Fprintf(f, "Largest source: %s (%d papers)\n", source, count)
	}
	if word, count, ok := firstEntry(data.Words); ok {
		fmt.Fprintf(f, "Most frequent title word: %s (%d occurrences)\n", word, count)
	}

	if w.metrics != nil {
		w.metrics.RecordReportWritten(SummaryFile)
	}
	return nil
}

// maxEntry returns the entry with the highest count, used for the year
// findings where the slice is ordered by key rather than count.
func maxEntry(entries []aggregate.Entry) (string, int, bool) {
	if len(entries) == 0 {
		return "", 0, false
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if e.Count > best.Count {
			best = e
		}
	}
	return best.Key, best.Count, true
}

// firstEntry returns the head of a count-descending slice.
func firstEntry(entries []aggregate.Entry) (string, int, bool) {
	if len(entries) == 0 {
		return "", 0, false
	}
	return entries[0].Key, entries[0].Count, true
}
