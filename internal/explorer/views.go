package explorer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/fredxotic/cord19-explorer/internal/aggregate"
	"github.com/fredxotic/cord19-explorer/internal/dataset"
	"github.com/fredxotic/cord19-explorer/internal/domain"
)

// Parameter panel bounds and defaults.
const (
	DefaultMinAbstractWords = 10
	MaxMinAbstractWords     = 500

	MinTopJournals     = 5
	MaxTopJournals     = 20
	DefaultTopJournals = 10

	MinTopWords     = 10
	MaxTopWords     = 30
	DefaultTopWords = 15

	MinSampleRows     = 5
	MaxSampleRows     = 50
	DefaultSampleRows = 10

	// WordCorpusLimit caps how many filtered documents feed the word view.
	WordCorpusLimit = 1000
)

// WordSource selects which text field the word view tokenizes.
type WordSource string

const (
	WordSourceTitles    WordSource = "titles"
	WordSourceAbstracts WordSource = "abstracts"
)

// Params are the dashboard panel settings. The zero value means "use the
// defaults"; Normalize resolves it against a snapshot's observed ranges.
type Params struct {
	YearMin          int        `json:"year_min"`
	YearMax          int        `json:"year_max"`
	MinAbstractWords int        `json:"min_abstract_words"`
	TopJournals      int        `json:"top_journals"`
	TopWords         int        `json:"top_words"`
	SampleRows       int        `json:"sample_rows"`
	WordSource       WordSource `json:"word_source"`
}

// DefaultParams returns the panel defaults for a snapshot: its full
// observed year range and the per-control defaults.
func DefaultParams(snap *Snapshot) Params {
	return Params{
		YearMin:          snap.YearMin,
		YearMax:          snap.YearMax,
		MinAbstractWords: DefaultMinAbstractWords,
		TopJournals:      DefaultTopJournals,
		TopWords:         DefaultTopWords,
		SampleRows:       DefaultSampleRows,
		WordSource:       WordSourceTitles,
	}
}

// Normalize clamps every parameter into its allowed range for the given
// snapshot. Zero year bounds take the observed range, a reversed range is
// swapped, and out-of-range values clamp rather than error, so any request
// resolves to a valid view.
func (p Params) Normalize(snap *Snapshot) Params {
	if p.YearMin == 0 {
		p.YearMin = snap.YearMin
	}
	if p.YearMax == 0 {
		p.YearMax = snap.YearMax
	}
	if p.YearMin > p.YearMax {
		p.YearMin, p.YearMax = p.YearMax, p.YearMin
	}
	p.YearMin = clamp(p.YearMin, snap.YearMin, snap.YearMax)
	p.YearMax = clamp(p.YearMax, snap.YearMin, snap.YearMax)

	if p.MinAbstractWords < 0 {
		p.MinAbstractWords = 0
	}
	if p.MinAbstractWords > MaxMinAbstractWords {
		p.MinAbstractWords = MaxMinAbstractWords
	}

	if p.TopJournals == 0 {
		p.TopJournals = DefaultTopJournals
	}
	p.TopJournals = clamp(p.TopJournals, MinTopJournals, MaxTopJournals)

	if p.TopWords == 0 {
		p.TopWords = DefaultTopWords
	}
	p.TopWords = clamp(p.TopWords, MinTopWords, MaxTopWords)

	if p.SampleRows == 0 {
		p.SampleRows = DefaultSampleRows
	}
	p.SampleRows = clamp(p.SampleRows, MinSampleRows, MaxSampleRows)

	if p.WordSource != WordSourceAbstracts {
		p.WordSource = WordSourceTitles
	}
	return p
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// OverviewView is the dashboard header: dataset totals, the observed year
// span, and the normalized parameters the other views were computed with.
type OverviewView struct {
	Source          string `json:"source"`
	Mode            string `json:"mode"`
	Thinned         bool   `json:"thinned"`
	TotalRows       int    `json:"total_rows"`
	FilteredRows    int    `json:"filtered_rows"`
	ObservedYearMin int    `json:"observed_year_min"`
	ObservedYearMax int    `json:"observed_year_max"`
	Params          Params `json:"params"`
}

// CountsView is one categorical axis of the current view.
type CountsView struct {
	Axis         string            `json:"axis"`
	FilteredRows int               `json:"filtered_rows"`
	Entries      []aggregate.Entry `json:"entries"`
}

// WordsView is the word-frequency axis of the current view.
type WordsView struct {
	Axis       string            `json:"axis"`
	WordSource WordSource        `json:"word_source"`
	CorpusDocs int               `json:"corpus_docs"`
	Entries    []aggregate.Entry `json:"entries"`
}

// SampleRow is one row of the sample tab.
type SampleRow struct {
	Title             string `json:"title"`
	Journal           string `json:"journal"`
	Year              *int   `json:"year"`
	AbstractWordCount int    `json:"abstract_word_count"`
}

// SampleView is the sample tab: the first rows of the filtered dataset.
type SampleView struct {
	FilteredRows int         `json:"filtered_rows"`
	Rows         []SampleRow `json:"rows"`
}

// DefaultMode returns the configured dataset mode.
func (s *Service) DefaultMode() dataset.Mode {
	return dataset.Mode(s.cfg.Dataset.Mode)
}

// CheckSource resolves the configured data directory without reading it.
// Readiness probes use it to confirm a metadata file is present.
func (s *Service) CheckSource() (dataset.Selection, error) {
	return dataset.Resolve(s.cfg.Dataset.Dir, s.DefaultMode())
}

func (s *Service) resolveMode(mode dataset.Mode) dataset.Mode {
	if mode == "" {
		return s.DefaultMode()
	}
	return mode
}

// view loads the snapshot for a mode and normalizes the parameters
// against it. Every view method starts here.
func (s *Service) view(ctx context.Context, mode dataset.Mode, params Params) (*Snapshot, Params, error) {
	snap, err := s.snapshots.Get(ctx, s.resolveMode(mode))
	if err != nil {
		return nil, Params{}, err
	}
	return snap, params.Normalize(snap), nil
}

// Overview computes the dashboard header view.
func (s *Service) Overview(ctx context.Context, mode dataset.Mode, params Params) (OverviewView, error) {
	snap, p, err := s.view(ctx, mode, params)
	if err != nil {
		return OverviewView{}, err
	}
	return OverviewView{
		Source:          snap.Source,
		Mode:            string(snap.Mode),
		Thinned:         snap.Thinned,
		TotalRows:       snap.TotalRows,
		FilteredRows:    len(filterRows(snap, p)),
		ObservedYearMin: snap.YearMin,
		ObservedYearMax: snap.YearMax,
		Params:          p,
	}, nil
}

// Years computes publication counts per year over the filtered rows,
// ascending by year.
func (s *Service) Years(ctx context.Context, mode dataset.Mode, params Params) (CountsView, error) {
	snap, p, err := s.view(ctx, mode, params)
	if err != nil {
		return CountsView{}, err
	}

	filtered := filterRows(snap, p)
	counts := aggregate.Count(filtered, aggregate.YearKey)
	return CountsView{
		Axis:         string(domain.AxisYear),
		FilteredRows: len(filtered),
		Entries:      sortYearEntries(counts.Entries()),
	}, nil
}

// Journals computes the top journals over the filtered rows.
func (s *Service) Journals(ctx context.Context, mode dataset.Mode, params Params) (CountsView, error) {
	snap, p, err := s.view(ctx, mode, params)
	if err != nil {
		return CountsView{}, err
	}

	filtered := filterRows(snap, p)
	counts := aggregate.Count(filtered, aggregate.JournalKey)
	return CountsView{
		Axis:         string(domain.AxisJournal),
		FilteredRows: len(filtered),
		Entries:      aggregate.TopN(counts, p.TopJournals),
	}, nil
}

// Sources computes the top source collections over the filtered rows. The
// panel has no source control; the report setting bounds the list.
func (s *Service) Sources(ctx context.Context, mode dataset.Mode, params Params) (CountsView, error) {
	snap, p, err := s.view(ctx, mode, params)
	if err != nil {
		return CountsView{}, err
	}

	filtered := filterRows(snap, p)
	counts := aggregate.Count(filtered, aggregate.SourceKey)
	return CountsView{
		Axis:         string(domain.AxisSource),
		FilteredRows: len(filtered),
		Entries:      aggregate.TopN(counts, s.cfg.Analysis.TopSources),
	}, nil
}

// Words computes the top words over the filtered rows, tokenizing titles or
// abstracts. The corpus is capped at WordCorpusLimit documents, taken in
// file order so the selection is deterministic.
func (s *Service) Words(ctx context.Context, mode dataset.Mode, params Params) (WordsView, error) {
	snap, p, err := s.view(ctx, mode, params)
	if err != nil {
		return WordsView{}, err
	}

	corpus := filterRows(snap, p)
	if len(corpus) > WordCorpusLimit {
		corpus = corpus[:WordCorpusLimit]
	}

	counts := aggregate.CountTokens(corpus, func(rec domain.CleanedRecord) []string {
		if p.WordSource == WordSourceAbstracts {
			return s.tokenizer.Tokens(rec.Abstract)
		}
		return s.tokenizer.Tokens(rec.Title)
	})

	return WordsView{
		Axis:       string(domain.AxisWord),
		WordSource: p.WordSource,
		CorpusDocs: len(corpus),
		Entries:    aggregate.TopN(counts, p.TopWords),
	}, nil
}

// Sample returns the first sample-rows filtered rows for the sample tab.
func (s *Service) Sample(ctx context.Context, mode dataset.Mode, params Params) (SampleView, error) {
	snap, p, err := s.view(ctx, mode, params)
	if err != nil {
		return SampleView{}, err
	}

	filtered := filterRows(snap, p)
	n := p.SampleRows
	if n > len(filtered) {
		n = len(filtered)
	}

	rows := make([]SampleRow, 0, n)
	for _, rec := range filtered[:n] {
		rows = append(rows, SampleRow{
			Title:             rec.Title,
			Journal:           rec.Journal,
			Year:              rec.Year,
			AbstractWordCount: rec.AbstractWordCount,
		})
	}
	return SampleView{
		FilteredRows: len(filtered),
		Rows:         rows,
	}, nil
}

// WriteFilteredCSV streams the whole filtered dataset as CSV, returning the
// number of data rows written. This backs the dashboard download button.
func (s *Service) WriteFilteredCSV(ctx context.Context, mode dataset.Mode, params Params, w io.Writer) (int, error) {
	snap, p, err := s.view(ctx, mode, params)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	header := []string{"title", "journal", "source", "year", "abstract_word_count"}
	if err := cw.Write(header); err != nil {
		return 0, fmt.Errorf("writing filtered CSV header: %w", err)
	}

	written := 0
	for _, rec := range filterRows(snap, p) {
		year := ""
		if rec.Year != nil {
			year = strconv.Itoa(*rec.Year)
		}
		line := []string{rec.Title, rec.Journal, rec.Source, year, strconv.Itoa(rec.AbstractWordCount)}
		if err := cw.Write(line); err != nil {
			return written, fmt.Errorf("writing filtered CSV row: %w", err)
		}
		written++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return written, fmt.Errorf("flushing filtered CSV: %w", err)
	}
	return written, nil
}

// filterRows applies the year range and abstract length filters. Rows
// without a parseable year fail the range check.
func filterRows(snap *Snapshot, p Params) []domain.CleanedRecord {
	out := make([]domain.CleanedRecord, 0, len(snap.Rows))
	for _, rec := range snap.Rows {
		if rec.Year == nil || *rec.Year < p.YearMin || *rec.Year > p.YearMax {
			continue
		}
		if rec.AbstractWordCount < p.MinAbstractWords {
			continue
		}
		out = append(out, rec)
	}
	return out
}
