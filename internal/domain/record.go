package domain

import (
	"regexp"
	"strings"
	"time"
)

// Column names in the CORD-19 metadata file.
const (
	ColumnTitle       = "title"
	ColumnAbstract    = "abstract"
	ColumnPublishTime = "publish_time"
	ColumnJournal     = "journal"
	ColumnSource      = "source_x"
)

// UnknownLabel is substituted for missing categorical fields (journal, source).
// Rows with an unknown value still count under this label rather than being
// dropped from the aggregation.
const UnknownLabel = "Unknown"

// RequiredColumns lists the columns that must be present in the source header.
// The journal and abstract columns are guarded and may be absent; every other
// analysis column is required.
var RequiredColumns = []string{ColumnTitle, ColumnPublishTime, ColumnSource}

// whitespaceRegex matches one or more whitespace characters (spaces, tabs, newlines).
var whitespaceRegex = regexp.MustCompile(`\s+`)

// publishTimeLayouts are the date formats observed in the publish_time column,
// tried in order. Full dates first, then month precision, then bare years.
var publishTimeLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	"2006 Jan 2",
	"2006 Jan",
	"2006-01",
	"January 2, 2006",
	"Jan 2, 2006",
	"2006",
}

// Record is a raw row from the source file: a mapping from column name to the
// unparsed cell value. Missing cells read as the empty string.
type Record map[string]string

// Get returns the raw value for a column, or empty string when absent.
func (r Record) Get(column string) string {
	return r[column]
}

// CleanedRecord is a Record after field-level normalization. All derived
// fields are total: unparseable input degrades to nil/sentinel values, it
// never produces an error.
type CleanedRecord struct {
	// Title is the paper title with whitespace runs collapsed.
	Title string

	// Abstract is the raw abstract text, empty when the field is missing.
	Abstract string

	// Journal is the journal name, or UnknownLabel when missing.
	Journal string

	// Source is the originating collection (source_x), or UnknownLabel when missing.
	Source string

	// Year is the publication year parsed from publish_time.
	// Nil when the field is empty or does not parse; such rows are excluded
	// from year aggregation since no year sentinel exists.
	Year *int

	// AbstractWordCount is the number of whitespace-delimited tokens in the
	// abstract, zero when the abstract is empty.
	AbstractWordCount int
}

// HasYear returns true if the publication year parsed successfully.
func (r CleanedRecord) HasYear() bool {
	return r.Year != nil
}

// CleanRecord normalizes one raw row. The transform is total: a malformed
// date yields a nil year, a missing journal or source yields UnknownLabel,
// and a missing abstract yields an empty string with word count zero.
func CleanRecord(row Record) CleanedRecord {
	rec := CleanedRecord{
		Title:    NormalizeTitle(row.Get(ColumnTitle)),
		Abstract: row.Get(ColumnAbstract),
		Journal:  strings.TrimSpace(row.Get(ColumnJournal)),
		Source:   strings.TrimSpace(row.Get(ColumnSource)),
		Year:     ParseYear(row.Get(ColumnPublishTime)),
	}

	if rec.Journal == "" {
		rec.Journal = UnknownLabel
	}
	if rec.Source == "" {
		rec.Source = UnknownLabel
	}

	rec.AbstractWordCount = WordCount(rec.Abstract)

	return rec
}

// ParseYear extracts the publication year from a raw publish_time value.
// Returns nil when the value is empty or matches none of the known layouts.
func ParseYear(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	for _, layout := range publishTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			year := t.Year()
			return &year
		}
	}

	return nil
}

// NormalizeTitle collapses whitespace runs in a title to single spaces and
// trims the ends.
func NormalizeTitle(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// WordCount returns the number of whitespace-delimited tokens in a text,
// zero for empty or all-whitespace input.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
