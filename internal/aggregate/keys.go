package aggregate

import (
	"strconv"

	"github.com/fredxotic/cord19-explorer/internal/domain"
)

// KeyFunc extracts the aggregation key for a cleaned row. The second return
// reports whether the row has a key at all: rows without one (nil year) are
// excluded from that axis rather than counted under a sentinel.
type KeyFunc func(domain.CleanedRecord) (string, bool)

// TokensFunc expands a cleaned row into zero or more keys. Used for the
// word axis, where one row contributes one occurrence per kept token.
type TokensFunc func(domain.CleanedRecord) []string

// FilterFunc reports whether a cleaned row participates in the scan at all.
type FilterFunc func(domain.CleanedRecord) bool

// CleanFunc normalizes one raw row. It is total: malformed fields degrade
// to nil/sentinel values inside the returned record.
type CleanFunc func(domain.Record) domain.CleanedRecord

// YearKey keys a row by its publication year. Rows whose publish_time did
// not parse have no year sentinel and are excluded from the year axis.
func YearKey(rec domain.CleanedRecord) (string, bool) {
	if rec.Year == nil {
		return "", false
	}
	return strconv.Itoa(*rec.Year), true
}

// JournalKey keys a row by journal name; missing journals already carry the
// Unknown sentinel and count under it.
func JournalKey(rec domain.CleanedRecord) (string, bool) {
	return rec.Journal, true
}

// SourceKey keys a row by its source collection; missing sources count
// under the Unknown sentinel.
func SourceKey(rec domain.CleanedRecord) (string, bool) {
	return rec.Source, true
}

// Count folds cleaned rows into a fresh frequency mapping using a
// single-key extraction. This is the per-batch counting step of the
// streaming scan, and is also used directly over in-memory snapshots.
func Count(records []domain.CleanedRecord, key KeyFunc) *Counts {
	counts := NewCounts()
	for _, rec := range records {
		k, ok := key(rec)
		if !ok {
			continue
		}
		counts.Add(k)
	}
	return counts
}

// CountTokens folds cleaned rows into a fresh frequency mapping where each
// row contributes one occurrence per extracted token.
func CountTokens(records []domain.CleanedRecord, tokens TokensFunc) *Counts {
	counts := NewCounts()
	for _, rec := range records {
		for _, tok := range tokens(rec) {
			counts.Add(tok)
		}
	}
	return counts
}
