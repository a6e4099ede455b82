// Package dataset locates and streams the CORD-19 metadata files.
//
// The package owns everything between the filesystem and the aggregation
// pipeline: resolving which metadata file to read, streaming it in
// fixed-size batches of raw rows, thinning the full dataset down to a
// memory-bounded subset, and extracting the committed sample file.
//
// Example usage:
//
//	sel, err := dataset.Resolve(cfg.Dir, dataset.ModeSample)
//	src, err := dataset.Open(sel.Path)
//	defer src.Close()
//	result, err := agg.Scan(ctx, src)
package dataset

import (
	"os"
	"path/filepath"

	"github.com/fredxotic/cord19-explorer/internal/domain"
)

const (
	// SampleFileName is the committed small sample, the preferred input for
	// interactive use.
	SampleFileName = "small_metadata.csv"

	// FallbackSampleFileName is the older sample name still found in some
	// data directories.
	FallbackSampleFileName = "sample_metadata.csv"

	// FullFileName is the complete CORD-19 metadata export.
	FullFileName = "metadata.csv"
)

// Mode selects which dataset variant a resolution prefers.
type Mode string

const (
	// ModeSample prefers the committed sample files and falls back to a
	// thinned read of the full export when no sample exists.
	ModeSample Mode = "sample"

	// ModeFull reads the complete metadata export with thinning applied.
	ModeFull Mode = "full"
)

// Selection is the outcome of resolving a data directory: the file to read
// and whether the reader should thin it.
type Selection struct {
	// Path is the metadata file chosen.
	Path string

	// Thinned reports whether the file is the full export and should be
	// read through a ThinnedSource to bound memory.
	Thinned bool
}

// Resolve chooses the metadata file to read from dir.
//
// In ModeSample it tries the sample files in preference order and falls
// back to a thinned read of the full export. In ModeFull it requires the
// full export. When no candidate exists it returns an error wrapping
// domain.ErrSourceNotFound before any row is read.
func Resolve(dir string, mode Mode) (Selection, error) {
	if mode == ModeSample {
		for _, name := range []string{SampleFileName, FallbackSampleFileName} {
			path := filepath.Join(dir, name)
			if fileExists(path) {
				return Selection{Path: path}, nil
			}
		}
	}

	full := filepath.Join(dir, FullFileName)
	if fileExists(full) {
		return Selection{Path: full, Thinned: true}, nil
	}

	return Selection{}, domain.NewSourceNotFoundError(filepath.Join(dir, FullFileName))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
