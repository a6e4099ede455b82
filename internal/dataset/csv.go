package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fredxotic/cord19-explorer/internal/domain"
)

// CSVSource streams a metadata CSV file as batches of raw rows. It reads
// the header once at open time, verifies the required columns, and then
// yields rows on demand so no more than one batch is held in memory.
type CSVSource struct {
	path    string
	file    *os.File
	reader  *csv.Reader
	columns []string
	rows    int
	done    bool
}

// Open opens a metadata CSV file and validates its header.
//
// A missing file returns an error wrapping domain.ErrSourceNotFound. A
// header missing one of the required columns returns an error wrapping
// domain.ErrMissingColumn. Both abort before any data row is read.
func Open(path string) (*CSVSource, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.NewSourceNotFoundError(path)
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	reader := csv.NewReader(file)
	// Rows in CORD-19 exports are ragged and occasionally carry stray
	// quotes inside abstracts.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		file.Close()
		if errors.Is(err, io.EOF) {
			// An empty file has no header, so every required column is missing.
			return nil, domain.NewMissingColumnError(domain.RequiredColumns[0], path)
		}
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}

	columns := make([]string, len(header))
	copy(columns, header)

	present := make(map[string]bool, len(columns))
	for _, col := range columns {
		present[col] = true
	}
	for _, col := range domain.RequiredColumns {
		if !present[col] {
			file.Close()
			return nil, domain.NewMissingColumnError(col, path)
		}
	}

	return &CSVSource{
		path:    path,
		file:    file,
		reader:  reader,
		columns: columns,
	}, nil
}

// Columns returns the header columns in file order.
func (s *CSVSource) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// Path returns the file the source reads from.
func (s *CSVSource) Path() string {
	return s.path
}

// RowsRead returns the number of data rows read so far.
func (s *CSVSource) RowsRead() int {
	return s.rows
}

// ReadBatch reads up to n data rows and returns them keyed by column name.
// Short rows leave trailing columns absent; cells beyond the header are
// dropped. io.EOF signals exhaustion and may accompany the final short
// batch.
func (s *CSVSource) ReadBatch(n int) ([]domain.Record, error) {
	if s.done {
		return nil, io.EOF
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive, got %d", domain.ErrInvalidInput, n)
	}

	batch := make([]domain.Record, 0, n)
	for len(batch) < n {
		row, err := s.reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.done = true
				return batch, io.EOF
			}
			return batch, fmt.Errorf("reading row of %s: %w", s.path, err)
		}
		batch = append(batch, s.toRecord(row))
		s.rows++
	}
	return batch, nil
}

// toRecord maps one raw row onto the header columns.
func (s *CSVSource) toRecord(row []string) domain.Record {
	rec := make(domain.Record, len(s.columns))
	for i, col := range s.columns {
		if i >= len(row) {
			break
		}
		rec[col] = row[i]
	}
	return rec
}

// Close releases the underlying file.
func (s *CSVSource) Close() error {
	return s.file.Close()
}
