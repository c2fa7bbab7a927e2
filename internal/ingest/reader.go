// Package ingest turns a raw catalog export into a cleaned batch for the
// archive: column name normalization, null token handling, academic period
// filtering and faculty derivation.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/utsmok/ea-cli/internal/catalog"
)

// nullTokens are export cell values that mean "no value".
var nullTokens = map[string]bool{
	"":     true,
	"-":    true,
	"NA":   true,
	"None": true,
}

// NormalizeColumn rewrites an export column header to the archive's
// convention: spaces to underscores, '#' to 'count_', '*' to 'x',
// lowercase.
func NormalizeColumn(name string) string {
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "#", "count_")
	name = strings.ReplaceAll(name, "*", "x")
	return strings.ToLower(name)
}

// Options configures one ingestion run.
type Options struct {
	// SourceDate stamps the batch; zero means the file's modification
	// time is used by the caller.
	SourceDate time.Time

	// Periods restricts rows to these period values (column "period").
	// Nil means no filtering.
	Periods map[string]bool

	// Faculty derives the faculty column from the department column.
	// Nil means no derivation.
	Faculty Mapper
}

// ReadFile reads a CSV export from disk and cleans it into a batch.
func ReadFile(path string, opts Options) (*catalog.Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export: %w", err)
	}
	defer f.Close()

	if opts.SourceDate.IsZero() {
		if info, err := f.Stat(); err == nil {
			opts.SourceDate = info.ModTime()
		}
	}
	return Read(f, opts)
}

// Read cleans a CSV export into a batch. The first record is the header;
// headers are normalized, cells matching a null token become empty, rows
// outside the period filter are dropped, and the faculty column is derived
// from the department column when a mapper is configured.
func Read(r io.Reader, opts Options) (*catalog.Batch, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read export header: %w", err)
	}
	cols := make([]string, len(header))
	for i, name := range header {
		cols[i] = NormalizeColumn(name)
	}

	batch := &catalog.Batch{}
	if !opts.SourceDate.IsZero() {
		batch.SourceDate = opts.SourceDate.Format(catalog.DateFormat)
	}

	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read export line %d: %w", line+1, err)
		}
		line++

		rec := make(map[string]string, len(cols))
		for i, col := range cols {
			if i >= len(record) {
				break
			}
			val := strings.TrimSpace(record[i])
			if nullTokens[val] {
				val = ""
			}
			rec[col] = val
		}

		if opts.Periods != nil && !opts.Periods[rec["period"]] {
			continue
		}

		row := catalog.FromRecord(rec)
		if opts.Faculty != nil && row.Faculty == "" {
			row.Faculty = opts.Faculty(row.Payload["department"])
		}
		batch.Rows = append(batch.Rows, row)
	}

	if err := batch.Validate(); err != nil {
		return nil, fmt.Errorf("cleaned batch invalid: %w", err)
	}
	return batch, nil
}
