package catalog

import (
	"fmt"
	"time"
)

// Batch is one cleaned export (or one parsed review sheet) headed for the
// archive. SourceDate applies to every row that does not carry its own.
type Batch struct {
	// SourceDate is the date of the export that produced this batch,
	// formatted as DateFormat. Empty when the batch comes from a review
	// sheet rather than a fresh export.
	SourceDate string

	Rows []*Row
}

// NewBatch builds a batch stamped with the given source date.
func NewBatch(sourceDate time.Time, rows []*Row) *Batch {
	return &Batch{
		SourceDate: sourceDate.Format(DateFormat),
		Rows:       rows,
	}
}

// Duplicates returns the material_ids that occur more than once in the
// batch, in first-seen order. Every row sharing a duplicated material_id is
// ambiguous (which version wins?) and must be rejected by the caller.
func (b *Batch) Duplicates() []string {
	seen := make(map[string]int, len(b.Rows))
	for _, row := range b.Rows {
		seen[row.MaterialID]++
	}
	var dups []string
	reported := make(map[string]bool)
	for _, row := range b.Rows {
		if seen[row.MaterialID] > 1 && !reported[row.MaterialID] {
			dups = append(dups, row.MaterialID)
			reported[row.MaterialID] = true
		}
	}
	return dups
}

// Validate checks batch-level well-formedness: the source date layout and
// each row's required fields. Duplicate material_ids are not an error here;
// the archive rejects those per-row so the rest of the batch can proceed.
func (b *Batch) Validate() error {
	if b.SourceDate != "" {
		if _, err := time.Parse(DateFormat, b.SourceDate); err != nil {
			return fmt.Errorf("batch source date %q: want %s", b.SourceDate, DateFormat)
		}
	}
	for i, row := range b.Rows {
		if err := row.Validate(); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}
