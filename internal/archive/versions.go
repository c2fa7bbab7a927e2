package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/utsmok/ea-cli/internal/catalog"
)

// AddResult reports what one Add batch did.
type AddResult struct {
	Inserted int
	Ignored  int
	Rejected []RowError
}

// UpdateResult reports what one Update batch did.
type UpdateResult struct {
	Updated   int
	Unchanged int
	Rejected  []RowError
}

// Add inserts the genuinely new rows of a batch as chain roots.
//
// Rows whose material_id already has an active row are ignored: existing
// data is authoritative and Add never overwrites it. Rows sharing a
// duplicated material_id within the batch are rejected per-row. The whole
// batch is one transaction; on error nothing is applied.
func (a *Archive) Add(ctx context.Context, batch *catalog.Batch) (AddResult, error) {
	var res AddResult
	if err := batch.Validate(); err != nil {
		return res, fmt.Errorf("invalid batch: %w", err)
	}
	dups := duplicateSet(batch)

	tx, err := a.begin(ctx)
	if err != nil {
		return res, err
	}
	defer tx.Rollback()

	now := a.now()
	for _, in := range batch.Rows {
		if dups[in.MaterialID] {
			res.Rejected = append(res.Rejected, RowError{in.MaterialID, ErrDuplicateInBatch})
			continue
		}
		existing, err := currentByMaterialID(tx, in.MaterialID)
		if err != nil {
			return AddResult{}, err
		}
		if existing != nil {
			res.Ignored++
			continue
		}

		row := in.Clone()
		row.RowID = catalog.NewRowID()
		row.PreviousVersion = ""
		row.LastModified = now
		if row.SourceDate == "" {
			row.SourceDate = batch.SourceDate
		}
		if row.WorkflowStatus == "" {
			row.WorkflowStatus = catalog.DefaultWorkflowStatus
		}
		if row.WorkflowRemarks == "" {
			row.WorkflowRemarks = catalog.DefaultWorkflowRemarks
		}
		if err := insertRow(tx, "current", row); err != nil {
			return AddResult{}, err
		}
		res.Inserted++
	}

	if err := tx.Commit(); err != nil {
		return AddResult{}, fmt.Errorf("failed to commit add batch: %w", err)
	}
	return res, nil
}

// Update supersedes the active row of every batch row whose payload (or
// faculty) actually differs from the stored one.
//
// For a changed item, atomically: the active row is copied unchanged into
// history, and a fresh active row is inserted with a new row_id and
// previous_version pointing at the superseded row. Bookkeeping columns are
// excluded from the change comparison, so metadata churn alone never
// manufactures a history entry. Items identical to their active row are
// counted unchanged and left untouched, last_modified included.
//
// material_ids with no active row are rejected with ErrUnknownItem: Update
// never creates, Add never mutates.
func (a *Archive) Update(ctx context.Context, batch *catalog.Batch) (UpdateResult, error) {
	var res UpdateResult
	if err := batch.Validate(); err != nil {
		return res, fmt.Errorf("invalid batch: %w", err)
	}
	dups := duplicateSet(batch)

	tx, err := a.begin(ctx)
	if err != nil {
		return res, err
	}
	defer tx.Rollback()

	now := a.now()
	for _, in := range batch.Rows {
		if dups[in.MaterialID] {
			res.Rejected = append(res.Rejected, RowError{in.MaterialID, ErrDuplicateInBatch})
			continue
		}
		old, err := currentByMaterialID(tx, in.MaterialID)
		if err != nil {
			return UpdateResult{}, err
		}
		if old == nil {
			res.Rejected = append(res.Rejected, RowError{in.MaterialID, ErrUnknownItem})
			continue
		}

		facultyChanged := in.Faculty != "" && in.Faculty != old.Faculty
		if in.PayloadEqual(old) && !facultyChanged {
			res.Unchanged++
			continue
		}

		// The chain invariant wants strictly increasing last_modified
		// from root to tip, even when two updates land within clock
		// resolution.
		ts := now
		if !ts.After(old.LastModified) {
			ts = old.LastModified.Add(time.Nanosecond)
		}

		next := in.Clone()
		next.RowID = catalog.NewRowID()
		next.PreviousVersion = old.RowID
		next.LastModified = ts
		if next.Faculty == "" {
			next.Faculty = old.Faculty
		}
		// Reviewer fields belong to reconciliation; carry them forward
		// unless the batch explicitly supplies new values.
		if next.WorkflowStatus == "" {
			next.WorkflowStatus = old.WorkflowStatus
		}
		if next.WorkflowRemarks == "" {
			next.WorkflowRemarks = old.WorkflowRemarks
		}
		if next.SourceDate == "" {
			next.SourceDate = batch.SourceDate
		}
		if next.SourceDate == "" && a.opts.PreserveSourceDate {
			next.SourceDate = old.SourceDate
		}

		if err := insertRow(tx, "history", old); err != nil {
			return UpdateResult{}, err
		}
		if _, err := tx.Exec(`DELETE FROM current WHERE row_id = ?`, old.RowID); err != nil {
			return UpdateResult{}, fmt.Errorf("failed to retire row %s: %w", old.RowID, err)
		}
		if err := insertRow(tx, "current", next); err != nil {
			return UpdateResult{}, err
		}
		res.Updated++
	}

	if err := tx.Commit(); err != nil {
		return UpdateResult{}, fmt.Errorf("failed to commit update batch: %w", err)
	}
	return res, nil
}

// duplicateSet returns the material_ids occurring more than once in the
// batch.
func duplicateSet(batch *catalog.Batch) map[string]bool {
	set := make(map[string]bool)
	for _, id := range batch.Duplicates() {
		set[id] = true
	}
	return set
}
