package archive

import (
	"errors"
	"fmt"
)

// Common errors returned by archive operations.
//
// Per-row validation failures (duplicate id in a batch, unknown item,
// invalid workflow value) are not returned from the operation itself: they
// are collected in the result's Rejected list as RowError values wrapping
// one of these sentinels, and the rest of the batch proceeds. Check them
// with errors.Is:
//
//	if errors.Is(rej.Err, archive.ErrUnknownItem) {
//	    // the row targeted a material_id absent from current
//	}
var (
	// ErrDuplicateInBatch is reported for every row whose material_id
	// occurs more than once in the same batch. It is ambiguous which of
	// the duplicates should win, so none of them is applied.
	ErrDuplicateInBatch = errors.New("duplicate material_id in batch")

	// ErrUnknownItem is reported when an update targets a material_id
	// that has no active row. Update never creates; use Add.
	ErrUnknownItem = errors.New("material_id not present in current")

	// ErrInvalidWorkflowValue is reported when reconciliation input
	// carries a workflow_status outside the allowed set.
	ErrInvalidWorkflowValue = errors.New("workflow_status not in allowed set")

	// ErrNotSeeded is reported when reconciliation input names a
	// material_id absent from final_data. Reconciliation never introduces
	// items; seed final_data from the archive first.
	ErrNotSeeded = errors.New("material_id not seeded in final_data")

	// ErrIntegrityViolation indicates a broken version-chain invariant
	// (cycle, dangling previous_version link, non-increasing
	// last_modified). This is an internal error: a correct engine never
	// produces it, and any enclosing transaction is rolled back in full.
	ErrIntegrityViolation = errors.New("version chain integrity violation")

	// ErrClosed is returned when an operation is attempted on a closed
	// archive handle.
	ErrClosed = errors.New("archive is closed")
)

// RowError ties a per-row rejection to the material_id that caused it.
type RowError struct {
	MaterialID string
	Err        error
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s: %v", e.MaterialID, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// IsRejection reports whether err is one of the per-row validation
// sentinels, i.e. an input problem the caller can fix and re-submit, as
// opposed to a store or integrity failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrDuplicateInBatch) ||
		errors.Is(err, ErrUnknownItem) ||
		errors.Is(err, ErrInvalidWorkflowValue) ||
		errors.Is(err, ErrNotSeeded)
}
