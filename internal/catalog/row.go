// Package catalog defines the row and batch model shared by the archive
// engine and its collaborators (ingestion, sheet I/O).
//
// A Row is one version of a catalog item. The payload columns from the
// upstream export are carried as an opaque map and never interpreted here;
// only the bookkeeping columns (identity, version chain, reviewer fields)
// are first-class.
package catalog

import (
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
)

// Bookkeeping column names. Incoming tabular data may carry any of these as
// regular columns (review sheets round-trip them); decoding lifts them out of
// the payload so payload comparison never sees them.
const (
	ColMaterialID      = "material_id"
	ColRowID           = "row_id"
	ColFaculty         = "faculty"
	ColSourceDate      = "retrieved_from_source"
	ColLastModified    = "last_modified"
	ColPreviousVersion = "previous_version"
	ColWorkflowStatus  = "workflow_status"
	ColWorkflowRemarks = "workflow_remarks"
	ColAddedToSheet    = "added_to_sheet_on"
)

// Reviewer field defaults applied at ingestion. Reviewer values only change
// through reconciliation.
const (
	DefaultWorkflowStatus  = "To Do"
	DefaultWorkflowRemarks = "-"
)

// DateFormat is the layout for export batch dates (retrieved_from_source).
const DateFormat = "2006-01-02"

// Row is one version of a catalog item.
type Row struct {
	// RowID is the surrogate key, unique across current and history.
	// Version chain links point at RowIDs.
	RowID string

	// MaterialID is the stable external identifier. Unique among active
	// rows only; history holds one row per superseded version.
	MaterialID string

	// Faculty is the derived classification, set at ingestion from the
	// department mapping and correctable on update.
	Faculty string

	// Payload holds every original export column. The engine never
	// interprets keys or values.
	Payload map[string]string

	// SourceDate is the date of the export batch that produced this
	// version, formatted as DateFormat. May be empty on rows built from
	// review sheets.
	SourceDate string

	// LastModified is the instant this version was written to the store.
	LastModified time.Time

	// PreviousVersion is the RowID of the immediately preceding version,
	// empty at the chain root.
	PreviousVersion string

	WorkflowStatus  string
	WorkflowRemarks string
}

// NewRowID returns a fresh surrogate key. UUIDs guarantee row_ids are never
// reused, even across separate runs against the same store.
func NewRowID() string {
	return uuid.NewString()
}

// Validate checks the fields a row must carry before it can enter a batch.
func (r *Row) Validate() error {
	if r.MaterialID == "" {
		return fmt.Errorf("material_id is required")
	}
	if r.SourceDate != "" {
		if _, err := time.Parse(DateFormat, r.SourceDate); err != nil {
			return fmt.Errorf("retrieved_from_source %q: want %s", r.SourceDate, DateFormat)
		}
	}
	return nil
}

// PayloadEqual reports whether two rows carry identical payload columns.
// Bookkeeping columns live outside the payload and are excluded by
// construction.
func (r *Row) PayloadEqual(other *Row) bool {
	return maps.Equal(r.Payload, other.Payload)
}

// Clone returns a deep copy. The archive hands out clones so callers can
// never mutate a stored row through a returned pointer.
func (r *Row) Clone() *Row {
	c := *r
	c.Payload = maps.Clone(r.Payload)
	return &c
}

// FromRecord builds a Row from a flat column→value record, lifting
// bookkeeping columns out of the payload. Unknown columns stay in the
// payload verbatim.
func FromRecord(rec map[string]string) *Row {
	row := &Row{Payload: make(map[string]string, len(rec))}
	for col, val := range rec {
		switch col {
		case ColMaterialID:
			row.MaterialID = val
		case ColRowID:
			row.RowID = val
		case ColFaculty:
			row.Faculty = val
		case ColSourceDate:
			row.SourceDate = val
		case ColPreviousVersion:
			row.PreviousVersion = val
		case ColWorkflowStatus:
			row.WorkflowStatus = val
		case ColWorkflowRemarks:
			row.WorkflowRemarks = val
		case ColLastModified:
			if val != "" {
				if t, err := time.Parse(time.RFC3339Nano, val); err == nil {
					row.LastModified = t
				}
			}
		case ColAddedToSheet:
			// Sheet-only bookkeeping, not part of the archived row.
		default:
			row.Payload[col] = val
		}
	}
	return row
}

// Record flattens the row back to a column→value map, bookkeeping columns
// included. The inverse of FromRecord.
func (r *Row) Record() map[string]string {
	rec := maps.Clone(r.Payload)
	if rec == nil {
		rec = make(map[string]string, 8)
	}
	rec[ColMaterialID] = r.MaterialID
	rec[ColRowID] = r.RowID
	rec[ColFaculty] = r.Faculty
	rec[ColSourceDate] = r.SourceDate
	rec[ColPreviousVersion] = r.PreviousVersion
	rec[ColWorkflowStatus] = r.WorkflowStatus
	rec[ColWorkflowRemarks] = r.WorkflowRemarks
	if !r.LastModified.IsZero() {
		rec[ColLastModified] = r.LastModified.UTC().Format(time.RFC3339Nano)
	}
	return rec
}
