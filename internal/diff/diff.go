// Package diff classifies the rows of an external snapshot (typically a
// parsed review sheet) against the archive's active rows for the same keys.
//
// Classification is a pure function of the two inputs: field-by-field on
// payload columns only, order-independent, no side effects. A field present
// on one side and absent from the other is a difference, never silently
// dropped.
package diff

import (
	"sort"

	"github.com/utsmok/ea-cli/internal/catalog"
)

// Kind classifies one material_id.
type Kind int

const (
	// Unchanged: present on both sides with identical payloads.
	Unchanged Kind = iota
	// Changed: present on both sides with differing payload fields.
	Changed
	// NewInSnapshot: present in the snapshot, absent from the archive.
	NewInSnapshot
	// NewInArchive: present in the archive, absent from the snapshot.
	NewInArchive
)

func (k Kind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case Changed:
		return "changed"
	case NewInSnapshot:
		return "new in snapshot"
	case NewInArchive:
		return "new in archive"
	default:
		return "unknown"
	}
}

// FieldDiff is one differing payload column. A side that lacks the field
// reports the zero value with its Has flag unset.
type FieldDiff struct {
	Field   string
	Old     string // archive side
	New     string // snapshot side
	HasOld  bool
	HasNew  bool
}

// Result is the classification of one material_id.
type Result struct {
	MaterialID string
	Kind       Kind
	Fields     []FieldDiff // populated only for Changed
}

// Classify compares a snapshot against the archive rows for the same
// partition. Results are ordered by material_id for stable output.
func Classify(snapshot, archived []*catalog.Row) []Result {
	snapByID := make(map[string]*catalog.Row, len(snapshot))
	for _, row := range snapshot {
		snapByID[row.MaterialID] = row
	}
	archByID := make(map[string]*catalog.Row, len(archived))
	for _, row := range archived {
		archByID[row.MaterialID] = row
	}

	ids := make([]string, 0, len(snapByID)+len(archByID))
	for id := range snapByID {
		ids = append(ids, id)
	}
	for id := range archByID {
		if _, ok := snapByID[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		snap, inSnap := snapByID[id]
		arch, inArch := archByID[id]
		switch {
		case inSnap && !inArch:
			results = append(results, Result{MaterialID: id, Kind: NewInSnapshot})
		case !inSnap && inArch:
			results = append(results, Result{MaterialID: id, Kind: NewInArchive})
		default:
			fields := Fields(arch, snap)
			kind := Unchanged
			if len(fields) > 0 {
				kind = Changed
			}
			results = append(results, Result{MaterialID: id, Kind: kind, Fields: fields})
		}
	}
	return results
}

// Fields returns the payload columns that differ between an archive row and
// a snapshot row, sorted by field name. Symmetric: fields missing on either
// side are reported.
func Fields(arch, snap *catalog.Row) []FieldDiff {
	names := make(map[string]bool, len(arch.Payload)+len(snap.Payload))
	for name := range arch.Payload {
		names[name] = true
	}
	for name := range snap.Payload {
		names[name] = true
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	var diffs []FieldDiff
	for _, name := range sorted {
		oldVal, hasOld := arch.Payload[name]
		newVal, hasNew := snap.Payload[name]
		if hasOld && hasNew && oldVal == newVal {
			continue
		}
		diffs = append(diffs, FieldDiff{
			Field:  name,
			Old:    oldVal,
			New:    newVal,
			HasOld: hasOld,
			HasNew: hasNew,
		})
	}
	return diffs
}
