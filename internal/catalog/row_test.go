package catalog

import (
	"testing"
	"time"
)

func TestFromRecord_LiftsBookkeeping(t *testing.T) {
	rec := map[string]string{
		"material_id":           "M1",
		"faculty":               "TNW",
		"retrieved_from_source": "2026-08-01",
		"workflow_status":       "Done",
		"workflow_remarks":      "ok",
		"previous_version":      "abc",
		"added_to_sheet_on":     "2026-08-02",
		"title":                 "A",
		"classification":        "open",
	}
	row := FromRecord(rec)

	if row.MaterialID != "M1" || row.Faculty != "TNW" || row.SourceDate != "2026-08-01" {
		t.Errorf("bookkeeping fields not lifted: %+v", row)
	}
	if row.WorkflowStatus != "Done" || row.WorkflowRemarks != "ok" || row.PreviousVersion != "abc" {
		t.Errorf("reviewer/chain fields not lifted: %+v", row)
	}
	if len(row.Payload) != 2 {
		t.Errorf("payload = %v, want only title and classification", row.Payload)
	}
	for _, col := range []string{ColMaterialID, ColFaculty, ColWorkflowStatus, ColAddedToSheet} {
		if _, ok := row.Payload[col]; ok {
			t.Errorf("bookkeeping column %s leaked into payload", col)
		}
	}
}

func TestRecord_RoundTrip(t *testing.T) {
	row := &Row{
		RowID:           "r1",
		MaterialID:      "M1",
		Faculty:         "EEMCS",
		SourceDate:      "2026-08-01",
		LastModified:    time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC),
		PreviousVersion: "r0",
		WorkflowStatus:  "To Do",
		WorkflowRemarks: "-",
		Payload:         map[string]string{"title": "A"},
	}
	back := FromRecord(row.Record())

	if back.MaterialID != row.MaterialID || back.RowID != row.RowID ||
		back.PreviousVersion != row.PreviousVersion || back.SourceDate != row.SourceDate {
		t.Errorf("round trip lost identity fields: %+v", back)
	}
	if !back.LastModified.Equal(row.LastModified) {
		t.Errorf("last_modified = %v, want %v", back.LastModified, row.LastModified)
	}
	if !back.PayloadEqual(row) {
		t.Errorf("payload = %v, want %v", back.Payload, row.Payload)
	}
}

func TestValidate_RequiresMaterialID(t *testing.T) {
	row := &Row{Payload: map[string]string{"title": "A"}}
	if err := row.Validate(); err == nil {
		t.Error("Validate() accepted a row without material_id")
	}
}

func TestValidate_SourceDateFormat(t *testing.T) {
	row := &Row{MaterialID: "M1", SourceDate: "01-08-2026"}
	if err := row.Validate(); err == nil {
		t.Error("Validate() accepted a malformed source date")
	}
}

func TestBatch_Duplicates(t *testing.T) {
	b := &Batch{Rows: []*Row{
		{MaterialID: "M1"}, {MaterialID: "M2"}, {MaterialID: "M1"}, {MaterialID: "M3"}, {MaterialID: "M2"},
	}}
	dups := b.Duplicates()
	if len(dups) != 2 || dups[0] != "M1" || dups[1] != "M2" {
		t.Errorf("Duplicates() = %v, want [M1 M2] in first-seen order", dups)
	}
}

func TestClone_Isolated(t *testing.T) {
	row := &Row{MaterialID: "M1", Payload: map[string]string{"title": "A"}}
	c := row.Clone()
	c.Payload["title"] = "B"
	if row.Payload["title"] != "A" {
		t.Error("Clone() shares the payload map with the original")
	}
}

func TestNewRowID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := NewRowID()
		if seen[id] {
			t.Fatalf("NewRowID() repeated %s", id)
		}
		seen[id] = true
	}
}
