package archive

import (
	"context"
	"errors"
	"maps"
	"testing"

	"github.com/utsmok/ea-cli/internal/catalog"
)

func seedOne(t *testing.T, a *Archive, row *catalog.Row) {
	t.Helper()
	ctx := context.Background()
	if _, err := a.Add(ctx, mkBatch("2026-08-01", row)); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if _, err := a.SeedFinal(ctx); err != nil {
		t.Fatalf("SeedFinal() failed: %v", err)
	}
}

func TestSeedFinal_RefreshPreservesReviewerFields(t *testing.T) {
	a := openTestArchive(t, DefaultOptions())
	ctx := context.Background()
	seedOne(t, a, mkRow("M1", "A"))

	rec := &catalog.Row{MaterialID: "M1", WorkflowStatus: "Done", WorkflowRemarks: "ok"}
	if _, err := a.Reconcile(ctx, &catalog.Batch{Rows: []*catalog.Row{rec}}); err != nil {
		t.Fatalf("Reconcile() failed: %v", err)
	}

	// Archive moves on, final_data gets reseeded.
	if _, err := a.Update(ctx, mkBatch("2026-08-10", mkRow("M1", "B"))); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if _, err := a.SeedFinal(ctx); err != nil {
		t.Fatalf("SeedFinal() failed: %v", err)
	}

	rows, err := a.FinalRows(ctx, "all")
	if err != nil {
		t.Fatalf("FinalRows() failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("final_data has %d rows, want 1", len(rows))
	}
	if rows[0].Payload["title"] != "B" {
		t.Errorf("payload title = %q, want refreshed %q", rows[0].Payload["title"], "B")
	}
	if rows[0].WorkflowStatus != "Done" || rows[0].WorkflowRemarks != "ok" {
		t.Errorf("reviewer fields = %q/%q, want preserved Done/ok",
			rows[0].WorkflowStatus, rows[0].WorkflowRemarks)
	}
}

func TestReconcile_ValidUpdate(t *testing.T) {
	a := openTestArchive(t, DefaultOptions())
	ctx := context.Background()
	seedOne(t, a, mkRow("M1", "A"))

	res, err := a.Reconcile(ctx, &catalog.Batch{Rows: []*catalog.Row{
		{MaterialID: "M1", WorkflowStatus: "Done", WorkflowRemarks: "ok"},
	}})
	if err != nil {
		t.Fatalf("Reconcile() failed: %v", err)
	}
	if res.Updated != 1 || len(res.Rejected) != 0 {
		t.Fatalf("Reconcile() = %+v, want updated=1", res)
	}

	rows, _ := a.FinalRows(ctx, "all")
	if rows[0].WorkflowStatus != "Done" || rows[0].WorkflowRemarks != "ok" {
		t.Errorf("final_data reviewer fields = %q/%q, want Done/ok",
			rows[0].WorkflowStatus, rows[0].WorkflowRemarks)
	}
}

func TestReconcile_InvalidStatusRejected(t *testing.T) {
	a := openTestArchive(t, DefaultOptions())
	ctx := context.Background()
	seedOne(t, a, mkRow("M2", "A"))

	res, err := a.Reconcile(ctx, &catalog.Batch{Rows: []*catalog.Row{
		{MaterialID: "M2", WorkflowStatus: "Bogus"},
	}})
	if err != nil {
		t.Fatalf("Reconcile() failed: %v", err)
	}
	if res.Updated != 0 || len(res.Rejected) != 1 {
		t.Fatalf("Reconcile() = %+v, want one rejection", res)
	}
	if !errors.Is(res.Rejected[0].Err, ErrInvalidWorkflowValue) {
		t.Errorf("rejection = %v, want ErrInvalidWorkflowValue", res.Rejected[0].Err)
	}

	// The invalid value must not have been written.
	rows, _ := a.FinalRows(ctx, "all")
	if rows[0].WorkflowStatus == "Bogus" {
		t.Error("invalid workflow_status written to final_data")
	}
}

func TestReconcile_UnseededRejected(t *testing.T) {
	a := openTestArchive(t, DefaultOptions())
	ctx := context.Background()

	res, err := a.Reconcile(ctx, &catalog.Batch{Rows: []*catalog.Row{
		{MaterialID: "M9", WorkflowStatus: "Done"},
	}})
	if err != nil {
		t.Fatalf("Reconcile() failed: %v", err)
	}
	if len(res.Rejected) != 1 || !errors.Is(res.Rejected[0].Err, ErrNotSeeded) {
		t.Errorf("Reconcile() = %+v, want ErrNotSeeded rejection", res)
	}
}

func TestReconcile_NeverTouchesPayload(t *testing.T) {
	a := openTestArchive(t, DefaultOptions())
	ctx := context.Background()
	seedOne(t, a, mkRow("M1", "A"))

	before, _ := a.FinalRows(ctx, "all")
	wantPayload := maps.Clone(before[0].Payload)

	// A tampered snapshot: reviewer edited payload columns they do not
	// own, plus the fields they do.
	tampered := &catalog.Row{
		MaterialID:      "M1",
		WorkflowStatus:  "In Progress",
		WorkflowRemarks: "under review",
		Payload: map[string]string{
			"title":          "REWRITTEN",
			"classification": "definitely fine",
			"new_column":     "injected",
		},
	}
	if _, err := a.Reconcile(ctx, &catalog.Batch{Rows: []*catalog.Row{tampered}}); err != nil {
		t.Fatalf("Reconcile() failed: %v", err)
	}

	after, _ := a.FinalRows(ctx, "all")
	if !maps.Equal(after[0].Payload, wantPayload) {
		t.Errorf("payload changed by reconciliation: got %v, want %v", after[0].Payload, wantPayload)
	}
	if after[0].WorkflowStatus != "In Progress" || after[0].WorkflowRemarks != "under review" {
		t.Errorf("reviewer fields = %q/%q, want the reconciled values",
			after[0].WorkflowStatus, after[0].WorkflowRemarks)
	}
}

func TestReconcile_CustomStatusSet(t *testing.T) {
	opts := DefaultOptions()
	opts.Statuses = []string{"not checked", "checked"}
	a := openTestArchive(t, opts)
	ctx := context.Background()
	seedOne(t, a, mkRow("M1", "A"))

	res, err := a.Reconcile(ctx, &catalog.Batch{Rows: []*catalog.Row{
		{MaterialID: "M1", WorkflowStatus: "checked"},
	}})
	if err != nil {
		t.Fatalf("Reconcile() failed: %v", err)
	}
	if res.Updated != 1 {
		t.Errorf("Reconcile() = %+v, want the injected status set honored", res)
	}

	res, err = a.Reconcile(ctx, &catalog.Batch{Rows: []*catalog.Row{
		{MaterialID: "M1", WorkflowStatus: "Done"},
	}})
	if err != nil {
		t.Fatalf("Reconcile() failed: %v", err)
	}
	if len(res.Rejected) != 1 {
		t.Errorf("default status accepted despite custom set: %+v", res)
	}
}
