package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/utsmok/ea-cli/internal/catalog"
)

// ReconcileResult reports what one reconciliation pass did.
type ReconcileResult struct {
	Updated  int
	Rejected []RowError
}

// SeedFinal refreshes final_data wholesale from the current archive
// snapshot: payload and archive-owned columns are overwritten from the
// active rows, new material_ids are inserted, and the reviewer fields
// (workflow_status, workflow_remarks) of already-seeded rows are preserved;
// those belong to reconciliation alone. Returns the number of rows seeded
// or refreshed.
func (a *Archive) SeedFinal(ctx context.Context) (int, error) {
	tx, err := a.begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`SELECT %s FROM current`, rowColumns)
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to read current rows: %w", err)
	}
	var active []*catalog.Row
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan current row: %w", err)
		}
		active = append(active, row)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("failed to read current rows: %w", err)
	}
	rows.Close()

	seeded := 0
	for _, row := range active {
		payload, err := encodePayload(row)
		if err != nil {
			return 0, err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO final_data
				(material_id, faculty, payload, retrieved_from_source, last_modified, workflow_status, workflow_remarks)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(material_id) DO UPDATE SET
				faculty               = excluded.faculty,
				payload               = excluded.payload,
				retrieved_from_source = excluded.retrieved_from_source,
				last_modified         = excluded.last_modified`,
			row.MaterialID, row.Faculty, payload, row.SourceDate,
			row.LastModified.UTC().Format(time.RFC3339Nano),
			row.WorkflowStatus, row.WorkflowRemarks,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to seed final_data for %s: %w", row.MaterialID, err)
		}
		seeded++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit seed: %w", err)
	}
	return seeded, nil
}

// Reconcile merges reviewer edits from an external snapshot into
// final_data.
//
// Per row: the matching final_data row is looked up by material_id; absent
// rows are rejected with ErrNotSeeded (reconciliation never introduces
// items). workflow_status is validated against the configured set; invalid
// values are rejected per-row and reported, never rewritten. On valid
// input exactly workflow_status and workflow_remarks are overwritten; every
// other column stays under the archive's authority, whatever the snapshot's
// payload claims. The whole pass is one transaction.
func (a *Archive) Reconcile(ctx context.Context, snapshot *catalog.Batch) (ReconcileResult, error) {
	var res ReconcileResult
	dups := duplicateSet(snapshot)

	tx, err := a.begin(ctx)
	if err != nil {
		return res, err
	}
	defer tx.Rollback()

	for _, in := range snapshot.Rows {
		if in.MaterialID == "" {
			res.Rejected = append(res.Rejected, RowError{"", ErrUnknownItem})
			continue
		}
		if dups[in.MaterialID] {
			res.Rejected = append(res.Rejected, RowError{in.MaterialID, ErrDuplicateInBatch})
			continue
		}

		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM final_data WHERE material_id = ?`, in.MaterialID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			res.Rejected = append(res.Rejected, RowError{in.MaterialID, ErrNotSeeded})
			continue
		}
		if err != nil {
			return ReconcileResult{}, fmt.Errorf("failed to look up final_data row %s: %w", in.MaterialID, err)
		}

		if !a.statuses[in.WorkflowStatus] {
			res.Rejected = append(res.Rejected, RowError{
				in.MaterialID,
				fmt.Errorf("%w: %q", ErrInvalidWorkflowValue, in.WorkflowStatus),
			})
			continue
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE final_data
			SET workflow_status = ?, workflow_remarks = ?
			WHERE material_id = ?`,
			in.WorkflowStatus, in.WorkflowRemarks, in.MaterialID,
		)
		if err != nil {
			return ReconcileResult{}, fmt.Errorf("failed to reconcile %s: %w", in.MaterialID, err)
		}
		res.Updated++
	}

	if err := tx.Commit(); err != nil {
		return ReconcileResult{}, fmt.Errorf("failed to commit reconciliation: %w", err)
	}
	return res, nil
}

// FinalRows returns the final_data table, optionally restricted to one
// faculty. Used by sheet export and by tests asserting reconciliation only
// touched reviewer fields.
func (a *Archive) FinalRows(ctx context.Context, faculty string) ([]*catalog.Row, error) {
	if a.conn == nil {
		return nil, ErrClosed
	}

	query := `SELECT material_id, faculty, payload, retrieved_from_source, last_modified, workflow_status, workflow_remarks FROM final_data`
	var args []any
	if faculty != "" && faculty != "all" {
		query += ` WHERE faculty = ?`
		args = append(args, faculty)
	}
	query += ` ORDER BY material_id`

	rows, err := a.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query final_data: %w", err)
	}
	defer rows.Close()

	var out []*catalog.Row
	for rows.Next() {
		var (
			row     catalog.Row
			payload string
			lastMod string
		)
		if err := rows.Scan(&row.MaterialID, &row.Faculty, &payload,
			&row.SourceDate, &lastMod, &row.WorkflowStatus, &row.WorkflowRemarks); err != nil {
			return nil, fmt.Errorf("failed to scan final_data row: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &row.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode payload for %s: %w", row.MaterialID, err)
		}
		if t, err := time.Parse(time.RFC3339Nano, lastMod); err == nil {
			row.LastModified = t
		}
		out = append(out, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read final_data: %w", err)
	}
	return out, nil
}
