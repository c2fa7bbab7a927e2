package archive

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/utsmok/ea-cli/internal/catalog"
)

// rowColumns is the column list shared by current and history. Keep in sync
// with schemaSQL and scanRow.
const rowColumns = `row_id, material_id, faculty, payload, retrieved_from_source, last_modified, previous_version, workflow_status, workflow_remarks`

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRow decodes one current/history row.
func scanRow(sc scanner) (*catalog.Row, error) {
	var (
		row     catalog.Row
		payload string
		lastMod string
		prev    sql.NullString
	)
	if err := sc.Scan(
		&row.RowID, &row.MaterialID, &row.Faculty, &payload,
		&row.SourceDate, &lastMod, &prev,
		&row.WorkflowStatus, &row.WorkflowRemarks,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(payload), &row.Payload); err != nil {
		return nil, fmt.Errorf("failed to decode payload for %s: %w", row.MaterialID, err)
	}
	t, err := time.Parse(time.RFC3339Nano, lastMod)
	if err != nil {
		return nil, fmt.Errorf("failed to parse last_modified for %s: %w", row.MaterialID, err)
	}
	row.LastModified = t
	row.PreviousVersion = prev.String
	return &row, nil
}

// encodePayload serializes the payload map as canonical JSON (keys sorted
// by encoding/json), so identical payloads always encode identically.
func encodePayload(row *catalog.Row) (string, error) {
	p := row.Payload
	if p == nil {
		p = map[string]string{}
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload for %s: %w", row.MaterialID, err)
	}
	return string(b), nil
}

// insertRow writes a row into the named table (current or history).
func insertRow(tx *sql.Tx, table string, row *catalog.Row) error {
	payload, err := encodePayload(row)
	if err != nil {
		return err
	}
	var prev sql.NullString
	if row.PreviousVersion != "" {
		prev = sql.NullString{String: row.PreviousVersion, Valid: true}
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, table, rowColumns)
	_, err = tx.Exec(query,
		row.RowID, row.MaterialID, row.Faculty, payload,
		row.SourceDate, row.LastModified.UTC().Format(time.RFC3339Nano), prev,
		row.WorkflowStatus, row.WorkflowRemarks,
	)
	if err != nil {
		return fmt.Errorf("failed to insert %s into %s: %w", row.MaterialID, table, err)
	}
	return nil
}

// currentByMaterialID loads the active row for a material_id inside tx.
// Returns (nil, nil) when the item has no active row.
func currentByMaterialID(tx *sql.Tx, materialID string) (*catalog.Row, error) {
	query := fmt.Sprintf(`SELECT %s FROM current WHERE material_id = ?`, rowColumns)
	row, err := scanRow(tx.QueryRow(query, materialID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load current row %s: %w", materialID, err)
	}
	return row, nil
}
