package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/utsmok/ea-cli/internal/catalog"
)

// GetOptions filters a read of the active rows.
type GetOptions struct {
	// MaterialIDs restricts the result to these items. Empty means all.
	MaterialIDs []string

	// Faculty restricts the result to one faculty partition. Empty or
	// "all" means no restriction.
	Faculty string

	// IncludeHistory attaches each item's full version chain.
	IncludeHistory bool
}

// Record is one active row, optionally with its version chain in
// chronological order (root first, active row last).
type Record struct {
	Row   *catalog.Row
	Chain []*catalog.Row
}

// Get returns matching active rows without mutation. With IncludeHistory
// set, each record carries the full chain, walked and verified.
func (a *Archive) Get(ctx context.Context, opts GetOptions) ([]Record, error) {
	if a.conn == nil {
		return nil, ErrClosed
	}

	query := fmt.Sprintf(`SELECT %s FROM current`, rowColumns)
	var (
		conds []string
		args  []any
	)
	if len(opts.MaterialIDs) > 0 {
		conds = append(conds, fmt.Sprintf(`material_id IN (%s)`,
			strings.TrimSuffix(strings.Repeat("?, ", len(opts.MaterialIDs)), ", ")))
		for _, id := range opts.MaterialIDs {
			args = append(args, id)
		}
	}
	if opts.Faculty != "" && opts.Faculty != "all" {
		conds = append(conds, `faculty = ?`)
		args = append(args, opts.Faculty)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY material_id"

	rows, err := a.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query current rows: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan current row: %w", err)
		}
		records = append(records, Record{Row: row})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read current rows: %w", err)
	}

	if opts.IncludeHistory {
		for i := range records {
			chain, err := a.History(ctx, records[i].Row.MaterialID)
			if err != nil {
				return nil, err
			}
			records[i].Chain = chain
		}
	}
	return records, nil
}

// Faculties returns the distinct faculty values among active rows, sorted.
// Rows with an empty faculty contribute an empty string entry.
func (a *Archive) Faculties(ctx context.Context) ([]string, error) {
	if a.conn == nil {
		return nil, ErrClosed
	}
	rows, err := a.conn.QueryContext(ctx, `SELECT DISTINCT faculty FROM current ORDER BY faculty`)
	if err != nil {
		return nil, fmt.Errorf("failed to query faculties: %w", err)
	}
	defer rows.Close()

	var faculties []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("failed to scan faculty: %w", err)
		}
		faculties = append(faculties, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read faculties: %w", err)
	}
	return faculties, nil
}

// History returns the full version chain of a material_id in chronological
// order: the first-imported root at index 0, the active row last.
//
// The walk starts at the active row and follows previous_version links
// through history, verifying the chain invariants as it goes: no cycles, no
// dangling links, strictly decreasing last_modified walking backward, and a
// root with no previous_version. Any violation returns
// ErrIntegrityViolation.
func (a *Archive) History(ctx context.Context, materialID string) ([]*catalog.Row, error) {
	if a.conn == nil {
		return nil, ErrClosed
	}

	query := fmt.Sprintf(`SELECT %s FROM current WHERE material_id = ?`, rowColumns)
	tip, err := scanRow(a.conn.QueryRowContext(ctx, query, materialID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, RowError{materialID, ErrUnknownItem}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active row %s: %w", materialID, err)
	}

	chain := []*catalog.Row{tip}
	seen := map[string]bool{tip.RowID: true}

	cur := tip
	for cur.PreviousVersion != "" {
		prevQuery := fmt.Sprintf(`SELECT %s FROM history WHERE row_id = ?`, rowColumns)
		prev, err := scanRow(a.conn.QueryRowContext(ctx, prevQuery, cur.PreviousVersion))
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s links to missing row %s",
				ErrIntegrityViolation, cur.RowID, cur.PreviousVersion)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load history row %s: %w", cur.PreviousVersion, err)
		}
		if seen[prev.RowID] {
			return nil, fmt.Errorf("%w: cycle at row %s", ErrIntegrityViolation, prev.RowID)
		}
		if prev.MaterialID != materialID {
			return nil, fmt.Errorf("%w: row %s belongs to %s, not %s",
				ErrIntegrityViolation, prev.RowID, prev.MaterialID, materialID)
		}
		if !prev.LastModified.Before(cur.LastModified) {
			return nil, fmt.Errorf("%w: last_modified not increasing between %s and %s",
				ErrIntegrityViolation, prev.RowID, cur.RowID)
		}
		seen[prev.RowID] = true
		chain = append(chain, prev)
		cur = prev
	}

	// Reverse into chronological order.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}
