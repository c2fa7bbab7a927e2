// Package sheet reads and writes faculty review sheets as CSV tabular
// data.
//
// A sheet is the reviewer-facing copy of one partition of the archive (one
// faculty, or everything). Updating a sheet appends archive rows whose
// material_id is not on it yet, stamped with added_to_sheet_on; existing
// rows are preserved byte-for-byte so reviewer edits survive the round
// trip. Saving first moves the previous file to a timestamped backup.
package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/utsmok/ea-cli/internal/catalog"
)

// NoFaculty names the sheet for rows whose department could not be mapped
// to a faculty.
const NoFaculty = "no_faculty_found"

// Sheet is one review sheet in memory.
type Sheet struct {
	// Path is the CSV file this sheet loads from and saves to.
	Path string

	// Faculty is the partition this sheet covers: a faculty name, or
	// "all".
	Faculty string

	header  []string
	records []map[string]string
	dirty   bool
}

// Load reads a sheet from disk. A missing file yields an empty sheet that
// will be created on the first Save.
func Load(path, faculty string) (*Sheet, error) {
	s := &Sheet{Path: path, Faculty: faculty}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open sheet: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet header: %w", err)
	}
	s.header = header

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet row: %w", err)
		}
		rec := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				rec[col] = record[i]
			}
		}
		s.records = append(s.records, rec)
	}
	return s, nil
}

// Empty reports whether the sheet has no rows.
func (s *Sheet) Empty() bool {
	return len(s.records) == 0
}

// Len returns the number of rows on the sheet.
func (s *Sheet) Len() int {
	return len(s.records)
}

// Rows parses the sheet into catalog rows (a snapshot batch for Compare or
// Reconcile).
func (s *Sheet) Rows() []*catalog.Row {
	rows := make([]*catalog.Row, 0, len(s.records))
	for _, rec := range s.records {
		rows = append(rows, catalog.FromRecord(rec))
	}
	return rows
}

// Batch wraps the sheet's rows as a snapshot batch. Sheets carry no source
// date; that belongs to export batches.
func (s *Sheet) Batch() *catalog.Batch {
	return &catalog.Batch{Rows: s.Rows()}
}

// MaterialIDs returns the set of material_ids present on the sheet.
func (s *Sheet) MaterialIDs() map[string]bool {
	ids := make(map[string]bool, len(s.records))
	for _, rec := range s.records {
		if id := rec[catalog.ColMaterialID]; id != "" {
			ids[id] = true
		}
	}
	return ids
}

// Append adds every row whose material_id is not yet on the sheet, stamped
// with added_to_sheet_on, and returns how many were added. Existing rows
// are untouched.
func (s *Sheet) Append(rows []*catalog.Row, addedOn time.Time) int {
	present := s.MaterialIDs()
	stamp := addedOn.Format(catalog.DateFormat)

	added := 0
	for _, row := range rows {
		if present[row.MaterialID] {
			continue
		}
		rec := row.Record()
		rec[catalog.ColAddedToSheet] = stamp
		s.ensureColumns(rec)
		s.records = append(s.records, rec)
		present[row.MaterialID] = true
		added++
	}
	if added > 0 {
		s.dirty = true
	}
	return added
}

// ensureColumns extends the header with any columns the record carries that
// the sheet does not yet have, in a stable order: material_id first, then
// payload columns sorted, then the bookkeeping tail.
func (s *Sheet) ensureColumns(rec map[string]string) {
	if len(s.header) == 0 {
		s.header = canonicalHeader(rec)
		return
	}
	have := make(map[string]bool, len(s.header))
	for _, col := range s.header {
		have[col] = true
	}
	var missing []string
	for col := range rec {
		if !have[col] {
			missing = append(missing, col)
		}
	}
	sort.Strings(missing)
	s.header = append(s.header, missing...)
}

// bookkeepingTail is the fixed column order after the payload columns.
var bookkeepingTail = []string{
	catalog.ColRowID,
	catalog.ColFaculty,
	catalog.ColSourceDate,
	catalog.ColLastModified,
	catalog.ColPreviousVersion,
	catalog.ColWorkflowStatus,
	catalog.ColWorkflowRemarks,
	catalog.ColAddedToSheet,
}

func canonicalHeader(rec map[string]string) []string {
	tail := make(map[string]bool, len(bookkeepingTail)+1)
	for _, col := range bookkeepingTail {
		tail[col] = true
	}
	tail[catalog.ColMaterialID] = true

	var payload []string
	for col := range rec {
		if !tail[col] {
			payload = append(payload, col)
		}
	}
	sort.Strings(payload)

	header := make([]string, 0, len(payload)+len(bookkeepingTail)+1)
	header = append(header, catalog.ColMaterialID)
	header = append(header, payload...)
	header = append(header, bookkeepingTail...)
	return header
}

// Save writes the sheet back to disk. An existing file is first moved to a
// timestamped backup next to it; Save fails rather than overwrite if the
// backup cannot be confirmed.
func (s *Sheet) Save() error {
	if !s.dirty {
		return nil
	}
	if err := s.backup(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return fmt.Errorf("failed to create sheet directory: %w", err)
	}

	f, err := os.Create(s.Path)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(s.header); err != nil {
		return fmt.Errorf("failed to write sheet header: %w", err)
	}
	for _, rec := range s.records {
		record := make([]string, len(s.header))
		for i, col := range s.header {
			record[i] = rec[col]
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write sheet row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	s.dirty = false
	return nil
}

// backup moves the current file aside as
// <name>_backup_<date>_<uuid><ext>.
func (s *Sheet) backup() error {
	if _, err := os.Stat(s.Path); os.IsNotExist(err) {
		return nil
	}
	ext := filepath.Ext(s.Path)
	stem := strings.TrimSuffix(s.Path, ext)
	backupPath := fmt.Sprintf("%s_backup_%s_%s%s",
		stem, time.Now().Format(catalog.DateFormat), uuid.NewString(), ext)

	if err := os.Rename(s.Path, backupPath); err != nil {
		return fmt.Errorf("failed to back up sheet: %w", err)
	}
	if _, err := os.Stat(backupPath); err != nil {
		return fmt.Errorf("backup %s not confirmed, refusing to overwrite: %w", backupPath, err)
	}
	return nil
}

// FileName returns the sheet file name for a faculty, routing unmapped and
// empty faculties to the NoFaculty sheet.
func FileName(faculty string) string {
	if faculty == "" {
		faculty = NoFaculty
	}
	return faculty + ".csv"
}
