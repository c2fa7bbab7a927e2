package archive

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/utsmok/ea-cli/internal/catalog"
)

// fakeClock hands out strictly increasing timestamps one second apart, so
// chains built in tests have deterministic ordering.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

// openTestArchive creates a fresh archive in a temp dir with schema ready.
func openTestArchive(t *testing.T, opts Options) *Archive {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.db")
	if opts.Now == nil {
		opts.Now = newFakeClock().Now
	}
	a, err := Open(path, opts)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	if err := a.InitSchema(); err != nil {
		t.Fatalf("InitSchema() failed: %v", err)
	}
	return a
}

// mkRow builds a minimal catalog row for tests.
func mkRow(materialID, title string) *catalog.Row {
	return &catalog.Row{
		MaterialID: materialID,
		Faculty:    "EEMCS",
		Payload: map[string]string{
			"title":          title,
			"department":     "B-TCS: Technical Computer Science",
			"classification": "open access",
		},
	}
}

func mkBatch(date string, rows ...*catalog.Row) *catalog.Batch {
	return &catalog.Batch{SourceDate: date, Rows: rows}
}

func TestOpen_CreatesFile(t *testing.T) {
	a := openTestArchive(t, DefaultOptions())
	if a.Path() == "" {
		t.Fatal("Path() returned empty string")
	}
}

func TestInitSchema_Idempotent(t *testing.T) {
	a := openTestArchive(t, DefaultOptions())
	if err := a.InitSchema(); err != nil {
		t.Errorf("second InitSchema() failed: %v", err)
	}

	for _, table := range []string{"current", "history", "final_data"} {
		var count int
		err := a.conn.QueryRow(
			`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
		if err != nil {
			t.Fatalf("failed to query sqlite_master for %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("table %s does not exist", table)
		}
	}
}

func TestClose_ThenOperateFails(t *testing.T) {
	a := openTestArchive(t, DefaultOptions())
	if err := a.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := a.InitSchema(); err != ErrClosed {
		t.Errorf("InitSchema() after Close = %v, want ErrClosed", err)
	}
}
