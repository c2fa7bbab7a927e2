// Package archive implements the versioned catalog archive over a
// single-file embedded SQLite database.
//
// Three tables hold the data:
//   - current: exactly one active row per material_id
//   - history: superseded row versions, immutable once written
//   - final_data: the reviewer-facing canonical table, one row per
//     material_id, decoupled from the version chain
//
// Every version of an item carries a surrogate row_id; an update moves the
// active row into history and inserts a fresh row whose previous_version
// points at the superseded row_id, forming a backward chain from the active
// row to the first import.
//
// The archive assumes exclusive access for the duration of a run: one
// logical operation (an Add, an Update, a reconciliation pass) completes
// before the next begins. Each mutating operation runs in a single
// transaction covering the whole batch, so a failure partway leaves the
// store in the pre-operation state.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Default allowed workflow_status values for reconciliation. Override via
// Options.Statuses.
var DefaultStatuses = []string{"To Do", "In Progress", "Done"}

// Options configures policy knobs the engine deliberately does not
// hard-code.
type Options struct {
	// PreserveSourceDate controls retrieved_from_source on update when
	// the batch carries no source date: true carries the prior row's date
	// forward, false overwrites with the (empty) batch date.
	PreserveSourceDate bool

	// Statuses is the allowed workflow_status set for Reconcile.
	// Empty means DefaultStatuses.
	Statuses []string

	// Now supplies timestamps for last_modified. Nil means time.Now.
	// Tests inject a fake clock to get deterministic chains.
	Now func() time.Time
}

// DefaultOptions returns the production configuration.
func DefaultOptions() Options {
	return Options{
		PreserveSourceDate: true,
		Statuses:           DefaultStatuses,
		Now:                time.Now,
	}
}

// Archive is a handle on one archive database file. It is an explicit
// dependency: every operation goes through a handle, never a package-level
// singleton, so tests can run isolated instances.
type Archive struct {
	conn     *sql.DB
	path     string
	opts     Options
	statuses map[string]bool
}

// Open opens (creating if necessary) the archive database at path.
//
// The database runs in embedded mode with WAL so reads can proceed during a
// write transaction. The caller MUST call Close when done.
func Open(path string, opts Options) (*Archive, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if len(opts.Statuses) == 0 {
		opts.Statuses = DefaultStatuses
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Single-writer model: one connection avoids SQLITE_BUSY between the
	// pool's own connections mid-batch.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(5 * time.Minute)

	a := &Archive{
		conn:     conn,
		path:     path,
		opts:     opts,
		statuses: make(map[string]bool, len(opts.Statuses)),
	}
	for _, s := range opts.Statuses {
		a.statuses[s] = true
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := a.conn.Exec(pragma); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return a, nil
}

// Path returns the database file path this handle was opened on.
func (a *Archive) Path() string {
	return a.path
}

// Close closes the database connection after a WAL checkpoint so all
// committed changes land in the main database file.
func (a *Archive) Close() error {
	if a.conn == nil {
		return nil
	}
	_, _ = a.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	err := a.conn.Close()
	a.conn = nil
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// InitSchema creates the three tables and their indexes if they do not
// exist. Safe to call on every startup.
func (a *Archive) InitSchema() error {
	if a.conn == nil {
		return ErrClosed
	}
	if _, err := a.conn.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// now returns the injected clock's current time in UTC.
func (a *Archive) now() time.Time {
	return a.opts.Now().UTC()
}

// begin starts a whole-batch transaction, guarding against use after Close.
func (a *Archive) begin(ctx context.Context) (*sql.Tx, error) {
	if a.conn == nil {
		return nil, ErrClosed
	}
	tx, err := a.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}
