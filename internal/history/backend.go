// Package history owns the clipboard history: the ordered entry collection,
// its mutation under a single lock, and its persistence backends.
package history

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/clipz/internal/config"
	"github.com/hpungsan/clipz/internal/db"
	"github.com/hpungsan/clipz/internal/entry"
)

// ErrCorrupt is returned by a backend whose persisted data cannot be decoded.
var ErrCorrupt = stderrors.New("history is corrupt")

// Backend persists the full entry collection. Load and Save are wholesale.
type Backend interface {
	// Load returns the persisted entries in stored order.
	// Missing data is an empty history, not an error.
	Load() ([]*entry.Entry, error)

	// Save replaces the persisted history with entries.
	Save(entries []*entry.Entry) error

	// Location describes where the history lives (for logs and status).
	Location() string

	Close() error
}

// quarantiner is a backend that can move corrupt data aside so a fresh
// history can be written without destroying it.
type quarantiner interface {
	// Quarantine moves the corrupt data and returns where it went.
	Quarantine() (string, error)
}

// OpenBackend returns the backend selected by cfg.Backend under baseDir.
func OpenBackend(cfg *config.Config, baseDir string) (Backend, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		return OpenSQLite(baseDir)
	case config.BackendJSON, "":
		return NewJSONFile(cfg.HistoryPath(baseDir)), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// SQLiteBackend stores entries in the clipz.db entries table.
// A database SQLite rejects as corrupt opens without a handle: Load reports
// ErrCorrupt until Quarantine moves the file aside and creates a fresh one.
type SQLiteBackend struct {
	db      *sql.DB
	baseDir string
	path    string
	openErr error
}

// OpenSQLite opens (and migrates) baseDir/clipz.db.
func OpenSQLite(baseDir string) (*SQLiteBackend, error) {
	b := &SQLiteBackend{baseDir: baseDir, path: filepath.Join(baseDir, db.FileName)}
	handle, err := db.Init(baseDir)
	if err != nil {
		if !db.IsCorrupt(err) {
			return nil, err
		}
		b.openErr = err
		return b, nil
	}
	b.db = handle
	return b, nil
}

// Quarantine renames a corrupt clipz.db (and its -wal/-shm files) to
// *.corrupt and opens a fresh database in its place.
func (b *SQLiteBackend) Quarantine() (string, error) {
	if b.db != nil {
		return "", fmt.Errorf("%s is open", b.path)
	}
	moved := b.path + ".corrupt"
	if err := os.Rename(b.path, moved); err != nil {
		return "", fmt.Errorf("move aside: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Rename(b.path+suffix, moved+suffix); err != nil && !stderrors.Is(err, os.ErrNotExist) {
			return moved, fmt.Errorf("move aside %s: %w", suffix, err)
		}
	}

	handle, err := db.Init(b.baseDir)
	if err != nil {
		return moved, err
	}
	b.db, b.openErr = handle, nil
	return moved, nil
}

// Load implements Backend.
func (b *SQLiteBackend) Load() ([]*entry.Entry, error) {
	if b.db == nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, b.openErr)
	}
	return db.LoadEntries(b.db)
}

// Save implements Backend.
func (b *SQLiteBackend) Save(entries []*entry.Entry) error {
	if b.db == nil {
		return fmt.Errorf("history database unavailable: %w", b.openErr)
	}
	return db.ReplaceEntries(b.db, entries)
}

// Location implements Backend.
func (b *SQLiteBackend) Location() string { return b.path }

// Close implements Backend.
func (b *SQLiteBackend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}
