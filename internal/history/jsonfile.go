package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/clipz/internal/entry"
)

// JSONFile stores the history as an indented JSON array of entry.Record.
type JSONFile struct {
	path string
}

// NewJSONFile returns a backend for the history file at path.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Location implements Backend.
func (f *JSONFile) Location() string { return f.path }

// Load implements Backend. A file that does not decode returns ErrCorrupt
// and is left in place; see Quarantine.
func (f *JSONFile) Load() ([]*entry.Entry, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history: %w", err)
	}

	entries, err := DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return entries, nil
}

// Quarantine moves the history file to <path>.corrupt so the next save
// cannot overwrite the only copy.
func (f *JSONFile) Quarantine() (string, error) {
	moved := f.path + ".corrupt"
	if err := os.Rename(f.path, moved); err != nil {
		return "", fmt.Errorf("move aside: %w", err)
	}
	return moved, nil
}

// Save implements Backend. The file is written to a temp file in the same
// directory and renamed over the old one.
func (f *JSONFile) Save(entries []*entry.Entry) error {
	records := make([]entry.Record, len(entries))
	for i, e := range entries {
		records[i] = e.ToRecord()
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	return atomicWrite(f.path, data)
}

// Close implements Backend.
func (f *JSONFile) Close() error { return nil }

// DecodeRecords parses a JSON array of records, migrating each into an Entry.
// Empty input (or whitespace) is an empty history.
func DecodeRecords(data []byte) ([]*entry.Entry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var records []entry.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	entries := make([]*entry.Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, r.ToEntry())
	}
	return entries, nil
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	_ = os.Chmod(tmpPath, 0600)

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace history: %w", err)
	}
	success = true
	return nil
}
