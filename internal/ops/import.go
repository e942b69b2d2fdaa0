package ops

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/hpungsan/clipz/internal/entry"
	"github.com/hpungsan/clipz/internal/errors"
	"github.com/hpungsan/clipz/internal/history"
	"github.com/hpungsan/clipz/internal/pin"
)

// ImportMode controls what happens when an imported entry already exists.
type ImportMode string

const (
	ImportModeSkip  ImportMode = "skip"  // keep the existing entry (default)
	ImportModeMerge ImportMode = "merge" // sum counts, keep the latest timestamps
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     `json:"path"` // required, .jsonl export or .json history
	Mode ImportMode `json:"mode"` // default: skip
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Merged   int           `json:"merged"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError represents a record that could not be imported.
type ImportError struct {
	Line    int    `json:"line,omitempty"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Import reads a JSONL export or a JSON-array history file and merges its
// entries into the store by content identity. Imported pins go after the
// existing ones.
func Import(ctx context.Context, store *history.Store, input ImportInput) (*ImportOutput, error) {
	if input.Mode == "" {
		input.Mode = ImportModeSkip
	}
	if input.Mode != ImportModeSkip && input.Mode != ImportModeMerge {
		return nil, errors.NewInvalidRequest("mode must be one of: skip, merge")
	}
	if err := ValidatePath(input.Path, PathCheckRead, ".jsonl", ".json"); err != nil {
		return nil, err
	}

	file, err := openImportFile(input.Path)
	if err != nil {
		if errors.Is(err, errors.ErrFileNotFound) || errors.Is(err, errors.ErrInvalidRequest) {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	incoming, parseErrors, err := parseImport(ctx, file)
	if err != nil {
		return nil, err
	}

	out := &ImportOutput{Errors: parseErrors}
	out.Skipped = len(parseErrors)
	if out.Errors == nil {
		out.Errors = []ImportError{}
	}

	store.Update(func(entries []*entry.Entry) ([]*entry.Entry, bool) {
		byID := make(map[string]*entry.Entry, len(entries))
		for _, e := range entries {
			byID[e.ID] = e
		}

		next := pin.NextOrder(entries)
		var newPins []*entry.Entry
		for _, imp := range incoming {
			if existing, ok := byID[imp.ID]; ok {
				if input.Mode == ImportModeSkip {
					out.Skipped++
					continue
				}
				mergeEntry(existing, imp)
				out.Merged++
				continue
			}
			if imp.Pinned {
				newPins = append(newPins, imp)
			}
			entries = append(entries, imp)
			byID[imp.ID] = imp
			out.Imported++
		}

		// Imported pins keep their relative order, after every existing pin.
		slices.SortStableFunc(newPins, func(a, b *entry.Entry) int {
			return orderKey(a) - orderKey(b)
		})
		for i, e := range newPins {
			o := next + i
			e.PinOrder = &o
		}
		entry.CompactPins(entries)

		return entries, out.Imported+out.Merged > 0
	})

	return out, nil
}

// parseImport reads either a JSON array of records or JSONL (an optional
// export header line followed by one record per line).
func parseImport(ctx context.Context, r io.Reader) ([]*entry.Entry, []ImportError, error) {
	br := bufio.NewReader(r)
	first, err := firstNonSpace(br)
	if err != nil {
		return nil, nil, errors.NewInternal(fmt.Errorf("failed to read import file: %w", err))
	}

	if first == '[' {
		data, err := io.ReadAll(br)
		if err != nil {
			return nil, nil, errors.NewInternal(fmt.Errorf("failed to read import file: %w", err))
		}
		entries, err := history.DecodeRecords(data)
		if err != nil {
			return nil, nil, errors.NewInvalidRequest(fmt.Sprintf("invalid JSON history: %v", err))
		}
		var valid []*entry.Entry
		var problems []ImportError
		for i, e := range entries {
			if e.Text == "" {
				problems = append(problems, ImportError{Line: i + 1, ID: e.ID, Code: "INVALID_RECORD", Message: "missing text"})
				continue
			}
			e.ID = entry.Fingerprint(e.Text)
			valid = append(valid, e)
		}
		return dedupe(valid), problems, nil
	}

	var entries []*entry.Entry
	var problems []ImportError

	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 64*1024), maxImportLineBytes)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if lineNum%256 == 0 && ctx.Err() != nil {
			return nil, nil, errors.NewCancelled("import")
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var probe struct {
			ClipzExport bool `json:"_clipz_export"`
		}
		if err := json.Unmarshal(line, &probe); err != nil {
			problems = append(problems, ImportError{Line: lineNum, Code: "PARSE_ERROR", Message: fmt.Sprintf("invalid JSON: %v", err)})
			continue
		}
		if probe.ClipzExport {
			continue
		}

		var rec entry.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			problems = append(problems, ImportError{Line: lineNum, Code: "PARSE_ERROR", Message: fmt.Sprintf("invalid record: %v", err)})
			continue
		}
		if rec.Text == "" {
			problems = append(problems, ImportError{Line: lineNum, ID: rec.ID, Code: "INVALID_RECORD", Message: "missing text"})
			continue
		}

		e := rec.ToEntry()
		e.ID = entry.Fingerprint(e.Text)
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		problems = append(problems, ImportError{Line: lineNum, Code: "READ_ERROR", Message: fmt.Sprintf("failed to read file: %v", err)})
	}

	return dedupe(entries), problems, nil
}

// checkImportFile rejects anything but a regular file of at most MaxImportBytes.
func checkImportFile(f *os.File) error {
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return errors.NewInvalidRequest("import path is not a regular file")
	}
	if info.Size() > MaxImportBytes {
		return errors.NewInvalidRequest(fmt.Sprintf("import file is larger than %d MB", MaxImportBytes>>20))
	}
	return nil
}

// dedupe merges records with the same identity within one import file.
func dedupe(entries []*entry.Entry) []*entry.Entry {
	byID := make(map[string]*entry.Entry, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if first, ok := byID[e.ID]; ok {
			mergeEntry(first, e)
			continue
		}
		byID[e.ID] = e
		out = append(out, e)
	}
	return out
}

// mergeEntry folds src's statistics into dst. Pin state stays as in dst.
func mergeEntry(dst, src *entry.Entry) {
	dst.CopyCount += src.CopyCount
	dst.PasteCount += src.PasteCount
	if !src.CreatedAt.IsZero() && (dst.CreatedAt.IsZero() || src.CreatedAt.Before(dst.CreatedAt)) {
		dst.CreatedAt = src.CreatedAt
	}
	if src.LastCopiedAt.After(dst.LastCopiedAt) {
		dst.LastCopiedAt = src.LastCopiedAt
	}
	if src.LastPastedAt != nil && (dst.LastPastedAt == nil || src.LastPastedAt.After(*dst.LastPastedAt)) {
		t := *src.LastPastedAt
		dst.LastPastedAt = &t
	}
}

func orderKey(e *entry.Entry) int {
	if e.PinOrder == nil {
		return int(^uint(0) >> 2)
	}
	return *e.PinOrder
}

// firstNonSpace peeks the first non-whitespace byte without consuming it.
// An empty input yields 0.
func firstNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.Peek(1)
		if err == io.EOF {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			_, _ = br.ReadByte()
			continue
		}
		return b[0], nil
	}
}
