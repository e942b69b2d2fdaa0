package ops

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/hpungsan/clipz/internal/entry"
	"github.com/hpungsan/clipz/internal/errors"
	"github.com/hpungsan/clipz/internal/history"
	"github.com/hpungsan/clipz/internal/rank"
)

// ExportFormat selects the export file type.
type ExportFormat string

const (
	FormatJSONL ExportFormat = "jsonl" // header line + one record per line
	FormatHTML  ExportFormat = "html"  // rendered report
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path   string       `json:"path,omitempty"`   // optional, default: <base>/exports/clipz-<timestamp>.<format>
	Format ExportFormat `json:"format,omitempty"` // optional, inferred from Path, default: jsonl
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string       `json:"path"`
	Format     ExportFormat `json:"format"`
	Count      int          `json:"count"`
	ExportID   string       `json:"export_id"`
	ExportedAt string       `json:"exported_at"`
}

// ExportHeader is the first line of a JSONL export file.
type ExportHeader struct {
	ClipzExport   bool   `json:"_clipz_export"`
	SchemaVersion string `json:"schema_version"`
	ExportID      string `json:"export_id"`
	ExportedAt    string `json:"exported_at"`
	Count         int    `json:"count"`
}

// Export writes the history to a JSONL or HTML file.
func Export(ctx context.Context, store *history.Store, ranker *rank.Ranker, baseDir string, input ExportInput) (*ExportOutput, error) {
	format, err := resolveFormat(input)
	if err != nil {
		return nil, err
	}

	now := store.Now()
	exportPath := input.Path
	if exportPath == "" {
		name := fmt.Sprintf("%s-%s.%s", defaultExportBaseName, now.Format("2006-01-02T150405"), format)
		exportPath = filepath.Join(ExportsDir(baseDir), name)
	}

	if err := ValidatePath(exportPath, PathCheckWrite, "."+string(format)); err != nil {
		return nil, err
	}

	snapshot := store.Snapshot()
	out := &ExportOutput{
		Path:       exportPath,
		Format:     format,
		Count:      len(snapshot),
		ExportID:   NewULID(now),
		ExportedAt: entry.FormatTimestamp(now),
	}

	err = writeAtomic(exportPath, func(w io.Writer) error {
		switch format {
		case FormatHTML:
			ranked := ranker.Recall(snapshot)
			return writeHTMLReport(w, out, ranked, snapshot)
		default:
			return writeJSONL(ctx, w, out, snapshot)
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func resolveFormat(input ExportInput) (ExportFormat, error) {
	format := ExportFormat(strings.ToLower(strings.TrimSpace(string(input.Format))))
	if format == "" && input.Path != "" {
		format = ExportFormat(strings.TrimPrefix(strings.ToLower(filepath.Ext(input.Path)), "."))
	}
	switch format {
	case "":
		return FormatJSONL, nil
	case FormatJSONL, FormatHTML:
		return format, nil
	}
	return "", errors.NewInvalidRequest(fmt.Sprintf("format must be one of: %s, %s", FormatJSONL, FormatHTML))
}

func writeJSONL(ctx context.Context, w io.Writer, out *ExportOutput, entries []entry.Entry) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	header := ExportHeader{
		ClipzExport:   true,
		SchemaVersion: exportSchemaVersion,
		ExportID:      out.ExportID,
		ExportedAt:    out.ExportedAt,
		Count:         out.Count,
	}
	if err := enc.Encode(header); err != nil {
		return errors.NewInternal(err)
	}

	for _, e := range entries {
		select {
		case <-ctx.Done():
			return errors.NewCancelled("export")
		default:
		}
		if err := enc.Encode(e.ToRecord()); err != nil {
			return errors.NewInternal(err)
		}
	}
	return nil
}

// writeAtomic writes to a temp file beside path, then renames it into place
// so an existing file survives any failure.
func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := createExportTemp(tempPath)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	// Clean up temp file on failure (original file is preserved)
	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	bw := bufio.NewWriter(file)
	if err := write(bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}

	// Close before atomic replace (required on Windows; fine elsewhere).
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// Check if destination is a symlink (os.Rename would follow it)
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("export path is a symlink")
	}

	// On Windows os.Rename fails if the destination exists; the existing file is kept.
	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewInvalidRequest("export destination already exists; choose a new path or delete the existing file")
			}
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return nil
}

// exportTime formats a timestamp for the HTML report.
func exportTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
