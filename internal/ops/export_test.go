package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/clipz/internal/entry"
	"github.com/hpungsan/clipz/internal/errors"
	"github.com/hpungsan/clipz/internal/pin"
	"github.com/hpungsan/clipz/internal/rank"
)

func TestExport_JSONL(t *testing.T) {
	env := newTestEnv(t, rank.PolicySmart)
	env.copyAll("first", "second\nline", "third")
	pin.NewManager(env.store, nil).Toggle("third")

	path := filepath.Join(t.TempDir(), "out.jsonl")
	out, err := Export(context.Background(), env.store, env.ranker, env.baseDir, ExportInput{Path: path})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if out.Format != FormatJSONL || out.Count != 3 || out.Path != path {
		t.Errorf("out = %+v", out)
	}
	if _, err := ulid.Parse(out.ExportID); err != nil {
		t.Errorf("ExportID %q is not a ULID: %v", out.ExportID, err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		t.Fatal("missing header line")
	}
	var header ExportHeader
	if err := json.Unmarshal(scanner.Bytes(), &header); err != nil {
		t.Fatalf("header: %v", err)
	}
	if !header.ClipzExport || header.Count != 3 || header.ExportID != out.ExportID || header.SchemaVersion != exportSchemaVersion {
		t.Errorf("header = %+v", header)
	}

	var texts []string
	for scanner.Scan() {
		var rec entry.Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("record: %v", err)
		}
		texts = append(texts, rec.Text)
		if rec.Text == "third" && (rec.Pinned == nil || !*rec.Pinned) {
			t.Error("pin state not exported")
		}
	}
	want := []string{"first", "second\nline", "third"}
	if strings.Join(texts, "|") != strings.Join(want, "|") {
		t.Errorf("texts = %q, want stored order %q", texts, want)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); runtime.GOOS != "windows" && perm != 0600 {
		t.Errorf("mode = %v, want 0600", perm)
	}
}

func TestExport_DefaultPath(t *testing.T) {
	env := newTestEnv(t, rank.PolicySmart)
	env.copyAll("a")

	out, err := Export(context.Background(), env.store, env.ranker, env.baseDir, ExportInput{Format: FormatHTML})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if filepath.Dir(out.Path) != ExportsDir(env.baseDir) {
		t.Errorf("Path = %q, want under %q", out.Path, ExportsDir(env.baseDir))
	}
	if !strings.HasPrefix(filepath.Base(out.Path), "clipz-") || filepath.Ext(out.Path) != ".html" {
		t.Errorf("Path = %q", out.Path)
	}
}

func TestExport_HTMLReport(t *testing.T) {
	env := newTestEnv(t, rank.PolicySmart)
	env.copyAll("<script>alert(1)</script>", "plain | pipe")

	path := filepath.Join(t.TempDir(), "report.html")
	out, err := Export(context.Background(), env.store, env.ranker, env.baseDir, ExportInput{Path: path})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if out.Format != FormatHTML {
		t.Errorf("Format = %q, want inferred html", out.Format)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	page := string(data)
	if !strings.Contains(page, "<table>") {
		t.Error("report has no table")
	}
	if strings.Contains(page, "<script>") {
		t.Error("clipboard text rendered as raw HTML")
	}
	if !strings.Contains(page, "ctrl+1") {
		t.Error("report missing hotkey column")
	}
}

func TestExport_InvalidFormat(t *testing.T) {
	env := newTestEnv(t, rank.PolicySmart)
	_, err := Export(context.Background(), env.store, env.ranker, env.baseDir, ExportInput{Format: "csv"})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("err = %v, want INVALID_REQUEST", err)
	}

	_, err = Export(context.Background(), env.store, env.ranker, env.baseDir, ExportInput{Path: filepath.Join(t.TempDir(), "x.jsonl"), Format: FormatHTML})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("mismatched extension err = %v", err)
	}
}

func TestExport_Cancelled(t *testing.T) {
	env := newTestEnv(t, rank.PolicySmart)
	env.copyAll("a", "b")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "out.jsonl")
	_, err := Export(ctx, env.store, env.ranker, env.baseDir, ExportInput{Path: path})
	if !errors.Is(err, errors.ErrCancelled) {
		t.Fatalf("err = %v, want CANCELLED", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("cancelled export left a file behind")
	}
}

func TestEscapeMarkdown(t *testing.T) {
	if got := escapeMarkdown("a|b*c"); got != `a\|b\*c` {
		t.Errorf("escapeMarkdown = %q", got)
	}
	if got := escapeMarkdown("héllo"); got != "héllo" {
		t.Errorf("non-ASCII changed: %q", got)
	}
}
