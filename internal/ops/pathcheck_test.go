package ops

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/hpungsan/clipz/internal/errors"
)

func TestValidatePath(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "in.jsonl")
	if err := os.WriteFile(existing, []byte("{}\n"), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		mode PathCheckMode
		code errors.ErrorCode // empty means success
	}{
		{"empty", "", PathCheckWrite, errors.ErrInvalidRequest},
		{"traversal", filepath.Join(dir, "..", "x.jsonl"), PathCheckWrite, errors.ErrInvalidRequest},
		{"forward slash traversal", "a/../b.jsonl", PathCheckWrite, errors.ErrInvalidRequest},
		{"wrong extension", filepath.Join(dir, "out.txt"), PathCheckWrite, errors.ErrInvalidRequest},
		{"write new file", filepath.Join(dir, "out.jsonl"), PathCheckWrite, ""},
		{"uppercase extension", filepath.Join(dir, "OUT.JSONL"), PathCheckWrite, ""},
		{"read missing", filepath.Join(dir, "missing.jsonl"), PathCheckRead, errors.ErrFileNotFound},
		{"read existing", existing, PathCheckRead, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePath(tc.path, tc.mode, ".jsonl")
			if tc.code == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.code) {
				t.Fatalf("err = %v, want %s", err, tc.code)
			}
		})
	}
}

func TestValidatePath_Symlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}
	dir := t.TempDir()
	target := filepath.Join(dir, "target.jsonl")
	if err := os.WriteFile(target, nil, 0600); err != nil {
		t.Fatal(err)
	}

	link := filepath.Join(dir, "link.jsonl")
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}
	if err := ValidatePath(link, PathCheckWrite, ".jsonl"); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("symlinked file: err = %v", err)
	}

	realDir := filepath.Join(dir, "real")
	if err := os.Mkdir(realDir, 0700); err != nil {
		t.Fatal(err)
	}
	linkDir := filepath.Join(dir, "linkdir")
	if err := os.Symlink(realDir, linkDir); err != nil {
		t.Fatal(err)
	}
	if err := ValidatePath(filepath.Join(linkDir, "out.jsonl"), PathCheckWrite, ".jsonl"); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("symlinked parent: err = %v", err)
	}
}

func TestExportsDir(t *testing.T) {
	if got := ExportsDir("/base"); got != filepath.Join("/base", "exports") {
		t.Errorf("ExportsDir = %q", got)
	}
}
