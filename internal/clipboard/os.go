package clipboard

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

// commandTimeout bounds every external clipboard or keystroke command.
const commandTimeout = 2 * time.Second

type candidate struct {
	cmd  string
	args []string
}

// OS is a Clipboard backed by the platform's command-line tools
// (pbcopy/pbpaste, wl-copy/wl-paste, xclip, xsel, clip/powershell).
// The first tool that succeeds is remembered for later calls.
type OS struct {
	readers []candidate
	writers []candidate

	mu     sync.Mutex
	reader *candidate
	writer *candidate
}

// NewOS returns an OS clipboard for the current platform.
func NewOS() *OS {
	return &OS{readers: readCandidates(), writers: writeCandidates()}
}

func readCandidates() []candidate {
	switch runtime.GOOS {
	case "darwin":
		return []candidate{{cmd: "pbpaste"}}
	case "windows":
		return []candidate{{cmd: "powershell", args: []string{"-NoProfile", "-Command", "Get-Clipboard -Raw"}}}
	}
	cands := []candidate{
		{cmd: "xclip", args: []string{"-selection", "clipboard", "-o"}},
		{cmd: "xsel", args: []string{"--clipboard", "--output"}},
	}
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		cands = append([]candidate{{cmd: "wl-paste", args: []string{"--no-newline"}}}, cands...)
	}
	return cands
}

func writeCandidates() []candidate {
	switch runtime.GOOS {
	case "darwin":
		return []candidate{{cmd: "pbcopy"}}
	case "windows":
		return []candidate{{cmd: "clip"}}
	}
	cands := []candidate{
		{cmd: "xclip", args: []string{"-selection", "clipboard"}},
		{cmd: "xsel", args: []string{"--clipboard", "--input"}},
	}
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		cands = append([]candidate{{cmd: "wl-copy"}}, cands...)
	}
	return cands
}

// Read implements Clipboard.
func (c *OS) Read(ctx context.Context) (string, error) {
	var out string
	err := c.run(ctx, &c.reader, c.readers, func(cmd *exec.Cmd) error {
		var stdout bytes.Buffer
		cmd.Stdout = &stdout
		if err := cmd.Run(); err != nil {
			return err
		}
		out = stdout.String()
		return nil
	})
	return out, err
}

// Write implements Clipboard.
func (c *OS) Write(ctx context.Context, text string) error {
	return c.run(ctx, &c.writer, c.writers, func(cmd *exec.Cmd) error {
		cmd.Stdin = strings.NewReader(text)
		return cmd.Run()
	})
}

// run executes the remembered candidate, or tries each installed candidate
// in turn and remembers the first that succeeds.
func (c *OS) run(ctx context.Context, chosen **candidate, cands []candidate, do func(*exec.Cmd) error) error {
	c.mu.Lock()
	known := *chosen
	c.mu.Unlock()

	if known != nil {
		return runCandidate(ctx, *known, do)
	}

	var lastErr error
	for i := range cands {
		cand := cands[i]
		if _, err := exec.LookPath(cand.cmd); err != nil {
			continue
		}
		if err := runCandidate(ctx, cand, do); err != nil {
			lastErr = err
			continue
		}
		c.mu.Lock()
		*chosen = &cand
		c.mu.Unlock()
		return nil
	}
	if lastErr != nil {
		return lastErr
	}
	return ErrUnavailable
}

func runCandidate(ctx context.Context, cand candidate, do func(*exec.Cmd) error) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, cand.cmd, cand.args...)
	if err := do(cmd); err != nil {
		return fmt.Errorf("%s: %w", cand.cmd, err)
	}
	return nil
}

// Keystroke is a Paster that sends the platform paste shortcut
// (Cmd+V on macOS, Ctrl+V elsewhere) via osascript, wtype, xdotool or
// PowerShell SendKeys.
type Keystroke struct {
	cands []candidate
}

// NewKeystroke returns a Keystroke paster for the current platform.
func NewKeystroke() *Keystroke {
	var cands []candidate
	switch runtime.GOOS {
	case "darwin":
		cands = []candidate{{cmd: "osascript", args: []string{"-e",
			`tell application "System Events" to keystroke "v" using command down`}}}
	case "windows":
		cands = []candidate{{cmd: "powershell", args: []string{"-NoProfile", "-Command",
			`(New-Object -ComObject WScript.Shell).SendKeys('^v')`}}}
	default:
		if os.Getenv("WAYLAND_DISPLAY") != "" {
			cands = append(cands, candidate{cmd: "wtype", args: []string{"-M", "ctrl", "v", "-m", "ctrl"}})
		}
		cands = append(cands, candidate{cmd: "xdotool", args: []string{"key", "--clearmodifiers", "ctrl+v"}})
	}
	return &Keystroke{cands: cands}
}

// Available reports whether any keystroke tool is installed.
func (k *Keystroke) Available() bool {
	for _, c := range k.cands {
		if _, err := exec.LookPath(c.cmd); err == nil {
			return true
		}
	}
	return false
}

// Paste implements Paster.
func (k *Keystroke) Paste(ctx context.Context) error {
	var lastErr error
	for _, cand := range k.cands {
		if _, err := exec.LookPath(cand.cmd); err != nil {
			continue
		}
		err := runCandidate(ctx, cand, func(cmd *exec.Cmd) error { return cmd.Run() })
		if err == nil {
			return nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return lastErr
	}
	return ErrUnavailable
}
