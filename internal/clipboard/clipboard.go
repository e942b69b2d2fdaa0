// Package clipboard provides the clipboard and paste-keystroke capabilities
// the daemon drives: OS command adapters and an in-memory fake.
package clipboard

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when no clipboard or paste tool is installed.
var ErrUnavailable = errors.New("no clipboard tool available")

// Clipboard reads and writes plain text on the system clipboard.
// Failures are transient; callers skip and retry later.
type Clipboard interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, text string) error
}

// Paster fires an OS-level paste keystroke into the foreground application.
type Paster interface {
	Paste(ctx context.Context) error
}

// Nop is a Paster that does nothing. Used when no keystroke tool is
// installed or pasting is disabled; the recalled text stays on the clipboard.
type Nop struct{}

// Paste implements Paster.
func (Nop) Paste(context.Context) error { return nil }
