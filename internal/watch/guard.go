// Package watch is the clipboard poll loop and the guard that keeps it from
// recording the daemon's own clipboard writes.
package watch

import (
	"strings"
	"sync"

	"github.com/hpungsan/clipz/internal/entry"
)

// Decision is the outcome of observing one clipboard sample.
type Decision int

const (
	// Record: genuinely new content, record it as a copy
	Record Decision = iota
	// Empty: the clipboard holds no text
	Empty
	// Unchanged: same fingerprint as the last-seen content
	Unchanged
	// Suppressed: a recall is in flight
	Suppressed
	// Echo: the clipboard still holds text the daemon wrote itself
	Echo
)

func (d Decision) String() string {
	switch d {
	case Record:
		return "record"
	case Empty:
		return "empty"
	case Unchanged:
		return "unchanged"
	case Suppressed:
		return "suppressed"
	case Echo:
		return "echo"
	}
	return "unknown"
}

// Guard is the state shared by the poll loop and the paste dispatcher.
//
// Begin enters the suppressing-feedback state and registers the fingerprints
// of the text about to be written. An echo is consumed by its first match and
// dropped by any recorded copy, so a platform that rewrites line endings
// cannot turn a recall into a new copy and a later real copy still counts.
type Guard struct {
	mu       sync.Mutex
	lastSeen string
	echoes   map[string]bool
	token    uint64
	active   bool
}

// NewGuard returns an idle guard.
func NewGuard() *Guard {
	return &Guard{echoes: make(map[string]bool)}
}

// Seed records text as last seen without treating it as a copy.
func (g *Guard) Seed(text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if text != "" {
		g.lastSeen = entry.Fingerprint(text)
	}
}

// Begin enters suppression for a write of written and returns a token for
// End. written becomes the last-seen fingerprint and its LF-only form is
// registered as an echo.
func (g *Guard) Begin(written string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.echoes = make(map[string]bool)
	if written != "" {
		g.lastSeen = entry.Fingerprint(written)
		if lf := strings.ReplaceAll(written, "\r\n", "\n"); lf != written {
			g.echoes[entry.Fingerprint(lf)] = true
		}
	}

	g.token++
	g.active = true
	return g.token
}

// End leaves suppression if token is from the most recent Begin.
func (g *Guard) End(token uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if token == g.token {
		g.active = false
	}
}

// Suppressing reports whether a recall is in flight.
func (g *Guard) Suppressing() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// Observe classifies a clipboard sample. On Record or Echo the sample becomes
// the last-seen content and pending echoes are dropped.
func (g *Guard) Observe(text string) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if text == "" {
		return Empty
	}
	if g.active {
		return Suppressed
	}

	fp := entry.Fingerprint(text)
	if fp == g.lastSeen {
		return Unchanged
	}
	echo := g.echoes[fp]
	g.lastSeen = fp
	if len(g.echoes) > 0 {
		g.echoes = make(map[string]bool)
	}
	if echo {
		return Echo
	}
	return Record
}
