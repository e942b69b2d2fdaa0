package watch

import (
	"context"
	"log/slog"
	"time"

	"github.com/hpungsan/clipz/internal/clipboard"
	"github.com/hpungsan/clipz/internal/entry"
	"github.com/hpungsan/clipz/internal/history"
	"github.com/hpungsan/clipz/internal/logging"
)

// TickResult describes one poll.
type TickResult struct {
	Decision Decision
	Entry    *entry.Entry
	Err      error
}

// Loop polls the clipboard and records genuine changes in the store.
type Loop struct {
	clip     clipboard.Clipboard
	store    *history.Store
	guard    *Guard
	interval time.Duration
	log      *slog.Logger

	failing bool
}

// NewLoop returns a loop polling clip every interval.
func NewLoop(clip clipboard.Clipboard, store *history.Store, guard *Guard, interval time.Duration, log *slog.Logger) *Loop {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Loop{
		clip:     clip,
		store:    store,
		guard:    guard,
		interval: interval,
		log:      logging.OrDiscard(log),
	}
}

// Seed reads the clipboard once and marks its content as already seen, so
// whatever is on the clipboard at startup is not counted as a copy.
func (l *Loop) Seed(ctx context.Context) {
	text, err := l.clip.Read(ctx)
	if err != nil {
		l.log.Debug("initial clipboard read failed", "error", err)
		return
	}
	l.guard.Seed(text)
}

// Tick performs one poll. A read failure skips the tick.
func (l *Loop) Tick(ctx context.Context) TickResult {
	text, err := l.clip.Read(ctx)
	if err != nil {
		// Warn once per outage; the tool can be missing for a long time.
		if !l.failing {
			l.log.Warn("clipboard read failed", "error", err)
			l.failing = true
		} else {
			l.log.Debug("clipboard read failed", "error", err)
		}
		return TickResult{Err: err}
	}
	if l.failing {
		l.log.Info("clipboard read recovered")
		l.failing = false
	}

	d := l.guard.Observe(text)
	if d != Record {
		return TickResult{Decision: d}
	}

	e := l.store.RecordCopy(text)
	l.log.Debug("recorded copy", "id", entry.ShortID(e.ID), "copy_count", e.CopyCount, "chars", entry.CountChars(text))
	return TickResult{Decision: Record, Entry: &e}
}

// Run seeds the loop, then polls until ctx is done.
func (l *Loop) Run(ctx context.Context) {
	l.Seed(ctx)
	l.Poll(ctx)
}

// Poll ticks every interval until ctx is done. It does not seed.
func (l *Loop) Poll(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Tick(ctx)
		}
	}
}
