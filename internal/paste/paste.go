// Package paste resolves a recall slot to an entry, writes it to the
// clipboard, fires the paste keystroke and records the usage.
package paste

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hpungsan/clipz/internal/clipboard"
	"github.com/hpungsan/clipz/internal/entry"
	"github.com/hpungsan/clipz/internal/history"
	"github.com/hpungsan/clipz/internal/logging"
	"github.com/hpungsan/clipz/internal/rank"
	"github.com/hpungsan/clipz/internal/watch"
)

// Terminator is appended to recalled text when newline mode is on.
const Terminator = "\r\n"

// AppendTerminator returns text with a CRLF appended unless it already ends
// in a line terminator.
func AppendTerminator(text string) string {
	if strings.HasSuffix(text, "\n") {
		return text
	}
	return text + Terminator
}

// Result reports a recall. Found=false (empty slot) is a benign outcome.
type Result struct {
	Found      bool   `json:"found"`
	Slot       int    `json:"slot"`
	Hotkey     string `json:"hotkey,omitempty"`
	ID         string `json:"id,omitempty"`
	Preview    string `json:"preview,omitempty"`
	Written    bool   `json:"written"`
	Pasted     bool   `json:"pasted"`
	PasteCount int    `json:"paste_count,omitempty"`
	Message    string `json:"message"`
}

// Options configures a Dispatcher.
type Options struct {
	// Newline appends Terminator to the pasted copy (never to the stored text)
	Newline bool

	// Hold is how long suppression lasts after the paste keystroke.
	// It must exceed one keystroke propagation plus one poll tick.
	Hold time.Duration

	// Settle is a pause between the clipboard write and the keystroke
	Settle time.Duration

	Logger *slog.Logger
}

// Dispatcher performs recalls. Recalls are serialized.
type Dispatcher struct {
	mu      sync.Mutex
	store   *history.Store
	ranker  *rank.Ranker
	clip    clipboard.Clipboard
	paster  clipboard.Paster
	guard   *watch.Guard
	newline bool
	hold    time.Duration
	settle  time.Duration
	log     *slog.Logger
}

// NewDispatcher wires a Dispatcher. A nil paster means no keystroke is sent.
func NewDispatcher(store *history.Store, ranker *rank.Ranker, clip clipboard.Clipboard, paster clipboard.Paster, guard *watch.Guard, opts Options) *Dispatcher {
	if paster == nil {
		paster = clipboard.Nop{}
	}
	return &Dispatcher{
		store:   store,
		ranker:  ranker,
		clip:    clip,
		paster:  paster,
		guard:   guard,
		newline: opts.Newline,
		hold:    opts.Hold,
		settle:  opts.Settle,
		log:     logging.OrDiscard(opts.Logger),
	}
}

// Recall dispatches a 1-based slot. Slot 0 is an alias for slot 10 (the
// Ctrl+0 key).
func (d *Dispatcher) Recall(ctx context.Context, slot int) Result {
	if slot == 0 {
		slot = rank.RecallSlots
	}
	return d.Dispatch(ctx, slot-1)
}

// Dispatch recalls the entry at 0-based ranked position index.
func (d *Dispatcher) Dispatch(ctx context.Context, index int) Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot := index + 1
	ranked := d.ranker.Recall(d.store.Snapshot())
	if index < 0 || index >= len(ranked) {
		d.log.Info("recall ignored", "slot", slot, "reason", "empty slot")
		return Result{Slot: slot, Message: fmt.Sprintf("no item at position %d", slot)}
	}

	e := ranked[index]
	res := Result{
		Found:   true,
		Slot:    slot,
		Hotkey:  rank.Hotkey(slot),
		ID:      e.ID,
		Preview: entry.Preview(e.Text, entry.DefaultPreviewChars),
	}

	out := e.Text
	if d.newline {
		out = AppendTerminator(out)
	}

	token := d.guard.Begin(out)
	if err := d.clip.Write(ctx, out); err != nil {
		d.guard.End(token)
		d.log.Warn("clipboard write failed", "slot", slot, "error", err)
		res.Message = "clipboard write failed"
		return res
	}
	res.Written = true

	d.wait(ctx, d.settle)
	if err := d.paster.Paste(ctx); err != nil {
		d.log.Warn("paste keystroke failed", "slot", slot, "error", err)
	} else {
		res.Pasted = true
	}

	if updated, ok := d.store.RecordPaste(e.ID); ok {
		res.PasteCount = updated.PasteCount
	}

	d.wait(ctx, d.hold)
	d.guard.End(token)

	res.Message = "recalled"
	if !res.Pasted {
		res.Message = "copied to clipboard (paste keystroke failed)"
	}
	d.log.Info("recalled", "slot", slot, "id", entry.ShortID(e.ID), "paste_count", res.PasteCount)
	return res
}

// wait sleeps for dur or until ctx is done.
func (d *Dispatcher) wait(ctx context.Context, dur time.Duration) {
	if dur <= 0 {
		return
	}
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
