// Package pin toggles pinned entries and keeps their order gap-free.
package pin

import (
	"log/slog"

	"github.com/hpungsan/clipz/internal/entry"
	"github.com/hpungsan/clipz/internal/history"
	"github.com/hpungsan/clipz/internal/logging"
)

// Result reports the outcome of a toggle. Found=false is a benign outcome
// (the text was never recorded), not an error.
type Result struct {
	Found   bool   `json:"found"`
	Pinned  bool   `json:"pinned"`
	Order   *int   `json:"pin_order,omitempty"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}

// Manager pins and unpins entries in a Store.
type Manager struct {
	store *history.Store
	log   *slog.Logger
}

// NewManager returns a Manager over store.
func NewManager(store *history.Store, log *slog.Logger) *Manager {
	return &Manager{store: store, log: logging.OrDiscard(log)}
}

// Toggle flips the pinned state of the entry whose content is text.
// A new pin goes to the end of the pinned list; an unpin compacts the rest
// to 0..k-1. The store persists the change.
func (m *Manager) Toggle(text string) Result {
	id := entry.Fingerprint(text)
	var res Result

	m.store.Update(func(entries []*entry.Entry) ([]*entry.Entry, bool) {
		var target *entry.Entry
		for _, e := range entries {
			if e.ID == id {
				target = e
				break
			}
		}
		if target == nil {
			res = Result{Message: "clipboard content is not in history"}
			return entries, false
		}

		if target.Pinned {
			target.Pinned = false
			target.PinOrder = nil
			entry.CompactPins(entries)
			res = Result{Found: true, ID: id, Message: "unpinned"}
			return entries, true
		}

		order := NextOrder(entries)
		target.Pinned = true
		target.PinOrder = &order
		entry.CompactPins(entries)
		o := *target.PinOrder
		res = Result{Found: true, Pinned: true, Order: &o, ID: id, Message: "pinned"}
		return entries, true
	})

	if res.Found {
		m.log.Info(res.Message, "id", entry.ShortID(id), "preview", entry.Preview(text, 40))
	} else {
		m.log.Info("pin toggle ignored", "reason", res.Message)
	}
	return res
}

// NextOrder returns max(existing pin orders, -1) + 1.
func NextOrder(entries []*entry.Entry) int {
	highest := -1
	for _, e := range entries {
		if e.Pinned && e.PinOrder != nil && *e.PinOrder > highest {
			highest = *e.PinOrder
		}
	}
	return highest + 1
}
