// Package ops implements the user-facing operations on the clipboard history:
// listing, inventory, search, recall, pin, export and import. The daemon's
// control API and the offline CLI both call into it.
package ops

import (
	"github.com/hpungsan/clipz/internal/entry"
	"github.com/hpungsan/clipz/internal/rank"
)

// Pagination limits
const (
	DefaultListLimit      = rank.RecallSlots
	MaxListLimit          = 100
	DefaultHistoryLimit   = 50
	MaxHistoryLimit       = 500
	DefaultSearchLimit    = 20
	MaxSearchLimit        = 100
	MaxQueryLength        = 256
	DefaultPreviewChars   = entry.DefaultPreviewChars
	MaxSnippetChars       = 160
	snippetContextChars   = 40
	maxImportLineBytes    = 16 << 20
	MaxImportBytes        = 64 << 20
	exportSchemaVersion   = "1.0"
	exportDirName         = "exports"
	defaultExportBaseName = "clipz"
	exportFileMode        = 0600
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Item is the listing form of an entry.
type Item struct {
	Slot         int      `json:"slot,omitempty"`
	Hotkey       string   `json:"hotkey,omitempty"`
	ID           string   `json:"id"`
	Preview      string   `json:"preview"`
	Chars        int      `json:"chars"`
	CopyCount    int      `json:"copy_count"`
	PasteCount   int      `json:"paste_count"`
	CreatedAt    string   `json:"created_at"`
	LastCopiedAt string   `json:"last_copied_at"`
	LastPastedAt *string  `json:"last_pasted_at,omitempty"`
	Pinned       bool     `json:"pinned"`
	PinOrder     *int     `json:"pin_order,omitempty"`
	Score        *float64 `json:"score,omitempty"`
}

// ToItem converts an entry into its listing form.
func ToItem(e entry.Entry) Item {
	it := Item{
		ID:           e.ID,
		Preview:      entry.Preview(e.Text, DefaultPreviewChars),
		Chars:        entry.CountChars(e.Text),
		CopyCount:    e.CopyCount,
		PasteCount:   e.PasteCount,
		CreatedAt:    entry.FormatTimestamp(e.CreatedAt),
		LastCopiedAt: entry.FormatTimestamp(e.CopiedAt()),
		Pinned:       e.Pinned,
	}
	if e.LastPastedAt != nil {
		s := entry.FormatTimestamp(*e.LastPastedAt)
		it.LastPastedAt = &s
	}
	if e.Pinned && e.PinOrder != nil {
		o := *e.PinOrder
		it.PinOrder = &o
	}
	return it
}

// clampLimit applies a default and an upper bound to a requested limit.
func clampLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, maxLimit)
}

// page slices n items at offset/limit and returns the bounds plus pagination.
func page(n, limit, offset int) (start, end int, p Pagination) {
	offset = max(offset, 0)
	start = min(offset, n)
	end = min(start+limit, n)
	return start, end, Pagination{
		Limit:   limit,
		Offset:  offset,
		HasMore: end < n,
		Total:   n,
	}
}
