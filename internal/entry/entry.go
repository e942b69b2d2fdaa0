package entry

import (
	"slices"
	"time"
)

// Entry is one distinct piece of copied text and its usage statistics.
type Entry struct {
	// ID is the content fingerprint (see Fingerprint); it is the sole identity key
	ID string

	// Text is the stored content, exactly as copied
	Text string

	// CreatedAt is when this content was first observed
	CreatedAt time.Time

	// LastCopiedAt is the most recent copy of this exact content
	LastCopiedAt time.Time

	// CopyCount is the number of times this content was copied (>= 1)
	CopyCount int

	// LastPastedAt is the most recent recall-paste (nil if never pasted)
	LastPastedAt *time.Time

	// PasteCount is the number of recalls via hotkey (>= 0)
	PasteCount int

	// Pinned keeps the entry at the top of the recall list
	Pinned bool

	// PinOrder is the position among pinned entries (nil when not pinned)
	PinOrder *int
}

// New creates an entry for text first observed at now.
func New(text string, now time.Time) *Entry {
	return &Entry{
		ID:           Fingerprint(text),
		Text:         text,
		CreatedAt:    now,
		LastCopiedAt: now,
		CopyCount:    1,
	}
}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	c := e
	if e.LastPastedAt != nil {
		t := *e.LastPastedAt
		c.LastPastedAt = &t
	}
	if e.PinOrder != nil {
		o := *e.PinOrder
		c.PinOrder = &o
	}
	return c
}

// CopiedAt returns LastCopiedAt, falling back to CreatedAt.
func (e Entry) CopiedAt() time.Time {
	if !e.LastCopiedAt.IsZero() {
		return e.LastCopiedAt
	}
	return e.CreatedAt
}

// LastActivity returns the most relevant activity timestamp:
// last paste, else last copy, else creation. Zero if none resolves.
func (e Entry) LastActivity() time.Time {
	if e.LastPastedAt != nil && !e.LastPastedAt.IsZero() {
		return *e.LastPastedAt
	}
	return e.CopiedAt()
}

// Order returns the pin order, or -1 when the entry has none.
func (e Entry) Order() int {
	if e.PinOrder == nil {
		return -1
	}
	return *e.PinOrder
}

// CompactPins clears pin_order on unpinned entries and renumbers pinned entries
// 0..k-1, keeping their existing relative order (stored order breaks ties; pinned
// entries without an order go last). Reports whether anything changed.
func CompactPins(entries []*Entry) bool {
	changed := false
	var pinned []*Entry
	for _, e := range entries {
		if e.Pinned {
			pinned = append(pinned, e)
			continue
		}
		if e.PinOrder != nil {
			e.PinOrder = nil
			changed = true
		}
	}

	slices.SortStableFunc(pinned, func(a, b *Entry) int {
		ao, bo := a.PinOrder, b.PinOrder
		switch {
		case ao == nil && bo == nil:
			return 0
		case ao == nil:
			return 1
		case bo == nil:
			return -1
		}
		return *ao - *bo
	})

	for i, e := range pinned {
		if e.PinOrder == nil || *e.PinOrder != i {
			order := i
			e.PinOrder = &order
			changed = true
		}
	}
	return changed
}
