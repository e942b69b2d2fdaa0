package entry

// Record is the persisted form of an Entry.
//
// Optional fields are pointers so that records written by older versions
// (which lacked them) can be told apart from explicit values. ToEntry applies
// the defaults:
//
//	last_pasted_at -> absent      paste_count -> 0
//	last_copied_at -> created_at  copy_count  -> 1
//	pinned         -> false       pin_order   -> absent
//
// A record without an id takes it from the legacy "hash" key, or failing that
// recomputes it from text.
type Record struct {
	ID           string  `json:"id"`
	LegacyHash   string  `json:"hash,omitempty"`
	Text         string  `json:"text"`
	CreatedAt    string  `json:"created_at"`
	LastCopiedAt *string `json:"last_copied_at"`
	CopyCount    *int    `json:"copy_count"`
	LastPastedAt *string `json:"last_pasted_at"`
	PasteCount   *int    `json:"paste_count"`
	Pinned       *bool   `json:"pinned"`
	PinOrder     *int    `json:"pin_order"`
}

// ToEntry migrates a record into an Entry, filling defaults for missing fields.
func (r Record) ToEntry() *Entry {
	e := &Entry{
		ID:        r.ID,
		Text:      r.Text,
		CreatedAt: ParseTimestamp(r.CreatedAt),
		CopyCount: 1,
	}
	if e.ID == "" {
		e.ID = r.LegacyHash
	}
	if e.ID == "" {
		e.ID = Fingerprint(r.Text)
	}

	e.LastCopiedAt = e.CreatedAt
	if r.LastCopiedAt != nil {
		if t := ParseTimestamp(*r.LastCopiedAt); !t.IsZero() {
			e.LastCopiedAt = t
		}
	}
	if r.CopyCount != nil && *r.CopyCount > 1 {
		e.CopyCount = *r.CopyCount
	}

	if r.LastPastedAt != nil {
		if t := ParseTimestamp(*r.LastPastedAt); !t.IsZero() {
			e.LastPastedAt = &t
		}
	}
	if r.PasteCount != nil && *r.PasteCount > 0 {
		e.PasteCount = *r.PasteCount
	}

	if r.Pinned != nil {
		e.Pinned = *r.Pinned
	}
	if e.Pinned && r.PinOrder != nil && *r.PinOrder >= 0 {
		order := *r.PinOrder
		e.PinOrder = &order
	}
	return e
}

// ToRecord converts an Entry to its persisted form. Every field is written.
func (e Entry) ToRecord() Record {
	copied := FormatTimestamp(e.LastCopiedAt)
	copyCount := e.CopyCount
	pasteCount := e.PasteCount
	pinned := e.Pinned

	r := Record{
		ID:           e.ID,
		Text:         e.Text,
		CreatedAt:    FormatTimestamp(e.CreatedAt),
		LastCopiedAt: &copied,
		CopyCount:    &copyCount,
		PasteCount:   &pasteCount,
		Pinned:       &pinned,
	}
	if e.LastPastedAt != nil {
		pasted := FormatTimestamp(*e.LastPastedAt)
		r.LastPastedAt = &pasted
	}
	if e.Pinned && e.PinOrder != nil {
		order := *e.PinOrder
		r.PinOrder = &order
	}
	return r
}
