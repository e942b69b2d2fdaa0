package entry

import (
	"encoding/json"
	"testing"
	"time"
)

func TestRecord_ToEntry_DefaultsForLegacyRecord(t *testing.T) {
	// Shape written by the earliest history files: only text, hash and created_at.
	raw := `{"text": "hello", "hash": "legacy-hash", "created_at": "2024-05-01T12:00:00"}`

	var r Record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	e := r.ToEntry()

	if e.ID != "legacy-hash" {
		t.Errorf("ID = %q, want legacy hash", e.ID)
	}
	if e.CopyCount != 1 {
		t.Errorf("CopyCount = %d, want 1", e.CopyCount)
	}
	if e.PasteCount != 0 {
		t.Errorf("PasteCount = %d, want 0", e.PasteCount)
	}
	if e.LastPastedAt != nil {
		t.Error("LastPastedAt should be absent")
	}
	if !e.LastCopiedAt.Equal(e.CreatedAt) {
		t.Errorf("LastCopiedAt = %v, want CreatedAt %v", e.LastCopiedAt, e.CreatedAt)
	}
	if e.Pinned || e.PinOrder != nil {
		t.Error("legacy record should be unpinned")
	}
}

func TestRecord_ToEntry_MissingIDRecomputed(t *testing.T) {
	e := Record{Text: "abc", CreatedAt: "2024-05-01T12:00:00Z"}.ToEntry()
	if e.ID != Fingerprint("abc") {
		t.Errorf("ID = %q, want fingerprint of text", e.ID)
	}
}

func TestRecord_ToEntry_NullsAndBadValues(t *testing.T) {
	raw := `{"id":"x","text":"t","created_at":"2024-05-01T12:00:00Z",
		"last_copied_at":null,"copy_count":0,"last_pasted_at":"not a time",
		"paste_count":-3,"pinned":false,"pin_order":5}`

	var r Record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	e := r.ToEntry()

	if e.CopyCount != 1 {
		t.Errorf("CopyCount = %d, want clamped to 1", e.CopyCount)
	}
	if e.PasteCount != 0 {
		t.Errorf("PasteCount = %d, want clamped to 0", e.PasteCount)
	}
	if e.LastPastedAt != nil {
		t.Error("unparseable last_pasted_at should be treated as absent")
	}
	if e.PinOrder != nil {
		t.Error("pin_order on an unpinned record should be dropped")
	}
}

func TestRecord_RoundTrip(t *testing.T) {
	created := time.Date(2025, 2, 3, 4, 5, 6, 7, time.UTC)
	pasted := created.Add(90 * time.Minute)
	order := 2
	orig := Entry{
		ID:           Fingerprint("round trip"),
		Text:         "round trip",
		CreatedAt:    created,
		LastCopiedAt: created.Add(time.Hour),
		CopyCount:    4,
		LastPastedAt: &pasted,
		PasteCount:   3,
		Pinned:       true,
		PinOrder:     &order,
	}

	data, err := json.Marshal(orig.ToRecord())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	got := r.ToEntry()

	if got.ID != orig.ID || got.Text != orig.Text {
		t.Errorf("identity changed: %+v", got)
	}
	if !got.CreatedAt.Equal(orig.CreatedAt) || !got.LastCopiedAt.Equal(orig.LastCopiedAt) {
		t.Errorf("timestamps changed: created=%v copied=%v", got.CreatedAt, got.LastCopiedAt)
	}
	if got.LastPastedAt == nil || !got.LastPastedAt.Equal(pasted) {
		t.Errorf("LastPastedAt = %v, want %v", got.LastPastedAt, pasted)
	}
	if got.CopyCount != 4 || got.PasteCount != 3 {
		t.Errorf("counts = %d/%d, want 4/3", got.CopyCount, got.PasteCount)
	}
	if !got.Pinned || got.Order() != 2 {
		t.Errorf("pin = %v/%d, want true/2", got.Pinned, got.Order())
	}
}

func TestEntry_ToRecord_WritesNullsForAbsent(t *testing.T) {
	e := New("x", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	data, err := json.Marshal(e.ToRecord())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	for _, key := range []string{"last_pasted_at", "pin_order"} {
		v, ok := m[key]
		if !ok {
			t.Errorf("key %q missing from record", key)
		}
		if v != nil {
			t.Errorf("%s = %v, want null", key, v)
		}
	}
	if _, ok := m["hash"]; ok {
		t.Error("legacy hash key should not be written")
	}
}
