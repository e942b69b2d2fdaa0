package entry

import (
	"testing"
	"time"
)

func intPtr(i int) *int { return &i }

func TestFingerprint_StableAndContentSensitive(t *testing.T) {
	a := Fingerprint("hello")
	if a != Fingerprint("hello") {
		t.Fatal("Fingerprint is not stable for identical text")
	}
	if len(a) != 64 {
		t.Errorf("len(Fingerprint) = %d, want 64", len(a))
	}
	if a == Fingerprint("hello\r\n") {
		t.Error("Fingerprint should differ when a terminator is appended")
	}
	// Known SHA-256 of "hello".
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if a != want {
		t.Errorf("Fingerprint(hello) = %s, want %s", a, want)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		isZero bool
		want   time.Time
	}{
		{name: "empty", input: "", isZero: true},
		{name: "garbage", input: "yesterday-ish", isZero: true},
		{name: "rfc3339", input: "2024-03-01T10:00:00Z", want: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{name: "rfc3339 nano", input: "2024-03-01T10:00:00.5+02:00", want: time.Date(2024, 3, 1, 8, 0, 0, 500000000, time.UTC)},
		{name: "naive iso", input: "2024-03-01T10:00:00", want: time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)},
		{name: "naive iso micros", input: "2024-03-01T10:00:00.123456", want: time.Date(2024, 3, 1, 10, 0, 0, 123456000, time.Local)},
		{name: "naive space", input: "2024-03-01 10:00:00", want: time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTimestamp(tt.input)
			if tt.isZero {
				if !got.IsZero() {
					t.Errorf("ParseTimestamp(%q) = %v, want zero", tt.input, got)
				}
				return
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatTimestamp_RoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 7, 8, 9, 10, 123456789, time.UTC)
	if got := ParseTimestamp(FormatTimestamp(now)); !got.Equal(now) {
		t.Errorf("round trip = %v, want %v", got, now)
	}
	if FormatTimestamp(time.Time{}) != "" {
		t.Error("zero time should format as empty string")
	}
}

func TestNew(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	e := New("hello", now)

	if e.ID != Fingerprint("hello") {
		t.Errorf("ID = %s, want fingerprint of text", e.ID)
	}
	if e.CopyCount != 1 || e.PasteCount != 0 {
		t.Errorf("counts = %d/%d, want 1/0", e.CopyCount, e.PasteCount)
	}
	if !e.CreatedAt.Equal(now) || !e.LastCopiedAt.Equal(now) {
		t.Error("CreatedAt and LastCopiedAt should both be now")
	}
	if e.Pinned || e.PinOrder != nil || e.LastPastedAt != nil {
		t.Error("new entry should be unpinned and never pasted")
	}
}

func TestClone_IsDeep(t *testing.T) {
	pasted := time.Now()
	e := Entry{ID: "x", LastPastedAt: &pasted, Pinned: true, PinOrder: intPtr(3)}
	c := e.Clone()

	*c.PinOrder = 7
	*c.LastPastedAt = pasted.Add(time.Hour)

	if *e.PinOrder != 3 {
		t.Error("Clone shares PinOrder with original")
	}
	if !e.LastPastedAt.Equal(pasted) {
		t.Error("Clone shares LastPastedAt with original")
	}
}

func TestLastActivity(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	copied := created.Add(time.Hour)
	pasted := created.Add(2 * time.Hour)

	if got := (Entry{CreatedAt: created}).LastActivity(); !got.Equal(created) {
		t.Errorf("created only: got %v", got)
	}
	if got := (Entry{CreatedAt: created, LastCopiedAt: copied}).LastActivity(); !got.Equal(copied) {
		t.Errorf("copied: got %v", got)
	}
	if got := (Entry{CreatedAt: created, LastCopiedAt: copied, LastPastedAt: &pasted}).LastActivity(); !got.Equal(pasted) {
		t.Errorf("pasted: got %v", got)
	}
	if got := (Entry{}).LastActivity(); !got.IsZero() {
		t.Errorf("no timestamps: got %v, want zero", got)
	}
}

func TestCompactPins(t *testing.T) {
	a := &Entry{ID: "a", Pinned: true, PinOrder: intPtr(4)}
	b := &Entry{ID: "b", Pinned: true, PinOrder: intPtr(1)}
	c := &Entry{ID: "c", PinOrder: intPtr(2)} // stale order on an unpinned entry
	d := &Entry{ID: "d", Pinned: true}        // pinned without order goes last

	if !CompactPins([]*Entry{a, b, c, d}) {
		t.Fatal("CompactPins reported no change")
	}

	if b.Order() != 0 || a.Order() != 1 || d.Order() != 2 {
		t.Errorf("orders = a:%d b:%d d:%d, want a:1 b:0 d:2", a.Order(), b.Order(), d.Order())
	}
	if c.PinOrder != nil {
		t.Error("unpinned entry kept a pin order")
	}

	if CompactPins([]*Entry{a, b, c, d}) {
		t.Error("second CompactPins should be a no-op")
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"short", "hello", 80, "hello"},
		{"trim and collapse", "  hello \n\t world  ", 80, "hello world"},
		{"truncate runes", "héllo wörld", 5, "héllo…"},
		{"no limit", "abc", 0, "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preview(tt.input, tt.max); got != tt.want {
				t.Errorf("Preview(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
		})
	}
}

func TestShortID(t *testing.T) {
	if got := ShortID(Fingerprint("x")); len(got) != 12 {
		t.Errorf("ShortID len = %d, want 12", len(got))
	}
	if got := ShortID("abc"); got != "abc" {
		t.Errorf("ShortID(abc) = %q", got)
	}
}
