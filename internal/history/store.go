package history

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hpungsan/clipz/internal/entry"
	"github.com/hpungsan/clipz/internal/logging"
)

// Options configures a Store.
type Options struct {
	// Now returns the current time (default time.Now)
	Now func() time.Time

	// Logger receives persistence warnings (default: discard)
	Logger *slog.Logger

	// ReadOnly stores never write to the backend. Used by offline CLI reads.
	ReadOnly bool
}

// Store is the single owner of the entry collection. Every read-modify-persist
// sequence runs under one mutex, so a recall and a poll-detected copy cannot
// lose each other's updates.
type Store struct {
	mu       sync.Mutex
	backend  Backend
	entries  []*entry.Entry
	now      func() time.Time
	log      *slog.Logger
	readOnly bool
	closed   bool
}

// NewStore creates an empty store over backend. Call Load to read persisted state.
func NewStore(backend Backend, opts Options) *Store {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		backend:  backend,
		now:      now,
		log:      logging.OrDiscard(opts.Logger),
		readOnly: opts.ReadOnly,
	}
}

// Load replaces the in-memory collection with the persisted one and returns
// the number of entries loaded. Missing or unreadable data yields an empty
// history; Load never fails. A writable store moves corrupt data aside first. Duplicate ids keep their first occurrence and
// pin order is compacted.
func (s *Store) Load() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, err := s.backend.Load()
	if err != nil {
		s.log.Warn("history unreadable, starting empty", "path", s.backend.Location(), "error", err)
		loaded = nil
		if errors.Is(err, ErrCorrupt) && !s.readOnly {
			s.quarantineLocked()
		}
	}

	seen := make(map[string]bool, len(loaded))
	entries := make([]*entry.Entry, 0, len(loaded))
	for _, e := range loaded {
		if e == nil || seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		entries = append(entries, e)
	}
	entry.CompactPins(entries)

	s.entries = entries
	return len(entries)
}

// FindByIdentity returns a copy of the entry with the given id.
func (s *Store) FindByIdentity(id string) (entry.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e := s.findLocked(id); e != nil {
		return e.Clone(), true
	}
	return entry.Entry{}, false
}

// FindByText returns a copy of the entry whose content is exactly text.
func (s *Store) FindByText(text string) (entry.Entry, bool) {
	return s.FindByIdentity(entry.Fingerprint(text))
}

// RecordCopy records an observed copy of text. An existing entry gets a new
// last_copied_at and an incremented copy_count; otherwise a new entry is
// appended. The history is persisted before returning.
func (s *Store) RecordCopy(text string) entry.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e := s.findLocked(entry.Fingerprint(text))
	if e != nil {
		e.LastCopiedAt = now
		e.CopyCount++
	} else {
		e = entry.New(text, now)
		s.entries = append(s.entries, e)
	}
	s.persistLocked()
	return e.Clone()
}

// RecordPaste records a recall of the entry with the given id: last_pasted_at
// becomes now and paste_count is incremented. Reports false if no such entry.
func (s *Store) RecordPaste(id string) (entry.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.findLocked(id)
	if e == nil {
		return entry.Entry{}, false
	}
	now := s.now()
	e.LastPastedAt = &now
	e.PasteCount++
	s.persistLocked()
	return e.Clone(), true
}

// Update runs fn with the live collection under the store lock. fn returns the
// (possibly grown) collection and whether it changed; a change is persisted.
// fn must not retain the slice or its entries.
func (s *Store) Update(fn func(entries []*entry.Entry) ([]*entry.Entry, bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, changed := fn(s.entries)
	if !changed {
		return
	}
	s.entries = updated
	s.persistLocked()
}

// Save persists the current collection. A failure is logged and returned;
// memory state is left intact either way.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

// Snapshot returns deep copies of all entries in stored order.
func (s *Store) Snapshot() []entry.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entry.Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Clone()
	}
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Now returns the store's clock reading.
func (s *Store) Now() time.Time {
	return s.now()
}

// Location describes the backing storage.
func (s *Store) Location() string {
	return s.backend.Location()
}

// Close flushes the history one last time and closes the backend.
// Later mutations stay in memory only.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	saveErr := s.persistLocked()
	s.closed = true
	if err := s.backend.Close(); err != nil {
		return err
	}
	return saveErr
}

func (s *Store) findLocked(id string) *entry.Entry {
	for _, e := range s.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// quarantineLocked moves corrupt backing data aside. If that fails the store
// stops persisting, so the corrupt copy is never overwritten.
func (s *Store) quarantineLocked() {
	q, ok := s.backend.(quarantiner)
	if !ok {
		return
	}
	moved, err := q.Quarantine()
	if err != nil {
		s.readOnly = true
		s.log.Warn("could not move corrupt history aside; changes will not be saved",
			"path", s.backend.Location(), "error", err)
		return
	}
	s.log.Warn("corrupt history moved aside", "path", s.backend.Location(), "moved_to", moved)
}

func (s *Store) persistLocked() error {
	if s.readOnly || s.closed {
		return nil
	}
	if err := s.backend.Save(s.entries); err != nil {
		s.log.Warn("history save failed", "path", s.backend.Location(), "error", err)
		return err
	}
	return nil
}
