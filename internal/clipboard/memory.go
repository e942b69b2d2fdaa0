package clipboard

import (
	"context"
	"sync"
)

// Memory is an in-memory Clipboard and Paster for tests and dry runs.
type Memory struct {
	mu      sync.Mutex
	content string
	writes  []string
	pastes  int

	// ReadErr, WriteErr and PasteErr, when set, are returned by the
	// corresponding calls.
	ReadErr  error
	WriteErr error
	PasteErr error

	// Normalize, when set, transforms written text before it lands on the
	// clipboard (as some platforms rewrite line endings).
	Normalize func(string) string
}

// NewMemory returns a Memory clipboard holding text.
func NewMemory(text string) *Memory {
	return &Memory{content: text}
}

// Set replaces the clipboard content, as a user copy would.
func (m *Memory) Set(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content = text
}

// Content returns the current clipboard content.
func (m *Memory) Content() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.content
}

// Writes returns every text passed to Write, in order.
func (m *Memory) Writes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.writes...)
}

// Pastes returns how many paste keystrokes were fired.
func (m *Memory) Pastes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pastes
}

// SetErrors sets the injected read, write and paste errors.
func (m *Memory) SetErrors(read, write, paste error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadErr, m.WriteErr, m.PasteErr = read, write, paste
}

// Read implements Clipboard.
func (m *Memory) Read(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return "", m.ReadErr
	}
	return m.content, nil
}

// Write implements Clipboard.
func (m *Memory) Write(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.writes = append(m.writes, text)
	if m.Normalize != nil {
		text = m.Normalize(text)
	}
	m.content = text
	return nil
}

// Paste implements Paster.
func (m *Memory) Paste(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PasteErr != nil {
		return m.PasteErr
	}
	m.pastes++
	return nil
}
