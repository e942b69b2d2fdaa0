package ops

import (
	"context"

	"github.com/hpungsan/clipz/internal/clipboard"
	"github.com/hpungsan/clipz/internal/pin"
)

// PinInput contains parameters for the Pin operation.
type PinInput struct {
	// Text to toggle; nil means the current clipboard content
	Text *string `json:"text,omitempty"`
}

// Pin toggles the pin on the given text or on the clipboard content.
// Unreadable or empty clipboards and unrecorded text are benign outcomes.
func Pin(ctx context.Context, m *pin.Manager, clip clipboard.Clipboard, input PinInput) *pin.Result {
	var text string
	if input.Text != nil {
		text = *input.Text
	} else {
		current, err := clip.Read(ctx)
		if err != nil {
			return &pin.Result{Message: "clipboard unreadable: " + err.Error()}
		}
		text = current
	}
	if text == "" {
		return &pin.Result{Message: "clipboard is empty"}
	}

	res := m.Toggle(text)
	return &res
}
