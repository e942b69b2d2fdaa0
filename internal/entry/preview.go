package entry

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultPreviewChars is the preview length used in status lines and listings.
const DefaultPreviewChars = 80

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// Preview returns a single-line rendering of text for display:
// trimmed, internal whitespace collapsed, cut to maxChars runes.
func Preview(text string, maxChars int) string {
	s := whitespaceRegex.ReplaceAllString(strings.TrimSpace(text), " ")
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxChars]) + "…"
}

// CountChars returns the character count as runes (not bytes).
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}
