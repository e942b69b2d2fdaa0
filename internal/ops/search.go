package ops

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hpungsan/clipz/internal/entry"
	"github.com/hpungsan/clipz/internal/errors"
	"github.com/hpungsan/clipz/internal/history"
	"github.com/hpungsan/clipz/internal/rank"
)

// SearchInput contains parameters for the Search operation.
type SearchInput struct {
	Query  string // required
	Limit  int    // default: 20, max: 100
	Offset int    // default: 0
}

// SearchResultItem wraps an Item with a match snippet.
type SearchResultItem struct {
	Item
	// Snippet is plain text around the first match, whitespace collapsed
	Snippet string `json:"snippet"`
}

// SearchOutput contains the result of the Search operation.
type SearchOutput struct {
	Items      []SearchResultItem `json:"items"`
	Pagination Pagination         `json:"pagination"`
	Sort       string             `json:"sort"`
}

// Search finds entries containing query (case-insensitive) and returns them
// in ranked order.
func Search(store *history.Store, ranker *rank.Ranker, input SearchInput) (*SearchOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, errors.NewInvalidRequest("query is required")
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("query exceeds maximum length of %d characters", MaxQueryLength))
	}

	limit := clampLimit(input.Limit, DefaultSearchLimit, MaxSearchLimit)
	needle := query

	var matches []SearchResultItem
	for _, e := range ranker.Rank(store.Snapshot(), 0) {
		snippet, ok := matchSnippet(e.Text, needle)
		if !ok {
			continue
		}
		matches = append(matches, SearchResultItem{Item: ToItem(e), Snippet: snippet})
	}

	start, end, p := page(len(matches), limit, input.Offset)
	items := make([]SearchResultItem, 0, end-start)
	items = append(items, matches[start:end]...)

	return &SearchOutput{
		Items:      items,
		Pagination: p,
		Sort:       "rank",
	}, nil
}

// matchSnippet reports whether needle occurs in text, ignoring case, and
// returns the surrounding context.
func matchSnippet(text, needle string) (string, bool) {
	runes := []rune(text)
	hay := lowerRunes(text)
	idx := strings.Index(string(hay), string(lowerRunes(needle)))
	if idx < 0 {
		return "", false
	}
	pos := utf8.RuneCountInString(string(hay)[:idx])
	n := utf8.RuneCountInString(needle)

	start := max(pos-snippetContextChars, 0)
	end := min(pos+n+snippetContextChars, len(runes))

	snippet := entry.Preview(string(runes[start:end]), MaxSnippetChars)
	if start > 0 {
		snippet = "…" + snippet
	}
	if end < len(runes) {
		snippet += "…"
	}
	return snippet, true
}

// lowerRunes lower-cases s rune by rune, so rune offsets match the input.
func lowerRunes(s string) []rune {
	out := []rune(s)
	for i, r := range out {
		out[i] = unicode.ToLower(r)
	}
	return out
}
