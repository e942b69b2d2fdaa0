package ops

import (
	"strings"
	"testing"

	"github.com/hpungsan/clipz/internal/errors"
	"github.com/hpungsan/clipz/internal/rank"
)

func TestSearch_CaseInsensitive(t *testing.T) {
	env := newTestEnv(t, rank.PolicyLastCopied)
	env.copyAll("Hello World", "goodbye", "say HELLO again")

	out, err := Search(env.store, env.ranker, SearchInput{Query: "hello"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if out.Pagination.Total != 2 {
		t.Fatalf("Total = %d, want 2", out.Pagination.Total)
	}
	// Ranked order: most recent copy first
	if out.Items[0].Preview != "say HELLO again" || out.Items[1].Preview != "Hello World" {
		t.Errorf("order = %q, %q", out.Items[0].Preview, out.Items[1].Preview)
	}
	if out.Sort != "rank" {
		t.Errorf("Sort = %q", out.Sort)
	}
}

func TestSearch_Validation(t *testing.T) {
	env := newTestEnv(t, rank.PolicySmart)

	if _, err := Search(env.store, env.ranker, SearchInput{Query: "   "}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("empty query err = %v", err)
	}
	long := strings.Repeat("x", MaxQueryLength+1)
	if _, err := Search(env.store, env.ranker, SearchInput{Query: long}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("long query err = %v", err)
	}
}

func TestSearch_Pagination(t *testing.T) {
	env := newTestEnv(t, rank.PolicySmart)
	env.copyAll("match 1", "match 2", "match 3", "other")

	out, err := Search(env.store, env.ranker, SearchInput{Query: "match", Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Items) != 2 || !out.Pagination.HasMore || out.Pagination.Total != 3 {
		t.Errorf("out = %+v", out.Pagination)
	}
}

func TestMatchSnippet(t *testing.T) {
	text := strings.Repeat("a", 100) + " NEEDLE " + strings.Repeat("b", 100)
	snippet, ok := matchSnippet(text, "needle")
	if !ok {
		t.Fatal("expected match")
	}
	if !strings.Contains(snippet, "NEEDLE") {
		t.Errorf("snippet %q lacks match", snippet)
	}
	if !strings.HasPrefix(snippet, "…") || !strings.HasSuffix(snippet, "…") {
		t.Errorf("snippet %q should be elided on both sides", snippet)
	}

	if _, ok := matchSnippet("nothing here", "needle"); ok {
		t.Error("unexpected match")
	}

	// Non-ASCII case folding keeps offsets aligned
	snippet, ok = matchSnippet("Ärger im Büro", "büro")
	if !ok || !strings.Contains(snippet, "Büro") {
		t.Errorf("snippet = %q, ok = %v", snippet, ok)
	}
}
