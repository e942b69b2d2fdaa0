package control

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/clipz/internal/clipboard"
	"github.com/hpungsan/clipz/internal/config"
	"github.com/hpungsan/clipz/internal/errors"
	"github.com/hpungsan/clipz/internal/history"
	"github.com/hpungsan/clipz/internal/ops"
	"github.com/hpungsan/clipz/internal/paste"
	"github.com/hpungsan/clipz/internal/pin"
	"github.com/hpungsan/clipz/internal/rank"
	"github.com/hpungsan/clipz/internal/watch"
)

type fixture struct {
	baseDir string
	store   *history.Store
	clip    *clipboard.Memory
	client  *Client
	server  *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	baseDir := t.TempDir()

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	clock := func() time.Time {
		n++
		return start.Add(time.Duration(n) * time.Second)
	}

	cfg := config.DefaultConfig()
	cfg.SortMode = config.SortModeLastCopied

	store := history.NewStore(history.NewJSONFile(cfg.HistoryPath(baseDir)), history.Options{Now: clock})
	store.Load()
	ranker := rank.NewRanker(cfg, clock)
	clip := clipboard.NewMemory("")
	guard := watch.NewGuard()

	handler := NewHandler(Deps{
		Store:      store,
		Ranker:     ranker,
		Dispatcher: paste.NewDispatcher(store, ranker, clip, clip, guard, paste.Options{}),
		Pins:       pin.NewManager(store, nil),
		Clipboard:  clip,
		Config:     cfg,
		BaseDir:    baseDir,
		Version:    "test",
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &fixture{
		baseDir: baseDir,
		store:   store,
		clip:    clip,
		client:  NewClient(strings.TrimPrefix(srv.URL, "http://")),
		server:  srv,
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	f.store.RecordCopy("a")
	f.store.RecordCopy("b")
	pin.NewManager(f.store, nil).Toggle("a")

	st, err := f.client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", st.Status)
	assert.Equal(t, 2, st.Entries)
	assert.Equal(t, 1, st.Pinned)
	assert.Equal(t, config.SortModeLastCopied, st.SortMode)
	assert.Equal(t, config.BackendJSON, st.Backend)
	assert.Equal(t, f.store.Location(), st.History)
}

func TestRecallList(t *testing.T) {
	f := newFixture(t)
	for _, s := range []string{"one", "two", "three"} {
		f.store.RecordCopy(s)
	}

	out, err := f.client.List(context.Background(), ops.ListInput{Limit: 2})
	require.NoError(t, err)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "three", out.Items[0].Preview)
	assert.Equal(t, "ctrl+1", out.Items[0].Hotkey)
	assert.Equal(t, 3, out.Total)
}

func TestRecall(t *testing.T) {
	f := newFixture(t)
	f.store.RecordCopy("older")
	f.store.RecordCopy("newer")

	res, err := f.client.Recall(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.True(t, res.Pasted)
	assert.Equal(t, "older", f.clip.Content())
	assert.Equal(t, 1, f.clip.Pastes())

	e, ok := f.store.FindByText("older")
	require.True(t, ok)
	assert.Equal(t, 1, e.PasteCount)

	res, err = f.client.Recall(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Equal(t, "no item at position 7", res.Message)

	_, err = f.client.Recall(context.Background(), 11)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)
}

func TestRecall_NonNumericSlot(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Post(f.server.URL+"/recall/abc", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestPin(t *testing.T) {
	f := newFixture(t)
	f.store.RecordCopy("pin me")

	f.clip.Set("pin me")
	res, err := f.client.Pin(context.Background(), ops.PinInput{})
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.True(t, res.Pinned)
	require.NotNil(t, res.Order)
	assert.Equal(t, 0, *res.Order)

	text := "pin me"
	res, err = f.client.Pin(context.Background(), ops.PinInput{Text: &text})
	require.NoError(t, err)
	assert.False(t, res.Pinned)

	text = "never copied"
	res, err = f.client.Pin(context.Background(), ops.PinInput{Text: &text})
	require.NoError(t, err)
	assert.False(t, res.Found)
}

func TestHistoryAndSearch(t *testing.T) {
	f := newFixture(t)
	for _, s := range []string{"apple pie", "banana", "apple juice"} {
		f.store.RecordCopy(s)
	}
	pin.NewManager(f.store, nil).Toggle("banana")

	pinned := true
	hist, err := f.client.History(context.Background(), ops.InventoryInput{Pinned: &pinned})
	require.NoError(t, err)
	require.Len(t, hist.Items, 1)
	assert.Equal(t, "banana", hist.Items[0].Preview)

	hist, err = f.client.History(context.Background(), ops.InventoryInput{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, hist.Items, 1)
	assert.Equal(t, "banana", hist.Items[0].Preview)
	assert.True(t, hist.Pagination.HasMore)

	found, err := f.client.Search(context.Background(), ops.SearchInput{Query: "APPLE"})
	require.NoError(t, err)
	require.Len(t, found.Items, 2)
	assert.Equal(t, "apple juice", found.Items[0].Preview)

	_, err = f.client.Search(context.Background(), ops.SearchInput{Query: ""})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)
}

func TestSave(t *testing.T) {
	f := newFixture(t)
	f.store.RecordCopy("persist")
	require.NoError(t, os.Remove(f.store.Location()))

	out, err := f.client.Save(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Saved)
	assert.Equal(t, 1, out.Entries)
	assert.FileExists(t, f.store.Location())
}

func TestExportImport(t *testing.T) {
	f := newFixture(t)
	f.store.RecordCopy("exported")

	path := filepath.Join(t.TempDir(), "h.jsonl")
	exp, err := f.client.Export(context.Background(), ops.ExportInput{Path: path})
	require.NoError(t, err)
	assert.Equal(t, 1, exp.Count)
	assert.FileExists(t, path)

	g := newFixture(t)
	imp, err := g.client.Import(context.Background(), ops.ImportInput{Path: path})
	require.NoError(t, err)
	assert.Equal(t, 1, imp.Imported)
	_, ok := g.store.FindByText("exported")
	assert.True(t, ok)

	_, err = g.client.Import(context.Background(), ops.ImportInput{Path: filepath.Join(t.TempDir(), "missing.jsonl")})
	assert.True(t, errors.Is(err, errors.ErrFileNotFound), "got %v", err)
}

func TestRequestIDHeader(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	id := resp.Header.Get(RequestIDHeader)
	_, err = ulid.Parse(id)
	assert.NoError(t, err, "request id %q", id)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	req, err := http.NewRequest(http.MethodGet, f.server.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "caller-id")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, "caller-id", resp2.Header.Get(RequestIDHeader))
}

func TestClient_DaemonUnavailable(t *testing.T) {
	f := newFixture(t)
	f.server.Close()

	_, err := f.client.Health(context.Background())
	assert.True(t, errors.Is(err, errors.ErrDaemonUnavailable), "got %v", err)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	srv := NewServer("127.0.0.1:0", http.NotFoundHandler())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Serve(ctx, srv, nil) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
