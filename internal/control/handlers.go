package control

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hpungsan/clipz/internal/errors"
	"github.com/hpungsan/clipz/internal/ops"
)

// Status is the GET /health payload.
type Status struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Entries  int    `json:"entries"`
	Pinned   int    `json:"pinned"`
	SortMode string `json:"sort_mode"`
	Backend  string `json:"backend"`
	History  string `json:"history"`
}

// SaveResult is the POST /save payload.
type SaveResult struct {
	Saved    bool   `json:"saved"`
	Entries  int    `json:"entries"`
	Location string `json:"location"`
}

// Handlers contains the control API route handlers.
type Handlers struct {
	deps Deps
	log  *slog.Logger
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	snapshot := h.deps.Store.Snapshot()
	pinned := 0
	for _, e := range snapshot {
		if e.Pinned {
			pinned++
		}
	}

	backend := ""
	if h.deps.Config != nil {
		backend = h.deps.Config.Backend
	}
	renderJSON(w, http.StatusOK, Status{
		Status:   "ok",
		Version:  h.deps.Version,
		Entries:  len(snapshot),
		Pinned:   pinned,
		SortMode: string(h.deps.Ranker.Policy),
		Backend:  backend,
		History:  h.deps.Store.Location(),
	})
}

// HandleRecallList handles GET /recall, the ranked recall surface.
func (h *Handlers) HandleRecallList(w http.ResponseWriter, r *http.Request) {
	out := ops.List(h.deps.Store, h.deps.Ranker, ops.ListInput{
		Limit: parseIntParam(r, "limit", 0),
	})
	renderJSON(w, http.StatusOK, out)
}

// HandleRecall handles POST /recall/{slot}.
func (h *Handlers) HandleRecall(w http.ResponseWriter, r *http.Request) {
	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil {
		renderError(w, h.log, errors.NewInvalidRequest(fmt.Sprintf("slot must be an integer, got %q", chi.URLParam(r, "slot"))))
		return
	}

	// A started recall runs to completion even if the caller goes away, so
	// suppression is never cut short.
	ctx := context.WithoutCancel(r.Context())
	res, err := ops.Recall(ctx, h.deps.Dispatcher, slot)
	if err != nil {
		renderError(w, h.log, err)
		return
	}
	renderJSON(w, http.StatusOK, res)
}

// HandlePin handles POST /pin. The optional body is {"text": "..."}.
func (h *Handlers) HandlePin(w http.ResponseWriter, r *http.Request) {
	var input ops.PinInput
	if err := decodeBody(w, r, &input); err != nil {
		renderError(w, h.log, err)
		return
	}
	renderJSON(w, http.StatusOK, ops.Pin(r.Context(), h.deps.Pins, h.deps.Clipboard, input))
}

// HandleHistory handles GET /history, the stored-order inventory.
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	out := ops.Inventory(h.deps.Store, ops.InventoryInput{
		Pinned: parseOptionalBool(r, "pinned"),
		Limit:  parseIntParam(r, "limit", 0),
		Offset: parseIntParam(r, "offset", 0),
	})
	renderJSON(w, http.StatusOK, out)
}

// HandleSearch handles GET /search.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Search(h.deps.Store, h.deps.Ranker, ops.SearchInput{
		Query:  r.URL.Query().Get("q"),
		Limit:  parseIntParam(r, "limit", 0),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		renderError(w, h.log, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleSave handles POST /save, an explicit flush.
func (h *Handlers) HandleSave(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Store.Save(); err != nil {
		renderError(w, h.log, errors.NewInternal(err))
		return
	}
	renderJSON(w, http.StatusOK, SaveResult{
		Saved:    true,
		Entries:  h.deps.Store.Len(),
		Location: h.deps.Store.Location(),
	})
}

// HandleExport handles POST /export.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	var input ops.ExportInput
	if err := decodeBody(w, r, &input); err != nil {
		renderError(w, h.log, err)
		return
	}
	out, err := ops.Export(r.Context(), h.deps.Store, h.deps.Ranker, h.deps.BaseDir, input)
	if err != nil {
		renderError(w, h.log, err)
		return
	}
	h.log.Info("history exported", "path", out.Path, "format", out.Format, "count", out.Count)
	renderJSON(w, http.StatusOK, out)
}

// HandleImport handles POST /import.
func (h *Handlers) HandleImport(w http.ResponseWriter, r *http.Request) {
	var input ops.ImportInput
	if err := decodeBody(w, r, &input); err != nil {
		renderError(w, h.log, err)
		return
	}
	out, err := ops.Import(r.Context(), h.deps.Store, input)
	if err != nil {
		renderError(w, h.log, err)
		return
	}
	h.log.Info("history imported", "path", input.Path, "imported", out.Imported, "merged", out.Merged, "skipped", out.Skipped)
	renderJSON(w, http.StatusOK, out)
}
