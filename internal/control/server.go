// Package control serves the daemon's loopback HTTP API and provides the
// client the CLI and the MCP server use to reach it.
package control

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/clipz/internal/clipboard"
	"github.com/hpungsan/clipz/internal/config"
	"github.com/hpungsan/clipz/internal/history"
	"github.com/hpungsan/clipz/internal/logging"
	"github.com/hpungsan/clipz/internal/paste"
	"github.com/hpungsan/clipz/internal/pin"
	"github.com/hpungsan/clipz/internal/rank"
)

// RequestIDHeader carries the per-request ULID.
const RequestIDHeader = "X-Request-Id"

const shutdownTimeout = 5 * time.Second

// Deps holds the daemon components the API drives.
type Deps struct {
	Store      *history.Store
	Ranker     *rank.Ranker
	Dispatcher *paste.Dispatcher
	Pins       *pin.Manager
	Clipboard  clipboard.Clipboard
	Config     *config.Config
	BaseDir    string
	Version    string
	Logger     *slog.Logger
}

// NewHandler builds the control API router.
func NewHandler(deps Deps) http.Handler {
	h := &Handlers{deps: deps, log: logging.OrDiscard(deps.Logger)}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(h.logRequests)
	r.Use(securityHeaders)

	r.Get("/health", h.HandleHealth)
	r.Get("/recall", h.HandleRecallList)
	r.Post("/recall/{slot}", h.HandleRecall)
	r.Post("/pin", h.HandlePin)
	r.Get("/history", h.HandleHistory)
	r.Get("/search", h.HandleSearch)
	r.Post("/save", h.HandleSave)
	r.Post("/export", h.HandleExport)
	r.Post("/import", h.HandleImport)

	return r
}

// NewServer wraps handler in an http.Server bound to addr.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Serve runs srv until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server, log *slog.Logger) error {
	log = logging.OrDiscard(log)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	log.Info("control API listening", "addr", srv.Addr)
	if strings.HasPrefix(srv.Addr, "0.0.0.0") || strings.HasPrefix(srv.Addr, "[::]") || strings.HasPrefix(srv.Addr, ":") {
		log.Warn("control API is bound to all interfaces and may be reachable from the network", "addr", srv.Addr)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// requestID tags every request and response with a ULID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = ulid.Make().String()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func (h *Handlers) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", ww.Header().Get(RequestIDHeader),
		)
	})
}
