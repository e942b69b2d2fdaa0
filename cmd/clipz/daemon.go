package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hpungsan/clipz/internal/clipboard"
	"github.com/hpungsan/clipz/internal/control"
	"github.com/hpungsan/clipz/internal/history"
	"github.com/hpungsan/clipz/internal/paste"
	"github.com/hpungsan/clipz/internal/pin"
	"github.com/hpungsan/clipz/internal/rank"
	"github.com/hpungsan/clipz/internal/watch"
)

// pasteSettle is the pause between writing the clipboard and sending the
// paste keystroke, so the target app sees the new content.
const pasteSettle = 50 * time.Millisecond

type daemonOptions struct {
	noPaste bool
}

// daemonParts are the wired daemon components. Tests build them with fakes.
type daemonParts struct {
	store *history.Store
	loop  *watch.Loop
	srv   *http.Server
}

// runDaemon loads the history, starts the clipboard loop and the control API,
// and blocks until SIGINT/SIGTERM or ctx is done. The store is closed (final
// flush) only after both have stopped.
func runDaemon(ctx context.Context, e *env, opts daemonOptions) error {
	backend, err := history.OpenBackend(e.cfg, e.baseDir)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}

	var paster clipboard.Paster = clipboard.Nop{}
	if !opts.noPaste {
		if ks := clipboard.NewKeystroke(); ks.Available() {
			paster = ks
		} else {
			e.log.Warn("no paste keystroke tool found; recalls will only set the clipboard")
		}
	}

	parts := buildDaemon(e, backend, clipboard.NewOS(), paster, time.Now)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return parts.run(ctx, e)
}

func buildDaemon(e *env, backend history.Backend, clip clipboard.Clipboard, paster clipboard.Paster, clock func() time.Time) *daemonParts {
	store := history.NewStore(backend, history.Options{Now: clock, Logger: e.log})
	n := store.Load()
	e.log.Info("history loaded", "entries", n, "location", store.Location())

	ranker := rank.NewRanker(e.cfg, clock)
	guard := watch.NewGuard()
	loop := watch.NewLoop(clip, store, guard, e.cfg.PollInterval(), e.log)
	dispatcher := paste.NewDispatcher(store, ranker, clip, paster, guard, paste.Options{
		Newline: e.cfg.NewlineEnabled(),
		Hold:    e.cfg.PasteGuard(),
		Settle:  pasteSettle,
		Logger:  e.log,
	})

	handler := control.NewHandler(control.Deps{
		Store:      store,
		Ranker:     ranker,
		Dispatcher: dispatcher,
		Pins:       pin.NewManager(store, e.log),
		Clipboard:  clip,
		Config:     e.cfg,
		BaseDir:    e.baseDir,
		Version:    Version,
		Logger:     e.log,
	})

	return &daemonParts{
		store: store,
		loop:  loop,
		srv:   control.NewServer(e.cfg.ControlAddr, handler),
	}
}

func (d *daemonParts) run(ctx context.Context, e *env) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Seed before serving, so no recall can race the startup read.
	d.loop.Seed(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.loop.Poll(ctx)
	}()

	e.log.Info("clipz running",
		"interval", e.cfg.PollInterval(),
		"sort_mode", e.cfg.SortMode,
		"newline", e.cfg.NewlineEnabled(),
		"addr", e.cfg.ControlAddr,
	)

	serveErr := control.Serve(ctx, d.srv, e.log)
	cancel()
	wg.Wait()

	if err := d.store.Close(); err != nil {
		e.log.Warn("final history save failed", "error", err)
	}
	e.log.Info("clipz stopped", "entries", d.store.Len())
	return serveErr
}
