package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/clipz/internal/config"
	"github.com/hpungsan/clipz/internal/control"
	"github.com/hpungsan/clipz/internal/errors"
	"github.com/hpungsan/clipz/internal/history"
	"github.com/hpungsan/clipz/internal/logging"
	"github.com/hpungsan/clipz/internal/mcp"
	"github.com/hpungsan/clipz/internal/ops"
	"github.com/hpungsan/clipz/internal/rank"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp() *cli.App {
	app := &cli.App{
		Name:    "clipz",
		Usage:   "Clipboard history with ranked hotkey recall",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", EnvVars: []string{"CLIPZ_DIR"}, Usage: "Base directory (default: ~/.clipz)"},
			&cli.StringFlag{Name: "addr", Usage: "Daemon control address (default: control_addr from config)"},
		},
		Commands: []*cli.Command{
			runCmd(),
			listCmd(),
			recallCmd(),
			pinCmd(),
			historyCmd(),
			searchCmd(),
			exportCmd(),
			importCmd(),
			saveCmd(),
			statusCmd(),
			mcpCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// env is the resolved base directory, config and logger for one invocation.
type env struct {
	baseDir string
	cfg     *config.Config
	log     *slog.Logger
}

// loadEnv resolves --dir, loads config.json and builds the logger.
// A malformed config file falls back to defaults with a warning.
func loadEnv(c *cli.Context) (*env, error) {
	baseDir := c.String("dir")
	if baseDir == "" {
		dir, err := config.DefaultBaseDir()
		if err != nil {
			return nil, errors.NewInternal(fmt.Errorf("could not determine home directory: %w", err))
		}
		baseDir = dir
	}

	cfg, loadErr := config.Load(baseDir)
	if loadErr != nil {
		cfg = config.DefaultConfig()
	}
	if addr := c.String("addr"); addr != "" {
		cfg.ControlAddr = addr
	}

	log := logging.New(cfg.LogLevel, c.App.ErrWriter)
	if loadErr != nil {
		log.Warn("config unreadable, using defaults", "path", filepath.Join(baseDir, "config.json"), "error", loadErr)
	}
	for _, w := range cfg.Warnings {
		log.Warn("config", "warning", w)
	}
	if _, ok := logging.ParseLevel(cfg.LogLevel); !ok {
		log.Warn("config", "warning", fmt.Sprintf("unknown log_level %q, using info", cfg.LogLevel))
	}

	return &env{baseDir: baseDir, cfg: cfg, log: log}, nil
}

func (e *env) client() *control.Client {
	return control.NewClient(e.cfg.ControlAddr)
}

// openOffline loads the history straight from disk for use without a daemon.
// Read-only stores never write back.
func (e *env) openOffline(readOnly bool) (*history.Store, *rank.Ranker, error) {
	backend, err := history.OpenBackend(e.cfg, e.baseDir)
	if err != nil {
		return nil, nil, errors.NewInternal(err)
	}
	store := history.NewStore(backend, history.Options{Logger: e.log, ReadOnly: readOnly})
	store.Load()
	return store, rank.NewRanker(e.cfg, nil), nil
}

// runCmd creates the run command.
func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the daemon: watch the clipboard and serve the recall API",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-paste", Usage: "Only set the clipboard on recall; do not send the paste keystroke"},
		},
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return outputError(err)
			}
			slog.SetDefault(e.log)
			if err := runDaemon(c.Context, e, daemonOptions{noPaste: c.Bool("no-paste")}); err != nil {
				return outputError(err)
			}
			return nil
		},
	}
}

// listCmd creates the list command.
func listCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Show the recall surface (pinned first, then ranked)",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum entries to show"},
		},
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return outputError(err)
			}
			input := ops.ListInput{Limit: c.Int("limit")}

			out, err := e.client().List(c.Context, input)
			if errors.Is(err, errors.ErrDaemonUnavailable) {
				store, ranker, openErr := e.openOffline(true)
				if openErr != nil {
					return outputError(openErr)
				}
				defer store.Close()
				out, err = ops.List(store, ranker, input), nil
			}
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

// recallCmd creates the recall command.
func recallCmd() *cli.Command {
	return &cli.Command{
		Name:      "recall",
		Usage:     "Paste the entry at a slot (1-10, 0 means 10); bind Ctrl+1..Ctrl+0 to this",
		ArgsUsage: "<slot>",
		Action: func(c *cli.Context) error {
			slot, err := parseSlot(c.Args().First())
			if err != nil {
				return outputError(err)
			}
			e, err := loadEnv(c)
			if err != nil {
				return outputError(err)
			}
			out, err := e.client().Recall(c.Context, slot)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

// pinCmd creates the pin command.
func pinCmd() *cli.Command {
	return &cli.Command{
		Name:  "pin",
		Usage: "Toggle the pin on the clipboard content (or --text); bind Ctrl+P to this",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "Exact entry text to toggle"},
		},
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return outputError(err)
			}
			var input ops.PinInput
			if c.IsSet("text") {
				text := c.String("text")
				input.Text = &text
			}
			out, err := e.client().Pin(c.Context, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

// historyCmd creates the history command.
func historyCmd() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Page through the full history in stored order",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultHistoryLimit, Usage: "Page size"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "Entries to skip"},
			&cli.BoolFlag{Name: "pinned", Usage: "Only pinned entries (--pinned=false for only unpinned)"},
		},
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return outputError(err)
			}
			input := ops.InventoryInput{
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			}
			if c.IsSet("pinned") {
				pinned := c.Bool("pinned")
				input.Pinned = &pinned
			}

			out, err := e.client().History(c.Context, input)
			if errors.Is(err, errors.ErrDaemonUnavailable) {
				store, _, openErr := e.openOffline(true)
				if openErr != nil {
					return outputError(openErr)
				}
				defer store.Close()
				out, err = ops.Inventory(store, input), nil
			}
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

// searchCmd creates the search command.
func searchCmd() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Case-insensitive substring search, in ranked order",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultSearchLimit, Usage: "Maximum results"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "Results to skip"},
		},
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return outputError(err)
			}
			input := ops.SearchInput{
				Query:  c.Args().First(),
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			}

			out, err := e.client().Search(c.Context, input)
			if errors.Is(err, errors.ErrDaemonUnavailable) {
				store, ranker, openErr := e.openOffline(true)
				if openErr != nil {
					return outputError(openErr)
				}
				defer store.Close()
				out, err = ops.Search(store, ranker, input)
			}
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

// exportCmd creates the export command.
func exportCmd() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the history to JSONL or an HTML report",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: <dir>/exports/clipz-<timestamp>.<format>)"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "jsonl|html (default: from --path extension, else jsonl)"},
		},
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return outputError(err)
			}
			path, err := absPath(c.String("path"))
			if err != nil {
				return outputError(err)
			}
			input := ops.ExportInput{Path: path, Format: ops.ExportFormat(c.String("format"))}

			out, err := e.client().Export(c.Context, input)
			if errors.Is(err, errors.ErrDaemonUnavailable) {
				store, ranker, openErr := e.openOffline(true)
				if openErr != nil {
					return outputError(openErr)
				}
				defer store.Close()
				out, err = ops.Export(c.Context, store, ranker, e.baseDir, input)
			}
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

// importCmd creates the import command.
func importCmd() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Merge a JSONL export or JSON history file into the history",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: string(ops.ImportModeSkip), Usage: "Existing entries: skip|merge"},
		},
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return outputError(err)
			}
			path, err := absPath(c.String("path"))
			if err != nil {
				return outputError(err)
			}
			input := ops.ImportInput{Path: path, Mode: ops.ImportMode(c.String("mode"))}

			// The daemon is the single writer while it runs.
			out, err := e.client().Import(c.Context, input)
			if errors.Is(err, errors.ErrDaemonUnavailable) {
				store, _, openErr := e.openOffline(false)
				if openErr != nil {
					return outputError(openErr)
				}
				out, err = ops.Import(c.Context, store, input)
				if closeErr := store.Close(); err == nil && closeErr != nil {
					err = errors.NewInternal(closeErr)
				}
			}
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

// saveCmd creates the save command.
func saveCmd() *cli.Command {
	return &cli.Command{
		Name:  "save",
		Usage: "Ask the daemon to flush the history to disk",
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return outputError(err)
			}
			out, err := e.client().Save(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

// statusOutput is the status command result.
type statusOutput struct {
	Daemon   string `json:"daemon"` // running|stopped
	Addr     string `json:"addr"`
	Version  string `json:"version,omitempty"`
	Entries  int    `json:"entries"`
	Pinned   int    `json:"pinned"`
	SortMode string `json:"sort_mode"`
	Backend  string `json:"backend"`
	History  string `json:"history"`
}

// statusCmd creates the status command.
func statusCmd() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Report whether the daemon is running and summarize the history",
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return outputError(err)
			}
			out, err := status(c.Context, e)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

func status(ctx context.Context, e *env) (*statusOutput, error) {
	st, err := e.client().Health(ctx)
	if err == nil {
		return &statusOutput{
			Daemon:   "running",
			Addr:     e.cfg.ControlAddr,
			Version:  st.Version,
			Entries:  st.Entries,
			Pinned:   st.Pinned,
			SortMode: st.SortMode,
			Backend:  st.Backend,
			History:  st.History,
		}, nil
	}
	if !errors.Is(err, errors.ErrDaemonUnavailable) {
		return nil, err
	}

	store, _, err := e.openOffline(true)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	out := &statusOutput{
		Daemon:   "stopped",
		Addr:     e.cfg.ControlAddr,
		SortMode: e.cfg.SortMode,
		Backend:  e.cfg.Backend,
		History:  store.Location(),
	}
	for _, entry := range store.Snapshot() {
		out.Entries++
		if entry.Pinned {
			out.Pinned++
		}
	}
	return out, nil
}

// mcpCmd creates the mcp command.
func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve MCP tools over stdio, backed by the running daemon",
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return outputError(err)
			}
			if unknown := mcp.ValidateDisabledTools(e.cfg.DisabledTools); len(unknown) > 0 {
				e.log.Warn("unknown tools in disabled_tools", "tools", unknown, "known", mcp.AllToolNames())
			}
			if err := mcp.Run(e.client(), e.cfg, Version); err != nil {
				return outputError(err)
			}
			return nil
		},
	}
}

// Helper functions

// outputJSON marshals result to the app's stdout writer as JSON.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(writer(c))
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writer(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

// outputError formats error for CLI.
func outputError(err error) error {
	var cErr *errors.ClipzError
	if stderrors.As(err, &cErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", cErr.Code, cErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// parseSlot parses a recall slot argument: 1..10, with 0 as an alias for 10.
func parseSlot(s string) (int, error) {
	if s == "" {
		return 0, errors.NewInvalidRequest("slot is required (1-10, 0 for 10)")
	}
	slot, err := strconv.Atoi(s)
	if err != nil || slot < 0 || slot > rank.RecallSlots {
		return 0, errors.NewInvalidRequest(fmt.Sprintf("slot must be between 0 and %d, got %q", rank.RecallSlots, s))
	}
	return slot, nil
}

// absPath resolves a user path against the CLI's working directory, since the
// daemon resolves relative paths against its own.
func absPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if slices.Contains(strings.Split(filepath.ToSlash(p), "/"), "..") {
		return "", errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}
	return abs, nil
}
