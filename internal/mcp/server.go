package mcp

import (
	"context"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/clipz/internal/config"
	"github.com/hpungsan/clipz/internal/ops"
	"github.com/hpungsan/clipz/internal/paste"
	"github.com/hpungsan/clipz/internal/pin"
)

// Service is what the tools call. The daemon's control.Client implements it.
type Service interface {
	List(ctx context.Context, input ops.ListInput) (*ops.ListOutput, error)
	Recall(ctx context.Context, slot int) (*paste.Result, error)
	Pin(ctx context.Context, input ops.PinInput) (*pin.Result, error)
	History(ctx context.Context, input ops.InventoryInput) (*ops.InventoryOutput, error)
	Search(ctx context.Context, input ops.SearchInput) (*ops.SearchOutput, error)
}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"clip_list": {
		def: mcp.NewTool("clip_list",
			mcp.WithDescription("List the clipboard recall surface: pinned entries first, then ranked entries, with their hotkeys."),
			mcp.WithNumber("limit", mcp.Description("Maximum number of entries (default 10, max 100)")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"clip_recall": {
		def: mcp.NewTool("clip_recall",
			mcp.WithDescription("Paste the entry at a recall slot into the focused window, as its hotkey would."),
			mcp.WithNumber("slot", mcp.Description("Slot 1-10 (0 is an alias for 10)"), mcp.Required()),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRecall },
	},
	"clip_pin": {
		def: mcp.NewTool("clip_pin",
			mcp.WithDescription("Toggle the pin on a history entry. Pinned entries stay at the top of the recall surface."),
			mcp.WithString("text", mcp.Description("Exact entry text (default: current clipboard content)")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePin },
	},
	"clip_history": {
		def: mcp.NewTool("clip_history",
			mcp.WithDescription("Page through the full clipboard history in stored order."),
			mcp.WithNumber("limit", mcp.Description("Page size (default 50, max 500)")),
			mcp.WithNumber("offset", mcp.Description("Entries to skip")),
			mcp.WithBoolean("pinned", mcp.Description("Only pinned (true) or only unpinned (false) entries")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistory },
	},
	"clip_search": {
		def: mcp.NewTool("clip_search",
			mcp.WithDescription("Case-insensitive substring search over clipboard history, in ranked order."),
			mcp.WithString("query", mcp.Description("Text to look for"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum results (default 20, max 100)")),
			mcp.WithNumber("offset", mcp.Description("Results to skip")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearch },
	},
}

// AllToolNames returns all tool names, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates an MCP server with the clipz tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(svc Service, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"clipz",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	h := NewHandlers(svc)

	disabled := make(map[string]bool)
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run serves the MCP tools over stdio.
func Run(svc Service, cfg *config.Config, version string) error {
	return server.ServeStdio(NewServer(svc, cfg, version))
}
