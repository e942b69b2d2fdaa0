package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Sort modes accepted in config.json.
const (
	SortModeSmart      = "smart"
	SortModeLastCopied = "last_copied"
)

// Storage backends accepted in config.json.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config holds application configuration.
type Config struct {
	// Interval is the clipboard poll period in seconds
	Interval float64 `json:"interval,omitempty"`

	// SortMode selects the ranking policy for unpinned entries: "smart" or "last_copied"
	SortMode string `json:"sort_mode,omitempty"`

	// Newline appends CRLF to recalled text that does not already end in a line terminator.
	// A pointer so that an explicit false in config.json is distinguishable from "unset".
	Newline *bool `json:"newline,omitempty"`

	// Backend selects where history is persisted: "json" (default) or "sqlite"
	Backend string `json:"backend,omitempty"`

	// HistoryFile overrides the JSON history location (default: <base>/history.json).
	HistoryFile string `json:"history_file,omitempty"`

	// ControlAddr is the loopback address of the daemon control API
	ControlAddr string `json:"control_addr,omitempty"`

	// PasteGuardMS is how long the poll loop stays suppressed after a recall.
	// It is raised to at least 2*interval+50ms (see PasteGuard).
	PasteGuardMS int `json:"paste_guard_ms,omitempty"`

	// SmartRecencyWeight, SmartFrequencyWeight and SmartDecayHours tune the smart score:
	// recency*R + log(paste_count+1)*F*recency, recency = exp(-hours/D)
	SmartRecencyWeight   float64 `json:"smart_recency_weight,omitempty"`
	SmartFrequencyWeight float64 `json:"smart_frequency_weight,omitempty"`
	SmartDecayHours      float64 `json:"smart_decay_hours,omitempty"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `json:"log_level,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// Warnings lists overlay values Merge ignored; callers log them.
	Warnings []string `json:"-"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	newline := true
	return &Config{
		Interval:             0.1,
		SortMode:             SortModeSmart,
		Newline:              &newline,
		Backend:              BackendJSON,
		ControlAddr:          "127.0.0.1:7431",
		PasteGuardMS:         150,
		SmartRecencyWeight:   10,
		SmartFrequencyWeight: 2,
		SmartDecayHours:      24,
		LogLevel:             "info",
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.clipz.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// DefaultBaseDir returns the base directory: $CLIPZ_DIR if set, else ~/.clipz.
func DefaultBaseDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("CLIPZ_DIR")); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".clipz"), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars when set; arrays are merged and deduplicated.
// Values that are out of range in the overlay are ignored.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.Interval = base.Interval
	if overlay.Interval > 0 {
		result.Interval = overlay.Interval
	}

	result.SortMode = base.SortMode
	if mode := normalizeSortMode(overlay.SortMode); mode != "" {
		result.SortMode = mode
	} else if strings.TrimSpace(overlay.SortMode) != "" {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("unknown sort_mode %q, using %q", overlay.SortMode, base.SortMode))
	}

	result.Newline = base.Newline
	if overlay.Newline != nil {
		v := *overlay.Newline
		result.Newline = &v
	}

	result.Backend = base.Backend
	if b := strings.ToLower(strings.TrimSpace(overlay.Backend)); b == BackendJSON || b == BackendSQLite {
		result.Backend = b
	} else if b != "" {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("unknown backend %q, using %q", overlay.Backend, base.Backend))
	}

	result.HistoryFile = overlay.HistoryFile
	if result.HistoryFile == "" {
		result.HistoryFile = base.HistoryFile
	}

	result.ControlAddr = overlay.ControlAddr
	if result.ControlAddr == "" {
		result.ControlAddr = base.ControlAddr
	}

	result.PasteGuardMS = base.PasteGuardMS
	if overlay.PasteGuardMS > 0 {
		result.PasteGuardMS = overlay.PasteGuardMS
	}

	result.SmartRecencyWeight = base.SmartRecencyWeight
	if overlay.SmartRecencyWeight > 0 {
		result.SmartRecencyWeight = overlay.SmartRecencyWeight
	}
	result.SmartFrequencyWeight = base.SmartFrequencyWeight
	if overlay.SmartFrequencyWeight > 0 {
		result.SmartFrequencyWeight = overlay.SmartFrequencyWeight
	}
	result.SmartDecayHours = base.SmartDecayHours
	if overlay.SmartDecayHours > 0 {
		result.SmartDecayHours = overlay.SmartDecayHours
	}

	result.LogLevel = overlay.LogLevel
	if result.LogLevel == "" {
		result.LogLevel = base.LogLevel
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// PollInterval returns Interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Interval * float64(time.Second))
}

// PasteGuard returns the suppression hold after a recall. It always exceeds
// one poll tick plus a paste keystroke's propagation.
func (c *Config) PasteGuard() time.Duration {
	guard := time.Duration(c.PasteGuardMS) * time.Millisecond
	floor := 2*c.PollInterval() + 50*time.Millisecond
	if guard < floor {
		guard = floor
	}
	return guard
}

// NewlineEnabled reports whether recalled text gets a CRLF terminator appended.
func (c *Config) NewlineEnabled() bool {
	return c.Newline == nil || *c.Newline
}

// HistoryPath returns the JSON history path under baseDir unless overridden.
func (c *Config) HistoryPath(baseDir string) string {
	if c.HistoryFile != "" {
		return c.HistoryFile
	}
	return filepath.Join(baseDir, "history.json")
}

// normalizeSortMode maps accepted spellings to a sort mode, or "" if unknown.
func normalizeSortMode(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case SortModeSmart:
		return SortModeSmart
	case SortModeLastCopied, "last-copied", "recency":
		return SortModeLastCopied
	}
	return ""
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
