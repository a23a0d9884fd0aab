package config

import (
	"path/filepath"
	"time"
)

// Section accessors return snapshots. Settings with the wrong type fall
// back to their default and are reported through ConfigErrors.

// ScrollbackConfig holds transcript settings.
type ScrollbackConfig struct {
	// TrimThreshold is the line count above which old lines are dropped.
	TrimThreshold int
	// TrimCount is how many lines one trim drops.
	TrimCount int
	// RenderInterval throttles repaints.
	RenderInterval time.Duration
	// Follow keeps the view at the newest line.
	Follow bool
}

// DissectConfig holds value rendering settings.
type DissectConfig struct {
	DateLayout     string
	CallerMinWidth int
	// NameMap replaces caller paths or file names with labels.
	NameMap map[string]string
}

// InspectConfig holds expansion settings.
type InspectConfig struct {
	SortKeys       bool
	EagerGetters   bool
	HexRowsPerPage int
}

// CLIConfig holds prompt and evaluation settings.
type CLIConfig struct {
	// UnselectOnReturn clears the selection after each evaluation.
	UnselectOnReturn bool
	// Sandbox is "js" or "lua".
	Sandbox     string
	EvalTimeout time.Duration
	// Title names the session; it selects the history file when
	// HistoryConfig.PerTitle is set.
	Title string
}

// HistoryConfig holds command history settings.
type HistoryConfig struct {
	// Limit bounds the in-memory list.
	Limit int
	// Save is how many entries are written to disk; zero disables saving.
	Save     int
	PerTitle bool
	// Dir holds the history files.
	Dir string
}

// LoggingConfig holds diagnostics settings.
type LoggingConfig struct {
	Level string
	// File receives the diagnostics log.
	File string
}

// Scrollback returns the scrollback settings.
func (c *Config) Scrollback() ScrollbackConfig {
	return ScrollbackConfig{
		TrimThreshold:  c.getIntOr("scrollback.trim_threshold", 1100),
		TrimCount:      c.getIntOr("scrollback.trim_count", 100),
		RenderInterval: c.getDurationOr("scrollback.render_interval", 70*time.Millisecond),
		Follow:         c.getBoolOr("scrollback.follow", true),
	}
}

// Dissect returns the value rendering settings.
func (c *Config) Dissect() DissectConfig {
	return DissectConfig{
		DateLayout:     c.getStringOr("dissect.date_layout", "2006-01-02 15:04:05"),
		CallerMinWidth: c.getIntOr("dissect.caller_min_width", 0),
		NameMap:        c.getStringMapOr("dissect.name_map"),
	}
}

// Inspect returns the expansion settings.
func (c *Config) Inspect() InspectConfig {
	return InspectConfig{
		SortKeys:       c.getBoolOr("inspect.sort_keys", false),
		EagerGetters:   c.getBoolOr("inspect.eager_getters", false),
		HexRowsPerPage: c.getIntOr("inspect.hex_rows_per_page", 25),
	}
}

// CLI returns the prompt settings.
func (c *Config) CLI() CLIConfig {
	return CLIConfig{
		UnselectOnReturn: c.getBoolOr("cli.unselect_on_return", true),
		Sandbox:          c.getStringOr("cli.sandbox", "js"),
		EvalTimeout:      c.getDurationOr("cli.eval_timeout", 5*time.Second),
		Title:            c.getStringOr("cli.title", ""),
	}
}

// History returns the history settings.
func (c *Config) History() HistoryConfig {
	return HistoryConfig{
		Limit:    c.getIntOr("history.limit", 100),
		Save:     c.getIntOr("history.save", 100),
		PerTitle: c.getBoolOr("history.per_title", false),
		Dir:      c.getStringOr("history.dir", c.dir),
	}
}

// Logging returns the diagnostics settings. An empty file resolves to
// lookout.log in the configuration directory.
func (c *Config) Logging() LoggingConfig {
	lc := LoggingConfig{
		Level: c.getStringOr("logging.level", "info"),
		File:  c.getStringOr("logging.file", ""),
	}
	if lc.File == "" {
		lc.File = filepath.Join(c.dir, "lookout.log")
	}
	return lc
}

// Theme returns color overrides keyed by class name.
func (c *Config) Theme() map[string]string {
	return c.getStringMapOr("theme")
}

// getStringOr returns the string at path, or defaultValue when it is
// missing or mistyped.
func (c *Config) getStringOr(path string, defaultValue string) string {
	v, err := c.GetString(path)
	if err != nil {
		c.recordUnlessMissing(path, err)
		return defaultValue
	}
	return v
}

// getIntOr is getStringOr for integers.
func (c *Config) getIntOr(path string, defaultValue int) int {
	v, err := c.GetInt(path)
	if err != nil {
		c.recordUnlessMissing(path, err)
		return defaultValue
	}
	return v
}

// getBoolOr is getStringOr for booleans.
func (c *Config) getBoolOr(path string, defaultValue bool) bool {
	v, err := c.GetBool(path)
	if err != nil {
		c.recordUnlessMissing(path, err)
		return defaultValue
	}
	return v
}

// getDurationOr is getStringOr for durations.
func (c *Config) getDurationOr(path string, defaultValue time.Duration) time.Duration {
	v, err := c.GetDuration(path)
	if err != nil {
		c.recordUnlessMissing(path, err)
		return defaultValue
	}
	return v
}

// getStringMapOr returns the table at path, or an empty map.
func (c *Config) getStringMapOr(path string) map[string]string {
	v, err := c.GetStringMap(path)
	if err != nil {
		c.recordUnlessMissing(path, err)
		return map[string]string{}
	}
	return v
}

// recordUnlessMissing records a mistyped setting. Missing settings fall
// back silently.
func (c *Config) recordUnlessMissing(path string, err error) {
	if err != ErrSettingNotFound {
		c.recordConfigError(path, err)
	}
}
