// Package config loads lookout's settings.
//
// Settings come from layers; higher layers override lower ones:
//
//	flags         --sandbox, --log-level, ...
//	environment   LOOKOUT_SECTION_SETTING
//	user file     ~/.lookout/config.toml (or .yaml / .yml)
//	defaults
//
// The user file is watched; edits are merged in and reported to
// subscribers as the leaf paths that changed.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/lookout/internal/config/layer"
	"github.com/dshills/lookout/internal/config/loader"
	"github.com/dshills/lookout/internal/config/notify"
	"github.com/dshills/lookout/internal/config/watcher"
)

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "LOOKOUT_"

// fileNames are tried in order when no file is given.
var fileNames = []string{"config.toml", "config.yaml", "config.yml"}

const (
	layerDefaults = "defaults"
	layerFile     = "file"
	layerEnv      = "env"
	layerFlags    = "flags"
)

// Config is the layered configuration. It is safe for concurrent use.
type Config struct {
	mu sync.RWMutex

	layers   *layer.Manager
	notifier *notify.Notifier
	watcher  *watcher.Watcher
	fs       loader.FileSystem
	logger   *zap.Logger

	dir           string
	file          string
	path          string
	envPrefix     string
	enableWatcher bool

	configErrors map[string]error
}

// Option configures a Config.
type Option func(*Config)

// WithDir sets the directory searched for the user file.
func WithDir(dir string) Option {
	return func(c *Config) { c.dir = dir }
}

// WithFile sets the user file explicitly.
func WithFile(path string) Option {
	return func(c *Config) { c.file = path }
}

// WithWatcher enables or disables live reload.
func WithWatcher(enable bool) Option {
	return func(c *Config) { c.enableWatcher = enable }
}

// WithEnvPrefix changes the environment prefix.
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) { c.envPrefix = prefix }
}

// WithFileSystem sets the file system used to read the user file.
func WithFileSystem(fsys loader.FileSystem) Option {
	return func(c *Config) { c.fs = fsys }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Config holding only the defaults. Call Load to read the
// other sources.
func New(opts ...Option) *Config {
	c := &Config{
		layers:        layer.NewManager(),
		notifier:      notify.New(),
		fs:            loader.OSFS{},
		logger:        zap.NewNop(),
		envPrefix:     EnvPrefix,
		enableWatcher: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dir == "" {
		c.dir = DefaultDir()
	}
	c.layers.Put(layer.New(layerDefaults, layer.SourceBuiltin, defaultConfig()))
	return c
}

// DefaultDir returns ~/.lookout, or LOOKOUT_HOME when set.
func DefaultDir() string {
	if dir := os.Getenv("LOOKOUT_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lookout"
	}
	return filepath.Join(home, ".lookout")
}

// Load reads the user file and the environment and starts the watcher.
// A missing user file is not an error.
func (c *Config) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	if err := c.loadFile(); err != nil {
		c.mu.Unlock()
		return err
	}
	env, err := loader.NewEnvLoader(c.envPrefix).Load()
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("loading environment: %w", err)
	}
	if len(env) > 0 {
		c.layers.Put(layer.New(layerEnv, layer.SourceEnv, env))
	}
	enable := c.enableWatcher && c.watcher == nil
	c.mu.Unlock()

	if enable {
		c.startWatcher()
	}
	return nil
}

// loadFile resolves and loads the user file. Caller holds c.mu.
func (c *Config) loadFile() error {
	candidates := []string{c.file}
	if c.file == "" {
		candidates = candidates[:0]
		for _, name := range fileNames {
			candidates = append(candidates, filepath.Join(c.dir, name))
		}
	}

	for _, path := range candidates {
		data, err := loader.ForPath(c.fs, path).Load()
		if err != nil {
			return err
		}
		if data != nil {
			c.path = path
			l := layer.New(layerFile, layer.SourceFile, data)
			l.Path = path
			c.layers.Put(l)
			return nil
		}
	}
	c.path = candidates[0]
	return nil
}

// startWatcher reloads the user file whenever it changes on disk. A
// watcher that cannot start only costs live reload.
func (c *Config) startWatcher() {
	w, err := watcher.New(watcher.WithLogger(c.logger))
	if err != nil {
		c.logger.Warn("config watcher unavailable", zap.Error(err))
		return
	}
	if err := w.Watch(c.Path()); err != nil {
		c.logger.Warn("config watcher unavailable", zap.String("path", c.Path()), zap.Error(err))
		w.Stop()
		return
	}
	w.OnChange(c.handleFileChange)

	// Keep it for Close
	c.mu.Lock()
	c.watcher = w
	c.mu.Unlock()
	w.Start()
}

// handleFileChange reloads after a watcher event.
func (c *Config) handleFileChange(event watcher.Event) {
	log := c.log()
	log.Debug("config file changed", zap.String("path", event.Path), zap.Stringer("op", event.Op))
	if err := c.Reload(); err != nil {
		log.Warn("config reload failed", zap.String("path", event.Path), zap.Error(err))
	}
}

// SetLogger replaces the logger after construction.
func (c *Config) SetLogger(l *zap.Logger) {
	if l == nil {
		return
	}
	c.mu.Lock()
	c.logger = l
	c.mu.Unlock()
}

// log returns the current logger.
func (c *Config) log() *zap.Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logger
}

// Reload re-reads the user file and notifies subscribers of the settings
// that changed. On a parse error the previous file contents stay in effect.
func (c *Config) Reload() error {
	c.mu.Lock()
	before := c.layers.Merge()
	path := c.path
	data, err := loader.ForPath(c.fs, path).Load()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if data == nil {
		c.layers.Remove(layerFile)
	} else {
		l := layer.New(layerFile, layer.SourceFile, data)
		l.Path = path
		c.layers.Put(l)
	}
	after := c.layers.Merge()
	c.configErrors = nil
	c.mu.Unlock()

	c.notify(layer.Diff(before, after), path)
	return nil
}

// SetFlag sets a value in the flags layer, above every other source.
func (c *Config) SetFlag(path string, value any) error {
	if path == "" || strings.HasPrefix(path, ".") || strings.HasSuffix(path, ".") {
		return ErrInvalidPath
	}

	c.mu.Lock()
	before := c.layers.Merge()
	l := c.layers.Layer(layerFlags)
	if l == nil {
		l = layer.New(layerFlags, layer.SourceFlags, nil)
	}
	data := layer.DeepMerge(nil, l.Data)
	layer.SetByPath(data, path, value)
	c.layers.Put(layer.New(layerFlags, layer.SourceFlags, data))
	after := c.layers.Merge()
	c.mu.Unlock()

	c.notify(layer.Diff(before, after), layerFlags)
	return nil
}

// notify tells subscribers which paths changed and where the change came
// from.
func (c *Config) notify(paths []string, source string) {
	changes := make([]notify.Change, len(paths))
	for i, p := range paths {
		changes[i] = notify.Change{Path: p, Source: source}
	}
	c.notifier.Notify(changes)
}

// Path returns the user file in use, or where it would be created.
func (c *Config) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.path
}

// Subscribe registers an observer for all changes.
func (c *Config) Subscribe(observer notify.Observer) *notify.Subscription {
	return c.notifier.Subscribe(observer)
}

// SubscribePath registers an observer for changes at or below path.
func (c *Config) SubscribePath(path string, observer notify.Observer) *notify.Subscription {
	return c.notifier.SubscribePath(path, observer)
}

// Close stops the watcher and drops subscribers.
func (c *Config) Close() {
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.mu.Unlock()

	if w != nil {
		w.Stop()
	}
	c.notifier.Close()
}

// Merged returns the effective configuration.
func (c *Config) Merged() map[string]any {
	return c.layers.Merge()
}

// Get returns the effective value at path. Tables are merged across
// layers.
func (c *Config) Get(path string) (any, bool) {
	return layer.GetByPath(c.layers.Merge(), path)
}

// Source returns the name of the layer that supplies path.
func (c *Config) Source(path string) string {
	if _, l, ok := c.layers.Get(path); ok {
		return l.Source.String()
	}
	return ""
}

// GetString returns a string value at the given path.
func (c *Config) GetString(path string) (string, error) {
	v, ok := c.Get(path)
	if !ok {
		return "", ErrSettingNotFound
	}
	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Expected: "string", Actual: typeName(v)}
	}
	return s, nil
}

// GetInt returns an integer value at the given path.
func (c *Config) GetInt(path string) (int, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case uint64:
		return int(val), nil
	case float64:
		if val == float64(int(val)) {
			return int(val), nil
		}
	}
	return 0, &TypeError{Path: path, Expected: "int", Actual: typeName(v)}
}

// GetBool returns a boolean value at the given path.
func (c *Config) GetBool(path string) (bool, error) {
	v, ok := c.Get(path)
	if !ok {
		return false, ErrSettingNotFound
	}
	b, ok := v.(bool)
	if !ok {
		return false, &TypeError{Path: path, Expected: "bool", Actual: typeName(v)}
	}
	return b, nil
}

// GetDuration returns a duration at the given path. Strings use
// time.ParseDuration syntax; bare integers are milliseconds.
func (c *Config) GetDuration(path string) (time.Duration, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case time.Duration:
		return val, nil
	case string:
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, &TypeError{Path: path, Expected: "duration", Actual: fmt.Sprintf("%q", val)}
		}
		return d, nil
	case int:
		return time.Duration(val) * time.Millisecond, nil
	case int64:
		return time.Duration(val) * time.Millisecond, nil
	}
	return 0, &TypeError{Path: path, Expected: "duration", Actual: typeName(v)}
}

// GetStringMap returns a table of strings at the given path.
func (c *Config) GetStringMap(path string) (map[string]string, error) {
	v, ok := c.Get(path)
	if !ok {
		return nil, ErrSettingNotFound
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &TypeError{Path: path, Expected: "table", Actual: typeName(v)}
	}
	out := make(map[string]string, len(m))
	for k, item := range m {
		s, ok := item.(string)
		if !ok {
			return nil, &TypeError{Path: path + "." + k, Expected: "string", Actual: typeName(item)}
		}
		out[k] = s
	}
	return out, nil
}

// ConfigErrors returns the type errors met while reading sections since
// the last reload.
func (c *Config) ConfigErrors() map[string]error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.configErrors == nil {
		return nil
	}
	out := make(map[string]error, len(c.configErrors))
	for k, v := range c.configErrors {
		out[k] = v
	}
	return out
}

// recordConfigError keeps the first error per path.
func (c *Config) recordConfigError(path string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.configErrors == nil {
		c.configErrors = make(map[string]error)
	}
	if _, exists := c.configErrors[path]; !exists {
		c.configErrors[path] = err
		c.logger.Warn("bad setting", zap.String("path", path), zap.Error(err))
	}
}

// typeName names the setting type of v for error messages.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "nil"
	case string:
		return "string"
	case int, int64, uint64:
		return "int"
	case float64:
		return "float"
	case bool:
		return "bool"
	case []any:
		return "array"
	case map[string]any:
		return "table"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// defaultConfig returns the built-in settings.
func defaultConfig() map[string]any {
	return map[string]any{
		"scrollback": map[string]any{
			"trim_threshold":  1100,
			"trim_count":      100,
			"render_interval": "70ms",
			"follow":          true,
		},
		"dissect": map[string]any{
			"date_layout":      "2006-01-02 15:04:05",
			"caller_min_width": 0,
			"name_map":         map[string]any{},
		},
		"inspect": map[string]any{
			"sort_keys":         false,
			"eager_getters":     false,
			"hex_rows_per_page": 25,
		},
		"cli": map[string]any{
			"unselect_on_return": true,
			"sandbox":            "js",
			"eval_timeout":       "5s",
			"title":              "",
		},
		"history": map[string]any{
			"limit":     100,
			"save":      100,
			"per_title": false,
		},
		"logging": map[string]any{
			"level": "info",
			"file":  "",
		},
		"theme": map[string]any{},
	}
}
