package app

import (
	"context"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/lookout/internal/config"
	"github.com/dshills/lookout/internal/history"
	"github.com/dshills/lookout/internal/loop"
)

// bootstrapper handles component initialization with proper cleanup on failure.
type bootstrapper struct {
	app       *Application
	opts      Options
	initOrder []string
}

// newBootstrapper creates a new bootstrapper for the application.
func newBootstrapper(app *Application, opts Options) *bootstrapper {
	return &bootstrapper{
		app:       app,
		opts:      opts,
		initOrder: make([]string, 0, 4),
	}
}

// bootstrap builds everything that does not need the terminal.
func (app *Application) bootstrap() error {
	return newBootstrapper(app, app.opts).bootstrap()
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap() error {
	b.app.session = uuid.NewString()

	// 1. Config System
	if err := b.initConfig(); err != nil {
		b.cleanup()
		return err
	}

	// 2. Logger, configured from the loaded settings
	if err := b.initLogger(); err != nil {
		b.cleanup()
		return err
	}

	// 3. Event loop
	b.initLoop()

	// 4. Command history
	b.initHistory()

	return nil
}

// initConfig loads defaults, the user file, the environment and flags.
func (b *bootstrapper) initConfig() error {
	configOpts := []config.Option{
		config.WithWatcher(b.opts.Watch),
	}
	if b.opts.ConfigDir != "" {
		configOpts = append(configOpts, config.WithDir(b.opts.ConfigDir))
	}
	if b.opts.ConfigPath != "" {
		configOpts = append(configOpts, config.WithFile(b.opts.ConfigPath))
	}
	cfg := config.New(configOpts...)

	flags := map[string]string{
		"cli.sandbox":   b.opts.Sandbox,
		"cli.title":     b.opts.Title,
		"logging.level": b.opts.LogLevel,
	}
	if b.opts.Debug {
		flags["logging.level"] = "debug"
	}
	for path, v := range flags {
		if v == "" {
			continue
		}
		if err := cfg.SetFlag(path, v); err != nil {
			return &InitError{Component: "config", Err: err}
		}
	}

	// The file is read after the flags so a reload keeps them on top.
	if err := cfg.Load(context.Background()); err != nil {
		return &InitError{Component: "config", Err: err}
	}

	b.app.config = cfg
	b.initOrder = append(b.initOrder, "config")
	return nil
}

// initLogger opens the diagnostics log. The terminal belongs to the UI, so
// nothing is written to stderr.
func (b *bootstrapper) initLogger() error {
	lc := b.app.config.Logging()

	var out io.Writer = b.opts.LogOutput
	if out == nil {
		f, err := OpenLogFile(lc.File)
		if err != nil {
			return &InitError{Component: "logger", Err: err}
		}
		b.app.logFile = f
		out = f
	}

	b.app.logger = NewLogger(LoggerConfig{
		Level:     ParseLogLevel(lc.Level),
		Output:    out,
		Prefix:    "lookout",
		SessionID: b.app.session,
	})
	b.initOrder = append(b.initOrder, "logger")

	b.app.logger.Info("session started",
		zap.String("config", b.app.config.Path()),
		zap.String("level", lc.Level),
	)
	return nil
}

// initLoop creates the event loop. Panics in loop tasks are logged instead
// of killing the terminal session.
func (b *bootstrapper) initLoop() {
	log := b.app.logger.WithComponent("loop")
	b.app.loop = loop.New(loop.WithPanicHandler(func(r any) {
		log.Error("recovered panic", zap.Error(&RecoveredPanicError{Value: r}))
	}))
	b.app.sched = b.app.loop
	b.initOrder = append(b.initOrder, "loop")
}

// initHistory loads the saved command history.
func (b *bootstrapper) initHistory() {
	hc := b.app.config.History()
	title := b.app.config.CLI().Title

	b.app.history = history.New(hc.Limit)
	b.app.store = history.NewStore(hc.Dir,
		history.WithTitle(title, hc.PerTitle),
		history.WithSaveCount(hc.Save),
	)
	entries, err := b.app.store.Load()
	if err != nil {
		b.app.logComponentError("history", NewComponentError("history", "load", err))
	}
	b.app.history.Set(entries)
	b.initOrder = append(b.initOrder, "history")
}

// cleanup releases initialized components in reverse order.
func (b *bootstrapper) cleanup() {
	for i := len(b.initOrder) - 1; i >= 0; i-- {
		switch b.initOrder[i] {
		case "loop":
			b.app.loop.Close()
		case "config":
			b.app.config.Close()
		}
	}
}
