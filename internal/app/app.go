// Package app provides the main application structure and coordination
// for the lookout console. It wires the configuration, the transcript, the
// sandbox and the terminal together and runs the event loop.
package app

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/lookout/internal/config"
	"github.com/dshills/lookout/internal/config/notify"
	"github.com/dshills/lookout/internal/eval"
	"github.com/dshills/lookout/internal/history"
	"github.com/dshills/lookout/internal/ingest"
	"github.com/dshills/lookout/internal/input/mouse"
	"github.com/dshills/lookout/internal/input/prompt"
	"github.com/dshills/lookout/internal/loop"
	"github.com/dshills/lookout/internal/renderer/backend"
	"github.com/dshills/lookout/internal/renderer/surface"
	"github.com/dshills/lookout/internal/sandbox"
	"github.com/dshills/lookout/internal/scrollback"
)

// scheduler is the subset of the event loop the components need.
type scheduler interface {
	Post(fn func()) error
	Defer(fn func())
	AfterFunc(d time.Duration, fn func()) func() bool
	Now() time.Time
}

// Application is the central coordinator for all lookout components.
// It manages component lifecycles, wiring, and the main event loop.
type Application struct {
	mu sync.Mutex

	// Core infrastructure
	config  *config.Config
	logger  *Logger
	logFile io.Closer
	metrics *Metrics
	session string

	// Event loop. sched is the loop unless a test replaced it.
	loop  *loop.Loop
	sched scheduler

	// Terminal
	backend backend.Backend
	surface *surface.Surface
	mouse   *mouse.Handler
	pasting bool

	// Transcript and evaluation
	buffer    *scrollback.Buffer
	sandbox   sandbox.Sandbox
	bridge    *eval.Bridge
	prompt    *prompt.Prompt
	console   *ingest.Logger
	clipboard Clipboard

	// History
	history *history.History
	store   *history.Store

	subs []*notify.Subscription

	// State
	ctx      context.Context
	cancel   context.CancelFunc
	running  atomic.Bool
	quitting atomic.Bool

	// Options
	opts Options
}

// Options configures the application.
type Options struct {
	// ConfigDir holds the user config and history files.
	ConfigDir string

	// ConfigPath is the path to the configuration file.
	ConfigPath string

	// Watch reloads the configuration file when it changes.
	Watch bool

	// Sandbox overrides cli.sandbox ("js" or "lua").
	Sandbox string

	// Title overrides cli.title.
	Title string

	// Debug enables debug mode with extra logging.
	Debug bool

	// LogLevel overrides logging.level.
	LogLevel string

	// LogOutput receives diagnostics instead of logging.file.
	LogOutput io.Writer

	// Program is a script loaded once the console is up.
	Program string

	// Input is read line by line into the transcript, e.g. a piped stdin.
	Input io.Reader

	// Clipboard replaces the system clipboard.
	Clipboard Clipboard
}

// New creates a new Application with the given options.
func New(opts Options) (*Application, error) {
	app := &Application{
		opts:    opts,
		metrics: NewMetrics(),
	}

	if err := app.bootstrap(); err != nil {
		app.closeLog()
		return nil, err
	}

	return app, nil
}

// SetBackend sets the terminal backend.
// Must be called before Run().
func (app *Application) SetBackend(b backend.Backend) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.running.Load() {
		return ErrAlreadyRunning
	}

	app.backend = b
	return nil
}

// Run starts the console and blocks until the user quits or ctx ends.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	// Initialize the terminal
	if app.backend == nil {
		return ErrNoBackend
	}
	if err := app.backend.Init(); err != nil {
		return &InitError{Component: "backend", Err: err}
	}
	defer app.backend.Shutdown()

	// Quit cancels this context
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app.mu.Lock()
	app.ctx, app.cancel = ctx, cancel
	app.mu.Unlock()

	// Wire the components to the terminal
	if err := app.attach(); err != nil {
		return err
	}
	defer app.detach()

	// Event loop, terminal reader and shutdown watcher
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.loop.Run(gctx)
	})
	g.Go(func() error {
		return app.pollEvents(gctx)
	})
	g.Go(func() error {
		// Unblocks PollEvent.
		<-gctx.Done()
		app.backend.Shutdown()
		return nil
	})

	app.start()
	if app.opts.Input != nil {
		// Not part of the group: a blocked read on a pipe cannot be
		// interrupted and ends with the process.
		go app.readInput(app.opts.Input)
	}

	// A requested quit is a clean exit
	err := g.Wait()
	if errors.Is(err, context.Canceled) && (app.quitting.Load() || ctx.Err() != nil) {
		return nil
	}
	return err
}

// pollEvents forwards terminal events to the loop until ctx ends.
func (app *Application) pollEvents(ctx context.Context) error {
	for {
		ev := app.backend.PollEvent()
		if ctx.Err() != nil {
			return nil
		}
		if ev.Type == backend.EventNone {
			continue
		}
		if err := app.sched.Post(func() { app.dispatchEvent(ev) }); err != nil {
			return nil
		}
	}
}

// dispatchEvent handles one event on the loop.
func (app *Application) dispatchEvent(ev backend.Event) {
	timer := StartTimer()
	err := app.handleBackendEvent(ev)
	app.metrics.RecordInput(timer.Elapsed())

	if errors.Is(err, ErrQuit) {
		app.Quit()
		return
	}
	if err != nil {
		app.logComponentError("input", err)
	}
	app.paint()
}

// start shows the start-up messages and loads the program, if any.
func (app *Application) start() {
	_ = app.sched.Post(func() {
		for _, err := range app.config.ConfigErrors() {
			app.buffer.Dispatch([]any{"Config:", err}, scrollback.KindWarning, scrollback.DispatchOptions{})
		}
		if app.opts.Program != "" {
			app.loadProgram(app.opts.Program)
		}
		app.paint()
	})
}

// loadProgram evaluates the file at path. A file that cannot be read is
// reported in the transcript; evaluation errors are already logged there
// by the bridge.
func (app *Application) loadProgram(path string) {
	source, err := os.ReadFile(path)
	if err != nil {
		app.buffer.Dispatch([]any{"Error loading main file:", err}, scrollback.KindError, scrollback.DispatchOptions{})
		return
	}
	if _, err := app.bridge.LoadProgram(app.ctx, filepath.Base(path), string(source)); err != nil {
		app.Logger().WithComponent("eval").Debug("program failed", zap.String("path", path), zap.Error(err))
	}
}

// readInput logs every line read from r until EOF.
func (app *Application) readInput(r io.Reader) {
	w := app.console.Writer(scrollback.KindArgs)
	if _, err := io.Copy(w, r); err != nil {
		app.Logger().WithComponent("input").Warn("reading piped input", zap.Error(err))
	}
	w.Flush()
}

// Quit stops the run loop. Safe to call from any goroutine.
func (app *Application) Quit() {
	app.quitting.Store(true)
	app.mu.Lock()
	cancel := app.cancel
	app.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Shutdown releases everything New acquired. Call it once Run has returned.
func (app *Application) Shutdown() {
	if app.config != nil {
		app.config.Close()
	}
	app.closeLog()
}

// closeLog flushes and closes the log file, if any.
func (app *Application) closeLog() {
	if app.logger != nil {
		_ = app.logger.Sync()
	}
	if app.logFile != nil {
		_ = app.logFile.Close()
		app.logFile = nil
	}
}

// IsRunning returns true if the application is running.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Config returns the configuration system.
func (app *Application) Config() *config.Config {
	return app.config
}

// Buffer returns the transcript. Use it from the loop only.
func (app *Application) Buffer() *scrollback.Buffer {
	return app.buffer
}

// Console returns the logger feeding the transcript. Safe from any
// goroutine once Run has started.
func (app *Application) Console() *ingest.Logger {
	return app.console
}

// SessionID identifies this run in the diagnostics log.
func (app *Application) SessionID() string {
	return app.session
}
