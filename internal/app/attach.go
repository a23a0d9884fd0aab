package app

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/lookout/internal/config"
	"github.com/dshills/lookout/internal/dissect"
	"github.com/dshills/lookout/internal/eval"
	"github.com/dshills/lookout/internal/ingest"
	"github.com/dshills/lookout/internal/input/mouse"
	"github.com/dshills/lookout/internal/input/prompt"
	"github.com/dshills/lookout/internal/renderer/style"
	"github.com/dshills/lookout/internal/renderer/surface"
	"github.com/dshills/lookout/internal/sandbox"
	"github.com/dshills/lookout/internal/sandbox/js"
	"github.com/dshills/lookout/internal/sandbox/lua"
	"github.com/dshills/lookout/internal/scrollback"
)

// attach builds the components that draw to the initialized backend.
func (app *Application) attach() error {
	theme := style.NewTheme()
	if err := theme.Apply(app.config.Theme()); err != nil {
		app.Logger().WithComponent("theme").Warn("theme overrides ignored", zap.Error(err))
	}

	// Screen, mouse and clipboard
	app.surface = surface.New(app.backend)
	app.mouse = mouse.NewHandler(mouse.DefaultConfig())
	if app.clipboard == nil {
		app.clipboard = app.opts.Clipboard
	}
	if app.clipboard == nil {
		app.clipboard = SystemClipboard{}
	}

	// Transcript and prompt
	app.buffer = scrollback.New(app.sched,
		scrollback.WithSurface(app.surface),
		scrollback.WithTheme(theme),
		scrollback.WithDissector(newDissector(app.config.Dissect(), theme)),
		scrollback.WithConfig(bufferConfig(app.config)),
		scrollback.WithLogger(app.Logger().WithComponent("scrollback").Zap()),
	)
	app.surface.SetFollow(app.config.Scrollback().Follow)

	app.prompt = prompt.New(
		prompt.WithHistory(app.history),
		prompt.WithTheme(theme),
	)
	app.surface.SetFooter(app.prompt)

	// Evaluator
	sb, err := app.newSandbox(app.config.CLI())
	if err != nil {
		return &InitError{Component: "sandbox", Err: err}
	}
	app.sandbox = sb

	app.bridge = eval.New(app.buffer, sb, app.sched,
		eval.WithInput(promptInput{app}),
		eval.WithUnselectOnReturn(app.config.CLI().UnselectOnReturn),
		eval.WithLogger(app.Logger().WithComponent("eval").Zap()),
	)

	// Console writers
	app.console = ingest.New(countingSink{app.buffer, app.metrics}, app.sched,
		ingest.WithLogger(app.Logger().WithComponent("ingest").Zap()),
	)

	// Warnings about the session itself also show up in the transcript.
	tee := ingest.NewCore(app.console, zapcore.WarnLevel)
	app.logger = &Logger{
		z:     app.logger.z.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core { return zapcore.NewTee(c, tee) })),
		level: app.logger.level,
	}

	app.subscribeConfig()
	return nil
}

// detach saves the history and releases what attach built.
func (app *Application) detach() {
	app.unsubscribeConfig()

	// Save history
	if err := app.store.Save(app.history.Entries()); err != nil {
		app.logComponentError("history", NewComponentError("history", "save", err))
	}
	if app.sandbox != nil {
		if err := app.sandbox.Close(); err != nil {
			app.logComponentError("sandbox", err)
		}
	}
	app.Logger().Info("session ended", zap.Any("metrics", app.metrics.Snapshot()))
}

// newSandbox creates the sandbox named by the configuration. Console output
// is routed through the bridge, which exists by the time code runs.
func (app *Application) newSandbox(cc config.CLIConfig) (sandbox.Sandbox, error) {
	log := app.Logger().WithComponent("sandbox").Zap()
	switch cc.Sandbox {
	case "", "js":
		return js.New(app.sched,
			js.WithTimeout(cc.EvalTimeout),
			js.WithConsole(func(level string, args []any) { app.bridge.Console(level, args) }),
			js.WithLogger(log),
		)
	case "lua":
		return lua.New(
			lua.WithTimeout(cc.EvalTimeout),
			lua.WithPrint(func(args []any) { app.bridge.Console("log", args) }),
			lua.WithLogger(log),
		), nil
	}
	return nil, ErrUnknownSandbox
}

// newDissector builds a dissector from the dissect settings.
func newDissector(dc config.DissectConfig, theme *style.Theme) *dissect.Dissector {
	return dissect.New(dissect.Options{
		Theme:          theme,
		DateLayout:     dc.DateLayout,
		CallerMinWidth: dc.CallerMinWidth,
		NameMap:        dc.NameMap,
	})
}

// bufferConfig collects the buffer settings from the scrollback and
// inspect sections.
func bufferConfig(c *config.Config) scrollback.Config {
	sc, ic := c.Scrollback(), c.Inspect()
	return scrollback.Config{
		TrimThreshold:  sc.TrimThreshold,
		TrimCount:      sc.TrimCount,
		RenderInterval: sc.RenderInterval,
		RowsPerPage:    ic.HexRowsPerPage,
		SortKeys:       ic.SortKeys,
		EagerGetters:   ic.EagerGetters,
	}
}

// promptInput clears the prompt once an evaluation completes.
type promptInput struct{ app *Application }

func (p promptInput) Clear() {
	p.app.prompt.Clear()
	p.app.paint()
}

// countingSink counts entries on their way into the transcript.
type countingSink struct {
	buf     *scrollback.Buffer
	metrics *Metrics
}

func (s countingSink) Dispatch(values []any, kind scrollback.Kind, opts scrollback.DispatchOptions) *scrollback.Line {
	s.metrics.RecordLogged()
	return s.buf.Dispatch(values, kind, opts)
}

// paint redraws the screen.
func (app *Application) paint() {
	if app.surface != nil {
		app.surface.Paint()
	}
}
