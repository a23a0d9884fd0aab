package app

import (
	"go.uber.org/zap"

	"github.com/dshills/lookout/internal/config/notify"
)

// Config sections applied live. Structural settings only affect lines
// created after the change.
const (
	sectionTheme      = "theme"
	sectionDissect    = "dissect"
	sectionInspect    = "inspect"
	sectionScrollback = "scrollback"
	sectionCLI        = "cli"
	sectionLogging    = "logging.level"
)

// subscribeConfig registers the live-reload observers. Observers run on
// the watcher goroutine, so each one posts its work to the loop. Settings
// that fall back to their defaults are logged as warnings, which the
// transcript shows.
func (app *Application) subscribeConfig() {
	app.config.SetLogger(app.Logger().WithComponent("config").Zap())

	app.subs = append(app.subs,
		app.config.SubscribePath(sectionTheme, app.onLoop(app.applyTheme)),
		app.config.SubscribePath(sectionDissect, app.onLoop(app.applyDissect)),
		app.config.SubscribePath(sectionInspect, app.onLoop(app.applyBufferConfig)),
		app.config.SubscribePath(sectionScrollback, app.onLoop(app.applyScrollback)),
		app.config.SubscribePath(sectionCLI, app.onLoop(app.applyCLI)),
		app.config.SubscribePath(sectionLogging, func([]notify.Change) {
			app.logger.SetLevel(ParseLogLevel(app.config.Logging().Level))
		}),
		app.config.Subscribe(app.logChanges),
	)
}

// unsubscribeConfig drops every config subscription.
func (app *Application) unsubscribeConfig() {
	for _, sub := range app.subs {
		sub.Unsubscribe()
	}
	app.subs = nil
}

// onLoop adapts fn into an observer that runs it on the loop.
func (app *Application) onLoop(fn func()) notify.Observer {
	return func([]notify.Change) {
		if err := app.sched.Post(func() {
			fn()
			app.paint()
		}); err != nil {
			app.Logger().Debug("config change dropped", zap.Error(err))
		}
	}
}

// logChanges logs the paths of a settings change.
func (app *Application) logChanges(changes []notify.Change) {
	paths := make([]string, len(changes))
	for i, c := range changes {
		paths[i] = c.Path
	}
	app.Logger().WithComponent("config").Info("settings changed", zap.Strings("paths", paths))
}

// applyTheme layers the theme overrides onto the buffer theme and redraws.
func (app *Application) applyTheme() {
	if err := app.buffer.Theme().Apply(app.config.Theme()); err != nil {
		app.Logger().WithComponent("theme").Warn("theme overrides ignored", zap.Error(err))
	}
	app.buffer.Refresh()
}

// applyDissect rebuilds the dissector for new dissect settings.
func (app *Application) applyDissect() {
	app.buffer.SetDissector(newDissector(app.config.Dissect(), app.buffer.Theme()))
}

// applyBufferConfig pushes scrollback and inspect settings to the buffer.
func (app *Application) applyBufferConfig() {
	app.buffer.Configure(bufferConfig(app.config))
}

// applyScrollback also updates follow mode.
func (app *Application) applyScrollback() {
	app.applyBufferConfig()
	app.buffer.SetFollow(app.config.Scrollback().Follow)
}

// applyCLI updates the evaluation bridge.
func (app *Application) applyCLI() {
	app.bridge.SetUnselectOnReturn(app.config.CLI().UnselectOnReturn)
}
