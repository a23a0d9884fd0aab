package app

import (
	"errors"

	"go.uber.org/zap"

	"github.com/dshills/lookout/internal/input/mouse"
	"github.com/dshills/lookout/internal/renderer/backend"
)

// handleBackendEvent processes a backend event and routes it appropriately.
// Returns ErrQuit if the application should exit.
func (app *Application) handleBackendEvent(ev backend.Event) error {
	switch ev.Type {
	case backend.EventResize:
		return app.handleResize(ev)
	case backend.EventKey:
		return app.handleKeyEvent(ev)
	case backend.EventMouse:
		return app.handleMouseEvent(ev)
	case backend.EventPaste:
		return app.handlePasteEvent(ev)
	default:
		return nil
	}
}

// handleResize processes terminal resize events.
func (app *Application) handleResize(ev backend.Event) error {
	app.surface.Resize(ev.Width, ev.Height)
	return nil
}

// handlePasteEvent tracks bracketed paste. Pasted runes arrive as key
// events between a start and an end marker; line breaks inside a paste
// are inserted instead of submitting.
func (app *Application) handlePasteEvent(backend.Event) error {
	app.pasting = !app.pasting
	return nil
}

// handleKeyEvent processes keyboard input events.
func (app *Application) handleKeyEvent(ev backend.Event) error {
	p := app.prompt

	switch ev.Key {
	case backend.KeyRune:
		if ev.Mod.Has(backend.ModCtrl) || ev.Mod.Has(backend.ModAlt) {
			return nil
		}
		p.Insert(ev.Rune)
	case backend.KeyTab:
		p.InsertString("  ")
	case backend.KeyEnter:
		if app.pasting || ev.Mod.Has(backend.ModAlt) {
			p.Insert('\n')
			return nil
		}
		app.submit()
	case backend.KeyBackspace:
		p.Backspace()
	case backend.KeyDelete:
		p.Delete()
	case backend.KeyLeft:
		p.MoveLeft()
	case backend.KeyRight:
		p.MoveRight()
	case backend.KeyHome, backend.KeyCtrlA:
		p.MoveToStart()
	case backend.KeyEnd, backend.KeyCtrlE:
		p.MoveToEnd()
	case backend.KeyUp:
		p.HistoryPrev()
	case backend.KeyDown:
		p.HistoryNext()
	case backend.KeyCtrlU:
		p.Clear()
	case backend.KeyCtrlW:
		p.DeleteWord()
	case backend.KeyPageUp:
		app.surface.ScrollBy(-app.surface.ViewHeight())
	case backend.KeyPageDown:
		app.surface.ScrollBy(app.surface.ViewHeight())
	case backend.KeyEscape:
		app.buffer.Unselect()
	case backend.KeyCtrlL:
		app.buffer.Clear()
	case backend.KeyCtrlK:
		if err := app.copySelection(); err != nil && !errors.Is(err, ErrNothingSelected) {
			return err
		}
	case backend.KeyCtrlC:
		return ErrQuit
	case backend.KeyCtrlD:
		if p.Text() == "" {
			return ErrQuit
		}
		p.Delete()
	}
	return nil
}

// submit evaluates the prompt text.
func (app *Application) submit() {
	cmd, ok := app.prompt.Submit()
	if !ok {
		return
	}
	app.surface.SetFollow(true)
	app.surface.ScrollToBottom()

	timer := StartTimer()
	f := app.bridge.Submit(app.ctx, cmd)
	go func() {
		_, err := f.Wait(app.ctx)
		if app.ctx.Err() != nil {
			return
		}
		app.metrics.RecordEval(timer.Elapsed(), err != nil)
	}()
}

// handleMouseEvent turns mouse reports into selection, drag and scrolling.
func (app *Application) handleMouseEvent(ev backend.Event) error {
	a := app.mouse.Handle(ev, app.sched.Now())

	switch a.Kind {
	case mouse.KindScroll:
		app.surface.ScrollBy(a.Lines)

	case mouse.KindPress:
		if a.Clicks >= 2 {
			// The first click selected the line; further clicks copy it.
			if err := app.copySelection(); err != nil && !errors.Is(err, ErrNothingSelected) {
				return err
			}
			return nil
		}
		row, ok := app.surface.RowAt(a.Pos.Y)
		if !ok {
			return nil
		}
		v := app.buffer.MouseDown(row, a.Pos.X)
		app.Logger().Debug("selected", zap.Int("row", row), zap.Int("col", a.Pos.X), zap.Bool("value", v != nil))

	case mouse.KindDrag:
		from, ok := app.surface.RowAt(a.Start.Y)
		if !ok {
			return nil
		}
		to, ok := app.surface.RowAt(a.Pos.Y)
		if !ok {
			return nil
		}
		app.buffer.MouseDrag(from, a.Start.X, to, a.Pos.X)
	}
	return nil
}
