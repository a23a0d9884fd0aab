package app

import (
	"encoding/hex"
	"errors"

	"github.com/atotto/clipboard"

	"github.com/dshills/lookout/internal/inspect"
)

// ErrNothingSelected is returned when copying without a selection.
var ErrNothingSelected = errors.New("nothing selected")

// Clipboard receives copied text.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the operating system clipboard.
type SystemClipboard struct{}

// WriteAll implements Clipboard.
func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return errors.New("clipboard unsupported on this system")
	}
	return clipboard.WriteAll(text)
}

// ClipboardText renders a copied value. Strings are copied verbatim, byte
// ranges as hex and everything else in its one-line form.
func ClipboardText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return hex.EncodeToString(x)
	}
	return inspect.SafeFormat(v)
}

// copySelection copies the selected value. Loop goroutine only.
func (app *Application) copySelection() error {
	v, ok := app.buffer.ClipboardValue()
	if !ok {
		return ErrNothingSelected
	}
	if err := app.clipboard.WriteAll(ClipboardText(v)); err != nil {
		return NewComponentError("clipboard", "copy", err)
	}
	return nil
}
