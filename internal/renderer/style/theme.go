// Package style maps semantic transcript classes to terminal styles.
// Every piece of rendered text names a Class; the Theme decides how it looks
// and can be overridden from configuration.
package style

import (
	"fmt"
	"sync"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/lookout/internal/renderer/core"
)

// Class identifies a semantic piece of rendered text.
type Class uint8

const (
	// ClassText is unclassified text.
	ClassText Class = iota

	// ClassString is a string value.
	ClassString

	// ClassNumber is a numeric value.
	ClassNumber

	// ClassBoolean is a boolean value.
	ClassBoolean

	// ClassOther is any value without a dedicated class.
	ClassOther

	// ClassTagBrace is the brace of an object tag.
	ClassTagBrace

	// ClassTagName is the type name inside an object tag.
	ClassTagName

	// ClassBadgeTime is the time of a caller badge.
	ClassBadgeTime

	// ClassBadgeBracket is the bracket around a caller badge.
	ClassBadgeBracket

	// ClassBadgeFile is the file:line of a caller badge.
	ClassBadgeFile

	// ClassBadgeSeen is the repeat counter of a caller badge.
	ClassBadgeSeen

	// ClassKeyEnumerable is an own enumerable property key.
	ClassKeyEnumerable

	// ClassKeyHidden is a non-enumerable property key.
	ClassKeyHidden

	// ClassKeyGetter is an accessor property key.
	ClassKeyGetter

	// ClassKeySymbol is a symbol property key.
	ClassKeySymbol

	// ClassGutterCommand is the gutter of an echoed command.
	ClassGutterCommand

	// ClassGutterError is the gutter of an error line.
	ClassGutterError

	// ClassGutterWarning is the gutter of a warning line.
	ClassGutterWarning

	// ClassGutterInfo is the gutter of an info line.
	ClassGutterInfo

	// ClassLineNumber is a fragment or hex row number.
	ClassLineNumber

	// ClassHexHighlight marks highlighted bytes.
	ClassHexHighlight

	// ClassButton is a paging button.
	ClassButton

	// ClassMuted is de-emphasized text.
	ClassMuted

	// ClassPrompt is the input prompt.
	ClassPrompt

	// ClassCount is the number of classes.
	ClassCount
)

var classNames = [ClassCount]string{
	ClassText:          "text",
	ClassString:        "string",
	ClassNumber:        "number",
	ClassBoolean:       "boolean",
	ClassOther:         "other",
	ClassTagBrace:      "tag_brace",
	ClassTagName:       "tag_name",
	ClassBadgeTime:     "badge_time",
	ClassBadgeBracket:  "badge_bracket",
	ClassBadgeFile:     "badge_file",
	ClassBadgeSeen:     "badge_seen",
	ClassKeyEnumerable: "key_enumerable",
	ClassKeyHidden:     "key_hidden",
	ClassKeyGetter:     "key_getter",
	ClassKeySymbol:     "key_symbol",
	ClassGutterCommand: "gutter_command",
	ClassGutterError:   "gutter_error",
	ClassGutterWarning: "gutter_warning",
	ClassGutterInfo:    "gutter_info",
	ClassLineNumber:    "line_number",
	ClassHexHighlight:  "hex_highlight",
	ClassButton:        "button",
	ClassMuted:         "muted",
	ClassPrompt:        "prompt",
}

// String returns the configuration name of the class.
func (c Class) String() string {
	if c < ClassCount {
		return classNames[c]
	}
	return "unknown"
}

// ParseClass resolves a configuration name to a class.
func ParseClass(name string) (Class, bool) {
	for i, n := range classNames {
		if n == name {
			return Class(i), true
		}
	}
	return 0, false
}

func ansi(idx uint8) core.Style {
	return core.NewStyle(core.ColorFromIndex(idx))
}

// DefaultStyles returns the built-in palette.
func DefaultStyles() [ClassCount]core.Style {
	var s [ClassCount]core.Style
	for i := range s {
		s[i] = core.DefaultStyle()
	}
	s[ClassNumber] = ansi(6)
	s[ClassBoolean] = ansi(5)
	s[ClassOther] = ansi(1)
	s[ClassTagBrace] = core.DefaultStyle().Bold()
	s[ClassTagName] = ansi(11).Bold()
	s[ClassBadgeTime] = core.DefaultStyle().Bold()
	s[ClassBadgeBracket] = ansi(8).Bold()
	s[ClassBadgeFile] = ansi(15).Bold()
	s[ClassBadgeSeen] = ansi(226).Bold()
	s[ClassKeyEnumerable] = ansi(13).Bold()
	s[ClassKeyHidden] = ansi(5)
	s[ClassKeyGetter] = ansi(14)
	s[ClassKeySymbol] = ansi(12)
	s[ClassGutterCommand] = ansi(7).Dim()
	s[ClassGutterError] = ansi(9)
	s[ClassGutterWarning] = ansi(11)
	s[ClassGutterInfo] = ansi(4)
	s[ClassLineNumber] = ansi(8).Bold()
	s[ClassHexHighlight] = ansi(11).WithBackground(core.ColorFromIndex(1)).Bold()
	s[ClassButton] = ansi(0).WithBackground(core.ColorFromIndex(7))
	s[ClassMuted] = core.DefaultStyle().Dim()
	s[ClassPrompt] = ansi(7).Dim()
	return s
}

// Theme resolves classes to styles. It is safe for concurrent use so a
// config reload can swap colors while lines are being rendered.
type Theme struct {
	mu     sync.RWMutex
	styles [ClassCount]core.Style
}

// NewTheme creates a theme with the default palette.
func NewTheme() *Theme {
	return &Theme{styles: DefaultStyles()}
}

// Style returns the style for a class.
func (t *Theme) Style(c Class) core.Style {
	if t == nil || c >= ClassCount {
		return core.DefaultStyle()
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.styles[c]
}

// Set replaces the style of a class.
func (t *Theme) Set(c Class, s core.Style) {
	if c >= ClassCount {
		return
	}
	t.mu.Lock()
	t.styles[c] = s
	t.mu.Unlock()
}

// Apply resets the theme to defaults and applies foreground overrides keyed
// by class name. Unknown classes and bad colors are collected into the
// returned error; valid entries are still applied.
func (t *Theme) Apply(overrides map[string]string) error {
	styles := DefaultStyles()
	var bad []string
	for name, hex := range overrides {
		c, ok := ParseClass(name)
		if !ok {
			bad = append(bad, name)
			continue
		}
		col, err := ParseColor(hex)
		if err != nil {
			bad = append(bad, name)
			continue
		}
		styles[c] = styles[c].WithForeground(col)
	}

	t.mu.Lock()
	t.styles = styles
	t.mu.Unlock()

	if len(bad) > 0 {
		return fmt.Errorf("theme: invalid entries %v", bad)
	}
	return nil
}

// ParseColor parses a "#rrggbb" or "#rgb" color.
func ParseColor(hex string) (core.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return core.Color{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return core.ColorFromRGB(r, g, b), nil
}

// Text returns s styled with the class.
func (t *Theme) Text(c Class, s string) core.Text {
	return core.Styled(s, t.Style(c))
}
