package style

import (
	"testing"

	"github.com/dshills/lookout/internal/renderer/core"
)

func TestClassString(t *testing.T) {
	tests := []struct {
		class    Class
		expected string
	}{
		{ClassText, "text"},
		{ClassNumber, "number"},
		{ClassKeyHidden, "key_hidden"},
		{ClassPrompt, "prompt"},
		{Class(200), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.class.String(); got != tt.expected {
			t.Errorf("%d.String() = %q, want %q", tt.class, got, tt.expected)
		}
	}
}

func TestParseClassRoundTrip(t *testing.T) {
	for c := ClassText; c < ClassCount; c++ {
		got, ok := ParseClass(c.String())
		if !ok || got != c {
			t.Errorf("ParseClass(%q) = %v, %v", c.String(), got, ok)
		}
	}
	if _, ok := ParseClass("nope"); ok {
		t.Error("ParseClass should reject unknown names")
	}
}

func TestThemeApply(t *testing.T) {
	th := NewTheme()

	err := th.Apply(map[string]string{
		"number":  "#ff0000",
		"missing": "#00ff00",
		"string":  "zzz",
	})
	if err == nil {
		t.Fatal("expected error for invalid entries")
	}

	got := th.Style(ClassNumber).Foreground
	if !got.Equals(core.ColorFromRGB(255, 0, 0)) {
		t.Errorf("number foreground = %v", got)
	}
	if !th.Style(ClassString).Equals(DefaultStyles()[ClassString]) {
		t.Error("invalid override should leave the default in place")
	}
}

func TestThemeApplyResets(t *testing.T) {
	th := NewTheme()
	if err := th.Apply(map[string]string{"number": "#123456"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := th.Apply(nil); err != nil {
		t.Fatalf("Apply(nil): %v", err)
	}
	if !th.Style(ClassNumber).Equals(DefaultStyles()[ClassNumber]) {
		t.Error("Apply(nil) should restore defaults")
	}
}

func TestNilTheme(t *testing.T) {
	var th *Theme
	if !th.Style(ClassNumber).Equals(core.DefaultStyle()) {
		t.Error("nil theme should yield the default style")
	}
}
