package app

import (
	"errors"
	"testing"
)

func TestComponentError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ComponentError
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "component only",
			err:      &ComponentError{Component: "history"},
			expected: "history",
		},
		{
			name:     "component and action",
			err:      &ComponentError{Component: "history", Action: "save"},
			expected: "history: save",
		},
		{
			name:     "component and error",
			err:      &ComponentError{Component: "clipboard", Err: errors.New("no display")},
			expected: "clipboard: no display",
		},
		{
			name:     "full",
			err:      NewComponentError("history", "load", errors.New("corrupt")),
			expected: "history: load: corrupt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.err.Error(); result != tt.expected {
				t.Errorf("Error() = '%s', expected '%s'", result, tt.expected)
			}
		})
	}
}

func TestComponentError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := NewComponentError("config", "reload", inner)
	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to find the wrapped error")
	}

	var nilErr *ComponentError
	if nilErr.Unwrap() != nil {
		t.Error("nil receiver should unwrap to nil")
	}
}

func TestInitError(t *testing.T) {
	err := &InitError{Component: "sandbox", Err: ErrUnknownSandbox}
	if got := err.Error(); got != "initialize sandbox: unknown sandbox" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrUnknownSandbox) {
		t.Error("expected errors.Is to find ErrUnknownSandbox")
	}
}

func TestRecoveredPanicError_Error(t *testing.T) {
	tests := []struct {
		err      *RecoveredPanicError
		expected string
	}{
		{nil, ""},
		{&RecoveredPanicError{Value: "boom"}, "panic: boom"},
		{&RecoveredPanicError{Value: 1, Stack: "trace"}, "panic: 1\ntrace"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.expected {
			t.Errorf("Error() = %q, expected %q", got, tt.expected)
		}
	}
}
