package inspect

import (
	"errors"
	"fmt"
)

// ErrNoSuchKey is returned when a key does not exist on an object.
var ErrNoSuchKey = errors.New("no such key")

// PanicError wraps a value recovered from a panicking hook.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
