// Package inspect is the value model behind the transcript inspector.
//
// Anything logged or produced by a sandbox is either a primitive (nil,
// bool, numbers, strings, time.Time, byte slices) or an Object: a container
// with typed, flagged keys that can be enumerated and read one at a time.
// Go values are adapted through reflection, raw JSON through gjson, and
// sandbox values implement Object directly.
package inspect

import (
	"encoding/json"
	"reflect"
	"time"
)

// Flags describe a property key.
type Flags uint16

const (
	// FlagEnumerable marks an ordinary visible key.
	FlagEnumerable Flags = 1 << iota

	// FlagGetter marks a computed key whose read may have side effects.
	FlagGetter

	// FlagHidden marks a non-enumerable key.
	FlagHidden

	// FlagSymbol marks a symbol key.
	FlagSymbol

	// FlagEntry marks a map/set entry.
	FlagEntry

	// FlagSource marks the synthetic [SOURCE] key of a callable.
	FlagSource

	// FlagProto marks the synthetic __proto__ key.
	FlagProto

	// FlagOpens marks the first property of an expanded group.
	FlagOpens

	// FlagCloses marks the last property of an expanded group.
	FlagCloses
)

// Has reports whether all bits of f2 are set.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// Synthetic key names.
const (
	SourceKey = "[SOURCE]"
	ProtoKey  = "__proto__"
)

// Key names a property. Ref carries the adapter's native handle (a symbol,
// a map key, a field index) and is opaque to everything else.
type Key struct {
	Name   string
	Symbol bool
	Ref    any
}

// String returns the display form of the key.
func (k Key) String() string {
	return k.Name
}

// Property is a key together with its flags.
type Property struct {
	Key   Key
	Flags Flags
}

// Object is an inspectable container.
type Object interface {
	// TypeName returns the type tag and an optional namespace.
	TypeName() (name, namespace string)

	// IsArray reports whether the object renders with [ ] brackets.
	IsArray() bool

	// Len returns the length or size when the object has one.
	Len() (int, bool)

	// OwnKeys lists own string and symbol keys, flagged with
	// FlagEnumerable, FlagHidden, FlagGetter and FlagSymbol.
	OwnKeys() []Property

	// Get reads a key. Getters run here.
	Get(key Key) (any, error)
}

// Callable is an Object that can be called.
type Callable interface {
	Object
	FuncName() string
	Source() string
}

// Entrier exposes map/set-like entries.
type Entrier interface {
	Entries() []Property
}

// Prototyped exposes a prototype chain link.
type Prototyped interface {
	Proto() (any, bool)
}

// Dated is a date-like Object.
type Dated interface {
	Time() (time.Time, bool)
}

// ByteSource is an Object backed by a byte buffer.
type ByteSource interface {
	Bytes() []byte
}

// Identifier lets wrappers of the same underlying value compare equal.
type Identifier interface {
	Identity() any
}

// Target redirects inspection to another value. Errors that carry a thrown
// sandbox value use it so the value can be expanded.
type Target interface {
	InspectTarget() any
}

type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined is the value of a missing sandbox value.
var Undefined any = undefined{}

// JSON is a JSON document that should be inspected structurally.
type JSON string

// Of adapts v to an Object. Primitives, byte slices and times return false.
func Of(v any) (Object, bool) {
	if t, ok := v.(Target); ok {
		v = t.InspectTarget()
	}
	switch x := v.(type) {
	case nil:
		return nil, false
	case Object:
		return x, true
	case json.RawMessage:
		return ofJSON([]byte(x))
	case JSON:
		return ofJSON([]byte(x))
	case []byte, time.Time, error:
		return nil, false
	}
	return ofReflect(reflect.ValueOf(v))
}

// Bytes returns the byte buffer behind v, if any.
func Bytes(v any) ([]byte, bool) {
	switch x := v.(type) {
	case json.RawMessage:
		return nil, false
	case []byte:
		return x, true
	case ByteSource:
		return x.Bytes(), true
	}
	return nil, false
}
