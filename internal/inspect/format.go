package inspect

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"
)

const (
	inlineDepth = 1
	inlineItems = 10
	bufferBytes = 50
)

// FormatNumber formats numeric values. It reports false for non-numbers.
func FormatNumber(v any) (string, bool) {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n), true
	case int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(n).Int(), 10), true
	case uint, uint8, uint16, uint32, uint64, uintptr:
		return strconv.FormatUint(reflect.ValueOf(n).Uint(), 10), true
	case float32:
		return formatFloat(float64(n)), true
	case float64:
		return formatFloat(n), true
	case *big.Int:
		if n == nil {
			return "", false
		}
		return n.String() + "n", true
	}
	return "", false
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	if a := math.Abs(f); a == 0 || a >= 1e-6 && a < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Format renders v on a single line. Nested objects are summarized one
// level deep; getters are not invoked.
func Format(v any) string {
	var b strings.Builder
	format(&b, v, 0)
	return b.String()
}

func format(b *strings.Builder, v any, depth int) {
	if s, ok := FormatNumber(v); ok {
		b.WriteString(s)
		return
	}
	switch x := v.(type) {
	case nil:
		b.WriteString("null")
		return
	case undefined:
		b.WriteString("undefined")
		return
	case string:
		b.WriteString(strconv.Quote(x))
		return
	case bool:
		b.WriteString(strconv.FormatBool(x))
		return
	case time.Time:
		b.WriteString(x.Format(time.RFC3339Nano))
		return
	}

	if buf, ok := Bytes(v); ok {
		formatBuffer(b, buf)
		return
	}
	if err, ok := v.(error); ok {
		if _, isTarget := v.(Target); !isTarget {
			b.WriteString(err.Error())
			return
		}
	}

	obj, ok := Of(v)
	if !ok {
		if s, ok := v.(fmt.Stringer); ok {
			b.WriteString(s.String())
			return
		}
		fmt.Fprint(b, v)
		return
	}

	if c, ok := obj.(Callable); ok {
		name := c.FuncName()
		if name == "" {
			name = "anonymous"
		}
		fmt.Fprintf(b, "[Function: %s]", name)
		return
	}
	if d, ok := obj.(Dated); ok {
		if t, ok := d.Time(); ok {
			b.WriteString(t.Format(time.RFC3339Nano))
			return
		}
	}
	if j, ok := obj.(*jsonObject); ok {
		b.WriteString(j.Compact())
		return
	}

	opener, closer := "{", "}"
	if obj.IsArray() {
		opener, closer = "[", "]"
	}
	if depth >= inlineDepth {
		name, _ := obj.TypeName()
		fmt.Fprintf(b, "[%s]", name)
		return
	}

	props := obj.OwnKeys()
	if len(props) == 0 {
		b.WriteString(opener + closer)
		return
	}

	b.WriteString(opener + " ")
	shown := 0
	for _, p := range props {
		if p.Flags.Has(FlagHidden) || p.Flags.Has(FlagSymbol) {
			continue
		}
		if shown == inlineItems {
			fmt.Fprintf(b, ", ... %d more", len(props)-shown)
			break
		}
		if shown > 0 {
			b.WriteString(", ")
		}
		shown++
		if !obj.IsArray() {
			b.WriteString(p.Key.Name + ": ")
		}
		if p.Flags.Has(FlagGetter) {
			b.WriteString("[Getter]")
			continue
		}
		val, err := Read(obj, p)
		if err != nil {
			b.WriteString(AccessError(p.Key.Name))
			continue
		}
		format(b, val, depth+1)
	}
	b.WriteString(" " + closer)
}

func formatBuffer(b *strings.Builder, buf []byte) {
	b.WriteString("<Buffer")
	for i, c := range buf {
		if i == bufferBytes {
			fmt.Fprintf(b, " ... %d more bytes", len(buf)-bufferBytes)
			break
		}
		fmt.Fprintf(b, " %02x", c)
	}
	b.WriteString(">")
}

// SafeFormat is Format with panics replaced by the stringify placeholder.
func SafeFormat(v any) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = StringifyError
		}
	}()
	return Format(v)
}

// StringifyError replaces values that cannot be rendered.
const StringifyError = "[Could not stringify]"

// AccessError replaces a value whose read failed.
func AccessError(key string) string {
	return fmt.Sprintf("[ERROR getting value %q]", key)
}

// Same reports whether a and b are the same value for repeat detection.
// Primitives compare by value, byte buffers by content, wrapped sandbox
// objects by identity, and plain Go data structurally.
func Same(a, b any) bool {
	if ia, ok := a.(Identifier); ok {
		ib, ok := b.(Identifier)
		return ok && ia.Identity() != nil && ia.Identity() == ib.Identity()
	}
	if ba, ok := Bytes(a); ok {
		bb, ok := Bytes(b)
		return ok && bytes.Equal(ba, bb)
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta == nil {
		return true
	}
	if ta.Kind() == reflect.Func {
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}
