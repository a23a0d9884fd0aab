package lua

import (
	"fmt"
	"math"
	"strconv"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/lookout/internal/inspect"
)

// export converts a Lua value to the inspector's value model. Tables and
// functions stay live.
func (s *Sandbox) export(v lua.LValue) any {
	switch x := v.(type) {
	case nil:
		return nil
	case lua.LBool:
		return bool(x)
	case lua.LNumber:
		f := float64(x)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(x)
	case *lua.LTable:
		return &Table{s: s, t: x}
	case *lua.LFunction:
		return &Function{s: s, fn: x}
	case *lua.LUserData:
		return x.Value
	}
	if v == lua.LNil {
		return nil
	}
	return v.String()
}

// toValue is the inverse of export.
func (s *Sandbox) toValue(v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return x
	case *Table:
		return x.t
	case *Function:
		return x.fn
	case bool:
		return lua.LBool(x)
	case string:
		return lua.LString(x)
	case []byte:
		return lua.LString(x)
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	}
	if v == inspect.Undefined {
		return lua.LNil
	}
	ud := s.L.NewUserData()
	ud.Value = v
	return ud
}

// Table is a live Lua table.
type Table struct {
	s *Sandbox
	t *lua.LTable
}

// Raw returns the underlying table.
func (t *Table) Raw() *lua.LTable { return t.t }

// Identity makes wrappers of the same table compare equal.
func (t *Table) Identity() any { return t.t }

// TypeName returns the metatable's __name, else "table".
func (t *Table) TypeName() (string, string) {
	if mt, ok := t.s.L.GetMetatable(t.t).(*lua.LTable); ok {
		if name, ok := mt.RawGetString("__name").(lua.LString); ok && name != "" {
			return string(name), ""
		}
	}
	return "table", ""
}

// IsArray reports whether the table is a non-empty sequence without other
// keys.
func (t *Table) IsArray() bool {
	n := t.t.Len()
	if n == 0 {
		return false
	}
	count := 0
	t.each(func(_, _ lua.LValue) { count++ })
	return count == n
}

// Len returns the sequence length of array-like tables.
func (t *Table) Len() (int, bool) {
	if !t.IsArray() {
		return 0, false
	}
	return t.t.Len(), true
}

// each visits keys in table order.
func (t *Table) each(fn func(k, v lua.LValue)) {
	k, v := t.t.Next(lua.LNil)
	for k != lua.LNil {
		fn(k, v)
		k, v = t.t.Next(k)
	}
}

// OwnKeys lists string and number keys.
func (t *Table) OwnKeys() []inspect.Property {
	var props []inspect.Property
	t.each(func(k, _ lua.LValue) {
		var name string
		switch x := k.(type) {
		case lua.LString:
			name = string(x)
		case lua.LNumber:
			name = inspect.SafeFormat(t.s.export(x))
		default:
			return
		}
		props = append(props, inspect.Property{Key: inspect.Key{Name: name, Ref: k}, Flags: inspect.FlagEnumerable})
	})
	return props
}

// Entries lists keys that are neither strings nor numbers.
func (t *Table) Entries() []inspect.Property {
	var props []inspect.Property
	t.each(func(k, _ lua.LValue) {
		switch k.(type) {
		case lua.LString, lua.LNumber:
			return
		}
		props = append(props, inspect.Property{
			Key:   inspect.Key{Name: inspect.SafeFormat(t.s.export(k)), Ref: k},
			Flags: inspect.FlagEntry,
		})
	})
	return props
}

// Get reads a key without invoking metamethods.
func (t *Table) Get(key inspect.Key) (any, error) {
	k, ok := key.Ref.(lua.LValue)
	if !ok {
		k = lua.LString(key.Name)
		if n, err := strconv.ParseFloat(key.Name, 64); err == nil && t.t.RawGet(k) == lua.LNil {
			k = lua.LNumber(n)
		}
	}
	v := t.t.RawGet(k)
	if v == lua.LNil {
		return nil, inspect.ErrNoSuchKey
	}
	return t.s.export(v), nil
}

// Proto returns the metatable's __index table.
func (t *Table) Proto() (any, bool) {
	mt, ok := t.s.L.GetMetatable(t.t).(*lua.LTable)
	if !ok {
		return nil, false
	}
	idx, ok := mt.RawGetString("__index").(*lua.LTable)
	if !ok {
		return nil, false
	}
	return &Table{s: t.s, t: idx}, true
}

// Function is a Lua or Go function.
type Function struct {
	s  *Sandbox
	fn *lua.LFunction
}

// Identity makes wrappers of the same function compare equal.
func (f *Function) Identity() any { return f.fn }

// TypeName returns "function".
func (f *Function) TypeName() (string, string) { return "function", "" }

// IsArray returns false.
func (f *Function) IsArray() bool { return false }

// Len returns false.
func (f *Function) Len() (int, bool) { return 0, false }

// OwnKeys returns nothing; functions have no fields.
func (f *Function) OwnKeys() []inspect.Property { return nil }

// Get always fails.
func (f *Function) Get(inspect.Key) (any, error) { return nil, inspect.ErrNoSuchKey }

// FuncName returns the global name bound to the function, if any.
func (f *Function) FuncName() string {
	name := ""
	globals := f.s.L.G.Global
	k, v := globals.Next(lua.LNil)
	for k != lua.LNil {
		if v == f.fn {
			if s, ok := k.(lua.LString); ok {
				name = string(s)
				break
			}
		}
		k, v = globals.Next(k)
	}
	return name
}

// Source describes where the function was defined.
func (f *Function) Source() string {
	if f.fn.IsG || f.fn.Proto == nil {
		return "function: [native code]"
	}
	return fmt.Sprintf("function <%s:%d>", f.fn.Proto.SourceName, f.fn.Proto.LineDefined)
}
