package inspect

import (
	"fmt"
	"reflect"
	"runtime"
	"sort"
	"strconv"
	"strings"
)

// goObject adapts Go structs, maps, slices, arrays and funcs.
type goObject struct {
	v reflect.Value
}

func ofReflect(v reflect.Value) (Object, bool) {
	// Pointers to structs stay pointers so pointer-receiver getters are visible.
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer && v.Elem().Kind() != reflect.Struct {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	if !v.IsValid() || v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, false
	}

	switch v.Kind() {
	case reflect.Map, reflect.Slice, reflect.Func:
		if v.IsNil() {
			return nil, false
		}
	}

	switch indirect(v).Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array:
		return &goObject{v: v}, true
	case reflect.Func:
		return &goFunc{goObject{v: v}}, true
	}
	return nil, false
}

func indirect(v reflect.Value) reflect.Value {
	if v.Kind() == reflect.Pointer {
		return v.Elem()
	}
	return v
}

func (o *goObject) TypeName() (string, string) {
	t := indirect(o.v).Type()
	if t.Name() == "" {
		return t.String(), ""
	}
	pkg := t.PkgPath()
	if i := strings.LastIndex(pkg, "/"); i >= 0 {
		pkg = pkg[i+1:]
	}
	return t.Name(), pkg
}

func (o *goObject) IsArray() bool {
	k := indirect(o.v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

func (o *goObject) Len() (int, bool) {
	v := indirect(o.v)
	switch v.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return v.Len(), true
	}
	return 0, false
}

func (o *goObject) OwnKeys() []Property {
	v := indirect(o.v)
	var props []Property

	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			flags := FlagEnumerable
			if !f.IsExported() {
				flags = FlagHidden
			}
			props = append(props, Property{Key: Key{Name: f.Name, Ref: i}, Flags: flags})
		}
		props = append(props, o.getters()...)

	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			props = append(props, Property{Key: Key{Name: strconv.Itoa(i), Ref: i}, Flags: FlagEnumerable})
		}

	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil
		}
		for _, k := range sortedKeys(v) {
			props = append(props, Property{Key: Key{Name: k.String(), Ref: k}, Flags: FlagEnumerable})
		}
	}
	return props
}

// getters lists exported methods that take no arguments and return a value,
// optionally followed by an error.
func (o *goObject) getters() []Property {
	t := o.v.Type()
	var props []Property
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		mt := m.Type
		if mt.NumIn() != 1 {
			continue
		}
		switch mt.NumOut() {
		case 1:
		case 2:
			if !mt.Out(1).Implements(errorType) {
				continue
			}
		default:
			continue
		}
		if m.Name == "String" || m.Name == "Error" {
			continue
		}
		props = append(props, Property{Key: Key{Name: m.Name + "()", Ref: m.Name}, Flags: FlagGetter})
	}
	return props
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Entries lists the entries of maps with non-string keys.
func (o *goObject) Entries() []Property {
	v := indirect(o.v)
	if v.Kind() != reflect.Map || v.Type().Key().Kind() == reflect.String {
		return nil
	}
	var props []Property
	for _, k := range sortedKeys(v) {
		props = append(props, Property{Key: Key{Name: fmt.Sprint(fromReflect(k)), Ref: k}, Flags: FlagEntry})
	}
	return props
}

func sortedKeys(v reflect.Value) []reflect.Value {
	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(fromReflect(keys[i])) < fmt.Sprint(fromReflect(keys[j]))
	})
	return keys
}

func (o *goObject) Get(key Key) (any, error) {
	v := indirect(o.v)
	switch ref := key.Ref.(type) {
	case int:
		switch v.Kind() {
		case reflect.Struct:
			if ref < v.NumField() {
				return fromReflect(v.Field(ref)), nil
			}
		case reflect.Slice, reflect.Array:
			if ref < v.Len() {
				return fromReflect(v.Index(ref)), nil
			}
		}
	case reflect.Value:
		if v.Kind() == reflect.Map {
			if mv := v.MapIndex(ref); mv.IsValid() {
				return fromReflect(mv), nil
			}
		}
	case string:
		return o.call(ref)
	}
	return nil, fmt.Errorf("%s: %w", key.Name, ErrNoSuchKey)
}

func (o *goObject) call(name string) (any, error) {
	m := o.v.MethodByName(name)
	if !m.IsValid() {
		return nil, fmt.Errorf("%s: %w", name, ErrNoSuchKey)
	}
	out := m.Call(nil)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return fromReflect(out[0]), nil
}

// Identity returns the pointer for pointer-backed values.
func (o *goObject) Identity() any {
	switch o.v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func:
		return o.v.Pointer()
	}
	return nil
}

// fromReflect returns a usable value for v, including unexported fields
// that cannot be turned back into an interface.
func fromReflect(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	if v.CanInterface() {
		return v.Interface()
	}
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.String:
		return v.String()
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
	}
	if obj, ok := ofReflect(v); ok {
		return obj
	}
	return fmt.Sprint(v)
}

type goFunc struct {
	goObject
}

func (f *goFunc) TypeName() (string, string) {
	pkg, _ := f.qualified()
	return "func", pkg
}

// qualified splits the runtime name into package and package-relative name.
func (f *goFunc) qualified() (pkg, name string) {
	rf := runtime.FuncForPC(f.v.Pointer())
	if rf == nil {
		return "", ""
	}
	full := rf.Name()
	rest := full[strings.LastIndex(full, "/")+1:]
	if i := strings.Index(rest, "."); i >= 0 {
		return rest[:i], rest[i+1:]
	}
	return "", rest
}

func (f *goFunc) IsArray() bool       { return false }
func (f *goFunc) Len() (int, bool)    { return f.v.Type().NumIn(), true }
func (f *goFunc) OwnKeys() []Property { return nil }

func (f *goFunc) Get(key Key) (any, error) {
	return nil, fmt.Errorf("%s: %w", key.Name, ErrNoSuchKey)
}

// FuncName returns the package-relative function name.
func (f *goFunc) FuncName() string {
	_, name := f.qualified()
	return name
}

// Source returns the signature and definition site.
func (f *goFunc) Source() string {
	sig := f.v.Type().String()
	rf := runtime.FuncForPC(f.v.Pointer())
	if rf == nil {
		return sig
	}
	file, line := rf.FileLine(rf.Entry())
	return fmt.Sprintf("%s // %s:%d", sig, file, line)
}
