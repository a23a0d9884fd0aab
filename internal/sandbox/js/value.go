package js

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dop251/goja"

	"github.com/dshills/lookout/internal/inspect"
	"github.com/dshills/lookout/internal/sandbox"
)

// export converts a script value to the inspector's value model. Primitives
// become Go values; objects stay live behind *Object.
func (s *Sandbox) export(v goja.Value) any {
	switch {
	case v == nil || goja.IsUndefined(v):
		return inspect.Undefined
	case goja.IsNull(v):
		return nil
	}
	switch x := v.(type) {
	case *goja.Object:
		return s.wrap(x)
	case *goja.Symbol:
		return x.String()
	}
	return v.Export()
}

// toValue is the inverse of export.
func (s *Sandbox) toValue(v any) goja.Value {
	switch x := v.(type) {
	case *Object:
		return x.obj
	case *Function:
		return x.obj
	case *Promise:
		return x.obj
	case *Buffer:
		return x.obj
	case nil:
		return goja.Null()
	}
	if v == inspect.Undefined {
		return goja.Undefined()
	}
	return s.vm.ToValue(v)
}

func (s *Sandbox) wrap(obj *goja.Object) any {
	tag := s.tagOf(obj)
	o := &Object{s: s, obj: obj, tag: tag}
	if _, ok := goja.AssertFunction(obj); ok {
		return &Function{Object: o}
	}
	switch tag {
	case "Promise":
		return &Promise{Object: o}
	case "Uint8Array", "ArrayBuffer":
		return &Buffer{Object: o}
	}
	return o
}

// tagOf returns the builtin tag, for example "Array" or "Uint8Array".
func (s *Sandbox) tagOf(obj *goja.Object) (tag string) {
	defer func() {
		if recover() != nil {
			tag = "Object"
		}
	}()
	v, err := s.helpers.tag(goja.Undefined(), obj)
	if err != nil {
		return "Object"
	}
	t := v.String()
	if len(t) > len("[object ]") {
		return t[len("[object ") : len(t)-1]
	}
	return "Object"
}

// guard turns exceptions raised while touching an object into errors.
func guard(fn func() goja.Value) (v goja.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ex, ok := r.(*goja.Exception); ok {
				err = fmt.Errorf("%s", ex.Value().String())
				return
			}
			panic(r)
		}
	}()
	return fn(), nil
}

// Object is a live script object.
type Object struct {
	s   *Sandbox
	obj *goja.Object
	tag string
}

// Raw returns the underlying object.
func (o *Object) Raw() *goja.Object { return o.obj }

// Identity makes wrappers of the same object compare equal.
func (o *Object) Identity() any { return o.obj }

// TypeName returns the constructor name.
func (o *Object) TypeName() (string, string) {
	if c, ok := o.obj.Get("constructor").(*goja.Object); ok {
		if name := c.Get("name"); name != nil && name.String() != "" {
			return name.String(), ""
		}
	}
	return o.tag, ""
}

// IsArray reports whether the object is an array or typed array.
func (o *Object) IsArray() bool {
	switch o.tag {
	case "Array", "Uint8Array", "Int8Array", "Uint16Array", "Int16Array",
		"Uint32Array", "Int32Array", "Float32Array", "Float64Array", "Uint8ClampedArray":
		return true
	}
	return false
}

// Len returns the length of arrays and the size of maps and sets.
func (o *Object) Len() (int, bool) {
	var key string
	switch {
	case o.IsArray():
		key = "length"
	case o.tag == "Map" || o.tag == "Set":
		key = "size"
	default:
		return 0, false
	}
	v, err := guard(func() goja.Value { return o.obj.Get(key) })
	if err != nil || v == nil {
		return 0, false
	}
	return int(v.ToInteger()), true
}

func (o *Object) isGetter(key goja.Value) bool {
	v, err := o.s.helpers.getter(goja.Undefined(), o.obj, key)
	return err == nil && v.ToBoolean()
}

// ownNames returns every own string key, enumerable or not, in property
// order.
func (o *Object) ownNames() []string {
	v, err := o.s.helpers.names(goja.Undefined(), o.obj)
	if err != nil {
		return nil
	}
	var names []string
	if err := o.s.vm.ExportTo(v, &names); err != nil {
		return nil
	}
	return names
}

// OwnKeys lists own string keys, then own symbols.
func (o *Object) OwnKeys() []inspect.Property {
	enumerable := make(map[string]bool)
	for _, k := range o.obj.Keys() {
		enumerable[k] = true
	}

	var props []inspect.Property
	for _, k := range o.ownNames() {
		var flags inspect.Flags
		switch {
		case o.isGetter(o.s.vm.ToValue(k)):
			flags = inspect.FlagGetter
		case enumerable[k]:
			flags = inspect.FlagEnumerable
		default:
			flags = inspect.FlagHidden
		}
		props = append(props, inspect.Property{Key: inspect.Key{Name: k}, Flags: flags})
	}
	for _, sym := range o.obj.Symbols() {
		flags := inspect.FlagSymbol
		if o.isGetter(sym) {
			flags |= inspect.FlagGetter
		}
		props = append(props, inspect.Property{
			Key:   inspect.Key{Name: sym.String(), Symbol: true, Ref: sym},
			Flags: flags,
		})
	}
	return props
}

type entryRef int

// Entries lists the entries of maps and sets.
func (o *Object) Entries() []inspect.Property {
	if o.tag != "Map" && o.tag != "Set" {
		return nil
	}
	list, err := o.entries()
	if err != nil {
		return nil
	}
	props := make([]inspect.Property, len(list))
	for i, e := range list {
		name := strconv.Itoa(i)
		if o.tag == "Map" {
			name = inspect.SafeFormat(o.s.export(e.ToObject(o.s.vm).Get("0")))
		}
		props[i] = inspect.Property{Key: inspect.Key{Name: name, Ref: entryRef(i)}, Flags: inspect.FlagEntry}
	}
	return props
}

func (o *Object) entries() ([]goja.Value, error) {
	v, err := o.s.helpers.entries(goja.Undefined(), o.obj)
	if err != nil {
		return nil, err
	}
	arr := v.ToObject(o.s.vm)
	n := int(arr.Get("length").ToInteger())
	out := make([]goja.Value, n)
	for i := range out {
		out[i] = arr.Get(strconv.Itoa(i))
	}
	return out, nil
}

// Get reads a property. Getters run here.
func (o *Object) Get(key inspect.Key) (any, error) {
	if ref, ok := key.Ref.(entryRef); ok {
		list, err := o.entries()
		if err != nil {
			return nil, err
		}
		if int(ref) >= len(list) {
			return nil, inspect.ErrNoSuchKey
		}
		e := list[ref]
		if o.tag == "Map" {
			return o.s.export(e.ToObject(o.s.vm).Get("1")), nil
		}
		return o.s.export(e), nil
	}

	v, err := guard(func() goja.Value {
		if sym, ok := key.Ref.(*goja.Symbol); ok {
			return o.obj.GetSymbol(sym)
		}
		return o.obj.Get(key.Name)
	})
	if err != nil {
		return nil, err
	}
	return o.s.export(v), nil
}

// Proto returns the prototype.
func (o *Object) Proto() (any, bool) {
	p := o.obj.Prototype()
	if p == nil {
		return nil, false
	}
	return o.s.wrap(p), true
}

// Time returns the value of a Date.
func (o *Object) Time() (time.Time, bool) {
	if o.tag != "Date" {
		return time.Time{}, false
	}
	t, ok := o.obj.Export().(time.Time)
	return t, ok
}

// Buffer is a Uint8Array or ArrayBuffer.
type Buffer struct {
	*Object
}

// Bytes returns a copy of the bytes.
func (b *Buffer) Bytes() []byte {
	o := b.Object
	switch o.tag {
	case "ArrayBuffer":
		if ab, ok := o.obj.Export().(goja.ArrayBuffer); ok {
			return append([]byte(nil), ab.Bytes()...)
		}
	case "Uint8Array":
		v, err := o.s.helpers.view(goja.Undefined(), o.obj)
		if err != nil {
			return nil
		}
		parts := v.ToObject(o.s.vm)
		ab, ok := parts.Get("0").Export().(goja.ArrayBuffer)
		if !ok {
			return nil
		}
		off := int(parts.Get("1").ToInteger())
		n := int(parts.Get("2").ToInteger())
		return append([]byte(nil), ab.Bytes()[off:off+n]...)
	}
	return nil
}

// Function is a callable script object.
type Function struct {
	*Object
}

// FuncName returns the function's name property.
func (f *Function) FuncName() string {
	if n := f.obj.Get("name"); n != nil {
		return n.String()
	}
	return ""
}

// Source returns the function's source text.
func (f *Function) Source() string {
	return f.obj.String()
}

// Promise is a pending script computation.
type Promise struct {
	*Object
}

// Then registers callbacks that run on the loop once the promise settles.
func (p *Promise) Then(onFulfilled func(any), onRejected func(any)) {
	s := p.s
	then, ok := goja.AssertFunction(p.obj.Get("then"))
	if !ok {
		s.post(func() { onRejected(fmt.Errorf("object is not thenable")) })
		return
	}
	ok1 := func(call goja.FunctionCall) goja.Value {
		v := s.export(call.Argument(0))
		s.post(func() { onFulfilled(v) })
		return goja.Undefined()
	}
	fail := func(call goja.FunctionCall) goja.Value {
		reason := call.Argument(0)
		v := s.export(reason)
		msg := reason.String()
		s.post(func() { onRejected(thrown(v, msg)) })
		return goja.Undefined()
	}
	if _, err := then(p.obj, s.vm.ToValue(ok1), s.vm.ToValue(fail)); err != nil {
		err = s.convertError(err)
		s.post(func() { onRejected(err) })
	}
}

func thrown(v any, msg string) error {
	return &sandbox.ThrownError{Value: v, Message: msg}
}
