package js

import (
	"time"

	"github.com/dop251/goja"
)

const helperSource = `({
	tag: function(o) { return Object.prototype.toString.call(o); },
	getter: function(o, k) {
		var d = Object.getOwnPropertyDescriptor(o, k);
		return !!(d && d.get);
	},
	names: function(o) { return Object.getOwnPropertyNames(o); },
	entries: function(o) { return Array.from(o); },
	view: function(a) { return [a.buffer, a.byteOffset, a.byteLength]; }
})`

// helpers are script functions used to read objects the way the language
// sees them.
type helpers struct {
	tag     goja.Callable
	getter  goja.Callable
	names   goja.Callable
	entries goja.Callable
	view    goja.Callable
}

func newHelpers(vm *goja.Runtime) (helpers, error) {
	v, err := vm.RunString(helperSource)
	if err != nil {
		return helpers{}, err
	}
	obj := v.ToObject(vm)
	var h helpers
	for name, dst := range map[string]*goja.Callable{
		"tag":     &h.tag,
		"getter":  &h.getter,
		"names":   &h.names,
		"entries": &h.entries,
		"view":    &h.view,
	} {
		fn, ok := goja.AssertFunction(obj.Get(name))
		if !ok {
			return helpers{}, errHelper(name)
		}
		*dst = fn
	}
	return h, nil
}

type errHelper string

func (e errHelper) Error() string { return "helper " + string(e) + " is not a function" }

func (s *Sandbox) installGlobals() error {
	console := s.vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error", "debug"} {
		level := level
		if err := console.Set(level, func(call goja.FunctionCall) goja.Value {
			if s.console != nil {
				args := make([]any, len(call.Arguments))
				for i, a := range call.Arguments {
					args[i] = s.export(a)
				}
				s.console(level, args)
			}
			return goja.Undefined()
		}); err != nil {
			return err
		}
	}
	if err := s.vm.Set("console", console); err != nil {
		return err
	}

	if err := s.vm.Set("setTimeout", s.setTimeout); err != nil {
		return err
	}
	return s.vm.Set("clearTimeout", s.clearTimeout)
}

// setTimeout schedules a callback on the loop. Extra arguments are passed
// to the callback.
func (s *Sandbox) setTimeout(call goja.FunctionCall) goja.Value {
	fn, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		panic(s.vm.NewTypeError("setTimeout: callback is not a function"))
	}
	delay := time.Duration(call.Argument(1).ToInteger()) * time.Millisecond
	if delay < 0 {
		delay = 0
	}
	var args []goja.Value
	if len(call.Arguments) > 2 {
		args = append(args, call.Arguments[2:]...)
	}

	s.timersMu.Lock()
	s.timerSeq++
	id := s.timerSeq
	s.timers[id] = s.sched.AfterFunc(delay, func() {
		s.timersMu.Lock()
		_, live := s.timers[id]
		delete(s.timers, id)
		s.timersMu.Unlock()
		if live {
			s.call(fn, args...)
		}
	})
	s.timersMu.Unlock()
	return s.vm.ToValue(id)
}

func (s *Sandbox) clearTimeout(call goja.FunctionCall) goja.Value {
	id := call.Argument(0).ToInteger()
	s.timersMu.Lock()
	if stop, ok := s.timers[id]; ok {
		stop()
		delete(s.timers, id)
	}
	s.timersMu.Unlock()
	return goja.Undefined()
}
