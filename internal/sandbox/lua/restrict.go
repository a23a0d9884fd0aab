package lua

import (
	lua "github.com/yuin/gopher-lua"
)

// unsafeGlobals can load code from disk or bypass the evaluator.
var unsafeGlobals = []string{
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"require",
	"module",
}

// restrict removes unsafe globals and routes print to the console.
func (s *Sandbox) restrict() {
	for _, name := range unsafeGlobals {
		s.L.SetGlobal(name, lua.LNil)
	}
	s.L.SetGlobal("print", s.L.NewFunction(s.luaPrint))
}

func (s *Sandbox) luaPrint(L *lua.LState) int {
	n := L.GetTop()
	args := make([]any, n)
	for i := 1; i <= n; i++ {
		args[i-1] = s.export(L.Get(i))
	}
	if s.print != nil {
		s.print(args)
	}
	return 0
}
