package lua

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// Sandbox restricts Lua execution to safe operations and scopes module
// loading to one extension's directory. An extension's own modules always
// resolve before anything else; nothing outside the extension root can be
// loaded from disk, so two extensions may carry conflicting copies of the
// same library without interference.
type Sandbox struct {
	L *lua.LState

	root string

	// Instruction limiting
	instructionLimit int64
	instructionCount int64

	// Go-provided modules loadable via require (e.g. "tp").
	allowedModules map[string]bool

	// Cache of modules loaded from the extension root.
	loaded map[string]lua.LValue
}

// builtinModules are the gopher-lua built-ins a sandboxed extension may
// require.
var builtinModules = map[string]bool{
	"string": true,
	"table":  true,
	"math":   true,
}

// NewSandbox creates a sandbox scoping the Lua state to root.
func NewSandbox(L *lua.LState, root string, instructionLimit int64) *Sandbox {
	return &Sandbox{
		L:                L,
		root:             root,
		instructionLimit: instructionLimit,
		allowedModules:   make(map[string]bool),
		loaded:           make(map[string]lua.LValue),
	}
}

// Install sets up the sandbox restrictions.
func (s *Sandbox) Install() {
	// Remove globals that could bypass the boundary.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		s.L.SetGlobal(name, lua.LNil)
	}

	s.installScopedRequire()
}

// AllowModule marks a Go-preloaded module as loadable with require.
func (s *Sandbox) AllowModule(name string) {
	s.allowedModules[name] = true
}

// installScopedRequire replaces require with a version that resolves, in
// order: built-in safe modules, Go-preloaded host modules, then Lua files
// inside the extension root ("name" -> name.lua or name/init.lua).
// Anything else raises an error.
func (s *Sandbox) installScopedRequire() {
	originalRequire := s.L.GetGlobal("require")

	s.L.SetGlobal("require", s.L.NewFunction(func(L *lua.LState) int {
		modName := L.CheckString(1)

		if builtinModules[modName] || s.allowedModules[modName] {
			L.Push(originalRequire)
			L.Push(lua.LString(modName))
			L.Call(1, 1)
			return 1
		}

		if cached, ok := s.loaded[modName]; ok {
			L.Push(cached)
			return 1
		}

		path, ok := s.resolve(modName)
		if !ok {
			L.RaiseError("module %q is not available", modName)
			return 0 // unreachable
		}

		fn, err := L.LoadFile(path)
		if err != nil {
			L.RaiseError("module %q: %v", modName, err)
			return 0 // unreachable
		}

		L.Push(fn)
		L.Call(0, 1)
		result := L.Get(-1)
		if result == lua.LNil {
			result = lua.LTrue
		}
		s.loaded[modName] = result
		L.Pop(1)
		L.Push(result)
		return 1
	}))
}

// resolve maps a module name to a file inside the extension root.
// Dots become path separators, Lua convention.
func (s *Sandbox) resolve(modName string) (string, bool) {
	if s.root == "" {
		return "", false
	}

	rel := strings.ReplaceAll(modName, ".", string(filepath.Separator))
	candidates := []string{
		filepath.Join(s.root, rel+".lua"),
		filepath.Join(s.root, rel, "init.lua"),
	}

	for _, c := range candidates {
		// Refuse paths escaping the root (e.g. require("..secret")).
		if r, err := filepath.Rel(s.root, c); err != nil || strings.HasPrefix(r, "..") {
			continue
		}
		if st, err := os.Stat(c); err == nil && !st.IsDir() {
			return c, true
		}
	}
	return "", false
}

// ResetInstructionCount resets the instruction counter.
func (s *Sandbox) ResetInstructionCount() {
	atomic.StoreInt64(&s.instructionCount, 0)
}

// InstructionCount returns the current instruction count.
func (s *Sandbox) InstructionCount() int64 {
	return atomic.LoadInt64(&s.instructionCount)
}

// IncrementInstructions adds to the count and reports limit overrun.
func (s *Sandbox) IncrementInstructions(n int64) bool {
	if s.instructionLimit <= 0 {
		return false
	}
	return atomic.AddInt64(&s.instructionCount, n) > s.instructionLimit
}
