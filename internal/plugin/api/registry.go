package api

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	plua "github.com/twinpane/twinpane/internal/plugin/lua"
)

// Module is one Lua-facing bridge module. Modules register themselves
// under a _tp_<name> global which the tp loader collects.
type Module interface {
	// Name returns the module name (e.g. "nav", "ui").
	Name() string

	// Register installs the module functions into the Lua state.
	Register(L *lua.LState) error
}

// Registry holds the bridge modules injected into one extension's state.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	modules map[string]Module
}

// NewRegistry creates an empty module registry.
func NewRegistry() *Registry {
	return &Registry{
		modules: make(map[string]Module),
	}
}

// Register adds a module to the registry.
func (r *Registry) Register(mod Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[mod.Name()]; exists {
		return fmt.Errorf("module %q already registered", mod.Name())
	}
	r.modules[mod.Name()] = mod
	r.order = append(r.order, mod.Name())
	return nil
}

// List returns registered module names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// InjectAll installs every module into the state and preloads the tp
// aggregate so extensions can use: local tp = require("tp").
func (r *Registry) InjectAll(st *plua.State) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	L := st.LuaState()
	for _, name := range r.order {
		if err := r.modules[name].Register(L); err != nil {
			return fmt.Errorf("register module %q: %w", name, err)
		}
	}

	return installTPLoader(st, r.order)
}

// installTPLoader aggregates the _tp_* globals into the tp module.
func installTPLoader(st *plua.State, names []string) error {
	L := st.LuaState()
	tp := L.NewTable()

	for _, name := range names {
		globalName := "_tp_" + name
		val := L.GetGlobal(globalName)
		if val != lua.LNil {
			L.SetField(tp, name, val)
			L.SetGlobal(globalName, lua.LNil)
		}
	}

	L.SetField(tp, "api_version", lua.LNumber(1))

	st.PreloadModule("tp", func(L *lua.LState) int {
		L.Push(tp)
		return 1
	})
	return nil
}

// DefaultRegistry creates a registry with all standard bridge modules
// for one extension.
func DefaultRegistry(b *Bridge, st *plua.State) (*Registry, error) {
	r := NewRegistry()

	modules := []Module{
		NewNavModule(b),
		NewUIModule(b),
		NewLogModule(b),
		NewStoreModule(b),
		NewMenuModule(b, st),
		NewKeymapModule(b),
		NewExtModule(b),
	}

	for _, mod := range modules {
		if err := r.Register(mod); err != nil {
			return nil, err
		}
	}
	return r, nil
}
