package api

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	plua "github.com/twinpane/twinpane/internal/plugin/lua"
)

// MenuModule implements the tp.menu bridge module. A menu item may carry
// a "when" function; it is stored in the extension's own state and
// evaluated through the state wrapper at menu-build time, so the host
// never touches the raw LState.
type MenuModule struct {
	bridge *Bridge
	state  *plua.State

	nextWhen int
}

// NewMenuModule creates a menu module for one extension.
func NewMenuModule(b *Bridge, st *plua.State) *MenuModule {
	return &MenuModule{bridge: b, state: st}
}

// Name returns the module name.
func (m *MenuModule) Name() string {
	return "menu"
}

// Register installs the module into the Lua state.
func (m *MenuModule) Register(L *lua.LState) error {
	mod := L.NewTable()

	L.SetField(mod, "add", L.NewFunction(m.add))

	L.SetGlobal("_tp_menu", mod)
	return nil
}

// add{id=, title=, command=, when=} -> nil
// Registers a menu item. Registration is additive only.
func (m *MenuModule) add(L *lua.LState) int {
	opts := L.CheckTable(1)

	item := MenuItem{
		ID:      plua.TableString(opts, "id"),
		Title:   plua.TableString(opts, "title"),
		Command: plua.TableString(opts, "command"),
	}

	if when, ok := opts.RawGetString("when").(*lua.LFunction); ok {
		// Keep the predicate alive as a global in this extension's state.
		m.nextWhen++
		name := fmt.Sprintf("_tp_menu_when_%d", m.nextWhen)
		L.SetGlobal(name, when)

		st := m.state
		item.When = func(*Bridge) bool {
			results, err := st.Call(name)
			if err != nil || len(results) == 0 {
				return false
			}
			return lua.LVAsBool(results[0])
		}
	}

	if err := m.bridge.AddMenuItem(item); err != nil {
		L.RaiseError("menu.add: %v", err)
		return 0
	}
	return 0
}
