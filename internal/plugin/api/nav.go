package api

import (
	lua "github.com/yuin/gopher-lua"
)

// NavModule implements the tp.nav bridge module: pane paths, selection,
// navigation and refresh requests.
type NavModule struct {
	bridge *Bridge
}

// NewNavModule creates a nav module for one extension.
func NewNavModule(b *Bridge) *NavModule {
	return &NavModule{bridge: b}
}

// Name returns the module name.
func (m *NavModule) Name() string {
	return "nav"
}

// Register installs the module into the Lua state.
func (m *NavModule) Register(L *lua.LState) error {
	mod := L.NewTable()

	L.SetField(mod, "path", L.NewFunction(m.path))
	L.SetField(mod, "active", L.NewFunction(m.active))
	L.SetField(mod, "selection", L.NewFunction(m.selection))
	L.SetField(mod, "go", L.NewFunction(m.navigate))
	L.SetField(mod, "refresh", L.NewFunction(m.refresh))

	L.SetField(mod, "LEFT", lua.LString("left"))
	L.SetField(mod, "RIGHT", lua.LString("right"))
	L.SetField(mod, "ACTIVE", lua.LString("active"))

	L.SetGlobal("_tp_nav", mod)
	return nil
}

// parsePane maps "left"/"right"/"active" onto a pane.
func (m *NavModule) parsePane(L *lua.LState, arg int, def string) (Pane, bool) {
	name := L.OptString(arg, def)
	switch name {
	case "left":
		return PaneLeft, true
	case "right":
		return PaneRight, true
	case "active":
		return m.bridge.ActivePane(), true
	default:
		L.ArgError(arg, "pane must be 'left', 'right' or 'active'")
		return PaneLeft, false
	}
}

// path(pane?) -> string
// Returns the current directory of a pane (default: active).
func (m *NavModule) path(L *lua.LState) int {
	pane, ok := m.parsePane(L, 1, "active")
	if !ok {
		return 0
	}
	L.Push(lua.LString(m.bridge.PanePath(pane)))
	return 1
}

// active() -> "left" | "right"
func (m *NavModule) active(L *lua.LState) int {
	L.Push(lua.LString(m.bridge.ActivePane().String()))
	return 1
}

// selection() -> {path, ...}
// Returns a snapshot of the active pane's multi-selection.
func (m *NavModule) selection(L *lua.LState) int {
	t := L.NewTable()
	for i, p := range m.bridge.Selection() {
		t.RawSetInt(i+1, lua.LString(p))
	}
	L.Push(t)
	return 1
}

// go(pane, path) -> nil
// Requests navigation of a pane.
func (m *NavModule) navigate(L *lua.LState) int {
	pane, ok := m.parsePane(L, 1, "active")
	if !ok {
		return 0
	}
	path := L.CheckString(2)

	if err := m.bridge.Navigate(pane, path); err != nil {
		L.RaiseError("nav.go: %v", err)
		return 0
	}
	return 0
}

// refresh(pane?) -> nil
// Requests a re-read of one pane, or both with "both" (the default).
func (m *NavModule) refresh(L *lua.LState) int {
	name := L.OptString(1, "both")
	if name == "both" {
		if err := m.bridge.RefreshAll(); err != nil {
			L.RaiseError("nav.refresh: %v", err)
		}
		return 0
	}

	pane, ok := m.parsePane(L, 1, "both")
	if !ok {
		return 0
	}
	if err := m.bridge.Refresh(pane); err != nil {
		L.RaiseError("nav.refresh: %v", err)
	}
	return 0
}
