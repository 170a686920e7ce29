package api

import (
	lua "github.com/yuin/gopher-lua"
)

// KeymapModule implements the tp.keymap bridge module: keyboard
// shortcuts mapped to command ids.
type KeymapModule struct {
	bridge *Bridge
}

// NewKeymapModule creates a keymap module for one extension.
func NewKeymapModule(b *Bridge) *KeymapModule {
	return &KeymapModule{bridge: b}
}

// Name returns the module name.
func (m *KeymapModule) Name() string {
	return "keymap"
}

// Register installs the module into the Lua state.
func (m *KeymapModule) Register(L *lua.LState) error {
	mod := L.NewTable()

	L.SetField(mod, "set", L.NewFunction(m.set))

	L.SetGlobal("_tp_keymap", mod)
	return nil
}

// set(key, modifiers, command) -> nil
// modifiers is a table of names, e.g. {"ctrl", "shift"}, or nil.
func (m *KeymapModule) set(L *lua.LState) int {
	key := L.CheckString(1)

	var mods Modifier
	if tbl, ok := L.Get(2).(*lua.LTable); ok {
		var names []string
		tbl.ForEach(func(_, v lua.LValue) {
			if s, ok := v.(lua.LString); ok {
				names = append(names, string(s))
			}
		})
		mods = ParseModifiers(names)
	}

	command := L.CheckString(3)

	sc := Shortcut{Key: key, Modifiers: mods, Command: command}
	if err := m.bridge.AddShortcut(sc); err != nil {
		L.RaiseError("keymap.set: %v", err)
		return 0
	}
	return 0
}

// ExtModule implements the tp.ext bridge module: the extension's own
// identity and private data directory.
type ExtModule struct {
	bridge *Bridge
}

// NewExtModule creates an ext module for one extension.
func NewExtModule(b *Bridge) *ExtModule {
	return &ExtModule{bridge: b}
}

// Name returns the module name.
func (m *ExtModule) Name() string {
	return "ext"
}

// Register installs the module into the Lua state.
func (m *ExtModule) Register(L *lua.LState) error {
	mod := L.NewTable()

	L.SetField(mod, "id", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(m.bridge.ExtensionID()))
		return 1
	}))
	L.SetField(mod, "datadir", L.NewFunction(m.datadir))

	L.SetGlobal("_tp_ext", mod)
	return nil
}

// datadir() -> path
// Returns the extension's private directory, creating it on first use.
func (m *ExtModule) datadir(L *lua.LState) int {
	dir, err := m.bridge.DataDir()
	if err != nil {
		L.RaiseError("ext.datadir: %v", err)
		return 0
	}
	L.Push(lua.LString(dir))
	return 1
}
