package api

import (
	lua "github.com/yuin/gopher-lua"

	plua "github.com/twinpane/twinpane/internal/plugin/lua"
)

// StoreModule implements the tp.store bridge module: the typed key/value
// configuration store scoped to the calling extension.
type StoreModule struct {
	bridge *Bridge
}

// NewStoreModule creates a store module for one extension.
func NewStoreModule(b *Bridge) *StoreModule {
	return &StoreModule{bridge: b}
}

// Name returns the module name.
func (m *StoreModule) Name() string {
	return "store"
}

// Register installs the module into the Lua state.
func (m *StoreModule) Register(L *lua.LState) error {
	mod := L.NewTable()

	L.SetField(mod, "get", L.NewFunction(m.get))
	L.SetField(mod, "set", L.NewFunction(m.set))
	L.SetField(mod, "del", L.NewFunction(m.del))
	L.SetField(mod, "keys", L.NewFunction(m.keys))

	L.SetGlobal("_tp_store", mod)
	return nil
}

// get(key) -> value or nil
func (m *StoreModule) get(L *lua.LState) int {
	key := L.CheckString(1)

	v, ok := m.bridge.Get(key)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(plua.NewBridge(L).ToLuaValue(v))
	return 1
}

// set(key, value) -> nil
func (m *StoreModule) set(L *lua.LState) int {
	key := L.CheckString(1)
	value := plua.NewBridge(L).ToGoValue(L.CheckAny(2))

	if err := m.bridge.Set(key, value); err != nil {
		L.RaiseError("store.set: %v", err)
		return 0
	}
	return 0
}

// del(key) -> nil
func (m *StoreModule) del(L *lua.LState) int {
	key := L.CheckString(1)
	m.bridge.ctx.store.Delete(m.bridge.id, key)
	return 0
}

// keys() -> {key, ...}
func (m *StoreModule) keys(L *lua.LState) int {
	t := L.NewTable()
	for i, k := range m.bridge.Keys() {
		t.RawSetInt(i+1, lua.LString(k))
	}
	L.Push(t)
	return 1
}
