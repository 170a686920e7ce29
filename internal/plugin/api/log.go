package api

import (
	lua "github.com/yuin/gopher-lua"
)

// LogModule implements the tp.log bridge module, a leveled log sink
// tagged with the extension id.
type LogModule struct {
	bridge *Bridge
}

// NewLogModule creates a log module for one extension.
func NewLogModule(b *Bridge) *LogModule {
	return &LogModule{bridge: b}
}

// Name returns the module name.
func (m *LogModule) Name() string {
	return "log"
}

// Register installs the module into the Lua state.
func (m *LogModule) Register(L *lua.LState) error {
	mod := L.NewTable()

	L.SetField(mod, "debug", L.NewFunction(m.logAt(func(msg string) { m.bridge.Logger().Debug(msg) })))
	L.SetField(mod, "info", L.NewFunction(m.logAt(func(msg string) { m.bridge.Logger().Info(msg) })))
	L.SetField(mod, "warn", L.NewFunction(m.logAt(func(msg string) { m.bridge.Logger().Warn(msg) })))
	L.SetField(mod, "error", L.NewFunction(m.logAt(func(msg string) { m.bridge.Logger().Error(msg) })))

	L.SetGlobal("_tp_log", mod)
	return nil
}

// logAt builds a Lua function logging its first argument at one level.
func (m *LogModule) logAt(sink func(string)) lua.LGFunction {
	return func(L *lua.LState) int {
		sink(L.CheckString(1))
		return 0
	}
}
