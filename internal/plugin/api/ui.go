package api

import (
	lua "github.com/yuin/gopher-lua"
)

// UIModule implements the tp.ui bridge module: host-mediated messages
// and prompts. The bridge supplies safe defaults when the host has not
// wired a UI provider.
type UIModule struct {
	bridge *Bridge
}

// NewUIModule creates a ui module for one extension.
func NewUIModule(b *Bridge) *UIModule {
	return &UIModule{bridge: b}
}

// Name returns the module name.
func (m *UIModule) Name() string {
	return "ui"
}

// Register installs the module into the Lua state.
func (m *UIModule) Register(L *lua.LState) error {
	mod := L.NewTable()

	L.SetField(mod, "message", L.NewFunction(m.message))
	L.SetField(mod, "confirm", L.NewFunction(m.confirm))
	L.SetField(mod, "input", L.NewFunction(m.input))

	L.SetField(mod, "INFO", lua.LString(MessageInfo))
	L.SetField(mod, "WARNING", lua.LString(MessageWarning))
	L.SetField(mod, "ERROR", lua.LString(MessageError))

	L.SetGlobal("_tp_ui", mod)
	return nil
}

// message(text, level?) -> nil
func (m *UIModule) message(L *lua.LState) int {
	text := L.CheckString(1)
	levelStr := L.OptString(2, string(MessageInfo))

	level := MessageLevel(levelStr)
	switch level {
	case MessageInfo, MessageWarning, MessageError:
	default:
		level = MessageInfo
	}

	if err := m.bridge.Message(text, level); err != nil {
		L.RaiseError("ui.message: %v", err)
	}
	return 0
}

// confirm(prompt) -> bool
func (m *UIModule) confirm(L *lua.LState) int {
	prompt := L.CheckString(1)

	ok, err := m.bridge.Confirm(prompt)
	if err != nil {
		L.Push(lua.LFalse)
		return 1
	}
	L.Push(lua.LBool(ok))
	return 1
}

// input(prompt, default?) -> string
func (m *UIModule) input(L *lua.LState) int {
	prompt := L.CheckString(1)
	initial := L.OptString(2, "")

	text, err := m.bridge.Input(prompt, initial)
	if err != nil {
		L.Push(lua.LString(""))
		return 1
	}
	L.Push(lua.LString(text))
	return 1
}
