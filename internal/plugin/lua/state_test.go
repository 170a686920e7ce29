package lua

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	s, err := NewState(t.TempDir())
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewState(t *testing.T) {
	s := newTestState(t)
	if s.LuaState() == nil {
		t.Fatal("LuaState() returned nil")
	}
	if s.IsClosed() {
		t.Error("new state should not be closed")
	}
}

func TestDoString(t *testing.T) {
	s := newTestState(t)
	if err := s.DoString(`x = 40 + 2`); err != nil {
		t.Fatalf("DoString() error = %v", err)
	}

	v := s.GetGlobal("x")
	if n, ok := v.(lua.LNumber); !ok || int(n) != 42 {
		t.Errorf("x = %v, want 42", v)
	}
}

func TestDoStringSyntaxError(t *testing.T) {
	s := newTestState(t)
	if err := s.DoString(`this is not lua`); err == nil {
		t.Error("DoString() with invalid code should return error")
	}
}

func TestDoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.lua")
	if err := os.WriteFile(path, []byte(`answer = 42`), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewState(dir)
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	defer s.Close()

	if err := s.DoFile(path); err != nil {
		t.Fatalf("DoFile() error = %v", err)
	}
	if n, ok := s.GetGlobal("answer").(lua.LNumber); !ok || int(n) != 42 {
		t.Errorf("answer = %v, want 42", s.GetGlobal("answer"))
	}
}

func TestCall(t *testing.T) {
	s := newTestState(t)
	if err := s.DoString(`function add(a, b) return a + b end`); err != nil {
		t.Fatal(err)
	}

	results, err := s.Call("add", lua.LNumber(2), lua.LNumber(3))
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Call() returned %d values, want 1", len(results))
	}
	if n, ok := results[0].(lua.LNumber); !ok || int(n) != 5 {
		t.Errorf("add(2, 3) = %v, want 5", results[0])
	}
}

func TestCallMissingFunction(t *testing.T) {
	s := newTestState(t)
	if _, err := s.Call("nothere"); err == nil {
		t.Error("Call() on missing function should return error")
	}
}

func TestCallNotAFunction(t *testing.T) {
	s := newTestState(t)
	if err := s.DoString(`thing = 7`); err != nil {
		t.Fatal(err)
	}
	_, err := s.Call("thing")
	if !errors.Is(err, ErrNotFunction) {
		t.Errorf("Call() error = %v, want ErrNotFunction", err)
	}
}

func TestCallRuntimeErrorContained(t *testing.T) {
	s := newTestState(t)
	if err := s.DoString(`function boom() error("kaput") end`); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Call("boom"); err == nil {
		t.Error("Call() on erroring function should return error, not propagate")
	}

	// State stays usable after a contained error.
	if err := s.DoString(`y = 1`); err != nil {
		t.Errorf("state unusable after contained error: %v", err)
	}
}

func TestCallNoReturnValues(t *testing.T) {
	s := newTestState(t)
	if err := s.DoString(`function noop() end`); err != nil {
		t.Fatal(err)
	}
	results, err := s.Call("noop")
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if results == nil {
		t.Error("Call() should return empty slice, not nil")
	}
	if len(results) != 0 {
		t.Errorf("Call() returned %d values, want 0", len(results))
	}
}

func TestHasFunction(t *testing.T) {
	s := newTestState(t)
	if err := s.DoString(`function here() end; notfn = 3`); err != nil {
		t.Fatal(err)
	}

	if !s.HasFunction("here") {
		t.Error("HasFunction(here) = false, want true")
	}
	if s.HasFunction("gone") {
		t.Error("HasFunction(gone) = true, want false")
	}
	if s.HasFunction("notfn") {
		t.Error("HasFunction(notfn) = true, want false")
	}
}

func TestClose(t *testing.T) {
	s := newTestState(t)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !s.IsClosed() {
		t.Error("IsClosed() = false after Close")
	}

	if err := s.DoString(`x = 1`); !errors.Is(err, ErrStateClosed) {
		t.Errorf("DoString() after Close error = %v, want ErrStateClosed", err)
	}
	if _, err := s.Call("x"); !errors.Is(err, ErrStateClosed) {
		t.Errorf("Call() after Close error = %v, want ErrStateClosed", err)
	}

	// Close is idempotent.
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestPreloadModule(t *testing.T) {
	s := newTestState(t)
	s.PreloadModule("hostmod", func(L *lua.LState) int {
		mod := L.NewTable()
		L.SetField(mod, "value", lua.LNumber(9))
		L.Push(mod)
		return 1
	})

	if err := s.DoString(`local m = require("hostmod"); got = m.value`); err != nil {
		t.Fatalf("require preloaded module: %v", err)
	}
	if n, ok := s.GetGlobal("got").(lua.LNumber); !ok || int(n) != 9 {
		t.Errorf("got = %v, want 9", s.GetGlobal("got"))
	}
}
