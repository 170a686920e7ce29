package lua

import (
	"os"
	"path/filepath"
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func TestSandboxRemovesDangerousGlobals(t *testing.T) {
	s := newTestState(t)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		if v := s.GetGlobal(name); v != lua.LNil {
			t.Errorf("global %q should be removed, got %v", name, v)
		}
	}
}

func TestSandboxNoOSOrIO(t *testing.T) {
	s := newTestState(t)

	if err := s.DoString(`return os.execute("true")`); err == nil {
		t.Error("os should not be available")
	}
	if err := s.DoString(`return io.open("/etc/passwd")`); err == nil {
		t.Error("io should not be available")
	}
}

func TestRequireBuiltins(t *testing.T) {
	s := newTestState(t)
	if err := s.DoString(`local str = require("string"); ok = str.upper("a")`); err != nil {
		t.Fatalf("require(string) error = %v", err)
	}
	if v, _ := s.GetGlobal("ok").(lua.LString); string(v) != "A" {
		t.Errorf("string.upper = %v, want A", s.GetGlobal("ok"))
	}
}

func TestRequireUnknownModuleRejected(t *testing.T) {
	s := newTestState(t)
	if err := s.DoString(`require("socket")`); err == nil {
		t.Error("require of unknown module should fail")
	}
}

func TestRequireResolvesFromOwnRoot(t *testing.T) {
	dir := t.TempDir()
	lib := `return { greeting = "from own dir" }`
	if err := os.WriteFile(filepath.Join(dir, "helper.lua"), []byte(lib), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewState(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.DoString(`local h = require("helper"); msg = h.greeting`); err != nil {
		t.Fatalf("require(helper) error = %v", err)
	}
	if v, _ := s.GetGlobal("msg").(lua.LString); string(v) != "from own dir" {
		t.Errorf("msg = %v, want %q", s.GetGlobal("msg"), "from own dir")
	}
}

func TestRequireNestedModule(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "lib"), 0o755); err != nil {
		t.Fatal(err)
	}
	mod := `return { n = 3 }`
	if err := os.WriteFile(filepath.Join(dir, "lib", "init.lua"), []byte(mod), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewState(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.DoString(`local l = require("lib"); n = l.n`); err != nil {
		t.Fatalf("require(lib) error = %v", err)
	}
	if v, _ := s.GetGlobal("n").(lua.LNumber); int(v) != 3 {
		t.Errorf("n = %v, want 3", s.GetGlobal("n"))
	}
}

func TestRequireCachesModules(t *testing.T) {
	dir := t.TempDir()
	lib := `count = (count or 0) + 1; return { n = count }`
	if err := os.WriteFile(filepath.Join(dir, "once.lua"), []byte(lib), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewState(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.DoString(`require("once"); require("once")`); err != nil {
		t.Fatalf("require twice error = %v", err)
	}
	if v, _ := s.GetGlobal("count").(lua.LNumber); int(v) != 1 {
		t.Errorf("module executed %v times, want 1", s.GetGlobal("count"))
	}
}

func TestRequireCannotEscapeRoot(t *testing.T) {
	parent := t.TempDir()
	secret := `leaked = true`
	if err := os.WriteFile(filepath.Join(parent, "secret.lua"), []byte(secret), 0o644); err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(parent, "ext")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	s, err := NewState(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.DoString(`require("..secret")`); err == nil {
		t.Error("require should not resolve files outside the extension root")
	}
}

func TestTwoStatesIsolated(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()

	// Same module name, conflicting contents.
	if err := os.WriteFile(filepath.Join(dirA, "ver.lua"), []byte(`return "1.0"`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dirB, "ver.lua"), []byte(`return "2.0"`), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := NewState(dirA)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := NewState(dirB)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if err := a.DoString(`v = require("ver")`); err != nil {
		t.Fatal(err)
	}
	if err := b.DoString(`v = require("ver")`); err != nil {
		t.Fatal(err)
	}

	if v, _ := a.GetGlobal("v").(lua.LString); string(v) != "1.0" {
		t.Errorf("state A saw %v, want 1.0", a.GetGlobal("v"))
	}
	if v, _ := b.GetGlobal("v").(lua.LString); string(v) != "2.0" {
		t.Errorf("state B saw %v, want 2.0", b.GetGlobal("v"))
	}

	// Globals do not bleed between states.
	a.SetGlobal("only_a", lua.LTrue)
	if v := b.GetGlobal("only_a"); v != lua.LNil {
		t.Errorf("state B sees state A's global: %v", v)
	}
}

func TestEmptyRootRejectsFileRequire(t *testing.T) {
	s, err := NewState("")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.DoString(`require("helper")`); err == nil {
		t.Error("rootless state should reject file requires")
	}

	// Builtins and host-preloaded modules stay available.
	if err := s.DoString(`local t = require("table")`); err != nil {
		t.Errorf("require(table) error = %v", err)
	}
	s.PreloadModule("hostmod", func(L *lua.LState) int {
		L.Push(lua.LTrue)
		return 1
	})
	if err := s.DoString(`ok = require("hostmod")`); err != nil {
		t.Errorf("require(hostmod) error = %v", err)
	}
}
