package api

import (
	"testing"

	plua "github.com/twinpane/twinpane/internal/plugin/lua"
)

// newInjectedState builds a sandboxed state with the full bridge module
// set injected, ready to run extension script fragments.
func newInjectedState(t *testing.T, ctx *Context, id string) (*plua.State, *Bridge) {
	t.Helper()

	st, err := plua.NewState(t.TempDir())
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	b := ctx.Bridge(id)
	reg, err := DefaultRegistry(b, st)
	if err != nil {
		t.Fatalf("DefaultRegistry() error = %v", err)
	}
	if err := reg.InjectAll(st); err != nil {
		t.Fatalf("InjectAll() error = %v", err)
	}
	return st, b
}

func TestLuaNavModule(t *testing.T) {
	panes := &fakePanes{left: "/left", right: "/right", active: PaneLeft, selection: []string{"a.txt", "b.txt"}}
	ctx := newTestContext(t, ContextConfig{Panes: panes})
	st, _ := newInjectedState(t, ctx, "ext1")

	err := st.DoString(`
		local tp = require("tp")
		result_path = tp.nav.path(tp.nav.RIGHT)
		result_active = tp.nav.active()
		local sel = tp.nav.selection()
		result_count = #sel
		result_first = sel[1]
		tp.nav.go(tp.nav.LEFT, "/elsewhere")
		tp.nav.refresh("both")
	`)
	if err != nil {
		t.Fatalf("DoString() error = %v", err)
	}

	if got := st.GetGlobal("result_path").String(); got != "/right" {
		t.Errorf("nav.path = %q, want /right", got)
	}
	if got := st.GetGlobal("result_active").String(); got != "left" {
		t.Errorf("nav.active = %q, want left", got)
	}
	if got := st.GetGlobal("result_count").String(); got != "2" {
		t.Errorf("selection count = %q, want 2", got)
	}
	if got := st.GetGlobal("result_first").String(); got != "a.txt" {
		t.Errorf("selection[1] = %q, want a.txt", got)
	}
	if len(panes.navigated) != 1 || panes.navigated[0] != "left:/elsewhere" {
		t.Errorf("navigated = %v", panes.navigated)
	}
	if len(panes.refreshed) != 2 {
		t.Errorf("refresh(\"both\") touched %d panes, want 2", len(panes.refreshed))
	}
}

func TestLuaUIModule(t *testing.T) {
	ui := &fakeUI{confirm: true, input: "reply"}
	ctx := newTestContext(t, ContextConfig{UI: ui})
	st, _ := newInjectedState(t, ctx, "ext1")

	err := st.DoString(`
		local tp = require("tp")
		tp.ui.message("hello", tp.ui.WARNING)
		result_ok = tp.ui.confirm("proceed?")
		result_text = tp.ui.input("name?", "seed")
	`)
	if err != nil {
		t.Fatalf("DoString() error = %v", err)
	}

	if len(ui.messages) != 1 || ui.messages[0] != "warning:hello" {
		t.Errorf("messages = %v", ui.messages)
	}
	if got := st.GetGlobal("result_ok").String(); got != "true" {
		t.Errorf("confirm = %q, want true", got)
	}
	if got := st.GetGlobal("result_text").String(); got != "reply" {
		t.Errorf("input = %q, want reply", got)
	}
}

func TestLuaStoreModule(t *testing.T) {
	ctx := newTestContext(t, ContextConfig{})
	st, _ := newInjectedState(t, ctx, "ext1")

	err := st.DoString(`
		local tp = require("tp")
		tp.store.set("count", 7)
		tp.store.set("name", "twin")
		result_count = tp.store.get("count")
		result_name = tp.store.get("name")
		result_missing = tp.store.get("absent")
		tp.store.del("name")
		result_after_del = tp.store.get("name")
		local keys = tp.store.keys()
		result_nkeys = #keys
	`)
	if err != nil {
		t.Fatalf("DoString() error = %v", err)
	}

	if got := st.GetGlobal("result_count").String(); got != "7" {
		t.Errorf("store.get(count) = %q, want 7", got)
	}
	if got := st.GetGlobal("result_name").String(); got != "twin" {
		t.Errorf("store.get(name) = %q, want twin", got)
	}
	if got := st.GetGlobal("result_missing").String(); got != "nil" {
		t.Errorf("store.get(absent) = %q, want nil", got)
	}
	if got := st.GetGlobal("result_after_del").String(); got != "nil" {
		t.Errorf("store.get after del = %q, want nil", got)
	}
	if got := st.GetGlobal("result_nkeys").String(); got != "1" {
		t.Errorf("keys count = %q, want 1", got)
	}

	// The value landed in the extension's own scope of the shared store.
	if v, ok := ctx.Store().Get("ext1", "count"); !ok || v != int64(7) {
		t.Errorf("host-side store value = %v (ok=%v)", v, ok)
	}
}

func TestLuaMenuModule(t *testing.T) {
	ctx := newTestContext(t, ContextConfig{})
	st, _ := newInjectedState(t, ctx, "ext1")

	err := st.DoString(`
		local tp = require("tp")
		tp.menu.add({ id = "compress", title = "Compress", command = "do-compress" })
		tp.menu.add({ id = "hidden", command = "c", when = function() return false end })
	`)
	if err != nil {
		t.Fatalf("DoString() error = %v", err)
	}

	items := ctx.Menus().Items()
	if len(items) != 2 {
		t.Fatalf("Items() len = %d, want 2", len(items))
	}
	if items[0].Extension != "ext1" || items[0].Title != "Compress" {
		t.Errorf("item[0] = %+v", items[0])
	}

	vis := ctx.Menus().Visible(ctx)
	if len(vis) != 1 || vis[0].ID != "compress" {
		t.Errorf("Visible() = %+v, want only compress", vis)
	}
}

func TestLuaKeymapAndExtModules(t *testing.T) {
	root := t.TempDir()
	ctx := newTestContext(t, ContextConfig{DataRoot: root})
	st, b := newInjectedState(t, ctx, "my-ext")

	err := st.DoString(`
		local tp = require("tp")
		tp.keymap.set("k", {"ctrl", "shift"}, "do-thing")
		result_id = tp.ext.id()
		result_dir = tp.ext.datadir()
	`)
	if err != nil {
		t.Fatalf("DoString() error = %v", err)
	}

	sc, ok := ctx.Shortcuts().Lookup("k", ModCtrl|ModShift)
	if !ok {
		t.Fatal("shortcut not registered")
	}
	if sc.Extension != "my-ext" || sc.Command != "do-thing" {
		t.Errorf("shortcut = %+v", sc)
	}

	if got := st.GetGlobal("result_id").String(); got != "my-ext" {
		t.Errorf("ext.id = %q, want my-ext", got)
	}
	wantDir, err := b.DataDir()
	if err != nil {
		t.Fatal(err)
	}
	if got := st.GetGlobal("result_dir").String(); got != wantDir {
		t.Errorf("ext.datadir = %q, want %q", got, wantDir)
	}
}

func TestLuaLogModule(t *testing.T) {
	ctx := newTestContext(t, ContextConfig{})
	st, _ := newInjectedState(t, ctx, "ext1")

	err := st.DoString(`
		local tp = require("tp")
		tp.log.debug("d")
		tp.log.info("i")
		tp.log.warn("w")
		tp.log.error("e")
	`)
	if err != nil {
		t.Fatalf("DoString() error = %v", err)
	}
}
