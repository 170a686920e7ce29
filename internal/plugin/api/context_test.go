package api

import (
	"errors"
	"os"
	"testing"
)

// fakePanes is a scriptable PaneProvider for tests.
type fakePanes struct {
	left, right string
	active      Pane
	selection   []string

	navigated []string
	refreshed []Pane
	navErr    error
}

func (f *fakePanes) Path(p Pane) string {
	if p == PaneLeft {
		return f.left
	}
	return f.right
}

func (f *fakePanes) Active() Pane { return f.active }

func (f *fakePanes) Selection() []string { return f.selection }

func (f *fakePanes) Navigate(p Pane, path string) error {
	if f.navErr != nil {
		return f.navErr
	}
	f.navigated = append(f.navigated, p.String()+":"+path)
	return nil
}

func (f *fakePanes) Refresh(p Pane) error {
	f.refreshed = append(f.refreshed, p)
	return nil
}

// fakeUI is a scriptable UIProvider for tests.
type fakeUI struct {
	messages []string
	confirm  bool
	input    string
}

func (f *fakeUI) Message(text string, level MessageLevel) error {
	f.messages = append(f.messages, string(level)+":"+text)
	return nil
}

func (f *fakeUI) Confirm(prompt string) (bool, error) { return f.confirm, nil }

func (f *fakeUI) Input(prompt, initial string) (string, error) { return f.input, nil }

func newTestContext(t *testing.T, cfg ContextConfig) *Context {
	t.Helper()
	ctx, err := NewContext(cfg)
	if err != nil {
		t.Fatalf("NewContext() error = %v", err)
	}
	return ctx
}

func TestBridgePaneState(t *testing.T) {
	panes := &fakePanes{left: "/a", right: "/b", active: PaneRight, selection: []string{"x", "y"}}
	ctx := newTestContext(t, ContextConfig{Panes: panes})
	b := ctx.Bridge("ext1")

	if got := b.PanePath(PaneLeft); got != "/a" {
		t.Errorf("PanePath(left) = %q, want /a", got)
	}
	if got := b.PanePath(PaneRight); got != "/b" {
		t.Errorf("PanePath(right) = %q, want /b", got)
	}
	if got := b.ActivePane(); got != PaneRight {
		t.Errorf("ActivePane() = %v, want right", got)
	}
	if got := b.ActivePath(); got != "/b" {
		t.Errorf("ActivePath() = %q, want /b", got)
	}
}

func TestBridgeSelectionIsSnapshot(t *testing.T) {
	panes := &fakePanes{selection: []string{"one", "two"}}
	ctx := newTestContext(t, ContextConfig{Panes: panes})
	b := ctx.Bridge("ext1")

	sel := b.Selection()
	sel[0] = "mutated"

	if panes.selection[0] != "one" {
		t.Error("mutating the returned selection affected the provider")
	}
}

func TestBridgeNavigateAndRefresh(t *testing.T) {
	panes := &fakePanes{active: PaneLeft}
	ctx := newTestContext(t, ContextConfig{Panes: panes})
	b := ctx.Bridge("ext1")

	if err := b.Navigate(PaneRight, "/dest"); err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}
	if err := b.NavigateActive("/home"); err != nil {
		t.Fatalf("NavigateActive() error = %v", err)
	}
	want := []string{"right:/dest", "left:/home"}
	if len(panes.navigated) != 2 || panes.navigated[0] != want[0] || panes.navigated[1] != want[1] {
		t.Errorf("navigated = %v, want %v", panes.navigated, want)
	}

	if err := b.RefreshAll(); err != nil {
		t.Fatalf("RefreshAll() error = %v", err)
	}
	if len(panes.refreshed) != 2 {
		t.Errorf("RefreshAll() refreshed %d panes, want 2", len(panes.refreshed))
	}
}

func TestBridgeNavigateError(t *testing.T) {
	panes := &fakePanes{navErr: errors.New("nope")}
	ctx := newTestContext(t, ContextConfig{Panes: panes})

	if err := ctx.Bridge("e").Navigate(PaneLeft, "/x"); err == nil {
		t.Error("Navigate() should surface provider error")
	}
}

func TestBridgeNoPaneProviderDefaults(t *testing.T) {
	ctx := newTestContext(t, ContextConfig{})
	b := ctx.Bridge("ext1")

	if got := b.PanePath(PaneLeft); got != "" {
		t.Errorf("PanePath without provider = %q, want empty", got)
	}
	if got := b.Selection(); got != nil {
		t.Errorf("Selection without provider = %v, want nil", got)
	}
	// Navigation without a provider is a safe no-op.
	if err := b.Navigate(PaneLeft, "/x"); err != nil {
		t.Errorf("Navigate without provider error = %v", err)
	}
	if err := b.RefreshAll(); err != nil {
		t.Errorf("RefreshAll without provider error = %v", err)
	}
}

func TestBridgeUIDefaults(t *testing.T) {
	ctx := newTestContext(t, ContextConfig{})
	b := ctx.Bridge("ext1")

	// Message falls back to the log.
	if err := b.Message("dropped", MessageInfo); err != nil {
		t.Errorf("Message without provider error = %v", err)
	}

	// Confirmation defaults to declined.
	ok, err := b.Confirm("sure?")
	if err != nil {
		t.Errorf("Confirm without provider error = %v", err)
	}
	if ok {
		t.Error("Confirm without provider = true, want false")
	}

	// Input defaults to empty.
	text, err := b.Input("name?", "seed")
	if err != nil {
		t.Errorf("Input without provider error = %v", err)
	}
	if text != "" {
		t.Errorf("Input without provider = %q, want empty", text)
	}
}

func TestBridgeUIWired(t *testing.T) {
	ui := &fakeUI{confirm: true, input: "typed"}
	ctx := newTestContext(t, ContextConfig{UI: ui})
	b := ctx.Bridge("ext1")

	if err := b.Message("hi", MessageWarning); err != nil {
		t.Fatalf("Message() error = %v", err)
	}
	if len(ui.messages) != 1 || ui.messages[0] != "warning:hi" {
		t.Errorf("messages = %v", ui.messages)
	}

	if ok, _ := b.Confirm("?"); !ok {
		t.Error("Confirm() = false, want true")
	}
	if text, _ := b.Input("?", ""); text != "typed" {
		t.Errorf("Input() = %q, want typed", text)
	}
}

func TestBridgeDataDirIdempotent(t *testing.T) {
	root := t.TempDir()
	ctx := newTestContext(t, ContextConfig{DataRoot: root})
	b := ctx.Bridge("my-ext")

	first, err := b.DataDir()
	if err != nil {
		t.Fatalf("DataDir() error = %v", err)
	}

	// The directory exists on disk after the first call.
	if st, err := os.Stat(first); err != nil || !st.IsDir() {
		t.Fatalf("DataDir() path %q missing on disk: %v", first, err)
	}

	second, err := b.DataDir()
	if err != nil {
		t.Fatalf("second DataDir() error = %v", err)
	}
	if first != second {
		t.Errorf("DataDir() paths differ: %q vs %q", first, second)
	}
}

func TestBridgeDataDirNoRoot(t *testing.T) {
	ctx := newTestContext(t, ContextConfig{})
	if _, err := ctx.Bridge("e").DataDir(); !errors.Is(err, ErrNoDataRoot) {
		t.Errorf("DataDir() error = %v, want ErrNoDataRoot", err)
	}
}
