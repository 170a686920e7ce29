package api

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Pane identifies one of the host's two file panes.
type Pane int

const (
	// PaneLeft is the left file pane.
	PaneLeft Pane = iota
	// PaneRight is the right file pane.
	PaneRight
)

// String returns a string representation of the pane.
func (p Pane) String() string {
	switch p {
	case PaneLeft:
		return "left"
	case PaneRight:
		return "right"
	default:
		return "unknown"
	}
}

// MessageLevel is the severity of a user-facing message.
type MessageLevel string

const (
	// MessageInfo is an informational message.
	MessageInfo MessageLevel = "info"
	// MessageWarning is a warning message.
	MessageWarning MessageLevel = "warning"
	// MessageError is an error message.
	MessageError MessageLevel = "error"
)

// PaneProvider exposes the host's pane state to the bridge.
type PaneProvider interface {
	// Path returns the current directory of a pane.
	Path(p Pane) string

	// Active returns the pane that currently has focus.
	Active() Pane

	// Selection returns the multi-selection of the active pane.
	// The result is a snapshot; mutating it has no effect on the host.
	Selection() []string

	// Navigate requests that a pane change to the given path.
	Navigate(p Pane, path string) error

	// Refresh requests that a pane re-read its directory.
	Refresh(p Pane) error
}

// UIProvider exposes host-mediated user prompts to the bridge.
// Every method is optional at the host level; an unwired provider is
// replaced by safe defaults (message logged, confirmation declined,
// input empty).
type UIProvider interface {
	// Message shows a transient message to the user.
	Message(text string, level MessageLevel) error

	// Confirm asks a yes/no question. Returns false on decline or cancel.
	Confirm(prompt string) (bool, error)

	// Input asks for a line of text. Returns "" on cancel.
	Input(prompt, initial string) (string, error)
}

// ContextConfig configures a Context.
type ContextConfig struct {
	// Panes provides pane state. Optional; absent means empty paths and
	// no-op navigation.
	Panes PaneProvider

	// UI provides user prompts. Optional; absent yields safe defaults.
	UI UIProvider

	// Log is the host logger. Defaults to a discarding logger.
	Log *slog.Logger

	// DataRoot is the directory under which per-extension private
	// directories are created.
	DataRoot string

	// StorePath, when set, backs the configuration store with a JSON
	// file that is loaded at construction.
	StorePath string
}

// Context is the host side of the Context Bridge: the providers wired in
// at startup plus the process-lifetime registration state. One Context
// serves all extensions; each extension receives a Bridge scoped to its
// own id.
type Context struct {
	panes PaneProvider
	ui    UIProvider
	log   *slog.Logger

	store     *Store
	menus     *MenuRegistry
	shortcuts *ShortcutRegistry

	dataRoot string
}

// NewContext creates a Context from the configuration.
func NewContext(cfg ContextConfig) (*Context, error) {
	log := cfg.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	store := NewStore(cfg.StorePath)
	if cfg.StorePath != "" {
		if err := store.Load(); err != nil {
			return nil, fmt.Errorf("load store: %w", err)
		}
	}

	return &Context{
		panes:     cfg.Panes,
		ui:        cfg.UI,
		log:       log,
		store:     store,
		menus:     NewMenuRegistry(),
		shortcuts: NewShortcutRegistry(),
		dataRoot:  cfg.DataRoot,
	}, nil
}

// Store returns the process-wide configuration store.
func (c *Context) Store() *Store {
	return c.store
}

// Menus returns the menu item registry.
func (c *Context) Menus() *MenuRegistry {
	return c.menus
}

// Shortcuts returns the keyboard shortcut registry.
func (c *Context) Shortcuts() *ShortcutRegistry {
	return c.shortcuts
}

// Bridge returns the mediated view of this context for one extension.
func (c *Context) Bridge(extensionID string) *Bridge {
	return &Bridge{
		ctx: c,
		id:  extensionID,
		log: c.log.With("extension", extensionID),
	}
}

// Bridge is the single object handed to an extension at initialization.
// All host observation and mutation flows through it; everything is
// scoped to the owning extension's id.
type Bridge struct {
	ctx *Context
	id  string
	log *slog.Logger
}

// ExtensionID returns the id of the extension this bridge serves.
func (b *Bridge) ExtensionID() string {
	return b.id
}

// PanePath returns the current directory of a pane, or "" when the host
// has not wired a pane provider.
func (b *Bridge) PanePath(p Pane) string {
	if b.ctx.panes == nil {
		return ""
	}
	return b.ctx.panes.Path(p)
}

// ActivePane returns the focused pane. Defaults to PaneLeft when no
// provider is wired.
func (b *Bridge) ActivePane() Pane {
	if b.ctx.panes == nil {
		return PaneLeft
	}
	return b.ctx.panes.Active()
}

// ActivePath returns the current directory of the focused pane.
func (b *Bridge) ActivePath() string {
	return b.PanePath(b.ActivePane())
}

// Selection returns a snapshot of the active pane's multi-selection.
func (b *Bridge) Selection() []string {
	if b.ctx.panes == nil {
		return nil
	}
	sel := b.ctx.panes.Selection()
	out := make([]string, len(sel))
	copy(out, sel)
	return out
}

// Navigate requests navigation of a pane. A missing provider is a
// logged no-op.
func (b *Bridge) Navigate(p Pane, path string) error {
	if b.ctx.panes == nil {
		b.log.Debug("navigate dropped, no pane provider", "pane", p, "path", path)
		return nil
	}
	return b.ctx.panes.Navigate(p, path)
}

// NavigateActive requests navigation of the focused pane.
func (b *Bridge) NavigateActive(path string) error {
	return b.Navigate(b.ActivePane(), path)
}

// Refresh requests a re-read of one pane.
func (b *Bridge) Refresh(p Pane) error {
	if b.ctx.panes == nil {
		return nil
	}
	return b.ctx.panes.Refresh(p)
}

// RefreshAll requests a re-read of both panes.
func (b *Bridge) RefreshAll() error {
	if b.ctx.panes == nil {
		return nil
	}
	if err := b.ctx.panes.Refresh(PaneLeft); err != nil {
		return err
	}
	return b.ctx.panes.Refresh(PaneRight)
}

// Message shows a user-facing message. Without a UI provider the
// message is dropped to the log.
func (b *Bridge) Message(text string, level MessageLevel) error {
	if b.ctx.ui == nil {
		switch level {
		case MessageError:
			b.log.Error(text)
		case MessageWarning:
			b.log.Warn(text)
		default:
			b.log.Info(text)
		}
		return nil
	}
	return b.ctx.ui.Message(text, level)
}

// Confirm asks a yes/no question. Without a UI provider the answer
// defaults to declined.
func (b *Bridge) Confirm(prompt string) (bool, error) {
	if b.ctx.ui == nil {
		return false, nil
	}
	return b.ctx.ui.Confirm(prompt)
}

// Input asks for a line of text. Without a UI provider the answer
// defaults to empty.
func (b *Bridge) Input(prompt, initial string) (string, error) {
	if b.ctx.ui == nil {
		return "", nil
	}
	return b.ctx.ui.Input(prompt, initial)
}

// Logger returns the leveled log sink, tagged with the extension id.
func (b *Bridge) Logger() *slog.Logger {
	return b.log
}

// Get retrieves a stored configuration value for this extension.
func (b *Bridge) Get(key string) (any, bool) {
	return b.ctx.store.Get(b.id, key)
}

// GetString retrieves a stored string value.
func (b *Bridge) GetString(key string) (string, bool) {
	v, ok := b.ctx.store.Get(b.id, key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetInt retrieves a stored integer value.
func (b *Bridge) GetInt(key string) (int64, bool) {
	v, ok := b.ctx.store.Get(b.id, key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

// GetBool retrieves a stored boolean value.
func (b *Bridge) GetBool(key string) (bool, bool) {
	v, ok := b.ctx.store.Get(b.id, key)
	if !ok {
		return false, false
	}
	bv, ok := v.(bool)
	return bv, ok
}

// Set stores a configuration value scoped to this extension.
func (b *Bridge) Set(key string, value any) error {
	return b.ctx.store.Set(b.id, key, value)
}

// Keys lists this extension's stored configuration keys.
func (b *Bridge) Keys() []string {
	return b.ctx.store.Keys(b.id)
}

// AddMenuItem registers a menu item owned by this extension.
// Registrations are additive; there is no unregister.
func (b *Bridge) AddMenuItem(item MenuItem) error {
	item.Extension = b.id
	return b.ctx.menus.Add(item)
}

// AddShortcut registers a keyboard shortcut owned by this extension.
// Registrations are additive; there is no unregister.
func (b *Bridge) AddShortcut(sc Shortcut) error {
	sc.Extension = b.id
	return b.ctx.shortcuts.Add(sc)
}

// DataDir returns this extension's private data directory, creating it
// on first request. Repeated calls return the same path.
func (b *Bridge) DataDir() (string, error) {
	if b.ctx.dataRoot == "" {
		return "", ErrNoDataRoot
	}
	dir := filepath.Join(b.ctx.dataRoot, b.id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return dir, nil
}
