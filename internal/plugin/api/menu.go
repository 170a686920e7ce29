package api

import (
	"strings"
	"sync"
)

// MenuItem is a menu entry contributed by an extension. When is an
// optional predicate evaluated against bridge state at menu-build time;
// a nil predicate means always shown.
type MenuItem struct {
	// Extension is the owning extension id. Set by the bridge.
	Extension string

	// ID identifies the item within the owning extension.
	ID string

	// Title is the display label.
	Title string

	// Command is the command id invoked when the item is chosen.
	Command string

	// When, if non-nil, gates visibility at menu-build time.
	When func(b *Bridge) bool
}

// MenuRegistry holds menu items for the process lifetime. Registration
// is append-only; skipping items whose owning extension is disabled is
// the host menu builder's responsibility.
type MenuRegistry struct {
	mu    sync.RWMutex
	items []MenuItem
}

// NewMenuRegistry creates an empty menu registry.
func NewMenuRegistry() *MenuRegistry {
	return &MenuRegistry{}
}

// Add appends a menu item.
func (r *MenuRegistry) Add(item MenuItem) error {
	if item.ID == "" {
		return ErrMissingMenuID
	}
	if item.Command == "" {
		return ErrMissingCommand
	}
	if item.Title == "" {
		item.Title = item.ID
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, item)
	return nil
}

// Items returns a snapshot of all registered items in registration order.
func (r *MenuRegistry) Items() []MenuItem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]MenuItem(nil), r.items...)
}

// ForExtension returns the items owned by one extension.
func (r *MenuRegistry) ForExtension(id string) []MenuItem {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []MenuItem
	for _, item := range r.items {
		if item.Extension == id {
			out = append(out, item)
		}
	}
	return out
}

// Visible evaluates each item's predicate against a bridge for its
// owning extension and returns the items that should be shown now.
func (r *MenuRegistry) Visible(ctx *Context) []MenuItem {
	items := r.Items()

	out := make([]MenuItem, 0, len(items))
	for _, item := range items {
		if item.When != nil && !item.When(ctx.Bridge(item.Extension)) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Modifier is a keyboard modifier bitmask.
type Modifier uint8

// Keyboard modifiers.
const (
	ModCtrl Modifier = 1 << iota
	ModAlt
	ModShift
)

// String returns a "ctrl+alt+shift" style representation.
func (m Modifier) String() string {
	var parts []string
	if m&ModCtrl != 0 {
		parts = append(parts, "ctrl")
	}
	if m&ModAlt != 0 {
		parts = append(parts, "alt")
	}
	if m&ModShift != 0 {
		parts = append(parts, "shift")
	}
	return strings.Join(parts, "+")
}

// ParseModifiers builds a Modifier mask from names like "ctrl", "alt",
// "shift". Unknown names are ignored.
func ParseModifiers(names []string) Modifier {
	var m Modifier
	for _, n := range names {
		switch strings.ToLower(n) {
		case "ctrl", "control":
			m |= ModCtrl
		case "alt", "meta":
			m |= ModAlt
		case "shift":
			m |= ModShift
		}
	}
	return m
}

// Shortcut maps a key plus modifiers to a command id.
type Shortcut struct {
	// Extension is the owning extension id. Set by the bridge.
	Extension string

	// Key is the base key name (e.g. "f5", "d").
	Key string

	// Modifiers is the required modifier combination.
	Modifiers Modifier

	// Command is the command id to invoke.
	Command string
}

// ShortcutRegistry holds keyboard shortcuts for the process lifetime.
// Registration is append-only.
type ShortcutRegistry struct {
	mu    sync.RWMutex
	items []Shortcut
}

// NewShortcutRegistry creates an empty shortcut registry.
func NewShortcutRegistry() *ShortcutRegistry {
	return &ShortcutRegistry{}
}

// Add appends a shortcut.
func (r *ShortcutRegistry) Add(sc Shortcut) error {
	if sc.Key == "" {
		return ErrMissingKey
	}
	if sc.Command == "" {
		return ErrMissingCommand
	}
	sc.Key = strings.ToLower(sc.Key)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, sc)
	return nil
}

// Items returns a snapshot of all shortcuts in registration order.
func (r *ShortcutRegistry) Items() []Shortcut {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Shortcut(nil), r.items...)
}

// Lookup returns the first shortcut matching key and modifiers.
func (r *ShortcutRegistry) Lookup(key string, mods Modifier) (Shortcut, bool) {
	key = strings.ToLower(key)

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, sc := range r.items {
		if sc.Key == key && sc.Modifiers == mods {
			return sc, true
		}
	}
	return Shortcut{}, false
}
