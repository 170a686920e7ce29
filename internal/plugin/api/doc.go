// Package api implements the Context Bridge: the single mediated object
// through which an extension observes and affects host state.
//
// The host constructs one Context at startup, wiring in its pane state
// (PaneProvider) and its prompt delegates (UIProvider). Both are
// optional; an unwired delegate degrades to a safe default: messages
// are dropped to the log, confirmations decline, text input is empty.
//
// Each extension receives a Bridge, the per-extension scoped view of the
// Context. Through it an extension can:
//
//   - read the current path of either pane and of the active pane
//   - take a snapshot of the active pane's multi-selection
//   - request navigation and refresh of either or both panes
//   - show messages and ask for confirmation or text input
//   - log through a leveled sink tagged with its id
//   - read and write small typed configuration values scoped to its id
//   - register menu items (with an optional visibility predicate
//     evaluated at menu-build time) and keyboard shortcuts
//   - obtain a private data directory, created on first request
//
// Menu and shortcut registration is additive only. Items owned by an
// extension that has since been disabled stay registered; the host's
// menu builder is responsible for skipping them.
//
// For Lua extensions the same surface is exposed as the tp module:
//
//	local tp = require("tp")
//
//	tp.nav.go("left", "/tmp")
//	tp.ui.message("hello", tp.ui.INFO)
//	tp.log.info("ready")
//	tp.store.set("count", 1)
//	tp.menu.add({ id = "up", title = "Go Up", command = "nav.up" })
//	tp.keymap.set("u", {"ctrl"}, "nav.up")
//	local dir = tp.ext.datadir()
//
// The tp module is injected into an extension's state immediately before
// its initialization entry point runs; top-level script code therefore
// cannot use it and should only declare tables and functions.
package api
