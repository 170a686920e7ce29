package api

import "errors"

// Bridge errors.
var (
	// ErrNoDataRoot is returned when no data root was configured.
	ErrNoDataRoot = errors.New("no data root configured")

	// ErrMissingMenuID is returned for a menu item without an id.
	ErrMissingMenuID = errors.New("menu item id is required")

	// ErrMissingCommand is returned for a registration without a command id.
	ErrMissingCommand = errors.New("command id is required")

	// ErrMissingKey is returned for a shortcut without a key.
	ErrMissingKey = errors.New("shortcut key is required")
)
