package plugin

import "errors"

// Extension runtime errors.
var (
	// ErrExtensionNotFound is returned when an extension cannot be located.
	ErrExtensionNotFound = errors.New("extension not found")

	// ErrNoEntryPoint is returned when a package has no runnable entry point.
	ErrNoEntryPoint = errors.New("extension has no entry point (init.lua or main script)")

	// ErrNilManifest is returned when a nil manifest is provided.
	ErrNilManifest = errors.New("manifest is nil")

	// ErrAlreadyLoaded is returned when loading an already loaded extension.
	ErrAlreadyLoaded = errors.New("extension is already loaded")

	// ErrNotLoaded is returned when using an extension that is not loaded.
	ErrNotLoaded = errors.New("extension is not loaded")

	// ErrUnloaded is returned when operating on an unloaded record.
	// Unload is terminal; the record must be rediscovered.
	ErrUnloaded = errors.New("extension record is unloaded")
)
