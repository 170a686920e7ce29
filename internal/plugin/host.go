package plugin

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/twinpane/twinpane/internal/plugin/api"
	"github.com/twinpane/twinpane/internal/plugin/capability"
	plua "github.com/twinpane/twinpane/internal/plugin/lua"
)

// Host is one loaded extension record: the descriptor, the isolation
// boundary, the live instance, and the lifecycle bookkeeping. All
// state transitions are atomic with respect to concurrent readers.
type Host struct {
	mu sync.RWMutex

	desc     *Descriptor
	manifest *Manifest

	// Discovery id of the candidate this record came from; immutable
	// after construction. May differ from the descriptor id when a
	// manifest-less script self-reports one.
	sourceID string

	// Isolation boundary and the instance constructed inside it
	boundary *plua.State
	ext      capability.Extension

	recState State
	fault    error

	// Initialization is called at most once per load
	initAttempted bool
	initialized   bool

	instructionLimit int64
	log              *slog.Logger
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithHostInstructionLimit bounds script execution per call.
func WithHostInstructionLimit(limit int64) HostOption {
	return func(h *Host) {
		h.instructionLimit = limit
	}
}

// WithHostLogger sets the host logger.
func WithHostLogger(log *slog.Logger) HostOption {
	return func(h *Host) {
		h.log = log
	}
}

// NewHost creates a record for the manifest. No extension code runs.
func NewHost(manifest *Manifest, opts ...HostOption) (*Host, error) {
	if manifest == nil {
		return nil, ErrNilManifest
	}

	h := &Host{
		desc:     DescriptorFromManifest(manifest),
		manifest: manifest,
		sourceID: manifest.ID,
		recState: StateDiscovered,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// ID returns the extension id.
func (h *Host) ID() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.desc.ID
}

// Descriptor returns the extension's identity record.
func (h *Host) Descriptor() *Descriptor {
	h.mu.RLock()
	defer h.mu.RUnlock()
	d := *h.desc
	d.Capabilities = append([]string(nil), h.desc.Capabilities...)
	return &d
}

// Manifest returns the extension manifest.
func (h *Host) Manifest() *Manifest {
	return h.manifest
}

// State returns the current lifecycle state.
func (h *Host) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.recState
}

// Fault returns the captured fault, if any.
func (h *Host) Fault() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.fault
}

// Extension returns the live instance, or nil before Load.
func (h *Host) Extension() capability.Extension {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ext
}

// Load creates the isolation boundary and constructs the instance by
// running the main script's top level. No lifecycle entry point runs.
func (h *Host) Load(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.recState {
	case StateUnloaded:
		return ErrUnloaded
	case StateDiscovered:
		// proceed
	default:
		return fmt.Errorf("extension %s: %w", h.desc.ID, ErrAlreadyLoaded)
	}

	var opts []plua.StateOption
	if h.instructionLimit > 0 {
		opts = append(opts, plua.WithInstructionLimit(h.instructionLimit))
	}

	// A loose file shares its directory with sibling extensions, so it
	// gets no require root at all.
	root := h.desc.Path
	if h.desc.LooseFile {
		root = ""
	}
	st, err := plua.NewState(root, opts...)
	if err != nil {
		return h.failLocked(fmt.Errorf("extension %s: boundary: %w", h.desc.ID, err))
	}

	err = guarded(h.log, h.desc.ID, "load", func() error {
		return st.DoFile(h.manifest.MainPath())
	})
	if err != nil {
		st.Close()
		return h.failLocked(err)
	}

	h.boundary = st
	h.ext = newLuaExtension(h.desc, st)
	h.recState = StateLoaded
	h.fault = nil
	return nil
}

// Init runs the initialization entry point with the context bridge.
// Called at most once per load; on fault the record ends disabled with
// the fault captured.
func (h *Host) Init(ctx context.Context, b *api.Bridge) error {
	h.mu.Lock()

	switch h.recState {
	case StateUnloaded:
		h.mu.Unlock()
		return ErrUnloaded
	case StateDiscovered:
		h.mu.Unlock()
		return fmt.Errorf("extension %s: %w", h.desc.ID, ErrNotLoaded)
	case StateLoaded:
		// proceed
	default:
		state := h.recState
		h.mu.Unlock()
		return fmt.Errorf("extension %s: cannot initialize from state %s", h.desc.ID, state)
	}
	if h.initAttempted {
		h.mu.Unlock()
		return fmt.Errorf("extension %s: already initialized this load", h.desc.ID)
	}

	h.recState = StateInitializing
	h.initAttempted = true
	ext := h.ext
	h.mu.Unlock()

	err := guarded(h.log, h.desc.ID, "init", func() error {
		return ext.Init(b)
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		if h.recState == StateInitializing {
			h.recState = StateFailed
		}
		h.fault = err
		return err
	}
	h.initialized = true
	// A concurrent Disable or Unload may have moved the record on
	// while the entry point ran; only an undisturbed record becomes
	// enabled.
	if h.recState == StateInitializing {
		h.recState = StateEnabled
		h.fault = nil
	}
	return nil
}

// Enable transitions the record to enabled. If initialization never
// succeeded for this load it is re-attempted first; otherwise the
// record is re-marked enabled without re-running initialization.
func (h *Host) Enable(ctx context.Context, b *api.Bridge) error {
	h.mu.Lock()
	switch h.recState {
	case StateUnloaded:
		h.mu.Unlock()
		return ErrUnloaded
	case StateEnabled:
		h.mu.Unlock()
		return nil
	}

	if h.initialized {
		h.recState = StateEnabled
		h.mu.Unlock()
		return nil
	}

	// Never successfully initialized: allow one fresh attempt.
	h.initAttempted = false
	h.recState = StateLoaded
	h.mu.Unlock()

	return h.Init(ctx, b)
}

// Disable shuts the extension down and marks the record disabled.
// Shutdown is attempted whenever initialization was attempted, and a
// shutdown fault is captured but never blocks the transition.
func (h *Host) Disable(ctx context.Context) error {
	h.mu.Lock()
	if h.recState == StateUnloaded {
		h.mu.Unlock()
		return ErrUnloaded
	}
	attempt := h.initAttempted
	ext := h.ext
	h.mu.Unlock()

	var err error
	if attempt && ext != nil {
		err = guarded(h.log, h.desc.ID, "shutdown", func() error {
			return ext.Shutdown()
		})
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.recState == StateUnloaded {
		return ErrUnloaded
	}
	if err != nil {
		h.fault = err
	}
	h.recState = StateDisabled
	return err
}

// Unload releases the record. Shutdown runs first if the record is
// enabled. Terminal: the id must be rediscovered to come back.
func (h *Host) Unload(ctx context.Context) error {
	h.mu.Lock()
	if h.recState == StateUnloaded {
		h.mu.Unlock()
		return nil
	}
	enabled := h.recState == StateEnabled
	ext := h.ext
	h.mu.Unlock()

	if enabled && ext != nil {
		err := guarded(h.log, h.desc.ID, "shutdown", func() error {
			return ext.Shutdown()
		})
		if err != nil {
			h.mu.Lock()
			h.fault = err
			h.mu.Unlock()
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.boundary != nil {
		h.boundary.Close()
		h.boundary = nil
	}
	h.ext = nil
	h.recState = StateUnloaded
	return nil
}

// failLocked marks the record failed. Caller holds mu.
func (h *Host) failLocked(err error) error {
	h.recState = StateFailed
	h.fault = err
	return err
}
