package plugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"

	"github.com/twinpane/twinpane/internal/plugin/api"
	"github.com/twinpane/twinpane/internal/plugin/capability"
)

// Manager owns the set of loaded extension records and the capability
// index. It handles discovery, loading, enablement, and shutdown; all
// record-set mutation is serialized, and capability queries through
// Registry are safe to interleave with it.
type Manager struct {
	mu sync.RWMutex

	loader *Loader

	// Loaded extension records by id
	records map[string]*Host

	// Load faults from the last Sync, keyed by package path; a
	// candidate whose load faults never becomes a record
	loadFaults []DiscoveryFault

	// Load order (for deterministic iteration)
	loadOrder []string

	// Derived capability index; only enabled records are indexed
	registry *capability.Registry

	// Shared context bridge state
	bridge *api.Context

	// Event handlers (protected by mu)
	eventHandlers []EventHandler

	config ManagerConfig
	log    *slog.Logger
}

// ManagerConfig configures the extension manager.
type ManagerConfig struct {
	// ExtensionPaths are directories to search for extensions
	ExtensionPaths []string

	// AutoEnable initializes extensions as they are loaded, unless
	// their manifest disables them
	AutoEnable bool

	// InitConcurrency bounds concurrent initialization during Sync
	InitConcurrency int

	// QuiesceConcurrency bounds concurrent shutdown during QuiesceAll
	QuiesceConcurrency int

	// InstructionLimit bounds script execution per call; 0 means none
	InstructionLimit int64
}

// DefaultManagerConfig returns sensible default configuration.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		ExtensionPaths:     DefaultExtensionPaths(),
		AutoEnable:         true,
		InitConcurrency:    4,
		QuiesceConcurrency: 4,
	}
}

// EventHandler handles manager events. Handlers must not call back
// into the Manager. Panics in handlers are recovered.
type EventHandler func(event ManagerEvent)

// ManagerEvent represents one lifecycle event.
type ManagerEvent struct {
	Type      ManagerEventType
	Extension string
	Err       error
}

// ManagerEventType is the type of manager event.
type ManagerEventType int

const (
	// EventLoaded is emitted when an extension record is loaded.
	EventLoaded ManagerEventType = iota
	// EventEnabled is emitted when a record becomes enabled.
	EventEnabled
	// EventDisabled is emitted when a record becomes disabled.
	EventDisabled
	// EventUnloaded is emitted when a record is unloaded.
	EventUnloaded
	// EventFault is emitted when extension code faults.
	EventFault
)

// String returns a string representation of the event type.
func (t ManagerEventType) String() string {
	switch t {
	case EventLoaded:
		return "loaded"
	case EventEnabled:
		return "enabled"
	case EventDisabled:
		return "disabled"
	case EventUnloaded:
		return "unloaded"
	case EventFault:
		return "fault"
	default:
		return "unknown"
	}
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the manager logger.
func WithManagerLogger(log *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

// NewManager creates an extension manager sharing the given context
// bridge state. A nil bridge gets a default context with no host
// delegates wired.
func NewManager(config ManagerConfig, bridge *api.Context, opts ...ManagerOption) (*Manager, error) {
	if bridge == nil {
		var err error
		bridge, err = api.NewContext(api.ContextConfig{})
		if err != nil {
			return nil, err
		}
	}

	m := &Manager{
		loader:   NewLoader(WithPaths(config.ExtensionPaths...)),
		records:  make(map[string]*Host),
		registry: capability.NewRegistry(),
		bridge:   bridge,
		config:   config,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.loader.log = m.log
	return m, nil
}

// Registry returns the capability index for queries.
func (m *Manager) Registry() *capability.Registry {
	return m.registry
}

// Context returns the shared context bridge state.
func (m *Manager) Context() *api.Context {
	return m.bridge
}

// DiscoveryFaults returns the faults from the last discovery pass.
func (m *Manager) DiscoveryFaults() []DiscoveryFault {
	return m.loader.Faults()
}

// LoadFaults returns the load faults from the last Sync, keyed by
// package path. The faulted candidates are not managed records and
// are retried on the next pass.
func (m *Manager) LoadFaults() []DiscoveryFault {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]DiscoveryFault(nil), m.loadFaults...)
}

// Sync runs a discovery pass and loads every newly found extension.
// Ids already managed are left alone, so a record unloaded earlier can
// be re-introduced as a fresh record by a later pass. Initialization
// of newly loaded, enabled extensions runs concurrently; one
// extension's fault never skips a sibling.
func (m *Manager) Sync(ctx context.Context) error {
	candidates := m.loader.Discover()

	// A record claims both its final id and the discovery id it came
	// from, so a self-identified script is not loaded again each pass.
	m.mu.Lock()
	m.loadFaults = nil
	claimed := make(map[string]bool, len(m.records))
	for id, host := range m.records {
		claimed[id] = true
		claimed[host.sourceID] = true
	}
	m.mu.Unlock()

	var toInit []*Host
	for _, c := range candidates {
		if claimed[c.ID] {
			continue
		}

		wantEnable := m.config.AutoEnable && c.Manifest.IsEnabled()
		host, err := m.loadCandidate(ctx, c, wantEnable)
		if err != nil {
			continue
		}
		if wantEnable {
			toInit = append(toInit, host)
		}
	}

	g := new(errgroup.Group)
	if m.config.InitConcurrency > 0 {
		g.SetLimit(m.config.InitConcurrency)
	}
	for _, host := range toInit {
		host := host
		g.Go(func() error {
			m.initRecord(ctx, host)
			return nil
		})
	}
	return g.Wait()
}

// loadCandidate constructs and registers one record. A candidate whose
// script fails to load never becomes a record; the fault is recorded
// against the package path so a later pass can retry it. The record is
// indexed only when slated for enablement; Enable indexes it later
// otherwise.
func (m *Manager) loadCandidate(ctx context.Context, c *Candidate, index bool) (*Host, error) {
	host, err := NewHost(c.Manifest,
		WithHostLogger(m.log),
		WithHostInstructionLimit(m.config.InstructionLimit),
	)
	if err != nil {
		return nil, err
	}
	host.desc.LooseFile = c.Loose

	if loadErr := host.Load(ctx); loadErr != nil {
		host.Unload(ctx)
		m.mu.Lock()
		m.loadFaults = append(m.loadFaults, DiscoveryFault{Path: c.Path, Err: loadErr})
		m.mu.Unlock()
		m.emitEvent(ManagerEvent{Type: EventFault, Extension: c.ID, Err: loadErr})
		return nil, loadErr
	}

	m.mu.Lock()
	if _, exists := m.records[host.ID()]; exists {
		m.mu.Unlock()
		host.Unload(ctx)
		return nil, fmt.Errorf("extension %q: %w", host.ID(), ErrAlreadyLoaded)
	}
	m.records[host.ID()] = host
	m.loadOrder = append(m.loadOrder, host.ID())
	m.mu.Unlock()

	if index {
		if _, err := m.registry.Add(host.Extension()); err != nil {
			m.emitEvent(ManagerEvent{Type: EventFault, Extension: host.ID(), Err: err})
			return nil, err
		}
	}

	m.emitEvent(ManagerEvent{Type: EventLoaded, Extension: host.ID()})
	return host, nil
}

// initRecord initializes one record. On fault the record is dropped
// from the capability index but stays visible with the fault captured.
func (m *Manager) initRecord(ctx context.Context, host *Host) {
	id := host.ID()
	if err := host.Init(ctx, m.bridge.Bridge(id)); err != nil {
		m.registry.Remove(id)
		m.emitEvent(ManagerEvent{Type: EventFault, Extension: id, Err: err})
		return
	}
	m.emitEvent(ManagerEvent{Type: EventEnabled, Extension: id})
}

// Enable enables a record, re-attempting initialization if it never
// succeeded for this load.
func (m *Manager) Enable(ctx context.Context, id string) error {
	host, ok := m.Record(id)
	if !ok {
		return fmt.Errorf("extension %q: %w", id, ErrExtensionNotFound)
	}

	if err := host.Enable(ctx, m.bridge.Bridge(id)); err != nil {
		m.registry.Remove(id)
		m.emitEvent(ManagerEvent{Type: EventFault, Extension: id, Err: err})
		return err
	}

	if !m.registry.Has(id) {
		if _, err := m.registry.Add(host.Extension()); err != nil {
			return err
		}
	}
	m.emitEvent(ManagerEvent{Type: EventEnabled, Extension: id})
	return nil
}

// Disable shuts a record down and drops it from the capability index.
// A shutdown fault is captured on the record but never blocks the
// transition; it is reported through the event stream.
func (m *Manager) Disable(ctx context.Context, id string) error {
	host, ok := m.Record(id)
	if !ok {
		return fmt.Errorf("extension %q: %w", id, ErrExtensionNotFound)
	}

	m.registry.Remove(id)

	if err := host.Disable(ctx); err != nil {
		if errors.Is(err, ErrUnloaded) {
			return err
		}
		m.emitEvent(ManagerEvent{Type: EventFault, Extension: id, Err: err})
	}
	m.emitEvent(ManagerEvent{Type: EventDisabled, Extension: id})
	return nil
}

// Unload releases a record and removes it from the index and the
// record set. Terminal; a later Sync may re-introduce the id fresh.
func (m *Manager) Unload(ctx context.Context, id string) error {
	m.mu.Lock()
	host, exists := m.records[id]
	if !exists {
		m.mu.Unlock()
		return fmt.Errorf("extension %q: %w", id, ErrExtensionNotFound)
	}
	delete(m.records, id)
	m.removeFromLoadOrder(id)
	m.mu.Unlock()

	m.registry.Remove(id)

	if err := host.Unload(ctx); err != nil {
		m.emitEvent(ManagerEvent{Type: EventFault, Extension: id, Err: err})
	}
	m.emitEvent(ManagerEvent{Type: EventUnloaded, Extension: id})
	return nil
}

// Reload unloads a record and re-introduces its id from a fresh
// discovery pass. The new record starts a new load generation, so
// initialization may run again.
func (m *Manager) Reload(ctx context.Context, id string) error {
	host, ok := m.Record(id)
	if !ok {
		return fmt.Errorf("extension %q: %w", id, ErrExtensionNotFound)
	}
	// Rediscovery keys candidates by discovery id, which differs from
	// the record id when a manifest-less script self-reports one.
	sourceID := host.sourceID
	if err := m.Unload(ctx, id); err != nil {
		return err
	}

	m.loader.Discover()
	c, ok := m.loader.Get(sourceID)
	if !ok {
		return fmt.Errorf("extension %q: %w", id, ErrExtensionNotFound)
	}

	wantEnable := m.config.AutoEnable && c.Manifest.IsEnabled()
	host, err := m.loadCandidate(ctx, c, wantEnable)
	if err != nil {
		return err
	}
	if wantEnable {
		m.initRecord(ctx, host)
		if fault := host.Fault(); fault != nil {
			return fault
		}
	}
	return nil
}

// QuiesceAll disables every currently enabled record, continuing past
// individual shutdown faults. Shutdown hooks run concurrently on a
// bounded pool.
func (m *Manager) QuiesceAll(ctx context.Context) error {
	var enabled []string
	for _, host := range m.Records() {
		if host.State() == StateEnabled {
			enabled = append(enabled, host.ID())
		}
	}
	if len(enabled) == 0 {
		return nil
	}

	size := m.config.QuiesceConcurrency
	if size <= 0 {
		size = 1
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for _, id := range enabled {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			m.Disable(ctx, id)
		}
		if err := pool.Submit(task); err != nil {
			// Pool rejected the task; quiesce inline instead
			task()
		}
	}
	wg.Wait()
	return nil
}

// Close quiesces all records, unloads them in reverse load order, and
// persists the shared store.
func (m *Manager) Close(ctx context.Context) error {
	if err := m.QuiesceAll(ctx); err != nil {
		return err
	}

	m.mu.RLock()
	ids := make([]string, len(m.loadOrder))
	for i, id := range m.loadOrder {
		ids[len(m.loadOrder)-1-i] = id
	}
	m.mu.RUnlock()

	var closeErrors []error
	for _, id := range ids {
		if err := m.Unload(ctx, id); err != nil {
			closeErrors = append(closeErrors, err)
		}
	}

	if err := m.bridge.Store().Save(); err != nil {
		closeErrors = append(closeErrors, fmt.Errorf("persist store: %w", err))
	}
	return errors.Join(closeErrors...)
}

// Record returns a record by extension id.
func (m *Manager) Record(id string) (*Host, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	host, exists := m.records[id]
	return host, exists
}

// Records returns all records in load order.
func (m *Manager) Records() []*Host {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Host, 0, len(m.loadOrder))
	for _, id := range m.loadOrder {
		if host, exists := m.records[id]; exists {
			result = append(result, host)
		}
	}
	return result
}

// RecordsByState returns records in a specific state, in load order.
func (m *Manager) RecordsByState(state State) []*Host {
	var result []*Host
	for _, host := range m.Records() {
		if host.State() == state {
			result = append(result, host)
		}
	}
	return result
}

// Count returns the number of managed records.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Subscribe adds an event handler. Returns an unsubscribe function.
func (m *Manager) Subscribe(handler EventHandler) func() {
	if handler == nil {
		return func() {}
	}

	m.mu.Lock()
	m.eventHandlers = append(m.eventHandlers, handler)
	index := len(m.eventHandlers) - 1
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if index < len(m.eventHandlers) {
			m.eventHandlers[index] = nil
		}
	}
}

// emitEvent sends an event to all handlers outside any locks; panics
// in handlers are recovered.
func (m *Manager) emitEvent(event ManagerEvent) {
	m.mu.RLock()
	handlers := make([]EventHandler, len(m.eventHandlers))
	copy(handlers, m.eventHandlers)
	m.mu.RUnlock()

	for _, handler := range handlers {
		if handler == nil {
			continue
		}
		func() {
			defer func() {
				recover()
			}()
			handler(event)
		}()
	}
}

// removeFromLoadOrder removes an id from the load order slice.
// Must be called with mu held.
func (m *Manager) removeFromLoadOrder(id string) {
	for i, n := range m.loadOrder {
		if n == id {
			m.loadOrder = append(m.loadOrder[:i], m.loadOrder[i+1:]...)
			return
		}
	}
}
