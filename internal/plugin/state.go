package plugin

// State represents the lifecycle state of a loaded extension record.
type State int

// Extension record states.
const (
	// StateDiscovered - Package found on disk, no code loaded.
	StateDiscovered State = iota

	// StateLoaded - Instance constructed, initialization not yet run.
	StateLoaded

	// StateInitializing - Initialization entry point is running.
	StateInitializing

	// StateEnabled - Initialized and answering capability queries.
	StateEnabled

	// StateDisabled - Shut down but still managed; may be re-enabled.
	StateDisabled

	// StateFailed - Initialization threw; disabled with a captured fault.
	StateFailed

	// StateUnloaded - Released. Terminal.
	StateUnloaded
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateDiscovered:
		return "discovered"
	case StateLoaded:
		return "loaded"
	case StateInitializing:
		return "initializing"
	case StateEnabled:
		return "enabled"
	case StateDisabled:
		return "disabled"
	case StateFailed:
		return "failed"
	case StateUnloaded:
		return "unloaded"
	default:
		return "unknown"
	}
}

// IsEnabled returns true if the record is answering capability queries.
func (s State) IsEnabled() bool {
	return s == StateEnabled
}

// IsTerminal returns true if no further transitions are possible.
func (s State) IsTerminal() bool {
	return s == StateUnloaded
}
