package plugin

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Loader discovers extension packages on the filesystem.
type Loader struct {
	// Search paths for extensions (checked in order)
	paths []string

	// Discovered candidates by id
	discovered map[string]*Candidate

	// Discovery faults that did not yield a usable candidate
	faults []DiscoveryFault

	log *slog.Logger
}

// Candidate is one discovered extension package, not yet loaded.
type Candidate struct {
	ID       string
	Path     string
	Manifest *Manifest
	Loose    bool
}

// DiscoveryFault records a package that could not be discovered.
type DiscoveryFault struct {
	Path string
	Err  error
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithPaths sets the extension search paths.
func WithPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.paths = paths
	}
}

// WithLoaderLogger sets the discovery logger.
func WithLoaderLogger(log *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.log = log
	}
}

// NewLoader creates a new extension loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		paths:      DefaultExtensionPaths(),
		discovered: make(map[string]*Candidate),
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// DefaultExtensionPaths returns the default extension search paths.
func DefaultExtensionPaths() []string {
	paths := make([]string, 0, 2)

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "twinpane", "extensions"))
	}
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".twinpane", "extensions"))
	}
	return paths
}

// Paths returns the configured search paths.
func (l *Loader) Paths() []string {
	return l.paths
}

// AddPath adds a search path.
func (l *Loader) AddPath(path string) {
	l.paths = append(l.paths, path)
}

// Discover finds all extension packages in the search paths. Earlier
// paths win duplicate ids. Candidates are returned sorted by id;
// packages that failed inspection are reported via Faults.
func (l *Loader) Discover() []*Candidate {
	l.discovered = make(map[string]*Candidate)
	l.faults = nil

	for _, basePath := range l.paths {
		l.discoverInPath(basePath)
	}

	candidates := make([]*Candidate, 0, len(l.discovered))
	for _, c := range l.discovered {
		candidates = append(candidates, c)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ID < candidates[j].ID
	})
	return candidates
}

// discoverInPath finds extensions in a single directory.
func (l *Loader) discoverInPath(basePath string) {
	entries, err := os.ReadDir(basePath)
	if err != nil {
		// Missing search paths are not errors
		if !os.IsNotExist(err) {
			l.faults = append(l.faults, DiscoveryFault{Path: basePath, Err: err})
		}
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			// Loose-file extensions: name.lua directly in the root
			if filepath.Ext(entry.Name()) == ".lua" {
				l.addLooseFile(filepath.Join(basePath, entry.Name()))
			}
			continue
		}
		l.addPackageDir(filepath.Join(basePath, entry.Name()))
	}
}

// addPackageDir inspects one package directory.
func (l *Loader) addPackageDir(dir string) {
	var m *Manifest

	if manifestPath := FindManifest(dir); manifestPath != "" {
		loaded, err := LoadManifest(manifestPath)
		if err != nil {
			l.fault(dir, fmt.Errorf("invalid manifest: %w", err))
			return
		}
		m = loaded
	} else {
		// No manifest: the directory itself is the package, entered
		// through <dir>.lua, init.lua or main.lua
		main := findEntryScript(dir)
		if main == "" {
			l.fault(dir, ErrNoEntryPoint)
			return
		}
		m = NewManifestMinimal(filepath.Base(dir), dir)
		m.Main = main
		if err := m.Validate(); err != nil {
			l.fault(dir, err)
			return
		}
	}

	if _, err := os.Stat(m.MainPath()); err != nil {
		l.fault(dir, fmt.Errorf("%w: %s", ErrNoEntryPoint, m.Main))
		return
	}

	l.add(&Candidate{ID: m.ID, Path: dir, Manifest: m})
}

// findEntryScript picks the entry script of a manifest-less package
// directory: a script named after the directory, then init.lua, then
// main.lua.
func findEntryScript(dir string) string {
	candidates := []string{filepath.Base(dir) + ".lua", "init.lua", "main.lua"}
	for _, name := range candidates {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return name
		}
	}
	return ""
}

// addLooseFile adds a bare script discovered without a manifest.
func (l *Loader) addLooseFile(luaPath string) {
	id := strings.ToLower(strings.TrimSuffix(filepath.Base(luaPath), ".lua"))

	m := NewManifestMinimal(id, filepath.Dir(luaPath))
	m.Main = filepath.Base(luaPath)
	if err := m.Validate(); err != nil {
		l.fault(luaPath, err)
		return
	}

	l.add(&Candidate{ID: id, Path: filepath.Dir(luaPath), Manifest: m, Loose: true})
}

// add records a candidate unless its id was already claimed; the first
// discovery wins and later duplicates become faults.
func (l *Loader) add(c *Candidate) {
	if prior, exists := l.discovered[c.ID]; exists {
		if prior.Path != c.Path {
			l.fault(c.Path, fmt.Errorf("duplicate extension id %q (first at %s)", c.ID, prior.Path))
		}
		return
	}
	l.discovered[c.ID] = c
	l.log.Debug("discovered extension", "id", c.ID, "path", c.Path, "loose", c.Loose)
}

func (l *Loader) fault(path string, err error) {
	l.faults = append(l.faults, DiscoveryFault{Path: path, Err: err})
	l.log.Warn("discovery fault", "path", path, "error", err)
}

// Faults returns the faults from the most recent discovery pass.
func (l *Loader) Faults() []DiscoveryFault {
	return append([]DiscoveryFault(nil), l.faults...)
}

// Get returns the candidate for a specific id from the last pass.
func (l *Loader) Get(id string) (*Candidate, bool) {
	c, ok := l.discovered[id]
	return c, ok
}

// Count returns the number of discovered candidates.
func (l *Loader) Count() int {
	return len(l.discovered)
}
