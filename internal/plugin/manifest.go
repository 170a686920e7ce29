package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest describes an extension's metadata and declarations.
// Manifests are written as extension.json or extension.yaml in the
// extension's package directory.
type Manifest struct {
	// Identity
	ID          string `json:"id" yaml:"id"`                   // Unique identifier (e.g., "git-columns")
	Name        string `json:"name" yaml:"name"`               // Human-readable name
	Description string `json:"description" yaml:"description"` // Short description
	Version     string `json:"version" yaml:"version"`         // Semver (e.g., "1.2.0")
	Author      string `json:"author" yaml:"author"`           // Author name or org

	// Entry point
	Main string `json:"main" yaml:"main"` // Relative path to main script (default: "init.lua")

	// Requirements
	Dependencies []string `json:"dependencies" yaml:"dependencies"` // Required extension ids

	// Capabilities the extension declares
	Capabilities []string `json:"capabilities" yaml:"capabilities"`

	// Enablement; nil means enabled
	Enabled *bool `json:"enabled" yaml:"enabled"`

	// Internal: path to the extension directory
	path string

	// Internal: true when generated for a manifest-less package
	synthetic bool
}

// Validation errors.
var (
	ErrMissingID         = errors.New("manifest: id is required")
	ErrInvalidID         = errors.New("manifest: id must be lowercase alphanumeric with hyphens")
	ErrInvalidVersion    = errors.New("manifest: version must be valid semver")
	ErrInvalidMain       = errors.New("manifest: main must be a .lua file")
	ErrInvalidCapability = errors.New("manifest: unknown capability")
	ErrUnknownFormat     = errors.New("manifest: unsupported file format")
)

// idPattern validates extension ids.
var idPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$|^[a-z]$`)

// semverPattern validates version strings (simplified semver).
var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9.-]+)?(\+[a-zA-Z0-9.-]+)?$`)

// validCapabilities are the declarable capability contract names.
var validCapabilities = map[string]bool{
	"command":    true,
	"column":     true,
	"filesystem": true,
	"viewer":     true,
	"archive":    true,
}

// manifestNames are the recognized manifest filenames, checked in order.
var manifestNames = []string{"extension.json", "extension.yaml", "extension.yml"}

// LoadManifest loads and validates a manifest from a file. The format
// is chosen by file extension: .json or .yaml/.yml.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse manifest: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse manifest: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, filepath.Ext(path))
	}

	m.path = filepath.Dir(path)
	m.applyDefaults()

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// FindManifest returns the path of the manifest file in a package
// directory, or empty if the directory has none.
func FindManifest(dir string) string {
	for _, name := range manifestNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// NewManifestMinimal creates a minimal manifest for extensions that
// ship without one (bare directories and loose files).
func NewManifestMinimal(id, dir string) *Manifest {
	return &Manifest{
		ID:        id,
		Version:   "0.0.0",
		Main:      "init.lua",
		path:      dir,
		synthetic: true,
	}
}

// IsSynthetic reports whether this manifest was generated for a
// package that ships no manifest file.
func (m *Manifest) IsSynthetic() bool {
	return m.synthetic
}

// applyDefaults sets default values for optional fields.
func (m *Manifest) applyDefaults() {
	if m.Main == "" {
		m.Main = "init.lua"
	}
	if m.Version == "" {
		m.Version = "0.0.0"
	}
	if m.Name == "" {
		m.Name = m.ID
	}
}

// Validate checks that the manifest is valid.
func (m *Manifest) Validate() error {
	if m.ID == "" {
		return ErrMissingID
	}
	if !idPattern.MatchString(m.ID) {
		return fmt.Errorf("%w: %s", ErrInvalidID, m.ID)
	}

	if !semverPattern.MatchString(m.Version) {
		return fmt.Errorf("%w: %s", ErrInvalidVersion, m.Version)
	}

	if m.Main != "" && filepath.Ext(m.Main) != ".lua" {
		return fmt.Errorf("%w: %s", ErrInvalidMain, m.Main)
	}

	for _, c := range m.Capabilities {
		if !validCapabilities[strings.ToLower(c)] {
			return fmt.Errorf("%w: %s", ErrInvalidCapability, c)
		}
	}
	return nil
}

// IsEnabled reports the manifest's enablement flag; absent means enabled.
func (m *Manifest) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// Path returns the path to the extension directory.
func (m *Manifest) Path() string {
	return m.path
}

// MainPath returns the full path to the main script.
func (m *Manifest) MainPath() string {
	return filepath.Join(m.path, m.Main)
}

// DeclaresCapability returns true if the manifest declares the named
// capability. An empty declaration list declares nothing explicitly.
func (m *Manifest) DeclaresCapability(name string) bool {
	for _, c := range m.Capabilities {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// String returns a string representation of the manifest.
func (m *Manifest) String() string {
	name := m.Name
	if name == "" {
		name = m.ID
	}
	return fmt.Sprintf("%s v%s", name, m.Version)
}
