package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifestJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extension.json")
	writeFile(t, path, `{
		"id": "git-columns",
		"name": "Git Columns",
		"version": "1.2.0",
		"author": "pat",
		"main": "main.lua",
		"capabilities": ["column", "command"]
	}`)

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}

	if m.ID != "git-columns" {
		t.Errorf("ID = %q, want git-columns", m.ID)
	}
	if m.Version != "1.2.0" {
		t.Errorf("Version = %q", m.Version)
	}
	if m.Path() != dir {
		t.Errorf("Path() = %q, want %q", m.Path(), dir)
	}
	if got := m.MainPath(); got != filepath.Join(dir, "main.lua") {
		t.Errorf("MainPath() = %q", got)
	}
	if !m.DeclaresCapability("column") || m.DeclaresCapability("viewer") {
		t.Errorf("capability declarations wrong: %v", m.Capabilities)
	}
	if !m.IsEnabled() {
		t.Error("IsEnabled() = false, want true by default")
	}
}

func TestLoadManifestYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extension.yaml")
	writeFile(t, path, `
id: zip-handler
version: 0.3.1
author: sam
capabilities:
  - archive
enabled: false
`)

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}

	if m.ID != "zip-handler" {
		t.Errorf("ID = %q", m.ID)
	}
	if m.IsEnabled() {
		t.Error("IsEnabled() = true, want false")
	}
	// Defaults apply to omitted fields.
	if m.Main != "init.lua" {
		t.Errorf("Main = %q, want init.lua", m.Main)
	}
	if m.Name != "zip-handler" {
		t.Errorf("Name = %q, want id fallback", m.Name)
	}
}

func TestLoadManifestRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr error
	}{
		{"missing id", "extension.json", `{"version": "1.0.0"}`, ErrMissingID},
		{"bad id", "extension.json", `{"id": "Not_Valid!"}`, ErrInvalidID},
		{"bad version", "extension.json", `{"id": "a", "version": "two"}`, ErrInvalidVersion},
		{"bad main", "extension.json", `{"id": "a", "version": "1.0.0", "main": "run.sh"}`, ErrInvalidMain},
		{"bad capability", "extension.json", `{"id": "a", "version": "1.0.0", "capabilities": ["quantum"]}`, ErrInvalidCapability},
		{"bad format", "extension.toml", `id = "a"`, ErrUnknownFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			writeFile(t, path, tt.content)

			_, err := LoadManifest(path)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("LoadManifest() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadManifestMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extension.json")
	writeFile(t, path, `{broken`)
	if _, err := LoadManifest(path); err == nil {
		t.Error("LoadManifest() accepted malformed JSON")
	}
}

func TestFindManifest(t *testing.T) {
	dir := t.TempDir()
	if got := FindManifest(dir); got != "" {
		t.Errorf("FindManifest(empty) = %q", got)
	}

	yamlPath := filepath.Join(dir, "extension.yaml")
	writeFile(t, yamlPath, "id: x\n")
	if got := FindManifest(dir); got != yamlPath {
		t.Errorf("FindManifest() = %q, want %q", got, yamlPath)
	}

	// JSON takes precedence when both exist.
	jsonPath := filepath.Join(dir, "extension.json")
	writeFile(t, jsonPath, `{"id": "x"}`)
	if got := FindManifest(dir); got != jsonPath {
		t.Errorf("FindManifest() = %q, want %q", got, jsonPath)
	}
}

func TestNewManifestMinimal(t *testing.T) {
	m := NewManifestMinimal("quick", "/tmp/exts")
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if m.Version != "0.0.0" || m.Main != "init.lua" {
		t.Errorf("minimal manifest = %+v", m)
	}
	if got := m.String(); got != "quick v0.0.0" {
		t.Errorf("String() = %q", got)
	}
}
