// Package config loads the twinpane host configuration from a single
// YAML document, overlaying user values on defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the host configuration.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	Extensions ExtensionsConfig `yaml:"extensions"`
}

// LogConfig configures host logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// ExtensionsConfig configures the extension runtime.
type ExtensionsConfig struct {
	// Paths are the extension search directories, in priority order.
	Paths []string `yaml:"paths"`

	// AutoEnable initializes extensions as they are discovered;
	// nil means true.
	AutoEnable *bool `yaml:"auto_enable"`

	// InitConcurrency bounds concurrent initialization.
	InitConcurrency int `yaml:"init_concurrency"`

	// QuiesceConcurrency bounds concurrent shutdown.
	QuiesceConcurrency int `yaml:"quiesce_concurrency"`

	// InstructionLimit bounds script execution per call; 0 disables.
	InstructionLimit int64 `yaml:"instruction_limit"`

	// DataDir is the root for per-extension data directories.
	DataDir string `yaml:"data_dir"`

	// StorePath is the persisted key/value store file.
	StorePath string `yaml:"store_path"`
}

// Default returns the built-in configuration.
func Default() Config {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Extensions: ExtensionsConfig{
			InitConcurrency:    4,
			QuiesceConcurrency: 4,
		},
	}

	if home, err := os.UserHomeDir(); err == nil {
		cfg.Extensions.Paths = []string{
			filepath.Join(home, ".config", "twinpane", "extensions"),
		}
		share := filepath.Join(home, ".local", "share", "twinpane")
		cfg.Extensions.DataDir = filepath.Join(share, "extension-data")
		cfg.Extensions.StorePath = filepath.Join(share, "extension-store.json")
	}
	return cfg
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "twinpane", "config.yaml")
}

// Load reads the file and overlays it on the defaults. A missing file
// yields the defaults; a malformed one is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// AutoEnabled reports the enablement default; absent means true.
func (c ExtensionsConfig) AutoEnabled() bool {
	return c.AutoEnable == nil || *c.AutoEnable
}
