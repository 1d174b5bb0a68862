// Package config loads svenska settings from YAML files.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/thomasrohde/svenska/pkg/executor"
)

// ProjectFile is the project-level config file name.
const ProjectFile = ".svenska.yaml"

// Config holds interpreter and CLI settings.
type Config struct {
	Debug          bool   `yaml:"debug"`
	NoColor        bool   `yaml:"no_color"`
	MaxDepth       int    `yaml:"max_depth"`
	UnresolvedCall string `yaml:"unresolved_call"`
	Diagnostics    string `yaml:"diagnostics"`
	TraceFile      string `yaml:"trace_file,omitempty"`
	History        string `yaml:"history,omitempty"`

	// Source is the file the config was loaded from, empty for defaults.
	Source string `yaml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		MaxDepth:       executor.DefaultMaxDepth,
		UnresolvedCall: "fatal",
		Diagnostics:    "pretty",
	}
}

// Load loads settings with precedence: project (.svenska.yaml in projectDir)
// → user (~/.svenska/config.yaml) → defaults. A file that exists but cannot
// be parsed is an error.
func Load(projectDir string) (*Config, error) {
	paths := []string{filepath.Join(projectDir, ProjectFile)}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".svenska", "config.yaml"))
	}
	for _, path := range paths {
		cfg, err := LoadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return cfg, err
	}
	return Default(), nil
}

// LoadFile reads one config file. Unset fields keep their defaults.
func LoadFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.Source = path
	return cfg, nil
}

// Validate checks enumerated and numeric fields.
func (c *Config) Validate() error {
	if c.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be positive, got %d", c.MaxDepth)
	}
	if _, ok := executor.ParseStatus(c.UnresolvedCall); !ok {
		return fmt.Errorf("unresolved_call must be fatal or syntax, got %q", c.UnresolvedCall)
	}
	switch c.Diagnostics {
	case "pretty", "json":
	default:
		return fmt.Errorf("diagnostics must be pretty or json, got %q", c.Diagnostics)
	}
	return nil
}

// UnresolvedStatus returns the status for calls to unknown functions.
func (c *Config) UnresolvedStatus() executor.Status {
	s, ok := executor.ParseStatus(c.UnresolvedCall)
	if !ok {
		return executor.FatalError
	}
	return s
}

// Pretty reports whether diagnostics are rendered as text rather than JSON.
func (c *Config) Pretty() bool {
	return c.Diagnostics != "json"
}

// Marshal renders the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
