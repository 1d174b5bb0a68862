// Package testutil provides shared test helpers for svenska Go tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/thomasrohde/svenska/pkg/config"
	"github.com/thomasrohde/svenska/pkg/executor"
	"github.com/thomasrohde/svenska/pkg/value"
)

// ScenariosDir is the relative path from the module root to the scenarios.
const ScenariosDir = "testdata/scenarios"

// ScenarioFile is the descriptor every scenario directory contains.
const ScenarioFile = "scenario.yaml"

// Scenario is one program with its expected outcome.
type Scenario struct {
	Name        string         `yaml:"-"`
	Dir         string         `yaml:"-"`
	Description string         `yaml:"description"`
	Program     string         `yaml:"program"`
	Config      *config.Config `yaml:"config"`
	Tags        []string       `yaml:"tags,omitempty"`
	Expect      Expectation    `yaml:"expect"`
}

// Expectation describes the observable result of running a scenario.
type Expectation struct {
	Status         string         `yaml:"status"`
	Stdout         *string        `yaml:"stdout"`
	StdoutContains string         `yaml:"stdout_contains"`
	Codes          []string       `yaml:"codes"`
	Globals        map[string]any `yaml:"globals"`
	Events         map[string]int `yaml:"events"`
}

// LoadScenario loads the scenario in dir. The program defaults to program.si
// and settings not named in the descriptor keep their defaults.
func LoadScenario(dir string) (*Scenario, error) {
	f, err := os.Open(filepath.Join(dir, ScenarioFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s := &Scenario{
		Name:    filepath.Base(dir),
		Dir:     dir,
		Program: "program.si",
		Config:  config.Default(),
	}
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name, err)
	}
	if err := s.Config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name, err)
	}
	if _, err := s.Status(); err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name, err)
	}
	return s, nil
}

// ListScenarios returns all scenario directories under root, sorted.
func ListScenarios(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, e.Name(), ScenarioFile)); err == nil {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// Source reads the scenario's program and returns it with its file name.
func (s *Scenario) Source() (string, string, error) {
	path := filepath.Join(s.Dir, s.Program)
	src, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	return string(src), s.Program, nil
}

// Status returns the expected status. An empty status means Success.
func (s *Scenario) Status() (executor.Status, error) {
	switch s.Expect.Status {
	case "", "Success":
		return executor.Success, nil
	}
	st, ok := executor.ParseStatus(s.Expect.Status)
	if !ok {
		return 0, fmt.Errorf("unknown status %q", s.Expect.Status)
	}
	return st, nil
}

// Globals returns the expected global bindings as values.
func (s *Scenario) Globals() map[string]value.Value {
	out := make(map[string]value.Value, len(s.Expect.Globals))
	for name, raw := range s.Expect.Globals {
		out[name] = value.FromRaw(raw)
	}
	return out
}
