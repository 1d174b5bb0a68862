package testutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/thomasrohde/svenska/internal/testutil"
	"github.com/thomasrohde/svenska/pkg/executor"
	"github.com/thomasrohde/svenska/pkg/value"
)

func writeScenario(t *testing.T, root, name, descriptor string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, testutil.ScenarioFile), []byte(descriptor), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "program.si"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadScenario(t *testing.T) {
	dir := writeScenario(t, t.TempDir(), "enkel", `description: simple
config:
  max_depth: 3
expect:
  status: syntax
  codes: [E_UNDEFINED]
  globals:
    x: 1
    namn: Anna
`)
	s, err := testutil.LoadScenario(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Name != "enkel" || s.Program != "program.si" {
		t.Errorf("unexpected name/program %q %q", s.Name, s.Program)
	}
	if s.Config.MaxDepth != 3 || s.Config.UnresolvedCall != "fatal" {
		t.Errorf("config should merge over defaults, got %+v", s.Config)
	}
	if st, _ := s.Status(); st != executor.SyntaxError {
		t.Errorf("expected SyntaxError, got %s", st)
	}
	globals := s.Globals()
	if !value.StrictEqual(globals["x"], value.NewNumber(1)) || !value.StrictEqual(globals["namn"], value.NewString("Anna")) {
		t.Errorf("unexpected globals %v", globals)
	}
	src, name, err := s.Source()
	if err != nil || src != "x = 1\n" || name != "program.si" {
		t.Errorf("Source() = %q, %q, %v", src, name, err)
	}
}

func TestLoadScenarioRejects(t *testing.T) {
	root := t.TempDir()
	tests := map[string]string{
		"unknown-field":  "description: x\nexpected: {}\n",
		"unknown-status": "expect:\n  status: Maybe\n",
		"bad-config":     "config:\n  max_depth: 0\n",
	}
	for name, descriptor := range tests {
		dir := writeScenario(t, root, name, descriptor)
		if _, err := testutil.LoadScenario(dir); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestListScenarios(t *testing.T) {
	root := t.TempDir()
	writeScenario(t, root, "b", "description: b\n")
	writeScenario(t, root, "a", "description: a\n")
	if err := os.MkdirAll(filepath.Join(root, "tom"), 0o755); err != nil {
		t.Fatal(err)
	}

	dirs, err := testutil.ListScenarios(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(dirs) != 2 || filepath.Base(dirs[0]) != "a" || filepath.Base(dirs[1]) != "b" {
		t.Errorf("unexpected scenario dirs %v", dirs)
	}
}
