package main

import (
	"bytes"
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/thomasrohde/svenska/internal/testutil"
	"github.com/thomasrohde/svenska/pkg/diagnostics"
	"github.com/thomasrohde/svenska/pkg/runtime"
	"github.com/thomasrohde/svenska/pkg/trace"
	"github.com/thomasrohde/svenska/pkg/value"
)

func TestConformance(t *testing.T) {
	dirs, err := testutil.ListScenarios(testutil.ScenariosDir)
	if err != nil {
		t.Fatalf("failed to list scenarios: %v", err)
	}
	if len(dirs) == 0 {
		t.Fatal("no scenarios found")
	}

	for _, dir := range dirs {
		dir := dir
		t.Run(filepath.Base(dir), func(t *testing.T) {
			scenario, err := testutil.LoadScenario(dir)
			if err != nil {
				t.Fatalf("failed to load scenario: %v", err)
			}
			runScenario(t, scenario)
		})
	}
}

func runScenario(t *testing.T, scenario *testutil.Scenario) {
	t.Helper()

	source, _, err := scenario.Source()
	if err != nil {
		t.Fatalf("failed to read program file: %v", err)
	}

	var stdout bytes.Buffer
	var rec trace.Recorder
	rt := runtime.New(
		runtime.WithConfig(scenario.Config),
		runtime.WithStdout(&stdout),
		runtime.WithTracer(&rec),
	)
	session := rt.NewSession()
	result := session.Run(context.Background(), source)

	want, _ := scenario.Status()
	if result.Status != want {
		t.Errorf("status: got %s, want %s\n%s", result.Status, want,
			diagnostics.FormatDiagnostics(result.Diagnostics, true))
	}

	expect := scenario.Expect
	if expect.Stdout != nil && stdout.String() != *expect.Stdout {
		t.Errorf("stdout: got %q, want %q", stdout.String(), *expect.Stdout)
	}
	if expect.StdoutContains != "" && !strings.Contains(stdout.String(), expect.StdoutContains) {
		t.Errorf("stdout should contain %q, got %q", expect.StdoutContains, stdout.String())
	}

	if expect.Codes != nil {
		var got []string
		for _, d := range result.Diagnostics {
			got = append(got, d.Code)
		}
		if !reflect.DeepEqual(got, expect.Codes) {
			t.Errorf("diagnostic codes: got %v, want %v", got, expect.Codes)
		}
	} else if len(result.Diagnostics) > 0 {
		t.Errorf("unexpected diagnostics:\n%s", diagnostics.FormatDiagnostics(result.Diagnostics, true))
	}

	for name, wantVal := range scenario.Globals() {
		v, ok := session.Global().Lookup(name)
		if !ok {
			t.Errorf("global %q not declared", name)
			continue
		}
		if !value.StrictEqual(v.Value, wantVal) {
			t.Errorf("global %q: got %s, want %s", name, value.Quote(v.Value), value.Quote(wantVal))
		}
	}

	for typ, n := range expect.Events {
		if got := rec.Count(trace.EventType(typ)); got != n {
			t.Errorf("%s events: got %d, want %d", typ, got, n)
		}
	}
}

func TestScenarioExpectationsAreComplete(t *testing.T) {
	dirs, err := testutil.ListScenarios(testutil.ScenariosDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, dir := range dirs {
		s, err := testutil.LoadScenario(dir)
		if err != nil {
			t.Errorf("%s: %v", dir, err)
			continue
		}
		st, _ := s.Status()
		if st.ExitCode() != 0 && len(s.Expect.Codes) == 0 {
			t.Errorf("%s: failing scenario must list its diagnostic codes", s.Name)
		}
		if s.Description == "" {
			t.Errorf("%s: missing description", s.Name)
		}
	}
}
