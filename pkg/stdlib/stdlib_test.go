package stdlib_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/thomasrohde/svenska/pkg/stdlib"
)

func TestDefaultsRegistersSkriv(t *testing.T) {
	r := stdlib.Defaults()
	fn := r.Get("SKRIV")
	if fn == nil {
		t.Fatal("expected skriv to be registered")
	}
	var buf bytes.Buffer
	if err := fn.Execute(&buf, "Hej Världen"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "Hej Världen\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	r := stdlib.NewRegistry()
	noop := func(io.Writer, string) error { return nil }
	r.Register(stdlib.Fn{Name: "Visa", Execute: noop})
	r.Register(stdlib.Fn{Name: "ask", Execute: noop})
	names := r.Names()
	if len(names) != 2 || names[0] != "ask" || names[1] != "visa" {
		t.Errorf("unexpected names %v", names)
	}
}

func TestGetUnknown(t *testing.T) {
	var nilRegistry *stdlib.Registry
	if nilRegistry.Get("skriv") != nil {
		t.Error("nil registry must not resolve anything")
	}
	if stdlib.Defaults().Get("saknas") != nil {
		t.Error("expected nil for unknown builtin")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("stängd") }

func TestSkrivPropagatesWriteErrors(t *testing.T) {
	fn := stdlib.Defaults().Get("skriv")
	if err := fn.Execute(failingWriter{}, "x"); err == nil {
		t.Error("expected write error")
	}
}
