package scope_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/thomasrohde/svenska/pkg/scope"
	"github.com/thomasrohde/svenska/pkg/stdlib"
	"github.com/thomasrohde/svenska/pkg/value"
)

func newGlobal(t *testing.T) (*scope.Scope, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return scope.NewGlobal(stdlib.Defaults(), &out), &out
}

func TestDeclareIsCaseInsensitiveAndUnique(t *testing.T) {
	g, _ := newGlobal(t)
	if !g.Declare(&scope.Variable{Name: "X", Value: value.NewNumber(1)}) {
		t.Fatal("first declaration must succeed")
	}
	if g.Declare(&scope.Variable{Name: "x", Value: value.NewNumber(2)}) {
		t.Fatal("redeclaring x in the same scope must fail")
	}
	v, ok := g.Lookup("x")
	if !ok {
		t.Fatal("expected x to resolve")
	}
	if !value.StrictEqual(v.Value, value.NewNumber(1)) {
		t.Errorf("failed declaration must not mutate, got %s", v.Value)
	}
}

func TestShadowingInChild(t *testing.T) {
	g, _ := newGlobal(t)
	g.Declare(&scope.Variable{Name: "a", Value: value.NewString("global")})
	c := g.Child("block")
	if !c.Declare(&scope.Variable{Name: "A", Value: value.NewString("local")}) {
		t.Fatal("child may shadow a parent binding")
	}
	v, _ := c.Lookup("a")
	if v.Value.String() != "local" {
		t.Errorf("expected local binding, got %s", v.Value)
	}
	v, _ = g.Lookup("a")
	if v.Value.String() != "global" {
		t.Errorf("parent binding changed: %s", v.Value)
	}
}

func TestReassignOnlyInExactScope(t *testing.T) {
	g, _ := newGlobal(t)
	g.Declare(&scope.Variable{Name: "n", Value: value.NewNumber(1)})
	c := g.Child("block")
	if c.Reassign(&scope.Variable{Name: "n", Value: value.NewNumber(5)}) {
		t.Fatal("reassign must not search ancestors")
	}
	if !g.Reassign(&scope.Variable{Name: "N", Value: value.NewNumber(5)}) {
		t.Fatal("reassign in declaring scope must succeed")
	}
	v, _ := c.Lookup("n")
	if !value.StrictEqual(v.Value, value.NewNumber(5)) {
		t.Errorf("expected 5, got %s", v.Value)
	}
}

func TestConstantsCannotBeReassigned(t *testing.T) {
	g, _ := newGlobal(t)
	g.Declare(&scope.Variable{Name: "pi", Value: value.NewNumber(3.14), Constant: true})
	if g.Reassign(&scope.Variable{Name: "pi", Value: value.NewNumber(3)}) {
		t.Fatal("constant was reassigned")
	}
}

func TestLookupMissing(t *testing.T) {
	g, _ := newGlobal(t)
	if _, ok := g.Child("a").Child("b").Lookup("saknas"); ok {
		t.Error("expected lookup to fail")
	}
}

func TestInvokeUserFunction(t *testing.T) {
	g, _ := newGlobal(t)
	f := scope.NewFunction("Hälsa", nil, nil)
	if !g.DeclareFunction(f) {
		t.Fatal("declare function failed")
	}
	if g.DeclareFunction(scope.NewFunction("hälsa", nil, nil)) {
		t.Fatal("duplicate function declaration must fail")
	}
	var called *scope.Function
	ok, err := g.Child("x").Invoke("HÄLSA", nil, func(fn *scope.Function) error {
		called = fn
		return nil
	})
	if !ok || err != nil {
		t.Fatalf("invoke: ok=%v err=%v", ok, err)
	}
	if called != f {
		t.Error("onFound did not receive the declared function")
	}
}

func TestInvokeBuiltin(t *testing.T) {
	g, out := newGlobal(t)
	args := []value.Value{value.NewString("summa:"), value.NewNumber(2.5), value.NewBoolean(true)}
	ok, err := g.Child("a").Child("b").Invoke("skriv", args, func(*scope.Function) error {
		t.Fatal("builtins must not call back")
		return nil
	})
	if !ok || err != nil {
		t.Fatalf("invoke: ok=%v err=%v", ok, err)
	}
	if out.String() != "summa: 2.5 sant\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestUserFunctionShadowsBuiltin(t *testing.T) {
	g, out := newGlobal(t)
	g.DeclareFunction(scope.NewFunction("skriv", nil, nil))
	called := false
	g.Invoke("skriv", nil, func(*scope.Function) error {
		called = true
		return nil
	})
	if !called || out.Len() != 0 {
		t.Error("expected the user function to win over the builtin")
	}
}

func TestInvokeUnresolved(t *testing.T) {
	g, _ := newGlobal(t)
	ok, err := g.Invoke("saknas", nil, func(*scope.Function) error { return nil })
	if ok || err != nil {
		t.Errorf("expected unresolved, got ok=%v err=%v", ok, err)
	}
}

func TestInvokePropagatesCallbackError(t *testing.T) {
	g, _ := newGlobal(t)
	g.DeclareFunction(scope.NewFunction("f", nil, nil))
	want := errors.New("boom")
	_, err := g.Invoke("f", nil, func(*scope.Function) error { return want })
	if !errors.Is(err, want) {
		t.Errorf("expected callback error, got %v", err)
	}
}

func TestChainHelpers(t *testing.T) {
	g, _ := newGlobal(t)
	c := g.Child("om").Child("funktion")
	if c.Depth() != 2 || c.Root() != g || c.Parent().Name() != "om" {
		t.Errorf("unexpected chain: depth=%d name=%s", c.Depth(), c.Parent().Name())
	}
	g.Declare(&scope.Variable{Name: "b", Value: value.NewNumber(1)})
	g.Declare(&scope.Variable{Name: "A", Value: value.NewNumber(2)})
	vars := g.Variables()
	if len(vars) != 2 || vars[0].Name != "A" || vars[1].Name != "b" {
		t.Errorf("unexpected variable order")
	}
	if _, ok := g.Local("a"); !ok {
		t.Error("expected local lookup to succeed")
	}
	if _, ok := c.Local("a"); ok {
		t.Error("local lookup must not search ancestors")
	}
}

func TestOwner(t *testing.T) {
	g, _ := newGlobal(t)
	g.Declare(&scope.Variable{Name: "x", Value: value.NewNumber(1)})
	mid := g.Child("mid")
	mid.Declare(&scope.Variable{Name: "y", Value: value.NewNumber(2)})
	leaf := mid.Child("leaf")
	if owner, ok := leaf.Owner("X"); !ok || owner != g {
		t.Error("expected x to be owned by the global scope")
	}
	if owner, ok := leaf.Owner("y"); !ok || owner != mid {
		t.Error("expected y to be owned by mid")
	}
	if _, ok := leaf.Owner("z"); ok {
		t.Error("z is not bound anywhere")
	}
}
