// Package scope implements the svenska environment: a chain of scopes binding
// variables and functions, rooted at a global scope that also resolves
// built-in functions.
package scope

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/thomasrohde/svenska/pkg/lexer"
	"github.com/thomasrohde/svenska/pkg/stdlib"
	"github.com/thomasrohde/svenska/pkg/value"
)

// Variable is a named value binding.
type Variable struct {
	Name     string
	Value    value.Value
	Constant bool
}

// Function is a user-defined function. Its body is re-executed on every call.
type Function struct {
	Name   string
	Params []string
	Body   []lexer.Token
	ID     uuid.UUID
}

// NewFunction creates a function with a fresh ID.
func NewFunction(name string, params []string, body []lexer.Token) *Function {
	return &Function{Name: name, Params: params, Body: body, ID: uuid.New()}
}

// Scope is one level of the scope chain. The parent link is only used for
// lookups; a scope owns its own bindings and nothing else.
type Scope struct {
	name      string
	variables map[string]*Variable
	functions map[string]*Function
	parent    *Scope

	// root only
	builtins *stdlib.Registry
	out      io.Writer
}

// NewGlobal creates a root scope resolving built-ins from builtins and
// writing their output to out.
func NewGlobal(builtins *stdlib.Registry, out io.Writer) *Scope {
	if out == nil {
		out = io.Discard
	}
	return &Scope{
		name:      "global",
		variables: make(map[string]*Variable),
		functions: make(map[string]*Function),
		builtins:  builtins,
		out:       out,
	}
}

// Child creates a new scope whose parent is s.
func (s *Scope) Child(name string) *Scope {
	return &Scope{
		name:      name,
		variables: make(map[string]*Variable),
		functions: make(map[string]*Function),
		parent:    s,
	}
}

func key(name string) string {
	return strings.ToLower(name)
}

// Name returns the scope's descriptive name.
func (s *Scope) Name() string { return s.name }

// Parent returns the enclosing scope, nil for the root.
func (s *Scope) Parent() *Scope { return s.parent }

// Depth returns the number of ancestors.
func (s *Scope) Depth() int {
	d := 0
	for p := s.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// Declare binds v in this scope. It returns false, leaving the scope
// unchanged, when the name is already bound here.
func (s *Scope) Declare(v *Variable) bool {
	k := key(v.Name)
	if _, exists := s.variables[k]; exists {
		return false
	}
	s.variables[k] = v
	return true
}

// Reassign replaces the value of a variable bound in this exact scope.
// Ancestors are not searched and constants are never replaced.
func (s *Scope) Reassign(v *Variable) bool {
	existing, ok := s.variables[key(v.Name)]
	if !ok || existing.Constant {
		return false
	}
	existing.Value = v.Value
	return true
}

// Local returns the variable bound in this exact scope.
func (s *Scope) Local(name string) (*Variable, bool) {
	v, ok := s.variables[key(name)]
	return v, ok
}

// Lookup searches this scope and then each ancestor.
func (s *Scope) Lookup(name string) (*Variable, bool) {
	k := key(name)
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.variables[k]; ok {
			return v, true
		}
	}
	return nil, false
}

// Owner returns the scope in the chain, starting at s, that binds name.
func (s *Scope) Owner(name string) (*Scope, bool) {
	k := key(name)
	for sc := s; sc != nil; sc = sc.parent {
		if _, ok := sc.variables[k]; ok {
			return sc, true
		}
	}
	return nil, false
}

// DeclareFunction binds f in this scope, following the same uniqueness rule
// as Declare.
func (s *Scope) DeclareFunction(f *Function) bool {
	k := key(f.Name)
	if _, exists := s.functions[k]; exists {
		return false
	}
	s.functions[k] = f
	return true
}

// LookupFunction searches this scope and each ancestor for a user function.
func (s *Scope) LookupFunction(name string) (*Function, bool) {
	k := key(name)
	for sc := s; sc != nil; sc = sc.parent {
		if f, ok := sc.functions[k]; ok {
			return f, true
		}
	}
	return nil, false
}

// Invoke resolves name as a function. A user function is handed to onFound.
// When no user function matches, the root scope consults its built-in
// registry and runs a match directly with the textual forms of args joined
// by single spaces. The boolean result reports whether name resolved.
func (s *Scope) Invoke(name string, args []value.Value, onFound func(*Function) error) (bool, error) {
	if f, ok := s.LookupFunction(name); ok {
		return true, onFound(f)
	}
	root := s.Root()
	fn := root.builtins.Get(name)
	if fn == nil {
		return false, nil
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	if err := fn.Execute(root.out, strings.Join(parts, " ")); err != nil {
		return true, fmt.Errorf("%s: %w", fn.Name, err)
	}
	return true, nil
}

// Root returns the global scope of the chain.
func (s *Scope) Root() *Scope {
	sc := s
	for sc.parent != nil {
		sc = sc.parent
	}
	return sc
}

// Variables returns the variables bound in this exact scope, sorted by name.
func (s *Scope) Variables() []*Variable {
	out := make([]*Variable, 0, len(s.variables))
	for _, v := range s.variables {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return key(out[i].Name) < key(out[j].Name) })
	return out
}

// Functions returns the functions bound in this exact scope, sorted by name.
func (s *Scope) Functions() []*Function {
	out := make([]*Function, 0, len(s.functions))
	for _, f := range s.functions {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return key(out[i].Name) < key(out[j].Name) })
	return out
}
