// Package stdlib provides the svenska built-in function registry.
package stdlib

import (
	"io"
	"sort"
	"strings"
)

// Fn represents a built-in function. Built-ins take the textual form of their
// arguments as a single string and return nothing to the program.
type Fn struct {
	Name    string
	Summary string
	Execute func(w io.Writer, arg string) error
}

// Registry holds registered built-in functions keyed by case-folded name.
type Registry struct {
	fns map[string]*Fn
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		fns: make(map[string]*Fn),
	}
}

// Register adds a built-in function to the registry.
func (r *Registry) Register(fn Fn) {
	fn.Name = strings.ToLower(fn.Name)
	r.fns[fn.Name] = &fn
}

// Get retrieves a built-in by name, or nil.
func (r *Registry) Get(name string) *Fn {
	if r == nil {
		return nil
	}
	return r.fns[strings.ToLower(name)]
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fns))
	for name := range r.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
