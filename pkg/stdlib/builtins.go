package stdlib

import (
	"fmt"
	"io"
)

// RegisterDefaults adds the default built-ins.
func RegisterDefaults(r *Registry) {
	r.Register(Fn{Name: "skriv", Summary: "skriver argumenten följt av radbrytning", Execute: builtinSkriv})
}

// Defaults returns a registry populated by RegisterDefaults.
func Defaults() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

func builtinSkriv(w io.Writer, arg string) error {
	_, err := fmt.Fprintln(w, arg)
	return err
}
