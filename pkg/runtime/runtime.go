// Package runtime provides the top-level svenska runtime orchestrator.
package runtime

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/thomasrohde/svenska/pkg/config"
	"github.com/thomasrohde/svenska/pkg/diagnostics"
	"github.com/thomasrohde/svenska/pkg/executor"
	"github.com/thomasrohde/svenska/pkg/lexer"
	"github.com/thomasrohde/svenska/pkg/scope"
	"github.com/thomasrohde/svenska/pkg/stdlib"
	"github.com/thomasrohde/svenska/pkg/trace"
)

// Result holds the outcome of a program execution.
type Result struct {
	Status      executor.Status
	Diagnostics []diagnostics.Diagnostic
}

// Runtime wires together the lexer, scopes, executor, reporter and tracer.
type Runtime struct {
	stdlib     *stdlib.Registry
	stdout     io.Writer
	reporter   diagnostics.Reporter
	tracer     trace.Tracer
	maxDepth   int
	unresolved executor.Status
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithStdlib sets the built-in registry.
func WithStdlib(r *stdlib.Registry) Option {
	return func(rt *Runtime) {
		rt.stdlib = r
	}
}

// WithStdout sets where built-ins write.
func WithStdout(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.stdout = w
	}
}

// WithReporter sets the reporter that receives diagnostics as they occur.
func WithReporter(r diagnostics.Reporter) Option {
	return func(rt *Runtime) {
		rt.reporter = r
	}
}

// WithTracer sets the tracing sink.
func WithTracer(t trace.Tracer) Option {
	return func(rt *Runtime) {
		rt.tracer = t
	}
}

// WithMaxDepth sets the block nesting limit.
func WithMaxDepth(n int) Option {
	return func(rt *Runtime) {
		rt.maxDepth = n
	}
}

// WithUnresolvedCallStatus sets the status for calls to unknown functions.
func WithUnresolvedCallStatus(s executor.Status) Option {
	return func(rt *Runtime) {
		rt.unresolved = s
	}
}

// WithConfig applies the interpreter settings of cfg.
func WithConfig(cfg *config.Config) Option {
	return func(rt *Runtime) {
		rt.maxDepth = cfg.MaxDepth
		rt.unresolved = cfg.UnresolvedStatus()
	}
}

// New creates a new Runtime with the given options.
// By default the default built-ins are registered and output goes to stdout.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		stdlib:     stdlib.Defaults(),
		stdout:     os.Stdout,
		reporter:   diagnostics.Discard,
		tracer:     trace.Nop,
		maxDepth:   executor.DefaultMaxDepth,
		unresolved: executor.FatalError,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Runtime) executor(r diagnostics.Reporter) *executor.Executor {
	return executor.New(r,
		executor.WithTracer(rt.tracer),
		executor.WithMaxDepth(rt.maxDepth),
		executor.WithUnresolvedCallStatus(rt.unresolved),
	)
}

// Run tokenizes and executes a program in a fresh global scope.
func (rt *Runtime) Run(ctx context.Context, source, filename string) *Result {
	global := scope.NewGlobal(rt.stdlib, rt.stdout)
	return rt.runIn(ctx, source, filename, global)
}

// RunFile reads and runs the program at path. A read failure is a
// FatalError.
func (rt *Runtime) RunFile(ctx context.Context, path string) *Result {
	source, err := os.ReadFile(path)
	if err != nil {
		d := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", path), nil, "a readable file")
		rt.reporter.Report(d)
		return &Result{Status: executor.FatalError, Diagnostics: []diagnostics.Diagnostic{d}}
	}
	return rt.Run(ctx, string(source), path)
}

// runIn is the FatalError boundary: every run ends with exactly one status,
// including runs that panic.
func (rt *Runtime) runIn(ctx context.Context, source, filename string, global *scope.Scope) (res *Result) {
	var collected diagnostics.Collector
	reporter := diagnostics.Tee(&collected, rt.reporter)
	res = &Result{}

	rt.tracer.Emit(trace.Event{Event: trace.EventRunStart, Data: map[string]string{"file": filename}})
	defer func() {
		if p := recover(); p != nil {
			reporter.Report(diagnostics.MakeDiag(diagnostics.EFatal, fmt.Sprintf("internal error: %v", p), nil, ""))
			res.Status = executor.FatalError
		}
		res.Diagnostics = collected.Diagnostics
		rt.tracer.Emit(trace.Event{Event: trace.EventRunEnd, Data: map[string]string{"status": res.Status.String()}})
	}()

	tokens, lexDiags := lexer.Tokenize(source, filename)
	rt.tracer.Tokens(tokens)
	for _, d := range lexDiags {
		reporter.Report(d)
	}

	res.Status = rt.executor(reporter).ExecuteContext(ctx, tokens, global)
	return res
}

// Session keeps one global scope across several runs, for interactive use.
type Session struct {
	rt     *Runtime
	global *scope.Scope
	inputs int
}

// NewSession creates a session with an empty global scope.
func (rt *Runtime) NewSession() *Session {
	return &Session{rt: rt, global: scope.NewGlobal(rt.stdlib, rt.stdout)}
}

// Run executes source against the session's global scope. Declarations
// persist across calls; a failed input leaves earlier bindings intact.
func (s *Session) Run(ctx context.Context, source string) *Result {
	s.inputs++
	return s.rt.runIn(ctx, source, fmt.Sprintf("<repl:%d>", s.inputs), s.global)
}

// Global returns the session's global scope.
func (s *Session) Global() *scope.Scope {
	return s.global
}

// Incomplete reports whether source ends inside a string literal or an
// unclosed så … klar block, so an interactive reader should ask for more.
func Incomplete(source string) bool {
	tokens, diags := lexer.Tokenize(source, "")
	for _, d := range diags {
		if d.Message == lexer.MsgUnterminated {
			return true
		}
	}
	depth := 0
	for _, t := range tokens {
		switch t.Type {
		case lexer.TokThen:
			depth++
		case lexer.TokDone:
			depth--
		}
	}
	return depth > 0
}
