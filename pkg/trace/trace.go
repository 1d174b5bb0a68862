// Package trace defines the observational sink the interpreter reports its
// decisions to. Tracing never affects control flow or results.
package trace

import (
	"encoding/json"

	"github.com/thomasrohde/svenska/pkg/diagnostics"
	"github.com/thomasrohde/svenska/pkg/lexer"
	"github.com/thomasrohde/svenska/pkg/value"
)

// EventType identifies the type of a trace event.
type EventType string

const (
	EventRunStart      EventType = "run_start"
	EventRunEnd        EventType = "run_end"
	EventTokens        EventType = "tokens"
	EventDeclare       EventType = "declare"
	EventReassign      EventType = "reassign"
	EventFnDeclare     EventType = "fn_declare"
	EventCall          EventType = "call"
	EventBuiltin       EventType = "builtin"
	EventBranchTaken   EventType = "branch_taken"
	EventBranchSkipped EventType = "branch_skipped"
	EventElseTaken     EventType = "else_taken"
	EventError         EventType = "error"
)

// Event is a single trace event. Timestamp and RunID are filled in by sinks
// that persist events.
type Event struct {
	Timestamp string            `json:"ts,omitempty"`
	RunID     string            `json:"runId,omitempty"`
	Event     EventType         `json:"event"`
	Span      *diagnostics.Span `json:"span,omitempty"`
	Scope     string            `json:"scope,omitempty"`
	Depth     int               `json:"depth,omitempty"`
	Name      string            `json:"name,omitempty"`
	Message   string            `json:"message,omitempty"`
	Value     json.RawMessage   `json:"value,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// New creates an event positioned at tok.
func New(typ EventType, tok lexer.Token, message string) Event {
	span := tok.Span
	return Event{Event: typ, Span: &span, Message: message}
}

// WithValue returns a copy of e carrying v in JSON form.
func (e Event) WithValue(v value.Value) Event {
	if b, err := value.ToJSON(v); err == nil {
		e.Value = b
	}
	return e
}

// Tracer receives the token stream once per run and every executor decision.
type Tracer interface {
	Tokens(tokens []lexer.Token)
	Emit(e Event)
}

type nop struct{}

func (nop) Tokens([]lexer.Token) {}
func (nop) Emit(Event) {}

// Nop is a tracer that ignores everything.
var Nop Tracer = nop{}

// Multi fans out to every non-nil tracer.
func Multi(tracers ...Tracer) Tracer {
	var live []Tracer
	for _, t := range tracers {
		if t != nil && t != Nop {
			live = append(live, t)
		}
	}
	switch len(live) {
	case 0:
		return Nop
	case 1:
		return live[0]
	}
	return multi(live)
}

type multi []Tracer

func (m multi) Tokens(tokens []lexer.Token) {
	for _, t := range m {
		t.Tokens(tokens)
	}
}

func (m multi) Emit(e Event) {
	for _, t := range m {
		t.Emit(e)
	}
}

// Recorder keeps events in memory.
type Recorder struct {
	TokenCount int
	Events     []Event
}

// Tokens records the number of tokens.
func (r *Recorder) Tokens(tokens []lexer.Token) {
	r.TokenCount = len(tokens)
}

// Emit appends e.
func (r *Recorder) Emit(e Event) {
	r.Events = append(r.Events, e)
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []EventType {
	out := make([]EventType, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Event
	}
	return out
}

// Count returns how many events of typ were recorded.
func (r *Recorder) Count(typ EventType) int {
	n := 0
	for _, e := range r.Events {
		if e.Event == typ {
			n++
		}
	}
	return n
}
