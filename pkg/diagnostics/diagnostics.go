// Package diagnostics defines svenska diagnostic types for lex, syntax and fatal errors.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Diagnostic code constants.
const (
	ELex         = "E_LEX"
	EUnexpected  = "E_UNEXPECTED"
	EOperand     = "E_OPERAND"
	EUndefined   = "E_UNDEFINED"
	EUndefinedFn = "E_UNDEFINED_FN"
	EType        = "E_TYPE"
	EArith       = "E_ARITH"
	EParen       = "E_PAREN"
	EDeclare     = "E_DECLARE"
	EConst       = "E_CONST"
	EArity       = "E_ARITY"
	EUnsupported = "E_UNSUPPORTED"
	EIO          = "E_IO"
	EDepth       = "E_DEPTH"
	EFatal       = "E_FATAL"
)

// Codes lists every diagnostic code.
var Codes = []string{
	ELex, EUnexpected, EOperand, EUndefined, EUndefinedFn, EType, EArith, EParen,
	EDeclare, EConst, EArity, EUnsupported, EIO, EDepth, EFatal,
}

// Kind classifies a diagnostic into the three error families of the language.
type Kind string

const (
	KindLex    Kind = "lex"
	KindSyntax Kind = "syntax"
	KindFatal  Kind = "fatal"
)

// KindOf returns the family a diagnostic code belongs to.
func KindOf(code string) Kind {
	switch code {
	case ELex:
		return KindLex
	case EIO, EDepth, EFatal:
		return KindFatal
	default:
		return KindSyntax
	}
}

// Span represents a source location.
type Span struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
}

func (s Span) String() string {
	file := s.File
	if file == "" {
		file = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d", file, s.Line, s.Col)
}

// Diagnostic represents a lex, syntax, or fatal diagnostic.
type Diagnostic struct {
	Code     string `json:"code"`
	Kind     Kind   `json:"kind"`
	Message  string `json:"message"`
	Token    string `json:"token,omitempty"`
	Span     *Span  `json:"span,omitempty"`
	Expected string `json:"expected,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *Span, expected string) Diagnostic {
	return Diagnostic{
		Code:     code,
		Kind:     KindOf(code),
		Message:  message,
		Span:     span,
		Expected: expected,
	}
}

// WithToken returns a copy of d naming the offending token.
func (d Diagnostic) WithToken(text string) Diagnostic {
	d.Token = text
	return d
}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	loc := "<unknown>"
	if d.Span != nil {
		loc = d.Span.String()
	}
	out := fmt.Sprintf("error[%s]: %s\n  --> %s", d.Code, d.Message, loc)
	if d.Expected != "" {
		out += fmt.Sprintf("\n  expected: %s", d.Expected)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}

// Error wraps a diagnostic as a Go error.
type Error struct {
	Diag Diagnostic
}

func (e *Error) Error() string {
	return e.Diag.Message
}

// Errorf builds an *Error with a formatted message.
func Errorf(code string, span *Span, expected, format string, args ...any) *Error {
	return &Error{Diag: MakeDiag(code, fmt.Sprintf(format, args...), span, expected)}
}
