// Package evaluator reduces a flat span of tokens to a single value.
//
// There is no expression tree. Operators are resolved in fixed tiers: for
// each tier the span is scanned left to right, the operands around a match
// are evaluated recursively, and the match is replaced by one synthesized
// Value token until the tier no longer occurs.
package evaluator

import (
	"errors"
	"fmt"
	"math"

	"github.com/thomasrohde/svenska/pkg/diagnostics"
	"github.com/thomasrohde/svenska/pkg/lexer"
	"github.com/thomasrohde/svenska/pkg/scope"
	"github.com/thomasrohde/svenska/pkg/value"
)

// Tiers lists operator symbols in reduction order; earlier tiers bind tighter.
var Tiers = []string{
	"^", "/", "*", "-", "+", "&", "|",
	"=", "==", "!", "!=", "<", ">", "<=", ">=", "||", "&&",
}

// Resolver resolves variable names. *scope.Scope implements it.
type Resolver interface {
	Lookup(name string) (*scope.Variable, bool)
}

// Evaluator evaluates token spans against a scope.
type Evaluator struct {
	reporter diagnostics.Reporter
}

// New creates an evaluator reporting failures to r. A nil reporter discards them.
func New(r diagnostics.Reporter) *Evaluator {
	if r == nil {
		r = diagnostics.Discard
	}
	return &Evaluator{reporter: r}
}

// Evaluate returns the value of span. Failures are reported and yield Undefined.
func (ev *Evaluator) Evaluate(span []lexer.Token, sc Resolver) value.Value {
	v, err := ev.Eval(span, sc)
	if err != nil {
		ev.reporter.Report(diagnosticOf(err))
		return value.NewUndefined()
	}
	return v
}

// Eval returns the value of span, or the first error encountered.
// An empty span is Undefined without error.
func (ev *Evaluator) Eval(span []lexer.Token, sc Resolver) (value.Value, error) {
	if len(span) == 0 {
		return value.NewUndefined(), nil
	}
	if err := checkParens(span); err != nil {
		return nil, err
	}
	for len(span) > 2 && span[0].IsOpen() && matching(span, 0) == len(span)-1 {
		span = span[1 : len(span)-1]
	}
	span = normalize(span)

	if len(span) == 2 && span[0].IsOp("-") && span[1].Type == lexer.TokNumber {
		n := span[1].Literal.(value.NumberValue)
		return value.NewNumber(-n.Value), nil
	}
	if len(span) == 1 {
		return single(span[0], sc)
	}

	for _, op := range Tiers {
		for {
			i := find(span, op)
			if i < 0 {
				break
			}
			next, err := ev.reduce(span, i, sc)
			if err != nil {
				return nil, err
			}
			span = next
		}
	}

	if len(span) != 1 {
		extra := span[1]
		return nil, errorAt(diagnostics.EUnexpected, extra, "operator",
			"unexpected %s %q in expression", extra.Type, extra.Text)
	}
	return single(span[0], sc)
}

func diagnosticOf(err error) diagnostics.Diagnostic {
	var de *diagnostics.Error
	if errors.As(err, &de) {
		return de.Diag
	}
	return diagnostics.MakeDiag(diagnostics.EFatal, err.Error(), nil, "")
}

func errorAt(code string, tok lexer.Token, expected, format string, args ...any) *diagnostics.Error {
	span := tok.Span
	e := diagnostics.Errorf(code, &span, expected, format, args...)
	e.Diag = e.Diag.WithToken(tok.Text)
	return e
}

func single(tok lexer.Token, sc Resolver) (value.Value, error) {
	switch tok.Type {
	case lexer.TokIdent:
		if v, ok := sc.Lookup(tok.Text); ok {
			return v.Value, nil
		}
		return nil, errorAt(diagnostics.EUndefined, tok, "a declared variable",
			"undefined variable %q", tok.Text)
	case lexer.TokNumber, lexer.TokString, lexer.TokBoolean, lexer.TokValue:
		return tok.Literal, nil
	case lexer.TokIllegal:
		return nil, errorAt(diagnostics.EUnexpected, tok, "a well-formed literal",
			"malformed token %q", tok.Text)
	default:
		return nil, errorAt(diagnostics.EUnexpected, tok, "value",
			"unexpected %s %q", tok.Type, tok.Text)
	}
}

func checkParens(span []lexer.Token) error {
	depth := 0
	var open lexer.Token
	for _, t := range span {
		switch {
		case t.IsOpen():
			if depth == 0 {
				open = t
			}
			depth++
		case t.IsClose():
			depth--
			if depth < 0 {
				return errorAt(diagnostics.EParen, t, "matching (", "unbalanced parenthesis")
			}
		}
	}
	if depth > 0 {
		return errorAt(diagnostics.EParen, open, "matching )", "unclosed parenthesis")
	}
	return nil
}

// matching returns the index of the parenthesis closing span[open], or -1.
func matching(span []lexer.Token, open int) int {
	depth := 0
	for i := open; i < len(span); i++ {
		switch {
		case span[i].IsOpen():
			depth++
		case span[i].IsClose():
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func withOp(t lexer.Token, typ lexer.TokenType, op string) lexer.Token {
	t.Type = typ
	t.Op = op
	return t
}

func isComparison(t lexer.Token) bool {
	switch {
	case t.Type == lexer.TokEqual:
		return true
	case t.Type != lexer.TokOperator:
		return false
	}
	switch t.Op {
	case "<", ">", "<=", ">=", "!", "!=":
		return true
	}
	return false
}

var negated = map[string]string{
	"<":  ">=",
	">":  "<=",
	"<=": ">",
	">=": "<",
}

// normalize rewrites natural-language comparison phrases into operators and
// returns a fresh slice:
//
//	a är b            a = b
//	a är lika med b   a = b
//	a är mindre än b  a < b
//	a är inte b       a != b
//	a inte lika b     a != b
//	a är inte större  a <= b
func normalize(span []lexer.Token) []lexer.Token {
	out := make([]lexer.Token, 0, len(span))
	for i := 0; i < len(span); i++ {
		t := span[i]
		var next lexer.Token
		hasNext := i+1 < len(span)
		if hasNext {
			next = span[i+1]
		}
		switch {
		case t.Type == lexer.TokWhitespace, t.Type == lexer.TokComment, t.Type == lexer.TokNewline:
		case t.Type == lexer.TokIs:
			if hasNext && isComparison(next) {
				continue
			}
			out = append(out, withOp(t, lexer.TokEqual, "="))
		case t.IsOp("!") && hasNext && next.IsOp("="):
			out = append(out, withOp(t, lexer.TokOperator, "!="))
			i++
		case t.IsOp("!") && len(out) > 0 && out[len(out)-1].EndsOperand():
			if op, ok := negated[next.Op]; hasNext && ok && next.Type == lexer.TokOperator {
				out = append(out, withOp(t, lexer.TokOperator, op))
				i++
				continue
			}
			out = append(out, withOp(t, lexer.TokOperator, "!="))
		default:
			out = append(out, t)
		}
	}
	return out
}

// find returns the index of the first depth-0 operator token for op, or -1.
func find(span []lexer.Token, op string) int {
	depth := 0
	for i, t := range span {
		switch {
		case t.IsOpen():
			depth++
		case t.IsClose():
			depth--
		case depth == 0 && t.IsOp(op):
			return i
		}
	}
	return -1
}

// leftStart returns the start index of the operand ending just before i, or
// i when there is none.
func leftStart(span []lexer.Token, i int) int {
	depth := 0
	j := i - 1
	for ; j >= 0; j-- {
		t := span[j]
		switch {
		case t.IsClose():
			depth++
		case t.IsOpen():
			depth--
		case depth == 0 && t.IsOperator():
			return j + 1
		}
	}
	return 0
}

// rightEnd returns the exclusive end index of the operand starting at i+1.
// The operand may carry one unary prefix. It returns i+1 when there is none.
func rightEnd(span []lexer.Token, i int) int {
	k := i + 1
	if k < len(span) && (span[k].IsOp("-") || span[k].IsOp("!")) {
		k++
	}
	if k >= len(span) || span[k].IsOperator() {
		return i + 1
	}
	depth := 0
	for ; k < len(span); k++ {
		t := span[k]
		switch {
		case t.IsOpen():
			depth++
		case t.IsClose():
			depth--
		case depth == 0 && t.IsOperator():
			return k
		}
	}
	return k
}

// replace returns a new span with span[from:to] replaced by a Value token.
func replace(span []lexer.Token, from, to int, at lexer.Token, v value.Value) []lexer.Token {
	out := make([]lexer.Token, 0, len(span)-(to-from)+1)
	out = append(out, span[:from]...)
	out = append(out, lexer.Token{Type: lexer.TokValue, Text: v.String(), Literal: v, Span: at.Span})
	return append(out, span[to:]...)
}

func (ev *Evaluator) reduce(span []lexer.Token, i int, sc Resolver) ([]lexer.Token, error) {
	opTok := span[i]
	from := leftStart(span, i)
	to := rightEnd(span, i)
	if to == i+1 {
		return nil, errorAt(diagnostics.EOperand, opTok, "right operand",
			"missing right operand for %q", opTok.Op)
	}
	right, err := ev.Eval(span[i+1:to], sc)
	if err != nil {
		return nil, err
	}

	if from == i {
		v, err := unary(opTok, right)
		if err != nil {
			return nil, err
		}
		return replace(span, i, to, opTok, v), nil
	}

	left, err := ev.Eval(span[from:i], sc)
	if err != nil {
		return nil, err
	}
	v, err := binary(opTok, left, right)
	if err != nil {
		return nil, err
	}
	return replace(span, from, to, opTok, v), nil
}

func unary(opTok lexer.Token, operand value.Value) (value.Value, error) {
	switch opTok.Op {
	case "-":
		n, ok := operand.(value.NumberValue)
		if !ok {
			return nil, typeError(opTok, "operand", value.Number, operand)
		}
		return value.NewNumber(-n.Value), nil
	case "!":
		b, ok := operand.(value.BooleanValue)
		if !ok {
			return nil, typeError(opTok, "operand", value.Boolean, operand)
		}
		return value.NewBoolean(!b.Value), nil
	}
	return nil, errorAt(diagnostics.EOperand, opTok, "left operand",
		"missing left operand for %q", opTok.Op)
}

func typeError(opTok lexer.Token, side string, want value.DataType, got value.Value) *diagnostics.Error {
	return errorAt(diagnostics.EType, opTok, want.String(),
		"%s of %q must be %s, got %s", side, opTok.Op, want, value.TypeOf(got))
}

func numbers(opTok lexer.Token, left, right value.Value) (float64, float64, error) {
	l, ok := left.(value.NumberValue)
	if !ok {
		return 0, 0, typeError(opTok, "left operand", value.Number, left)
	}
	r, ok := right.(value.NumberValue)
	if !ok {
		return 0, 0, typeError(opTok, "right operand", value.Number, right)
	}
	return l.Value, r.Value, nil
}

func booleans(opTok lexer.Token, left, right value.Value) (bool, bool, error) {
	l, ok := left.(value.BooleanValue)
	if !ok {
		return false, false, typeError(opTok, "left operand", value.Boolean, left)
	}
	r, ok := right.(value.BooleanValue)
	if !ok {
		return false, false, typeError(opTok, "right operand", value.Boolean, right)
	}
	return l.Value, r.Value, nil
}

func binary(opTok lexer.Token, left, right value.Value) (value.Value, error) {
	switch opTok.Op {
	case "+":
		l, lok := left.(value.NumberValue)
		r, rok := right.(value.NumberValue)
		if lok && rok {
			return value.NewNumber(l.Value + r.Value), nil
		}
		return value.NewString(left.String() + right.String()), nil

	case "^", "/", "*", "-", "&", "|":
		l, r, err := numbers(opTok, left, right)
		if err != nil {
			return nil, err
		}
		switch opTok.Op {
		case "^":
			return value.NewNumber(math.Pow(l, r)), nil
		case "/":
			if r == 0 {
				return nil, errorAt(diagnostics.EArith, opTok, "nonzero divisor", "division by zero")
			}
			return value.NewNumber(l / r), nil
		case "*":
			return value.NewNumber(l * r), nil
		case "-":
			return value.NewNumber(l - r), nil
		case "&":
			return value.NewNumber(float64(int64(l) & int64(r))), nil
		default:
			return value.NewNumber(float64(int64(l) | int64(r))), nil
		}

	case "=":
		return value.NewBoolean(value.Equal(left, right)), nil
	case "==":
		return value.NewBoolean(value.StrictEqual(left, right)), nil
	case "!=":
		return value.NewBoolean(!value.Equal(left, right)), nil

	case "<", ">", "<=", ">=":
		return compare(opTok, left, right)

	case "&&", "||":
		l, r, err := booleans(opTok, left, right)
		if err != nil {
			return nil, err
		}
		if opTok.Op == "&&" {
			return value.NewBoolean(l && r), nil
		}
		return value.NewBoolean(l || r), nil
	}
	return nil, errorAt(diagnostics.EUnexpected, opTok, "binary operator",
		"%q cannot take a left operand", opTok.Op)
}

func compare(opTok lexer.Token, left, right value.Value) (value.Value, error) {
	var c int
	switch l := left.(type) {
	case value.NumberValue:
		r, ok := right.(value.NumberValue)
		if !ok {
			return nil, typeError(opTok, "right operand", value.Number, right)
		}
		c = cmp(l.Value, r.Value)
	case value.StringValue:
		r, ok := right.(value.StringValue)
		if !ok {
			return nil, typeError(opTok, "right operand", value.String, right)
		}
		c = cmp(l.Value, r.Value)
	default:
		return nil, errorAt(diagnostics.EType, opTok, "Number or String",
			"left operand of %q must be Number or String, got %s", opTok.Op, value.TypeOf(left))
	}
	var out bool
	switch opTok.Op {
	case "<":
		out = c < 0
	case ">":
		out = c > 0
	case "<=":
		out = c <= 0
	default:
		out = c >= 0
	}
	return value.NewBoolean(out), nil
}

func cmp[T float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// String renders a span for diagnostics and traces.
func String(span []lexer.Token) string {
	return fmt.Sprintf("[%s]", lexer.Join(span))
}
