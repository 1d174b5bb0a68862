// Package executor runs svenska programs by walking the token stream with a
// cursor. Each block (the program, a branch body, a function body) is executed
// by a recursive call that owns exactly one new child scope.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/thomasrohde/svenska/pkg/diagnostics"
	"github.com/thomasrohde/svenska/pkg/evaluator"
	"github.com/thomasrohde/svenska/pkg/lexer"
	"github.com/thomasrohde/svenska/pkg/scope"
	"github.com/thomasrohde/svenska/pkg/trace"
	"github.com/thomasrohde/svenska/pkg/value"
)

// DefaultMaxDepth bounds block nesting, including recursive calls.
const DefaultMaxDepth = 256

// Branch is a parsed conditional: the body between så and its matching klar,
// split at a top-level annars.
type Branch struct {
	Condition []lexer.Token
	Body      []lexer.Token
	Else      []lexer.Token
	HasElse   bool
	ID        uuid.UUID
}

// Executor executes token blocks. It holds configuration only; per-run state
// lives in the run started by Execute.
type Executor struct {
	eval       *evaluator.Evaluator
	reporter   diagnostics.Reporter
	tracer     trace.Tracer
	maxDepth   int
	unresolved Status
}

// Option configures an Executor.
type Option func(*Executor)

// WithTracer sets the tracing sink.
func WithTracer(t trace.Tracer) Option {
	return func(x *Executor) {
		if t != nil {
			x.tracer = t
		}
	}
}

// WithMaxDepth sets the nesting limit.
func WithMaxDepth(n int) Option {
	return func(x *Executor) {
		if n > 0 {
			x.maxDepth = n
		}
	}
}

// WithUnresolvedCallStatus sets the status returned when a called function
// cannot be resolved.
func WithUnresolvedCallStatus(s Status) Option {
	return func(x *Executor) {
		if s == SyntaxError || s == FatalError {
			x.unresolved = s
		}
	}
}

// New creates an executor that reports diagnostics to r.
func New(r diagnostics.Reporter, opts ...Option) *Executor {
	if r == nil {
		r = diagnostics.Discard
	}
	x := &Executor{
		eval:       evaluator.New(r),
		reporter:   r,
		tracer:     trace.Nop,
		maxDepth:   DefaultMaxDepth,
		unresolved: FatalError,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Execute runs tokens in a new child scope of enclosing.
func (x *Executor) Execute(tokens []lexer.Token, enclosing *scope.Scope) Status {
	return x.ExecuteContext(context.Background(), tokens, enclosing)
}

// ExecuteContext is like Execute but stops with FatalError once ctx is done.
// The context is checked between statements.
func (x *Executor) ExecuteContext(ctx context.Context, tokens []lexer.Token, enclosing *scope.Scope) Status {
	r := &run{Executor: x, ctx: ctx}
	return r.execute(tokens, enclosing, "program")
}

type run struct {
	*Executor
	ctx   context.Context
	depth int
}

// statusError carries a failure status that has already been reported out
// of an Invoke callback.
type statusError struct {
	status Status
}

func (e *statusError) Error() string { return e.status.String() }

func (r *run) report(d diagnostics.Diagnostic, scopeName string) {
	r.reporter.Report(d)
	ev := trace.Event{Event: trace.EventError, Span: d.Span, Scope: scopeName, Name: d.Code, Message: d.Message}
	r.tracer.Emit(ev)
}

// fail reports a diagnostic positioned at tok and returns the status its
// kind maps to.
func (r *run) fail(sc *scope.Scope, code string, tok lexer.Token, expected, format string, args ...any) Status {
	span := tok.Span
	d := diagnostics.MakeDiag(code, fmt.Sprintf(format, args...), &span, expected).WithToken(tok.Text)
	r.report(d, sc.Name())
	return statusOf(d.Kind)
}

func (r *run) failErr(sc *scope.Scope, err error) Status {
	var de *diagnostics.Error
	if errors.As(err, &de) {
		r.report(de.Diag, sc.Name())
		return statusOf(de.Diag.Kind)
	}
	r.report(diagnostics.MakeDiag(diagnostics.EFatal, err.Error(), nil, ""), sc.Name())
	return FatalError
}

func statusOf(k diagnostics.Kind) Status {
	if k == diagnostics.KindFatal {
		return FatalError
	}
	return SyntaxError
}

func (r *run) event(typ trace.EventType, tok lexer.Token, sc *scope.Scope, name, message string) trace.Event {
	ev := trace.New(typ, tok, message)
	ev.Scope = sc.Name()
	ev.Depth = sc.Depth()
	ev.Name = name
	return ev
}

// execute runs tokens in a new child scope of enclosing, with bind declared
// in that child first.
func (r *run) execute(tokens []lexer.Token, enclosing *scope.Scope, name string, bind ...*scope.Variable) Status {
	r.depth++
	defer func() { r.depth-- }()

	local := enclosing.Child(name)
	cur := NewCursor(tokens)
	if r.depth > r.maxDepth {
		return r.fail(local, diagnostics.EDepth, cur.Peek(), "",
			"nesting deeper than %d blocks", r.maxDepth)
	}
	for _, v := range bind {
		local.Declare(v)
	}

	for {
		if err := r.ctx.Err(); err != nil {
			return r.fail(local, diagnostics.EFatal, cur.Peek(), "", "run cancelled: %v", err)
		}
		tok := cur.Next()
		var st Status
		switch tok.Type {
		case lexer.TokEOF:
			return Success
		case lexer.TokNewline, lexer.TokAnd, lexer.TokParen, lexer.TokBrace:
			continue
		case lexer.TokIdent:
			st = r.identifier(tok, cur, local, enclosing)
		case lexer.TokIf:
			st = r.conditional(tok, cur, local)
		case lexer.TokAction:
			st = r.action(tok, cur, local, enclosing)
		default:
			st = r.fail(local, diagnostics.EUnexpected, tok, "instruction",
				"unexpected %s %q", tok.Type, tok.Text)
		}
		if st != Success {
			return st
		}
	}
}

func isAssign(t lexer.Token) bool {
	return t.Type == lexer.TokEqual && t.Op == "="
}

// collectParams consumes the tokens following a statement's leading
// identifier up to an assignment marker, a statement separator or the end.
func collectParams(cur *Cursor) []lexer.Token {
	var params []lexer.Token
	depth := 0
	for {
		p := cur.Peek()
		switch {
		case p.Type == lexer.TokEOF, p.Type == lexer.TokNewline:
			return params
		case depth == 0 && (isAssign(p) || p.Type == lexer.TokAnd):
			return params
		case p.IsOpen():
			depth++
		case p.IsClose():
			depth--
		}
		params = append(params, cur.Next())
	}
}

// collectExpression consumes the tokens that can belong to an expression.
// Outside parentheses och ends the statement, as does an unmatched closing
// parenthesis.
func collectExpression(cur *Cursor) []lexer.Token {
	var expr []lexer.Token
	depth := 0
	for {
		p := cur.Peek()
		switch p.Type {
		case lexer.TokAnd:
			if depth == 0 {
				return expr
			}
		case lexer.TokParen:
			if p.IsOpen() {
				depth++
			} else if depth == 0 {
				return expr
			} else {
				depth--
			}
		case lexer.TokNumber, lexer.TokString, lexer.TokBoolean, lexer.TokIdent,
			lexer.TokValue, lexer.TokOperator, lexer.TokEqual, lexer.TokIs,
			lexer.TokOr, lexer.TokSeparator, lexer.TokIllegal:
		default:
			return expr
		}
		expr = append(expr, cur.Next())
	}
}

func (r *run) identifier(name lexer.Token, cur *Cursor, local, enclosing *scope.Scope) Status {
	params := collectParams(cur)
	if !isAssign(cur.Peek()) {
		return r.call(name, params, local)
	}
	eq := cur.Next()

	if cur.Peek().Type == lexer.TokThen {
		return r.declareFunction(name, params, cur, local, enclosing)
	}
	if len(params) > 0 {
		return r.fail(local, diagnostics.EUnsupported, params[0], "så … klar",
			"function %q with parameters needs a så … klar body", name.Text)
	}

	v, st := r.definable(eq, collectExpression(cur), local)
	if st != Success {
		return st
	}
	return r.assign(name, v, local, enclosing)
}

// definable evaluates the right-hand side of a declaration.
func (r *run) definable(eq lexer.Token, expr []lexer.Token, local *scope.Scope) (value.Value, Status) {
	if len(expr) == 0 {
		return nil, r.fail(local, diagnostics.EUnexpected, eq, "definable value",
			"nothing to assign after %q", eq.Text)
	}
	v, err := r.eval.Eval(expr, local)
	if err != nil {
		return nil, r.failErr(local, err)
	}
	return v, Success
}

// assign binds name in the scope that already owns it, starting the search
// at local, or declares it in enclosing. Bindings made by a block or a
// function body are therefore visible to the code that invoked it.
// A block can never shadow a name it can already see.
func (r *run) assign(name lexer.Token, v value.Value, local, enclosing *scope.Scope) Status {
	variable := &scope.Variable{Name: name.Text, Value: v}
	if owner, ok := local.Owner(name.Text); ok {
		if !owner.Reassign(variable) {
			return r.fail(local, diagnostics.EConst, name, "a variable",
				"cannot reassign constant %q", name.Text)
		}
		r.tracer.Emit(r.event(trace.EventReassign, name, owner, name.Text,
			name.Text+" = "+value.Quote(v)).WithValue(v))
		return Success
	}
	if !enclosing.Declare(variable) {
		return r.fail(local, diagnostics.EDeclare, name, "a new name",
			"cannot declare %q", name.Text)
	}
	r.tracer.Emit(r.event(trace.EventDeclare, name, enclosing, name.Text,
		name.Text+" = "+value.Quote(v)).WithValue(v))
	return Success
}

func (r *run) declareFunction(name lexer.Token, params []lexer.Token, cur *Cursor, local, enclosing *scope.Scope) Status {
	var names []string
	for _, p := range params {
		switch p.Type {
		case lexer.TokParen, lexer.TokSeparator:
			continue
		case lexer.TokIdent:
			names = append(names, p.Text)
		default:
			return r.fail(local, diagnostics.EUnexpected, p, "parameter name",
				"unexpected %s %q in parameter list", p.Type, p.Text)
		}
	}

	then := cur.Next()
	br, st := r.block(then, cur, local)
	if st != Success {
		return st
	}
	if br.HasElse {
		return r.fail(local, diagnostics.EUnexpected, then, "klar",
			"annars in the body of function %q", name.Text)
	}

	fn := scope.NewFunction(name.Text, names, br.Body)
	if !enclosing.DeclareFunction(fn) {
		return r.fail(local, diagnostics.EDeclare, name, "a new name",
			"function %q is already declared", name.Text)
	}
	ev := r.event(trace.EventFnDeclare, name, enclosing, name.Text,
		fmt.Sprintf("%s(%d) %s", name.Text, len(names), evaluator.String(br.Body)))
	ev.Data = map[string]string{"id": fn.ID.String()}
	r.tracer.Emit(ev)
	return Success
}

// splitArgs strips one pair of parentheses wrapping all params and splits
// the rest at top-level commas.
func splitArgs(params []lexer.Token) [][]lexer.Token {
	if len(params) >= 2 && params[0].IsOpen() && params[len(params)-1].IsClose() {
		depth := 0
		wrapped := true
		for i, p := range params {
			if p.IsOpen() {
				depth++
			} else if p.IsClose() {
				depth--
				if depth == 0 && i < len(params)-1 {
					wrapped = false
					break
				}
			}
		}
		if wrapped {
			params = params[1 : len(params)-1]
		}
	}
	if len(params) == 0 {
		return nil
	}
	var args [][]lexer.Token
	depth, start := 0, 0
	for i, p := range params {
		switch {
		case p.IsOpen():
			depth++
		case p.IsClose():
			depth--
		case depth == 0 && p.Type == lexer.TokSeparator:
			args = append(args, params[start:i])
			start = i + 1
		}
	}
	return append(args, params[start:])
}

func (r *run) call(name lexer.Token, params []lexer.Token, local *scope.Scope) Status {
	var args []value.Value
	for _, span := range splitArgs(params) {
		if len(span) == 0 {
			return r.fail(local, diagnostics.EOperand, name, "argument",
				"empty argument in call to %q", name.Text)
		}
		v, err := r.eval.Eval(span, local)
		if err != nil {
			return r.failErr(local, err)
		}
		args = append(args, v)
	}

	_, user := local.LookupFunction(name.Text)
	found, err := local.Invoke(name.Text, args, func(fn *scope.Function) error {
		if len(args) != len(fn.Params) {
			span := name.Span
			return diagnostics.Errorf(diagnostics.EArity, &span, fmt.Sprintf("%d arguments", len(fn.Params)),
				"function %q takes %d arguments, got %d", fn.Name, len(fn.Params), len(args))
		}
		params := make([]*scope.Variable, len(fn.Params))
		for i, p := range fn.Params {
			params[i] = &scope.Variable{Name: p, Value: args[i]}
		}
		ev := r.event(trace.EventCall, name, local, fn.Name, fmt.Sprintf("%s(%s)", fn.Name, joinValues(args)))
		ev.Data = map[string]string{"id": fn.ID.String()}
		r.tracer.Emit(ev)
		if st := r.execute(fn.Body, local, "anrop "+fn.Name, params...); st != Success {
			return &statusError{status: st}
		}
		return nil
	})

	var se *statusError
	switch {
	case errors.As(err, &se):
		return se.status
	case err != nil:
		return r.failErr(local, err)
	case !found:
		span := name.Span
		d := diagnostics.MakeDiag(diagnostics.EUndefinedFn,
			fmt.Sprintf("undefined function %q", name.Text), &span, "a declared function").WithToken(name.Text)
		if r.unresolved == FatalError {
			d.Kind = diagnostics.KindFatal
		}
		r.report(d, local.Name())
		return r.unresolved
	}
	if !user {
		r.tracer.Emit(r.event(trace.EventBuiltin, name, local, name.Text,
			fmt.Sprintf("%s(%s)", name.Text, joinValues(args))))
	}
	return Success
}

func joinValues(vs []value.Value) string {
	out := ""
	for i, v := range vs {
		if i > 0 {
			out += ", "
		}
		out += value.Quote(v)
	}
	return out
}

func (r *run) conditional(om lexer.Token, cur *Cursor, local *scope.Scope) Status {
	var cond []lexer.Token
	for {
		p := cur.Peek()
		if p.Type == lexer.TokThen {
			break
		}
		if p.Type == lexer.TokEOF || p.Type == lexer.TokNewline {
			return r.fail(local, diagnostics.EUnexpected, p, "så", "condition of om must end with så")
		}
		cond = append(cond, cur.Next())
	}
	then := cur.Next()
	if len(cond) == 0 {
		return r.fail(local, diagnostics.EUnexpected, then, "condition", "om without a condition")
	}

	br, st := r.block(then, cur, local)
	if st != Success {
		return st
	}
	br.Condition = cond

	v, err := r.eval.Eval(cond, local)
	if err != nil {
		return r.failErr(local, err)
	}

	data := map[string]string{"id": br.ID.String()}
	switch {
	case value.Truthy(v):
		ev := r.event(trace.EventBranchTaken, om, local, "", evaluator.String(cond)+" = "+value.Quote(v))
		ev.Data = data
		r.tracer.Emit(ev)
		return r.execute(br.Body, local, "om")
	case br.HasElse:
		ev := r.event(trace.EventElseTaken, om, local, "", evaluator.String(cond)+" = "+value.Quote(v))
		ev.Data = data
		r.tracer.Emit(ev)
		return r.execute(br.Else, local, "annars")
	default:
		ev := r.event(trace.EventBranchSkipped, om, local, "", evaluator.String(cond)+" = "+value.Quote(v))
		ev.Data = data
		r.tracer.Emit(ev)
		return Success
	}
}

func trim(tokens []lexer.Token) []lexer.Token {
	layout := func(t lexer.Token) bool {
		return t.Type == lexer.TokNewline || t.Type == lexer.TokWhitespace
	}
	for len(tokens) > 0 && layout(tokens[0]) {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && layout(tokens[len(tokens)-1]) {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

// block consumes tokens up to the klar balancing then. Nested så/klar pairs
// are kept intact and an annars at the outer level starts the else body.
func (r *run) block(then lexer.Token, cur *Cursor, local *scope.Scope) (*Branch, Status) {
	br := &Branch{ID: uuid.New()}
	depth := 0
	var elseTok lexer.Token
	for {
		tok := cur.Next()
		switch {
		case tok.Type == lexer.TokEOF:
			return nil, r.fail(local, diagnostics.EUnexpected, then, "klar", "så without a matching klar")
		case tok.Type == lexer.TokThen:
			depth++
		case tok.Type == lexer.TokDone:
			if depth == 0 {
				br.Body = trim(br.Body)
				br.Else = trim(br.Else)
				if len(br.Body) == 0 {
					return nil, r.fail(local, diagnostics.EUnexpected, then, "statement", "empty block")
				}
				if br.HasElse && len(br.Else) == 0 {
					return nil, r.fail(local, diagnostics.EUnexpected, elseTok, "statement", "empty annars block")
				}
				return br, Success
			}
			depth--
		case tok.Type == lexer.TokElse && depth == 0:
			if br.HasElse {
				return nil, r.fail(local, diagnostics.EUnexpected, tok, "klar", "second annars in the same block")
			}
			br.HasElse = true
			elseTok = tok
			continue
		}
		if br.HasElse {
			br.Else = append(br.Else, tok)
		} else {
			br.Body = append(br.Body, tok)
		}
	}
}

func (r *run) action(tok lexer.Token, cur *Cursor, local, enclosing *scope.Scope) Status {
	if tok.Text != "konstant" {
		return r.fail(local, diagnostics.EUnsupported, tok, "instruction",
			"%q is not supported", tok.Text)
	}
	name := cur.Next()
	if name.Type != lexer.TokIdent {
		return r.fail(local, diagnostics.EUnexpected, name, "constant name",
			"unexpected %s %q after konstant", name.Type, name.Text)
	}
	eq := cur.Next()
	if !isAssign(eq) {
		return r.fail(local, diagnostics.EUnexpected, eq, "=",
			"unexpected %s %q after constant name", eq.Type, eq.Text)
	}
	v, st := r.definable(eq, collectExpression(cur), local)
	if st != Success {
		return st
	}
	if !enclosing.Declare(&scope.Variable{Name: name.Text, Value: v, Constant: true}) {
		return r.fail(local, diagnostics.EDeclare, name, "a new name",
			"cannot declare constant %q, the name is taken", name.Text)
	}
	ev := r.event(trace.EventDeclare, name, enclosing, name.Text, "konstant "+name.Text+" = "+value.Quote(v))
	r.tracer.Emit(ev.WithValue(v))
	return Success
}
