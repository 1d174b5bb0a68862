// Package lexer implements the svenska tokenizer.
package lexer

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/thomasrohde/svenska/pkg/diagnostics"
	"github.com/thomasrohde/svenska/pkg/value"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	TokIllegal TokenType = iota

	// Literals
	TokNumber
	TokString
	TokBoolean

	// Identifiers (unresolved variable or function names)
	TokIdent

	// Keywords
	TokAction // använd, konstant
	TokIs     // är
	TokIf     // om
	TokThen   // så
	TokElse   // annars
	TokDone   // klar, klart, färdig, färdigt, slut

	// Operators
	TokOperator // + - * / ^ & | ! != < > <= >=
	TokEqual    // = == lika
	TokAnd      // och &&
	TokOr       // eller ||

	// Punctuation
	TokParen     // ( )
	TokBrace     // { }
	TokSeparator // ,

	// Layout
	TokComment
	TokWhitespace
	TokNewline

	// TokValue is never produced by Tokenize; the evaluator synthesizes it
	// for intermediate results.
	TokValue

	TokEOF
)

var typeNames = map[TokenType]string{
	TokIllegal:    "Illegal",
	TokNumber:     "Number",
	TokString:     "String",
	TokBoolean:    "Boolean",
	TokIdent:      "Ident",
	TokAction:     "Action",
	TokIs:         "Is",
	TokIf:         "If",
	TokThen:       "Then",
	TokElse:       "Else",
	TokDone:       "Done",
	TokOperator:   "Operator",
	TokEqual:      "Equal",
	TokAnd:        "And",
	TokOr:         "Or",
	TokParen:      "Paren",
	TokBrace:      "Brace",
	TokSeparator:  "Separator",
	TokComment:    "Comment",
	TokWhitespace: "Whitespace",
	TokNewline:    "Newline",
	TokValue:      "Value",
	TokEOF:        "EOF",
}

func (t TokenType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "TokenType(" + strconv.Itoa(int(t)) + ")"
}

// Token represents a single lexer token.
type Token struct {
	Type TokenType
	// Text is the lexeme, lower-cased outside string literals.
	Text string
	// Op is the operator symbol for Operator, Equal, And and Or tokens.
	Op string
	// Literal is the embedded value of Number, String, Boolean and Value tokens.
	Literal value.Value
	Span    diagnostics.Span
}

// IsOperator reports whether the token takes part in operator tiers.
func (t Token) IsOperator() bool {
	switch t.Type {
	case TokOperator, TokEqual, TokAnd, TokOr:
		return true
	}
	return false
}

// IsOp reports whether the token is an operator with the given symbol.
func (t Token) IsOp(op string) bool {
	return t.IsOperator() && t.Op == op
}

// IsOpen reports whether the token is an opening parenthesis.
func (t Token) IsOpen() bool {
	return t.Type == TokParen && t.Text == "("
}

// IsClose reports whether the token is a closing parenthesis.
func (t Token) IsClose() bool {
	return t.Type == TokParen && t.Text == ")"
}

// EndsOperand reports whether an operand can end with this token.
func (t Token) EndsOperand() bool {
	switch t.Type {
	case TokNumber, TokString, TokBoolean, TokIdent, TokValue:
		return true
	}
	return t.IsClose()
}

// String renders the token the way the debug trace prints it.
func (t Token) String() string {
	switch {
	case t.Type == TokEOF:
		return "EOF"
	case t.Literal != nil && t.Type != TokString && t.Type != TokNumber && t.Literal.String() != t.Text:
		return t.Text + " | " + t.Literal.String()
	case t.Op != "" && t.Op != t.Text:
		return t.Text + " | " + t.Op
	default:
		return t.Text
	}
}

// Join renders a token span as source-like text.
func Join(tokens []Token) string {
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		switch {
		case t.Type == TokString:
			parts = append(parts, t.Text)
		case t.Type == TokValue && t.Literal != nil:
			parts = append(parts, value.Quote(t.Literal))
		case t.Op != "":
			parts = append(parts, t.Op)
		default:
			parts = append(parts, t.Text)
		}
	}
	return strings.Join(parts, " ")
}

// Lexer diagnostic messages.
const (
	MsgMalformed    = "malformed string literal"
	MsgUnterminated = "unterminated string literal"
)

type keyword struct {
	typ TokenType
	op  string
	lit value.Value
}

var keywords = map[string]keyword{
	"är":            {typ: TokIs},
	"om":            {typ: TokIf},
	"så":            {typ: TokThen},
	"annars":        {typ: TokElse},
	"sant":          {typ: TokBoolean, lit: value.NewBoolean(true)},
	"falskt":        {typ: TokBoolean, lit: value.NewBoolean(false)},
	"och":           {typ: TokAnd, op: "&&"},
	"eller":         {typ: TokOr, op: "||"},
	"klar":          {typ: TokDone},
	"klart":         {typ: TokDone},
	"färdig":        {typ: TokDone},
	"färdigt":       {typ: TokDone},
	"slut":          {typ: TokDone},
	"mindre":        {typ: TokOperator, op: "<"},
	"större":        {typ: TokOperator, op: ">"},
	"upphöjt":       {typ: TokOperator, op: "^"},
	"lika":          {typ: TokEqual, op: "="},
	"plus":          {typ: TokOperator, op: "+"},
	"adderat":       {typ: TokOperator, op: "+"},
	"minus":         {typ: TokOperator, op: "-"},
	"subtraherat":   {typ: TokOperator, op: "-"},
	"genom":         {typ: TokOperator, op: "/"},
	"dividerat":     {typ: TokOperator, op: "/"},
	"gånger":        {typ: TokOperator, op: "*"},
	"multiplicerat": {typ: TokOperator, op: "*"},
	"inte":          {typ: TokOperator, op: "!"},
	"icke":          {typ: TokOperator, op: "!"},
	"använd":        {typ: TokAction},
	"konstant":      {typ: TokAction},
}

// Filler words make sentences read naturally ("multiplicerat med", "mindre än")
// and are dropped without producing a token.
var fillers = map[string]bool{
	"med":  true,
	"än":   true,
	"till": true,
}

// IsKeyword reports whether word (case-insensitive) is reserved.
func IsKeyword(word string) bool {
	w := strings.ToLower(word)
	_, ok := keywords[w]
	return ok || fillers[w]
}

type scanner struct {
	src      []rune
	filename string
	pos      int
	line     int
	col      int

	buf     []rune
	bufLine int
	bufCol  int
	quote   rune
	comment bool
	tokens  []Token
	diags   []diagnostics.Diagnostic
}

func newScanner(source, filename string) *scanner {
	return &scanner{
		src:      []rune(source),
		filename: filename,
		line:     1,
	}
}

func (s *scanner) span(line, col int) diagnostics.Span {
	return diagnostics.Span{File: s.filename, Line: line, Col: col}
}

func (s *scanner) peek() (rune, bool) {
	if s.pos >= len(s.src) {
		return 0, false
	}
	return s.src[s.pos], true
}

func (s *scanner) buffer(r rune) {
	if len(s.buf) == 0 {
		s.bufLine, s.bufCol = s.line, s.col
	}
	s.buf = append(s.buf, r)
}

func (s *scanner) emit(typ TokenType, text, op string, lit value.Value, span diagnostics.Span) {
	s.tokens = append(s.tokens, Token{Type: typ, Text: text, Op: op, Literal: lit, Span: span})
}

// emitHere emits a token positioned at the rune just consumed.
func (s *scanner) emitHere(typ TokenType, text, op string) {
	s.emit(typ, text, op, nil, s.span(s.line, s.col))
}

func (s *scanner) lexError(span diagnostics.Span, text, msg, expected string) {
	d := diagnostics.MakeDiag(diagnostics.ELex, msg, &span, expected).WithToken(text)
	s.diags = append(s.diags, d)
}

// afterOperand reports whether the last significant token can end an operand.
func (s *scanner) afterOperand() bool {
	for i := len(s.tokens) - 1; i >= 0; i-- {
		switch s.tokens[i].Type {
		case TokComment, TokWhitespace:
			continue
		}
		return s.tokens[i].EndsOperand()
	}
	return false
}

// Tokenize breaks source code into a slice of tokens ending in TokEOF.
// Malformed string literals are reported as diagnostics and produce
// TokIllegal tokens; scanning always runs to the end of the input.
func Tokenize(source, filename string) ([]Token, []diagnostics.Diagnostic) {
	s := newScanner(source, filename)
	s.run()
	return s.tokens, s.diags
}

func (s *scanner) run() {
	for {
		r, ok := s.peek()
		final := !ok
		if ok {
			s.pos++
		}
		s.col++

		if s.comment {
			if !final && r != '\n' && r != '\r' {
				s.buf = append(s.buf, r)
				continue
			}
			s.flushComment()
		} else if s.quote != 0 && !final {
			s.buf = append(s.buf, r)
			if r == s.quote {
				s.quote = 0
			} else if r == '\n' {
				s.line++
				s.col = 0
			}
			continue
		}

		if final {
			s.flush()
			s.emit(TokEOF, "", "", nil, s.span(s.line, s.col))
			return
		}

		ch := unicode.ToLower(r)
		switch {
		case ch == '"' || ch == '\'':
			s.buffer(ch)
			s.quote = ch
			continue
		case ch == '#':
			s.flush()
			s.comment = true
			s.bufLine, s.bufCol = s.line, s.col
			continue
		case ch == ',' && s.decimalComma():
			s.buffer(ch)
			continue
		case !isBoundary(ch):
			s.buffer(ch)
			continue
		}

		pendingEmpty := len(s.buf) == 0
		s.flush()
		s.boundary(ch, pendingEmpty)
	}
}

func isBoundary(ch rune) bool {
	switch ch {
	case ' ', '\t', '\n', '\r', '(', ')', '{', '}', ',':
		return true
	}
	return isOperatorStart(ch)
}

func isOperatorStart(ch rune) bool {
	return strings.ContainsRune("^/*-+&|=!<>", ch)
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

// decimalComma reports whether a comma at the current position separates the
// integer and fractional digits of the pending number.
func (s *scanner) decimalComma() bool {
	next, ok := s.peek()
	if !ok || !isDigit(next) || len(s.buf) == 0 {
		return false
	}
	digits := s.buf
	if digits[0] == '-' {
		digits = digits[1:]
	}
	if len(digits) == 0 {
		return false
	}
	for _, r := range digits {
		if !isDigit(r) {
			return false
		}
	}
	return true
}

func (s *scanner) boundary(ch rune, pendingEmpty bool) {
	switch ch {
	case '\t':
		if pendingEmpty {
			s.emitHere(TokWhitespace, "\\t", "")
		}
	case ' ', '\r':
	case '\n':
		s.emitHere(TokNewline, "\\n", "")
		s.line++
		s.col = 0
	case '(', ')':
		s.emitHere(TokParen, string(ch), "")
	case '{', '}':
		s.emitHere(TokBrace, string(ch), "")
	case ',':
		s.emitHere(TokSeparator, ",", "")
	default:
		s.operator(ch)
	}
}

func (s *scanner) operator(ch rune) {
	line, col := s.line, s.col
	if next, ok := s.peek(); ok {
		pair := string([]rune{ch, next})
		typ := TokIllegal
		switch pair {
		case "==":
			typ = TokEqual
		case "!=", "<=", ">=":
			typ = TokOperator
		case "&&":
			typ = TokAnd
		case "||":
			typ = TokOr
		}
		if typ != TokIllegal {
			s.pos++
			s.col++
			s.emit(typ, pair, pair, nil, s.span(line, col))
			return
		}
		if ch == '-' && (isDigit(next) || next == '.') && !s.afterOperand() {
			s.buffer(ch)
			return
		}
	}
	if ch == '=' {
		s.emitHere(TokEqual, "=", "=")
		return
	}
	s.emitHere(TokOperator, string(ch), string(ch))
}

func (s *scanner) flushComment() {
	text := strings.TrimSpace(string(s.buf))
	s.emit(TokComment, text, "", nil, s.span(s.bufLine, s.bufCol))
	s.buf = s.buf[:0]
	s.comment = false
}

// flush classifies the pending lexeme, if any, and emits it.
func (s *scanner) flush() {
	if len(s.buf) == 0 {
		return
	}
	text := string(s.buf)
	span := s.span(s.bufLine, s.bufCol)
	s.buf = s.buf[:0]
	quote := s.quote
	s.quote = 0

	if strings.TrimSpace(text) == "" || fillers[text] {
		return
	}
	if kw, ok := keywords[text]; ok {
		s.emit(kw.typ, text, kw.op, kw.lit, span)
		return
	}

	first := []rune(text)[0]
	if first == '"' || first == '\'' {
		runes := []rune(text)
		if quote == 0 && len(runes) >= 2 && runes[len(runes)-1] == first {
			s.emit(TokString, text, "", value.NewString(string(runes[1:len(runes)-1])), span)
			return
		}
		msg := MsgMalformed
		if quote != 0 {
			msg = MsgUnterminated
		}
		s.lexError(span, text, msg, "matching "+string(first))
		s.emit(TokIllegal, text, "", nil, span)
		return
	}
	if strings.ContainsAny(text, `"'`) {
		s.lexError(span, text, MsgMalformed, "whitespace before the opening quote")
		s.emit(TokIllegal, text, "", nil, span)
		return
	}

	if n, ok := parseNumber(text); ok {
		s.emit(TokNumber, text, "", value.NewNumber(n), span)
		return
	}
	s.emit(TokIdent, text, "", nil, span)
}

// parseNumber accepts an optional leading minus, digits, and at most one
// decimal separator written as '.' or ','.
func parseNumber(text string) (float64, bool) {
	body := strings.TrimPrefix(text, "-")
	digits, seps := 0, 0
	for _, r := range body {
		switch {
		case isDigit(r):
			digits++
		case r == '.' || r == ',':
			seps++
		default:
			return 0, false
		}
	}
	if digits == 0 || seps > 1 {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.Replace(text, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
