package executor

import (
	"github.com/thomasrohde/svenska/pkg/lexer"
)

// Cursor walks an immutable token slice forward, skipping comments and
// whitespace. Past the end of the slice it yields an EOF token.
type Cursor struct {
	tokens []lexer.Token
	pos    int
}

// NewCursor creates a cursor at the start of tokens.
func NewCursor(tokens []lexer.Token) *Cursor {
	return &Cursor{tokens: tokens}
}

func skipped(t lexer.Token) bool {
	return t.Type == lexer.TokComment || t.Type == lexer.TokWhitespace
}

func (c *Cursor) advance(from int) int {
	for from < len(c.tokens) && skipped(c.tokens[from]) {
		from++
	}
	return from
}

func (c *Cursor) eof() lexer.Token {
	tok := lexer.Token{Type: lexer.TokEOF}
	if n := len(c.tokens); n > 0 {
		tok.Span = c.tokens[n-1].Span
	}
	return tok
}

// Peek returns the next significant token without consuming it.
func (c *Cursor) Peek() lexer.Token {
	i := c.advance(c.pos)
	if i >= len(c.tokens) {
		return c.eof()
	}
	return c.tokens[i]
}

// Next consumes and returns the next significant token. An EOF token in the
// stream is never consumed.
func (c *Cursor) Next() lexer.Token {
	i := c.advance(c.pos)
	if i >= len(c.tokens) {
		c.pos = len(c.tokens)
		return c.eof()
	}
	tok := c.tokens[i]
	if tok.Type == lexer.TokEOF {
		c.pos = i
		return tok
	}
	c.pos = i + 1
	return tok
}

// Done reports whether only skippable tokens or EOF remain.
func (c *Cursor) Done() bool {
	return c.Peek().Type == lexer.TokEOF
}

// Pos returns the index of the next unread token.
func (c *Cursor) Pos() int { return c.pos }
