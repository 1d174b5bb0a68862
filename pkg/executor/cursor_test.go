package executor_test

import (
	"testing"

	"github.com/thomasrohde/svenska/pkg/executor"
	"github.com/thomasrohde/svenska/pkg/lexer"
)

func tokenize(t *testing.T, src string) []lexer.Token {
	t.Helper()
	toks, diags := lexer.Tokenize(src, "cursor.si")
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics %v", diags)
	}
	return toks
}

func TestCursorSkipsCommentsAndWhitespace(t *testing.T) {
	// x, comment, newline, tab, y, EOF
	cur := executor.NewCursor(tokenize(t, "x # kommentar\n\ty"))

	if got := cur.Peek(); got.Text != "x" {
		t.Fatalf("Peek: got %s", got)
	}
	if got := cur.Next(); got.Text != "x" || cur.Pos() != 1 {
		t.Fatalf("Next: got %s at %d", got, cur.Pos())
	}
	if got := cur.Next(); got.Type != lexer.TokNewline || cur.Pos() != 3 {
		t.Fatalf("expected the comment to be skipped, got %s at %d", got, cur.Pos())
	}
	if cur.Done() {
		t.Fatal("Done before the last identifier")
	}
	if got := cur.Next(); got.Text != "y" || cur.Pos() != 5 {
		t.Fatalf("expected the tab to be skipped, got %s at %d", got, cur.Pos())
	}
	if !cur.Done() {
		t.Error("expected Done at EOF")
	}
}

func TestCursorNeverConsumesEOF(t *testing.T) {
	cur := executor.NewCursor(tokenize(t, "x"))
	cur.Next()
	for i := 0; i < 3; i++ {
		if got := cur.Next(); got.Type != lexer.TokEOF {
			t.Fatalf("call %d: expected EOF, got %s", i, got)
		}
	}
	if cur.Pos() != 1 {
		t.Errorf("expected the cursor to stay on EOF at 1, got %d", cur.Pos())
	}
}

func TestCursorSynthesizesEOFPastBody(t *testing.T) {
	toks := tokenize(t, "skriv(1)\nx")
	body := toks[:4] // skriv ( 1 )
	cur := executor.NewCursor(body)
	for i := 0; i < len(body); i++ {
		cur.Next()
	}

	eof := cur.Peek()
	if eof.Type != lexer.TokEOF {
		t.Fatalf("expected EOF, got %s", eof)
	}
	if eof.Span != body[3].Span {
		t.Errorf("expected the EOF span of the last token %v, got %v", body[3].Span, eof.Span)
	}
	if !cur.Done() || cur.Next().Type != lexer.TokEOF || cur.Pos() != len(body) {
		t.Errorf("expected the cursor to stay at the end, pos %d", cur.Pos())
	}
}

func TestCursorEmpty(t *testing.T) {
	cur := executor.NewCursor(nil)
	if !cur.Done() || cur.Next().Type != lexer.TokEOF || cur.Pos() != 0 {
		t.Error("an empty cursor should be done at position 0")
	}
}
