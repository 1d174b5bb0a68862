package trace

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/thomasrohde/svenska/pkg/lexer"
)

// Console prints a human-readable debug trace: a token table followed by one
// line per executor decision.
type Console struct {
	w       io.Writer
	banner  *color.Color
	pos     *color.Color
	kind    *color.Color
	taken   *color.Color
	skipped *color.Color
	failed  *color.Color
}

// NewConsole creates a console tracer writing to w.
func NewConsole(w io.Writer, noColor bool) *Console {
	c := &Console{
		w:       w,
		banner:  color.New(color.FgCyan, color.Bold),
		pos:     color.New(color.FgHiBlack),
		kind:    color.New(color.FgMagenta),
		taken:   color.New(color.FgGreen),
		skipped: color.New(color.FgYellow),
		failed:  color.New(color.FgRed),
	}
	if noColor {
		for _, col := range []*color.Color{c.banner, c.pos, c.kind, c.taken, c.skipped, c.failed} {
			col.DisableColor()
		}
	}
	return c
}

// Tokens prints the token table.
func (c *Console) Tokens(tokens []lexer.Token) {
	c.banner.Fprintln(c.w, "======== Token Debugging ========")
	tw := tabwriter.NewWriter(c.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Row:Col\tType\tToken")
	for _, t := range tokens {
		fmt.Fprintf(tw, "%d:%d\t%s\t%s\n", t.Span.Line, t.Span.Col, t.Type, t)
	}
	tw.Flush()
	c.banner.Fprintln(c.w, "======== Execution Debugging ========")
	fmt.Fprintln(c.w, "Row:Col\tAction")
}

// Emit prints one decision line.
func (c *Console) Emit(e Event) {
	pos := "-:-"
	if e.Span != nil {
		pos = fmt.Sprintf("%d:%d", e.Span.Line, e.Span.Col)
	}
	c.pos.Fprintf(c.w, "%s", pos)
	fmt.Fprint(c.w, "\t")
	if e.Depth > 1 {
		fmt.Fprint(c.w, strings.Repeat("  ", e.Depth-1))
	}
	c.colorFor(e.Event).Fprintf(c.w, "[%s]", e.Event)
	if e.Message != "" {
		fmt.Fprintf(c.w, " %s", e.Message)
	}
	if e.Scope != "" {
		c.pos.Fprintf(c.w, " (%s)", e.Scope)
	}
	fmt.Fprintln(c.w)
}

func (c *Console) colorFor(typ EventType) *color.Color {
	switch typ {
	case EventBranchTaken, EventElseTaken:
		return c.taken
	case EventBranchSkipped:
		return c.skipped
	case EventError:
		return c.failed
	}
	return c.kind
}
