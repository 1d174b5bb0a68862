package diagnostics

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Reporter receives diagnostics as they are raised. Implementations decide
// presentation; the interpreter core only ever calls Report.
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(d Diagnostic)

// Report calls f(d).
func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// Discard drops every diagnostic.
var Discard Reporter = ReporterFunc(func(Diagnostic) {})

// Collector keeps every reported diagnostic in order.
type Collector struct {
	Diagnostics []Diagnostic
}

// Report appends d.
func (c *Collector) Report(d Diagnostic) {
	c.Diagnostics = append(c.Diagnostics, d)
}

// Codes returns the codes of the collected diagnostics.
func (c *Collector) Codes() []string {
	codes := make([]string, len(c.Diagnostics))
	for i, d := range c.Diagnostics {
		codes[i] = d.Code
	}
	return codes
}

// Tee forwards each diagnostic to every reporter.
func Tee(reporters ...Reporter) Reporter {
	return ReporterFunc(func(d Diagnostic) {
		for _, r := range reporters {
			if r != nil {
				r.Report(d)
			}
		}
	})
}

// Printer writes diagnostics to w as soon as they are reported.
type Printer struct {
	w      io.Writer
	pretty bool
	header *color.Color
	dim    *color.Color
}

// NewPrinter creates a Printer. Pretty output is colored unless noColor is set;
// non-pretty output is one JSON object per line.
func NewPrinter(w io.Writer, pretty, noColor bool) *Printer {
	header := color.New(color.FgRed, color.Bold)
	dim := color.New(color.FgYellow)
	if noColor {
		header.DisableColor()
		dim.DisableColor()
	}
	return &Printer{w: w, pretty: pretty, header: header, dim: dim}
}

// Report writes d.
func (p *Printer) Report(d Diagnostic) {
	if !p.pretty {
		fmt.Fprintln(p.w, FormatDiagnostic(d, false))
		return
	}
	p.header.Fprintf(p.w, "error[%s]", d.Code)
	fmt.Fprintf(p.w, ": %s\n", d.Message)
	if d.Span != nil {
		p.dim.Fprintf(p.w, "  --> %s\n", d.Span)
	}
	if d.Expected != "" {
		p.dim.Fprintf(p.w, "  expected: %s\n", d.Expected)
	}
}
