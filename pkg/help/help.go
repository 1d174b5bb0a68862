// Package help holds the reference text printed by svenska help.
package help

import (
	"fmt"
	"sort"
	"strings"

	"github.com/thomasrohde/svenska/pkg/diagnostics"
	"github.com/thomasrohde/svenska/pkg/lexer"
	"github.com/thomasrohde/svenska/pkg/stdlib"
)

// Version is the language version shown in the quick reference.
const Version = "v0.1"

// QUICKREF is printed by "svenska help" without a topic.
const QUICKREF = `svenska ` + Version + ` - ett skriptspråk på svenska

  x = 2 plus 3 gånger 4          deklarera eller tilldela
  konstant pi = 3,14             konstant, kan inte tilldelas igen
  om x är större än 10 så        villkor
    skriv("stor")
  annars
    skriv("liten")
  klar
  hälsa(namn) = så               funktion med parametrar
    skriv("hej " plus namn)
  klar
  hälsa("världen")               anrop
  # kommentar                    till radens slut

Commands:
  svenska run [-d] [-j] [-n] [-t trace.jsonl] <file|->
  svenska tokens [-j] <file>
  svenska trace [-j] <trace.jsonl>
  svenska repl
  svenska config
  svenska help [-i] [topic]

Topics: syntax, types, flow, functions, builtins, diagnostics, examples
`

// TopicList is the display order of topics.
var TopicList = []string{"syntax", "types", "flow", "functions", "builtins", "diagnostics", "examples"}

// Topics maps topic names to their text.
var Topics = map[string]string{
	"syntax": `SYNTAX

Keywords are case-insensitive. Identifiers keep their case but match
without it: Ålder and ålder are the same variable.

Operators, tightest first:
  upphöjt ^
  genom dividerat /
  gånger multiplicerat *
  minus subtraherat -
  plus adderat +
  & |                       bitwise on integers
  är lika = ==              equality, loose and strict
  inte icke !               negation, "är inte" is !=
  mindre större < > <= >=   "större än", "mindre än eller lika med"
  eller ||
  och &&

Fillers "med", "än" and "till" are ignored: "upphöjt till 2".
Parentheses group: (2 plus 3) gånger 4.
Numbers accept a decimal comma: 2,5 is 2.5. Write "f(1, 2)" with a
space to pass two arguments.
Statements end at a newline or at "och". Inside an assignment, wrap a
logical och in parentheses: b = (x och y).
`,
	"types": `TYPES

  Number      64-bit float: 42, 3,14, -1
  String      "dubbla" or 'enkla' citattecken
  Boolean     sant, falskt
  Undefined   [Odefinierad], the result of reading nothing

plus adds two Numbers and concatenates anything else: "a" plus 1 is "a1".
Equality with = compares loosely (1 = "1" is sant); == also compares types.
The other arithmetic operators need Numbers, och and eller need Booleans.
Anything else is an E_TYPE error.
Division by zero is an E_ARITH error.
`,
	"flow": `FLOW

  om <villkor> så
    ...
  annars
    ...
  klar

The condition runs up to "så". A block ends with klar, klart, färdig,
färdigt or slut. The body runs in its own scope; assignments to names
that already exist reach the outer binding, new names are declared in
the scope that holds the om statement.

Blocks nest up to the configured max_depth (default 256).
`,
	"functions": `FUNCTIONS

  namn = så ... klar
  namn(a, b) = så ... klar

Calling "namn" or "namn(1, 2)" runs the body in a fresh scope whose
parameters are bound to the arguments. The argument count must match
(E_ARITY). Calling an unknown name is E_UNDEFINED_FN; its status is
fatal unless unresolved_call is set to "syntax".
Built-ins receive their arguments as text joined by spaces.

A comma between two digits is a decimal comma, so skriv(1,2) prints 1.2.
Separate arguments with a space after the comma: skriv(1, 2) prints "1 2".
`,
	"diagnostics": `DIAGNOSTICS

Every failure carries a code, a message and the row:col of the token.
Lex and syntax errors exit with status 2, fatal errors with status 3.
Use "svenska run -j" for JSON diagnostics.
`,
	"examples": `EXAMPLES

Fakultet:
  n = 5
  resultat = 1
  steg = så
    om n är större än 1 så
      resultat = resultat gånger n
      n = n minus 1
      steg
    klar
  klar
  steg
  skriv("5! = " plus resultat)

Konstanter:
  konstant moms = 0,25
  pris = 200
  skriv(pris plus pris gånger moms)
`,
}

func init() {
	var b strings.Builder
	b.WriteString(Topics["diagnostics"])
	b.WriteString("\nCodes:\n")
	for _, c := range diagnostics.Codes {
		fmt.Fprintf(&b, "  %-18s %s\n", c, diagnostics.KindOf(c))
	}
	Topics["diagnostics"] = b.String()
	Topics["builtins"] = "BUILTINS\n\n" + BuiltinIndex()
}

// MatchTopic resolves a topic by exact name, by a language keyword it
// explains, or by unique prefix.
func MatchTopic(query string) (name, content string, err error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if c, ok := Topics[q]; ok {
		return q, c, nil
	}
	if lexer.IsKeyword(q) {
		t := keywordTopic(q)
		return t, Topics[t], nil
	}
	var matches []string
	for _, t := range TopicList {
		if q != "" && strings.HasPrefix(t, q) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], Topics[matches[0]], nil
	case 0:
		return "", "", fmt.Errorf("unknown help topic %q", query)
	}
	sort.Strings(matches)
	return "", "", fmt.Errorf("ambiguous help topic %q: %s", query, strings.Join(matches, ", "))
}

func keywordTopic(word string) string {
	switch word {
	case "om", "så", "annars", "klar", "klart", "färdig", "färdigt", "slut":
		return "flow"
	case "sant", "falskt":
		return "types"
	}
	return "syntax"
}

// BuiltinIndex lists the default built-ins with their summaries.
func BuiltinIndex() string {
	reg := stdlib.Defaults()
	names := reg.Names()
	var b strings.Builder
	for _, n := range names {
		fmt.Fprintf(&b, "  %-12s %s\n", n, reg.Get(n).Summary)
	}
	fmt.Fprintf(&b, "\nTotal: %d functions\n", len(names))
	return b.String()
}
