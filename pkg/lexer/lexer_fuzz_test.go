package lexer

import (
	"testing"
)

// FuzzTokenize feeds random inputs to the lexer to catch panics.
// The lexer should never panic and must always end the stream with EOF.
func FuzzTokenize(f *testing.F) {
	seeds := []string{
		// Keywords
		`om så annars klar klart färdig färdigt slut`,
		`sant falskt och eller är lika`,
		`plus adderat minus subtraherat genom dividerat gånger multiplicerat upphöjt`,
		`mindre större inte icke använd konstant med än till`,
		// Literals
		`42 3.14 2,5 -1 0 .5`,
		`"hej" 'hej' "med # tecken"`,
		// Operators
		`+ - * / ^ & | ! != < > <= >= = == && ||`,
		// Punctuation
		`( ) { } ,`,
		// Comments
		`# en kommentar`,
		// Mixed
		`x = 5 minus 2`,
		"om x är större än 3 så\n\tskriv(\"stor\")\nannars\n\tskriv(\"liten\")\nklar",
		`hälsa = så skriv("hej") klar`,
		// Edge cases
		``,
		`   `,
		"\t\n\r",
		`"oavslutad`,
		`"""`,
		`'"`,
		`@#$^&`,
		`\x00`,
		`--5`,
		`-,5`,
		`1,`,
		`,1`,
		`ÅÄÖ åäö`,
	}

	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		var tokens []Token
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Tokenize panicked on input %q: %v", input, r)
				}
			}()
			tokens, _ = Tokenize(input, "fuzz.si")
		}()
		if len(tokens) == 0 || tokens[len(tokens)-1].Type != TokEOF {
			t.Fatalf("token stream for %q does not end with EOF", input)
		}
	})
}
