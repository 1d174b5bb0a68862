// Command svenska is the svenska interpreter CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"git.sr.ht/~sircmpwn/getopt"
	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/thomasrohde/svenska/pkg/config"
	"github.com/thomasrohde/svenska/pkg/diagnostics"
	"github.com/thomasrohde/svenska/pkg/executor"
	"github.com/thomasrohde/svenska/pkg/help"
	"github.com/thomasrohde/svenska/pkg/lexer"
	"github.com/thomasrohde/svenska/pkg/runtime"
	"github.com/thomasrohde/svenska/pkg/trace"
	"github.com/thomasrohde/svenska/pkg/value"
)

const (
	promptMain  = "svenska> "
	promptCont  = "...> "
	historyFile = ".svenska_history"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: svenska <command> [options]")
		fmt.Fprintln(os.Stderr, "commands: run, tokens, trace, repl, help, config")
		os.Exit(1)
	}

	// Subcommands receive their own name as argv[0], the way getopt expects.
	argv := os.Args[1:]
	switch argv[0] {
	case "run":
		os.Exit(cmdRun(argv))
	case "tokens":
		os.Exit(cmdTokens(argv))
	case "trace":
		os.Exit(cmdTrace(argv))
	case "repl":
		os.Exit(cmdRepl(argv))
	case "help", "--help", "-h":
		os.Exit(cmdHelp(argv))
	case "config":
		os.Exit(cmdConfig(argv))
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", argv[0])
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, int) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		return nil, 1
	}
	if cfg.NoColor {
		color.NoColor = true
	}
	return cfg, 0
}

func cmdRun(argv []string) int {
	cfg, code := loadConfig()
	if code != 0 {
		return code
	}

	opts, optind, err := getopt.Getopts(argv, "djnt:")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "usage: svenska run [-d] [-j] [-n] [-t trace.jsonl] <file|->")
		return 1
	}
	for _, opt := range opts {
		switch opt.Option {
		case 'd':
			cfg.Debug = true
		case 'j':
			cfg.Diagnostics = "json"
		case 'n':
			cfg.NoColor = true
			color.NoColor = true
		case 't':
			cfg.TraceFile = opt.Value
		}
	}
	args := argv[optind:]
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: svenska run [-d] [-j] [-n] [-t trace.jsonl] <file|->")
		return 1
	}

	var tracers []trace.Tracer
	if cfg.Debug {
		tracers = append(tracers, trace.NewConsole(os.Stderr, cfg.NoColor))
	}
	var jsonl *trace.JSONL
	if cfg.TraceFile != "" {
		f, err := os.Create(cfg.TraceFile)
		if err != nil {
			printDiag(diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot create trace file: %s", cfg.TraceFile), nil, ""), cfg)
			return 1
		}
		defer f.Close()
		jsonl = trace.NewJSONL(f)
		tracers = append(tracers, jsonl)
	}

	rt := runtime.New(
		runtime.WithConfig(cfg),
		runtime.WithReporter(diagnostics.NewPrinter(os.Stderr, cfg.Pretty(), cfg.NoColor)),
		runtime.WithTracer(trace.Multi(tracers...)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var res *runtime.Result
	if args[0] == "-" {
		source, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading stdin: %s\n", err)
			return 1
		}
		res = rt.Run(ctx, string(source), "<stdin>")
	} else {
		res = rt.RunFile(ctx, args[0])
	}

	if jsonl != nil && jsonl.Err() != nil {
		fmt.Fprintf(os.Stderr, "error writing trace: %s\n", jsonl.Err())
	}
	if cfg.Pretty() {
		bannerColor(res.Status).Println(res.Status.Banner())
	}
	return res.Status.ExitCode()
}

func bannerColor(s executor.Status) *color.Color {
	switch s {
	case executor.Success:
		return color.New(color.FgGreen)
	case executor.SyntaxError:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

func printDiag(d diagnostics.Diagnostic, cfg *config.Config) {
	diagnostics.NewPrinter(os.Stderr, cfg.Pretty(), cfg.NoColor).Report(d)
}

type jsonToken struct {
	Type  string           `json:"type"`
	Text  string           `json:"text"`
	Op    string           `json:"op,omitempty"`
	Value json.RawMessage  `json:"value,omitempty"`
	Span  diagnostics.Span `json:"span"`
}

func cmdTokens(argv []string) int {
	cfg, code := loadConfig()
	if code != 0 {
		return code
	}
	opts, optind, err := getopt.Getopts(argv, "j")
	if err != nil || len(argv[optind:]) != 1 {
		fmt.Fprintln(os.Stderr, "usage: svenska tokens [-j] <file|->")
		return 1
	}
	for _, opt := range opts {
		if opt.Option == 'j' {
			cfg.Diagnostics = "json"
		}
	}

	source, filename, code := readSource(argv[optind], cfg)
	if code != 0 {
		return code
	}
	tokens, diags := lexer.Tokenize(source, filename)
	printer := diagnostics.NewPrinter(os.Stderr, cfg.Pretty(), cfg.NoColor)
	for _, d := range diags {
		printer.Report(d)
	}

	if cfg.Pretty() {
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "Row:Col\tType\tToken")
		for _, t := range tokens {
			fmt.Fprintf(tw, "%d:%d\t%s\t%s\n", t.Span.Line, t.Span.Col, t.Type, t)
		}
		tw.Flush()
	} else {
		out := make([]jsonToken, len(tokens))
		for i, t := range tokens {
			out[i] = jsonToken{Type: t.Type.String(), Text: t.Text, Span: t.Span}
			if t.Op != t.Text {
				out[i].Op = t.Op
			}
			if t.Literal != nil {
				out[i].Value, _ = value.ToJSON(t.Literal)
			}
		}
		b, _ := json.Marshal(out)
		fmt.Println(string(b))
	}

	if len(diags) > 0 {
		return executor.SyntaxError.ExitCode()
	}
	return 0
}

func cmdTrace(argv []string) int {
	opts, optind, err := getopt.Getopts(argv, "j")
	if err != nil || len(argv[optind:]) != 1 {
		fmt.Fprintln(os.Stderr, "usage: svenska trace [-j] <trace.jsonl>")
		return 1
	}
	jsonOutput := false
	for _, opt := range opts {
		if opt.Option == 'j' {
			jsonOutput = true
		}
	}

	file := argv[optind]
	f, err := os.Open(file)
	if err != nil {
		d := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, "")
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostic(d, !jsonOutput))
		return 1
	}
	defer f.Close()

	summary, err := trace.Summarize(f)
	if err != nil {
		d := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read trace: %s", err), nil, "")
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostic(d, !jsonOutput))
		return 1
	}
	if jsonOutput {
		b, _ := json.Marshal(summary)
		fmt.Println(string(b))
	} else {
		summary.WriteText(os.Stdout)
	}
	return 0
}

func cmdRepl(argv []string) int {
	cfg, code := loadConfig()
	if code != 0 {
		return code
	}
	if len(argv) > 1 {
		fmt.Fprintln(os.Stderr, "usage: svenska repl")
		return 1
	}

	histPath := cfg.History
	if histPath == "" {
		home, _ := os.UserHomeDir()
		histPath = filepath.Join(home, historyFile)
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Printf("svenska %s. Skriv :hjälp för kommandon, :avsluta för att sluta.\n", help.Version)

	rt := runtime.New(
		runtime.WithConfig(cfg),
		runtime.WithReporter(diagnostics.NewPrinter(os.Stderr, cfg.Pretty(), cfg.NoColor)),
	)
	session := rt.NewSession()
	ctx := context.Background()

	for {
		src, ok := readInput(ln)
		if !ok {
			fmt.Println()
			return 0
		}
		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))

		if strings.HasPrefix(trimmed, ":") {
			if quit := replCommand(session, trimmed); quit {
				return 0
			}
			continue
		}
		if res := session.Run(ctx, src); res.Status == executor.FatalError {
			bannerColor(res.Status).Println(res.Status.Banner())
		}
	}
}

func replCommand(s *runtime.Session, cmd string) (quit bool) {
	switch strings.ToLower(cmd) {
	case ":avsluta", ":quit", ":q":
		return true
	case ":variabler", ":vars":
		for _, v := range s.Global().Variables() {
			prefix := ""
			if v.Constant {
				prefix = "konstant "
			}
			fmt.Printf("%s%s = %s\n", prefix, v.Name, value.Quote(v.Value))
		}
	case ":funktioner", ":fns":
		for _, fn := range s.Global().Functions() {
			fmt.Printf("%s(%s)\n", fn.Name, strings.Join(fn.Params, ", "))
		}
	case ":hjälp", ":help":
		fmt.Println(":variabler  list variables")
		fmt.Println(":funktioner list functions")
		fmt.Println(":avsluta    exit")
	default:
		fmt.Println("unknown command. Type :hjälp for commands.")
	}
	return false
}

// readInput prompts until the collected lines no longer end inside a string
// literal or an open block.
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if !runtime.Incomplete(b.String()) {
			return b.String(), true
		}
	}
}

func cmdHelp(argv []string) int {
	opts, optind, err := getopt.Getopts(argv, "i")
	if err != nil {
		fmt.Fprintln(os.Stderr, "usage: svenska help [-i] [topic]")
		return 1
	}
	showIndex := false
	for _, opt := range opts {
		if opt.Option == 'i' {
			showIndex = true
		}
	}
	topic := strings.Join(argv[optind:], " ")

	if showIndex {
		if topic != "" && topic != "builtins" {
			fmt.Fprintln(os.Stderr, "error: -i is only supported for the builtins topic")
			return 1
		}
		fmt.Print(help.BuiltinIndex())
		return 0
	}

	if topic == "" {
		fmt.Print(help.QUICKREF)
		return 0
	}

	_, content, err := help.MatchTopic(topic)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\nAvailable topics: %s\n", err, strings.Join(help.TopicList, ", "))
		return 1
	}
	fmt.Print(content)
	return 0
}

func cmdConfig(argv []string) int {
	if len(argv) > 1 {
		fmt.Fprintln(os.Stderr, "usage: svenska config")
		return 1
	}
	cfg, code := loadConfig()
	if code != 0 {
		return code
	}
	b, err := cfg.Marshal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		return 1
	}
	if cfg.Source != "" {
		fmt.Printf("# %s\n", cfg.Source)
	} else {
		fmt.Println("# defaults")
	}
	fmt.Print(string(b))
	return 0
}

func readSource(file string, cfg *config.Config) (string, string, int) {
	if file == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading stdin: %s\n", err)
			return "", "", 1
		}
		return string(data), "<stdin>", 0
	}

	source, err := os.ReadFile(file)
	if err != nil {
		printDiag(diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, "a readable file"), cfg)
		return "", "", executor.FatalError.ExitCode()
	}
	return string(source), file, 0
}
