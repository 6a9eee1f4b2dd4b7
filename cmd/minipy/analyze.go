package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"minipy/internal/ast"
	"minipy/internal/config"
	"minipy/internal/imports"
	"minipy/internal/lexer"
	"minipy/internal/parser"
	"minipy/internal/report"
	"minipy/internal/semantic"
)

const separator = "=================================================="

// cmdAnalyze handles "minipy [flags] <file.py>". Flags may appear before or
// after the file name.
func (a *app) cmdAnalyze(args []string) int {
	fs := flag.NewFlagSet("minipy", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprint(a.stderr, usage)
		fs.PrintDefaults()
	}
	debug := fs.Bool("debug", false, "print tokens, the AST and the function table")
	cfgPath := fs.String("config", "", "path to minipy.toml (default: search upward from the file)")
	legacy := fs.Bool("legacy-lines", false, "number lines the legacy way (see output.line_numbers)")
	noEcho := fs.Bool("no-echo", false, "do not echo the offending source line")
	quiet := fs.Bool("quiet", false, "print diagnostics only, without banner and pass headers")
	resolveImports := fs.Bool("imports", false, "resolve imports to .py files next to the program")
	strict := fs.Bool("strict", false, "exit with status 1 if any diagnostic is reported")

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return 0
			}
			return 2
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		positional = append(positional, args[0])
		args = args[1:]
	}

	a.debug = *debug
	a.printDebug("Using debug mode.")
	if len(positional) != 1 {
		fs.Usage()
		return 1
	}
	filePath := positional[0]

	cfg, err := config.Resolve(*cfgPath, filePath)
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return 1
	}
	if *legacy {
		cfg.Output.LineNumbers = string(report.LineLegacy)
	}
	if *noEcho {
		cfg.Output.EchoSource = false
	}
	if *quiet {
		cfg.Output.Banner = false
	}
	if *resolveImports {
		cfg.Analysis.ResolveImports = true
	}
	if cfg.Path != "" {
		a.printDebug("Using config: " + cfg.Path)
	}

	content, err := getFileContent(filePath)
	if err != nil {
		fmt.Fprintln(a.stderr, "Error: Could not read file.")
		fmt.Fprintln(a.stderr, "Error details: "+err.Error())
		return 1
	}

	diags, lines, ok := a.analyze(filePath, content, cfg)
	if !ok {
		return 1
	}
	a.printReport(filePath, diags, lines, cfg)

	if *strict && len(diags) > 0 {
		return 1
	}
	return 0
}

// analyze lexes, parses and checks one program. Lex, parse and import errors
// are printed to stderr and reported as !ok; diagnostics are returned.
func (a *app) analyze(filePath, content string, cfg *config.Config) ([]semantic.Diagnostic, []string, bool) {
	mode := cfg.LineMode()
	lexOpts := lexer.Options{LegacyLines: mode.LegacyLines()}

	a.printDebug("Starting lexing process...")
	tokens, lexErrors := lexer.LexWithOptions(content, lexOpts)
	if len(lexErrors) > 0 {
		fmt.Fprintln(a.stderr, "Lexing errors:")
		for _, e := range lexErrors {
			fmt.Fprintf(a.stderr, "  %s\n", e.Error())
		}
		return nil, nil, false
	}
	a.printDebug(fmt.Sprintf("Lexing complete. %d tokens produced.", len(tokens)))
	a.printTokens(tokens)

	a.printDebug("Starting parsing process...")
	program, parseErrors := parser.Parse(tokens)
	if len(parseErrors) > 0 {
		fmt.Fprintln(a.stderr, "Parse errors:")
		for _, e := range parseErrors {
			fmt.Fprintf(a.stderr, "  %s\n", e.Error())
		}
		return nil, nil, false
	}
	a.printDebug("--- AST ---")
	a.printDebug(ast.DebugString(program))
	a.printDebug("--- End AST ---")

	lines := report.SplitLines(content)
	opts := semantic.Options{
		ExtraBuiltins: cfg.Analysis.ExtraBuiltins,
		SourceLines:   lines,
	}

	if cfg.Analysis.ResolveImports && len(program.Imports()) > 0 {
		a.printDebug("Resolving imports...")
		resolver := imports.NewResolver(filePath)
		resolver.Options = lexOpts
		result, resolveErrors := resolver.Resolve(program, filePath)
		if len(resolveErrors) > 0 {
			fmt.Fprintln(a.stderr, "Import errors:")
			for _, e := range resolveErrors {
				fmt.Fprintf(a.stderr, "  %s\n", e.Error())
			}
			return nil, nil, false
		}
		opts.Imported = result.Functions()
		opts.Modules = result.Names()
		a.printDebug(fmt.Sprintf("Import resolution complete. %d modules, %d imported functions.",
			len(result.Modules), len(opts.Imported)))
	}

	a.printDebug("Starting semantic analysis...")
	ctx := semantic.Run(program, opts)
	for _, name := range ctx.Functions.Names() {
		sig, _ := ctx.Functions.Lookup(name)
		a.printDebug("Function: " + sig.String())
	}
	return dropIgnored(ctx.Diagnostics(), cfg.Ignored()), lines, true
}

// dropIgnored removes diagnostics of rules listed in analysis.ignore_rules.
func dropIgnored(diags []semantic.Diagnostic, ignored map[semantic.Rule]bool) []semantic.Diagnostic {
	if len(ignored) == 0 {
		return diags
	}
	var kept []semantic.Diagnostic
	for _, d := range diags {
		if !ignored[d.Rule] {
			kept = append(kept, d)
		}
	}
	return kept
}

// printReport writes the banner, one section per pass and the summary.
func (a *app) printReport(filePath string, diags []semantic.Diagnostic, lines []string, cfg *config.Config) {
	p := report.NewPrinter(a.stdout, lines)
	p.Mode = cfg.LineMode()
	p.Echo = cfg.Output.EchoSource

	if !cfg.Output.Banner {
		p.PrintAll(diags)
		return
	}

	fmt.Fprintln(a.stdout, "=== MINIPYTHON SEMANTIC ANALYSIS ===")
	fmt.Fprintln(a.stdout, "File: "+filePath)
	fmt.Fprintln(a.stdout, separator)
	for i, pass := range semantic.Passes {
		fmt.Fprintf(a.stdout, "\n--- PASS %d: %s ---\n", i+1, pass.Title())
		fmt.Fprintf(a.stdout, "Checking: %s\n", ruleList(pass.Rules()))
		p.PrintAll(semantic.ByPass(diags, pass))
	}
	fmt.Fprintln(a.stdout, "\n"+separator)
	fmt.Fprintf(a.stdout, "ANALYSIS COMPLETE: %d diagnostic(s)\n", len(diags))
	counts := semantic.CountByRule(diags)
	for _, r := range semantic.Rules {
		if n := counts[r]; n > 0 {
			fmt.Fprintf(a.stdout, "  %s (%s): %d\n", r, r.Name(), n)
		}
	}
	fmt.Fprintln(a.stdout, separator)
}

// ruleList renders "Rule 1" or "Rules 2, 7".
func ruleList(rules []semantic.Rule) string {
	codes := make([]string, len(rules))
	for i, r := range rules {
		codes[i] = fmt.Sprintf("%d", r.Code())
	}
	if len(codes) == 1 {
		return "Rule " + codes[0]
	}
	return "Rules " + strings.Join(codes, ", ")
}

// cmdInit writes a default minipy.toml into the given directory.
func (a *app) cmdInit(args []string) int {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	path := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(a.stderr, "Error: %s already exists.\n", path)
		return 1
	}
	if err := config.Save(path, config.Default()); err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(a.stdout, "Wrote "+path)
	return 0
}
