package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"minipy/internal/config"
	"minipy/internal/report"
)

const (
	historyFile = ".minipy_history"
	promptMain  = ">>> "
	promptCont  = "... "
	replName    = "<repl>"
)

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

// session is the program typed so far. Each submitted chunk is appended and
// the whole program is analysed again.
type session struct {
	app     *app
	cfg     *config.Config
	program string
}

// submit analyses the program extended by chunk. A chunk that does not lex
// or parse is dropped so the session stays analysable.
func (s *session) submit(chunk string) {
	if strings.TrimSpace(chunk) == "" {
		return
	}
	candidate := s.program + chunk
	if !strings.HasSuffix(candidate, "\n") {
		candidate += "\n"
	}
	diags, lines, ok := s.app.analyze(replName, candidate, s.cfg)
	if !ok {
		return
	}
	s.program = candidate

	p := report.NewPrinter(s.app.stdout, lines)
	p.Mode = s.cfg.LineMode()
	p.Echo = s.cfg.Output.EchoSource
	p.PrintAll(diags)
	if len(diags) == 0 {
		fmt.Fprintln(s.app.stdout, "ok")
	}
}

// command runs a ":" command and reports whether the session should go on.
func (s *session) command(cmd string) bool {
	switch strings.ToLower(strings.TrimSpace(cmd)) {
	case ":quit", ":q":
		return false
	case ":reset":
		s.program = ""
		fmt.Fprintln(s.app.stdout, "program cleared")
	case ":show":
		fmt.Fprint(s.app.stdout, s.program)
	default:
		fmt.Fprintln(s.app.stdout, "unknown command. Commands: :show, :reset, :quit")
	}
	return true
}

func (a *app) cmdRepl(args []string) int {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	cfgPath := fs.String("config", "", "path to minipy.toml (default: search upward from the working directory)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Resolve(*cfgPath, replName)
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return 1
	}
	cfg.Analysis.ResolveImports = false
	s := &session{app: a, cfg: cfg}

	fmt.Fprintln(a.stdout, "minipy "+VERSION+" - enter a program, finish each part with an empty line")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

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

	for {
		chunk, ok := readChunk(ln)
		if !ok {
			fmt.Fprintln(a.stdout)
			return 0
		}
		if strings.HasPrefix(strings.TrimSpace(chunk), ":") {
			if !s.command(chunk) {
				return 0
			}
			continue
		}
		s.submit(chunk)
	}
}

// readChunk reads lines until an empty line. A ":" command on the first line
// is returned on its own.
func readChunk(ln *liner.State) (string, bool) {
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
		if line != "" {
			ln.AppendHistory(line)
		}

		if b.Len() == 0 && strings.HasPrefix(strings.TrimSpace(line), ":") {
			return line, true
		}
		if strings.TrimSpace(line) == "" {
			return b.String(), true
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
}
