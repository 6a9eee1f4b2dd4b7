package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"minipy/internal/lexer"
)

const VERSION = "0.1.0"

const usage = `Usage:
  minipy [flags] <file.py>   analyse a MiniPython program
  minipy repl                analyse programs typed interactively
  minipy init [dir]          write a default minipy.toml
  minipy version             print the version

Flags:
`

func main() {
	start := time.Now()
	app := newApp(os.Stdout, os.Stderr)
	exitCode := app.run(os.Args[1:])
	app.printDebug(fmt.Sprintf("Finished in %s", time.Since(start)))
	os.Exit(exitCode)
}

// app carries the output streams and the debug switch through a run.
type app struct {
	stdout io.Writer
	stderr io.Writer
	debug  bool
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

func (a *app) run(args []string) int {
	if len(args) > 0 {
		switch args[0] {
		case "version":
			fmt.Fprintln(a.stdout, "minipy "+VERSION)
			return 0
		case "repl":
			return a.cmdRepl(args[1:])
		case "init":
			return a.cmdInit(args[1:])
		}
	}
	return a.cmdAnalyze(args)
}

/**
* Prints a debug message.
* @param message The message to print.
 */
func (a *app) printDebug(message string) {
	if !a.debug {
		return
	}
	fmt.Fprintln(a.stdout, "[DEBUG] "+message)
}

func (a *app) printTokens(tokens []lexer.Token) {
	if !a.debug {
		return
	}
	for _, token := range tokens {
		fmt.Fprintf(a.stdout, "[DEBUG] Token: %s, Value: %q, Line: %d, Column: %d\n",
			token.Type, token.Value, token.Line, token.Column)
	}
}

/**
* Gets content of a file at the given path.
* @param filePath The path to the file to read.
* @return The content of the file as a string, or an error if the file cannot be read.
 */
func getFileContent(filePath string) (string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	return string(content), nil
}
