package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minipy/internal/config"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := newApp(&stdout, &stderr).run(args)
	return code, stdout.String(), stderr.String()
}

func writeProgram(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const sample = `def f(a, b=2):
    return a + b
x = f(1, 2, 3)
y = 'a' - 'b'
z = missing(1)
`

// ---------------------------------------------------------------------------
// Analysis command
// ---------------------------------------------------------------------------

func TestAnalyzeReport(t *testing.T) {
	path := writeProgram(t, t.TempDir(), "prog.py", sample)
	code, out, errOut := runCLI(t, path)

	assert.Equal(t, 0, code)
	assert.Empty(t, errOut)
	assert.Contains(t, out, "=== MINIPYTHON SEMANTIC ANALYSIS ===\nFile: "+path+"\n")
	assert.Contains(t, out, "--- PASS 1: Function declarations ---\nChecking: Rules 2, 7\n"+
		"Line 5 [Rule 2]: Function 'missing' is not declared\n  z = missing(1)\n")
	assert.Contains(t, out, "--- PASS 2: Variable declarations ---\nChecking: Rule 1\n\n")
	assert.Contains(t, out, "Line 3 [Rule 3]: Function 'f' expects 1 to 2 arguments, but got 3.\n  x = f(1, 2, 3)\n")
	assert.Contains(t, out, "Line 4 [Rule 4]: Operation '-' is not defined for strings.\n")
	assert.Contains(t, out, "ANALYSIS COMPLETE: 3 diagnostic(s)\n"+
		"  Rule 2 (undeclared-function): 1\n"+
		"  Rule 3 (arity-mismatch): 1\n"+
		"  Rule 4 (type-mismatch): 1\n"+separator+"\n")

	p1 := strings.Index(out, "PASS 1")
	p3 := strings.Index(out, "PASS 3")
	r3 := strings.Index(out, "[Rule 3]")
	assert.True(t, p1 < p3 && p3 < r3, "diagnostics appear under their pass")
}

func TestQuietNoEcho(t *testing.T) {
	path := writeProgram(t, t.TempDir(), "prog.py", sample)
	code, out, _ := runCLI(t, "--quiet", path, "--no-echo")

	assert.Equal(t, 0, code)
	assert.Equal(t, ""+
		"Line 5 [Rule 2]: Function 'missing' is not declared\n"+
		"Line 3 [Rule 3]: Function 'f' expects 1 to 2 arguments, but got 3.\n"+
		"Line 4 [Rule 4]: Operation '-' is not defined for strings.\n", out)
}

func TestStrictExitCode(t *testing.T) {
	dir := t.TempDir()
	bad := writeProgram(t, dir, "bad.py", sample)
	good := writeProgram(t, dir, "good.py", "x = 1\nprint(x)\n")

	code, _, _ := runCLI(t, "--strict", "--quiet", bad)
	assert.Equal(t, 1, code)

	code, out, _ := runCLI(t, "--strict", "--quiet", good)
	assert.Equal(t, 0, code)
	assert.Empty(t, out)
}

func TestLegacyLinesFlag(t *testing.T) {
	path := writeProgram(t, t.TempDir(), "crlf.py", "a = 1\r\nb = c\r\nd = a + 's'\r\n")
	code, out, _ := runCLI(t, "--quiet", "--legacy-lines", path)

	assert.Equal(t, 0, code)
	assert.Equal(t, ""+
		"Line 2 [Rule 1]: Variable 'c' is not declared\n  b = c\n"+
		"Line 5 [Rule 4]: Type mismatch in operation '+'. Cannot use int with string.\n", out)
}

func TestConfigFileIsApplied(t *testing.T) {
	dir := t.TempDir()
	writeProgram(t, dir, config.FileName, "[analysis]\nextra_builtins = [\"range\"]\n[output]\nbanner = false\n")
	path := writeProgram(t, dir, "loop.py", "for i in range(3):\n    print(i)\n")

	code, out, errOut := runCLI(t, path)
	assert.Equal(t, 0, code)
	assert.Empty(t, errOut)
	assert.Empty(t, out)
}

func TestIgnoredRulesAreDropped(t *testing.T) {
	dir := t.TempDir()
	writeProgram(t, dir, config.FileName, "[analysis]\nignore_rules = [\"arity-mismatch\", \"undeclared-function\"]\n")
	path := writeProgram(t, dir, "prog.py", sample)

	code, out, _ := runCLI(t, "--quiet", "--no-echo", "--strict", path)
	assert.Equal(t, 1, code)
	assert.Equal(t, "Line 4 [Rule 4]: Operation '-' is not defined for strings.\n", out)
}

func TestBadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := writeProgram(t, dir, "custom.toml", "[output]\nline_numbers = \"sideways\"\n")
	path := writeProgram(t, dir, "prog.py", "x = 1\n")

	code, _, errOut := runCLI(t, "--config", cfg, path)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "output.line_numbers")
}

func TestImportsFlag(t *testing.T) {
	dir := t.TempDir()
	writeProgram(t, dir, "util.py", "def twice(n):\n    return n * 2\n")
	path := writeProgram(t, dir, "main.py", "from util import twice\nx = twice(1)\n")

	code, out, _ := runCLI(t, "--quiet", path)
	assert.Equal(t, 0, code)
	assert.Equal(t, "Line 2 [Rule 2]: Function 'twice' is not declared\n  x = twice(1)\n", out)

	code, out, _ = runCLI(t, "--quiet", "--imports", path)
	assert.Equal(t, 0, code)
	assert.Empty(t, out)
}

func TestImportErrors(t *testing.T) {
	path := writeProgram(t, t.TempDir(), "main.py", "import nowhere\n")
	code, _, errOut := runCLI(t, "--imports", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Import errors:\n")
	assert.Contains(t, errOut, "imported file not found")
}

func TestLexAndParseErrors(t *testing.T) {
	dir := t.TempDir()

	code, out, errOut := runCLI(t, writeProgram(t, dir, "lex.py", "x = $\n"))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Lexing errors:\n  line 1, col 5: unexpected character")
	assert.NotContains(t, out, "PASS 1")

	code, _, errOut = runCLI(t, writeProgram(t, dir, "parse.py", "def f(:\n    pass\n"))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Parse errors:\n")
}

func TestMissingFile(t *testing.T) {
	code, _, errOut := runCLI(t, filepath.Join(t.TempDir(), "absent.py"))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Error: Could not read file.")
}

func TestUsage(t *testing.T) {
	code, _, errOut := runCLI(t)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Usage:")
	assert.Contains(t, errOut, "-legacy-lines")

	code, _, _ = runCLI(t, "--no-such-flag", "x.py")
	assert.Equal(t, 2, code)
}

func TestDebugOutput(t *testing.T) {
	path := writeProgram(t, t.TempDir(), "prog.py", "def f(a, b=1):\n    return a\n")
	code, out, _ := runCLI(t, path, "--debug", "--quiet")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "[DEBUG] Using debug mode.\n")
	assert.Contains(t, out, `[DEBUG] Token: DEF, Value: "def", Line: 1, Column: 1`)
	assert.Contains(t, out, "[DEBUG] --- AST ---\n[DEBUG] Program\n")
	assert.Contains(t, out, "[DEBUG] Function: f(a, b=...)\n")
}

// ---------------------------------------------------------------------------
// Other commands
// ---------------------------------------------------------------------------

func TestVersion(t *testing.T) {
	code, out, _ := runCLI(t, "version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "minipy "+VERSION+"\n", out)
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	code, out, _ := runCLI(t, "init", dir)
	require.Equal(t, 0, code)
	path := filepath.Join(dir, config.FileName)
	assert.Equal(t, "Wrote "+path+"\n", out)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Output, cfg.Output)

	code, _, errOut := runCLI(t, "init", dir)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "already exists")
}

func TestReplSession(t *testing.T) {
	var stdout, stderr bytes.Buffer
	s := &session{app: newApp(&stdout, &stderr), cfg: config.Default()}
	s.cfg.Output.EchoSource = false

	s.submit("x = 1\n")
	assert.Equal(t, "ok\n", stdout.String())

	stdout.Reset()
	s.submit("y = x + 'a'\n")
	assert.Equal(t, "Line 2 [Rule 4]: Type mismatch in operation '+'. Cannot use int with string.\n", stdout.String())

	stdout.Reset()
	s.submit("z = = 1\n")
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "Parse errors:")
	assert.Equal(t, "x = 1\ny = x + 'a'\n", s.program, "a broken chunk is dropped")

	stdout.Reset()
	assert.True(t, s.command(":reset"))
	assert.Empty(t, s.program)
	assert.True(t, s.command(":what"))
	assert.Contains(t, stdout.String(), "unknown command")
	assert.False(t, s.command(":quit"))
}
