package semantic_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"minipy/internal/ast"
	"minipy/internal/lexer"
	"minipy/internal/parser"
	"minipy/internal/semantic"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func parse(t *testing.T, input string) *ast.Program {
	t.Helper()
	tokens, lexErrs := lexer.Lex(input)
	require.Empty(t, lexErrs, "lex errors")
	prog, parseErrs := parser.Parse(tokens)
	require.Empty(t, parseErrs, "parse errors")
	return prog
}

func analyze(t *testing.T, input string) []semantic.Diagnostic {
	t.Helper()
	return semantic.Analyze(parse(t, input), semantic.Options{})
}

func analyzeWith(t *testing.T, input string, opts semantic.Options) []semantic.Diagnostic {
	t.Helper()
	return semantic.Analyze(parse(t, input), opts)
}

func expectNoDiagnostics(t *testing.T, diags []semantic.Diagnostic) {
	t.Helper()
	if len(diags) > 0 {
		t.Errorf("expected no diagnostics, got %d", len(diags))
		for _, d := range diags {
			t.Logf("  %s", d.Error())
		}
	}
}

// expectDiagnostics compares the rendered diagnostics one by one.
func expectDiagnostics(t *testing.T, diags []semantic.Diagnostic, want ...string) {
	t.Helper()
	if len(want) == 0 {
		expectNoDiagnostics(t, diags)
		return
	}
	got := make([]string, len(diags))
	for i, d := range diags {
		got[i] = d.Error()
	}
	require.Equal(t, want, got)
}

func ofRule(diags []semantic.Diagnostic, r semantic.Rule) []semantic.Diagnostic {
	var out []semantic.Diagnostic
	for _, d := range diags {
		if d.Rule == r {
			out = append(out, d)
		}
	}
	return out
}
