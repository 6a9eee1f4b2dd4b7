package semantic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minipy/internal/semantic"
)

// ---------------------------------------------------------------------------
// End-to-end
// ---------------------------------------------------------------------------

func TestUnknownParamsShortCircuit(t *testing.T) {
	src := "def f(a, b=2):\n    return a+b\nx = f(1)\ny = x + \"s\"\n"
	diags := analyze(t, src)
	expectNoDiagnostics(t, diags)
}

func TestDuplicateEmptyFunctions(t *testing.T) {
	src := "def g():\n    pass\ndef g():\n    pass\n"
	diags := analyze(t, src)
	expectDiagnostics(t, diags,
		"Line 3 [Rule 7]: Function 'g' already defined with 0 parameters (considering default values)")
}

func TestNeverAssignedVariable(t *testing.T) {
	diags := analyze(t, "y = z + 1\n")
	require.Len(t, diags, 1)
	assert.Equal(t, semantic.RuleUndeclaredVariable, diags[0].Rule)
	assert.Contains(t, diags[0].Message, "'z'")
}

func TestArityWindow(t *testing.T) {
	src := "def f(a, b, c=1, d=2):\n    return a\n"
	for n := 0; n <= 6; n++ {
		args := ""
		for i := 0; i < n; i++ {
			if i > 0 {
				args += ", "
			}
			args += "1"
		}
		diags := ofRule(analyze(t, src+"f("+args+")\n"), semantic.RuleArityMismatch)
		if n >= 2 && n <= 4 {
			assert.Empty(t, diags, "%d arguments", n)
		} else {
			require.Len(t, diags, 1, "%d arguments", n)
			assert.Contains(t, diags[0].Message, "expects 2 to 4 arguments")
		}
	}
}

func TestEmissionOrderAcrossPasses(t *testing.T) {
	src := "" +
		"y = 1 + 'a'\n" + // 1: Rule 4
		"print(u)\n" + // 2: Rule 1
		"z = nope()\n" + // 3: Rule 2
		"def h():\n" + // 4
		"    pass\n" + // 5
		"def h():\n" + // 6: Rule 7
		"    pass\n" + // 7
		"w = None - 1\n" // 8: Rule 5
	diags := analyze(t, src)

	rules := make([]semantic.Rule, len(diags))
	for i, d := range diags {
		rules[i] = d.Rule
	}
	assert.Equal(t, []semantic.Rule{
		semantic.RuleAmbiguousRedefinition,
		semantic.RuleUndeclaredFunction,
		semantic.RuleUndeclaredVariable,
		semantic.RuleTypeMismatch,
		semantic.RuleNoneOperand,
	}, rules)

	assert.Len(t, semantic.ByPass(diags, semantic.PassDeclarations), 2)
	assert.Len(t, semantic.ByPass(diags, semantic.PassVariables), 1)
	assert.Len(t, semantic.ByPass(diags, semantic.PassTypes), 2)
}

func TestAnalysisContinuesAfterErrors(t *testing.T) {
	src := "" +
		"def f(a):\n" +
		"    return a\n" +
		"f()\n" +
		"f(1, 2)\n" +
		"x = 'a' - 'b'\n" +
		"x = 1 + None\n"
	diags := analyze(t, src)
	counts := semantic.CountByRule(diags)
	assert.Equal(t, 2, counts[semantic.RuleArityMismatch])
	assert.Equal(t, 1, counts[semantic.RuleTypeMismatch])
	assert.Equal(t, 1, counts[semantic.RuleNoneOperand])
}

func TestRealisticProgram(t *testing.T) {
	src := `def fib(n):
    if n < 2:
        return n
    return fib(n - 1) + fib(n - 2)

def greet(name, greeting="Hello"):
    message = greeting + ", " + name
    print(message)
    return message

total = 0
for i in [1, 2, 3]:
    total += fib(i)
label = "hi"
label = label + 1
count = len(label) * 2
greet(label)
`
	diags := analyze(t, src)
	expectDiagnostics(t, diags,
		"Line 15 [Rule 4]: Type mismatch in operation '+'. Cannot use string with int.")
}

func TestAnalyzeKeepsSourceLines(t *testing.T) {
	lines := []string{"x = 1"}
	ctx := semantic.Run(parse(t, "x = 1\n"), semantic.Options{SourceLines: lines})
	assert.Equal(t, lines, ctx.SourceLines)
	assert.Empty(t, ctx.Diagnostics())
	assert.True(t, ctx.IsBuiltin("len"))
	assert.False(t, ctx.IsBuiltin("range"))
}
