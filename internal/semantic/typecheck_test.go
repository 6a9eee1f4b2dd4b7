package semantic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minipy/internal/semantic"
)

// ---------------------------------------------------------------------------
// Rule 4: type mismatches
// ---------------------------------------------------------------------------

func TestTypeMismatchLiteral(t *testing.T) {
	diags := analyze(t, "x = 1 + 'a'\n")
	expectDiagnostics(t, diags, "Line 1 [Rule 4]: Type mismatch in operation '+'. Cannot use int with string.")
	assert.Equal(t, semantic.PassTypes, diags[0].Pass)
}

func TestOperatorsNotDefinedForStrings(t *testing.T) {
	for _, op := range []string{"-", "*", "/", "%", "**"} {
		diags := analyze(t, "s = 'a' "+op+" 'b'\n")
		expectDiagnostics(t, diags, "Line 1 [Rule 4]: Operation '"+op+"' is not defined for strings.")
	}
}

func TestStringConcatenation(t *testing.T) {
	diags := analyze(t, "s = 'a' + \"b\"\nt = s + 'c'\n")
	expectNoDiagnostics(t, diags)
}

func TestIntArithmetic(t *testing.T) {
	diags := analyze(t, "a = 1 * 2 - 3 / 4 % 5 ** 6\nb = a + 1.5\n")
	expectNoDiagnostics(t, diags)
}

func TestDecimalIsInt(t *testing.T) {
	diags := analyze(t, "x = 1.5 + 's'\n")
	expectDiagnostics(t, diags, "Line 1 [Rule 4]: Type mismatch in operation '+'. Cannot use int with string.")
}

func TestMismatchViaVariables(t *testing.T) {
	diags := analyze(t, "a = 'text'\nb = 3\nc = b - a\n")
	expectDiagnostics(t, diags, "Line 3 [Rule 4]: Type mismatch in operation '-'. Cannot use int with string.")
}

func TestErrorSuppression(t *testing.T) {
	diags := analyze(t, "a = 1 + 'x'\nb = a + 2\nc = (1 + 'y') * 'z'\n")
	expectDiagnostics(t, diags,
		"Line 1 [Rule 4]: Type mismatch in operation '+'. Cannot use int with string.",
		"Line 3 [Rule 4]: Type mismatch in operation '+'. Cannot use int with string.",
	)
}

func TestSeveralOperatorsOnOneLine(t *testing.T) {
	diags := analyze(t, "x = (1 + 'a') + (2 - 's')\n")
	require.Len(t, diags, 2)
	assert.Equal(t, 1, diags[0].Line)
	assert.Equal(t, 1, diags[1].Line)
}

func TestAssignmentOverwritesTag(t *testing.T) {
	diags := analyze(t, "x = 'a'\nx = 1\ny = x + 1\n")
	expectNoDiagnostics(t, diags)
}

func TestComparisonsAreUnknownButChecked(t *testing.T) {
	diags := analyze(t, "c = 1 < 2\nd = c + 'x'\n")
	expectNoDiagnostics(t, diags)

	diags = analyze(t, "b = (1 + 'a') == 2\n")
	expectDiagnostics(t, diags, "Line 1 [Rule 4]: Type mismatch in operation '+'. Cannot use int with string.")
}

func TestLogicalAndListAreUnknown(t *testing.T) {
	diags := analyze(t, "a = True and False\nb = not a\nc = [1, 2]\nd = c[0]\ne = a + b + c + d + 'x'\n")
	expectNoDiagnostics(t, diags)
}

func TestGlobalTypesVisibleInFunctions(t *testing.T) {
	diags := analyze(t, "s = 'str'\ndef f():\n    return s + 1\n")
	expectDiagnostics(t, diags, "Line 3 [Rule 4]: Type mismatch in operation '+'. Cannot use string with int.")
	assert.Equal(t, "f", diags[0].Scope)
}

func TestParametersFallBackToGlobals(t *testing.T) {
	diags := analyze(t, "a = 'str'\ndef f(a):\n    return a + 1\n")
	expectDiagnostics(t, diags, "Line 3 [Rule 4]: Type mismatch in operation '+'. Cannot use string with int.")

	diags = analyze(t, "def f(a):\n    return a + 1\n")
	expectNoDiagnostics(t, diags)
}

func TestFunctionLocalsDoNotLeak(t *testing.T) {
	diags := analyze(t, "def f():\n    v = 'a'\n    return 1\nv = 2\ny = v + 1\n")
	expectNoDiagnostics(t, diags)
}

// ---------------------------------------------------------------------------
// Rule 5: None operands
// ---------------------------------------------------------------------------

func TestNoneOperand(t *testing.T) {
	diags := analyze(t, "n = None\ny = n + 1\n")
	expectDiagnostics(t, diags, "Line 2 [Rule 5]: Operation '+' cannot be performed with 'None'.")
}

func TestNoneBeatsMismatch(t *testing.T) {
	diags := analyze(t, "y = None + 'a'\nz = 'a' * None\n")
	expectDiagnostics(t, diags,
		"Line 1 [Rule 5]: Operation '+' cannot be performed with 'None'.",
		"Line 2 [Rule 5]: Operation '*' cannot be performed with 'None'.",
	)
}

func TestNoneBeatsError(t *testing.T) {
	diags := analyze(t, "y = (1 + 'a') + None\n")
	expectDiagnostics(t, diags,
		"Line 1 [Rule 4]: Type mismatch in operation '+'. Cannot use int with string.",
		"Line 1 [Rule 5]: Operation '+' cannot be performed with 'None'.",
	)
}

func TestFunctionWithoutReturnIsNone(t *testing.T) {
	diags := analyze(t, "def f():\n    pass\nx = f() + 1\n")
	expectDiagnostics(t, diags, "Line 3 [Rule 5]: Operation '+' cannot be performed with 'None'.")
}

func TestBareReturnIsNone(t *testing.T) {
	diags := analyze(t, "def f():\n    return\nx = f() * 2\n")
	expectDiagnostics(t, diags, "Line 3 [Rule 5]: Operation '*' cannot be performed with 'None'.")
}

// ---------------------------------------------------------------------------
// Compound assignment
// ---------------------------------------------------------------------------

func TestCompoundAssignMismatch(t *testing.T) {
	diags := analyze(t, "x = 1\nx += 'a'\n")
	expectDiagnostics(t, diags, "Line 2 [Rule 4]: Type mismatch in '+='. Variable is int, expression is string.")
}

func TestCompoundAssignNone(t *testing.T) {
	diags := analyze(t, "x = None\nx -= 1\ny = 2\ny /= None\n")
	expectDiagnostics(t, diags,
		"Line 2 [Rule 5]: Operation '-=' cannot use 'None'.",
		"Line 4 [Rule 5]: Operation '/=' cannot use 'None'.",
	)
}

func TestCompoundAssignKeepsTag(t *testing.T) {
	diags := analyze(t, "x = 1\nx += 'a'\ny = x + 1\n")
	require.Len(t, diags, 1)
	assert.Equal(t, semantic.RuleTypeMismatch, diags[0].Rule)
}

func TestCompoundAssignOnErrorVariable(t *testing.T) {
	diags := analyze(t, "x = 1 + 'a'\nx += 1\n")
	expectDiagnostics(t, diags,
		"Line 1 [Rule 4]: Type mismatch in operation '+'. Cannot use int with string.",
		"Line 2 [Rule 4]: Type mismatch in '+='. Variable is error, expression is int.",
	)
}

func TestCompoundAssignUnknownIsSilent(t *testing.T) {
	diags := analyze(t, "def f(a):\n    a *= 'x'\n    return a\n")
	expectNoDiagnostics(t, diags)
}

// ---------------------------------------------------------------------------
// Rule 6: call-derived mismatches
// ---------------------------------------------------------------------------

func TestCallDerivedMismatch(t *testing.T) {
	src := "def num():\n    return 1\ny = num() + 'a'\nz = 'a' + num()\n"
	diags := analyze(t, src)
	expectDiagnostics(t, diags,
		"Line 3 [Rule 6]: Function 'num' returns 'int' but expected 'string' for operation '+'.",
		"Line 4 [Rule 6]: Function 'num' returns 'int' but expected 'string' for operation '+'.",
	)
}

func TestBothOperandsCallDerived(t *testing.T) {
	src := "def num():\n    return 1\ndef txt():\n    return 'a'\nz = num() - txt()\n"
	diags := analyze(t, src)
	expectDiagnostics(t, diags,
		"Line 5 [Rule 6]: Functions return incompatible types: 'num' returns int, 'txt' returns string")
}

func TestCallMarkerPassesThroughGroupAndMinus(t *testing.T) {
	src := "def num():\n    return 1\ny = -(num()) + 'a'\n"
	diags := analyze(t, src)
	expectDiagnostics(t, diags,
		"Line 3 [Rule 6]: Function 'num' returns 'int' but expected 'string' for operation '+'.")
}

func TestCallMarkerDroppedByBinary(t *testing.T) {
	src := "def num():\n    return 1\ny = (num() + 1) + 'a'\n"
	diags := analyze(t, src)
	expectDiagnostics(t, diags,
		"Line 3 [Rule 4]: Type mismatch in operation '+'. Cannot use int with string.")
}

func TestBuiltinReturnTags(t *testing.T) {
	diags := analyze(t, "n = len('ab') + 'x'\nt = type(1) + 1\nm = max(1, 2) + 'x'\n")
	expectDiagnostics(t, diags,
		"Line 1 [Rule 6]: Function 'len' returns 'int' but expected 'string' for operation '+'.",
		"Line 2 [Rule 6]: Function 'type' returns 'string' but expected 'int' for operation '+'.",
	)
}

func TestCallBeforeDefinitionIsUnknown(t *testing.T) {
	diags := analyze(t, "x = f() + 1\ndef f():\n    return 'a'\n")
	expectNoDiagnostics(t, diags)
}

func TestLastReturnWins(t *testing.T) {
	src := "def f(a):\n    if a:\n        return 1\n    return 'a'\ny = f(1) + 1\n"
	diags := analyze(t, src)
	expectDiagnostics(t, diags,
		"Line 5 [Rule 6]: Function 'f' returns 'string' but expected 'int' for operation '+'.")
}

func TestRedefinitionWithoutReturnKeepsTag(t *testing.T) {
	src := "def f():\n    return 'a'\ndef f():\n    pass\nx = f() + 1\n"
	diags := analyze(t, src)
	expectDiagnostics(t, diags,
		"Line 3 [Rule 7]: Function 'f' already defined with 0 parameters (considering default values)",
		"Line 5 [Rule 6]: Function 'f' returns 'string' but expected 'int' for operation '+'.",
	)
}

func TestReturnAtTopLevelIgnored(t *testing.T) {
	diags := analyze(t, "return 1\n")
	expectNoDiagnostics(t, diags)
}

// ---------------------------------------------------------------------------
// Rule 3: arity
// ---------------------------------------------------------------------------

func TestArityRange(t *testing.T) {
	src := "def f(a, b=2):\n    return a\nf()\nf(1)\nf(1, 2)\nf(1, 2, 3)\n"
	diags := analyze(t, src)
	expectDiagnostics(t, diags,
		"Line 3 [Rule 3]: Function 'f' expects 1 to 2 arguments, but got 0.",
		"Line 6 [Rule 3]: Function 'f' expects 1 to 2 arguments, but got 3.",
	)
}

func TestArityExact(t *testing.T) {
	diags := analyze(t, "def g(a):\n    return a\ng(1, 2)\n")
	expectDiagnostics(t, diags, "Line 3 [Rule 3]: Function 'g' expects 1 arguments, but got 2.")
}

func TestArityCheckedForForwardCalls(t *testing.T) {
	diags := analyze(t, "g()\ndef g(a):\n    return a\n")
	expectDiagnostics(t, diags, "Line 1 [Rule 3]: Function 'g' expects 1 arguments, but got 0.")
}

func TestArityOfMethodCall(t *testing.T) {
	diags := analyze(t, "def push(v):\n    return v\nobj = 1\nobj.push()\n")
	expectDiagnostics(t, diags, "Line 4 [Rule 3]: Function 'push' expects 1 arguments, but got 0.")
}

func TestArgumentsCheckedBeforeCall(t *testing.T) {
	diags := analyze(t, "def g(a):\n    return a\ng(1 + 'a', 2)\n")
	expectDiagnostics(t, diags,
		"Line 3 [Rule 4]: Type mismatch in operation '+'. Cannot use int with string.",
		"Line 3 [Rule 3]: Function 'g' expects 1 arguments, but got 2.",
	)
}
