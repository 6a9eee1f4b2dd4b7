package semantic

import "fmt"

// ---------------------------------------------------------------------------
// Rule catalog
// ---------------------------------------------------------------------------

// Rule identifies one of the seven diagnostic categories.
type Rule int

const (
	RuleUndeclaredVariable   Rule = iota + 1 // read before any declaration in scope
	RuleUndeclaredFunction                   // call with no definition and no built-in
	RuleArityMismatch                        // argument count outside [required, total]
	RuleTypeMismatch                         // incompatible operand types, or bad string op
	RuleNoneOperand                          // operand statically typed None
	RuleReturnTypeMismatch                   // mismatch where an operand is call-derived
	RuleAmbiguousRedefinition                // redefinition whose arity overlaps the first
)

// Rules lists every rule in code order.
var Rules = []Rule{
	RuleUndeclaredVariable,
	RuleUndeclaredFunction,
	RuleArityMismatch,
	RuleTypeMismatch,
	RuleNoneOperand,
	RuleReturnTypeMismatch,
	RuleAmbiguousRedefinition,
}

var ruleNames = map[Rule]string{
	RuleUndeclaredVariable:    "undeclared-variable",
	RuleUndeclaredFunction:    "undeclared-function",
	RuleArityMismatch:         "arity-mismatch",
	RuleTypeMismatch:          "type-mismatch",
	RuleNoneOperand:           "none-operand",
	RuleReturnTypeMismatch:    "return-type-mismatch",
	RuleAmbiguousRedefinition: "ambiguous-redefinition",
}

// Code returns the rule number (1-7).
func (r Rule) Code() int { return int(r) }

// Name returns the kebab-case rule name, e.g. "arity-mismatch".
func (r Rule) Name() string {
	if n, ok := ruleNames[r]; ok {
		return n
	}
	return "unknown"
}

func (r Rule) String() string {
	return fmt.Sprintf("Rule %d", int(r))
}

// HalvesLine reports whether the rule's line is shown through the legacy
// display transform floor(raw/2)+1. Only the rules reported from batched
// declaration and scope checks do this; the type rules print the raw line.
func (r Rule) HalvesLine() bool {
	switch r {
	case RuleUndeclaredVariable, RuleUndeclaredFunction, RuleAmbiguousRedefinition:
		return true
	}
	return false
}

// RuleByName looks a rule up by its kebab-case name.
func RuleByName(name string) (Rule, bool) {
	for r, n := range ruleNames {
		if n == name {
			return r, true
		}
	}
	return 0, false
}

// ---------------------------------------------------------------------------
// Passes
// ---------------------------------------------------------------------------

// Pass identifies which analysis pass produced a diagnostic.
type Pass int

const (
	PassDeclarations Pass = iota + 1
	PassVariables
	PassTypes
)

// Passes lists the passes in execution order.
var Passes = []Pass{PassDeclarations, PassVariables, PassTypes}

func (p Pass) String() string {
	switch p {
	case PassDeclarations:
		return "declarations"
	case PassVariables:
		return "variables"
	case PassTypes:
		return "types"
	default:
		return "unknown"
	}
}

// Title returns a human-readable heading for the pass.
func (p Pass) Title() string {
	switch p {
	case PassDeclarations:
		return "Function declarations"
	case PassVariables:
		return "Variable declarations"
	case PassTypes:
		return "Type checking"
	default:
		return "Unknown pass"
	}
}

// Rules returns the rules a pass checks.
func (p Pass) Rules() []Rule {
	switch p {
	case PassDeclarations:
		return []Rule{RuleUndeclaredFunction, RuleAmbiguousRedefinition}
	case PassVariables:
		return []Rule{RuleUndeclaredVariable}
	case PassTypes:
		return []Rule{RuleArityMismatch, RuleTypeMismatch, RuleNoneOperand, RuleReturnTypeMismatch}
	default:
		return nil
	}
}
