package semantic

import (
	"fmt"
	"strings"

	"minipy/internal/ast"
)

// ---------------------------------------------------------------------------
// Built-in functions
// ---------------------------------------------------------------------------

// DefaultBuiltins are the names every program may call without defining.
// They are also excluded from variable tracking.
var DefaultBuiltins = []string{"len", "type", "open", "ascii", "max", "min", "print", "assert"}

// builtinReturnTags fixes the return tag of the built-ins whose result type
// is known statically. Every other call takes its callee's recorded tag.
var builtinReturnTags = map[string]Tag{
	"len":   TagInt,
	"ascii": TagInt,
	"type":  TagString,
}

// ---------------------------------------------------------------------------
// Function signatures
// ---------------------------------------------------------------------------

// FunctionSignature records what Pass 1 learned about a function name.
type FunctionSignature struct {
	Name           string
	ParamNames     []string
	Defaults       []bool // per parameter: has a default value
	ParamCount     int
	RequiredParams int
	Line           int  // line of the first definition
	IsDeclared     bool // a definition (not just a reference) has been seen
	Module         string
}

func newSignature(fn *ast.FuncDef) *FunctionSignature {
	return &FunctionSignature{
		Name:           fn.Name,
		ParamNames:     fn.Params.Names(),
		Defaults:       fn.Params.Defaults(),
		ParamCount:     fn.Params.Len(),
		RequiredParams: fn.Params.Required(),
		Line:           fn.Pos.Line,
		Module:         fn.Module,
	}
}

// Accepts reports whether a call with n arguments fits the signature.
func (s *FunctionSignature) Accepts(n int) bool {
	return n >= s.RequiredParams && n <= s.ParamCount
}

// Expected renders the accepted argument count: "2" or "1 to 3".
func (s *FunctionSignature) Expected() string {
	if s.RequiredParams == s.ParamCount {
		return fmt.Sprintf("%d", s.ParamCount)
	}
	return fmt.Sprintf("%d to %d", s.RequiredParams, s.ParamCount)
}

// AmbiguousWith applies the redefinition heuristic: a new definition with
// the given arity is ambiguous if its total matches, or if the required
// counts match and either signature has no optional parameters.
func (s *FunctionSignature) AmbiguousWith(paramCount, required int) bool {
	if s.ParamCount == paramCount {
		return true
	}
	if s.RequiredParams == required {
		if s.RequiredParams == s.ParamCount {
			return true
		}
		if required == paramCount {
			return true
		}
	}
	return false
}

func (s *FunctionSignature) String() string {
	params := make([]string, len(s.ParamNames))
	for i, n := range s.ParamNames {
		params[i] = n
		if s.Defaults[i] {
			params[i] += "=..."
		}
	}
	return fmt.Sprintf("%s(%s)", s.Name, strings.Join(params, ", "))
}

// ---------------------------------------------------------------------------
// Function table
// ---------------------------------------------------------------------------

// FunctionTable maps function names to signatures. It is written only by
// Pass 1 and sealed when that pass finishes; writes after sealing panic.
type FunctionTable struct {
	sigs   map[string]*FunctionSignature
	order  []string
	sealed bool
}

func newFunctionTable() *FunctionTable {
	return &FunctionTable{sigs: make(map[string]*FunctionSignature)}
}

// Lookup returns the signature for name, if any.
func (t *FunctionTable) Lookup(name string) (*FunctionSignature, bool) {
	sig, ok := t.sigs[name]
	return sig, ok
}

// Names returns the function names in first-definition order.
func (t *FunctionTable) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Len returns the number of distinct function names.
func (t *FunctionTable) Len() int { return len(t.order) }

// Sealed reports whether Pass 1 has finished.
func (t *FunctionTable) Sealed() bool { return t.sealed }

func (t *FunctionTable) insert(sig *FunctionSignature) {
	t.mustBeOpen()
	if _, exists := t.sigs[sig.Name]; !exists {
		t.order = append(t.order, sig.Name)
	}
	t.sigs[sig.Name] = sig
}

func (t *FunctionTable) markDeclared(name string) {
	t.mustBeOpen()
	if sig, ok := t.sigs[name]; ok {
		sig.IsDeclared = true
	}
}

func (t *FunctionTable) seal() { t.sealed = true }

func (t *FunctionTable) mustBeOpen() {
	if t.sealed {
		panic("semantic: function table modified after declaration pass")
	}
}

// ---------------------------------------------------------------------------
// Analysis context
// ---------------------------------------------------------------------------

// Context is the state shared by the three passes of one analysis run.
type Context struct {
	Functions   *FunctionTable
	SourceLines []string

	builtins    map[string]bool
	diagnostics []Diagnostic
}

// NewContext builds a context with the default built-ins plus any extras.
func NewContext(sourceLines []string, extraBuiltins []string) *Context {
	ctx := &Context{
		Functions:   newFunctionTable(),
		SourceLines: sourceLines,
		builtins:    make(map[string]bool),
	}
	for _, name := range DefaultBuiltins {
		ctx.builtins[name] = true
	}
	for _, name := range extraBuiltins {
		ctx.builtins[name] = true
	}
	return ctx
}

// IsBuiltin reports whether name is treated as a built-in function.
func (c *Context) IsBuiltin(name string) bool {
	return c.builtins[name]
}

// Diagnostics returns everything reported so far, in emission order.
func (c *Context) Diagnostics() []Diagnostic {
	return c.diagnostics
}

func (c *Context) report(diags ...Diagnostic) {
	c.diagnostics = append(c.diagnostics, diags...)
}
