package semantic

import "minipy/internal/ast"

// Options configures one analysis run.
type Options struct {
	// ExtraBuiltins are treated exactly like the default built-in names.
	ExtraBuiltins []string
	// Imported are function definitions from resolved imports. They are
	// registered before the program's own definitions.
	Imported []*ast.FuncDef
	// Modules are names bound by resolved "import m" statements. Pass 2
	// treats them as global variables declared before the first line.
	Modules []string
	// SourceLines is the program text split into lines, for echoing.
	SourceLines []string
}

// Analyze runs the three passes over prog and returns every diagnostic in
// emission order: Pass 1 (Rule 7 as found, then the sorted Rule 2 batch),
// Pass 2 (the sorted Rule 1 batch), then Pass 3 in traversal order.
func Analyze(prog *ast.Program, opts Options) []Diagnostic {
	return Run(prog, opts).Diagnostics()
}

// Run is like Analyze but returns the whole context, including the sealed
// function table.
func Run(prog *ast.Program, opts Options) *Context {
	ctx := NewContext(opts.SourceLines, opts.ExtraBuiltins)
	resolveDeclarations(ctx, prog, opts.Imported)
	checkVariables(ctx, prog, opts.Modules)
	checkTypes(ctx, prog)
	return ctx
}
