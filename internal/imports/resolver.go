package imports

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"minipy/internal/ast"
	"minipy/internal/lexer"
	"minipy/internal/parser"
)

// ---------------------------------------------------------------------------
// ResolveError represents an error during import resolution.
// ---------------------------------------------------------------------------

type ResolveError struct {
	Message string
	Pos     ast.Position
	File    string
}

func (e *ResolveError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: line %d, col %d: %s", e.File, e.Pos.Line, e.Pos.Column, e.Message)
	}
	return fmt.Sprintf("line %d, col %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// ---------------------------------------------------------------------------
// Module holds the parsed result of an imported file.
// ---------------------------------------------------------------------------

type Module struct {
	Path     string       // dotted module path as written (e.g. "lib.strings")
	FilePath string       // resolved absolute file path
	Program  *ast.Program // parsed AST of the imported file
}

// Binding is one name an import statement introduces into the importing
// program: a module name for "import m", a function for "from m import f".
type Binding struct {
	Name   string
	Module *Module
	Func   *ast.FuncDef // nil for module bindings
	Pos    ast.Position // position of the name in the import statement
}

// Result is what the root program sees after resolution.
type Result struct {
	// Modules are every file that was loaded, transitive ones included,
	// in depth-first completion order.
	Modules []*Module
	// Bindings are the names the root program's own imports introduce.
	Bindings []Binding
}

// Functions returns the imported function definitions visible to the root
// program, marked Imported with their module path. A module import exposes
// all of the module's top-level functions, since calls through it are
// checked by method name. The same name reached twice through one file is
// returned once.
func (r *Result) Functions() []*ast.FuncDef {
	var out []*ast.FuncDef
	seen := make(map[string]string) // name -> file
	add := func(fn *ast.FuncDef, file string) {
		if seen[fn.Name] == file {
			return
		}
		seen[fn.Name] = file
		out = append(out, fn)
	}
	for _, b := range r.Bindings {
		if b.Func != nil {
			add(b.Func, b.Module.FilePath)
			continue
		}
		for _, fn := range b.Module.Program.Functions() {
			add(imported(fn, fn.Name, b.Module.Path), b.Module.FilePath)
		}
	}
	return out
}

// Names returns the module names bound at global scope, in import order.
func (r *Result) Names() []string {
	var out []string
	for _, b := range r.Bindings {
		if b.Func == nil {
			out = append(out, b.Name)
		}
	}
	return out
}

// imported returns a copy of fn registered under name.
func imported(fn *ast.FuncDef, name, module string) *ast.FuncDef {
	clone := *fn
	clone.Name = name
	clone.Imported = true
	clone.Module = module
	return &clone
}

// ---------------------------------------------------------------------------
// Resolver resolves all imports for a program, handling:
//   - File resolution (relative to the importing file's directory)
//   - Circular import detection
//   - Each file parsed once, however often it is imported
//   - Transitive imports (checked, but not re-exported)
//   - Selective imports via "from m import f as g"
// ---------------------------------------------------------------------------

type Resolver struct {
	// BaseDir is the directory of the root source file.
	BaseDir string

	// Options is used to lex every imported file.
	Options lexer.Options

	// loaded caches parsed modules by absolute file path.
	loaded map[string]*Module

	// importStack tracks the current chain of imports for circular detection.
	importStack []string

	errors  []*ResolveError
	modules []*Module
}

// NewResolver creates a new import resolver rooted at the given source file path.
func NewResolver(sourceFilePath string) *Resolver {
	absPath, _ := filepath.Abs(sourceFilePath)
	return &Resolver{
		BaseDir: filepath.Dir(absPath),
		loaded:  make(map[string]*Module),
	}
}

// Resolve processes every import statement in prog and returns the names it
// binds, plus any resolution errors.
func (r *Resolver) Resolve(prog *ast.Program, sourceFile string) (*Result, []*ResolveError) {
	absSource, _ := filepath.Abs(sourceFile)
	r.importStack = append(r.importStack, absSource)

	result := &Result{}
	for _, imp := range prog.Imports() {
		result.Bindings = append(result.Bindings, r.resolveStmt(imp, r.BaseDir, absSource)...)
	}

	r.importStack = r.importStack[:len(r.importStack)-1]
	result.Modules = r.modules

	r.checkConflicts(result.Bindings, absSource)
	if len(r.errors) > 0 {
		return result, r.errors
	}
	return result, nil
}

// resolveStmt resolves one import statement found in importerFile.
func (r *Resolver) resolveStmt(imp *ast.ImportStmt, baseDir, importerFile string) []Binding {
	var bindings []Binding

	if imp.From == "" {
		for _, name := range imp.Names {
			mod := r.load(name.Name, name.Pos, baseDir, importerFile)
			if mod == nil {
				continue
			}
			bound := name.Alias
			if bound == "" {
				bound = strings.SplitN(name.Name, ".", 2)[0]
			}
			bindings = append(bindings, Binding{Name: bound, Module: mod, Pos: name.Pos})
		}
		return bindings
	}

	mod := r.load(imp.From, imp.Pos, baseDir, importerFile)
	if mod == nil {
		return nil
	}
	fns := make(map[string]*ast.FuncDef)
	for _, fn := range mod.Program.Functions() {
		if _, dup := fns[fn.Name]; !dup {
			fns[fn.Name] = fn
		}
	}
	for _, name := range imp.Names {
		fn, ok := fns[name.Name]
		if !ok {
			r.addError(name.Pos, importerFile, fmt.Sprintf("function %q not found in imported module %q", name.Name, imp.From))
			continue
		}
		bound := name.Alias
		if bound == "" {
			bound = name.Name
		}
		bindings = append(bindings, Binding{Name: bound, Module: mod, Func: imported(fn, bound, imp.From), Pos: name.Pos})
	}
	return bindings
}

// load maps a dotted module path to <baseDir>/a/b.py, parses it and resolves
// its own imports. It returns nil after recording an error.
func (r *Resolver) load(path string, pos ast.Position, baseDir, importerFile string) *Module {
	relPath := strings.ReplaceAll(path, ".", string(filepath.Separator))
	absPath, err := filepath.Abs(filepath.Join(baseDir, relPath+".py"))
	if err != nil {
		r.addError(pos, importerFile, fmt.Sprintf("cannot resolve import path %q: %v", path, err))
		return nil
	}

	for _, stackPath := range r.importStack {
		if stackPath == absPath {
			chain := append(append([]string{}, r.importStack...), absPath)
			r.addError(pos, importerFile, fmt.Sprintf("circular import detected: %s", strings.Join(chain, " -> ")))
			return nil
		}
	}

	if mod, ok := r.loaded[absPath]; ok {
		return mod
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		r.addError(pos, importerFile, fmt.Sprintf("imported file not found: %s (resolved from %q)", absPath, path))
		return nil
	}
	content, err := os.ReadFile(absPath)
	if err != nil {
		r.addError(pos, importerFile, fmt.Sprintf("cannot read imported file %s: %v", absPath, err))
		return nil
	}

	tokens, lexErrors := lexer.LexWithOptions(string(content), r.Options)
	if len(lexErrors) > 0 {
		for _, e := range lexErrors {
			r.addError(pos, absPath, fmt.Sprintf("lex error in imported file: %s", e.Error()))
		}
		return nil
	}
	prog, parseErrors := parser.Parse(tokens)
	if len(parseErrors) > 0 {
		for _, e := range parseErrors {
			r.addError(pos, absPath, fmt.Sprintf("parse error in imported file: %s", e.Error()))
		}
		return nil
	}

	mod := &Module{Path: path, FilePath: absPath, Program: prog}
	r.loaded[absPath] = mod

	importDir := filepath.Dir(absPath)
	r.importStack = append(r.importStack, absPath)
	for _, sub := range prog.Imports() {
		r.resolveStmt(sub, importDir, absPath)
	}
	r.importStack = r.importStack[:len(r.importStack)-1]

	r.modules = append(r.modules, mod)
	return mod
}

// checkConflicts reports a function name bound by two different files.
func (r *Resolver) checkConflicts(bindings []Binding, sourceFile string) {
	seen := make(map[string]*Module)
	for _, b := range bindings {
		if b.Func == nil {
			continue
		}
		if first, ok := seen[b.Name]; ok && first.FilePath != b.Module.FilePath {
			r.addError(b.Pos, sourceFile, fmt.Sprintf("function %q conflicts: imported from both %q and %q",
				b.Name, first.Path, b.Module.Path))
			continue
		}
		seen[b.Name] = b.Module
	}
}

// addError records a resolution error.
func (r *Resolver) addError(pos ast.Position, file string, msg string) {
	r.errors = append(r.errors, &ResolveError{
		Message: msg,
		Pos:     pos,
		File:    file,
	})
}
