package semantic

import (
	"fmt"

	"minipy/internal/ast"
)

// ---------------------------------------------------------------------------
// Pass 1: function declarations (Rules 2 and 7)
// ---------------------------------------------------------------------------

// PendingCall is a call site whose callee has not been confirmed yet.
type PendingCall struct {
	Name string
	Line int
}

type declarationPass struct {
	ctx     *Context
	scopes  *ScopeStack
	pending []PendingCall
}

// resolveDeclarations runs Pass 1 and seals the function table. Imported
// definitions are registered before the program is traversed.
func resolveDeclarations(ctx *Context, prog *ast.Program, imported []*ast.FuncDef) {
	p := &declarationPass{ctx: ctx, scopes: newScopeStack()}

	for _, fn := range imported {
		p.define(fn)
	}
	for _, s := range prog.Stmts {
		p.visitStmt(s)
	}
	p.finish()
	ctx.Functions.seal()
}

// define records a function definition, flagging ambiguous redefinitions.
func (p *declarationPass) define(fn *ast.FuncDef) {
	table := p.ctx.Functions
	existing, ok := table.Lookup(fn.Name)
	if !ok {
		sig := newSignature(fn)
		sig.IsDeclared = true
		table.insert(sig)
		p.purge(fn.Name)
		return
	}

	table.markDeclared(fn.Name)
	if existing.AmbiguousWith(fn.Params.Len(), fn.Params.Required()) {
		p.ctx.report(Diagnostic{
			Rule: RuleAmbiguousRedefinition,
			Line: fn.Pos.Line,
			Message: fmt.Sprintf("Function '%s' already defined with %d parameters (considering default values)",
				fn.Name, existing.ParamCount),
			Pass:  PassDeclarations,
			Scope: p.scopes.Current(),
		})
	}
}

// purge drops pending calls to name without checking their arity.
func (p *declarationPass) purge(name string) {
	kept := p.pending[:0]
	for _, c := range p.pending {
		if c.Name != name {
			kept = append(kept, c)
		}
	}
	p.pending = kept
}

func (p *declarationPass) queue(name string, pos ast.Position) {
	p.pending = append(p.pending, PendingCall{Name: name, Line: pos.Line})
}

// finish resolves the calls still pending at the end of the program.
func (p *declarationPass) finish() {
	var batch []Diagnostic
	for _, c := range p.pending {
		if p.ctx.IsBuiltin(c.Name) {
			continue
		}
		if sig, ok := p.ctx.Functions.Lookup(c.Name); ok && sig.IsDeclared {
			continue
		}
		batch = append(batch, Diagnostic{
			Rule:    RuleUndeclaredFunction,
			Line:    c.Line,
			Message: fmt.Sprintf("Function '%s' is not declared", c.Name),
			Pass:    PassDeclarations,
			Scope:   GlobalScope,
		})
	}
	sortByLine(batch)
	p.ctx.report(batch...)
}

// ---- traversal ----

func (p *declarationPass) visitBlock(b *ast.BlockStmt) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		p.visitStmt(s)
	}
}

func (p *declarationPass) visitStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.FuncDef:
		p.define(s)
		p.scopes.Push(s.Name)
		for _, param := range s.Params {
			p.visitExpr(param.Default)
		}
		p.visitBlock(s.Body)
		p.scopes.Pop()
	case *ast.ImportStmt, *ast.PassStmt, *ast.BreakStmt, *ast.ContinueStmt:
	case *ast.AssignStmt:
		p.visitExpr(s.Value)
	case *ast.AugAssignStmt:
		p.visitExpr(s.Value)
	case *ast.IndexAssignStmt:
		p.visitExpr(s.Index)
		p.visitExpr(s.Value)
	case *ast.ReturnStmt:
		p.visitExpr(s.Value)
	case *ast.PrintStmt:
		for _, v := range s.Values {
			p.visitExpr(v)
		}
	case *ast.AssertStmt:
		p.visitExpr(s.Condition)
		p.visitExpr(s.Message)
	case *ast.IfStmt:
		p.visitExpr(s.Condition)
		p.visitBlock(s.Then)
		if s.Else != nil {
			p.visitStmt(s.Else)
		}
	case *ast.WhileStmt:
		p.visitExpr(s.Condition)
		p.visitBlock(s.Body)
	case *ast.ForStmt:
		p.visitExpr(s.Iter)
		p.visitBlock(s.Body)
	case *ast.ExprStmt:
		p.visitExpr(s.Expression)
	case *ast.BlockStmt:
		p.visitBlock(s)
	default:
		panic(fmt.Sprintf("semantic: declaration pass: unhandled statement %T", stmt))
	}
}

func (p *declarationPass) visitExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case nil:
	case *ast.IdentExpr, *ast.IntLitExpr, *ast.DecimalLitExpr, *ast.StringLitExpr,
		*ast.NoneLitExpr, *ast.BoolLitExpr:
	case *ast.ListLitExpr:
		for _, el := range e.Elems {
			p.visitExpr(el)
		}
	case *ast.GroupExpr:
		p.visitExpr(e.Expression)
	case *ast.UnaryExpr:
		p.visitExpr(e.Operand)
	case *ast.BinaryExpr:
		p.visitExpr(e.Left)
		p.visitExpr(e.Right)
	case *ast.CallExpr:
		p.queue(e.Name, e.Pos)
		for _, a := range e.Args {
			p.visitExpr(a)
		}
	case *ast.MethodCallExpr:
		p.visitExpr(e.Object)
		p.queue(e.Method, e.Pos)
		for _, a := range e.Args {
			p.visitExpr(a)
		}
	case *ast.IndexExpr:
		p.visitExpr(e.Object)
		p.visitExpr(e.Index)
	default:
		panic(fmt.Sprintf("semantic: declaration pass: unhandled expression %T", expr))
	}
}
