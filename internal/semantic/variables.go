package semantic

import (
	"fmt"
	"sort"

	"minipy/internal/ast"
)

// ---------------------------------------------------------------------------
// Pass 2: variable declaration order (Rule 1)
// ---------------------------------------------------------------------------

// ParamLine is the line recorded for parameter declarations; it sorts
// before every real line of the function body.
const ParamLine = -1

// UsageEvent is one identifier occurrence seen by Pass 2.
type UsageEvent struct {
	Name          string
	Line          int
	IsDeclaration bool
	Scope         string
}

type variablePass struct {
	ctx    *Context
	scopes *ScopeStack

	// Keyed by scope name. Redefinitions of a function share one entry.
	logs     map[string][]UsageEvent
	declared map[string]map[string]bool
	order    []string // function scopes in first-definition order
}

func checkVariables(ctx *Context, prog *ast.Program, modules []string) {
	p := &variablePass{
		ctx:      ctx,
		scopes:   newScopeStack(),
		logs:     make(map[string][]UsageEvent),
		declared: map[string]map[string]bool{GlobalScope: {}},
	}
	for _, name := range modules {
		p.recordLine(name, ParamLine, true)
	}
	for _, s := range prog.Stmts {
		p.visitStmt(s)
	}
	ctx.report(p.validate()...)
}

// enter switches to the function's scope, creating it on first sight.
func (p *variablePass) enter(name string) {
	if _, ok := p.declared[name]; !ok {
		p.declared[name] = make(map[string]bool)
		p.order = append(p.order, name)
	}
	p.scopes.Push(name)
}

func (p *variablePass) record(name string, pos ast.Position, isDecl bool) {
	p.recordLine(name, pos.Line, isDecl)
}

func (p *variablePass) recordLine(name string, line int, isDecl bool) {
	if p.ctx.IsBuiltin(name) {
		return
	}
	scope := p.scopes.Current()
	p.logs[scope] = append(p.logs[scope], UsageEvent{
		Name:          name,
		Line:          line,
		IsDeclaration: isDecl,
		Scope:         scope,
	})
	if isDecl {
		p.declared[scope][name] = true
	}
}

// validate replays each scope's log in line order and returns the sorted
// Rule 1 batch.
func (p *variablePass) validate() []Diagnostic {
	var batch []Diagnostic
	seen := make(map[string]bool)

	scopes := append(append([]string{}, p.order...), GlobalScope)
	for _, scope := range scopes {
		events := p.logs[scope]
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Line < events[j].Line
		})

		declaredSoFar := make(map[string]bool)
		for _, ev := range events {
			if ev.Line == ParamLine || ev.IsDeclaration {
				declaredSoFar[ev.Name] = true
				continue
			}
			if declaredSoFar[ev.Name] {
				continue
			}
			if scope != GlobalScope && p.declared[GlobalScope][ev.Name] {
				continue
			}
			key := fmt.Sprintf("%s:%d:%s", scope, ev.Line, ev.Name)
			if seen[key] {
				continue
			}
			seen[key] = true
			batch = append(batch, Diagnostic{
				Rule:    RuleUndeclaredVariable,
				Line:    ev.Line,
				Message: fmt.Sprintf("Variable '%s' is not declared", ev.Name),
				Pass:    PassVariables,
				Scope:   scope,
			})
		}
	}

	sortByLine(batch)
	return batch
}

// ---- traversal ----

func (p *variablePass) visitBlock(b *ast.BlockStmt) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		p.visitStmt(s)
	}
}

func (p *variablePass) visitStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.FuncDef:
		p.enter(s.Name)
		for _, param := range s.Params {
			p.recordLine(param.Name, ParamLine, true)
		}
		for _, param := range s.Params {
			p.visitExpr(param.Default)
		}
		p.visitBlock(s.Body)
		p.scopes.Pop()
	case *ast.ImportStmt, *ast.PassStmt, *ast.BreakStmt, *ast.ContinueStmt:
	case *ast.AssignStmt:
		// The target is declared before the value is read, so "x = x + 1"
		// on the first mention of x is not reported.
		p.record(s.Target.Name, s.Target.Pos, true)
		p.visitExpr(s.Value)
	case *ast.AugAssignStmt:
		p.record(s.Target.Name, s.Target.Pos, false)
		p.visitExpr(s.Value)
	case *ast.IndexAssignStmt:
		p.record(s.Target.Name, s.Target.Pos, false)
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
		p.record(s.Var.Name, s.Var.Pos, true)
		p.visitBlock(s.Body)
	case *ast.ExprStmt:
		p.visitExpr(s.Expression)
	case *ast.BlockStmt:
		p.visitBlock(s)
	default:
		panic(fmt.Sprintf("semantic: variable pass: unhandled statement %T", stmt))
	}
}

func (p *variablePass) visitExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case nil:
	case *ast.IdentExpr:
		p.record(e.Name, e.Pos, false)
	case *ast.IntLitExpr, *ast.DecimalLitExpr, *ast.StringLitExpr,
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
		// The callee name belongs to Pass 1; only arguments are reads.
		for _, a := range e.Args {
			p.visitExpr(a)
		}
	case *ast.MethodCallExpr:
		p.visitExpr(e.Object)
		for _, a := range e.Args {
			p.visitExpr(a)
		}
	case *ast.IndexExpr:
		p.visitExpr(e.Object)
		p.visitExpr(e.Index)
	default:
		panic(fmt.Sprintf("semantic: variable pass: unhandled expression %T", expr))
	}
}
