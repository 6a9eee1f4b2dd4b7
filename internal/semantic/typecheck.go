package semantic

import (
	"fmt"

	"minipy/internal/ast"
)

// ---------------------------------------------------------------------------
// Pass 3: type checking (Rules 3, 4, 5 and 6)
// ---------------------------------------------------------------------------

type typePass struct {
	ctx    *Context
	scopes *ScopeStack

	vars    map[string]varTypes // per scope; a function's map is reset at each definition
	returns map[string]Tag      // recorded return tag per function name
	cache   map[ast.Expr]exprInfo
}

func checkTypes(ctx *Context, prog *ast.Program) {
	if !ctx.Functions.Sealed() {
		panic("semantic: type pass started before the declaration pass finished")
	}
	p := &typePass{
		ctx:     ctx,
		scopes:  newScopeStack(),
		vars:    map[string]varTypes{GlobalScope: {}},
		returns: make(map[string]Tag),
		cache:   make(map[ast.Expr]exprInfo),
	}
	for _, s := range prog.Stmts {
		p.visitStmt(s)
	}
}

func (p *typePass) report(rule Rule, line int, format string, args ...interface{}) {
	p.ctx.report(Diagnostic{
		Rule:    rule,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
		Pass:    PassTypes,
		Scope:   p.scopes.Current(),
	})
}

// ---- variables ----

func (p *typePass) setVar(name string, tag Tag) {
	scope := p.scopes.Current()
	if p.vars[scope] == nil {
		p.vars[scope] = make(varTypes)
	}
	p.vars[scope][name] = tag
}

// lookupVar resolves a variable in the current scope, then in global.
func (p *typePass) lookupVar(name string) Tag {
	if tag, ok := p.vars[p.scopes.Current()][name]; ok {
		return tag
	}
	if tag, ok := p.vars[GlobalScope][name]; ok {
		return tag
	}
	return TagUnknown
}

// ---- statements ----

func (p *typePass) visitBlock(b *ast.BlockStmt) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		p.visitStmt(s)
	}
}

func (p *typePass) visitStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.FuncDef:
		p.visitFuncDef(s)
	case *ast.ImportStmt, *ast.PassStmt, *ast.BreakStmt, *ast.ContinueStmt:
	case *ast.AssignStmt:
		info := p.infer(s.Value)
		p.setVar(s.Target.Name, info.tag)
	case *ast.AugAssignStmt:
		p.checkAugAssign(s)
	case *ast.IndexAssignStmt:
		p.infer(s.Index)
		p.infer(s.Value)
	case *ast.ReturnStmt:
		tag := TagNone
		if s.Value != nil {
			tag = p.infer(s.Value).tag
		}
		if p.scopes.InFunction() {
			p.returns[p.scopes.Current()] = tag
		}
	case *ast.PrintStmt:
		for _, v := range s.Values {
			p.infer(v)
		}
	case *ast.AssertStmt:
		p.infer(s.Condition)
		p.infer(s.Message)
	case *ast.IfStmt:
		p.infer(s.Condition)
		p.visitBlock(s.Then)
		if s.Else != nil {
			p.visitStmt(s.Else)
		}
	case *ast.WhileStmt:
		p.infer(s.Condition)
		p.visitBlock(s.Body)
	case *ast.ForStmt:
		p.infer(s.Iter)
		p.setVar(s.Var.Name, TagUnknown)
		p.visitBlock(s.Body)
	case *ast.ExprStmt:
		p.infer(s.Expression)
	case *ast.BlockStmt:
		p.visitBlock(s)
	default:
		panic(fmt.Sprintf("semantic: type pass: unhandled statement %T", stmt))
	}
}

func (p *typePass) visitFuncDef(fn *ast.FuncDef) {
	p.scopes.Push(fn.Name)
	// Parameters are not bound, so a global of the same name supplies the tag.
	p.vars[fn.Name] = make(varTypes)

	for _, param := range fn.Params {
		p.infer(param.Default)
	}
	p.visitBlock(fn.Body)

	// A definition without any return statement leaves an earlier
	// definition's tag in place.
	if _, ok := p.returns[fn.Name]; !ok {
		p.returns[fn.Name] = TagNone
	}
	p.scopes.Pop()
}

// checkAugAssign validates x op= expr. The variable's tag is not updated.
func (p *typePass) checkAugAssign(s *ast.AugAssignStmt) {
	exprTag := p.infer(s.Value).tag
	varTag := p.lookupVar(s.Target.Name)
	line := s.Target.Pos.Line

	switch {
	case varTag == TagNone || exprTag == TagNone:
		p.report(RuleNoneOperand, line, "Operation '%s' cannot use 'None'.", s.Op)
	case varTag != TagUnknown && exprTag != TagUnknown && varTag != exprTag:
		p.report(RuleTypeMismatch, line, "Type mismatch in '%s'. Variable is %s, expression is %s.",
			s.Op, varTag, exprTag)
	}
}

// ---- expressions ----

// infer evaluates an expression bottom-up: children first, then the node
// itself. The result is cached by node identity.
func (p *typePass) infer(expr ast.Expr) exprInfo {
	if expr == nil {
		return exprInfo{tag: TagUnknown}
	}
	if info, ok := p.cache[expr]; ok {
		return info
	}
	info := p.evaluate(expr)
	p.cache[expr] = info
	return info
}

func (p *typePass) evaluate(expr ast.Expr) exprInfo {
	switch e := expr.(type) {
	case *ast.IdentExpr:
		return exprInfo{tag: p.lookupVar(e.Name)}
	case *ast.IntLitExpr, *ast.DecimalLitExpr:
		return exprInfo{tag: TagInt}
	case *ast.StringLitExpr:
		return exprInfo{tag: TagString}
	case *ast.NoneLitExpr:
		return exprInfo{tag: TagNone}
	case *ast.BoolLitExpr:
		return exprInfo{tag: TagUnknown}
	case *ast.ListLitExpr:
		for _, el := range e.Elems {
			p.infer(el)
		}
		return exprInfo{tag: TagUnknown}
	case *ast.GroupExpr:
		return p.infer(e.Expression)
	case *ast.UnaryExpr:
		inner := p.infer(e.Operand)
		if e.Op == "-" {
			return inner
		}
		return exprInfo{tag: TagUnknown}
	case *ast.BinaryExpr:
		left := p.infer(e.Left)
		right := p.infer(e.Right)
		if !e.IsArithmetic() {
			return exprInfo{tag: TagUnknown}
		}
		return exprInfo{tag: p.arithmetic(e, left, right)}
	case *ast.CallExpr:
		return p.call(e.Name, e.Args, e.Pos)
	case *ast.MethodCallExpr:
		p.infer(e.Object)
		return p.call(e.Method, e.Args, e.Pos)
	case *ast.IndexExpr:
		p.infer(e.Object)
		p.infer(e.Index)
		return exprInfo{tag: TagUnknown}
	default:
		panic(fmt.Sprintf("semantic: type pass: unhandled expression %T", expr))
	}
}

// arithmetic applies the operand rule shared by + - * / % **.
func (p *typePass) arithmetic(e *ast.BinaryExpr, left, right exprInfo) Tag {
	lt, rt := left.tag, right.tag
	line := e.Pos.Line

	switch {
	case lt == TagNone || rt == TagNone:
		p.report(RuleNoneOperand, line, "Operation '%s' cannot be performed with 'None'.", e.Op)
		return TagError
	case lt == TagError || rt == TagError:
		return TagError
	case lt == TagUnknown || rt == TagUnknown:
		return TagUnknown
	case lt != rt:
		switch {
		case left.call != nil && right.call != nil:
			p.report(RuleReturnTypeMismatch, line,
				"Functions return incompatible types: '%s' returns %s, '%s' returns %s",
				left.call.callee, lt, right.call.callee, rt)
		case left.call != nil:
			p.report(RuleReturnTypeMismatch, line,
				"Function '%s' returns '%s' but expected '%s' for operation '%s'.",
				left.call.callee, lt, rt, e.Op)
		case right.call != nil:
			p.report(RuleReturnTypeMismatch, line,
				"Function '%s' returns '%s' but expected '%s' for operation '%s'.",
				right.call.callee, rt, lt, e.Op)
		default:
			p.report(RuleTypeMismatch, line,
				"Type mismatch in operation '%s'. Cannot use %s with %s.", e.Op, lt, rt)
		}
		return TagError
	case e.Op == "+":
		return lt
	case lt == TagString:
		p.report(RuleTypeMismatch, line, "Operation '%s' is not defined for strings.", e.Op)
		return TagError
	default:
		return TagInt
	}
}

// call evaluates the arguments, checks arity against the function table and
// returns a call-derived result carrying the callee's return tag.
func (p *typePass) call(name string, args []ast.Expr, pos ast.Position) exprInfo {
	for _, a := range args {
		p.infer(a)
	}

	if sig, ok := p.ctx.Functions.Lookup(name); ok && !sig.Accepts(len(args)) {
		p.report(RuleArityMismatch, pos.Line, "Function '%s' expects %s arguments, but got %d.",
			name, sig.Expected(), len(args))
	}

	tag, ok := p.returns[name]
	if !ok {
		tag = TagUnknown
	}
	if override, ok := builtinReturnTags[name]; ok {
		tag = override
	}
	return exprInfo{tag: tag, call: &callMarker{callee: name}}
}
