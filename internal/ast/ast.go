package ast

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Source position
// ---------------------------------------------------------------------------

// Position represents a line/column pair in source code (1-based).
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// ---------------------------------------------------------------------------
// Interfaces
// ---------------------------------------------------------------------------

// Node is implemented by every AST node.
type Node interface {
	GetPos() Position
}

// Stmt is implemented by every statement node. The set of statements is
// closed: only types in this package implement it.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by every expression node. Like Stmt, the set is closed.
type Expr interface {
	Node
	exprNode()
}

// ---------------------------------------------------------------------------
// Program (root)
// ---------------------------------------------------------------------------

// Program holds the top-level statements of one source file in textual order.
// Function definitions and imports appear in Stmts alongside ordinary
// statements, since declaration order matters to the analysis passes.
type Program struct {
	Stmts []Stmt
	Pos   Position
}

func (n *Program) GetPos() Position { return n.Pos }

// Functions returns the top-level function definitions in textual order.
func (n *Program) Functions() []*FuncDef {
	var out []*FuncDef
	for _, s := range n.Stmts {
		if fn, ok := s.(*FuncDef); ok {
			out = append(out, fn)
		}
	}
	return out
}

// Imports returns the top-level import statements in textual order.
func (n *Program) Imports() []*ImportStmt {
	var out []*ImportStmt
	for _, s := range n.Stmts {
		if imp, ok := s.(*ImportStmt); ok {
			out = append(out, imp)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Functions and parameters
// ---------------------------------------------------------------------------

// Param represents a single function parameter: name or name = default.
type Param struct {
	Name    string
	Default Expr // nil if no default
	Pos     Position
}

// ParamList is the ordered parameter sequence of a function definition.
type ParamList []*Param

// Len returns the number of parameters.
func (l ParamList) Len() int { return len(l) }

// At returns the i-th parameter.
func (l ParamList) At(i int) *Param { return l[i] }

// Names returns the parameter names in declaration order.
func (l ParamList) Names() []string {
	names := make([]string, len(l))
	for i, p := range l {
		names[i] = p.Name
	}
	return names
}

// Defaults reports, per parameter, whether it carries a default value.
func (l ParamList) Defaults() []bool {
	flags := make([]bool, len(l))
	for i, p := range l {
		flags[i] = p.Default != nil
	}
	return flags
}

// Required counts the parameters without a default value.
func (l ParamList) Required() int {
	n := 0
	for _, p := range l {
		if p.Default == nil {
			n++
		}
	}
	return n
}

// FuncDef: def <name>(<params>): <body>
type FuncDef struct {
	Name     string
	Params   ParamList
	Body     *BlockStmt
	Pos      Position // position of the function name
	Imported bool     // true if this definition came from an imported module
	Module   string   // source module path for imported definitions
}

func (n *FuncDef) GetPos() Position { return n.Pos }
func (n *FuncDef) stmtNode()        {}

// ---------------------------------------------------------------------------
// Imports
// ---------------------------------------------------------------------------

// ImportName is one imported module or symbol with an optional alias.
type ImportName struct {
	Name  string // dotted module path, or a symbol name in a from-import
	Alias string // empty if no alias
	Pos   Position
}

// ImportStmt covers both forms:
//
//	import a.b as c, d
//	from a.b import f as g, h
//
// From is empty for the plain form.
type ImportStmt struct {
	From  string
	Names []ImportName
	Pos   Position
}

func (n *ImportStmt) GetPos() Position { return n.Pos }
func (n *ImportStmt) stmtNode()        {}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// BlockStmt is an indented suite of statements.
type BlockStmt struct {
	Stmts []Stmt
	Pos   Position
}

func (n *BlockStmt) GetPos() Position { return n.Pos }
func (n *BlockStmt) stmtNode()        {}

// AssignStmt: <name> = <value>
type AssignStmt struct {
	Target *IdentExpr
	Value  Expr
	Pos    Position
}

func (n *AssignStmt) GetPos() Position { return n.Pos }
func (n *AssignStmt) stmtNode()        {}

// AugAssignStmt: <name> (+=|-=|*=|/=) <value>
type AugAssignStmt struct {
	Target *IdentExpr
	Op     string // "+=", "-=", "*=", "/="
	Value  Expr
	Pos    Position
}

func (n *AugAssignStmt) GetPos() Position { return n.Pos }
func (n *AugAssignStmt) stmtNode()        {}

// IndexAssignStmt: <name>[<index>] = <value>
type IndexAssignStmt struct {
	Target *IdentExpr
	Index  Expr
	Value  Expr
	Pos    Position
}

func (n *IndexAssignStmt) GetPos() Position { return n.Pos }
func (n *IndexAssignStmt) stmtNode()        {}

// ReturnStmt: return [<value>]
type ReturnStmt struct {
	Value Expr // nil for bare "return"
	Pos   Position
}

func (n *ReturnStmt) GetPos() Position { return n.Pos }
func (n *ReturnStmt) stmtNode()        {}

// PrintStmt: print <expr>, <expr>, ...
type PrintStmt struct {
	Values []Expr
	Pos    Position
}

func (n *PrintStmt) GetPos() Position { return n.Pos }
func (n *PrintStmt) stmtNode()        {}

// AssertStmt: assert <cond> [, <message>]
type AssertStmt struct {
	Condition Expr
	Message   Expr // nil if absent
	Pos       Position
}

func (n *AssertStmt) GetPos() Position { return n.Pos }
func (n *AssertStmt) stmtNode()        {}

// PassStmt: pass
type PassStmt struct {
	Pos Position
}

func (n *PassStmt) GetPos() Position { return n.Pos }
func (n *PassStmt) stmtNode()        {}

// BreakStmt: break
type BreakStmt struct {
	Pos Position
}

func (n *BreakStmt) GetPos() Position { return n.Pos }
func (n *BreakStmt) stmtNode()        {}

// ContinueStmt: continue
type ContinueStmt struct {
	Pos Position
}

func (n *ContinueStmt) GetPos() Position { return n.Pos }
func (n *ContinueStmt) stmtNode()        {}

// IfStmt: if <cond>: <then> [elif ...] [else: <else>]
type IfStmt struct {
	Condition Expr
	Then      *BlockStmt
	Else      Stmt // nil, *BlockStmt, or *IfStmt (elif chain)
	Pos       Position
}

func (n *IfStmt) GetPos() Position { return n.Pos }
func (n *IfStmt) stmtNode()        {}

// WhileStmt: while <cond>: <body>
type WhileStmt struct {
	Condition Expr
	Body      *BlockStmt
	Pos       Position
}

func (n *WhileStmt) GetPos() Position { return n.Pos }
func (n *WhileStmt) stmtNode()        {}

// ForStmt: for <var> in <iter>: <body>
type ForStmt struct {
	Var  *IdentExpr
	Iter Expr
	Body *BlockStmt
	Pos  Position
}

func (n *ForStmt) GetPos() Position { return n.Pos }
func (n *ForStmt) stmtNode()        {}

// ExprStmt wraps a bare expression used as a statement.
type ExprStmt struct {
	Expression Expr
	Pos        Position
}

func (n *ExprStmt) GetPos() Position { return n.Pos }
func (n *ExprStmt) stmtNode()        {}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// IdentExpr is a plain identifier reference.
type IdentExpr struct {
	Name string
	Pos  Position
}

func (n *IdentExpr) GetPos() Position { return n.Pos }
func (n *IdentExpr) exprNode()        {}

// IntLitExpr is an integer literal (value kept as the original lexeme).
type IntLitExpr struct {
	Value string
	Pos   Position
}

func (n *IntLitExpr) GetPos() Position { return n.Pos }
func (n *IntLitExpr) exprNode()        {}

// DecimalLitExpr is a decimal literal such as 3.14.
type DecimalLitExpr struct {
	Value string
	Pos   Position
}

func (n *DecimalLitExpr) GetPos() Position { return n.Pos }
func (n *DecimalLitExpr) exprNode()        {}

// StringLitExpr is a string literal (value includes surrounding quotes).
type StringLitExpr struct {
	Value string
	Pos   Position
}

func (n *StringLitExpr) GetPos() Position { return n.Pos }
func (n *StringLitExpr) exprNode()        {}

// NoneLitExpr is the None literal.
type NoneLitExpr struct {
	Pos Position
}

func (n *NoneLitExpr) GetPos() Position { return n.Pos }
func (n *NoneLitExpr) exprNode()        {}

// BoolLitExpr is True or False.
type BoolLitExpr struct {
	Value bool
	Pos   Position
}

func (n *BoolLitExpr) GetPos() Position { return n.Pos }
func (n *BoolLitExpr) exprNode()        {}

// ListLitExpr: [expr, expr, ...] or []
type ListLitExpr struct {
	Elems []Expr
	Pos   Position
}

func (n *ListLitExpr) GetPos() Position { return n.Pos }
func (n *ListLitExpr) exprNode()        {}

// GroupExpr: (<expression>)
type GroupExpr struct {
	Expression Expr
	Pos        Position
}

func (n *GroupExpr) GetPos() Position { return n.Pos }
func (n *GroupExpr) exprNode()        {}

// UnaryExpr: -<operand> or not <operand>
type UnaryExpr struct {
	Op      string // "-" or "not"
	Operand Expr
	Pos     Position
}

func (n *UnaryExpr) GetPos() Position { return n.Pos }
func (n *UnaryExpr) exprNode()        {}

// BinaryExpr: <left> <op> <right>. Pos is the position of the operator token.
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
	Pos   Position
}

func (n *BinaryExpr) GetPos() Position { return n.Pos }
func (n *BinaryExpr) exprNode()        {}

// IsArithmetic reports whether the operator is one of + - * / % **.
func (n *BinaryExpr) IsArithmetic() bool {
	switch n.Op {
	case "+", "-", "*", "/", "%", "**":
		return true
	}
	return false
}

// CallExpr: <name>(<args>). Only bare identifiers can be called.
type CallExpr struct {
	Name string
	Args []Expr
	Pos  Position // position of the callee name
}

func (n *CallExpr) GetPos() Position { return n.Pos }
func (n *CallExpr) exprNode()        {}

// MethodCallExpr: <object>.<method>(<args>)
type MethodCallExpr struct {
	Object Expr
	Method string
	Args   []Expr
	Pos    Position // position of the method name
}

func (n *MethodCallExpr) GetPos() Position { return n.Pos }
func (n *MethodCallExpr) exprNode()        {}

// IndexExpr: <object>[<index>]
type IndexExpr struct {
	Object Expr
	Index  Expr
	Pos    Position
}

func (n *IndexExpr) GetPos() Position { return n.Pos }
func (n *IndexExpr) exprNode()        {}

// ---------------------------------------------------------------------------
// Debug printer – produces a human-readable tree representation
// ---------------------------------------------------------------------------

// DebugString returns a readable multi-line representation of the AST.
func DebugString(prog *Program) string {
	var b strings.Builder
	b.WriteString("Program\n")
	for _, s := range prog.Stmts {
		debugStmt(&b, s, 1)
	}
	return b.String()
}

func writeIndent(b *strings.Builder, level int) {
	for i := 0; i < level; i++ {
		b.WriteString("  ")
	}
}

func debugBlock(b *strings.Builder, block *BlockStmt, level int) {
	writeIndent(b, level)
	fmt.Fprintf(b, "Block [%d statements]\n", len(block.Stmts))
	for _, s := range block.Stmts {
		debugStmt(b, s, level+1)
	}
}

func debugStmt(b *strings.Builder, s Stmt, level int) {
	switch s := s.(type) {
	case *FuncDef:
		writeIndent(b, level)
		params := make([]string, len(s.Params))
		for i, p := range s.Params {
			params[i] = p.Name
			if p.Default != nil {
				params[i] += "=" + ExprString(p.Default)
			}
		}
		fmt.Fprintf(b, "Def %s(%s)\n", s.Name, strings.Join(params, ", "))
		debugBlock(b, s.Body, level+1)
	case *ImportStmt:
		writeIndent(b, level)
		names := make([]string, len(s.Names))
		for i, n := range s.Names {
			names[i] = n.Name
			if n.Alias != "" {
				names[i] += " as " + n.Alias
			}
		}
		if s.From != "" {
			fmt.Fprintf(b, "From %s import %s\n", s.From, strings.Join(names, ", "))
		} else {
			fmt.Fprintf(b, "Import %s\n", strings.Join(names, ", "))
		}
	case *AssignStmt:
		writeIndent(b, level)
		fmt.Fprintf(b, "AssignStmt %s = %s\n", s.Target.Name, ExprString(s.Value))
	case *AugAssignStmt:
		writeIndent(b, level)
		fmt.Fprintf(b, "AugAssignStmt %s %s %s\n", s.Target.Name, s.Op, ExprString(s.Value))
	case *IndexAssignStmt:
		writeIndent(b, level)
		fmt.Fprintf(b, "IndexAssignStmt %s[%s] = %s\n", s.Target.Name, ExprString(s.Index), ExprString(s.Value))
	case *ReturnStmt:
		writeIndent(b, level)
		if s.Value != nil {
			fmt.Fprintf(b, "ReturnStmt %s\n", ExprString(s.Value))
		} else {
			b.WriteString("ReturnStmt\n")
		}
	case *PrintStmt:
		writeIndent(b, level)
		fmt.Fprintf(b, "PrintStmt %s\n", exprList(s.Values))
	case *AssertStmt:
		writeIndent(b, level)
		if s.Message != nil {
			fmt.Fprintf(b, "AssertStmt %s, %s\n", ExprString(s.Condition), ExprString(s.Message))
		} else {
			fmt.Fprintf(b, "AssertStmt %s\n", ExprString(s.Condition))
		}
	case *PassStmt:
		writeIndent(b, level)
		b.WriteString("PassStmt\n")
	case *BreakStmt:
		writeIndent(b, level)
		b.WriteString("BreakStmt\n")
	case *ContinueStmt:
		writeIndent(b, level)
		b.WriteString("ContinueStmt\n")
	case *IfStmt:
		writeIndent(b, level)
		fmt.Fprintf(b, "IfStmt (%s)\n", ExprString(s.Condition))
		debugBlock(b, s.Then, level+1)
		if s.Else != nil {
			writeIndent(b, level+1)
			b.WriteString("Else:\n")
			debugStmt(b, s.Else, level+2)
		}
	case *WhileStmt:
		writeIndent(b, level)
		fmt.Fprintf(b, "WhileStmt (%s)\n", ExprString(s.Condition))
		debugBlock(b, s.Body, level+1)
	case *ForStmt:
		writeIndent(b, level)
		fmt.Fprintf(b, "ForStmt %s in %s\n", s.Var.Name, ExprString(s.Iter))
		debugBlock(b, s.Body, level+1)
	case *ExprStmt:
		writeIndent(b, level)
		fmt.Fprintf(b, "ExprStmt %s\n", ExprString(s.Expression))
	case *BlockStmt:
		debugBlock(b, s, level)
	default:
		writeIndent(b, level)
		b.WriteString("<unknown stmt>\n")
	}
}

func exprList(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = ExprString(e)
	}
	return strings.Join(parts, ", ")
}

// ExprString returns a concise one-line representation of an expression.
func ExprString(e Expr) string {
	if e == nil {
		return "<nil>"
	}
	switch e := e.(type) {
	case *IdentExpr:
		return e.Name
	case *IntLitExpr:
		return e.Value
	case *DecimalLitExpr:
		return e.Value
	case *StringLitExpr:
		return e.Value
	case *NoneLitExpr:
		return "None"
	case *BoolLitExpr:
		if e.Value {
			return "True"
		}
		return "False"
	case *ListLitExpr:
		return fmt.Sprintf("[%s]", exprList(e.Elems))
	case *GroupExpr:
		return fmt.Sprintf("(%s)", ExprString(e.Expression))
	case *UnaryExpr:
		if e.Op == "not" {
			return fmt.Sprintf("(not %s)", ExprString(e.Operand))
		}
		return fmt.Sprintf("(%s%s)", e.Op, ExprString(e.Operand))
	case *BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", ExprString(e.Left), e.Op, ExprString(e.Right))
	case *CallExpr:
		return fmt.Sprintf("%s(%s)", e.Name, exprList(e.Args))
	case *MethodCallExpr:
		return fmt.Sprintf("%s.%s(%s)", ExprString(e.Object), e.Method, exprList(e.Args))
	case *IndexExpr:
		return fmt.Sprintf("%s[%s]", ExprString(e.Object), ExprString(e.Index))
	default:
		return "<unknown expr>"
	}
}
