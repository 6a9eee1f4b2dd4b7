package parser

import (
	"fmt"
	"strings"

	"minipy/internal/ast"
	"minipy/internal/lexer"
)

// ---------------------------------------------------------------------------
// Precedence levels for Pratt expression parsing
// ---------------------------------------------------------------------------

const (
	precNone       = iota
	precOr         // or
	precAnd        // and
	precNot        // not (prefix)
	precComparison // == != < > <= >=
	precAdditive   // + -
	precMultiply   // * / %
	precUnary      // - (prefix)
	precPower      // ** (right-associative)
	precCall       // () . []
)

// ---------------------------------------------------------------------------
// ParseError
// ---------------------------------------------------------------------------

// ParseError represents a single error found during parsing.
type ParseError struct {
	Message string
	Line    int
	Column  int
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d, col %d: %s", e.Line, e.Column, e.Message)
}

// ---------------------------------------------------------------------------
// Parser
// ---------------------------------------------------------------------------

// Parser holds the state for a single parse pass over a token stream.
type Parser struct {
	tokens []lexer.Token
	pos    int
	errors []ParseError
}

// Parse is the main entry point. It takes a token slice (as produced by
// lexer.Lex) and returns an AST program plus any parse errors collected.
func Parse(tokens []lexer.Token) (*ast.Program, []ParseError) {
	p := &Parser{tokens: tokens, pos: 0}
	prog := p.parseProgram()
	return prog, p.errors
}

// ---------------------------------------------------------------------------
// Token helpers
// ---------------------------------------------------------------------------

// peek returns the current token without consuming it.
func (p *Parser) peek() lexer.Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return lexer.Token{Type: lexer.EOF}
}

// peekAt returns the token at a given offset from the current position.
func (p *Parser) peekAt(offset int) lexer.Token {
	idx := p.pos + offset
	if idx >= 0 && idx < len(p.tokens) {
		return p.tokens[idx]
	}
	return lexer.Token{Type: lexer.EOF}
}

// advance consumes and returns the current token.
func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if tok.Type != lexer.EOF {
		p.pos++
	}
	return tok
}

// check returns true if the current token has the given type.
func (p *Parser) check(typ string) bool {
	return p.peek().Type == typ
}

// match consumes the current token if it matches any of the given types.
func (p *Parser) match(types ...string) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

// expect consumes the current token if it matches typ; otherwise it records
// an error and returns the current token WITHOUT advancing.
func (p *Parser) expect(typ string, msg string) lexer.Token {
	if p.check(typ) {
		return p.advance()
	}
	tok := p.peek()
	p.addError(tok, fmt.Sprintf("%s (got %s %q)", msg, tok.Type, tok.Value))
	return tok
}

// addError appends a ParseError at the given token's location.
func (p *Parser) addError(tok lexer.Token, msg string) {
	p.errors = append(p.errors, ParseError{
		Message: msg,
		Line:    tok.Line,
		Column:  tok.Column,
	})
}

// synchronize skips the rest of the current logical line so the parser can
// resume at the next statement. It stops before a DEDENT so block structure
// stays intact.
func (p *Parser) synchronize() {
	for !p.check(lexer.EOF) {
		switch p.peek().Type {
		case lexer.NEWLINE:
			p.advance()
			return
		case lexer.DEDENT:
			return
		}
		p.advance()
	}
}

// endLine consumes the NEWLINE that terminates a simple statement. If the
// statement already reported errors (errCount is the count before it began),
// the rest of the line is skipped without a second complaint.
func (p *Parser) endLine(errCount int) {
	if len(p.errors) > errCount {
		p.synchronize()
		return
	}
	if p.match(lexer.NEWLINE) || p.check(lexer.EOF) || p.check(lexer.DEDENT) {
		return
	}
	tok := p.peek()
	p.addError(tok, fmt.Sprintf("expected end of line (got %s %q)", tok.Type, tok.Value))
	p.synchronize()
}

// position converts a token into an ast.Position.
func (p *Parser) position(tok lexer.Token) ast.Position {
	return ast.Position{Line: tok.Line, Column: tok.Column}
}

// =========================================================================
// Top-level parsing
// =========================================================================

func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{Pos: p.position(p.peek())}

	for !p.check(lexer.EOF) {
		start := p.pos
		switch p.peek().Type {
		case lexer.NEWLINE:
			p.advance()
		case lexer.DEF:
			if fn := p.parseFuncDef(); fn != nil {
				prog.Stmts = append(prog.Stmts, fn)
			}
		case lexer.IMPORT, lexer.FROM:
			if imp := p.parseImport(); imp != nil {
				prog.Stmts = append(prog.Stmts, imp)
			}
		case lexer.INDENT:
			// A stray indented block at top level: report it, then keep its
			// statements so later passes still see them.
			tok := p.advance()
			p.addError(tok, "unexpected indent")
			block := p.parseBlockBody(tok)
			prog.Stmts = append(prog.Stmts, block.Stmts...)
		case lexer.DEDENT:
			p.advance()
		default:
			if stmt := p.parseStatement(); stmt != nil {
				prog.Stmts = append(prog.Stmts, stmt)
			}
		}
		if p.pos == start {
			p.advance()
		}
	}

	return prog
}

// parseFuncDef: def <name> ( [params] ) : <suite>
func (p *Parser) parseFuncDef() *ast.FuncDef {
	errCount := len(p.errors)
	p.advance() // consume 'def'

	nameTok := p.expect(lexer.IDENT, "expected function name after 'def'")
	if nameTok.Type != lexer.IDENT {
		p.synchronize()
		p.skipSuite()
		return nil
	}

	p.expect(lexer.LPAREN, "expected '(' after function name")
	params := p.parseParams()
	p.expect(lexer.RPAREN, "expected ')' after parameters")

	fn := &ast.FuncDef{
		Name:   nameTok.Value,
		Params: params,
		Pos:    p.position(nameTok),
	}
	fn.Body = p.parseSuite(errCount)
	return fn
}

// parseParams parses a comma-separated parameter list (possibly empty).
func (p *Parser) parseParams() ast.ParamList {
	var params ast.ParamList
	if p.check(lexer.RPAREN) {
		return params
	}

	for {
		tok := p.expect(lexer.IDENT, "expected parameter name")
		if tok.Type != lexer.IDENT {
			return params
		}
		param := &ast.Param{Name: tok.Value, Pos: p.position(tok)}
		if p.match(lexer.ASSIGN) {
			param.Default = p.parseExpression()
		}
		params = append(params, param)

		if !p.match(lexer.COMMA) {
			return params
		}
	}
}

// parseImport parses either "import a.b as c, d" or "from a import f as g".
func (p *Parser) parseImport() *ast.ImportStmt {
	errCount := len(p.errors)
	tok := p.advance() // consume 'import' or 'from'
	stmt := &ast.ImportStmt{Pos: p.position(tok)}

	if tok.Type == lexer.FROM {
		stmt.From = p.parseDottedName()
		p.expect(lexer.IMPORT, "expected 'import' after module name")
		for {
			nameTok := p.expect(lexer.IDENT, "expected name to import")
			if nameTok.Type != lexer.IDENT {
				break
			}
			name := ast.ImportName{Name: nameTok.Value, Pos: p.position(nameTok)}
			if p.match(lexer.AS) {
				name.Alias = p.expect(lexer.IDENT, "expected alias after 'as'").Value
			}
			stmt.Names = append(stmt.Names, name)
			if !p.match(lexer.COMMA) {
				break
			}
		}
	} else {
		for {
			pos := p.position(p.peek())
			path := p.parseDottedName()
			if path == "" {
				break
			}
			name := ast.ImportName{Name: path, Pos: pos}
			if p.match(lexer.AS) {
				name.Alias = p.expect(lexer.IDENT, "expected alias after 'as'").Value
			}
			stmt.Names = append(stmt.Names, name)
			if !p.match(lexer.COMMA) {
				break
			}
		}
	}

	p.endLine(errCount)
	return stmt
}

// parseDottedName parses IDENT { '.' IDENT } and returns the joined path.
func (p *Parser) parseDottedName() string {
	tok := p.expect(lexer.IDENT, "expected module name")
	if tok.Type != lexer.IDENT {
		return ""
	}
	parts := []string{tok.Value}
	for p.check(lexer.DOT) && p.peekAt(1).Type == lexer.IDENT {
		p.advance()
		parts = append(parts, p.advance().Value)
	}
	return strings.Join(parts, ".")
}

// =========================================================================
// Blocks and suites
// =========================================================================

// parseSuite parses ':' followed by either a simple statement on the same
// line or an indented block. errCount is the error count before the
// enclosing header started.
func (p *Parser) parseSuite(errCount int) *ast.BlockStmt {
	colon := p.expect(lexer.COLON, "expected ':'")
	block := &ast.BlockStmt{Pos: p.position(colon)}

	if len(p.errors) > errCount {
		// Header was malformed: drop the rest of the line but still parse an
		// indented body if one follows.
		p.synchronize()
		if p.check(lexer.INDENT) {
			return p.parseBlockBody(p.advance())
		}
		return block
	}

	if p.match(lexer.NEWLINE) {
		indent := p.peek()
		if !p.match(lexer.INDENT) {
			p.addError(indent, "expected an indented block")
			return block
		}
		return p.parseBlockBody(indent)
	}

	// Simple statement on the same line: "if x: pass"
	if stmt := p.parseSimpleStatement(); stmt != nil {
		block.Stmts = append(block.Stmts, stmt)
	}
	return block
}

// parseBlockBody parses statements up to the matching DEDENT. The INDENT
// token has already been consumed.
func (p *Parser) parseBlockBody(indent lexer.Token) *ast.BlockStmt {
	block := &ast.BlockStmt{Pos: p.position(indent)}

	for !p.check(lexer.DEDENT) && !p.check(lexer.EOF) {
		start := p.pos
		switch p.peek().Type {
		case lexer.NEWLINE:
			p.advance()
		case lexer.DEF:
			tok := p.peek()
			p.addError(tok, "nested function definitions are not supported")
			p.parseFuncDef()
		case lexer.IMPORT, lexer.FROM:
			tok := p.peek()
			p.addError(tok, "imports are only allowed at top level")
			p.synchronize()
		case lexer.INDENT:
			tok := p.advance()
			p.addError(tok, "unexpected indent")
			inner := p.parseBlockBody(tok)
			block.Stmts = append(block.Stmts, inner.Stmts...)
		default:
			if stmt := p.parseStatement(); stmt != nil {
				block.Stmts = append(block.Stmts, stmt)
			}
		}
		if p.pos == start {
			p.advance()
		}
	}

	p.match(lexer.DEDENT)
	return block
}

// skipSuite discards an indented block following a malformed header.
func (p *Parser) skipSuite() {
	if !p.match(lexer.INDENT) {
		return
	}
	depth := 1
	for depth > 0 && !p.check(lexer.EOF) {
		switch p.advance().Type {
		case lexer.INDENT:
			depth++
		case lexer.DEDENT:
			depth--
		}
	}
}

// =========================================================================
// Statements
// =========================================================================

func (p *Parser) parseStatement() ast.Stmt {
	switch p.peek().Type {
	case lexer.IF:
		return p.parseIfStmt()
	case lexer.WHILE:
		return p.parseWhileStmt()
	case lexer.FOR:
		return p.parseForStmt()
	default:
		return p.parseSimpleStatement()
	}
}

// parseIfStmt: if <cond>: <suite> { elif <cond>: <suite> } [ else: <suite> ]
// The leading keyword may be 'if' or 'elif'.
func (p *Parser) parseIfStmt() ast.Stmt {
	errCount := len(p.errors)
	tok := p.advance() // consume 'if' / 'elif'
	cond := p.parseExpression()
	then := p.parseSuite(errCount)

	stmt := &ast.IfStmt{Condition: cond, Then: then, Pos: p.position(tok)}

	switch {
	case p.check(lexer.ELIF):
		stmt.Else = p.parseIfStmt()
	case p.check(lexer.ELSE):
		elseErrs := len(p.errors)
		p.advance()
		stmt.Else = p.parseSuite(elseErrs)
	}
	return stmt
}

// parseWhileStmt: while <cond>: <suite>
func (p *Parser) parseWhileStmt() ast.Stmt {
	errCount := len(p.errors)
	tok := p.advance() // consume 'while'
	cond := p.parseExpression()
	body := p.parseSuite(errCount)
	return &ast.WhileStmt{Condition: cond, Body: body, Pos: p.position(tok)}
}

// parseForStmt: for <name> in <expr>: <suite>
func (p *Parser) parseForStmt() ast.Stmt {
	errCount := len(p.errors)
	tok := p.advance() // consume 'for'

	nameTok := p.expect(lexer.IDENT, "expected loop variable after 'for'")
	v := &ast.IdentExpr{Name: nameTok.Value, Pos: p.position(nameTok)}
	p.expect(lexer.IN, "expected 'in' after loop variable")
	iter := p.parseExpression()
	body := p.parseSuite(errCount)

	return &ast.ForStmt{Var: v, Iter: iter, Body: body, Pos: p.position(tok)}
}

// parseSimpleStatement parses one statement that fits on a single logical
// line and consumes its terminating NEWLINE.
func (p *Parser) parseSimpleStatement() ast.Stmt {
	errCount := len(p.errors)
	tok := p.peek()
	var stmt ast.Stmt

	switch tok.Type {
	case lexer.RETURN:
		p.advance()
		ret := &ast.ReturnStmt{Pos: p.position(tok)}
		if !p.atLineEnd() {
			ret.Value = p.parseExpression()
		}
		stmt = ret

	case lexer.PRINT:
		p.advance()
		pr := &ast.PrintStmt{Pos: p.position(tok)}
		// print() prints an empty line.
		if p.check(lexer.LPAREN) && p.peekAt(1).Type == lexer.RPAREN {
			p.advance()
			p.advance()
		} else if !p.atLineEnd() {
			pr.Values = append(pr.Values, p.parseExpression())
			for p.match(lexer.COMMA) {
				pr.Values = append(pr.Values, p.parseExpression())
			}
		}
		stmt = pr

	case lexer.ASSERT:
		p.advance()
		as := &ast.AssertStmt{Pos: p.position(tok)}
		as.Condition = p.parseExpression()
		if p.match(lexer.COMMA) {
			as.Message = p.parseExpression()
		}
		stmt = as

	case lexer.PASS:
		p.advance()
		stmt = &ast.PassStmt{Pos: p.position(tok)}

	case lexer.BREAK:
		p.advance()
		stmt = &ast.BreakStmt{Pos: p.position(tok)}

	case lexer.CONTINUE:
		p.advance()
		stmt = &ast.ContinueStmt{Pos: p.position(tok)}

	default:
		stmt = p.parseExprOrAssignStmt()
	}

	p.endLine(errCount)
	return stmt
}

// atLineEnd reports whether the current token ends the logical line.
func (p *Parser) atLineEnd() bool {
	switch p.peek().Type {
	case lexer.NEWLINE, lexer.EOF, lexer.DEDENT:
		return true
	}
	return false
}

// parseExprOrAssignStmt handles:
//
//	<name> = <value>
//	<name> += <value>   (and -=, *=, /=)
//	<name>[<index>] = <value>
//	<expr>
func (p *Parser) parseExprOrAssignStmt() ast.Stmt {
	expr := p.parseExpression()

	switch p.peek().Type {
	case lexer.ASSIGN:
		opTok := p.advance()
		value := p.parseExpression()
		switch target := expr.(type) {
		case *ast.IdentExpr:
			return &ast.AssignStmt{Target: target, Value: value, Pos: target.Pos}
		case *ast.IndexExpr:
			if base, ok := target.Object.(*ast.IdentExpr); ok {
				return &ast.IndexAssignStmt{
					Target: base,
					Index:  target.Index,
					Value:  value,
					Pos:    base.Pos,
				}
			}
		}
		p.addError(opTok, "invalid assignment target")
		return &ast.ExprStmt{Expression: expr, Pos: expr.GetPos()}

	case lexer.PLUS_ASSIGN, lexer.MINUS_ASSIGN, lexer.STAR_ASSIGN, lexer.SLASH_ASSIGN:
		opTok := p.advance()
		value := p.parseExpression()
		if target, ok := expr.(*ast.IdentExpr); ok {
			return &ast.AugAssignStmt{Target: target, Op: opTok.Value, Value: value, Pos: target.Pos}
		}
		p.addError(opTok, fmt.Sprintf("invalid target for '%s'", opTok.Value))
		return &ast.ExprStmt{Expression: expr, Pos: expr.GetPos()}
	}

	return &ast.ExprStmt{Expression: expr, Pos: expr.GetPos()}
}

// =========================================================================
// Pratt expression parser
// =========================================================================

// parseExpression is the public entry point for expression parsing.
func (p *Parser) parseExpression() ast.Expr {
	return p.parsePrecedence(precOr)
}

// parsePrecedence parses an expression with at least the given minimum
// precedence. This is the core of the Pratt algorithm.
func (p *Parser) parsePrecedence(minPrec int) ast.Expr {
	left := p.parsePrefix()

	for {
		prec := infixPrecedence(p.peek().Type)
		if prec == precNone || prec < minPrec {
			break
		}
		left = p.parseInfix(left, prec)
	}

	return left
}

// ---- Prefix (atoms & unary operators) ----

func (p *Parser) parsePrefix() ast.Expr {
	tok := p.peek()

	switch tok.Type {
	case lexer.IDENT:
		p.advance()
		return &ast.IdentExpr{Name: tok.Value, Pos: p.position(tok)}

	case lexer.INT:
		p.advance()
		return &ast.IntLitExpr{Value: tok.Value, Pos: p.position(tok)}

	case lexer.DECIMAL:
		p.advance()
		return &ast.DecimalLitExpr{Value: tok.Value, Pos: p.position(tok)}

	case lexer.STRING:
		p.advance()
		return &ast.StringLitExpr{Value: tok.Value, Pos: p.position(tok)}

	case lexer.NONE:
		p.advance()
		return &ast.NoneLitExpr{Pos: p.position(tok)}

	case lexer.TRUE:
		p.advance()
		return &ast.BoolLitExpr{Value: true, Pos: p.position(tok)}

	case lexer.FALSE:
		p.advance()
		return &ast.BoolLitExpr{Value: false, Pos: p.position(tok)}

	case lexer.LPAREN:
		return p.parseGroupExpr()

	case lexer.LBRACKET:
		return p.parseListLitExpr()

	case lexer.MINUS:
		p.advance()
		// -x ** 2 is -(x ** 2): the operand may itself contain a power.
		operand := p.parsePrecedence(precPower)
		return &ast.UnaryExpr{Op: "-", Operand: operand, Pos: p.position(tok)}

	case lexer.NOT:
		p.advance()
		operand := p.parsePrecedence(precComparison)
		return &ast.UnaryExpr{Op: "not", Operand: operand, Pos: p.position(tok)}

	default:
		p.addError(tok, fmt.Sprintf("unexpected token %s in expression", tok.Type))
		if tok.Type != lexer.NEWLINE && tok.Type != lexer.DEDENT {
			p.advance() // consume the bad token so we make progress
		}
		return &ast.IdentExpr{Name: "<error>", Pos: p.position(tok)}
	}
}

// parseGroupExpr parses a parenthesised expression: ( <expr> )
func (p *Parser) parseGroupExpr() ast.Expr {
	tok := p.advance() // consume (
	expr := p.parseExpression()
	p.expect(lexer.RPAREN, "expected ')' after expression")
	return &ast.GroupExpr{Expression: expr, Pos: p.position(tok)}
}

// parseListLitExpr parses [expr, expr, ...] or [].
func (p *Parser) parseListLitExpr() ast.Expr {
	tok := p.advance() // consume '['
	var elems []ast.Expr
	if !p.check(lexer.RBRACKET) {
		elems = append(elems, p.parseExpression())
		for p.match(lexer.COMMA) {
			if p.check(lexer.RBRACKET) {
				break // allow trailing comma
			}
			elems = append(elems, p.parseExpression())
		}
	}
	p.expect(lexer.RBRACKET, "expected ']' after list elements")
	return &ast.ListLitExpr{Elems: elems, Pos: p.position(tok)}
}

// ---- Infix precedence table ----

func infixPrecedence(typ string) int {
	switch typ {
	case lexer.OR:
		return precOr
	case lexer.AND:
		return precAnd
	case lexer.EQ, lexer.NEQ, lexer.LT, lexer.GT, lexer.LTE, lexer.GTE:
		return precComparison
	case lexer.PLUS, lexer.MINUS:
		return precAdditive
	case lexer.STAR, lexer.SLASH, lexer.PERCENT:
		return precMultiply
	case lexer.POWER:
		return precPower
	case lexer.LPAREN, lexer.DOT, lexer.LBRACKET:
		return precCall
	default:
		return precNone
	}
}

// ---- Infix / postfix dispatch ----

func (p *Parser) parseInfix(left ast.Expr, prec int) ast.Expr {
	tok := p.peek()

	switch tok.Type {
	case lexer.LPAREN:
		return p.parseCallExpr(left)
	case lexer.DOT:
		return p.parseMethodCallExpr(left)
	case lexer.LBRACKET:
		return p.parseIndexExpr(left)
	case lexer.POWER:
		// Right-associative: recurse at the same precedence.
		p.advance()
		right := p.parsePrecedence(prec)
		return &ast.BinaryExpr{Op: tok.Value, Left: left, Right: right, Pos: p.position(tok)}
	default:
		// Binary operator (left-associative: recurse with prec+1).
		p.advance()
		right := p.parsePrecedence(prec + 1)
		return &ast.BinaryExpr{
			Op:    tok.Value,
			Left:  left,
			Right: right,
			Pos:   p.position(tok),
		}
	}
}

// parseIndexExpr: <object> [ <index> ]
func (p *Parser) parseIndexExpr(object ast.Expr) ast.Expr {
	tok := p.advance() // consume [
	index := p.parseExpression()
	p.expect(lexer.RBRACKET, "expected ']' after index expression")
	return &ast.IndexExpr{Object: object, Index: index, Pos: p.position(tok)}
}

// parseArgs parses ( [args] ); the '(' is the current token.
func (p *Parser) parseArgs() []ast.Expr {
	p.advance() // consume (
	var args []ast.Expr

	if !p.check(lexer.RPAREN) {
		args = append(args, p.parseExpression())
		for p.match(lexer.COMMA) {
			args = append(args, p.parseExpression())
		}
	}

	p.expect(lexer.RPAREN, "expected ')' after arguments")
	return args
}

// parseCallExpr: <name> ( [args] ). Only a bare identifier can be called.
func (p *Parser) parseCallExpr(callee ast.Expr) ast.Expr {
	tok := p.peek()
	args := p.parseArgs()

	ident, ok := callee.(*ast.IdentExpr)
	if !ok {
		p.addError(tok, fmt.Sprintf("cannot call expression %s", ast.ExprString(callee)))
		return callee
	}
	return &ast.CallExpr{Name: ident.Name, Args: args, Pos: ident.Pos}
}

// parseMethodCallExpr: <object> . <method> ( [args] )
func (p *Parser) parseMethodCallExpr(object ast.Expr) ast.Expr {
	p.advance() // consume .
	nameTok := p.expect(lexer.IDENT, "expected method name after '.'")
	if nameTok.Type != lexer.IDENT {
		return object
	}
	if !p.check(lexer.LPAREN) {
		p.addError(p.peek(), fmt.Sprintf("expected '(' after method name %q", nameTok.Value))
		return object
	}
	args := p.parseArgs()
	return &ast.MethodCallExpr{
		Object: object,
		Method: nameTok.Value,
		Args:   args,
		Pos:    p.position(nameTok),
	}
}
