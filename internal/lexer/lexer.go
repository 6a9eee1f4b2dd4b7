package lexer

import "fmt"

const (
	// Special
	EOF     = "EOF"
	ILLEGAL = "ILLEGAL"

	// Layout
	NEWLINE = "NEWLINE" // end of a logical line
	INDENT  = "INDENT"  // indentation increased
	DEDENT  = "DEDENT"  // indentation decreased

	// Literals
	IDENT   = "IDENT"   // identifiers: x, total, get_value, …
	INT     = "INT"     // integer literals: 0, 42, 0xFF, …
	DECIMAL = "DECIMAL" // decimal literals: 3.14, 0.5, …
	STRING  = "STRING"  // string literals: "hello", 'world', …

	// Keywords
	DEF      = "DEF"
	IF       = "IF"
	ELIF     = "ELIF"
	ELSE     = "ELSE"
	WHILE    = "WHILE"
	FOR      = "FOR"
	IN       = "IN"
	RETURN   = "RETURN"
	PRINT    = "PRINT"
	ASSERT   = "ASSERT"
	PASS     = "PASS"
	BREAK    = "BREAK"
	CONTINUE = "CONTINUE"
	IMPORT   = "IMPORT"
	FROM     = "FROM"
	AS       = "AS"
	AND      = "AND"
	OR       = "OR"
	NOT      = "NOT"
	NONE     = "NONE"
	TRUE     = "TRUE"
	FALSE    = "FALSE"

	// Delimiters
	LPAREN   = "LPAREN"   // (
	RPAREN   = "RPAREN"   // )
	LBRACKET = "LBRACKET" // [
	RBRACKET = "RBRACKET" // ]
	COMMA    = "COMMA"    // ,
	COLON    = "COLON"    // :
	DOT      = "DOT"      // .

	// Arithmetic operators
	PLUS    = "PLUS"    // +
	MINUS   = "MINUS"   // -
	STAR    = "STAR"    // *
	SLASH   = "SLASH"   // /
	PERCENT = "PERCENT" // %
	POWER   = "POWER"   // **

	// Assignment operators
	ASSIGN       = "ASSIGN"       // =
	PLUS_ASSIGN  = "PLUS_ASSIGN"  // +=
	MINUS_ASSIGN = "MINUS_ASSIGN" // -=
	STAR_ASSIGN  = "STAR_ASSIGN"  // *=
	SLASH_ASSIGN = "SLASH_ASSIGN" // /=

	// Comparison operators
	EQ  = "EQ"  // ==
	NEQ = "NEQ" // !=
	LT  = "LT"  // <
	GT  = "GT"  // >
	LTE = "LTE" // <=
	GTE = "GTE" // >=
)

// keywords maps reserved words to their token types.
var keywords = map[string]string{
	"def":      DEF,
	"if":       IF,
	"elif":     ELIF,
	"else":     ELSE,
	"while":    WHILE,
	"for":      FOR,
	"in":       IN,
	"return":   RETURN,
	"print":    PRINT,
	"assert":   ASSERT,
	"pass":     PASS,
	"break":    BREAK,
	"continue": CONTINUE,
	"import":   IMPORT,
	"from":     FROM,
	"as":       AS,
	"and":      AND,
	"or":       OR,
	"not":      NOT,
	"None":     NONE,
	"True":     TRUE,
	"False":    FALSE,
}

// tabWidth is the column multiple a tab advances indentation to.
const tabWidth = 8

// Token represents a single lexical token produced by the lexer.
type Token struct {
	Type   string
	Value  string
	Line   int
	Column int
}

// LexError represents a recoverable error encountered during lexing.
type LexError struct {
	Message string
	Lexeme  string
	Line    int
	Column  int
}

func (e LexError) Error() string {
	return fmt.Sprintf("line %d, col %d: %s (got %q)", e.Line, e.Column, e.Message, e.Lexeme)
}

// Options tunes how the lexer counts lines.
type Options struct {
	// LegacyLines counts every '\r' and every '\n' as a line break, so a CRLF
	// file reports raw line 2n-1 for source line n. report.LineLegacy maps
	// those back for display.
	LegacyLines bool
}

// Lex tokenizes MiniPython source with the default options.
func Lex(input string) ([]Token, []LexError) {
	return LexWithOptions(input, Options{})
}

// LexWithOptions tokenizes MiniPython source into a slice of Tokens, including
// NEWLINE/INDENT/DEDENT layout tokens, and returns any recoverable errors.
func LexWithOptions(input string, opts Options) ([]Token, []LexError) {
	lx := &scanner{
		input:       input,
		opts:        opts,
		line:        1,
		col:         1,
		indents:     []int{0},
		atLineStart: true,
	}
	lx.run()
	return lx.tokens, lx.errors
}

type scanner struct {
	input  string
	opts   Options
	i      int
	line   int
	col    int
	tokens []Token
	errors []LexError

	indents     []int
	depth       int  // open ( and [ count; newlines inside are ignored
	atLineStart bool // next non-blank character begins a logical line
}

func (s *scanner) run() {
	for s.i < len(s.input) {
		if s.atLineStart && s.depth == 0 {
			if !s.indentation() {
				continue
			}
		}

		ch := s.input[s.i]

		if ch == '\n' || ch == '\r' {
			if s.depth > 0 && s.nextLineStartsStatement() {
				// Brackets never span a statement keyword: the bracket was
				// left unclosed, so end the logical line here.
				s.depth = 0
			}
			if s.depth == 0 {
				s.emitNewline()
			}
			s.lineBreak()
			continue
		}

		if ch == ' ' || ch == '\t' || ch == '\f' {
			s.i++
			s.col++
			continue
		}

		// Line continuation: backslash immediately before a newline.
		if ch == '\\' && s.i+1 < len(s.input) && (s.input[s.i+1] == '\n' || s.input[s.i+1] == '\r') {
			s.i++
			s.col++
			s.lineBreak()
			s.atLineStart = false
			continue
		}

		if ch == '#' {
			s.skipComment()
			continue
		}

		if ch == '"' || ch == '\'' {
			s.lexString()
			continue
		}

		if isDigit(ch) {
			s.lexNumber()
			continue
		}

		if isIdentStart(ch) {
			s.lexIdentifier()
			continue
		}

		if tok, width := lexOperatorOrDelimiter(s.input, s.i, s.line, s.col); width > 0 {
			switch tok.Type {
			case LPAREN, LBRACKET:
				s.depth++
			case RPAREN, RBRACKET:
				if s.depth > 0 {
					s.depth--
				}
			}
			s.tokens = append(s.tokens, tok)
			s.i += width
			s.col += width
			continue
		}

		s.errors = append(s.errors, LexError{
			Message: "unexpected character",
			Lexeme:  string(ch),
			Line:    s.line,
			Column:  s.col,
		})
		s.i++
		s.col++
	}

	s.emitNewline()
	for len(s.indents) > 1 {
		s.indents = s.indents[:len(s.indents)-1]
		s.tokens = append(s.tokens, Token{DEDENT, "", s.line, s.col})
	}
	s.tokens = append(s.tokens, Token{EOF, "", s.line, s.col})
}

// indentation measures the leading whitespace of a physical line and emits
// INDENT/DEDENT tokens. It returns false when the line turned out to be blank
// or comment-only and has been consumed entirely.
func (s *scanner) indentation() bool {
	width := 0
scan:
	for s.i < len(s.input) {
		switch s.input[s.i] {
		case ' ':
			width++
		case '\t':
			width = (width/tabWidth + 1) * tabWidth
		case '\f':
			width = 0
		default:
			break scan
		}
		s.i++
		s.col++
	}
	if s.i >= len(s.input) {
		return false
	}
	switch s.input[s.i] {
	case '\n', '\r':
		s.lineBreak()
		return false
	case '#':
		s.skipComment()
		if s.i < len(s.input) {
			s.lineBreak()
		}
		return false
	}

	s.atLineStart = false
	top := s.indents[len(s.indents)-1]
	switch {
	case width > top:
		s.indents = append(s.indents, width)
		s.tokens = append(s.tokens, Token{INDENT, "", s.line, 1})
	case width < top:
		for len(s.indents) > 1 && s.indents[len(s.indents)-1] > width {
			s.indents = s.indents[:len(s.indents)-1]
			s.tokens = append(s.tokens, Token{DEDENT, "", s.line, 1})
		}
		if s.indents[len(s.indents)-1] != width {
			s.errors = append(s.errors, LexError{
				Message: "unindent does not match any outer indentation level",
				Lexeme:  "",
				Line:    s.line,
				Column:  s.col,
			})
		}
	}
	return true
}

// emitNewline closes the current logical line, if one is open.
func (s *scanner) emitNewline() {
	if len(s.tokens) == 0 {
		return
	}
	switch s.tokens[len(s.tokens)-1].Type {
	case NEWLINE, INDENT, DEDENT:
		return
	}
	s.tokens = append(s.tokens, Token{NEWLINE, "", s.line, s.col})
}

// statementKeywords are the keywords that can only begin a statement.
var statementKeywords = map[string]bool{
	DEF: true, IF: true, ELIF: true, ELSE: true, WHILE: true, FOR: true,
	RETURN: true, PRINT: true, ASSERT: true, PASS: true, BREAK: true,
	CONTINUE: true, IMPORT: true, FROM: true,
}

// nextLineStartsStatement reports whether the physical line after the line
// terminator at s.i begins with a statement keyword.
func (s *scanner) nextLineStartsStatement() bool {
	j := s.i
	if s.input[j] == '\r' && j+1 < len(s.input) && s.input[j+1] == '\n' {
		j++
	}
	j++
	for j < len(s.input) && (s.input[j] == ' ' || s.input[j] == '\t' || s.input[j] == '\f') {
		j++
	}
	start := j
	for j < len(s.input) && isIdentPart(s.input[j]) {
		j++
	}
	if start == j || !isIdentStart(s.input[start]) {
		return false
	}
	kw, ok := keywords[s.input[start:j]]
	return ok && statementKeywords[kw]
}

// lineBreak consumes one line terminator at s.i and advances the line counter.
func (s *scanner) lineBreak() {
	ch := s.input[s.i]
	s.i++
	if ch == '\r' && !s.opts.LegacyLines && s.i < len(s.input) && s.input[s.i] == '\n' {
		s.i++
	}
	s.line++
	s.col = 1
	if s.depth == 0 {
		s.atLineStart = true
	}
}

func (s *scanner) skipComment() {
	for s.i < len(s.input) && s.input[s.i] != '\n' && s.input[s.i] != '\r' {
		s.i++
		s.col++
	}
}

func (s *scanner) lexString() {
	start := s.i
	quote := s.input[start]
	startCol := s.col
	i := start + 1
	col := s.col + 1

	for i < len(s.input) {
		ch := s.input[i]

		// Newline inside a string → unterminated.
		if ch == '\n' || ch == '\r' {
			s.errors = append(s.errors, LexError{
				Message: "unterminated string literal (newline in string)",
				Lexeme:  s.input[start:i],
				Line:    s.line,
				Column:  startCol,
			})
			s.i, s.col = i, col
			return
		}

		if ch == '\\' {
			if i+1 >= len(s.input) {
				break
			}
			next := s.input[i+1]
			if !isValidEscape(next) {
				s.errors = append(s.errors, LexError{
					Message: fmt.Sprintf("invalid escape sequence '\\%c'", next),
					Lexeme:  string([]byte{'\\', next}),
					Line:    s.line,
					Column:  col,
				})
			}
			i += 2
			col += 2
			continue
		}

		if ch == quote {
			s.tokens = append(s.tokens, Token{STRING, s.input[start : i+1], s.line, startCol})
			s.i, s.col = i+1, col+1
			return
		}

		i++
		col++
	}

	s.errors = append(s.errors, LexError{
		Message: "unterminated string literal (reached end of input)",
		Lexeme:  s.input[start:],
		Line:    s.line,
		Column:  startCol,
	})
	s.i, s.col = len(s.input), col
}

// lexNumber scans an integer or decimal literal. A dot is only consumed as
// part of a decimal if it is followed by a digit.
func (s *scanner) lexNumber() {
	input := s.input
	start := s.i
	i := s.i

	if input[i] == '0' && i+1 < len(input) && (input[i+1] == 'x' || input[i+1] == 'X') {
		i += 2
		for i < len(input) && isHexDigit(input[i]) {
			i++
		}
		s.tokens = append(s.tokens, Token{INT, input[start:i], s.line, s.col})
		s.col += i - start
		s.i = i
		return
	}

	for i < len(input) && isDigit(input[i]) {
		i++
	}
	tokType := INT
	if i < len(input) && input[i] == '.' && i+1 < len(input) && isDigit(input[i+1]) {
		tokType = DECIMAL
		i++
		for i < len(input) && isDigit(input[i]) {
			i++
		}
	}
	s.tokens = append(s.tokens, Token{tokType, input[start:i], s.line, s.col})
	s.col += i - start
	s.i = i
}

func (s *scanner) lexIdentifier() {
	start := s.i
	i := s.i
	for i < len(s.input) && isIdentPart(s.input[i]) {
		i++
	}
	word := s.input[start:i]
	tokType := IDENT
	if kw, ok := keywords[word]; ok {
		tokType = kw
	}
	s.tokens = append(s.tokens, Token{tokType, word, s.line, s.col})
	s.col += i - start
	s.i = i
}

// lexOperatorOrDelimiter tries to match a 1- or 2-character operator or
// delimiter starting at input[i]. Returns the token and the number of
// characters consumed (0 if nothing matched).
func lexOperatorOrDelimiter(input string, i int, line int, col int) (Token, int) {
	ch := input[i]
	var next byte
	if i+1 < len(input) {
		next = input[i+1]
	}

	switch ch {
	case '+':
		if next == '=' {
			return Token{PLUS_ASSIGN, "+=", line, col}, 2
		}
		return Token{PLUS, "+", line, col}, 1
	case '-':
		if next == '=' {
			return Token{MINUS_ASSIGN, "-=", line, col}, 2
		}
		return Token{MINUS, "-", line, col}, 1
	case '*':
		if next == '*' {
			return Token{POWER, "**", line, col}, 2
		}
		if next == '=' {
			return Token{STAR_ASSIGN, "*=", line, col}, 2
		}
		return Token{STAR, "*", line, col}, 1
	case '/':
		if next == '=' {
			return Token{SLASH_ASSIGN, "/=", line, col}, 2
		}
		return Token{SLASH, "/", line, col}, 1
	case '=':
		if next == '=' {
			return Token{EQ, "==", line, col}, 2
		}
		return Token{ASSIGN, "=", line, col}, 1
	case '!':
		if next == '=' {
			return Token{NEQ, "!=", line, col}, 2
		}
		return Token{}, 0
	case '<':
		if next == '=' {
			return Token{LTE, "<=", line, col}, 2
		}
		return Token{LT, "<", line, col}, 1
	case '>':
		if next == '=' {
			return Token{GTE, ">=", line, col}, 2
		}
		return Token{GT, ">", line, col}, 1
	}

	switch ch {
	case '(':
		return Token{LPAREN, "(", line, col}, 1
	case ')':
		return Token{RPAREN, ")", line, col}, 1
	case '[':
		return Token{LBRACKET, "[", line, col}, 1
	case ']':
		return Token{RBRACKET, "]", line, col}, 1
	case ',':
		return Token{COMMA, ",", line, col}, 1
	case ':':
		return Token{COLON, ":", line, col}, 1
	case '.':
		return Token{DOT, ".", line, col}, 1
	case '%':
		return Token{PERCENT, "%", line, col}, 1
	}

	return Token{}, 0
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentStart(ch byte) bool {
	return isLetter(ch) || ch == '_'
}

func isIdentPart(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch == '_'
}

func isValidEscape(ch byte) bool {
	switch ch {
	case 'n', 'r', 't', '\\', '\'', '"', '0':
		return true
	default:
		return false
	}
}
