package parser

import (
	"fmt"

	"fp/internal/ast"
	"fp/internal/diag"
	"fp/internal/lexer"
	"fp/internal/numlit"
	"fp/internal/token"
)

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	l      *lexer.Lexer
	errors []string
	diags  []diag.Diagnostic

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn
}

/* -------------------- precedence -------------------- */

const (
	_ int = iota
	LOWEST
	ORPREC      // ||
	ANDPREC     // &&
	EQUALS      // == !=
	LESSGREATER // < <= > >=
	SUM         // + -
	PRODUCT     // * /
	PREFIX      // -X, !X
)

var precedences = map[token.Type]int{
	token.OR:    ORPREC,
	token.AND:   ANDPREC,
	token.EQ:    EQUALS,
	token.NE:    EQUALS,
	token.LT:    LESSGREATER,
	token.LE:    LESSGREATER,
	token.GT:    LESSGREATER,
	token.GE:    LESSGREATER,
	token.PLUS:  SUM,
	token.MINUS: SUM,
	token.STAR:  PRODUCT,
	token.SLASH: PRODUCT,
}

var binaryOps = map[token.Type]ast.BinaryOp{
	token.PLUS:  ast.Add,
	token.MINUS: ast.Sub,
	token.STAR:  ast.Mult,
	token.SLASH: ast.Div,
	token.EQ:    ast.Eq,
	token.NE:    ast.NotEq,
	token.GT:    ast.Gt,
	token.GE:    ast.GtE,
	token.LT:    ast.Lt,
	token.LE:    ast.LtE,
	token.AND:   ast.And,
	token.OR:    ast.Or,
}

/* -------------------- constructor -------------------- */

func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l:              l,
		errors:         []string{},
		diags:          []diag.Diagnostic{},
		prefixParseFns: map[token.Type]prefixParseFn{},
		infixParseFns:  map[token.Type]infixParseFn{},
	}

	// read two tokens, so cur and peek are set
	p.nextToken()
	p.nextToken()

	// Prefix parsers
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.INT, p.parseIntegerLiteral)
	p.registerPrefix(token.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.TRUE, p.parseBooleanLiteral)
	p.registerPrefix(token.FALSE, p.parseBooleanLiteral)
	p.registerPrefix(token.NIL, p.parseNilLiteral)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.LBRACE, p.parseBlockExpression)
	p.registerPrefix(token.IF, p.parseIfExpression)
	p.registerPrefix(token.MINUS, p.parseUnaryExpression)
	p.registerPrefix(token.BANG, p.parseUnaryExpression)

	// Infix parsers
	for tt := range binaryOps {
		p.registerInfix(tt, p.parseBinaryExpression)
	}

	return p
}

// Parse is a convenience wrapper for lexing and parsing a whole source text.
func Parse(src string) (*ast.Program, []diag.Diagnostic) {
	p := New(lexer.New(src))
	prog := p.ParseProgram()
	return prog, p.Diagnostics()
}

func (p *Parser) Diagnostics() []diag.Diagnostic { return p.diags }
func (p *Parser) Errors() []string               { return p.errors }

/* -------------------- program -------------------- */

func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{Statements: []ast.Statement{}}

	for p.curToken.Type != token.EOF {
		if p.curToken.Type == token.SEMICOLON {
			p.nextToken()
			continue
		}

		stmt := p.parseStatement()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}

		p.nextToken()
	}

	return program
}

/* -------------------- statements -------------------- */

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.LET:
		return p.parseLetStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.FN, token.FOR, token.RETURN:
		p.errorAt(p.curToken, fmt.Sprintf("%q is reserved but not supported", p.curToken.Literal))
		p.skipToStatementEnd()
		return nil
	case token.RBRACE:
		p.errorAt(p.curToken, "unexpected }")
		return nil
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseLetStatement() ast.Statement {
	stmt := &ast.LetStatement{Token: p.curToken}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectPeek(token.ASSIGN) {
		return nil
	}

	p.nextToken() // start of value expression
	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseWhileStatement() ast.Statement {
	stmt := &ast.WhileStatement{Token: p.curToken}

	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if stmt.Condition == nil {
		return nil
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseBlock()
	if stmt.Body == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	stmt := &ast.ExpressionStatement{Token: p.curToken}
	stmt.Expression = p.parseExpression(LOWEST)
	if stmt.Expression == nil {
		return nil
	}
	return stmt
}

// skipToStatementEnd moves to the last token before the next ';' or '}'.
func (p *Parser) skipToStatementEnd() {
	for p.peekToken.Type != token.SEMICOLON && p.peekToken.Type != token.RBRACE && p.peekToken.Type != token.EOF {
		p.nextToken()
	}
}

func (p *Parser) parseBlock() *ast.BlockExpression {
	// curToken is '{'
	block := &ast.BlockExpression{Token: p.curToken, Statements: []ast.Statement{}}

	p.nextToken()

	for p.curToken.Type != token.RBRACE {
		if p.curToken.Type == token.EOF {
			p.errorAt(p.curToken, "expected } to close block")
			return nil
		}
		if p.curToken.Type == token.SEMICOLON {
			p.nextToken()
			continue
		}

		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}

		p.nextToken()
	}

	return block
}

/* -------------------- expressions (Pratt) -------------------- */

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}

	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	for precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken()
		leftExp = infix(leftExp)
		if leftExp == nil {
			return nil
		}
	}

	return leftExp
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	v, err := numlit.ParseInt(p.curToken.Literal)
	if err != nil {
		p.errorAt(p.curToken, fmt.Sprintf("could not parse int %q: %s", p.curToken.Literal, err))
		return nil
	}
	return &ast.IntegerLiteral{Token: p.curToken, Value: v}
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	v, err := numlit.ParseFloat(p.curToken.Literal)
	if err != nil {
		p.errorAt(p.curToken, fmt.Sprintf("could not parse float %q: %s", p.curToken.Literal, err))
		return nil
	}
	return &ast.FloatLiteral{Token: p.curToken, Value: v}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseBooleanLiteral() ast.Expression {
	return &ast.BooleanLiteral{Token: p.curToken, Value: p.curToken.Type == token.TRUE}
}

func (p *Parser) parseNilLiteral() ast.Expression {
	return &ast.NilLiteral{Token: p.curToken}
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	// curToken is '('
	group := &ast.GroupExpression{Token: p.curToken}
	p.nextToken()
	group.Inner = p.parseExpression(LOWEST)
	if group.Inner == nil {
		return nil
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return group
}

func (p *Parser) parseBlockExpression() ast.Expression {
	block := p.parseBlock()
	if block == nil {
		return nil
	}
	return block
}

func (p *Parser) parseIfExpression() ast.Expression {
	exp := &ast.IfExpression{Token: p.curToken}

	p.nextToken()
	exp.Condition = p.parseExpression(LOWEST)
	if exp.Condition == nil {
		return nil
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	exp.Consequence = p.parseBlock()
	if exp.Consequence == nil {
		return nil
	}

	if p.peekToken.Type != token.ELSE {
		return exp
	}
	p.nextToken() // 'else'

	// else if: the nested if becomes the sole statement of the else block
	if p.peekToken.Type == token.IF {
		p.nextToken()
		elseTok := p.curToken
		nested := p.parseIfExpression()
		if nested == nil {
			return nil
		}
		exp.Alternative = &ast.BlockExpression{
			Token: elseTok,
			Statements: []ast.Statement{
				&ast.ExpressionStatement{Token: elseTok, Expression: nested},
			},
		}
		return exp
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	exp.Alternative = p.parseBlock()
	if exp.Alternative == nil {
		return nil
	}
	return exp
}

func (p *Parser) parseUnaryExpression() ast.Expression {
	exp := &ast.UnaryExpression{Token: p.curToken, Op: ast.Not}
	if p.curToken.Type == token.MINUS {
		exp.Op = ast.Minus
	}
	p.nextToken()
	exp.Operand = p.parseExpression(PREFIX)
	if exp.Operand == nil {
		return nil
	}
	return exp
}

func (p *Parser) parseBinaryExpression(left ast.Expression) ast.Expression {
	exp := &ast.BinaryExpression{
		Token: p.curToken,
		Op:    binaryOps[p.curToken.Type],
		Left:  left,
	}
	prec := p.curPrecedence()
	p.nextToken()
	exp.Right = p.parseExpression(prec)
	if exp.Right == nil {
		return nil
	}
	return exp
}

/* -------------------- helpers -------------------- */

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) registerPrefix(t token.Type, fn prefixParseFn) {
	p.prefixParseFns[t] = fn
}

func (p *Parser) registerInfix(t token.Type, fn infixParseFn) {
	p.infixParseFns[t] = fn
}

func (p *Parser) expectPeek(t token.Type) bool {
	if p.peekToken.Type == t {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) errorAt(tok token.Token, msg string) {
	length := 1
	if tok.Literal != "" {
		length = len([]rune(tok.Literal))
	}
	p.diags = append(p.diags, diag.Diagnostic{
		Code:     diag.CodeSyntax,
		Message:  msg,
		Severity: diag.SeverityError,
		Range: diag.Range{
			Line:   tok.Line,
			Col:    tok.Col,
			Length: length,
		},
	})
	p.errors = append(p.errors, fmt.Sprintf("%d:%d: %s", tok.Line, tok.Col, msg))
}

func (p *Parser) peekError(t token.Type) {
	msg := fmt.Sprintf("expected next token to be %s, got %s instead", t, p.peekToken.Type)
	p.errorAt(p.peekToken, msg)
}

func (p *Parser) noPrefixParseFnError(tok token.Token) {
	msg := fmt.Sprintf("no prefix parse function for %s", tok.Type)
	if tok.Type == token.ILLEGAL {
		msg = fmt.Sprintf("illegal token %q", tok.Literal)
	}
	p.errorAt(tok, msg)
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}
	return LOWEST
}
