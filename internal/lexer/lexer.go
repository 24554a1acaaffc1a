package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"fp/internal/token"
)

type Lexer struct {
	input string

	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination

	line int // 1-based
	col  int // 1-based column of current char
}

func New(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0, // readChar() will advance to col=1 for first char
	}
	l.readChar()
	return l
}

// Tokenize scans the whole input, EOF token included.
func Tokenize(input string) []token.Token {
	l := New(input)
	var out []token.Token
	for {
		tok := l.NextToken()
		out = append(out, tok)
		if tok.Type == token.EOF {
			return out
		}
	}
}

func (l *Lexer) NextToken() token.Token {
	// Whitespace, newlines included, carries no meaning.
	for {
		l.skipWhitespace()

		if l.ch == '/' && l.peekChar() == '/' {
			l.skipLineComment()
			continue
		}
		if l.ch == '/' && l.peekChar() == '*' {
			l.skipBlockComment()
			continue
		}

		break
	}

	if l.ch == 0 && l.position >= len(l.input) {
		return l.newToken(token.EOF, "", l.line, l.col)
	}

	startLine, startCol := l.line, l.col
	startIdx := l.position

	switch l.ch {
	case ';':
		return l.single(token.SEMICOLON, startLine, startCol)
	case '(':
		return l.single(token.LPAREN, startLine, startCol)
	case ')':
		return l.single(token.RPAREN, startLine, startCol)
	case '{':
		return l.single(token.LBRACE, startLine, startCol)
	case '}':
		return l.single(token.RBRACE, startLine, startCol)
	case ',':
		return l.single(token.COMMA, startLine, startCol)
	case '.':
		return l.single(token.DOT, startLine, startCol)
	case '+':
		return l.single(token.PLUS, startLine, startCol)
	case '-':
		return l.single(token.MINUS, startLine, startCol)
	case '*':
		return l.single(token.STAR, startLine, startCol)
	case '/':
		// comments were handled above
		return l.single(token.SLASH, startLine, startCol)

	case '=':
		return l.oneOrTwo('=', token.EQ, token.ASSIGN, startLine, startCol)
	case '!':
		return l.oneOrTwo('=', token.NE, token.BANG, startLine, startCol)
	case '<':
		return l.oneOrTwo('=', token.LE, token.LT, startLine, startCol)
	case '>':
		return l.oneOrTwo('=', token.GE, token.GT, startLine, startCol)
	case '&':
		return l.oneOrTwo('&', token.AND, token.ILLEGAL, startLine, startCol)
	case '|':
		return l.oneOrTwo('|', token.OR, token.ILLEGAL, startLine, startCol)

	case '"':
		return l.readStringToken(startLine, startCol, startIdx)
	}

	// Identifiers / keywords
	if r, _ := l.currentRune(); isIdentStart(r) {
		lit := l.readIdentifier()
		tt := token.LookupIdent(lit)
		return l.newToken(tt, lit, startLine, startCol)
	}

	// Numbers (int or float)
	if isDigit(l.ch) {
		lit, isFloat := l.readNumber()
		if isFloat {
			return l.newToken(token.FLOAT, lit, startLine, startCol)
		}
		return l.newToken(token.INT, lit, startLine, startCol)
	}

	// Unknown character
	r, size := l.currentRune()
	tok := l.newToken(token.ILLEGAL, string(r), startLine, startCol)
	l.advance(size)
	return tok
}

func (l *Lexer) single(t token.Type, line, col int) token.Token {
	tok := l.newToken(t, string(l.ch), line, col)
	l.readChar()
	return tok
}

// oneOrTwo emits two when the next char is second, otherwise one.
func (l *Lexer) oneOrTwo(second byte, two, one token.Type, line, col int) token.Token {
	if l.peekChar() == second {
		ch := l.ch
		l.readChar()
		lit := string([]byte{ch, l.ch})
		tok := l.newToken(two, lit, line, col)
		l.readChar()
		return tok
	}
	return l.single(one, line, col)
}

func (l *Lexer) newToken(t token.Type, lit string, line, col int) token.Token {
	return token.Token{
		Type:    t,
		Literal: lit,
		Line:    line,
		Col:     col,
	}
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		return
	}

	l.ch = l.input[l.readPosition]
	l.position = l.readPosition
	l.readPosition++

	// Track line/col for current char
	if l.ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

func (l *Lexer) advance(n int) {
	for i := 0; i < n; i++ {
		l.readChar()
	}
}

func (l *Lexer) currentRune() (rune, int) {
	if l.position >= len(l.input) {
		return 0, 1
	}
	if l.ch < utf8.RuneSelf {
		return rune(l.ch), 1
	}
	return utf8.DecodeRuneInString(l.input[l.position:])
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' || l.ch == '\v' || l.ch == '\f' {
		l.readChar()
	}
}

func (l *Lexer) skipLineComment() {
	l.readChar() // consume first '/'
	l.readChar() // consume second '/'

	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

func (l *Lexer) skipBlockComment() {
	l.readChar() // consume '/'
	l.readChar() // consume '*'

	for l.position < len(l.input) {
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar() // consume '*'
			l.readChar() // consume '/'
			return
		}
		l.readChar()
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for {
		r, size := l.currentRune()
		if l.position >= len(l.input) || !isIdentPart(r) {
			break
		}
		l.advance(size)
	}
	return l.input[start:l.position]
}

// readNumber reads 123 or 123.4. A trailing dot ("1.") is not part of the
// number, and ".1" does not start one.
func (l *Lexer) readNumber() (string, bool) {
	start := l.position
	for isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	isFloat := false
	if l.ch == '.' && isDigit(l.peekChar()) {
		isFloat = true
		l.readChar()
		for isDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
	}
	return l.input[start:l.position], isFloat
}

func (l *Lexer) readStringToken(startLine, startCol, startIdx int) token.Token {
	l.readChar() // move past opening quote

	var b strings.Builder
	for {
		if l.position >= len(l.input) {
			return l.newToken(token.ILLEGAL, "unterminated string", startLine, startCol)
		}
		if l.ch == '"' {
			break
		}

		if l.ch == '\\' {
			switch l.peekChar() {
			case '"':
				l.readChar()
				b.WriteByte('"')
				l.readChar()
				continue
			case '\\':
				l.readChar()
				b.WriteByte('\\')
				l.readChar()
				continue
			case 'n':
				l.readChar()
				b.WriteByte('\n')
				l.readChar()
				continue
			case 't':
				l.readChar()
				b.WriteByte('\t')
				l.readChar()
				continue
			default:
				// Unknown escape: keep the backslash literally
				b.WriteByte(l.ch)
				l.readChar()
				continue
			}
		}

		b.WriteByte(l.ch)
		l.readChar()
	}

	l.readChar() // consume closing quote
	tok := l.newToken(token.STRING, b.String(), startLine, startCol)
	tok.Raw = l.input[startIdx:l.position]
	return tok
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}
