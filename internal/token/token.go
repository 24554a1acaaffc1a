package token

type Type string

type Token struct {
	Type    Type
	Literal string
	// Raw preserves the original lexeme when Literal is normalized (e.g., strings).
	Raw  string
	Line int
	Col  int
}

const (
	// Special
	ILLEGAL Type = "ILLEGAL"
	EOF     Type = "EOF"

	SEMICOLON Type = ";"

	// Identifiers + literals
	IDENT  Type = "IDENT"
	INT    Type = "INT"
	FLOAT  Type = "FLOAT"
	STRING Type = "STRING"

	// Keywords
	LET    Type = "LET"
	IF     Type = "IF"
	ELSE   Type = "ELSE"
	WHILE  Type = "WHILE"
	FOR    Type = "FOR"
	FN     Type = "FN"
	RETURN Type = "RETURN"
	TRUE   Type = "TRUE"
	FALSE  Type = "FALSE"
	NIL    Type = "NIL"

	// Operators
	ASSIGN Type = "="
	PLUS   Type = "+"
	MINUS  Type = "-"
	STAR   Type = "*"
	SLASH  Type = "/"
	BANG   Type = "!"

	EQ  Type = "=="
	NE  Type = "!="
	LT  Type = "<"
	LE  Type = "<="
	GT  Type = ">"
	GE  Type = ">="
	AND Type = "&&"
	OR  Type = "||"

	// Delimiters
	COMMA  Type = ","
	DOT    Type = "."
	LPAREN Type = "("
	RPAREN Type = ")"
	LBRACE Type = "{"
	RBRACE Type = "}"
)

var keywords = map[string]Type{
	"let":    LET,
	"if":     IF,
	"else":   ELSE,
	"while":  WHILE,
	"for":    FOR,
	"fn":     FN,
	"return": RETURN,
	"true":   TRUE,
	"false":  FALSE,
	"nil":    NIL,
}

func LookupIdent(ident string) Type {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}
