package ast

import (
	"bytes"
	"strconv"

	"fp/internal/token"
)

type Node interface {
	TokenLiteral() string
	String() string
	Pos() token.Token
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

// Program is the root: statements compiled at global depth.
type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) Pos() token.Token {
	if len(p.Statements) > 0 {
		return p.Statements[0].Pos()
	}
	return token.Token{}
}

func (p *Program) String() string {
	var out bytes.Buffer
	for _, s := range p.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

/* -------------------- Statements -------------------- */

type ExpressionStatement struct {
	Token      token.Token // first token of expression
	Expression Expression
}

func (*ExpressionStatement) statementNode()          {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Literal }
func (es *ExpressionStatement) Pos() token.Token     { return es.Token }
func (es *ExpressionStatement) String() string {
	if es.Expression == nil {
		return ""
	}
	return es.Expression.String()
}

// LetStatement declares a variable: global at depth 0, local inside a block.
type LetStatement struct {
	Token token.Token // 'let'
	Name  *Identifier
	Value Expression
}

func (*LetStatement) statementNode()          {}
func (ls *LetStatement) TokenLiteral() string { return ls.Token.Literal }
func (ls *LetStatement) Pos() token.Token     { return ls.Token }
func (ls *LetStatement) String() string {
	var out bytes.Buffer
	out.WriteString("let ")
	out.WriteString(ls.Name.String())
	out.WriteString(" = ")
	if ls.Value != nil {
		out.WriteString(ls.Value.String())
	}
	return out.String()
}

type WhileStatement struct {
	Token     token.Token // 'while'
	Condition Expression
	Body      *BlockExpression
}

func (*WhileStatement) statementNode()          {}
func (ws *WhileStatement) TokenLiteral() string { return ws.Token.Literal }
func (ws *WhileStatement) Pos() token.Token     { return ws.Token }
func (ws *WhileStatement) String() string {
	var out bytes.Buffer
	out.WriteString("while ")
	out.WriteString(ws.Condition.String())
	out.WriteString(" ")
	out.WriteString(ws.Body.String())
	return out.String()
}

/* -------------------- Expressions -------------------- */

type Identifier struct {
	Token token.Token
	Value string
}

func (*Identifier) expressionNode()        {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) Pos() token.Token     { return i.Token }
func (i *Identifier) String() string       { return i.Value }

type IntegerLiteral struct {
	Token token.Token
	Value int64
}

func (*IntegerLiteral) expressionNode()         {}
func (il *IntegerLiteral) TokenLiteral() string { return il.Token.Literal }
func (il *IntegerLiteral) Pos() token.Token     { return il.Token }
func (il *IntegerLiteral) String() string       { return strconv.FormatInt(il.Value, 10) }

type FloatLiteral struct {
	Token token.Token
	Value float64
}

func (*FloatLiteral) expressionNode()         {}
func (fl *FloatLiteral) TokenLiteral() string { return fl.Token.Literal }
func (fl *FloatLiteral) Pos() token.Token     { return fl.Token }
func (fl *FloatLiteral) String() string       { return fl.Token.Literal }

type StringLiteral struct {
	Token token.Token
	Value string
}

func (*StringLiteral) expressionNode()         {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) Pos() token.Token     { return sl.Token }
func (sl *StringLiteral) String() string       { return strconv.Quote(sl.Value) }

type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (*BooleanLiteral) expressionNode()         {}
func (bl *BooleanLiteral) TokenLiteral() string { return bl.Token.Literal }
func (bl *BooleanLiteral) Pos() token.Token     { return bl.Token }
func (bl *BooleanLiteral) String() string       { return bl.Token.Literal }

type NilLiteral struct {
	Token token.Token
}

func (*NilLiteral) expressionNode()         {}
func (nl *NilLiteral) TokenLiteral() string { return nl.Token.Literal }
func (nl *NilLiteral) Pos() token.Token     { return nl.Token }
func (*NilLiteral) String() string          { return "nil" }

type GroupExpression struct {
	Token token.Token // '('
	Inner Expression
}

func (*GroupExpression) expressionNode()         {}
func (ge *GroupExpression) TokenLiteral() string { return ge.Token.Literal }
func (ge *GroupExpression) Pos() token.Token     { return ge.Token }
func (ge *GroupExpression) String() string       { return "(" + ge.Inner.String() + ")" }

type UnaryOp int

const (
	Not UnaryOp = iota
	Minus
)

func (op UnaryOp) String() string {
	if op == Minus {
		return "-"
	}
	return "!"
}

type UnaryExpression struct {
	Token   token.Token // operator token
	Op      UnaryOp
	Operand Expression
}

func (*UnaryExpression) expressionNode()         {}
func (ue *UnaryExpression) TokenLiteral() string { return ue.Token.Literal }
func (ue *UnaryExpression) Pos() token.Token     { return ue.Token }
func (ue *UnaryExpression) String() string {
	return "(" + ue.Op.String() + ue.Operand.String() + ")"
}

type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mult
	Div
	Eq
	NotEq
	Gt
	GtE
	Lt
	LtE
	And
	Or
)

var binaryOpNames = [...]string{
	Add:   "+",
	Sub:   "-",
	Mult:  "*",
	Div:   "/",
	Eq:    "==",
	NotEq: "!=",
	Gt:    ">",
	GtE:   ">=",
	Lt:    "<",
	LtE:   "<=",
	And:   "&&",
	Or:    "||",
}

func (op BinaryOp) String() string {
	if op < 0 || int(op) >= len(binaryOpNames) {
		return "?"
	}
	return binaryOpNames[op]
}

type BinaryExpression struct {
	Token token.Token // operator token
	Left  Expression
	Op    BinaryOp
	Right Expression
}

func (*BinaryExpression) expressionNode()         {}
func (be *BinaryExpression) TokenLiteral() string { return be.Token.Literal }
func (be *BinaryExpression) Pos() token.Token     { return be.Token }
func (be *BinaryExpression) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(be.Left.String())
	out.WriteString(" " + be.Op.String() + " ")
	out.WriteString(be.Right.String())
	out.WriteString(")")
	return out.String()
}

// BlockExpression evaluates its statements in a new scope; its value is the
// value of the last statement when that is an expression, otherwise nil.
type BlockExpression struct {
	Token      token.Token // '{'
	Statements []Statement
}

func (*BlockExpression) expressionNode()         {}
func (be *BlockExpression) TokenLiteral() string { return be.Token.Literal }
func (be *BlockExpression) Pos() token.Token     { return be.Token }
func (be *BlockExpression) String() string {
	var out bytes.Buffer
	out.WriteString("{")
	for i, s := range be.Statements {
		if i > 0 {
			out.WriteString(";")
		}
		out.WriteString(" ")
		out.WriteString(s.String())
	}
	out.WriteString(" }")
	return out.String()
}

type IfExpression struct {
	Token       token.Token // 'if'
	Condition   Expression
	Consequence *BlockExpression
	Alternative *BlockExpression // nil when there is no else
}

func (*IfExpression) expressionNode()         {}
func (ie *IfExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *IfExpression) Pos() token.Token     { return ie.Token }
func (ie *IfExpression) String() string {
	var out bytes.Buffer
	out.WriteString("if ")
	out.WriteString(ie.Condition.String())
	out.WriteString(" ")
	out.WriteString(ie.Consequence.String())
	if ie.Alternative != nil {
		out.WriteString(" else ")
		out.WriteString(ie.Alternative.String())
	}
	return out.String()
}
