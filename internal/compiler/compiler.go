package compiler

import (
	"fmt"

	"fp/internal/ast"
	"fp/internal/code"
	"fp/internal/token"
	"fp/internal/value"
)

type Compiler struct {
	chunk   *code.Chunk
	globals *GlobalTable
	locals  scopeStack

	// height is the operand stack height the VM will have after the
	// instructions emitted so far. Local slots are taken from it.
	height int

	curLine int
	curCol  int
}

func New() *Compiler {
	return NewWithGlobals(nil)
}

// NewWithGlobals shares the global name table with earlier compiles, so a
// REPL can keep referring to names defined on previous lines.
func NewWithGlobals(globals *GlobalTable) *Compiler {
	if globals == nil {
		globals = NewGlobalTable()
	}
	return &Compiler{
		chunk:   code.NewChunk(),
		globals: globals,
	}
}

// Compile turns a program into a fresh chunk. It never runs the program.
func Compile(program *ast.Program) (*code.Chunk, error) {
	return New().CompileProgram(program)
}

func (c *Compiler) Globals() *GlobalTable { return c.globals }

// CompileProgram compiles program into a new chunk. On error no chunk is
// returned and the global table is left as it was before the call.
func (c *Compiler) CompileProgram(program *ast.Program) (*code.Chunk, error) {
	c.chunk = code.NewChunk()
	c.locals = nil
	c.height = 0
	c.curLine, c.curCol = 0, 0

	saved := c.globals.snapshot()
	if err := c.compile(program); err != nil {
		c.globals.restore(saved)
		return nil, err
	}
	return c.chunk, nil
}

func (c *Compiler) emit(op code.Opcode, operands ...int) int {
	pos := c.chunk.Len()
	c.chunk.Write(code.Make(op, operands...)...)
	if c.curLine != 0 {
		c.chunk.WritePos(pos, c.curLine, c.curCol)
	}

	if def, ok := code.Lookup(op); ok {
		c.height += def.StackEffect
	}
	if op == code.OpCollapseLocals && len(operands) == 1 {
		c.height -= operands[0]
	}
	return pos
}

// emitIndexed picks the 1-byte or the 2-byte form from the actual index.
func (c *Compiler) emitIndexed(short, long code.Opcode, index int) int {
	if index <= code.MaxShortOperand {
		return c.emit(short, index)
	}
	return c.emit(long, index)
}

func (c *Compiler) emitConstant(tok token.Token, v value.Value) error {
	if len(c.chunk.Constants) > code.MaxLongOperand {
		return c.errorAt(tok, ErrConstantOverflow, "")
	}
	idx := c.chunk.AddConstant(v)
	c.emitIndexed(code.OpConstant, code.OpConstantLong, idx)
	return nil
}

// backfill overwrites the placeholder operand of the jump at jumpPos with
// the forward span from the end of that instruction to the current end of
// code.
func (c *Compiler) backfill(tok token.Token, jumpPos int) error {
	after := jumpPos + 3
	span := c.chunk.Len() - after
	if span > code.MaxLongOperand {
		return c.errorAt(tok, ErrBranchTooLarge, fmt.Sprintf("%d bytes", span))
	}
	c.chunk.PatchUint16(jumpPos+1, uint16(span))
	return nil
}

func (c *Compiler) setPosFromToken(tok token.Token) {
	c.curLine = tok.Line
	c.curCol = tok.Col
}

func (c *Compiler) errorAt(tok token.Token, err error, detail string) error {
	return &Error{Err: err, Detail: detail, Line: tok.Line, Col: tok.Col}
}

func (c *Compiler) compile(node ast.Node) error {
	switch n := node.(type) {
	case *ast.Program:
		for i, s := range n.Statements {
			// the last expression statement is the program's result
			if es, ok := s.(*ast.ExpressionStatement); ok && i == len(n.Statements)-1 {
				c.setPosFromToken(es.Token)
				if err := c.compile(es.Expression); err != nil {
					return err
				}
				continue
			}
			if err := c.compile(s); err != nil {
				return err
			}
		}
		c.emit(code.OpReturn)

	case *ast.ExpressionStatement:
		c.setPosFromToken(n.Token)
		if err := c.compile(n.Expression); err != nil {
			return err
		}
		c.emit(code.OpPop)

	case *ast.LetStatement:
		c.setPosFromToken(n.Token)
		if err := c.compile(n.Value); err != nil {
			return err
		}
		c.setPosFromToken(n.Token)

		if c.locals.depth() == 0 {
			sym, err := c.globals.Define(n.Name.Value)
			if err != nil {
				return c.errorAt(n.Name.Token, err, n.Name.Value)
			}
			c.emitIndexed(code.OpDefineGlobal, code.OpDefineGlobalLong, sym.Index)
			return nil
		}

		// the initializer already sits in the slot the local will use
		slot := c.height - 1
		if slot > code.MaxLongOperand {
			return c.errorAt(n.Name.Token, ErrLocalOverflow, n.Name.Value)
		}
		c.locals.define(n.Name.Value, slot)

	case *ast.WhileStatement:
		return c.errorAt(n.Token, ErrUnsupportedStatement, "while")

	case *ast.BlockExpression:
		return c.compileBlock(n)

	case *ast.IfExpression:
		return c.compileIf(n)

	case *ast.GroupExpression:
		return c.compile(n.Inner)

	case *ast.Identifier:
		c.setPosFromToken(n.Token)
		if sym, ok := c.locals.resolve(n.Value); ok {
			c.emitIndexed(code.OpGetLocal, code.OpGetLocalLong, sym.Index)
			return nil
		}
		if sym, ok := c.globals.Resolve(n.Value); ok {
			c.emitIndexed(code.OpGetGlobal, code.OpGetGlobalLong, sym.Index)
			return nil
		}
		return c.errorAt(n.Token, ErrNameNotFound, n.Value)

	case *ast.IntegerLiteral:
		c.setPosFromToken(n.Token)
		return c.emitConstant(n.Token, value.Int(n.Value))

	case *ast.FloatLiteral:
		c.setPosFromToken(n.Token)
		return c.emitConstant(n.Token, value.Float(n.Value))

	case *ast.StringLiteral:
		c.setPosFromToken(n.Token)
		return c.emitConstant(n.Token, value.Str(n.Value))

	case *ast.BooleanLiteral:
		c.setPosFromToken(n.Token)
		if n.Value {
			c.emit(code.OpTrue)
		} else {
			c.emit(code.OpFalse)
		}

	case *ast.NilLiteral:
		c.setPosFromToken(n.Token)
		c.emit(code.OpNil)

	case *ast.UnaryExpression:
		if n.Op != ast.Not {
			return c.errorAt(n.Token, ErrUnsupportedOperator, "unary "+n.Op.String())
		}
		if err := c.compile(n.Operand); err != nil {
			return err
		}
		c.setPosFromToken(n.Token)
		c.emit(code.OpNot)

	case *ast.BinaryExpression:
		return c.compileBinary(n)

	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedNode, node)
	}

	return nil
}

var binaryOpcodes = map[ast.BinaryOp]code.Opcode{
	ast.Add:   code.OpAdd,
	ast.Sub:   code.OpSub,
	ast.Mult:  code.OpMult,
	ast.Div:   code.OpDiv,
	ast.Eq:    code.OpEqual,
	ast.NotEq: code.OpEqual, // followed by OpNot
	ast.Gt:    code.OpGreater,
	ast.Lt:    code.OpLess,
}

func (c *Compiler) compileBinary(n *ast.BinaryExpression) error {
	op, ok := binaryOpcodes[n.Op]
	if !ok {
		return c.errorAt(n.Token, ErrUnsupportedOperator, n.Op.String())
	}

	if err := c.compile(n.Left); err != nil {
		return err
	}
	if err := c.compile(n.Right); err != nil {
		return err
	}

	c.setPosFromToken(n.Token)
	c.emit(op)
	if n.Op == ast.NotEq {
		c.emit(code.OpNot)
	}
	return nil
}

// compileBlock leaves exactly one value: the last expression statement's,
// or nil. Locals declared in the block are collapsed from under it.
func (c *Compiler) compileBlock(b *ast.BlockExpression) error {
	c.setPosFromToken(b.Token)
	c.locals.push()

	if len(b.Statements) == 0 {
		c.emit(code.OpNil)
	}
	for i, s := range b.Statements {
		last := i == len(b.Statements)-1
		if es, ok := s.(*ast.ExpressionStatement); ok && last {
			c.setPosFromToken(es.Token)
			if err := c.compile(es.Expression); err != nil {
				return err
			}
			break
		}
		if err := c.compile(s); err != nil {
			return err
		}
		if last {
			c.emit(code.OpNil)
		}
	}

	n := c.locals.pop()
	if n > 0 {
		if n > code.MaxLongOperand {
			return c.errorAt(b.Token, ErrLocalOverflow, fmt.Sprintf("%d locals in one block", n))
		}
		c.emit(code.OpCollapseLocals, n)
	}
	return nil
}

// compileIf always emits both branches; a missing else behaves like an
// empty block and yields nil.
func (c *Compiler) compileIf(n *ast.IfExpression) error {
	c.setPosFromToken(n.Token)
	if err := c.compile(n.Condition); err != nil {
		return err
	}

	c.setPosFromToken(n.Token)
	jumpIfFalsePos := c.emit(code.OpJumpIfFalse, 0)
	base := c.height

	if err := c.compile(n.Consequence); err != nil {
		return err
	}

	c.setPosFromToken(n.Token)
	jumpPos := c.emit(code.OpJump, 0)
	if err := c.backfill(n.Token, jumpIfFalsePos); err != nil {
		return err
	}

	// only one branch runs
	c.height = base

	alt := n.Alternative
	if alt == nil {
		alt = &ast.BlockExpression{Token: n.Token}
	}
	if err := c.compile(alt); err != nil {
		return err
	}

	return c.backfill(n.Token, jumpPos)
}
