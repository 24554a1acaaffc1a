package compiler

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"fp/internal/ast"
	"fp/internal/code"
	"fp/internal/lexer"
	"fp/internal/parser"
	"fp/internal/token"
	"fp/internal/value"
)

func parse(t *testing.T, input string) *ast.Program {
	t.Helper()
	p := parser.New(lexer.New(input))
	prog := p.ParseProgram()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors for %q: %v", input, p.Errors())
	}
	return prog
}

func concat(ins ...[]byte) []byte {
	var out []byte
	for _, in := range ins {
		out = append(out, in...)
	}
	return out
}

func assertCode(t *testing.T, input string, expected []byte) *code.Chunk {
	t.Helper()
	chunk, err := Compile(parse(t, input))
	if err != nil {
		t.Fatalf("%q: unexpected compile error: %v", input, err)
	}
	if string(chunk.Code) != string(expected) {
		want := &code.Chunk{Code: expected, Constants: chunk.Constants}
		t.Fatalf("%q: wrong instructions.\nwant=\n%s\ngot=\n%s", input, want.Disassemble(), chunk.Disassemble())
	}
	return chunk
}

func TestGlobalDeclarationAndReference(t *testing.T) {
	chunk := assertCode(t, "let a = 1; a", concat(
		code.Make(code.OpConstant, 0),
		code.Make(code.OpDefineGlobal, 0),
		code.Make(code.OpGetGlobal, 0),
		code.Make(code.OpReturn),
	))
	if len(chunk.Constants) != 1 || !value.Equal(chunk.Constants[0], value.Int(1)) {
		t.Fatalf("expected constants [Int(1)], got %v", chunk.Constants)
	}
}

func TestExpressionStatementsArePopped(t *testing.T) {
	assertCode(t, "1; 2", concat(
		code.Make(code.OpConstant, 0),
		code.Make(code.OpPop),
		code.Make(code.OpConstant, 1),
		code.Make(code.OpReturn),
	))
}

func TestLiteralsAndOperators(t *testing.T) {
	tests := []struct {
		input    string
		expected []byte
	}{
		{"true", concat(code.Make(code.OpTrue), code.Make(code.OpReturn))},
		{"false", concat(code.Make(code.OpFalse), code.Make(code.OpReturn))},
		{"nil", concat(code.Make(code.OpNil), code.Make(code.OpReturn))},
		{"!true", concat(code.Make(code.OpTrue), code.Make(code.OpNot), code.Make(code.OpReturn))},
		{"(1)", concat(code.Make(code.OpConstant, 0), code.Make(code.OpReturn))},
		{"1 - 2", concat(
			code.Make(code.OpConstant, 0),
			code.Make(code.OpConstant, 1),
			code.Make(code.OpSub),
			code.Make(code.OpReturn),
		)},
		{"1 * 2 / 3", concat(
			code.Make(code.OpConstant, 0),
			code.Make(code.OpConstant, 1),
			code.Make(code.OpMult),
			code.Make(code.OpConstant, 2),
			code.Make(code.OpDiv),
			code.Make(code.OpReturn),
		)},
		{"1 != 2", concat(
			code.Make(code.OpConstant, 0),
			code.Make(code.OpConstant, 1),
			code.Make(code.OpEqual),
			code.Make(code.OpNot),
			code.Make(code.OpReturn),
		)},
		{"1 > 2 == 2 < 1", concat(
			code.Make(code.OpConstant, 0),
			code.Make(code.OpConstant, 1),
			code.Make(code.OpGreater),
			code.Make(code.OpConstant, 2),
			code.Make(code.OpConstant, 3),
			code.Make(code.OpLess),
			code.Make(code.OpEqual),
			code.Make(code.OpReturn),
		)},
	}

	for _, tt := range tests {
		assertCode(t, tt.input, tt.expected)
	}
}

func TestBlockLocals(t *testing.T) {
	assertCode(t, "{ let x = 2 x }", concat(
		code.Make(code.OpConstant, 0),
		code.Make(code.OpGetLocal, 0),
		code.Make(code.OpCollapseLocals, 1),
		code.Make(code.OpReturn),
	))
}

func TestBlockUnderPendingOperand(t *testing.T) {
	assertCode(t, "1 + { let x = 2 x }", concat(
		code.Make(code.OpConstant, 0),
		code.Make(code.OpConstant, 1),
		code.Make(code.OpGetLocal, 1),
		code.Make(code.OpCollapseLocals, 1),
		code.Make(code.OpAdd),
		code.Make(code.OpReturn),
	))
}

func TestBlockValueRules(t *testing.T) {
	assertCode(t, "{}", concat(
		code.Make(code.OpNil),
		code.Make(code.OpReturn),
	))

	// a trailing declaration yields nil, even as an initializer
	assertCode(t, "let y = { let x = 1 }", concat(
		code.Make(code.OpConstant, 0),
		code.Make(code.OpNil),
		code.Make(code.OpCollapseLocals, 1),
		code.Make(code.OpDefineGlobal, 0),
		code.Make(code.OpReturn),
	))

	assertCode(t, "{ 1; 2 }", concat(
		code.Make(code.OpConstant, 0),
		code.Make(code.OpPop),
		code.Make(code.OpConstant, 1),
		code.Make(code.OpReturn),
	))
}

func TestSiblingBlocksReuseSlots(t *testing.T) {
	assertCode(t, "{ let a = 1 a }; { let b = 2 b }", concat(
		code.Make(code.OpConstant, 0),
		code.Make(code.OpGetLocal, 0),
		code.Make(code.OpCollapseLocals, 1),
		code.Make(code.OpPop),
		code.Make(code.OpConstant, 1),
		code.Make(code.OpGetLocal, 0),
		code.Make(code.OpCollapseLocals, 1),
		code.Make(code.OpReturn),
	))
}

func TestNestedBlocksShadow(t *testing.T) {
	assertCode(t, "{ let x = 1 { let x = 2 x } }", concat(
		code.Make(code.OpConstant, 0),
		code.Make(code.OpConstant, 1),
		code.Make(code.OpGetLocal, 1),
		code.Make(code.OpCollapseLocals, 1),
		code.Make(code.OpCollapseLocals, 1),
		code.Make(code.OpReturn),
	))

	// inner blocks see outer locals, then globals
	assertCode(t, "let g = 0; { let x = 1 { x + g } }", concat(
		code.Make(code.OpConstant, 0),
		code.Make(code.OpDefineGlobal, 0),
		code.Make(code.OpConstant, 1),
		code.Make(code.OpGetLocal, 0),
		code.Make(code.OpGetGlobal, 0),
		code.Make(code.OpAdd),
		code.Make(code.OpCollapseLocals, 1),
		code.Make(code.OpReturn),
	))
}

func TestIfElse(t *testing.T) {
	assertCode(t, "if true { 1 } else { 2 }", concat(
		code.Make(code.OpTrue),
		code.Make(code.OpJumpIfFalse, 5),
		code.Make(code.OpConstant, 0),
		code.Make(code.OpJump, 2),
		code.Make(code.OpConstant, 1),
		code.Make(code.OpReturn),
	))
}

func TestIfWithoutElseYieldsNil(t *testing.T) {
	assertCode(t, "if false { 1 }", concat(
		code.Make(code.OpFalse),
		code.Make(code.OpJumpIfFalse, 5),
		code.Make(code.OpConstant, 0),
		code.Make(code.OpJump, 1),
		code.Make(code.OpNil),
		code.Make(code.OpReturn),
	))
}

func TestIfBranchesShareSlotBase(t *testing.T) {
	// both branches declare their local in the same slot
	assertCode(t, "if true { let a = 1 a } else { let b = 2 b }", concat(
		code.Make(code.OpTrue),
		code.Make(code.OpJumpIfFalse, 10),
		code.Make(code.OpConstant, 0),
		code.Make(code.OpGetLocal, 0),
		code.Make(code.OpCollapseLocals, 1),
		code.Make(code.OpJump, 7),
		code.Make(code.OpConstant, 1),
		code.Make(code.OpGetLocal, 0),
		code.Make(code.OpCollapseLocals, 1),
		code.Make(code.OpReturn),
	))
}

func oversizedBlock() *ast.BlockExpression {
	// nil + pop is 2 bytes, so this is about 66000 bytes of code
	block := &ast.BlockExpression{Token: token.Token{Type: token.LBRACE, Literal: "{", Line: 1, Col: 1}}
	for i := 0; i < 33000; i++ {
		block.Statements = append(block.Statements, &ast.ExpressionStatement{
			Expression: &ast.NilLiteral{Token: token.Token{Type: token.NIL, Literal: "nil"}},
		})
	}
	return block
}

func smallBlock() *ast.BlockExpression {
	return &ast.BlockExpression{Statements: []ast.Statement{
		&ast.ExpressionStatement{Expression: &ast.NilLiteral{}},
	}}
}

func TestBranchTooLargeIsRejected(t *testing.T) {
	ifTok := token.Token{Type: token.IF, Literal: "if", Line: 1, Col: 1}
	tests := []*ast.IfExpression{
		{Token: ifTok, Condition: &ast.BooleanLiteral{Value: true}, Consequence: oversizedBlock()},
		{Token: ifTok, Condition: &ast.BooleanLiteral{Value: true}, Consequence: smallBlock(), Alternative: oversizedBlock()},
	}

	for i, ie := range tests {
		prog := &ast.Program{Statements: []ast.Statement{&ast.ExpressionStatement{Expression: ie}}}
		chunk, err := Compile(prog)
		if !errors.Is(err, ErrBranchTooLarge) {
			t.Fatalf("case %d: expected ErrBranchTooLarge, got %v", i, err)
		}
		if chunk != nil {
			t.Fatalf("case %d: expected no chunk on failure", i)
		}
	}
}

func TestLongConstantIndex(t *testing.T) {
	var b strings.Builder
	for i := 0; i <= 300; i++ {
		fmt.Fprintf(&b, "%d;", i)
	}
	chunk, err := Compile(parse(t, b.String()))
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	if len(chunk.Constants) != 301 {
		t.Fatalf("expected 301 constants, got %d", len(chunk.Constants))
	}
	if !value.Equal(chunk.Constants[300], value.Int(300)) {
		t.Fatalf("expected Int(300) at index 300, got %s", chunk.Constants[300])
	}
	dis := chunk.Disassemble()
	if !strings.Contains(dis, "OpConstant 255 (255)") {
		t.Fatal("expected short form up to index 255")
	}
	if !strings.Contains(dis, "OpConstantLong 256 (256)") || !strings.Contains(dis, "OpConstantLong 300 (300)") {
		t.Fatalf("expected long form from index 256, got:\n%s", dis)
	}
}

func TestLongGlobalIndex(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 300; i++ {
		fmt.Fprintf(&b, "let g%d = nil\n", i)
	}
	b.WriteString("g299")
	chunk, err := Compile(parse(t, b.String()))
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	dis := chunk.Disassemble()
	for _, want := range []string{"OpDefineGlobal 255", "OpDefineGlobalLong 256", "OpGetGlobalLong 299"} {
		if !strings.Contains(dis, want) {
			t.Fatalf("expected %q in disassembly", want)
		}
	}
}

func TestLongLocalIndex(t *testing.T) {
	var b strings.Builder
	b.WriteString("{\n")
	for i := 0; i < 300; i++ {
		fmt.Fprintf(&b, "let l%d = %d\n", i, i)
	}
	b.WriteString("l299 + l0\n}")
	chunk, err := Compile(parse(t, b.String()))
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	dis := chunk.Disassemble()
	for _, want := range []string{"OpGetLocalLong 299\n", "OpGetLocal 0\n", "OpCollapseLocals 300\n"} {
		if !strings.Contains(dis, want) {
			t.Fatalf("expected %q in disassembly", strings.TrimSpace(want))
		}
	}
}

func TestRedeclarationAllocatesNewSlot(t *testing.T) {
	c := New()
	_, err := c.CompileProgram(parse(t, "let a = 1; let a = 2; a"))
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	if c.Globals().Len() != 2 {
		t.Fatalf("expected 2 global slots, got %d", c.Globals().Len())
	}
	sym, ok := c.Globals().Resolve("a")
	if !ok || sym.Index != 1 {
		t.Fatalf("expected a bound to slot 1, got %+v (ok=%v)", sym, ok)
	}
	if names := c.Globals().Names(); names[0] != "" || names[1] != "a" {
		t.Fatalf("expected shadowed slot 0, got %q", names)
	}
}

func TestCompileFaults(t *testing.T) {
	tests := []struct {
		input string
		want  error
		line  int
		col   int
	}{
		{"-1", ErrUnsupportedOperator, 1, 1},
		{"1 >= 2", ErrUnsupportedOperator, 1, 3},
		{"1 <= 2", ErrUnsupportedOperator, 1, 3},
		{"true && false", ErrUnsupportedOperator, 1, 6},
		{"true || false", ErrUnsupportedOperator, 1, 6},
		{"while true { 1 }", ErrUnsupportedStatement, 1, 1},
		{"let a = 1\nb", ErrNameNotFound, 2, 1},
		{"{ let x = 1 }; x", ErrNameNotFound, 1, 16},
	}

	for _, tt := range tests {
		chunk, err := Compile(parse(t, tt.input))
		if !errors.Is(err, tt.want) {
			t.Fatalf("%q: expected %v, got %v", tt.input, tt.want, err)
		}
		if chunk != nil {
			t.Fatalf("%q: expected no chunk", tt.input)
		}
		var cerr *Error
		if !errors.As(err, &cerr) {
			t.Fatalf("%q: expected *Error, got %T", tt.input, err)
		}
		if cerr.Line != tt.line || cerr.Col != tt.col {
			t.Fatalf("%q: expected %d:%d, got %d:%d", tt.input, tt.line, tt.col, cerr.Line, cerr.Col)
		}
		if d := cerr.Diagnostic(); d.Code == "" || d.Range.Line != tt.line {
			t.Fatalf("%q: bad diagnostic %+v", tt.input, d)
		}
	}
}

func TestGlobalOverflow(t *testing.T) {
	prog := &ast.Program{}
	for i := 0; i <= MaxGlobals; i++ {
		prog.Statements = append(prog.Statements, &ast.LetStatement{
			Name:  &ast.Identifier{Value: fmt.Sprintf("g%d", i)},
			Value: &ast.NilLiteral{},
		})
	}
	_, err := Compile(prog)
	if !errors.Is(err, ErrGlobalOverflow) {
		t.Fatalf("expected ErrGlobalOverflow, got %v", err)
	}

	// exactly MaxGlobals fits
	prog.Statements = prog.Statements[:MaxGlobals]
	if _, err := Compile(prog); err != nil {
		t.Fatalf("expected %d globals to compile, got %v", MaxGlobals, err)
	}
}

func TestConstantOverflow(t *testing.T) {
	prog := &ast.Program{}
	for i := 0; i <= code.MaxLongOperand+1; i++ {
		prog.Statements = append(prog.Statements, &ast.ExpressionStatement{
			Expression: &ast.IntegerLiteral{Value: int64(i)},
		})
	}
	_, err := Compile(prog)
	if !errors.Is(err, ErrConstantOverflow) {
		t.Fatalf("expected ErrConstantOverflow, got %v", err)
	}
}

func TestFailedCompileRollsBackGlobals(t *testing.T) {
	globals := NewGlobalTable()

	if _, err := NewWithGlobals(globals).CompileProgram(parse(t, "let a = 1")); err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	if _, err := NewWithGlobals(globals).CompileProgram(parse(t, "let b = 2; missing")); err == nil {
		t.Fatal("expected compile error")
	}
	if _, ok := globals.Resolve("b"); ok {
		t.Fatal("expected b to be rolled back")
	}
	if globals.Len() != 1 {
		t.Fatalf("expected 1 global slot, got %d", globals.Len())
	}

	chunk, err := NewWithGlobals(globals).CompileProgram(parse(t, "a"))
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	expected := concat(code.Make(code.OpGetGlobal, 0), code.Make(code.OpReturn))
	if string(chunk.Code) != string(expected) {
		t.Fatalf("expected GetGlobal 0, got:\n%s", chunk.Disassemble())
	}
}

func TestSourcePositions(t *testing.T) {
	chunk, err := Compile(parse(t, "let a = 1\n  a + 2"))
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	// OpAdd sits after Constant, DefineGlobal, GetGlobal, Constant
	pos, ok := chunk.PosAt(8)
	if !ok || pos.Line != 2 || pos.Col != 5 {
		t.Fatalf("expected OpAdd at 2:5, got %d:%d (ok=%v)", pos.Line, pos.Col, ok)
	}
}

func TestFormatConstants(t *testing.T) {
	out := FormatConstants([]value.Value{value.Int(1), value.Str("a"), value.Float(2)})
	expected := "== constants ==\n0000 INT 1\n0001 STR \"a\"\n0002 FLOAT 2.0\n"
	if out != expected {
		t.Fatalf("expected %q, got %q", expected, out)
	}
}
