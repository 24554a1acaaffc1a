package code

import (
	"bytes"
	"fmt"
)

// Disassemble renders one instruction per line: offset, name, operands.
func (c *Chunk) Disassemble() string {
	var out bytes.Buffer

	i := 0
	for i < len(c.Code) {
		line, width := c.DisassembleAt(i)
		out.WriteString(line)
		out.WriteString("\n")
		i += width
	}

	return out.String()
}

// DisassembleAt renders the instruction at offset and returns its width.
func (c *Chunk) DisassembleAt(offset int) (string, int) {
	op := Opcode(c.Code[offset])
	def, ok := Lookup(op)
	if !ok {
		return fmt.Sprintf("%04d UNKNOWN_OPCODE %d", offset, op), 1
	}

	operands, read, ok := ReadOperands(def, c.Code[offset+1:])
	if !ok {
		return fmt.Sprintf("%04d %s <truncated>", offset, def.Name), len(c.Code) - offset
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "%04d %s", offset, def.Name)
	for _, o := range operands {
		fmt.Fprintf(&out, " %d", o)
	}
	switch op {
	case OpConstant, OpConstantLong:
		if v, ok := c.Constant(operands[0]); ok {
			fmt.Fprintf(&out, " (%s)", v.Inspect())
		}
	case OpJump, OpJumpIfFalse:
		fmt.Fprintf(&out, " -> %04d", offset+1+read+operands[0])
	}

	return out.String(), 1 + read
}
