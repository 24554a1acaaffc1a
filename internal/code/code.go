package code

import (
	"encoding/binary"
	"fmt"
)

type Opcode byte

const (
	OpConstant     Opcode = iota // push constants[operand]
	OpConstantLong               // operand: 2-byte constant index
	OpNil
	OpTrue
	OpFalse
	OpPop

	OpAdd
	OpSub
	OpMult
	OpDiv

	OpNot
	OpEqual
	OpGreater
	OpLess

	OpDefineGlobal     // operand: global slot (1 byte)
	OpDefineGlobalLong // operand: global slot (2 bytes)
	OpGetGlobal
	OpGetGlobalLong
	OpGetLocal // operand: absolute stack slot (1 byte)
	OpGetLocalLong

	OpCollapseLocals // operand: number of slots under the top to drop (2 bytes)

	OpJump        // operand: forward offset from the next instruction
	OpJumpIfFalse // operand: forward offset from the next instruction

	OpReturn
)

// MaxShortOperand is the largest index encodable by the 1-byte forms.
const MaxShortOperand = 0xFF

// MaxLongOperand is the largest index or offset encodable in 2 bytes.
const MaxLongOperand = 0xFFFF

type Definition struct {
	Name          string
	OperandWidths []int
	// StackEffect is the net change in operand stack height, for opcodes
	// whose effect does not depend on the operand.
	StackEffect int
}

var definitions = map[Opcode]*Definition{
	OpConstant:         {"OpConstant", []int{1}, 1},
	OpConstantLong:     {"OpConstantLong", []int{2}, 1},
	OpNil:              {"OpNil", nil, 1},
	OpTrue:             {"OpTrue", nil, 1},
	OpFalse:            {"OpFalse", nil, 1},
	OpPop:              {"OpPop", nil, -1},
	OpAdd:              {"OpAdd", nil, -1},
	OpSub:              {"OpSub", nil, -1},
	OpMult:             {"OpMult", nil, -1},
	OpDiv:              {"OpDiv", nil, -1},
	OpNot:              {"OpNot", nil, 0},
	OpEqual:            {"OpEqual", nil, -1},
	OpGreater:          {"OpGreater", nil, -1},
	OpLess:             {"OpLess", nil, -1},
	OpDefineGlobal:     {"OpDefineGlobal", []int{1}, -1},
	OpDefineGlobalLong: {"OpDefineGlobalLong", []int{2}, -1},
	OpGetGlobal:        {"OpGetGlobal", []int{1}, 1},
	OpGetGlobalLong:    {"OpGetGlobalLong", []int{2}, 1},
	OpGetLocal:         {"OpGetLocal", []int{1}, 1},
	OpGetLocalLong:     {"OpGetLocalLong", []int{2}, 1},
	OpCollapseLocals:   {"OpCollapseLocals", []int{2}, 0},
	OpJump:             {"OpJump", []int{2}, 0},
	OpJumpIfFalse:      {"OpJumpIfFalse", []int{2}, -1},
	OpReturn:           {"OpReturn", nil, 0},
}

func Lookup(op Opcode) (*Definition, bool) {
	def, ok := definitions[op]
	return def, ok
}

func (op Opcode) String() string {
	if def, ok := definitions[op]; ok {
		return def.Name
	}
	return fmt.Sprintf("UNKNOWN_OPCODE(%d)", byte(op))
}

// Width is the encoded size of the instruction in bytes, opcode included.
func (d *Definition) Width() int {
	n := 1
	for _, w := range d.OperandWidths {
		n += w
	}
	return n
}

func Make(op Opcode, operands ...int) []byte {
	def, ok := definitions[op]
	if !ok {
		return []byte{}
	}

	ins := make([]byte, def.Width())
	ins[0] = byte(op)

	offset := 1
	for i, o := range operands {
		w := def.OperandWidths[i]
		switch w {
		case 1:
			ins[offset] = byte(o)
		case 2:
			binary.BigEndian.PutUint16(ins[offset:], uint16(o))
		}
		offset += w
	}
	return ins
}

// ReadOperands decodes the operands that follow an opcode. ok is false when
// ins is too short to hold them.
func ReadOperands(def *Definition, ins []byte) (operands []int, read int, ok bool) {
	operands = make([]int, len(def.OperandWidths))
	offset := 0

	for i, w := range def.OperandWidths {
		if offset+w > len(ins) {
			return operands, offset, false
		}
		switch w {
		case 1:
			operands[i] = int(ins[offset])
		case 2:
			operands[i] = int(binary.BigEndian.Uint16(ins[offset:]))
		}
		offset += w
	}
	return operands, offset, true
}
