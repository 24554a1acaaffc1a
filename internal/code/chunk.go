package code

import (
	"encoding/binary"

	"fp/internal/value"
)

type SourcePos struct {
	Offset int // byte offset of the instruction
	Line   int
	Col    int
}

// Chunk is one compiled unit: instruction bytes, the constant pool and a
// per-instruction position table used only for diagnostics.
type Chunk struct {
	Code      []byte
	Constants []value.Value
	Pos       []SourcePos
}

func NewChunk() *Chunk {
	return &Chunk{
		Code:      make([]byte, 0, 8),
		Constants: make([]value.Value, 0, 8),
	}
}

func (c *Chunk) Len() int { return len(c.Code) }

// Write appends raw instruction bytes.
func (c *Chunk) Write(b ...byte) {
	c.Code = append(c.Code, b...)
}

// WritePos records the source position of the instruction starting at offset.
func (c *Chunk) WritePos(offset, line, col int) {
	c.Pos = append(c.Pos, SourcePos{Offset: offset, Line: line, Col: col})
}

// AddConstant appends v to the pool and returns its index. Equal constants
// are not merged.
func (c *Chunk) AddConstant(v value.Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// Patch overwrites one previously written byte.
func (c *Chunk) Patch(offset int, b byte) bool {
	if offset < 0 || offset >= len(c.Code) {
		return false
	}
	c.Code[offset] = b
	return true
}

// PatchUint16 overwrites two previously written bytes with v, big-endian.
func (c *Chunk) PatchUint16(offset int, v uint16) bool {
	if offset < 0 || offset+2 > len(c.Code) {
		return false
	}
	binary.BigEndian.PutUint16(c.Code[offset:], v)
	return true
}

func (c *Chunk) ByteAt(offset int) (byte, bool) {
	if offset < 0 || offset >= len(c.Code) {
		return 0, false
	}
	return c.Code[offset], true
}

func (c *Chunk) Uint16At(offset int) (uint16, bool) {
	if offset < 0 || offset+2 > len(c.Code) {
		return 0, false
	}
	return binary.BigEndian.Uint16(c.Code[offset:]), true
}

func (c *Chunk) Constant(i int) (value.Value, bool) {
	if i < 0 || i >= len(c.Constants) {
		return value.Nil, false
	}
	return c.Constants[i], true
}

// PosAt returns the position of the instruction that starts at or most
// recently before offset.
func (c *Chunk) PosAt(offset int) (SourcePos, bool) {
	var found SourcePos
	ok := false
	for _, p := range c.Pos {
		if p.Offset > offset {
			break
		}
		found = p
		ok = true
	}
	return found, ok
}
