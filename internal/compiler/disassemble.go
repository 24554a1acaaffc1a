package compiler

import (
	"fmt"
	"strings"

	"fp/internal/code"
	"fp/internal/value"
)

func FormatConstants(constants []value.Value) string {
	var b strings.Builder
	b.WriteString("== constants ==\n")
	for i, c := range constants {
		switch c.Kind() {
		case value.StrKind:
			fmt.Fprintf(&b, "%04d %s %q\n", i, c.Kind(), c.AsStr())
		default:
			fmt.Fprintf(&b, "%04d %s %s\n", i, c.Kind(), c.Inspect())
		}
	}
	return b.String()
}

// FormatChunk renders the constant pool followed by the instructions.
func FormatChunk(chunk *code.Chunk) string {
	var b strings.Builder
	b.WriteString(FormatConstants(chunk.Constants))
	b.WriteString("== code ==\n")
	b.WriteString(chunk.Disassemble())
	return b.String()
}
