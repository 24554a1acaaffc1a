package lsp

import (
	"strings"
	"unicode/utf16"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"fp/internal/token"
)

type Pos struct {
	Line int
	Col  int
}

func splitLines(text string) []string {
	return strings.Split(text, "\n")
}

func byteColToUTF16(lineText string, byteCol int) uint32 {
	if byteCol <= 1 {
		return 0
	}
	limit := byteCol - 1
	if limit > len(lineText) {
		limit = len(lineText)
	}
	var count uint32
	for _, r := range lineText[:limit] {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		count += uint32(n)
	}
	return count
}

func utf16ColToByte(lineText string, utf16Col int) int {
	if utf16Col <= 0 {
		return 1
	}
	count := 0
	for idx, r := range lineText {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if count+n > utf16Col {
			return idx + 1
		}
		count += n
	}
	return len(lineText) + 1
}

// positionToByte maps an LSP position to a 1-based line and byte column.
func positionToByte(text string, pos protocol.Position) (Pos, bool) {
	lines := splitLines(text)
	lineIdx := int(pos.Line)
	if lineIdx < 0 || lineIdx >= len(lines) {
		return Pos{}, false
	}
	return Pos{Line: lineIdx + 1, Col: utf16ColToByte(lines[lineIdx], int(pos.Character))}, true
}

// tokenRange is the LSP range covering tok's literal.
func tokenRange(text string, tok token.Token) protocol.Range {
	lines := splitLines(text)
	if tok.Line <= 0 || tok.Line > len(lines) {
		return protocol.Range{}
	}
	lineText := lines[tok.Line-1]
	start := protocol.Position{Line: uint32(tok.Line - 1), Character: byteColToUTF16(lineText, tok.Col)}
	end := protocol.Position{Line: start.Line, Character: byteColToUTF16(lineText, tok.Col+len(tok.Literal))}
	if end.Character <= start.Character {
		end.Character = start.Character + 1
	}
	return protocol.Range{Start: start, End: end}
}

// covers reports whether p falls on tok's literal.
func covers(tok token.Token, p Pos) bool {
	n := len(tok.Literal)
	if n == 0 {
		n = 1
	}
	return tok.Line == p.Line && p.Col >= tok.Col && p.Col < tok.Col+n
}
