package lsp

import (
	"errors"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"fp/internal/compiler"
	"fp/internal/diag"
	"fp/internal/parser"
)

const source = "fp"

// Analyze reports parse errors, or, when the text parses, the first compile
// fault. Nothing is executed.
func Analyze(text string) []diag.Diagnostic {
	prog, diags := parser.Parse(text)
	if len(diags) > 0 {
		return diags
	}
	if _, err := compiler.Compile(prog); err != nil {
		var cerr *compiler.Error
		if errors.As(err, &cerr) {
			return []diag.Diagnostic{cerr.Diagnostic()}
		}
		return []diag.Diagnostic{{
			Code:     diag.CodeCompile,
			Message:  err.Error(),
			Severity: diag.SeverityError,
			Range:    diag.Range{Line: 1, Col: 1, Length: 1},
		}}
	}
	return nil
}

// ToLspDiagnostics converts 1-based byte columns to 0-based UTF-16 positions.
func ToLspDiagnostics(text string, ds []diag.Diagnostic) []protocol.Diagnostic {
	lines := splitLines(text)
	out := make([]protocol.Diagnostic, 0, len(ds))
	for _, d := range ds {
		start := protocol.Position{}
		lineText := ""
		if d.Range.Line > 0 {
			start.Line = uint32(d.Range.Line - 1)
			if d.Range.Line <= len(lines) {
				lineText = lines[d.Range.Line-1]
			}
		}
		start.Character = byteColToUTF16(lineText, d.Range.Col)
		if lineText == "" && d.Range.Col > 1 {
			start.Character = uint32(d.Range.Col - 1)
		}

		end := start
		if d.Range.Length > 0 {
			end.Character = start.Character + uint32(d.Range.Length)
		} else {
			end.Character = start.Character + 1
		}

		severity := protocol.DiagnosticSeverityError
		switch d.Severity {
		case diag.SeverityWarning:
			severity = protocol.DiagnosticSeverityWarning
		case diag.SeverityInfo:
			severity = protocol.DiagnosticSeverityInformation
		}

		pd := protocol.Diagnostic{
			Range:    protocol.Range{Start: start, End: end},
			Severity: &severity,
			Source:   ptrString(source),
			Message:  d.Message,
		}
		if d.Code != "" {
			code := protocol.IntegerOrString{Value: d.Code}
			pd.Code = &code
		}
		out = append(out, pd)
	}
	return out
}

func ptrString(s string) *string { return &s }
