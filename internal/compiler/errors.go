package compiler

import (
	"errors"
	"fmt"

	"fp/internal/diag"
)

var (
	ErrNameNotFound         = errors.New("name not found")
	ErrUnsupportedOperator  = errors.New("unsupported operator")
	ErrUnsupportedStatement = errors.New("unsupported statement")
	ErrBranchTooLarge       = errors.New("branch target too large")
	ErrGlobalOverflow       = errors.New("too many globals")
	ErrConstantOverflow     = errors.New("too many constants")
	ErrLocalOverflow        = errors.New("too many locals")
	ErrUnsupportedNode      = errors.New("unsupported syntax node")
)

// Error is a compile-time fault at a source position.
type Error struct {
	Err    error
	Detail string
	Line   int
	Col    int
}

func (e *Error) Error() string {
	msg := e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Line > 0 {
		return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, msg)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Code() string {
	switch {
	case errors.Is(e.Err, ErrUnsupportedOperator):
		return diag.CodeUnsupportedOperator
	case errors.Is(e.Err, ErrUnsupportedStatement):
		return diag.CodeUnsupportedStatement
	case errors.Is(e.Err, ErrNameNotFound):
		return diag.CodeNameNotFound
	case errors.Is(e.Err, ErrConstantOverflow):
		return diag.CodeConstantOverflow
	case errors.Is(e.Err, ErrGlobalOverflow):
		return diag.CodeGlobalOverflow
	case errors.Is(e.Err, ErrLocalOverflow):
		return diag.CodeLocalOverflow
	case errors.Is(e.Err, ErrBranchTooLarge):
		return diag.CodeBranchTooLarge
	default:
		return diag.CodeCompile
	}
}

// Diagnostic converts the fault for the CLI and the language server.
func (e *Error) Diagnostic() diag.Diagnostic {
	line, col := e.Line, e.Col
	if line < 1 {
		line, col = 1, 1
	}
	msg := e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return diag.Diagnostic{
		Code:     e.Code(),
		Message:  msg,
		Severity: diag.SeverityError,
		Range:    diag.Range{Line: line, Col: col, Length: 1},
	}
}
