package vm

import (
	"errors"
	"fmt"

	"fp/internal/code"
	"fp/internal/diag"
	"fp/internal/value"
)

var (
	ErrStackUnderflow     = errors.New("stack underflow")
	ErrStackOverflow      = errors.New("stack overflow")
	ErrUndefinedGlobal    = errors.New("undefined global")
	ErrLocalOutOfRange    = errors.New("local slot out of range")
	ErrConstantOutOfRange = errors.New("constant index out of range")
	ErrUnknownOpcode      = errors.New("unknown opcode")
	ErrTruncated          = errors.New("truncated chunk")
	ErrStepLimit          = errors.New("step limit reached")
	ErrNoChunk            = errors.New("no chunk to interpret")
	ErrTypeMismatch       = value.ErrTypeMismatch
	ErrIntegerOverflow    = value.ErrIntegerOverflow
)

// RuntimeError is a fault raised while executing the instruction at IP.
type RuntimeError struct {
	Err    error
	Op     code.Opcode
	IP     int
	Pos    code.SourcePos
	HasPos bool
}

func (e *RuntimeError) Error() string {
	if e.HasPos {
		return fmt.Sprintf("%d:%d: runtime error: %v (%s at %04d)", e.Pos.Line, e.Pos.Col, e.Err, e.Op, e.IP)
	}
	return fmt.Sprintf("runtime error: %v (%s at %04d)", e.Err, e.Op, e.IP)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

func (e *RuntimeError) Code() string {
	switch {
	case errors.Is(e.Err, ErrStackUnderflow):
		return diag.CodeStackUnderflow
	case errors.Is(e.Err, ErrStackOverflow):
		return diag.CodeStackOverflow
	case errors.Is(e.Err, ErrUndefinedGlobal):
		return diag.CodeUndefinedGlobal
	case errors.Is(e.Err, ErrLocalOutOfRange):
		return diag.CodeLocalOutOfRange
	case errors.Is(e.Err, ErrTypeMismatch):
		return diag.CodeTypeMismatch
	case errors.Is(e.Err, ErrIntegerOverflow):
		return diag.CodeIntegerOverflow
	case errors.Is(e.Err, ErrUnknownOpcode):
		return diag.CodeUnknownOpcode
	case errors.Is(e.Err, ErrTruncated):
		return diag.CodeTruncated
	case errors.Is(e.Err, ErrStepLimit):
		return diag.CodeStepLimit
	case errors.Is(e.Err, ErrConstantOutOfRange):
		return diag.CodeConstantOutOfRange
	default:
		return diag.CodeRuntime
	}
}

func (e *RuntimeError) Diagnostic() diag.Diagnostic {
	line, col := 1, 1
	if e.HasPos {
		line, col = e.Pos.Line, e.Pos.Col
	}
	return diag.Diagnostic{
		Code:     e.Code(),
		Message:  e.Err.Error(),
		Severity: diag.SeverityError,
		Range:    diag.Range{Line: line, Col: col, Length: 1},
	}
}
