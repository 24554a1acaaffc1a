package value

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrIntegerOverflow = errors.New("integer overflow")
	ErrNegativeRepeat  = errors.New("repeat count must be non-negative")
	ErrRepeatTooLarge  = errors.New("repeat result too large")
)

// MaxRepeatBytes caps the size of a string built by Str * Int.
const MaxRepeatBytes = 1 << 30

type BinaryOp byte

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMult
	OpDiv
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMult:
		return "*"
	case OpDiv:
		return "/"
	default:
		return "?"
	}
}

func mismatch(op string, left, right Value) error {
	return fmt.Errorf("%w: %s %s %s", ErrTypeMismatch, left.kind, op, right.kind)
}

// Arith applies one of + - * / and dispatches on the left operand's kind.
func Arith(op BinaryOp, left, right Value) (Value, error) {
	switch left.kind {
	case IntKind:
		return intArith(op, left, right)
	case FloatKind:
		return floatArith(op, left, right)
	case StrKind:
		return strArith(op, left, right)
	case NilKind, BoolKind:
		return Nil, mismatch(op.String(), left, right)
	}
	return Nil, mismatch(op.String(), left, right)
}

func intArith(op BinaryOp, left, right Value) (Value, error) {
	l := left.i
	switch right.kind {
	case IntKind:
		r := right.i
		switch op {
		case OpAdd:
			sum := l + r
			if (sum > l) != (r > 0) {
				return Nil, fmt.Errorf("%w: %d + %d", ErrIntegerOverflow, l, r)
			}
			return Int(sum), nil
		case OpSub:
			diff := l - r
			if (diff < l) != (r > 0) {
				return Nil, fmt.Errorf("%w: %d - %d", ErrIntegerOverflow, l, r)
			}
			return Int(diff), nil
		case OpMult:
			if l == 0 || r == 0 {
				return Int(0), nil
			}
			prod := l * r
			if prod/r != l || (l == -1 && r == math.MinInt64) || (r == -1 && l == math.MinInt64) {
				return Nil, fmt.Errorf("%w: %d * %d", ErrIntegerOverflow, l, r)
			}
			return Int(prod), nil
		case OpDiv:
			return Float(float64(l) / float64(r)), nil
		}
	case FloatKind:
		return floatResult(op, float64(l), right.f), nil
	case StrKind:
		if op == OpAdd {
			return Str(left.Decimal() + right.s), nil
		}
	}
	return Nil, mismatch(op.String(), left, right)
}

func floatArith(op BinaryOp, left, right Value) (Value, error) {
	switch right.kind {
	case IntKind:
		return floatResult(op, left.f, float64(right.i)), nil
	case FloatKind:
		return floatResult(op, left.f, right.f), nil
	case StrKind:
		if op == OpAdd {
			return Str(left.Decimal() + right.s), nil
		}
	}
	return Nil, mismatch(op.String(), left, right)
}

func floatResult(op BinaryOp, l, r float64) Value {
	switch op {
	case OpAdd:
		return Float(l + r)
	case OpSub:
		return Float(l - r)
	case OpMult:
		return Float(l * r)
	default:
		return Float(l / r)
	}
}

func strArith(op BinaryOp, left, right Value) (Value, error) {
	switch {
	case op == OpAdd && right.kind == StrKind:
		return Str(left.s + right.s), nil
	case op == OpAdd && right.kind == FloatKind:
		return Str(left.s + right.Decimal()), nil
	case op == OpMult && right.kind == IntKind:
		out, err := repeat(left.s, right.i)
		if err != nil {
			return Nil, err
		}
		return Str(out), nil
	}
	return Nil, mismatch(op.String(), left, right)
}

func repeat(s string, count int64) (string, error) {
	if count < 0 {
		return "", fmt.Errorf("%w: %d", ErrNegativeRepeat, count)
	}
	if count == 0 || s == "" {
		return "", nil
	}
	if int64(len(s)) > MaxRepeatBytes/count {
		return "", fmt.Errorf("%w: %d x %d bytes", ErrRepeatTooLarge, count, len(s))
	}
	return strings.Repeat(s, int(count)), nil
}

// Equal never fails: values of different kinds are unequal.
func Equal(left, right Value) bool {
	if left.kind != right.kind {
		return false
	}
	switch left.kind {
	case NilKind:
		return true
	case BoolKind:
		return left.b == right.b
	case IntKind:
		return left.i == right.i
	case FloatKind:
		return left.f == right.f
	case StrKind:
		return left.s == right.s
	}
	return false
}

// compare orders two numbers, promoting Int to Float when the kinds differ.
// ok is false when either operand is not a number.
func compare(left, right Value) (c int, ok bool) {
	if left.kind == IntKind && right.kind == IntKind {
		switch {
		case left.i < right.i:
			return -1, true
		case left.i > right.i:
			return 1, true
		}
		return 0, true
	}
	lf, lok := numeric(left)
	rf, rok := numeric(right)
	if !lok || !rok {
		return 0, false
	}
	switch {
	case lf < rf:
		return -1, true
	case lf > rf:
		return 1, true
	}
	// equal, or unordered when a NaN is involved
	return 0, true
}

func numeric(v Value) (float64, bool) {
	switch v.kind {
	case IntKind:
		return float64(v.i), true
	case FloatKind:
		return v.f, true
	}
	return 0, false
}

func Greater(left, right Value) (bool, error) {
	c, ok := compare(left, right)
	if !ok {
		return false, mismatch(">", left, right)
	}
	return c > 0, nil
}

func Less(left, right Value) (bool, error) {
	c, ok := compare(left, right)
	if !ok {
		return false, mismatch("<", left, right)
	}
	return c < 0, nil
}

func Not(v Value) (Value, error) {
	if v.kind != BoolKind {
		return Nil, fmt.Errorf("%w: !%s", ErrTypeMismatch, v.kind)
	}
	return Bool(!v.b), nil
}
