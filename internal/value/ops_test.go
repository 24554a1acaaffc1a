package value

import (
	"errors"
	"math"
	"testing"
)

var (
	leftSamples = map[Kind]Value{
		NilKind:   Nil,
		BoolKind:  Bool(true),
		IntKind:   Int(7),
		FloatKind: Float(2.5),
		StrKind:   Str("ab"),
	}
	rightSamples = map[Kind]Value{
		NilKind:   Nil,
		BoolKind:  Bool(false),
		IntKind:   Int(2),
		FloatKind: Float(0.5),
		StrKind:   Str("cd"),
	}
	allKinds = []Kind{NilKind, BoolKind, IntKind, FloatKind, StrKind}
	allOps   = []BinaryOp{OpAdd, OpSub, OpMult, OpDiv}
)

type arithKey struct {
	left  Kind
	op    BinaryOp
	right Kind
}

// Every (left, op, right) combination not listed here must fault.
var arithSuccesses = map[arithKey]Value{
	{IntKind, OpAdd, IntKind}:  Int(9),
	{IntKind, OpSub, IntKind}:  Int(5),
	{IntKind, OpMult, IntKind}: Int(14),
	{IntKind, OpDiv, IntKind}:  Float(3.5),

	{IntKind, OpAdd, FloatKind}:  Float(7.5),
	{IntKind, OpSub, FloatKind}:  Float(6.5),
	{IntKind, OpMult, FloatKind}: Float(3.5),
	{IntKind, OpDiv, FloatKind}:  Float(14),

	{IntKind, OpAdd, StrKind}: Str("7cd"),

	{FloatKind, OpAdd, IntKind}:  Float(4.5),
	{FloatKind, OpSub, IntKind}:  Float(0.5),
	{FloatKind, OpMult, IntKind}: Float(5),
	{FloatKind, OpDiv, IntKind}:  Float(1.25),

	{FloatKind, OpAdd, FloatKind}:  Float(3),
	{FloatKind, OpSub, FloatKind}:  Float(2),
	{FloatKind, OpMult, FloatKind}: Float(1.25),
	{FloatKind, OpDiv, FloatKind}:  Float(5),

	{FloatKind, OpAdd, StrKind}: Str("2.5cd"),

	{StrKind, OpMult, IntKind}:  Str("abab"),
	{StrKind, OpAdd, StrKind}:   Str("abcd"),
	{StrKind, OpAdd, FloatKind}: Str("ab0.5"),
}

func TestArithMatrix(t *testing.T) {
	checked := 0
	for _, lk := range allKinds {
		for _, op := range allOps {
			for _, rk := range allKinds {
				checked++
				left, right := leftSamples[lk], rightSamples[rk]
				got, err := Arith(op, left, right)

				want, ok := arithSuccesses[arithKey{lk, op, rk}]
				if !ok {
					if err == nil {
						t.Fatalf("%s %s %s: expected fault, got %s", lk, op, rk, got)
					}
					if !errors.Is(err, ErrTypeMismatch) {
						t.Fatalf("%s %s %s: expected type mismatch, got %v", lk, op, rk, err)
					}
					continue
				}
				if err != nil {
					t.Fatalf("%s %s %s: unexpected error: %v", lk, op, rk, err)
				}
				if !Equal(got, want) {
					t.Fatalf("%s %s %s: expected %s, got %s", lk, op, rk, want, got)
				}
			}
		}
	}
	if checked != 100 {
		t.Fatalf("expected 100 combinations, checked %d", checked)
	}
}

func TestIntDivisionIsAlwaysFloat(t *testing.T) {
	got, err := Arith(OpDiv, Int(6), Int(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Kind() != FloatKind || got.AsFloat() != 2 {
		t.Fatalf("expected FLOAT(2.0), got %s", got)
	}

	got, err = Arith(OpDiv, Int(1), Int(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsInf(got.AsFloat(), 1) {
		t.Fatalf("expected +inf, got %s", got)
	}
}

func TestStringRepeat(t *testing.T) {
	got, err := Arith(OpMult, Str("ab"), Int(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AsStr() != "" {
		t.Fatalf("expected empty string, got %s", got)
	}

	_, err = Arith(OpMult, Str("ab"), Int(-1))
	if !errors.Is(err, ErrNegativeRepeat) {
		t.Fatalf("expected negative repeat error, got %v", err)
	}

	_, err = Arith(OpMult, Str("ab"), Int(MaxRepeatBytes))
	if !errors.Is(err, ErrRepeatTooLarge) {
		t.Fatalf("expected repeat too large error, got %v", err)
	}
}

func TestIntegerOverflowFaults(t *testing.T) {
	tests := []struct {
		op   BinaryOp
		l, r int64
	}{
		{OpAdd, math.MaxInt64, 1},
		{OpSub, math.MinInt64, 1},
		{OpMult, math.MaxInt64, 2},
		{OpMult, math.MinInt64, -1},
		{OpMult, -1, math.MinInt64},
	}
	for i, tt := range tests {
		_, err := Arith(tt.op, Int(tt.l), Int(tt.r))
		if !errors.Is(err, ErrIntegerOverflow) {
			t.Fatalf("tests[%d] expected overflow, got %v", i, err)
		}
	}

	got, err := Arith(OpSub, Int(math.MinInt64+1), Int(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AsInt() != math.MinInt64 {
		t.Fatalf("expected MinInt64, got %s", got)
	}
}

func TestFloatDecimalInConcat(t *testing.T) {
	got, err := Arith(OpAdd, Float(2), Str("x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AsStr() != "2x" {
		t.Fatalf("expected %q, got %q", "2x", got.AsStr())
	}

	got, err = Arith(OpAdd, Str("x"), Float(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AsStr() != "x2" {
		t.Fatalf("expected %q, got %q", "x2", got.AsStr())
	}

	if _, err := Arith(OpAdd, Str("x"), Int(2)); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected STR + INT to fault, got %v", err)
	}
}

func TestEqualNeverFaults(t *testing.T) {
	for _, lk := range allKinds {
		for _, rk := range allKinds {
			got := Equal(leftSamples[lk], rightSamples[rk])
			if lk != rk && got {
				t.Fatalf("expected %s == %s to be false", lk, rk)
			}
		}
	}

	tests := []struct {
		l, r Value
		want bool
	}{
		{Nil, Nil, true},
		{Bool(true), Bool(true), true},
		{Bool(true), Bool(false), false},
		{Int(1), Int(1), true},
		{Int(1), Float(1), false},
		{Int(1), Str("1"), false},
		{Float(0.5), Float(0.5), true},
		{Str("a"), Str("a"), true},
		{Str("a"), Str("b"), false},
	}
	for i, tt := range tests {
		if got := Equal(tt.l, tt.r); got != tt.want {
			t.Fatalf("tests[%d] expected %v, got %v", i, tt.want, got)
		}
	}
}

func TestOrdering(t *testing.T) {
	tests := []struct {
		l, r     Value
		gt, lt   bool
		mismatch bool
	}{
		{l: Int(2), r: Int(1), gt: true},
		{l: Int(1), r: Int(2), lt: true},
		{l: Int(1), r: Int(1)},
		{l: Float(1.5), r: Float(0.5), gt: true},
		{l: Int(1), r: Float(1.5), lt: true},
		{l: Float(2.5), r: Int(2), gt: true},
		{l: Int(1), r: Str("1"), mismatch: true},
		{l: Str("b"), r: Str("a"), mismatch: true},
		{l: Bool(true), r: Bool(false), mismatch: true},
		{l: Nil, r: Nil, mismatch: true},
		{l: Nil, r: Int(1), mismatch: true},
	}
	for i, tt := range tests {
		gt, gerr := Greater(tt.l, tt.r)
		lt, lerr := Less(tt.l, tt.r)
		if tt.mismatch {
			if !errors.Is(gerr, ErrTypeMismatch) || !errors.Is(lerr, ErrTypeMismatch) {
				t.Fatalf("tests[%d] expected type mismatch, got %v / %v", i, gerr, lerr)
			}
			continue
		}
		if gerr != nil || lerr != nil {
			t.Fatalf("tests[%d] unexpected error: %v / %v", i, gerr, lerr)
		}
		if gt != tt.gt || lt != tt.lt {
			t.Fatalf("tests[%d] expected gt=%v lt=%v, got gt=%v lt=%v", i, tt.gt, tt.lt, gt, lt)
		}
	}
}

func TestNotRequiresBool(t *testing.T) {
	got, err := Not(Bool(false))
	if err != nil || !got.AsBool() {
		t.Fatalf("expected true, got %s (%v)", got, err)
	}
	if _, err := Not(Int(0)); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}
}

func TestInspect(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Nil, "nil"},
		{Bool(false), "false"},
		{Int(-3), "-3"},
		{Float(2), "2.0"},
		{Float(0.25), "0.25"},
		{Float(math.Inf(1)), "inf"},
		{Str("hi"), `"hi"`},
	}
	for i, tt := range tests {
		if got := tt.v.Inspect(); got != tt.want {
			t.Fatalf("tests[%d] expected %q, got %q", i, tt.want, got)
		}
	}
}
