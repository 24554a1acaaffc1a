package value

import (
	"math"
	"strconv"
)

type Kind byte

const (
	NilKind Kind = iota
	BoolKind
	IntKind
	FloatKind
	StrKind
)

func (k Kind) String() string {
	switch k {
	case NilKind:
		return "NIL"
	case BoolKind:
		return "BOOL"
	case IntKind:
		return "INT"
	case FloatKind:
		return "FLOAT"
	case StrKind:
		return "STR"
	default:
		return "UNKNOWN"
	}
}

// Value is the runtime tagged union. It is immutable, so copying the struct
// is a full clone of the value.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
}

var Nil = Value{kind: NilKind}

func Bool(b bool) Value     { return Value{kind: BoolKind, b: b} }
func Int(i int64) Value     { return Value{kind: IntKind, i: i} }
func Float(f float64) Value { return Value{kind: FloatKind, f: f} }
func Str(s string) Value    { return Value{kind: StrKind, s: s} }

func (v Value) Kind() Kind       { return v.kind }
func (v Value) IsNil() bool      { return v.kind == NilKind }
func (v Value) AsBool() bool     { return v.b }
func (v Value) AsInt() int64     { return v.i }
func (v Value) AsFloat() float64 { return v.f }
func (v Value) AsStr() string    { return v.s }

// Decimal renders numbers the way string concatenation embeds them: the
// shortest round-trip form, no exponent, no trailing ".0".
func (v Value) Decimal() string {
	switch v.kind {
	case IntKind:
		return strconv.FormatInt(v.i, 10)
	case FloatKind:
		return formatFloat(v.f)
	default:
		return v.Inspect()
	}
}

// Inspect is the display form printed by the REPL and the CLI.
func (v Value) Inspect() string {
	switch v.kind {
	case NilKind:
		return "nil"
	case BoolKind:
		if v.b {
			return "true"
		}
		return "false"
	case IntKind:
		return strconv.FormatInt(v.i, 10)
	case FloatKind:
		s := formatFloat(v.f)
		if !math.IsInf(v.f, 0) && !math.IsNaN(v.f) && v.f == math.Trunc(v.f) {
			s += ".0"
		}
		return s
	case StrKind:
		return strconv.Quote(v.s)
	default:
		return "<?>"
	}
}

func (v Value) String() string {
	return v.kind.String() + "(" + v.Inspect() + ")"
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "NaN"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
