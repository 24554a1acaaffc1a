// Package chunkfile stores compiled chunks on disk so `fp exec` can skip
// parsing and compiling. The format is tied to one build of the toolchain.
package chunkfile

import (
	"errors"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"

	"fp/internal/code"
	"fp/internal/value"
)

const (
	Magic   = "fpc"
	Version = 1

	// Ext is the conventional file extension.
	Ext = ".fpc"
)

var (
	ErrBadMagic   = errors.New("not a chunk file")
	ErrBadVersion = errors.New("unsupported chunk file version")
	ErrBadValue   = errors.New("bad constant in chunk file")
)

type envelope struct {
	Magic     string     `cbor:"magic"`
	Version   int        `cbor:"version"`
	Code      []byte     `cbor:"code"`
	Constants []constant `cbor:"constants"`
	Pos       []position `cbor:"pos"`
}

type constant struct {
	Kind  byte    `cbor:"k"`
	Bool  bool    `cbor:"b,omitempty"`
	Int   int64   `cbor:"i,omitempty"`
	Float float64 `cbor:"f,omitempty"`
	Str   string  `cbor:"s,omitempty"`
}

type position struct {
	Offset int `cbor:"o"`
	Line   int `cbor:"l"`
	Col    int `cbor:"c"`
}

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("chunkfile: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// Marshal serializes a chunk. Equal chunks encode to equal bytes.
func Marshal(c *code.Chunk) ([]byte, error) {
	env := envelope{
		Magic:     Magic,
		Version:   Version,
		Code:      c.Code,
		Constants: make([]constant, len(c.Constants)),
		Pos:       make([]position, len(c.Pos)),
	}
	for i, v := range c.Constants {
		k := constant{Kind: byte(v.Kind())}
		switch v.Kind() {
		case value.BoolKind:
			k.Bool = v.AsBool()
		case value.IntKind:
			k.Int = v.AsInt()
		case value.FloatKind:
			k.Float = v.AsFloat()
		case value.StrKind:
			k.Str = v.AsStr()
		}
		env.Constants[i] = k
	}
	for i, p := range c.Pos {
		env.Pos[i] = position{Offset: p.Offset, Line: p.Line, Col: p.Col}
	}
	return encMode.Marshal(env)
}

// Unmarshal decodes a chunk written by Marshal from the same format version.
func Unmarshal(data []byte) (*code.Chunk, error) {
	var env envelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("chunkfile: unmarshal: %w", err)
	}
	if env.Magic != Magic {
		return nil, ErrBadMagic
	}
	if env.Version != Version {
		return nil, fmt.Errorf("%w: %d (want %d)", ErrBadVersion, env.Version, Version)
	}

	c := code.NewChunk()
	c.Write(env.Code...)
	for i, k := range env.Constants {
		v, err := k.value()
		if err != nil {
			return nil, fmt.Errorf("%w: index %d: %v", ErrBadValue, i, err)
		}
		c.AddConstant(v)
	}
	for _, p := range env.Pos {
		c.WritePos(p.Offset, p.Line, p.Col)
	}
	return c, nil
}

func (k constant) value() (value.Value, error) {
	switch value.Kind(k.Kind) {
	case value.NilKind:
		return value.Nil, nil
	case value.BoolKind:
		return value.Bool(k.Bool), nil
	case value.IntKind:
		return value.Int(k.Int), nil
	case value.FloatKind:
		return value.Float(k.Float), nil
	case value.StrKind:
		return value.Str(k.Str), nil
	}
	return value.Nil, fmt.Errorf("unknown kind %d", k.Kind)
}

func WriteFile(path string, c *code.Chunk) error {
	data, err := Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func ReadFile(path string) (*code.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
