package wasm

import (
	"fmt"
	"math"
)

// ValueType is the binary encoding of a type such as i32
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-valtype
type ValueType = byte

const (
	ValueTypeI32 ValueType = 0x7f
	ValueTypeI64 ValueType = 0x7e
	ValueTypeF32 ValueType = 0x7d
	ValueTypeF64 ValueType = 0x7c
)

// ValueTypeName returns the type name of the given ValueType as a string.
// These type names match the names used in the WebAssembly text format.
func ValueTypeName(t ValueType) string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	}
	return fmt.Sprintf("unknown(%#x)", t)
}

// IsNumeric returns true when t is one of the four numeric value types.
func IsNumeric(t ValueType) bool {
	switch t {
	case ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64:
		return true
	}
	return false
}

// Value is a tagged union of the four numeric kinds. Exactly one kind is active.
//
// The zero Value has no kind and is rejected by every accessor.
type Value struct {
	kind ValueType
	bits uint64
}

func ValueI32(v int32) Value {
	return Value{kind: ValueTypeI32, bits: uint64(uint32(v))}
}

func ValueI64(v int64) Value {
	return Value{kind: ValueTypeI64, bits: uint64(v)}
}

func ValueF32(v float32) Value {
	return Value{kind: ValueTypeF32, bits: uint64(math.Float32bits(v))}
}

func ValueF64(v float64) Value {
	return Value{kind: ValueTypeF64, bits: math.Float64bits(v)}
}

// ZeroValue returns the default value of a local or global of type t.
func ZeroValue(t ValueType) (Value, error) {
	if !IsNumeric(t) {
		return Value{}, fmt.Errorf("invalid value type: %#x", t)
	}
	return Value{kind: t}, nil
}

// Kind returns the active ValueType.
func (v Value) Kind() ValueType {
	return v.kind
}

func (v Value) I32() (int32, error) {
	if err := v.expect(ValueTypeI32); err != nil {
		return 0, err
	}
	return int32(uint32(v.bits)), nil
}

func (v Value) I64() (int64, error) {
	if err := v.expect(ValueTypeI64); err != nil {
		return 0, err
	}
	return int64(v.bits), nil
}

func (v Value) F32() (float32, error) {
	if err := v.expect(ValueTypeF32); err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(v.bits)), nil
}

func (v Value) F64() (float64, error) {
	if err := v.expect(ValueTypeF64); err != nil {
		return 0, err
	}
	return math.Float64frombits(v.bits), nil
}

func (v Value) expect(t ValueType) error {
	if v.kind != t {
		return fmt.Errorf("%w: expected %s, but was %s", ErrKindMismatch, ValueTypeName(t), ValueTypeName(v.kind))
	}
	return nil
}

// String implements fmt.Stringer
func (v Value) String() string {
	switch v.kind {
	case ValueTypeI32:
		return fmt.Sprintf("i32(%d)", int32(uint32(v.bits)))
	case ValueTypeI64:
		return fmt.Sprintf("i64(%d)", int64(v.bits))
	case ValueTypeF32:
		return fmt.Sprintf("f32(%f)", math.Float32frombits(uint32(v.bits)))
	case ValueTypeF64:
		return fmt.Sprintf("f64(%f)", math.Float64frombits(v.bits))
	}
	return "invalid"
}
