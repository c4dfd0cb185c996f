package domain

import (
	"slices"
	"strings"
)

// ValueType is the type of a function parameter or result.
type ValueType uint8

const (
	// ValueTypeI32 is a 32-bit integer.
	ValueTypeI32 ValueType = iota + 1
	// ValueTypeI64 is a 64-bit integer.
	ValueTypeI64
	// ValueTypeF32 is a 32-bit float.
	ValueTypeF32
	// ValueTypeF64 is a 64-bit float.
	ValueTypeF64
	// ValueTypeOther covers reference and vector types.
	ValueTypeOther
)

// String returns the wasm text-format name of the type.
func (v ValueType) String() string {
	switch v {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	default:
		return "other"
	}
}

// Signature describes a function's parameter and result types.
type Signature struct {
	Params  []ValueType
	Results []ValueType
}

// EntrySignature is the fixed signature of the entry function: no parameters,
// one i32 status result.
var EntrySignature = Signature{Results: []ValueType{ValueTypeI32}}

// Equal reports whether both signatures have identical parameter and result lists.
func (s Signature) Equal(other Signature) bool {
	return slices.Equal(s.Params, other.Params) && slices.Equal(s.Results, other.Results)
}

// String returns "(p1, p2) -> (r1)".
func (s Signature) String() string {
	return "(" + joinTypes(s.Params) + ") -> (" + joinTypes(s.Results) + ")"
}

func joinTypes(types []ValueType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
