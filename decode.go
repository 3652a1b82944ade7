package tinywasm

import (
	"github.com/RI5255/tinywasm/internal/wasm"
)

// Module is the static, decoded form of a Wasm binary.
type Module = wasm.Module

// Value is a tagged numeric value carried on the operand stack and passed
// to/from Invoke.
type Value = wasm.Value

// I32 constructs an i32 Value.
func I32(v int32) Value { return wasm.I32(v) }

// Decode parses a Wasm binary into a Module, then runs Validate on the
// result so callers never hold a Module that failed structural
// validation.
func Decode(src []byte) (*Module, error) {
	m, err := wasm.Decode(src)
	if err != nil {
		return nil, err
	}
	if err := wasm.Validate(m); err != nil {
		return nil, err
	}
	return m, nil
}
