// Package wasm holds the static, decoded representation of a WebAssembly
// module: value types, function types, instructions, functions, exports,
// and the Module that owns them. It also implements the Decoder (D) and
// Validator (V) from the core's component design.
//
// See https://webassembly.github.io/spec/core/ for the background this
// subset is distilled from.
package wasm

import "fmt"

// ValueType is a numeric type tag. Only ValueTypeI32 is supported at
// runtime. The decoder does not reject other value-type bytes in function
// types or local declarations, and accepts the other Wasm 1.0 value types
// as block types; values of those types are never produced at runtime.
type ValueType byte

const (
	ValueTypeI32 ValueType = 0x7f
	ValueTypeI64 ValueType = 0x7e
	ValueTypeF32 ValueType = 0x7d
	ValueTypeF64 ValueType = 0x7c
)

// String returns the Wasm text-format name of t, or "unknown" if t is not a
// recognized value type.
func (t ValueType) String() string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	default:
		return fmt.Sprintf("unknown(%#x)", byte(t))
	}
}

// Value is a tagged union over the numeric types; only Type == ValueTypeI32
// is exercised by this core, but the tag is carried so type mismatches can
// be reported precisely.
type Value struct {
	Type ValueType
	I32  int32
}

// I32 constructs a Value carrying the i32 v.
func I32(v int32) Value {
	return Value{Type: ValueTypeI32, I32: v}
}

// FuncType is an ordered sequence of parameter value types and an ordered
// sequence of result value types.
type FuncType struct {
	Params  []ValueType
	Results []ValueType
}

func (t *FuncType) String() string {
	return fmt.Sprintf("%v -> %v", t.Params, t.Results)
}

// Opcode identifies an instruction. Only a small subset of the Wasm
// instruction set is recognized; any other byte fails decoding with
// ErrUnsupported.
type Opcode byte

const (
	OpcodeUnreachable Opcode = 0x00
	OpcodeBlock       Opcode = 0x02
	OpcodeLoop        Opcode = 0x03
	OpcodeIf          Opcode = 0x04
	OpcodeElse        Opcode = 0x05
	OpcodeEnd         Opcode = 0x0b
	OpcodeBr          Opcode = 0x0c
	OpcodeBrIf        Opcode = 0x0d
	OpcodeCall        Opcode = 0x10
	OpcodeLocalGet    Opcode = 0x20
	OpcodeLocalSet    Opcode = 0x21
	OpcodeI32Const    Opcode = 0x41
	OpcodeI32GeS      Opcode = 0x4e
	OpcodeI32Add      Opcode = 0x6a
)

// BlockTypeEmpty is the block-type byte meaning "no result value". Any
// other single byte is interpreted as a value-type result arity of 1;
// typeidx/multi-value block types are rejected as unsupported.
const BlockTypeEmpty = 0x40

// Instr is one decoded instruction node. Instruction sequences are linked
// via Next, terminated by a node with Opcode == OpcodeEnd (OpcodeElse for
// the then chain of an if that has an else).
//
// Control instructions additionally populate:
//   - BlockType and In1 for block/loop/if (the "then" chain for if)
//   - In2 for if, the else chain (nil when the if has no else)
//   - LabelIdx for br/br_if
//   - FuncIdx for call
//   - LocalIdx for local.get/local.set
//   - I32 for i32.const
type Instr struct {
	Opcode Opcode
	Next   *Instr

	BlockType byte
	In1       *Instr
	In2       *Instr

	LabelIdx uint32
	FuncIdx  uint32
	LocalIdx uint32
	I32      int32
}

// BlockArity returns the number of result values a block/loop/if's label
// carries across its boundary: 0 for BlockTypeEmpty, 1 otherwise. Multi-value
// block types are unsupported.
func BlockArity(blockType byte) int {
	if blockType == BlockTypeEmpty {
		return 0
	}
	return 1
}

// LocalGroup is one run-length-encoded group of declared locals: Count
// locals of the same Type.
type LocalGroup struct {
	Count uint32
	Type  ValueType
}

// Func is the static representation of a function's code-section entry: a
// type index, its declared local groups, and the head of its decoded body.
type Func struct {
	TypeIdx uint32
	Locals  []LocalGroup
	Body    *Instr
}

// NumLocals returns the total number of local slots declared by Locals
// (excluding parameters, which are prepended separately at invocation).
func (f *Func) NumLocals() int {
	n := 0
	for _, g := range f.Locals {
		n += int(g.Count)
	}
	return n
}

// ExportKind classifies what an Export refers to. Only ExportKindFunc is
// meaningful in this core; tables, memories, and globals are unsupported.
type ExportKind byte

const (
	ExportKindFunc   ExportKind = 0x00
	ExportKindTable  ExportKind = 0x01
	ExportKindMemory ExportKind = 0x02
	ExportKindGlobal ExportKind = 0x03
)

// Export is a named, typed reference into one of a module's index spaces.
type Export struct {
	Name string
	Kind ExportKind
	Idx  uint32
}

// Module is the static, decoded form of a Wasm binary.
//
// Types, Funcs, and Code are index-correlated: Funcs[i] is a type index
// into Types, and Code[i] is the i'th function's decoded body. Exports
// reference either space by Export.Kind.
type Module struct {
	Types   []*FuncType
	Funcs   []uint32 // type indices, one per code-section entry
	Code    []*Func
	Exports []*Export
}
