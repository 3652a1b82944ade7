// Package wasmtest assembles minimal Wasm binaries for use in tests: a
// test-only encoder used by internal/interpreter's end-to-end scenario
// tests. (internal/wasm's decoder tests carry their own helpers.)
package wasmtest

import "github.com/RI5255/tinywasm/internal/leb128"

const (
	SectionIDType     = 1
	SectionIDFunction = 3
	SectionIDExport   = 7
	SectionIDCode     = 10

	ExportKindFunc = 0x00

	OpcodeBlock    = 0x02
	OpcodeLoop     = 0x03
	OpcodeIf       = 0x04
	OpcodeElse     = 0x05
	OpcodeEnd      = 0x0b
	OpcodeBr       = 0x0c
	OpcodeBrIf     = 0x0d
	OpcodeCall     = 0x10
	OpcodeLocalGet = 0x20
	OpcodeLocalSet = 0x21
	OpcodeI32Const = 0x41
	OpcodeI32GeS   = 0x4e
	OpcodeI32Add   = 0x6a

	ValueTypeI32 = 0x7f
	BlockTypeEmpty = 0x40
)

var Preamble = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func U32(v uint32) []byte { return leb128.EncodeUint32(v) }
func I32(v int32) []byte  { return leb128.EncodeInt32(v) }

func Vec(items ...[]byte) []byte {
	out := U32(uint32(len(items)))
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

func Section(id byte, body []byte) []byte {
	out := []byte{id}
	out = append(out, U32(uint32(len(body)))...)
	out = append(out, body...)
	return out
}

func FuncType(params, results []byte) []byte {
	out := []byte{0x60}
	out = append(out, U32(uint32(len(params)))...)
	out = append(out, params...)
	out = append(out, U32(uint32(len(results)))...)
	out = append(out, results...)
	return out
}

func Name(s string) []byte {
	return append(U32(uint32(len(s))), []byte(s)...)
}

func ExportFunc(name string, idx uint32) []byte {
	out := Name(name)
	out = append(out, ExportKindFunc)
	out = append(out, U32(idx)...)
	return out
}

func Code(locals []byte, expr []byte) []byte {
	body := append(append([]byte{}, locals...), expr...)
	return append(U32(uint32(len(body))), body...)
}

func NoLocals() []byte { return U32(0) }

// Module assembles a full binary from the four section bodies this core
// supports; a nil body omits that section entirely.
func Module(typeSec, funcSec, exportSec, codeSec []byte) []byte {
	out := append([]byte{}, Preamble...)
	if typeSec != nil {
		out = append(out, Section(SectionIDType, typeSec)...)
	}
	if funcSec != nil {
		out = append(out, Section(SectionIDFunction, funcSec)...)
	}
	if exportSec != nil {
		out = append(out, Section(SectionIDExport, exportSec)...)
	}
	if codeSec != nil {
		out = append(out, Section(SectionIDCode, codeSec)...)
	}
	return out
}
