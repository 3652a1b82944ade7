package wasm

import (
	"fmt"

	"github.com/RI5255/tinywasm/internal/leb128"
	"github.com/RI5255/tinywasm/log"
)

const (
	sectionIDCustom   = 0
	sectionIDType     = 1
	sectionIDFunction = 3
	sectionIDExport   = 7
	sectionIDCode     = 10

	maxKnownSectionID = 11 // ids 0..11 are defined by the Wasm binary format
)

var preamble = [8]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00} // "\0asm" + version 1

// Decode parses a Wasm binary into a Module.
func Decode(src []byte) (*Module, error) {
	log.Get().Debugw("decoding module", "bytes", len(src))
	r := leb128.NewReader(src)

	var magic [8]byte
	for i := range magic {
		b, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("reading preamble: %w: %w", ErrMalformed, err)
		}
		magic[i] = b
	}
	if magic != preamble {
		return nil, fmt.Errorf("%w: bad magic/version preamble", ErrMalformed)
	}

	m := &Module{}
	lastID := -1
	for !r.EOF() {
		id, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("reading section id: %w: %w", ErrMalformed, err)
		}
		size, err := r.ReadVarUint32()
		if err != nil {
			return nil, fmt.Errorf("reading section size: %w: %w", ErrMalformed, err)
		}
		sec, err := r.ReadBytes(int(size))
		if err != nil {
			return nil, fmt.Errorf("reading section body (id=%d): %w: %w", id, ErrMalformed, err)
		}

		if id == sectionIDCustom {
			continue // custom sections are skipped entirely
		}
		if int(id) > maxKnownSectionID {
			return nil, fmt.Errorf("%w: unknown section id %d", ErrMalformed, id)
		}
		if int(id) <= lastID {
			return nil, fmt.Errorf("%w: section id %d out of ascending order (last %d)", ErrMalformed, id, lastID)
		}
		lastID = int(id)

		switch id {
		case sectionIDType:
			if err := decodeTypeSection(sec, m); err != nil {
				return nil, err
			}
		case sectionIDFunction:
			if err := decodeFunctionSection(sec, m); err != nil {
				return nil, err
			}
		case sectionIDExport:
			if err := decodeExportSection(sec, m); err != nil {
				return nil, err
			}
		case sectionIDCode:
			if err := decodeCodeSection(sec, m); err != nil {
				return nil, err
			}
		default:
			// Recognized id, but outside this core's supported set
			// (table/memory/global/import/start/elem/data/...): parsed
			// and ignored: only the four section kinds this core implements
			// (type, function, export, code) are actually decoded.
			log.Get().Debugw("skipping unsupported known section", "id", id)
		}
	}
	log.Get().Debugw("decoded module", "types", len(m.Types), "funcs", len(m.Funcs), "exports", len(m.Exports))
	return m, nil
}

func decodeTypeSection(sec *leb128.Reader, m *Module) error {
	n, err := sec.ReadVarUint32()
	if err != nil {
		return fmt.Errorf("type section count: %w: %w", ErrMalformed, err)
	}
	m.Types = make([]*FuncType, 0, n)
	for i := uint32(0); i < n; i++ {
		tag, err := sec.ReadByte()
		if err != nil {
			return fmt.Errorf("type %d tag: %w: %w", i, ErrMalformed, err)
		}
		if tag != 0x60 {
			return fmt.Errorf("%w: type %d: expected functype tag 0x60, got %#x", ErrMalformed, i, tag)
		}
		params, err := decodeValTypeVec(sec)
		if err != nil {
			return fmt.Errorf("type %d params: %w", i, err)
		}
		results, err := decodeValTypeVec(sec)
		if err != nil {
			return fmt.Errorf("type %d results: %w", i, err)
		}
		m.Types = append(m.Types, &FuncType{Params: params, Results: results})
	}
	return nil
}

func decodeValTypeVec(r *leb128.Reader) ([]ValueType, error) {
	n, err := r.ReadVarUint32()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	out := make([]ValueType, n)
	for i := range out {
		b, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		out[i] = ValueType(b)
	}
	return out, nil
}

func decodeFunctionSection(sec *leb128.Reader, m *Module) error {
	n, err := sec.ReadVarUint32()
	if err != nil {
		return fmt.Errorf("function section count: %w: %w", ErrMalformed, err)
	}
	m.Funcs = make([]uint32, n)
	for i := range m.Funcs {
		idx, err := sec.ReadVarUint32()
		if err != nil {
			return fmt.Errorf("function %d type index: %w: %w", i, ErrMalformed, err)
		}
		m.Funcs[i] = idx
	}
	return nil
}

func decodeExportSection(sec *leb128.Reader, m *Module) error {
	n, err := sec.ReadVarUint32()
	if err != nil {
		return fmt.Errorf("export section count: %w: %w", ErrMalformed, err)
	}
	m.Exports = make([]*Export, 0, n)
	for i := uint32(0); i < n; i++ {
		name, err := decodeName(sec)
		if err != nil {
			return fmt.Errorf("export %d name: %w", i, err)
		}
		kind, err := sec.ReadByte()
		if err != nil {
			return fmt.Errorf("export %d kind: %w: %w", i, ErrMalformed, err)
		}
		idx, err := sec.ReadVarUint32()
		if err != nil {
			return fmt.Errorf("export %d index: %w: %w", i, ErrMalformed, err)
		}
		m.Exports = append(m.Exports, &Export{Name: name, Kind: ExportKind(kind), Idx: idx})
	}
	return nil
}

func decodeName(r *leb128.Reader) (string, error) {
	n, err := r.ReadVarUint32()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	sub, err := r.ReadBytes(int(n))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	b := make([]byte, n)
	for i := range b {
		c, _ := sub.ReadByte()
		b[i] = c
	}
	return string(b), nil
}

func decodeCodeSection(sec *leb128.Reader, m *Module) error {
	n, err := sec.ReadVarUint32()
	if err != nil {
		return fmt.Errorf("code section count: %w: %w", ErrMalformed, err)
	}
	m.Code = make([]*Func, 0, n)
	for i := uint32(0); i < n; i++ {
		size, err := sec.ReadVarUint32()
		if err != nil {
			return fmt.Errorf("code %d size: %w: %w", i, ErrMalformed, err)
		}
		body, err := sec.ReadBytes(int(size))
		if err != nil {
			return fmt.Errorf("code %d body: %w: %w", i, ErrMalformed, err)
		}
		f, err := decodeFunc(body)
		if err != nil {
			return fmt.Errorf("code %d: %w", i, err)
		}
		if int(i) < len(m.Funcs) {
			f.TypeIdx = m.Funcs[i]
		}
		m.Code = append(m.Code, f)
	}
	return nil
}

func decodeFunc(r *leb128.Reader) (*Func, error) {
	groupCount, err := r.ReadVarUint32()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	locals := make([]LocalGroup, groupCount)
	for i := range locals {
		count, err := r.ReadVarUint32()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		t, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		locals[i] = LocalGroup{Count: count, Type: ValueType(t)}
	}
	body, _, err := decodeExpr(r)
	if err != nil {
		return nil, err
	}
	return &Func{Locals: locals, Body: body}, nil
}

// decodeExpr decodes an instruction sequence until (and including) a
// matching `end`, returning the head of the chain and the terminating
// `end`/`else` node.
func decodeExpr(r *leb128.Reader) (head *Instr, term *Instr, err error) {
	var first, last *Instr
	for {
		in, err := decodeInstr(r)
		if err != nil {
			return nil, nil, err
		}
		if last == nil {
			first = in
		} else {
			last.Next = in
		}
		last = in
		if in.Opcode == OpcodeEnd || in.Opcode == OpcodeElse {
			return first, in, nil
		}
	}
}

func decodeInstr(r *leb128.Reader) (*Instr, error) {
	b, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading opcode: %w: %w", ErrMalformed, err)
	}
	op := Opcode(b)
	in := &Instr{Opcode: op}

	switch op {
	case OpcodeBlock, OpcodeLoop:
		bt, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		if bt != BlockTypeEmpty && !isValueTypeByte(bt) {
			return nil, fmt.Errorf("%w: multi-value/typeidx block types are unsupported", ErrUnsupported)
		}
		in.BlockType = bt
		body, term, err := decodeExpr(r)
		if err != nil {
			return nil, err
		}
		if term.Opcode != OpcodeEnd {
			return nil, fmt.Errorf("%w: block/loop body must terminate in end, got else", ErrMalformed)
		}
		in.In1 = body

	case OpcodeIf:
		bt, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		if bt != BlockTypeEmpty && !isValueTypeByte(bt) {
			return nil, fmt.Errorf("%w: multi-value/typeidx block types are unsupported", ErrUnsupported)
		}
		in.BlockType = bt
		then, term, err := decodeExpr(r)
		if err != nil {
			return nil, err
		}
		in.In1 = then
		if term.Opcode == OpcodeElse {
			els, term2, err := decodeExpr(r)
			if err != nil {
				return nil, err
			}
			if term2.Opcode != OpcodeEnd {
				return nil, fmt.Errorf("%w: if-else body must terminate in end", ErrMalformed)
			}
			in.In2 = els
		}

	case OpcodeBr, OpcodeBrIf:
		idx, err := r.ReadVarUint32()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		in.LabelIdx = idx

	case OpcodeCall:
		idx, err := r.ReadVarUint32()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		in.FuncIdx = idx

	case OpcodeLocalGet, OpcodeLocalSet:
		idx, err := r.ReadVarUint32()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		in.LocalIdx = idx

	case OpcodeI32Const:
		v, err := r.ReadVarInt32()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		in.I32 = v

	case OpcodeEnd, OpcodeElse, OpcodeUnreachable, OpcodeI32Add, OpcodeI32GeS:
		// no immediates

	default:
		return nil, fmt.Errorf("%w: opcode %#x", ErrUnsupported, b)
	}

	return in, nil
}

func isValueTypeByte(b byte) bool {
	switch ValueType(b) {
	case ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64:
		return true
	default:
		return false
	}
}
