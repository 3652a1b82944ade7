package wasm

import "fmt"

// Validate performs structural sanity checks: no deep instruction-level
// type checking, only that the index spaces line up.
func Validate(m *Module) error {
	if len(m.Funcs) != len(m.Code) {
		return fmt.Errorf("%w: function section has %d entries but code section has %d",
			ErrInvalid, len(m.Funcs), len(m.Code))
	}

	for i, typeIdx := range m.Funcs {
		if int(typeIdx) >= len(m.Types) {
			return fmt.Errorf("%w: func %d: type index %d out of range (%d types)",
				ErrInvalid, i, typeIdx, len(m.Types))
		}
	}

	for i, exp := range m.Exports {
		switch exp.Kind {
		case ExportKindFunc:
			if int(exp.Idx) >= len(m.Funcs) {
				return fmt.Errorf("%w: export %d (%q): func index %d out of range (%d funcs)",
					ErrInvalid, i, exp.Name, exp.Idx, len(m.Funcs))
			}
		default:
			// Tables/memories/globals are unsupported; an export naming
			// one of those kinds is structurally well-formed but
			// unreachable from Invoke, so it is not rejected here.
		}
	}

	return nil
}
