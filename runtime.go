package tinywasm

import (
	"fmt"

	"github.com/RI5255/tinywasm/internal/interpreter"
	"github.com/RI5255/tinywasm/internal/runtime"
)

// FuncAddr addresses a function instance within a Store.
type FuncAddr = runtime.FuncAddr

// Store is an instantiated module bound to its runtime state: the function
// table and the fixed-capacity operand/label/frame stack functions run
// against.
type Store struct {
	store *runtime.Store
	mi    *runtime.ModuleInstance
}

// Instantiate wires a decoded Module into a fresh Store. cfg's zero value
// (tinywasm.RuntimeConfig{}) is equivalent to NewRuntimeConfig(): both
// resolve to the package defaults.
func Instantiate(m *Module, cfg RuntimeConfig) (*Store, error) {
	st, mi, err := runtime.Instantiate(m, cfg.toInternal())
	if err != nil {
		return nil, err
	}
	return &Store{store: st, mi: mi}, nil
}

// LookupFuncByName resolves an exported function's name to its FuncAddr.
func (s *Store) LookupFuncByName(name string) (FuncAddr, error) {
	return interpreter.LookupFuncByName(s.mi, name)
}

// Invoke calls the exported function name with args and returns its
// result values. A fatal runtime condition (stack overflow, call-stack
// ceiling exceeded, or an internal stack-invariant violation) is
// recovered at this boundary and converted to an error.
func (s *Store) Invoke(name string, args ...Value) (results []Value, err error) {
	addr, err := s.LookupFuncByName(name)
	if err != nil {
		return nil, err
	}
	return s.InvokeAddr(addr, args...)
}

// InvokeAddr is Invoke addressed directly by FuncAddr, skipping the export
// name lookup; useful for calling a function resolved once and invoked
// repeatedly.
func (s *Store) InvokeAddr(addr FuncAddr, args ...Value) (results []Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tinywasm: fatal runtime error: %v", r)
		}
	}()

	vals := append([]Value{}, args...)
	if err := interpreter.Invoke(s.store, addr, &vals); err != nil {
		return nil, err
	}
	return vals, nil
}
