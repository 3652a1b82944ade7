package runtime

import (
	"fmt"

	"github.com/RI5255/tinywasm/internal/wasm"
	"github.com/RI5255/tinywasm/log"
)

// FuncAddr is a Store-scoped index identifying a FuncInstance. In this
// core it always equals the defining module's function index.
type FuncAddr uint32

// FuncInstance is the runtime triple of a function's type, its owning
// ModuleInstance, and its static code.
type FuncInstance struct {
	Type   *wasm.FuncType
	Module *ModuleInstance
	Code   *wasm.Func
}

// ModuleInstance is the runtime form of a Module, bound to a Store: it
// borrows the module's type table and exports, and owns the FuncAddr
// table resolved at instantiation.
type ModuleInstance struct {
	Types     []*wasm.FuncType
	FuncAddrs []FuncAddr
	Exports   []*wasm.Export
}

// Store is the runtime container owning all FuncInstances and the live
// execution Stack.
type Store struct {
	Funcs []*FuncInstance
	Stack *Stack
}

// Config bounds the resources a Store allocates; see config.go at the
// module root for the public RuntimeConfig this is built from.
type Config struct {
	StackCapacity int
	CallStackCeiling int
}

func (c Config) stackCapacity() int {
	if c.StackCapacity > 0 {
		return c.StackCapacity
	}
	return DefaultStackCapacity
}

func (c Config) callStackCeiling() int {
	if c.CallStackCeiling > 0 {
		return c.CallStackCeiling
	}
	return DefaultCallStackCeiling
}

// Instantiate wires a decoded Module into a fresh Store.
//
// The next FuncAddr is simply the loop index into a Store-scoped slice,
// rather than a shared global counter, so multiple Stores may coexist
// independently in the same process.
func Instantiate(module *wasm.Module, cfg Config) (*Store, *ModuleInstance, error) {
	store := &Store{
		Funcs: make([]*FuncInstance, len(module.Funcs)),
		Stack: NewStack(cfg.stackCapacity(), cfg.callStackCeiling()),
	}

	mi := &ModuleInstance{
		Types:     module.Types,
		FuncAddrs: make([]FuncAddr, len(module.Funcs)),
		Exports:   module.Exports,
	}

	for i, typeIdx := range module.Funcs {
		if int(typeIdx) >= len(module.Types) {
			return nil, nil, fmt.Errorf("func %d: type index %d out of range", i, typeIdx)
		}
		store.Funcs[i] = &FuncInstance{
			Type:   module.Types[typeIdx],
			Module: mi,
			Code:   module.Code[i],
		}
		mi.FuncAddrs[i] = FuncAddr(i)
	}

	// The start section is ignored; start-section execution is
	// unsupported.
	log.Get().Debugw("instantiated module", "funcs", len(store.Funcs), "exports", len(mi.Exports))
	return store, mi, nil
}
