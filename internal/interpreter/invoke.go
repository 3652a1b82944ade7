package interpreter

import (
	"fmt"

	"github.com/RI5255/tinywasm/internal/runtime"
	"github.com/RI5255/tinywasm/internal/wasm"
	"github.com/RI5255/tinywasm/log"
)

// InvokeFunc allocates a new Frame sized to the callee's parameters plus
// declared locals, pops the arguments off the stack into it, pushes the
// Frame and a synthetic result label, then runs the function body.
func InvokeFunc(store *runtime.Store, addr runtime.FuncAddr) (err error) {
	if int(addr) >= len(store.Funcs) {
		return fmt.Errorf("call: %w: funcaddr %d", runtime.ErrOutOfRange, addr)
	}
	fi := store.Funcs[addr]
	ft := fi.Type

	locals := make([]wasm.Value, len(ft.Params)+fi.Code.NumLocals())
	// Pop args in reverse-pop order so caller-pushed order is preserved;
	// declared locals beyond the parameters stay the zero Value (type tag
	// 0, I32 0) until first written.
	for i := len(ft.Params) - 1; i >= 0; i-- {
		locals[i] = store.Stack.PopVal()
	}

	frame := &runtime.Frame{
		Arity:  len(ft.Results),
		Locals: locals,
		Module: fi.Module,
	}
	store.Stack.PushFrame(frame)
	store.Stack.PushLabel(runtime.Label{
		Arity:        len(ft.Results),
		Continuation: endSentinel,
	})

	return run(store, fi.Code.Body)
}

// Invoke is the top-level entry point: range-check funcaddr, arity/type
// check args, run the call under a dummy bottom frame, and read the
// results back off the stack.
//
// args is used both as input (parameters, in declaration order) and
// output: on success its contents are replaced by the function's result
// values in declaration order.
func Invoke(store *runtime.Store, addr runtime.FuncAddr, args *[]wasm.Value) error {
	if int(addr) >= len(store.Funcs) {
		return fmt.Errorf("invoke: %w: funcaddr %d", runtime.ErrOutOfRange, addr)
	}
	fi := store.Funcs[addr]
	ft := fi.Type

	if len(*args) != len(ft.Params) {
		return fmt.Errorf("invoke: %w: want %d args, got %d", runtime.ErrArityMismatch, len(ft.Params), len(*args))
	}
	for i, v := range *args {
		if v.Type != ft.Params[i] {
			return fmt.Errorf("invoke: %w: arg %d: want %s, got %s",
				runtime.ErrTypeMismatch, i, ft.Params[i], v.Type)
		}
	}

	// Dummy bottom frame so the function's final `end` sees a Frame (not
	// emptiness) when it unwinds.
	store.Stack.PushFrame(&runtime.Frame{})
	store.Stack.PushVals(*args)

	if err := InvokeFunc(store, addr); err != nil {
		return err
	}

	results := make([]wasm.Value, len(ft.Results))
	for i := len(results) - 1; i >= 0; i-- {
		results[i] = store.Stack.PopVal()
	}
	store.Stack.PopFrame() // discard the dummy bottom frame
	*args = results
	log.Get().Debugw("invoked function", "funcaddr", addr, "results", len(results))
	return nil
}

// LookupFuncByName iterates mi's exports, matching on name and
// ExportKindFunc, and returns the corresponding FuncAddr.
func LookupFuncByName(mi *runtime.ModuleInstance, name string) (runtime.FuncAddr, error) {
	for _, exp := range mi.Exports {
		if exp.Kind == wasm.ExportKindFunc && exp.Name == name {
			return mi.FuncAddrs[exp.Idx], nil
		}
	}
	return 0, fmt.Errorf("lookup %q: %w", name, runtime.ErrNotFound)
}
