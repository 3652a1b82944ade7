// Package interpreter implements the instruction dispatch loop and the
// function invocation bridge: a classical switch-dispatch loop over the
// linked instruction chain, driving the unified stack from
// internal/runtime.
package interpreter

import (
	"fmt"

	"github.com/RI5255/tinywasm/internal/runtime"
	"github.com/RI5255/tinywasm/internal/wasm"
)

// endSentinel is the process-wide immutable `end` instruction used as the
// continuation for a function's top-level activation label. It is executed
// like any other `end` (returning through the Frame beneath the label) and
// never mutated, so sharing it across every invocation is safe.
var endSentinel = &wasm.Instr{Opcode: wasm.OpcodeEnd}

// run executes the instruction chain starting at ip against store's
// current activation, returning once the `end` that pops the activation's
// Frame leaves ip nil (see exitInstrs), or with an error for `unreachable`
// or an unhandled opcode.
func run(store *runtime.Store, ip *wasm.Instr) error {
	stack := store.Stack
	for ip != nil {
		next := ip.Next

		switch ip.Opcode {
		case wasm.OpcodeI32Const:
			stack.PushVal(wasm.I32(ip.I32))

		case wasm.OpcodeI32Add:
			rhs := stack.PopVal().I32
			lhs := stack.PopVal().I32
			stack.PushVal(wasm.I32(lhs + rhs)) // wraps modulo 2^32 per Go's int32 semantics

		case wasm.OpcodeI32GeS:
			rhs := stack.PopVal().I32
			lhs := stack.PopVal().I32
			stack.PushVal(boolI32(lhs >= rhs))

		case wasm.OpcodeLocalGet:
			f := stack.CurrentFrame()
			stack.PushVal(f.Locals[ip.LocalIdx])

		case wasm.OpcodeLocalSet:
			f := stack.CurrentFrame()
			f.Locals[ip.LocalIdx] = stack.PopVal()

		case wasm.OpcodeBlock:
			stack.PushLabel(runtime.Label{
				Arity:        wasm.BlockArity(ip.BlockType),
				Continuation: ip.Next,
			})
			next = ip.In1

		case wasm.OpcodeLoop:
			// The loop's continuation is its own header, so a branch to
			// this label re-enters the loop.
			stack.PushLabel(runtime.Label{Arity: 0, Continuation: ip})
			next = ip.In1

		case wasm.OpcodeIf:
			cond := stack.PopVal().I32
			stack.PushLabel(runtime.Label{
				Arity:        wasm.BlockArity(ip.BlockType),
				Continuation: ip.Next,
			})
			if cond != 0 {
				next = ip.In1
			} else if ip.In2 != nil {
				next = ip.In2
			} else {
				// An if with no else has an empty else arm: exit the label
				// at once, as that arm's lone `end` would.
				next = exitInstrs(store)
			}

		case wasm.OpcodeElse, wasm.OpcodeEnd:
			next = exitInstrs(store)

		case wasm.OpcodeBrIf:
			cond := stack.PopVal().I32
			if cond != 0 {
				next = branch(stack, ip.LabelIdx)
			}

		case wasm.OpcodeBr:
			next = branch(stack, ip.LabelIdx)

		case wasm.OpcodeCall:
			f := stack.CurrentFrame()
			addr := f.Module.FuncAddrs[ip.FuncIdx]
			if err := InvokeFunc(store, addr); err != nil {
				return err
			}

		case wasm.OpcodeUnreachable:
			return fmt.Errorf("unreachable instruction executed")

		default:
			return fmt.Errorf("interpreter: unhandled opcode %#x", ip.Opcode)
		}

		ip = next
	}
	return nil
}

func boolI32(b bool) wasm.Value {
	if b {
		return wasm.I32(1)
	}
	return wasm.I32(0)
}

// exitInstrs implements the shared `else`/`end` handling: pop all values,
// then either exit through a Label (pushing the values back and resuming
// at its continuation) or, if the stack top below the values is a Frame,
// return from the function.
func exitInstrs(store *runtime.Store) *wasm.Instr {
	stack := store.Stack
	vals := stack.PopVals()

	if l, ok := stack.TryPopLabel(); ok {
		stack.PushVals(vals)
		return l.Continuation
	}

	stack.PopFrame()
	stack.PushVals(vals)
	// Returning nil here ends this activation's run loop; the caller
	// resumes at its own call site rather than at any instruction
	// pointer.
	return nil
}

// branch implements `br l`: pop the values to carry, then unwind l+1
// labels (discarding the values found between them), landing at the final
// popped label's continuation. When that label is a loop header the
// continuation re-enters the loop; when it is a block/if label, it is the
// instruction past the block.
func branch(stack *runtime.Stack, l uint32) *wasm.Instr {
	vals := stack.PopVals()
	var target runtime.Label
	for i := uint32(0); i <= l; i++ {
		stack.PopVals() // discard
		target = stack.PopLabel()
	}
	stack.PushVals(vals)
	return target.Continuation
}
