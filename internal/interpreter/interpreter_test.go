package interpreter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/RI5255/tinywasm/internal/runtime"
	"github.com/RI5255/tinywasm/internal/testing/wasmtest"
	"github.com/RI5255/tinywasm/internal/wasm"
)

// decodeAndInstantiate runs the common decode -> validate -> instantiate
// pipeline, shared by every end-to-end scenario test below.
func decodeAndInstantiate(t *testing.T, bin []byte) (*runtime.Store, *runtime.ModuleInstance) {
	t.Helper()
	m, err := wasm.Decode(bin)
	require.NoError(t, err)
	require.NoError(t, wasm.Validate(m))
	store, mi, err := runtime.Instantiate(m, runtime.Config{})
	require.NoError(t, err)
	return store, mi
}

func invokeI32(t *testing.T, store *runtime.Store, mi *runtime.ModuleInstance, name string, args ...int32) []int32 {
	t.Helper()
	addr, err := LookupFuncByName(mi, name)
	require.NoError(t, err)

	vals := make([]wasm.Value, len(args))
	for i, a := range args {
		vals[i] = wasm.I32(a)
	}
	require.NoError(t, Invoke(store, addr, &vals))

	out := make([]int32, len(vals))
	for i, v := range vals {
		out[i] = v.I32
	}
	return out
}

// Scenario 1: Identity. Export id:(i32)->i32 with body `local.get 0; end`.
func TestScenario_Identity(t *testing.T) {
	w := wasmtest.Vec(wasmtest.FuncType([]byte{wasmtest.ValueTypeI32}, []byte{wasmtest.ValueTypeI32}))
	funcSec := wasmtest.Vec(wasmtest.U32(0))
	exportSec := wasmtest.Vec(wasmtest.ExportFunc("id", 0))
	expr := append([]byte{wasmtest.OpcodeLocalGet}, wasmtest.U32(0)...)
	expr = append(expr, wasmtest.OpcodeEnd)
	codeSec := wasmtest.Vec(wasmtest.Code(wasmtest.NoLocals(), expr))

	bin := wasmtest.Module(w, funcSec, exportSec, codeSec)
	store, mi := decodeAndInstantiate(t, bin)

	require.Equal(t, []int32{42}, invokeI32(t, store, mi, "id", 42))
	require.True(t, store.Stack.TopIsValue() || store.Stack.Empty())
}

// Scenario 2: Add, including wraparound.
func TestScenario_Add(t *testing.T) {
	i32t := byte(wasmtest.ValueTypeI32)
	typeSec := wasmtest.Vec(wasmtest.FuncType([]byte{i32t, i32t}, []byte{i32t}))
	funcSec := wasmtest.Vec(wasmtest.U32(0))
	exportSec := wasmtest.Vec(wasmtest.ExportFunc("add", 0))
	var expr []byte
	expr = append(expr, wasmtest.OpcodeLocalGet)
	expr = append(expr, wasmtest.U32(0)...)
	expr = append(expr, wasmtest.OpcodeLocalGet)
	expr = append(expr, wasmtest.U32(1)...)
	expr = append(expr, wasmtest.OpcodeI32Add, wasmtest.OpcodeEnd)
	codeSec := wasmtest.Vec(wasmtest.Code(wasmtest.NoLocals(), expr))

	bin := wasmtest.Module(typeSec, funcSec, exportSec, codeSec)
	store, mi := decodeAndInstantiate(t, bin)

	require.Equal(t, []int32{5}, invokeI32(t, store, mi, "add", 2, 3))
	require.Equal(t, []int32{-2147483648}, invokeI32(t, store, mi, "add", 2147483647, 1))
}

// Scenario 3: If/else.
func TestScenario_IfElse(t *testing.T) {
	i32t := byte(wasmtest.ValueTypeI32)
	typeSec := wasmtest.Vec(wasmtest.FuncType([]byte{i32t}, []byte{i32t}))
	funcSec := wasmtest.Vec(wasmtest.U32(0))
	exportSec := wasmtest.Vec(wasmtest.ExportFunc("sel", 0))

	var expr []byte
	expr = append(expr, wasmtest.OpcodeLocalGet)
	expr = append(expr, wasmtest.U32(0)...)
	expr = append(expr, wasmtest.OpcodeIf, i32t)
	expr = append(expr, wasmtest.OpcodeI32Const)
	expr = append(expr, wasmtest.I32(10)...)
	expr = append(expr, wasmtest.OpcodeElse)
	expr = append(expr, wasmtest.OpcodeI32Const)
	expr = append(expr, wasmtest.I32(20)...)
	expr = append(expr, wasmtest.OpcodeEnd) // closes if
	expr = append(expr, wasmtest.OpcodeEnd) // closes function
	codeSec := wasmtest.Vec(wasmtest.Code(wasmtest.NoLocals(), expr))

	bin := wasmtest.Module(typeSec, funcSec, exportSec, codeSec)
	store, mi := decodeAndInstantiate(t, bin)

	require.Equal(t, []int32{10}, invokeI32(t, store, mi, "sel", 1))
	require.Equal(t, []int32{20}, invokeI32(t, store, mi, "sel", 0))
}

// Scenario 4: Loop + br_if computing 0+1+...+n with a single loop label.
// The loop exits by pushing the result and `br 1`, which unwinds past the
// loop's own label AND the synthetic invocation label pushed by
// InvokeFunc, equivalent to an early return, with no separate wrapping
// `block` construct needed.
func TestScenario_LoopBrIf_SumTo(t *testing.T) {
	i32t := byte(wasmtest.ValueTypeI32)
	typeSec := wasmtest.Vec(wasmtest.FuncType([]byte{i32t}, []byte{i32t}))
	funcSec := wasmtest.Vec(wasmtest.U32(0))
	exportSec := wasmtest.Vec(wasmtest.ExportFunc("sumTo", 0))

	const nLocal, iLocal, sumLocal = 0, 1, 2
	var body []byte
	body = append(body, wasmtest.OpcodeLoop, wasmtest.BlockTypeEmpty)
	// sum = sum + i
	body = append(body, wasmtest.OpcodeLocalGet)
	body = append(body, wasmtest.U32(sumLocal)...)
	body = append(body, wasmtest.OpcodeLocalGet)
	body = append(body, wasmtest.U32(iLocal)...)
	body = append(body, wasmtest.OpcodeI32Add, wasmtest.OpcodeLocalSet)
	body = append(body, wasmtest.U32(sumLocal)...)
	// i = i + 1
	body = append(body, wasmtest.OpcodeLocalGet)
	body = append(body, wasmtest.U32(iLocal)...)
	body = append(body, wasmtest.OpcodeI32Const)
	body = append(body, wasmtest.I32(1)...)
	body = append(body, wasmtest.OpcodeI32Add, wasmtest.OpcodeLocalSet)
	body = append(body, wasmtest.U32(iLocal)...)
	// continue while n >= i
	body = append(body, wasmtest.OpcodeLocalGet)
	body = append(body, wasmtest.U32(nLocal)...)
	body = append(body, wasmtest.OpcodeLocalGet)
	body = append(body, wasmtest.U32(iLocal)...)
	body = append(body, wasmtest.OpcodeI32GeS, wasmtest.OpcodeBrIf)
	body = append(body, wasmtest.U32(0)...)
	// else: return sum
	body = append(body, wasmtest.OpcodeLocalGet)
	body = append(body, wasmtest.U32(sumLocal)...)
	body = append(body, wasmtest.OpcodeBr)
	body = append(body, wasmtest.U32(1)...)
	body = append(body, wasmtest.OpcodeEnd) // closes loop (unreachable in practice)
	body = append(body, wasmtest.OpcodeEnd) // closes function

	locals := wasmtest.U32(1) // one local-group
	locals = append(locals, wasmtest.U32(2)...)
	locals = append(locals, wasmtest.ValueTypeI32)
	codeSec := wasmtest.Vec(wasmtest.Code(locals, body))

	bin := wasmtest.Module(typeSec, funcSec, exportSec, codeSec)
	store, mi := decodeAndInstantiate(t, bin)

	require.Equal(t, []int32{55}, invokeI32(t, store, mi, "sumTo", 10))
	require.Equal(t, []int32{0}, invokeI32(t, store, mi, "sumTo", 0))
}

// Scenario 5: Nested block branch. Export brk:()->i32 with two nested
// blocks; the inner body runs `i32.const 7; br 1` to jump past the outer
// block, leaving 7 on the stack.
func TestScenario_NestedBlockBranch(t *testing.T) {
	typeSec := wasmtest.Vec(wasmtest.FuncType(nil, []byte{wasmtest.ValueTypeI32}))
	funcSec := wasmtest.Vec(wasmtest.U32(0))
	exportSec := wasmtest.Vec(wasmtest.ExportFunc("brk", 0))

	var expr []byte
	expr = append(expr, wasmtest.OpcodeBlock, wasmtest.ValueTypeI32)
	expr = append(expr, wasmtest.OpcodeBlock, wasmtest.BlockTypeEmpty)
	expr = append(expr, wasmtest.OpcodeI32Const)
	expr = append(expr, wasmtest.I32(7)...)
	expr = append(expr, wasmtest.OpcodeBr)
	expr = append(expr, wasmtest.U32(1)...)
	expr = append(expr, wasmtest.OpcodeEnd) // closes inner block
	expr = append(expr, wasmtest.OpcodeEnd) // closes outer block
	expr = append(expr, wasmtest.OpcodeEnd) // closes function
	codeSec := wasmtest.Vec(wasmtest.Code(wasmtest.NoLocals(), expr))

	bin := wasmtest.Module(typeSec, funcSec, exportSec, codeSec)
	store, mi := decodeAndInstantiate(t, bin)

	require.Equal(t, []int32{7}, invokeI32(t, store, mi, "brk"))
}

// Scenario 6: Call. Export twice:(i32)->i32 calling an internal add on
// (x, x).
func TestScenario_Call(t *testing.T) {
	i32t := byte(wasmtest.ValueTypeI32)
	typeSec := wasmtest.Vec(
		wasmtest.FuncType([]byte{i32t, i32t}, []byte{i32t}), // type 0: add
		wasmtest.FuncType([]byte{i32t}, []byte{i32t}),       // type 1: twice
	)
	funcSec := wasmtest.Vec(wasmtest.U32(0), wasmtest.U32(1))
	exportSec := wasmtest.Vec(wasmtest.ExportFunc("twice", 1))

	var addExpr []byte
	addExpr = append(addExpr, wasmtest.OpcodeLocalGet)
	addExpr = append(addExpr, wasmtest.U32(0)...)
	addExpr = append(addExpr, wasmtest.OpcodeLocalGet)
	addExpr = append(addExpr, wasmtest.U32(1)...)
	addExpr = append(addExpr, wasmtest.OpcodeI32Add, wasmtest.OpcodeEnd)

	var twiceExpr []byte
	twiceExpr = append(twiceExpr, wasmtest.OpcodeLocalGet)
	twiceExpr = append(twiceExpr, wasmtest.U32(0)...)
	twiceExpr = append(twiceExpr, wasmtest.OpcodeLocalGet)
	twiceExpr = append(twiceExpr, wasmtest.U32(0)...)
	twiceExpr = append(twiceExpr, wasmtest.OpcodeCall)
	twiceExpr = append(twiceExpr, wasmtest.U32(0)...)
	twiceExpr = append(twiceExpr, wasmtest.OpcodeEnd)

	codeSec := wasmtest.Vec(
		wasmtest.Code(wasmtest.NoLocals(), addExpr),
		wasmtest.Code(wasmtest.NoLocals(), twiceExpr),
	)

	bin := wasmtest.Module(typeSec, funcSec, exportSec, codeSec)
	store, mi := decodeAndInstantiate(t, bin)

	require.Equal(t, []int32{42}, invokeI32(t, store, mi, "twice", 21))
}

func TestInvoke_ArityMismatch(t *testing.T) {
	typeSec := wasmtest.Vec(wasmtest.FuncType([]byte{wasmtest.ValueTypeI32}, []byte{wasmtest.ValueTypeI32}))
	funcSec := wasmtest.Vec(wasmtest.U32(0))
	exportSec := wasmtest.Vec(wasmtest.ExportFunc("id", 0))
	expr := append([]byte{wasmtest.OpcodeLocalGet}, wasmtest.U32(0)...)
	expr = append(expr, wasmtest.OpcodeEnd)
	codeSec := wasmtest.Vec(wasmtest.Code(wasmtest.NoLocals(), expr))

	bin := wasmtest.Module(typeSec, funcSec, exportSec, codeSec)
	store, mi := decodeAndInstantiate(t, bin)

	addr, err := LookupFuncByName(mi, "id")
	require.NoError(t, err)

	args := []wasm.Value{}
	err = Invoke(store, addr, &args)
	require.ErrorIs(t, err, runtime.ErrArityMismatch)
}

func TestInvoke_NotFound(t *testing.T) {
	typeSec := wasmtest.Vec(wasmtest.FuncType(nil, nil))
	funcSec := wasmtest.Vec(wasmtest.U32(0))
	codeSec := wasmtest.Vec(wasmtest.Code(wasmtest.NoLocals(), []byte{wasmtest.OpcodeEnd}))
	bin := wasmtest.Module(typeSec, funcSec, nil, codeSec)
	_, mi := decodeAndInstantiate(t, bin)

	_, err := LookupFuncByName(mi, "nope")
	require.ErrorIs(t, err, runtime.ErrNotFound)
}
