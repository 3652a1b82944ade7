package runtime

import (
	"github.com/RI5255/tinywasm/internal/wasm"
)

// Label is a stack marker demarcating a structured control region: the
// number of result values it carries across its boundary, and the
// instruction execution resumes at when the label is exited or branched
// to.
type Label struct {
	Arity        int
	Continuation *wasm.Instr
}

// Frame is a per-call activation record: the function's result arity, its
// mutable locals, and the ModuleInstance it was invoked against.
type Frame struct {
	Arity  int
	Locals []wasm.Value
	Module *ModuleInstance
}

type objKind uint8

const (
	objValue objKind = iota
	objLabel
	objFrame
)

// stackObj is the tagged union stored in the Stack's pool.
type stackObj struct {
	kind  objKind
	val   wasm.Value
	label Label
	frame *Frame
}

// Stack is the unified operand/label/frame stack: a fixed-capacity pool
// addressed by a top index, plus a side-list of active frames for O(1)
// access to the current frame.
type Stack struct {
	pool []stackObj
	top  int // index of the topmost occupied slot; -1 when empty
	cap  int

	frames        []*Frame // side-index; frames[len-1] is the current frame
	frameCeiling  int
}

// DefaultStackCapacity is the pool size used when a Store is created
// without an explicit RuntimeConfig override.
const DefaultStackCapacity = 1 << 16

// DefaultCallStackCeiling bounds the active-frames side-index depth; it is
// the call-depth limit applied when a Store is created without an
// explicit RuntimeConfig override.
const DefaultCallStackCeiling = 2048

// NewStack allocates a Stack with the given fixed capacity and call-stack
// ceiling.
func NewStack(capacity, frameCeiling int) *Stack {
	if frameCeiling <= 0 {
		frameCeiling = DefaultCallStackCeiling
	}
	return &Stack{
		pool:         make([]stackObj, capacity),
		top:          -1,
		cap:          capacity,
		frameCeiling: frameCeiling,
	}
}

func (s *Stack) full() bool { return s.top+1 >= s.cap }

func (s *Stack) push(o stackObj) {
	if s.full() {
		panic(ErrStackOverflow)
	}
	s.top++
	s.pool[s.top] = o
}

// PushVal pushes a Value.
func (s *Stack) PushVal(v wasm.Value) {
	s.push(stackObj{kind: objValue, val: v})
}

// PopVal pops a Value; the top must be a Value.
func (s *Stack) PopVal() wasm.Value {
	o := s.pool[s.top]
	if o.kind != objValue {
		panicInvariant("pop_val: stack top is not a Value")
	}
	s.top--
	return o.val
}

// PushVals pushes vs in iteration order.
func (s *Stack) PushVals(vs []wasm.Value) {
	for _, v := range vs {
		s.PushVal(v)
	}
}

// PopVals pops all contiguous Values from the top, returning them in push
// order. Never crosses a Label or Frame boundary.
func (s *Stack) PopVals() []wasm.Value {
	var out []wasm.Value
	for s.TopIsValue() {
		out = append(out, s.PopVal())
	}
	// out is in pop order (top first); reverse it into push order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// PushLabel pushes a Label.
func (s *Stack) PushLabel(l Label) {
	s.push(stackObj{kind: objLabel, label: l})
}

// PopLabel pops a Label; the top must be a Label.
func (s *Stack) PopLabel() Label {
	o := s.pool[s.top]
	if o.kind != objLabel {
		panicInvariant("pop_label: stack top is not a Label")
	}
	s.top--
	return o.label
}

// TryPopLabel pops a Label if the top is one, returning ok=false (without
// mutating the stack) otherwise.
func (s *Stack) TryPopLabel() (l Label, ok bool) {
	if s.top < 0 || s.pool[s.top].kind != objLabel {
		return Label{}, false
	}
	return s.PopLabel(), true
}

// PushFrame pushes a Frame and appends it to the active-frames side-index.
// Exceeding the call-stack ceiling is a fatal error, distinct from the
// operand-pool overflow above but reported the same way.
func (s *Stack) PushFrame(f *Frame) {
	if len(s.frames) >= s.frameCeiling {
		panic(ErrStackOverflow)
	}
	s.push(stackObj{kind: objFrame, frame: f})
	s.frames = append(s.frames, f)
}

// PopFrame pops a Frame; the top must be a Frame.
func (s *Stack) PopFrame() *Frame {
	o := s.pool[s.top]
	if o.kind != objFrame {
		panicInvariant("pop_frame: stack top is not a Frame")
	}
	s.top--
	s.frames = s.frames[:len(s.frames)-1]
	return o.frame
}

// CurrentFrame returns the topmost active Frame, or nil if no frame is
// active.
func (s *Stack) CurrentFrame() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Depth returns the number of occupied slots.
func (s *Stack) Depth() int { return s.top + 1 }

// Empty reports whether the stack holds no objects at all.
func (s *Stack) Empty() bool { return s.top < 0 }

// TopIsValue reports whether the stack is non-empty and its top is a
// Value. Between invocations the stack is either Empty or has a Value on
// top.
func (s *Stack) TopIsValue() bool {
	return s.top >= 0 && s.pool[s.top].kind == objValue
}
