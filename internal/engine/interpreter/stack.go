package interpreter

import (
	"fmt"

	"github.com/r00ster91/wasmos/internal/wasm"
)

const (
	initialOperandStackHeight = 64
	initialLabelStackHeight   = 8
)

// operandStack is the last-in-first-out storage of instruction operands. Every pop checks both height and kind.
type operandStack struct {
	values []wasm.Value
}

func newOperandStack() *operandStack {
	return &operandStack{values: make([]wasm.Value, 0, initialOperandStackHeight)}
}

func (s *operandStack) len() int {
	return len(s.values)
}

func (s *operandStack) push(v wasm.Value) {
	s.values = append(s.values, v)
}

func (s *operandStack) pushBool(b bool) {
	if b {
		s.push(wasm.ValueI32(1))
	} else {
		s.push(wasm.ValueI32(0))
	}
}

func (s *operandStack) pop() (wasm.Value, error) {
	if len(s.values) == 0 {
		return wasm.Value{}, wasm.ErrStackUnderflow
	}
	v := s.values[len(s.values)-1]
	s.values = s.values[:len(s.values)-1]
	return v, nil
}

func (s *operandStack) peek() (wasm.Value, error) {
	if len(s.values) == 0 {
		return wasm.Value{}, wasm.ErrStackUnderflow
	}
	return s.values[len(s.values)-1], nil
}

// popI32 pops a value, failing with wasm.ErrKindMismatch unless it is an i32. The stack is unchanged on error.
func (s *operandStack) popI32() (int32, error) {
	v, err := s.peek()
	if err != nil {
		return 0, err
	}
	ret, err := v.I32()
	if err != nil {
		return 0, err
	}
	s.values = s.values[:len(s.values)-1]
	return ret, nil
}

// popI64 pops a value, failing with wasm.ErrKindMismatch unless it is an i64. The stack is unchanged on error.
func (s *operandStack) popI64() (int64, error) {
	v, err := s.peek()
	if err != nil {
		return 0, err
	}
	ret, err := v.I64()
	if err != nil {
		return 0, err
	}
	s.values = s.values[:len(s.values)-1]
	return ret, nil
}

// popI32Pair pops the two operands of a binary i32 instruction: x2 was pushed last.
func (s *operandStack) popI32Pair() (x1, x2 int32, err error) {
	if x2, err = s.popI32(); err != nil {
		return
	}
	x1, err = s.popI32()
	return
}

func (s *operandStack) popI64Pair() (x1, x2 int64, err error) {
	if x2, err = s.popI64(); err != nil {
		return
	}
	x1, err = s.popI64()
	return
}

// truncate drops values above height.
func (s *operandStack) truncate(height int) {
	if height < len(s.values) {
		s.values = s.values[:height]
	}
}

// label is the branch target of a block or loop.
type label struct {
	// continuation is the position a branch to this label resumes at: the first instruction of a loop body, or the
	// instruction after the end of a block.
	continuation uint64
	isLoop       bool
	// operandHeight is the operand stack height when the label was pushed, restored on branch.
	operandHeight int
}

// labelStack holds the labels of the blocks and loops being executed, innermost last. It replaces recursion, so
// nesting depth never grows the Go stack.
type labelStack struct {
	labels []label
}

func newLabelStack() *labelStack {
	return &labelStack{labels: make([]label, 0, initialLabelStackHeight)}
}

func (s *labelStack) len() int {
	return len(s.labels)
}

func (s *labelStack) push(l label) {
	s.labels = append(s.labels, l)
}

func (s *labelStack) pop() {
	s.labels = s.labels[:len(s.labels)-1]
}

// get returns the label at the relative depth, where zero is the innermost.
func (s *labelStack) get(depth uint32) (label, error) {
	if uint64(depth) >= uint64(len(s.labels)) {
		return label{}, fmt.Errorf("%w: label depth %d of %d", wasm.ErrInvalidIndex, depth, len(s.labels))
	}
	return s.labels[len(s.labels)-1-int(depth)], nil
}

// unwind drops the labels above the one at depth, and that label too unless keep is set.
func (s *labelStack) unwind(depth uint32, keep bool) {
	n := len(s.labels) - 1 - int(depth)
	if keep {
		n++
	}
	s.labels = s.labels[:n]
}
