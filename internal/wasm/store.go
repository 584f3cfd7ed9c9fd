package wasm

import (
	"fmt"

	"go.uber.org/zap"
)

// ModuleInstance is the mutable state of one run of a Module: its globals, the locals of the entry function and the
// linear memory. It is created immediately before interpretation and is never reused across runs.
type ModuleInstance struct {
	Globals []*GlobalInstance
	// Locals are the flattened locals of the function exported as StartFunctionName, zero-valued by type.
	Locals []Value
	// Memory is nil when the module declares none.
	Memory *MemoryInstance
}

// Instantiate materializes the runtime state of the module. The module is not modified, so the same Module can be
// instantiated any number of times, each result sharing nothing with the others.
func Instantiate(m *Module) (*ModuleInstance, error) {
	globals, err := instantiateGlobals(m.GlobalSection)
	if err != nil {
		return nil, err
	}

	locals, err := instantiateLocals(m)
	if err != nil {
		return nil, err
	}

	mem, err := instantiateMemory(m.MemorySection)
	if err != nil {
		return nil, err
	}

	if err = applyData(mem, m.DataSection); err != nil {
		return nil, err
	}

	Logger().Debug("instantiated module",
		zap.Int("globals", len(globals)),
		zap.Int("locals", len(locals)),
		zap.Bool("memory", mem != nil))
	return &ModuleInstance{Globals: globals, Locals: locals, Memory: mem}, nil
}

func instantiateGlobals(gs []*Global) ([]*GlobalInstance, error) {
	ret := make([]*GlobalInstance, len(gs))
	for i, g := range gs {
		v, err := g.Init.EvalI32()
		if err != nil {
			return nil, fmt.Errorf("global[%d]: %w", i, err)
		}
		if g.Type.ValType != ValueTypeI32 {
			return nil, fmt.Errorf("global[%d]: %w: %s initialized with i32.const",
				i, ErrKindMismatch, ValueTypeName(g.Type.ValType))
		}
		gt := *g.Type // copy so that no instance aliases the module
		ret[i] = &GlobalInstance{Type: &gt, Val: ValueI32(v)}
	}
	return ret, nil
}

// instantiateLocals flattens the local groups of the start function. A module without a start function has no
// locals: the run fails later with ErrNoStartFunction.
func instantiateLocals(m *Module) ([]Value, error) {
	idx, err := m.StartFunction()
	if err != nil {
		return nil, nil
	}
	code := m.CodeSection[idx]
	n := code.NumLocals()
	if n > MaximumLocals {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyLocals, n, MaximumLocals)
	}
	ret := make([]Value, 0, n)
	for _, g := range code.Locals {
		zero, err := ZeroValue(g.Type)
		if err != nil {
			return nil, fmt.Errorf("local: %w", err)
		}
		for j := uint32(0); j < g.Count; j++ {
			ret = append(ret, zero)
		}
	}
	return ret, nil
}

func instantiateMemory(ms []*Memory) (*MemoryInstance, error) {
	switch len(ms) {
	case 0:
		return nil, nil
	case 1:
		return NewMemoryInstance(ms[0])
	default:
		return nil, fmt.Errorf("%w: %d declared", ErrMultipleMemories, len(ms))
	}
}

// applyData copies each active data segment into memory at its offset.
func applyData(mem *MemoryInstance, data []*DataSegment) error {
	for i, d := range data {
		if mem == nil {
			return fmt.Errorf("data[%d]: %w", i, ErrNoMemory)
		}
		offset, err := d.OffsetExpression.EvalI32()
		if err != nil {
			return fmt.Errorf("data[%d]: %w", i, err)
		}
		if !mem.Write(uint32(offset), d.Init) {
			return fmt.Errorf("data[%d]: %w: %d bytes at offset %d, but memory is %d bytes",
				i, ErrOutOfBoundsDataSegment, len(d.Init), uint32(offset), mem.Size())
		}
	}
	return nil
}
