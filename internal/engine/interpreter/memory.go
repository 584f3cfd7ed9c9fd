package interpreter

import (
	"fmt"
	"math"

	"github.com/r00ster91/wasmos/internal/wasm"
)

// effectiveAddress reads the memarg immediates, then pops the base address. The alignment hint is ignored.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#memory-instructions%E2%91%A0
func (ce *callEngine) effectiveAddress(byteCount uint64) (*wasm.MemoryInstance, uint32, error) {
	if _, err := ce.readUint32(); err != nil { // align
		return nil, 0, err
	}
	offset, err := ce.readUint32()
	if err != nil {
		return nil, 0, err
	}

	base, err := ce.operands.popI32()
	if err != nil {
		return nil, 0, err
	}

	mem := ce.inst.Memory
	if mem == nil {
		return nil, 0, wasm.ErrNoMemory
	}

	ea := uint64(offset) + uint64(uint32(base))
	if ea+byteCount > math.MaxUint32+1 || ea+byteCount > uint64(mem.Size()) {
		return nil, 0, fmt.Errorf("%w: %d bytes at %d, but memory is %d bytes",
			wasm.ErrOutOfBoundsMemoryAccess, byteCount, ea, mem.Size())
	}
	return mem, uint32(ea), nil
}

func i32Load(ce *callEngine) error {
	mem, ea, err := ce.effectiveAddress(4)
	if err != nil {
		return err
	}
	v, _ := mem.ReadUint32Le(ea) // bounds already checked
	ce.operands.push(wasm.ValueI32(int32(v)))
	return nil
}

func i64Load(ce *callEngine) error {
	mem, ea, err := ce.effectiveAddress(8)
	if err != nil {
		return err
	}
	v, _ := mem.ReadUint64Le(ea)
	ce.operands.push(wasm.ValueI64(int64(v)))
	return nil
}

// Stores pop the value before the base address, and truncate it to the width stored.

func i32Store(ce *callEngine) error {
	v, err := ce.operands.popI32()
	if err != nil {
		return err
	}
	mem, ea, err := ce.effectiveAddress(4)
	if err != nil {
		return err
	}
	mem.WriteUint32Le(ea, uint32(v))
	return nil
}

func i64Store(ce *callEngine) error {
	v, err := ce.operands.popI64()
	if err != nil {
		return err
	}
	mem, ea, err := ce.effectiveAddress(8)
	if err != nil {
		return err
	}
	mem.WriteUint64Le(ea, uint64(v))
	return nil
}

func i32Store8(ce *callEngine) error {
	v, err := ce.operands.popI32()
	if err != nil {
		return err
	}
	mem, ea, err := ce.effectiveAddress(1)
	if err != nil {
		return err
	}
	mem.WriteByte(ea, byte(v))
	return nil
}

func i32Store16(ce *callEngine) error {
	v, err := ce.operands.popI32()
	if err != nil {
		return err
	}
	mem, ea, err := ce.effectiveAddress(2)
	if err != nil {
		return err
	}
	mem.WriteUint16Le(ea, uint16(v))
	return nil
}
