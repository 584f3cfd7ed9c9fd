package interpreter

import (
	"fmt"

	"github.com/r00ster91/wasmos/internal/wasm"
)

func drop(ce *callEngine) error {
	_, err := ce.operands.pop()
	return err
}

func (ce *callEngine) localIndex() (uint32, error) {
	idx, err := ce.readUint32()
	if err != nil {
		return 0, err
	}
	if uint64(idx) >= uint64(len(ce.inst.Locals)) {
		return 0, fmt.Errorf("%w: local[%d] of %d", wasm.ErrInvalidIndex, idx, len(ce.inst.Locals))
	}
	return idx, nil
}

func localGet(ce *callEngine) error {
	idx, err := ce.localIndex()
	if err != nil {
		return err
	}
	ce.operands.push(ce.inst.Locals[idx])
	return nil
}

func localSet(ce *callEngine) error {
	return setLocal(ce, false)
}

// localTee is local.set, except the value stays on the stack.
func localTee(ce *callEngine) error {
	return setLocal(ce, true)
}

func setLocal(ce *callEngine, tee bool) error {
	idx, err := ce.localIndex()
	if err != nil {
		return err
	}

	var v wasm.Value
	if tee {
		v, err = ce.operands.peek()
	} else {
		v, err = ce.operands.pop()
	}
	if err != nil {
		return err
	}

	if want := ce.inst.Locals[idx].Kind(); v.Kind() != want {
		return fmt.Errorf("%w: local[%d] is %s, but value is %s",
			wasm.ErrKindMismatch, idx, wasm.ValueTypeName(want), wasm.ValueTypeName(v.Kind()))
	}
	ce.inst.Locals[idx] = v
	return nil
}

func (ce *callEngine) global() (*wasm.GlobalInstance, error) {
	idx, err := ce.readUint32()
	if err != nil {
		return nil, err
	}
	if uint64(idx) >= uint64(len(ce.inst.Globals)) {
		return nil, fmt.Errorf("%w: global[%d] of %d", wasm.ErrInvalidIndex, idx, len(ce.inst.Globals))
	}
	return ce.inst.Globals[idx], nil
}

func globalGet(ce *callEngine) error {
	g, err := ce.global()
	if err != nil {
		return err
	}
	ce.operands.push(g.Get())
	return nil
}

func globalSet(ce *callEngine) error {
	g, err := ce.global()
	if err != nil {
		return err
	}
	v, err := ce.operands.pop()
	if err != nil {
		return err
	}
	return g.Set(v)
}
