package binary

import (
	"fmt"

	"github.com/r00ster91/wasmos/internal/wasm"
)

// decodeCode decodes one function body: its local groups, then the instructions verbatim, including the trailing
// wasm.OpcodeEnd.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-code
func decodeCode(r *reader) (*wasm.Code, error) {
	ss, err := r.readUint32()
	if err != nil {
		return nil, fmt.Errorf("get the size of code: %w", err)
	}

	body, err := r.sub(ss)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	locals, err := readVector(body, decodeLocalGroup)
	if err != nil {
		return nil, fmt.Errorf("read locals: %w", err)
	}

	var sum uint64
	for _, g := range locals {
		if sum += uint64(g.Count); sum > wasm.MaximumLocals {
			return nil, fmt.Errorf("%w: more than %d", ErrTooManyLocals, wasm.MaximumLocals)
		}
	}

	instructions := append([]byte{}, body.binary[body.pos:]...)
	if len(instructions) == 0 || instructions[len(instructions)-1] != wasm.OpcodeEnd {
		return nil, fmt.Errorf("%w: expr not end with OpcodeEnd", ErrMismatch)
	}

	return &wasm.Code{Locals: locals, Body: instructions}, nil
}

func decodeLocalGroup(r *reader) (wasm.LocalGroup, error) {
	n, err := r.readUint32()
	if err != nil {
		return wasm.LocalGroup{}, fmt.Errorf("read n of locals: %w", err)
	}

	vt, err := decodeValueType(r)
	if err != nil {
		return wasm.LocalGroup{}, fmt.Errorf("read type of local: %w", err)
	}
	return wasm.LocalGroup{Count: n, Type: vt}, nil
}
