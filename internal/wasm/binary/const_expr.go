package binary

import (
	"fmt"

	"github.com/r00ster91/wasmos/internal/wasm"
)

// decodeConstantExpression decodes an initializer. Only `i32.const <sleb> end` is supported.
func decodeConstantExpression(r *reader) (*wasm.ConstantExpression, error) {
	opcode, err := r.readByte()
	if err != nil {
		return nil, fmt.Errorf("read opcode: %w", err)
	}

	if opcode != wasm.OpcodeI32Const {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConstExpr, wasm.InstructionName(opcode))
	}

	start := r.pos
	if _, err = r.readInt32(); err != nil {
		return nil, fmt.Errorf("read value: %w", err)
	}
	data := append([]byte{}, r.binary[start:r.pos]...)

	if err = r.skipByte(wasm.OpcodeEnd); err != nil {
		return nil, fmt.Errorf("look for end opcode: %w", err)
	}

	return &wasm.ConstantExpression{Opcode: opcode, Data: data}, nil
}
