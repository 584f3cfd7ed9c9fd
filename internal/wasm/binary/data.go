package binary

import (
	"fmt"

	"github.com/r00ster91/wasmos/internal/wasm"
)

// decodeDataSegment decodes an active segment of memory 0, the only kind supported.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#data-section%E2%91%A0
func decodeDataSegment(r *reader) (*wasm.DataSegment, error) {
	flag, err := r.readUint32()
	if err != nil {
		return nil, fmt.Errorf("read data segment prefix: %w", err)
	}
	if flag != 0 {
		return nil, fmt.Errorf("%w: prefix %#x", ErrUnsupportedDataSegment, flag)
	}

	expr, err := decodeConstantExpression(r)
	if err != nil {
		return nil, fmt.Errorf("read offset expression: %w", err)
	}

	init, err := r.readBytes()
	if err != nil {
		return nil, fmt.Errorf("read init: %w", err)
	}

	return &wasm.DataSegment{OffsetExpression: expr, Init: init}, nil
}
