package binary

import (
	"fmt"

	"github.com/r00ster91/wasmos/internal/wasm"
)

func decodeValueType(r *reader) (wasm.ValueType, error) {
	b, err := r.readByte()
	if err != nil {
		return 0, err
	}
	if !wasm.IsNumeric(b) {
		return 0, fmt.Errorf("%w: invalid value type: %#x", ErrInvalidByte, b)
	}
	return b, nil
}
