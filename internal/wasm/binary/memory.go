package binary

import (
	"fmt"

	"github.com/r00ster91/wasmos/internal/wasm"
)

// decodeMemory decodes the limits of a memory. The flags are 0x00 for a minimum only, or 0x01 when a maximum follows.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-limits
func decodeMemory(r *reader) (*wasm.Memory, error) {
	flags, err := r.readByte()
	if err != nil {
		return nil, fmt.Errorf("read leading byte: %w", err)
	}
	if flags != 0x00 && flags != 0x01 {
		return nil, fmt.Errorf("%w for limits: %#x != 0x00 or 0x01", ErrInvalidByte, flags)
	}

	ret := &wasm.Memory{}
	if ret.Min, err = r.readUint32(); err != nil {
		return nil, fmt.Errorf("read min of limit: %w", err)
	}

	if flags == 0x01 {
		if ret.Max, err = r.readUint32(); err != nil {
			return nil, fmt.Errorf("read max of limit: %w", err)
		}
		ret.IsMaxEncoded = true
	}
	return ret, nil
}
