package binary

import (
	"fmt"

	"github.com/r00ster91/wasmos/internal/wasm"
)

func decodeExport(r *reader) (*wasm.Export, error) {
	ret := &wasm.Export{}
	var err error

	if ret.Name, err = r.readName(); err != nil {
		return nil, fmt.Errorf("export name: %w", err)
	}

	if ret.Type, err = r.readByte(); err != nil {
		return nil, fmt.Errorf("export[%s] kind: %w", ret.Name, err)
	}

	switch ret.Type {
	case wasm.ExternTypeFunc, wasm.ExternTypeTable, wasm.ExternTypeMemory, wasm.ExternTypeGlobal:
		if ret.Index, err = r.readUint32(); err != nil {
			return nil, fmt.Errorf("export[%s] index: %w", ret.Name, err)
		}
	default:
		return nil, fmt.Errorf("%w: %#x for export[%s]", ErrInvalidExportKind, ret.Type, ret.Name)
	}
	return ret, nil
}
