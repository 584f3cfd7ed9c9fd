package binary

import (
	"fmt"

	"github.com/r00ster91/wasmos/internal/wasm"
)

// decodeImport decodes one import. Only function imports are supported.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-import
func decodeImport(r *reader) (*wasm.Import, error) {
	i := &wasm.Import{}
	var err error

	if i.Module, err = r.readName(); err != nil {
		return nil, fmt.Errorf("import module: %w", err)
	}

	if i.Name, err = r.readName(); err != nil {
		return nil, fmt.Errorf("import[%s] name: %w", i.Module, err)
	}

	if i.Type, err = r.readByte(); err != nil {
		return nil, fmt.Errorf("import[%s.%s] kind: %w", i.Module, i.Name, err)
	}

	switch i.Type {
	case wasm.ExternTypeFunc:
		if i.DescFunc, err = r.readUint32(); err != nil {
			return nil, fmt.Errorf("import[%s.%s] func: %w", i.Module, i.Name, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s for import[%s.%s]",
			ErrInvalidImportKind, wasm.ExternTypeName(i.Type), i.Module, i.Name)
	}
	return i, nil
}
