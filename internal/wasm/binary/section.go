package binary

import (
	"fmt"

	"github.com/r00ster91/wasmos/internal/wasm"
)

// skipCustomSection reads the name of a custom section, then skips the rest of it without decoding.
func skipCustomSection(r *reader, sectionSize uint32) error {
	start := r.pos
	if _, err := r.readName(); err != nil {
		return fmt.Errorf("read name: %w", err)
	}
	nameSize := uint32(r.pos - start)
	if nameSize > sectionSize {
		return fmt.Errorf("%w: name of %d bytes in a section of %d", ErrInvalidSectionLength, nameSize, sectionSize)
	}
	return r.skip(sectionSize - nameSize)
}

func decodeTypeSection(r *reader) ([]*wasm.FunctionType, error) {
	return readVector(r, decodeFunctionType)
}

// decodeFunctionType decodes the tag 0x60 followed by the parameter and result vectors.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-functype
func decodeFunctionType(r *reader) (*wasm.FunctionType, error) {
	if err := r.skipByte(0x60); err != nil {
		return nil, fmt.Errorf("read leading byte: %w", err)
	}

	params, err := readVector(r, decodeValueType)
	if err != nil {
		return nil, fmt.Errorf("could not read parameter types: %w", err)
	}

	results, err := readVector(r, decodeValueType)
	if err != nil {
		return nil, fmt.Errorf("could not read result types: %w", err)
	}

	return &wasm.FunctionType{Params: params, Results: results}, nil
}

func decodeImportSection(r *reader) ([]*wasm.Import, error) {
	return readVector(r, decodeImport)
}

// decodeFunctionSection decodes the type index of each function defined in the module.
func decodeFunctionSection(r *reader) ([]wasm.Index, error) {
	return readVector(r, (*reader).readUint32)
}

func decodeMemorySection(r *reader) ([]*wasm.Memory, error) {
	return readVector(r, decodeMemory)
}

func decodeGlobalSection(r *reader) ([]*wasm.Global, error) {
	return readVector(r, decodeGlobal)
}

func decodeExportSection(r *reader) ([]*wasm.Export, error) {
	return readVector(r, decodeExport)
}

// decodeStartSection reads and discards the start function index: the entry point is always the export named
// wasm.StartFunctionName.
func decodeStartSection(r *reader) error {
	if _, err := r.readUint32(); err != nil {
		return fmt.Errorf("get function index: %w", err)
	}
	return nil
}

func decodeCodeSection(r *reader) ([]*wasm.Code, error) {
	return readVector(r, decodeCode)
}

func decodeDataSection(r *reader) ([]*wasm.DataSegment, error) {
	return readVector(r, decodeDataSegment)
}
