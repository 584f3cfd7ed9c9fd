package binary

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/r00ster91/wasmos/internal/wasm"
)

// DecodeModule decodes the WebAssembly 1.0 (20191205) Binary Format subset this runtime supports.
//
// No partial module is returned: either every section decoded or the error says which one did not.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-format%E2%91%A0
func DecodeModule(binary []byte) (*wasm.Module, error) {
	r := newReader(binary)

	if err := r.skipSlice(Magic); err != nil {
		return nil, ErrInvalidMagicNumber
	}
	if err := r.skipSlice(version); err != nil {
		return nil, ErrInvalidVersion
	}

	m := &wasm.Module{}
	for r.len() > 0 {
		sectionID, _ := r.readByte() // can't fail as len > 0

		sectionSize, err := r.readUint32()
		if err != nil {
			return nil, fmt.Errorf("get size of section %s: %w", SectionIDName(sectionID), err)
		}

		sectionContentStart := r.pos
		switch sectionID {
		case SectionIDCustom:
			err = skipCustomSection(r, sectionSize)
		case SectionIDType:
			m.TypeSection, err = decodeTypeSection(r)
		case SectionIDImport:
			m.ImportSection, err = decodeImportSection(r)
		case SectionIDFunction:
			m.FunctionSection, err = decodeFunctionSection(r)
		case SectionIDMemory:
			var memories []*wasm.Memory
			if memories, err = decodeMemorySection(r); err == nil {
				m.MemorySection = append(m.MemorySection, memories...)
				if len(m.MemorySection) > 1 {
					err = fmt.Errorf("%w: %d declared", ErrMultipleMemories, len(m.MemorySection))
				}
			}
		case SectionIDGlobal:
			m.GlobalSection, err = decodeGlobalSection(r)
		case SectionIDExport:
			m.ExportSection, err = decodeExportSection(r)
		case SectionIDStart:
			err = decodeStartSection(r)
		case SectionIDCode:
			m.CodeSection, err = decodeCodeSection(r)
		case SectionIDData:
			m.DataSection, err = decodeDataSection(r)
		case SectionIDTable, SectionIDElement, SectionIDDataCount:
			err = ErrUnsupportedSection
		default:
			err = ErrInvalidSectionID
		}

		if err == nil && sectionContentStart+int(sectionSize) != r.pos {
			err = fmt.Errorf("%w: expected to be %d but got %d",
				ErrInvalidSectionLength, sectionSize, r.pos-sectionContentStart)
		}

		if err != nil {
			return nil, fmt.Errorf("section %s: %w", SectionIDName(sectionID), err)
		}

		Logger().Debug("decoded section",
			zap.String("section", SectionIDName(sectionID)),
			zap.Uint32("size", sectionSize))
	}

	functionCount, codeCount := len(m.FunctionSection), len(m.CodeSection)
	if functionCount != codeCount {
		return nil, fmt.Errorf("%w: %d != %d", ErrInconsistentCodeLength, functionCount, codeCount)
	}
	return m, nil
}
