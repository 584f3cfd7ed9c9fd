package binaryencoding

import (
	"github.com/r00ster91/wasmos/internal/leb128"
	"github.com/r00ster91/wasmos/internal/wasm"
)

var (
	magic   = []byte{0x00, 0x61, 0x73, 0x6D}
	version = []byte{0x01, 0x00, 0x00, 0x00}
)

// Section IDs, duplicated here as the decoder's tests import this package.
const (
	sectionIDCustom   = 0
	sectionIDType     = 1
	sectionIDImport   = 2
	sectionIDFunction = 3
	sectionIDMemory   = 5
	sectionIDGlobal   = 6
	sectionIDExport   = 7
	sectionIDStart    = 8
	sectionIDCode     = 10
	sectionIDData     = 11
)

// EncodeModule encodes the given module into a byte slice in the WebAssembly 1.0 (20191205) Binary Format.
// Empty sections are omitted.
//
// Note: If saving to a file, the conventional extension is wasm
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-format%E2%91%A0
func EncodeModule(m *wasm.Module) (bytes []byte) {
	bytes = append(append([]byte{}, magic...), version...)
	if len(m.TypeSection) > 0 {
		bytes = append(bytes, encodeVectorSection(sectionIDType, m.TypeSection, EncodeFunctionType)...)
	}
	if len(m.ImportSection) > 0 {
		bytes = append(bytes, encodeVectorSection(sectionIDImport, m.ImportSection, EncodeImport)...)
	}
	if len(m.FunctionSection) > 0 {
		bytes = append(bytes, encodeVectorSection(sectionIDFunction, m.FunctionSection, leb128.EncodeUint32)...)
	}
	if len(m.MemorySection) > 0 {
		bytes = append(bytes, encodeVectorSection(sectionIDMemory, m.MemorySection, EncodeMemory)...)
	}
	if len(m.GlobalSection) > 0 {
		bytes = append(bytes, encodeVectorSection(sectionIDGlobal, m.GlobalSection, encodeGlobal)...)
	}
	if len(m.ExportSection) > 0 {
		bytes = append(bytes, encodeVectorSection(sectionIDExport, m.ExportSection, EncodeExport)...)
	}
	if len(m.CodeSection) > 0 {
		bytes = append(bytes, encodeVectorSection(sectionIDCode, m.CodeSection, EncodeCode)...)
	}
	if len(m.DataSection) > 0 {
		bytes = append(bytes, encodeVectorSection(sectionIDData, m.DataSection, encodeDataSegment)...)
	}
	return
}

// EncodeCustomSection encodes a custom section with the given name and opaque contents.
func EncodeCustomSection(name string, data []byte) []byte {
	contents := append(encodeSizePrefixed([]byte(name)), data...)
	return encodeSection(sectionIDCustom, contents)
}

// EncodeStartSection encodes a start section for the given function index.
func EncodeStartSection(funcidx wasm.Index) []byte {
	return encodeSection(sectionIDStart, leb128.EncodeUint32(funcidx))
}

func encodeVectorSection[T any](sectionID byte, elems []T, encode func(T) []byte) []byte {
	contents := leb128.EncodeUint32(uint32(len(elems)))
	for _, e := range elems {
		contents = append(contents, encode(e)...)
	}
	return encodeSection(sectionID, contents)
}

// encodeSection encodes the sectionID, the size of its contents in bytes, followed by the contents.
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#sections%E2%91%A0
func encodeSection(sectionID byte, contents []byte) []byte {
	return append([]byte{sectionID}, encodeSizePrefixed(contents)...)
}

// encodeSizePrefixed encodes the data prefixed by their size.
func encodeSizePrefixed(data []byte) []byte {
	size := leb128.EncodeUint32(uint32(len(data)))
	return append(size, data...)
}
