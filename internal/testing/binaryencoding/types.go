package binaryencoding

import (
	"github.com/r00ster91/wasmos/internal/leb128"
	"github.com/r00ster91/wasmos/internal/wasm"
)

// EncodeValTypes encodes a vector of value types.
func EncodeValTypes(vt []wasm.ValueType) []byte {
	count := leb128.EncodeUint32(uint32(len(vt)))
	return append(count, vt...)
}

// EncodeFunctionType returns the wasm.FunctionType encoded in WebAssembly 1.0 (20191205) Binary Format.
//
// Note: Function types are encoded by the byte 0x60 followed by the respective vectors of parameter and result types.
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#function-types%E2%91%A4
func EncodeFunctionType(t *wasm.FunctionType) []byte {
	data := append([]byte{0x60}, EncodeValTypes(t.Params)...)
	return append(data, EncodeValTypes(t.Results)...)
}

// EncodeImport returns the wasm.Import encoded in WebAssembly 1.0 (20191205) Binary Format.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-import
func EncodeImport(i *wasm.Import) []byte {
	data := encodeSizePrefixed([]byte(i.Module))
	data = append(data, encodeSizePrefixed([]byte(i.Name))...)
	data = append(data, i.Type)
	if i.Type == wasm.ExternTypeFunc {
		data = append(data, leb128.EncodeUint32(i.DescFunc)...)
	}
	return data
}

// EncodeExport returns the wasm.Export encoded in WebAssembly 1.0 (20191205) Binary Format.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#export-section%E2%91%A0
func EncodeExport(i *wasm.Export) []byte {
	data := encodeSizePrefixed([]byte(i.Name))
	data = append(data, i.Type)
	return append(data, leb128.EncodeUint32(i.Index)...)
}

// EncodeMemory returns the wasm.Memory encoded in WebAssembly 1.0 (20191205) Binary Format.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-memory
func EncodeMemory(i *wasm.Memory) []byte {
	if !i.IsMaxEncoded {
		return append(leb128.EncodeUint32(0x00), leb128.EncodeUint32(i.Min)...)
	}
	return append(leb128.EncodeUint32(0x01), append(leb128.EncodeUint32(i.Min), leb128.EncodeUint32(i.Max)...)...)
}

func encodeGlobal(g *wasm.Global) (data []byte) {
	var mutable byte
	if g.Type.Mutable {
		mutable = 1
	}
	data = []byte{g.Type.ValType, mutable}
	return append(data, encodeConstantExpression(g.Init)...)
}

func encodeConstantExpression(expr *wasm.ConstantExpression) (ret []byte) {
	ret = append(ret, expr.Opcode)
	ret = append(ret, expr.Data...)
	ret = append(ret, wasm.OpcodeEnd)
	return
}

func encodeDataSegment(d *wasm.DataSegment) (ret []byte) {
	ret = append(ret, leb128.EncodeUint32(0)...) // active segment of memory 0
	ret = append(ret, encodeConstantExpression(d.OffsetExpression)...)
	return append(ret, encodeSizePrefixed(d.Init)...)
}

// EncodeCode returns the wasm.Code encoded in WebAssembly 1.0 (20191205) Binary Format.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-code
func EncodeCode(c *wasm.Code) []byte {
	code := leb128.EncodeUint32(uint32(len(c.Locals)))
	for _, g := range c.Locals {
		code = append(code, leb128.EncodeUint32(g.Count)...)
		code = append(code, g.Type)
	}
	code = append(code, c.Body...)
	return encodeSizePrefixed(code)
}
