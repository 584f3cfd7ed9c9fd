package wasm

import (
	"fmt"

	"github.com/r00ster91/wasmos/internal/leb128"
)

// StartFunctionName is the export name of the function a run begins at.
const StartFunctionName = "_start"

// Index is the offset in an index namespace, not necessarily an absolute position in a Module section. This is because
// index namespaces are often preceded by a corresponding type in the Module.ImportSection.
//
// For example, the function index namespace starts with any ExternTypeFunc in the Module.ImportSection followed by
// the Module.FunctionSection
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-index
type Index = uint32

// Module is a WebAssembly binary representation, limited to what a single sequential program needs.
//
// Note: Sections are kept in the order they are encountered in the binary. Custom sections are skipped, and the start
// section is read but not retained: the entry point is always found by the export StartFunctionName.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#modules%E2%91%A8
type Module struct {
	// TypeSection contains the unique FunctionType of functions imported or defined in this module.
	TypeSection []*FunctionType

	// ImportSection contains imported functions. Only ExternTypeFunc imports are supported.
	ImportSection []*Import

	// FunctionSection contains the index in TypeSection of each function defined in this module.
	//
	// Note: The function Index namespace begins with imported functions and ends with those defined in this module.
	FunctionSection []Index

	// MemorySection contains each memory defined in this module. At most one is supported.
	MemorySection []*Memory

	GlobalSection []*Global

	// ExportSection is in the order exports were declared.
	ExportSection []*Export

	// CodeSection is index-correlated with FunctionSection and contains each function's locals and body.
	CodeSection []*Code

	DataSection []*DataSegment
}

// FunctionType is a possibly empty function signature.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#function-types%E2%91%A0
type FunctionType struct {
	Params  []ValueType
	Results []ValueType
}

// String implements fmt.Stringer
func (t *FunctionType) String() string {
	ret := ""
	for _, p := range t.Params {
		ret += ValueTypeName(p)
	}
	if len(t.Params) == 0 {
		ret += "null"
	}
	ret += "_"
	for _, r := range t.Results {
		ret += ValueTypeName(r)
	}
	if len(t.Results) == 0 {
		ret += "null"
	}
	return ret
}

// ExternType classifies imports and exports with their respective types.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#external-types%E2%91%A0
type ExternType = byte

const (
	ExternTypeFunc   ExternType = 0x00
	ExternTypeTable  ExternType = 0x01
	ExternTypeMemory ExternType = 0x02
	ExternTypeGlobal ExternType = 0x03
)

// ExternTypeName returns the name of the WebAssembly 1.0 (20191205) Text Format field of the given type.
func ExternTypeName(et ExternType) string {
	switch et {
	case ExternTypeFunc:
		return "func"
	case ExternTypeTable:
		return "table"
	case ExternTypeMemory:
		return "memory"
	case ExternTypeGlobal:
		return "global"
	}
	return fmt.Sprintf("%#x", et)
}

// Import is the binary representation of an import indicated by Type
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-import
type Import struct {
	Type ExternType
	// Module is the possibly empty primary namespace of this import
	Module string
	// Name is the possibly empty secondary namespace of this import
	Name string
	// DescFunc is the index in Module.TypeSection
	DescFunc Index
}

// Memory describes the limits of pages (64KB) in a memory.
type Memory struct {
	Min uint32
	Max uint32
	// IsMaxEncoded true if the Max is encoded in the original binary.
	IsMaxEncoded bool
}

type GlobalType struct {
	ValType ValueType
	Mutable bool
}

type Global struct {
	Type *GlobalType
	Init *ConstantExpression
}

// ConstantExpression is an initializer expression without its terminating OpcodeEnd.
type ConstantExpression struct {
	Opcode Opcode
	Data   []byte
}

// EvalI32 evaluates an i32.const expression. No other initializer is supported.
func (e *ConstantExpression) EvalI32() (int32, error) {
	if e.Opcode != OpcodeI32Const {
		return 0, fmt.Errorf("%w: %s", ErrInvalidConstExpr, InstructionName(e.Opcode))
	}
	v, _, err := leb128.LoadInt32(e.Data)
	if err != nil {
		return 0, fmt.Errorf("read i32: %w", err)
	}
	return v, nil
}

// Export is the binary representation of an export indicated by Type
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-export
type Export struct {
	Type ExternType
	// Name is what the host refers to this definition as.
	Name string
	// Index is the index of the definition to export, the index namespace is by Type
	// Ex. If ExternTypeFunc, this is a position in the function index namespace.
	Index Index
}

// LocalGroup is a run of Count locals of the same type, as declared in the binary.
type LocalGroup struct {
	Count uint32
	Type  ValueType
}

// MaximumLocals is the limit of locals a function can declare, summed across its LocalGroups. Each local is
// allocated when a run starts, so the declared count cannot be trusted up to math.MaxUint32.
const MaximumLocals = 50000

// Code is an entry in the Module.CodeSection containing the locals and body of the function.
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-code
type Code struct {
	// Locals are the local declaration groups, in declaration order.
	Locals []LocalGroup

	// Body is a sequence of expressions ending in OpcodeEnd
	// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-expr
	Body []byte
}

// NumLocals returns the count of locals after expanding every LocalGroup.
func (c *Code) NumLocals() uint64 {
	var n uint64
	for _, g := range c.Locals {
		n += uint64(g.Count)
	}
	return n
}

type DataSegment struct {
	OffsetExpression *ConstantExpression
	Init             []byte
}

// ImportFuncCount returns the count of imported functions, which precede module-defined ones in the function index
// namespace.
func (m *Module) ImportFuncCount() uint32 {
	var n uint32
	for _, im := range m.ImportSection {
		if im.Type == ExternTypeFunc {
			n++
		}
	}
	return n
}

// StartFunction returns the Module.CodeSection index of the function exported as StartFunctionName.
func (m *Module) StartFunction() (Index, error) {
	for _, exp := range m.ExportSection {
		if exp.Name != StartFunctionName || exp.Type != ExternTypeFunc {
			continue
		}
		importCount := m.ImportFuncCount()
		if exp.Index < importCount {
			return 0, fmt.Errorf("%w: %s is an imported function", ErrNoStartFunction, StartFunctionName)
		}
		codeIndex := exp.Index - importCount
		if codeIndex >= uint32(len(m.CodeSection)) {
			return 0, fmt.Errorf("%w: function[%d] of %s", ErrInvalidIndex, exp.Index, StartFunctionName)
		}
		return codeIndex, nil
	}
	return 0, ErrNoStartFunction
}
