package wasm

import (
	"errors"
	"fmt"
)

// All the errors are returned during instantiation or the execution of the entry function, and they indicate that the
// state of the run is unrecoverable.
var (
	// ErrStackUnderflow indicates an instruction needed more operands than the stack held.
	ErrStackUnderflow = errors.New("stack underflow")
	// ErrKindMismatch indicates a Value of one kind was used where another was required.
	ErrKindMismatch = errors.New("value kind mismatch")
	// ErrOutOfBoundsMemoryAccess indicates that the program tried to access the
	// region beyond the linear memory.
	ErrOutOfBoundsMemoryAccess = errors.New("out of bounds memory access")
	// ErrOutOfBoundsDataSegment indicates an active data segment does not fit in the linear memory.
	ErrOutOfBoundsDataSegment = fmt.Errorf("data segment: %w", ErrOutOfBoundsMemoryAccess)
	// ErrNoMemory means an instruction or data segment needed the linear memory, but the module declares none.
	ErrNoMemory = errors.New("no memory")
	// ErrMultipleMemories means more than one memory was declared.
	ErrMultipleMemories = errors.New("more than one memory")
	// ErrMemoryGrowthUnsupported means a memory declared a maximum larger than its minimum.
	ErrMemoryGrowthUnsupported = errors.New("memory maximum larger than minimum is unsupported")
	// ErrImmutableGlobal means global.set targeted a global not declared mutable.
	ErrImmutableGlobal = errors.New("mutating non-mutable global")
	// ErrInvalidConstExpr means an initializer used an opcode other than i32.const.
	ErrInvalidConstExpr = errors.New("unsupported constant expression")
	// ErrNoStartFunction means there is no function export named "_start".
	ErrNoStartFunction = errors.New("no start function")
	// ErrUnknownImport means an import names a host function the runtime does not provide.
	ErrUnknownImport = errors.New("unknown import")
	// ErrImportSignatureMismatch means a host function is imported with a type of the wrong param or result count.
	ErrImportSignatureMismatch = errors.New("import signature mismatch")
	// ErrUnimplementedOpcode means the instruction stream contains an opcode this runtime cannot execute.
	ErrUnimplementedOpcode = errors.New("unimplemented opcode")
	// ErrInvalidIndex means a local, global or function index is out of range.
	ErrInvalidIndex = errors.New("index out of range")
	// ErrTooManyLocals means a function declares more than MaximumLocals locals.
	ErrTooManyLocals = errors.New("too many locals")
)
