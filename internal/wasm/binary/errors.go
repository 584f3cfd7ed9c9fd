package binary

import (
	"errors"

	"github.com/r00ster91/wasmos/internal/wasm"
)

var (
	// ErrUnexpectedEnd is returned when a read needs more bytes than remain in the binary.
	ErrUnexpectedEnd = errors.New("unexpected end")
	// ErrMismatch is returned when the next bytes differ from the ones a format requires.
	ErrMismatch = errors.New("mismatch")

	ErrInvalidMagicNumber = errors.New("invalid magic number")
	ErrInvalidVersion     = errors.New("invalid version header")
	ErrInvalidByte        = errors.New("invalid byte")
	ErrInvalidName        = errors.New("name must be valid as utf8")

	ErrInvalidSectionID     = errors.New("invalid section id")
	ErrInvalidSectionLength = errors.New("invalid section length")
	// ErrUnsupportedSection is returned for the table, element and data count sections.
	ErrUnsupportedSection = errors.New("unsupported section")

	ErrInvalidImportKind      = errors.New("invalid import kind")
	ErrInvalidExportKind      = errors.New("invalid export kind")
	ErrUnsupportedDataSegment = errors.New("only active data segments of memory 0 are supported")
	ErrInconsistentCodeLength = errors.New("function and code section have inconsistent lengths")

	ErrMultipleMemories = wasm.ErrMultipleMemories
	ErrInvalidConstExpr = wasm.ErrInvalidConstExpr
	ErrTooManyLocals    = wasm.ErrTooManyLocals
)
