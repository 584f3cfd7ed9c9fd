package wasm

import (
	"encoding/binary"
	"fmt"
)

const (
	// MemoryPageSize is the unit of memory length in WebAssembly,
	// and is defined as 2^16 = 65536.
	// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#memory-instances%E2%91%A0
	MemoryPageSize = uint32(65536)
	// MemoryMaxPages is maximum number of pages defined (2^16).
	// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#grow-mem
	MemoryMaxPages = uint32(65536)
)

// MemoryInstance is the single linear memory of a ModuleInstance. It never grows.
//
// All reads and writes are little-endian and return false instead of touching bytes past the end of Buffer.
type MemoryInstance struct {
	Buffer []byte
	Min    uint32
}

// NewMemoryInstance allocates Min pages of zeroed memory.
//
// A maximum larger than the minimum is rejected with ErrMemoryGrowthUnsupported, rather than silently capped.
func NewMemoryInstance(m *Memory) (*MemoryInstance, error) {
	if m.Min > MemoryMaxPages {
		return nil, fmt.Errorf("min %d pages over limit of %d pages", m.Min, MemoryMaxPages)
	}
	if m.IsMaxEncoded && m.Max > m.Min {
		return nil, fmt.Errorf("%w: min=%d max=%d", ErrMemoryGrowthUnsupported, m.Min, m.Max)
	}
	return &MemoryInstance{
		Buffer: make([]byte, uint64(MemoryPageSize)*uint64(m.Min)),
		Min:    m.Min,
	}, nil
}

// Size returns the size in bytes available.
func (m *MemoryInstance) Size() uint32 {
	return uint32(len(m.Buffer))
}

// hasSize returns true if Len is sufficient for byteCount at the given offset.
func (m *MemoryInstance) hasSize(offset uint32, byteCount uint64) bool {
	return uint64(offset)+byteCount <= uint64(len(m.Buffer)) // uint64 prevents overflow on add
}

// ReadUint32Le reads a uint32 in little-endian encoding from the underlying buffer at the offset in or returns false
// if out of range.
func (m *MemoryInstance) ReadUint32Le(offset uint32) (uint32, bool) {
	if !m.hasSize(offset, 4) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(m.Buffer[offset : offset+4]), true
}

// ReadUint64Le reads a uint64 in little-endian encoding from the underlying buffer at the offset or returns false if
// out of range.
func (m *MemoryInstance) ReadUint64Le(offset uint32) (uint64, bool) {
	if !m.hasSize(offset, 8) {
		return 0, false
	}
	return binary.LittleEndian.Uint64(m.Buffer[offset : offset+8]), true
}

// Read returns a view of byteCount bytes at the given offset or returns false if out of range.
//
// Note: The returned slice aliases the memory, so callers that retain it must copy.
func (m *MemoryInstance) Read(offset, byteCount uint32) ([]byte, bool) {
	if !m.hasSize(offset, uint64(byteCount)) {
		return nil, false
	}
	return m.Buffer[offset : offset+byteCount : offset+byteCount], true
}

// WriteByte writes a single byte to the underlying buffer at the offset in or returns false if out of range.
func (m *MemoryInstance) WriteByte(offset uint32, v byte) bool {
	if !m.hasSize(offset, 1) {
		return false
	}
	m.Buffer[offset] = v
	return true
}

// WriteUint16Le writes the value in little-endian encoding to the underlying buffer at the offset in or returns false
// if out of range.
func (m *MemoryInstance) WriteUint16Le(offset uint32, v uint16) bool {
	if !m.hasSize(offset, 2) {
		return false
	}
	binary.LittleEndian.PutUint16(m.Buffer[offset:], v)
	return true
}

// WriteUint32Le writes the value in little-endian encoding to the underlying buffer at the offset in or returns false
// if out of range.
func (m *MemoryInstance) WriteUint32Le(offset, v uint32) bool {
	if !m.hasSize(offset, 4) {
		return false
	}
	binary.LittleEndian.PutUint32(m.Buffer[offset:], v)
	return true
}

// WriteUint64Le writes the value in little-endian encoding to the underlying buffer at the offset in or returns false
// if out of range.
func (m *MemoryInstance) WriteUint64Le(offset uint32, v uint64) bool {
	if !m.hasSize(offset, 8) {
		return false
	}
	binary.LittleEndian.PutUint64(m.Buffer[offset:], v)
	return true
}

// Write writes the slice to the underlying buffer at the offset or returns false if out of range.
func (m *MemoryInstance) Write(offset uint32, val []byte) bool {
	if !m.hasSize(offset, uint64(len(val))) {
		return false
	}
	copy(m.Buffer[offset:], val)
	return true
}
