package binary

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/r00ster91/wasmos/internal/leb128"
)

// reader is a cursor over an immutable binary. Only readVector, readBytes and readName allocate.
type reader struct {
	binary []byte
	pos    int
}

func newReader(binary []byte) *reader {
	return &reader{binary: binary}
}

// len returns the count of unread bytes.
func (r *reader) len() int {
	return len(r.binary) - r.pos
}

func (r *reader) readByte() (byte, error) {
	if r.pos >= len(r.binary) {
		return 0, ErrUnexpectedEnd
	}
	b := r.binary[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) readUint32() (uint32, error) {
	v, n, err := leb128.LoadUint32(r.binary[r.pos:])
	if err != nil {
		return 0, unexpectedEnd(err)
	}
	r.pos += int(n)
	return v, nil
}

func (r *reader) readUint64() (uint64, error) {
	v, n, err := leb128.LoadUint64(r.binary[r.pos:])
	if err != nil {
		return 0, unexpectedEnd(err)
	}
	r.pos += int(n)
	return v, nil
}

func (r *reader) readInt32() (int32, error) {
	v, n, err := leb128.LoadInt32(r.binary[r.pos:])
	if err != nil {
		return 0, unexpectedEnd(err)
	}
	r.pos += int(n)
	return v, nil
}

func (r *reader) readInt64() (int64, error) {
	v, n, err := leb128.LoadInt64(r.binary[r.pos:])
	if err != nil {
		return 0, unexpectedEnd(err)
	}
	r.pos += int(n)
	return v, nil
}

// unexpectedEnd maps a short LEB128 encoding to ErrUnexpectedEnd, leaving overflow errors as they are.
func unexpectedEnd(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrUnexpectedEnd
	}
	return err
}

// readVector reads a LEB128 length followed by that many elements decoded by elem.
func readVector[T any](r *reader, elem func(*reader) (T, error)) ([]T, error) {
	n, err := r.readUint32()
	if err != nil {
		return nil, fmt.Errorf("get size of vector: %w", err)
	} else if n == 0 {
		return nil, nil
	}

	// Each element is at least one byte, so a count above the remaining length can only be truncated.
	capacity := int(n)
	if capacity > r.len() {
		capacity = r.len()
	}
	ret := make([]T, 0, capacity)
	for i := uint32(0); i < n; i++ {
		v, err := elem(r)
		if err != nil {
			return nil, fmt.Errorf("read %d-th element: %w", i, err)
		}
		ret = append(ret, v)
	}
	return ret, nil
}

// readBytes reads a length-prefixed run of bytes into a new slice.
func (r *reader) readBytes() ([]byte, error) {
	n, err := r.readUint32()
	if err != nil {
		return nil, fmt.Errorf("read size: %w", err)
	}
	if uint64(n) > uint64(r.len()) {
		return nil, ErrUnexpectedEnd
	}
	ret := make([]byte, n)
	copy(ret, r.binary[r.pos:])
	r.pos += int(n)
	return ret, nil
}

func (r *reader) readName() (string, error) {
	buf, err := r.readBytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(buf) {
		return "", ErrInvalidName
	}
	return string(buf), nil
}

// skipSlice consumes len(expected) bytes, failing with ErrMismatch if they differ from expected.
func (r *reader) skipSlice(expected []byte) error {
	if len(expected) > r.len() {
		return ErrUnexpectedEnd
	}
	actual := r.binary[r.pos : r.pos+len(expected)]
	if !bytes.Equal(actual, expected) {
		return fmt.Errorf("%w: %#x != %#x", ErrMismatch, actual, expected)
	}
	r.pos += len(expected)
	return nil
}

func (r *reader) skipByte(expected byte) error {
	b, err := r.readByte()
	if err != nil {
		return err
	}
	if b != expected {
		return fmt.Errorf("%w: %#x != %#x", ErrMismatch, b, expected)
	}
	return nil
}

// skip advances n bytes without decoding them.
func (r *reader) skip(n uint32) error {
	if uint64(n) > uint64(r.len()) {
		return ErrUnexpectedEnd
	}
	r.pos += int(n)
	return nil
}

// sub returns a reader over the next n bytes and advances past them.
func (r *reader) sub(n uint32) (*reader, error) {
	if uint64(n) > uint64(r.len()) {
		return nil, ErrUnexpectedEnd
	}
	ret := &reader{binary: r.binary[r.pos : r.pos+int(n)]}
	r.pos += int(n)
	return ret, nil
}
