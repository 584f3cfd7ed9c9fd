// Package leb128 decodes and encodes the variable-length integers used throughout the WebAssembly binary format.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#integers%E2%91%A4
package leb128

import (
	"errors"
	"io"
)

const (
	maxVarintLen32 = 5
	maxVarintLen64 = 10
)

var (
	ErrOverflow32 = errors.New("overflows a 32-bit integer")
	ErrOverflow64 = errors.New("overflows a 64-bit integer")
)

// EncodeInt32 encodes the signed value into a buffer in LEB128 format
//
// See https://en.wikipedia.org/wiki/LEB128#Encode_signed_integer
func EncodeInt32(value int32) []byte {
	return EncodeInt64(int64(value))
}

// EncodeInt64 encodes the signed value into a buffer in LEB128 format
//
// See https://en.wikipedia.org/wiki/LEB128#Encode_signed_integer
func EncodeInt64(value int64) (buf []byte) {
	for {
		// Take 7 remaining low-order bits from the value into b.
		b := uint8(value & 0x7f)
		// Extract the sign bit.
		s := uint8(value & 0x40)
		value >>= 7

		// Signed values are done once the remaining bits are all copies of the last sign bit.
		if (value != -1 || s == 0) && (value != 0 || s != 0) {
			b |= 0x80
		}

		buf = append(buf, b)
		if b&0x80 == 0 {
			return buf
		}
	}
}

// EncodeUint32 encodes the value into a buffer in LEB128 format
//
// See https://en.wikipedia.org/wiki/LEB128#Encode_unsigned_integer
func EncodeUint32(value uint32) []byte {
	return EncodeUint64(uint64(value))
}

// EncodeUint64 encodes the value into a buffer in LEB128 format
//
// See https://en.wikipedia.org/wiki/LEB128#Encode_unsigned_integer
func EncodeUint64(value uint64) (buf []byte) {
	for {
		b := uint8(value & 0x7f)
		value >>= 7

		// If there are remaining bits, the value won't be zero: Set the high-
		// order bit to tell the reader there are more bytes in this uint.
		if value != 0 {
			b |= 0x80
		}

		buf = append(buf, b)
		if b&0x80 == 0 {
			return buf
		}
	}
}

// LoadUint32 decodes an unsigned 32-bit value from the start of buf. bytesRead is the length of the encoding.
//
// io.ErrUnexpectedEOF is returned when buf ends before the last byte of the value.
func LoadUint32(buf []byte) (ret uint32, bytesRead uint64, err error) {
	var shift uint
	for i := 0; i < maxVarintLen32; i++ {
		if i >= len(buf) {
			return 0, 0, io.ErrUnexpectedEOF
		}
		b := buf[i]
		if b < 0x80 {
			// Only the low 4 bits of the fifth byte fit in 32 bits.
			if i == maxVarintLen32-1 && b&0xf0 != 0 {
				return 0, 0, ErrOverflow32
			}
			return ret | uint32(b)<<shift, uint64(i) + 1, nil
		}
		ret |= uint32(b&0x7f) << shift
		shift += 7
	}
	return 0, 0, ErrOverflow32
}

// LoadUint64 decodes an unsigned 64-bit value from the start of buf.
func LoadUint64(buf []byte) (ret uint64, bytesRead uint64, err error) {
	var shift uint
	for i := 0; i < maxVarintLen64; i++ {
		if i >= len(buf) {
			return 0, 0, io.ErrUnexpectedEOF
		}
		b := buf[i]
		if b < 0x80 {
			if i == maxVarintLen64-1 && b > 1 {
				return 0, 0, ErrOverflow64
			}
			return ret | uint64(b)<<shift, uint64(i) + 1, nil
		}
		ret |= uint64(b&0x7f) << shift
		shift += 7
	}
	return 0, 0, ErrOverflow64
}

// LoadInt32 decodes a signed 32-bit value from the start of buf.
func LoadInt32(buf []byte) (ret int32, bytesRead uint64, err error) {
	var shift uint
	var b byte
	for {
		if bytesRead == maxVarintLen32 {
			return 0, 0, ErrOverflow32
		} else if bytesRead >= uint64(len(buf)) {
			return 0, 0, io.ErrUnexpectedEOF
		}
		b = buf[bytesRead]
		bytesRead++
		ret |= int32(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}

	if bytesRead == maxVarintLen32 {
		// Bits above 31 in the fifth byte must repeat the sign bit.
		if unused := b & 0x78; unused != 0 && unused != 0x78 {
			return 0, 0, ErrOverflow32
		}
	} else if b&0x40 != 0 {
		ret |= -1 << shift
	}
	return ret, bytesRead, nil
}

// LoadInt64 decodes a signed 64-bit value from the start of buf.
func LoadInt64(buf []byte) (ret int64, bytesRead uint64, err error) {
	var shift uint
	var b byte
	for {
		if bytesRead == maxVarintLen64 {
			return 0, 0, ErrOverflow64
		} else if bytesRead >= uint64(len(buf)) {
			return 0, 0, io.ErrUnexpectedEOF
		}
		b = buf[bytesRead]
		bytesRead++
		ret |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}

	if bytesRead == maxVarintLen64 {
		// Only the low bit of the tenth byte is significant, the rest must repeat it.
		if unused := b & 0x7f; unused != 0 && unused != 0x7f {
			return 0, 0, ErrOverflow64
		}
	} else if b&0x40 != 0 {
		ret |= -1 << shift
	}
	return ret, bytesRead, nil
}
