// Package packedint packs and unpacks slices of little-endian unsigned
// integers of arbitrary bit width (1..32) into contiguous byte buffers, the
// representation BGEN layout 2 uses for per-sample probability values.
//
// Bits are laid out little-endian within each byte: the first packed value
// occupies the low bits of the first byte, and values may straddle byte
// boundaries. Widths 8, 16, and 32 take a byte-aligned fast path.
package packedint

import (
	"encoding/binary"
	"fmt"
)

// Error is returned when a bit width is out of range or a value does not
// fit in the requested width.
type Error struct {
	msg string
}

func (e *Error) Error() string { return "packedint: " + e.msg }

func errorf(format string, args ...interface{}) error {
	return &Error{msg: fmt.Sprintf(format, args...)}
}

// ByteLen returns the number of bytes required to pack count values of the
// given bit width.
func ByteLen(count, width int) int {
	return (count*width + 7) / 8
}

// Pack encodes values using width bits each, little-endian within each
// byte. It returns an error if width is outside [1, 32] or any value does
// not fit in width bits.
func Pack(values []uint32, width int) ([]byte, error) {
	if width < 1 || width > 32 {
		return nil, errorf("bit width %d out of range [1,32]", width)
	}
	max := uint64(1)<<uint(width) - 1
	for i, v := range values {
		if uint64(v) > max {
			return nil, errorf("value %d at index %d exceeds %d-bit range", v, i, width)
		}
	}

	switch width {
	case 8:
		out := make([]byte, len(values))
		for i, v := range values {
			out[i] = byte(v)
		}
		return out, nil
	case 16:
		out := make([]byte, len(values)*2)
		for i, v := range values {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
		}
		return out, nil
	case 32:
		out := make([]byte, len(values)*4)
		for i, v := range values {
			binary.LittleEndian.PutUint32(out[i*4:], v)
		}
		return out, nil
	}

	out := make([]byte, ByteLen(len(values), width))
	var acc uint64
	var accBits uint
	outPos := 0
	for _, v := range values {
		acc |= uint64(v) << accBits
		accBits += uint(width)
		for accBits >= 8 {
			out[outPos] = byte(acc)
			outPos++
			acc >>= 8
			accBits -= 8
		}
	}
	if accBits > 0 {
		out[outPos] = byte(acc)
	}
	return out, nil
}

// Unpack decodes count values of the given bit width from src,
// little-endian within each byte. src must hold at least ByteLen(count,
// width) bytes.
func Unpack(src []byte, width int, count int) ([]uint32, error) {
	if width < 1 || width > 32 {
		return nil, errorf("bit width %d out of range [1,32]", width)
	}
	need := ByteLen(count, width)
	if len(src) < need {
		return nil, errorf("need %d bytes for %d values at width %d, got %d", need, count, width, len(src))
	}

	values := make([]uint32, count)
	switch width {
	case 8:
		for i := range values {
			values[i] = uint32(src[i])
		}
		return values, nil
	case 16:
		for i := range values {
			values[i] = uint32(binary.LittleEndian.Uint16(src[i*2:]))
		}
		return values, nil
	case 32:
		for i := range values {
			values[i] = binary.LittleEndian.Uint32(src[i*4:])
		}
		return values, nil
	}

	mask := uint64(1)<<uint(width) - 1
	var acc uint64
	var accBits uint
	srcPos := 0
	for i := range values {
		for accBits < uint(width) {
			acc |= uint64(src[srcPos]) << accBits
			srcPos++
			accBits += 8
		}
		values[i] = uint32(acc & mask)
		acc >>= uint(width)
		accBits -= uint(width)
	}
	return values, nil
}
