// Package bytestream defines the byte-level serialization protocol shared by
// every wire entity in will-zip.
//
// The format is schema-fixed rather than self-describing: composites are the
// concatenation of their fields' encodings in a fixed order, with no per-field
// type tags. The universal length and count prefix is a fixed-width 8-byte
// little-endian unsigned integer (LongLen).
package bytestream

import (
	"encoding/binary"

	"github.com/chronos-tachyon/assert"
)

// LongLen is the width in bytes of every length and count prefix in the wire
// format.
const LongLen = 8

// Streamer is implemented by entities that can serialize themselves to a byte
// stream. The reverse direction is a per-package FromStream function returning
// the entity together with the number of bytes consumed, so that composite
// formats can be parsed field by field.
type Streamer interface {
	ToStream() []byte
}

// WireError describes a malformed or unreadable wire encoding.
type WireError struct {
	Message string
}

func (e *WireError) Error() string { return e.Message }

// ErrShortBuffer reports a read that would run past the end of the input.
var ErrShortBuffer = &WireError{"buffer too short"}

// AppendLong appends v to dst as a fixed-width little-endian long.
func AppendLong(dst []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(dst, v)
}

// Long reads a fixed-width long from the front of b.
func Long(b []byte) (uint64, error) {
	if len(b) < LongLen {
		return 0, ErrShortBuffer
	}
	return binary.LittleEndian.Uint64(b), nil
}

// MinByteSize returns the minimum number of bytes needed to represent v.
// Zero still occupies one byte.
func MinByteSize(v uint64) int {
	size := 1
	for v >>= 8; v != 0; v >>= 8 {
		size++
	}
	return size
}

// AppendTrimmed appends the low width bytes of v to dst, little-endian.
// The compact frequency-table form uses this to avoid encoding counts as
// full longs when every count in the table is small.
func AppendTrimmed(dst []byte, v uint64, width int) []byte {
	assert.Assertf(width >= 1 && width <= LongLen, "trimmed width %d out of range", width)
	assert.Assertf(MinByteSize(v) <= width, "value %d does not fit in %d bytes", v, width)
	for i := 0; i < width; i++ {
		dst = append(dst, byte(v))
		v >>= 8
	}
	return dst
}

// Trimmed reads a width-byte little-endian unsigned value from the front of b.
func Trimmed(b []byte, width int) (uint64, error) {
	assert.Assertf(width >= 1 && width <= LongLen, "trimmed width %d out of range", width)
	if len(b) < width {
		return 0, ErrShortBuffer
	}
	var v uint64
	for i := width - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v, nil
}
