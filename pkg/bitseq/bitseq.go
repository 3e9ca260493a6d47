// Package bitseq implements an ordered sequence of individual bits with an
// explicit length, independent of byte alignment.
//
// Bit k of a sequence is stored in byte k/8 at mask 1<<(k%8), so within each
// byte the first-appended bit occupies the least significant position. The
// final byte is zero-padded; the padding carries no information and can only
// be distinguished from data by the sequence's bit length, which the wire
// format stores separately.
package bitseq

import (
	"strings"

	"github.com/chronos-tachyon/assert"

	"github.com/Willmo3/will-zip/pkg/bytestream"
)

// Sequence is an appendable, randomly readable string of bits.
// The zero value is an empty sequence ready to use.
type Sequence struct {
	numBits uint64
	bytes   []byte
}

// New returns a new, empty Sequence.
func New() *Sequence {
	return &Sequence{}
}

// FromBits builds a Sequence from individual bit values, each 0 or 1.
func FromBits(bits ...byte) *Sequence {
	s := New()
	s.AppendBits(bits...)
	return s
}

// FromPacked reconstructs a Sequence from a packed byte buffer and the exact
// number of meaningful bits it holds. The buffer must be at least
// PackedLen(numBits) bytes; callers validate that before handing bytes over.
func FromPacked(numBits uint64, packed []byte) *Sequence {
	assert.Assertf(uint64(len(packed)) >= PackedLen(numBits), "packed buffer %d bytes cannot hold %d bits", len(packed), numBits)
	buf := make([]byte, PackedLen(numBits))
	copy(buf, packed)
	return &Sequence{numBits: numBits, bytes: buf}
}

// PackedLen returns the number of bytes needed to pack numBits bits.
// Dividing before rounding keeps bit lengths near the top of the uint64
// range from wrapping; wire-declared lengths land here unchecked.
func PackedLen(numBits uint64) uint64 {
	n := numBits / 8
	if numBits%8 != 0 {
		n++
	}
	return n
}

// AppendBit appends a single bit, which must be 0 or 1.
func (s *Sequence) AppendBit(bit byte) {
	assert.Assertf(bit == 0 || bit == 1, "bit value %d", bit)

	if s.numBits/8 >= uint64(len(s.bytes)) {
		s.bytes = append(s.bytes, 0)
	}
	if bit != 0 {
		s.bytes[s.numBits/8] |= 1 << (s.numBits % 8)
	}
	s.numBits++
}

// AppendBits appends each bit in order.
func (s *Sequence) AppendBits(bits ...byte) {
	for _, bit := range bits {
		s.AppendBit(bit)
	}
}

// AppendSeq appends every bit of other to s.
func (s *Sequence) AppendSeq(other *Sequence) {
	for i := uint64(0); i < other.numBits; i++ {
		s.AppendBit(other.Bit(i))
	}
}

// Clone returns an independent copy of the sequence.
func (s *Sequence) Clone() *Sequence {
	return &Sequence{numBits: s.numBits, bytes: s.Packed()}
}

// Bit returns the bit at index i. The index must be below Len.
func (s *Sequence) Bit(i uint64) byte {
	assert.Assertf(i < s.numBits, "bit index %d out of range [0,%d)", i, s.numBits)
	return (s.bytes[i/8] >> (i % 8)) & 1
}

// Len returns the number of bits in the sequence.
func (s *Sequence) Len() uint64 {
	return s.numBits
}

// Packed returns a copy of the zero-padded byte buffer backing the sequence.
func (s *Sequence) Packed() []byte {
	buf := make([]byte, len(s.bytes))
	copy(buf, s.bytes)
	return buf
}

// Equal reports whether two sequences hold the same bits in the same order.
func (s *Sequence) Equal(other *Sequence) bool {
	if s.numBits != other.numBits {
		return false
	}
	for i := uint64(0); i < s.numBits; i++ {
		if s.Bit(i) != other.Bit(i) {
			return false
		}
	}
	return true
}

// String renders the sequence as a string of '0' and '1' runes, first bit
// first. Handy in tests and debug output.
func (s *Sequence) String() string {
	var b strings.Builder
	b.Grow(int(s.numBits))
	for i := uint64(0); i < s.numBits; i++ {
		b.WriteByte('0' + s.Bit(i))
	}
	return b.String()
}

// ToStream serializes the sequence as an 8-byte bit length followed by the
// packed payload.
func (s *Sequence) ToStream() []byte {
	out := bytestream.AppendLong(nil, s.numBits)
	return append(out, s.bytes...)
}

// FromStream parses a serialized sequence from the front of b, returning the
// sequence and the number of bytes consumed. The payload must be present in
// full; a buffer shorter than the declared bit length demands is reported as
// bytestream.ErrShortBuffer.
func FromStream(b []byte) (*Sequence, int, error) {
	numBits, err := bytestream.Long(b)
	if err != nil {
		return nil, 0, err
	}

	packedLen := PackedLen(numBits)
	rest := b[bytestream.LongLen:]
	if uint64(len(rest)) < packedLen {
		return nil, 0, bytestream.ErrShortBuffer
	}

	seq := FromPacked(numBits, rest[:packedLen])
	return seq, bytestream.LongLen + int(packedLen), nil
}
