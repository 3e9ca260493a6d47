// Package wzfile defines the compressed artifact container.
//
// An artifact is the concatenation of a frequency table, an 8-byte content
// bit length and the packed payload bits, with no type tags in between. The
// fixed format is:
//
//	[FrequencyTable][BitLength(8)][Payload(ceil(BitLength/8))]
//
// The compact format trims the table's count width and announces itself with
// a leading tag:
//
//	[CompactTag(8)][CompactTable][BitLength(8)][Payload]
//
// The tag is eight 0xff bytes. A fixed-format artifact starts with its table
// entry count, which never exceeds 256, so the two formats cannot be
// confused and readers detect the format from the first eight bytes alone.
package wzfile

import (
	"errors"
	"fmt"

	"github.com/Willmo3/will-zip/pkg/bitseq"
	"github.com/Willmo3/will-zip/pkg/bytestream"
	"github.com/Willmo3/will-zip/pkg/freqtable"
)

// CompactTag marks an artifact whose frequency table uses the compact form.
// The value is impossible as a leading entry count.
const CompactTag = ^uint64(0)

// ErrTruncatedInput reports an artifact that ends before its declared
// contents: a missing bit length, or a payload shorter than the bit length
// demands.
var ErrTruncatedInput = &bytestream.WireError{Message: "truncated artifact"}

// Artifact pairs a frequency table with the payload bits it decodes.
type Artifact struct {
	Table freqtable.Table
	Bits  *bitseq.Sequence
}

// New assembles an artifact from its parts.
func New(table freqtable.Table, bits *bitseq.Sequence) *Artifact {
	return &Artifact{Table: table, Bits: bits}
}

// ToStream serializes the artifact in the fixed format.
func (a *Artifact) ToStream() []byte {
	out := a.Table.ToStream()
	return append(out, a.Bits.ToStream()...)
}

// ToStreamCompact serializes the artifact in the tagged compact format.
func (a *Artifact) ToStreamCompact() []byte {
	out := bytestream.AppendLong(nil, CompactTag)
	out = append(out, a.Table.ToStreamCompact()...)
	return append(out, a.Bits.ToStream()...)
}

// FromStream parses an artifact from the front of b, detecting the format
// from the leading eight bytes, and returns the artifact along with the
// number of bytes consumed. Table failures, including a table that reads
// past the buffer, surface as freqtable.ErrCorruptTable; a buffer that ends
// inside the bit length or payload surfaces as ErrTruncatedInput.
func FromStream(b []byte) (*Artifact, int, error) {
	table, offset, err := parseTable(b)
	if err != nil {
		return nil, 0, err
	}

	bits, n, err := bitseq.FromStream(b[offset:])
	if err != nil {
		if errors.Is(err, bytestream.ErrShortBuffer) {
			err = fmt.Errorf("%w: payload reads past buffer", ErrTruncatedInput)
		}
		return nil, 0, err
	}

	return &Artifact{Table: table, Bits: bits}, offset + n, nil
}

// parseTable dispatches on the leading long: the compact tag selects the
// compact table form, anything else is a fixed-form entry count.
func parseTable(b []byte) (freqtable.Table, int, error) {
	if head, err := bytestream.Long(b); err == nil && head == CompactTag {
		table, n, err := freqtable.FromStreamCompact(b[bytestream.LongLen:])
		return table, bytestream.LongLen + n, err
	}
	return freqtable.FromStream(b)
}
