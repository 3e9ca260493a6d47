// Package compressor implements lossless Huffman compression of byte
// streams.
//
// Compress scans its input twice: once to build a byte frequency table and
// once to emit each byte's code into the output bit sequence. The artifact
// it returns carries the table and the bits; no tree structure is stored,
// because both sides rebuild the identical tree from the table. Decompress
// parses the artifact, rebuilds the tree and walks it bit by bit.
//
// Compression is total: every byte slice, including the empty one, has an
// artifact. All failure happens on the decompression side, where artifacts
// arrive from disk or the network and cannot be trusted.
package compressor

import (
	"fmt"

	"github.com/Willmo3/will-zip/pkg/bitseq"
	"github.com/Willmo3/will-zip/pkg/bytestream"
	"github.com/Willmo3/will-zip/pkg/freqtable"
	"github.com/Willmo3/will-zip/pkg/hufftree"
	"github.com/Willmo3/will-zip/pkg/wzfile"
)

// Errors surfaced by Decompress. The sentinels live with the packages that
// detect them; they are re-exported here so callers depend on this package
// alone.
var (
	// ErrCorruptTable reports an artifact whose frequency table is invalid
	// or disagrees with the payload it is supposed to decode.
	ErrCorruptTable = freqtable.ErrCorruptTable

	// ErrTruncatedInput reports an artifact that ends before the contents
	// its headers declare.
	ErrTruncatedInput = wzfile.ErrTruncatedInput

	// ErrUnsupportedSize is reserved for inputs whose byte occurrences
	// cannot be counted in 64 bits. No input that fits in memory can reach
	// it.
	ErrUnsupportedSize = &bytestream.WireError{Message: "unsupported input size"}
)

// CodecConfig configures a Codec.
type CodecConfig struct {
	// CompactTable selects the compact frequency-table wire form for
	// artifacts the codec produces. Decompression detects either form by
	// itself, so readers need no matching setting.
	CompactTable bool
}

// Codec compresses byte streams into artifacts and back. Codecs hold no
// per-call state and are safe for concurrent use.
type Codec struct {
	config CodecConfig
}

// NewCodec creates a codec with the given configuration.
func NewCodec(config CodecConfig) *Codec {
	return &Codec{config: config}
}

// Compress encodes data into a compressed artifact.
func (c *Codec) Compress(data []byte) []byte {
	table := freqtable.Build(data)
	codes := hufftree.Codes(hufftree.Build(table))

	bits := bitseq.New()
	for _, b := range data {
		bits.AppendSeq(codes[b])
	}

	artifact := wzfile.New(table, bits)
	if c.config.CompactTable {
		return artifact.ToStreamCompact()
	}
	return artifact.ToStream()
}

// Decompress decodes a compressed artifact back into the original bytes.
// It fails with ErrCorruptTable or ErrTruncatedInput when the artifact does
// not survive validation; it never returns partial output.
func (c *Codec) Decompress(artifact []byte) ([]byte, error) {
	a, _, err := wzfile.FromStream(artifact)
	if err != nil {
		return nil, err
	}
	return decode(a)
}

// decode walks the coding tree across the artifact's bits, emitting one
// byte per completed root-to-leaf descent.
func decode(a *wzfile.Artifact) ([]byte, error) {
	root := hufftree.Build(a.Table)
	bits := a.Bits

	if root == nil {
		if bits.Len() != 0 {
			return nil, fmt.Errorf("%w: empty table with %d payload bits", ErrCorruptTable, bits.Len())
		}
		return []byte{}, nil
	}

	// Each decoded byte consumes at least one payload bit, so counts that
	// sum past the bit length can never be satisfied.
	var total uint64
	for _, e := range a.Table {
		total += e.Count
		if total < e.Count || total > bits.Len() {
			return nil, fmt.Errorf("%w: counts sum past %d payload bits", ErrCorruptTable, bits.Len())
		}
	}
	out := make([]byte, 0, total)

	if root.Leaf() {
		// A single-symbol tree has no descents; each payload bit stands
		// for the one value.
		for i := uint64(0); i < bits.Len(); i++ {
			out = append(out, root.Value)
		}
	} else {
		cur := root
		for i := uint64(0); i < bits.Len(); i++ {
			cur = cur.Step(bits.Bit(i))
			if cur.Leaf() {
				out = append(out, cur.Value)
				cur = root
			}
		}
		if cur != root {
			return nil, fmt.Errorf("%w: payload ends inside a code", ErrTruncatedInput)
		}
	}

	if uint64(len(out)) != total {
		return nil, fmt.Errorf("%w: payload decodes %d bytes but counts sum to %d", ErrCorruptTable, len(out), total)
	}
	return out, nil
}

// Compress encodes data with the default codec.
func Compress(data []byte) []byte {
	return NewCodec(CodecConfig{}).Compress(data)
}

// Decompress decodes artifact with the default codec.
func Decompress(artifact []byte) ([]byte, error) {
	return NewCodec(CodecConfig{}).Decompress(artifact)
}
