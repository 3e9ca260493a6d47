//go:build fuzz
// +build fuzz

package compressor

import (
	"bytes"
	"testing"

	"github.com/Willmo3/will-zip/pkg/bytestream"
	"github.com/Willmo3/will-zip/pkg/freqtable"
)

// FuzzCodec_RoundTrip tests compress/decompress round-trips with random
// inputs under both wire forms.
func FuzzCodec_RoundTrip(f *testing.F) {
	// Add seed corpus
	f.Add([]byte(""))
	f.Add([]byte("a"))
	f.Add([]byte("aaa"))
	f.Add([]byte("the quick brown fox jumps over the lazy dog"))
	f.Add([]byte{0x00, 0xff, 0x00, 0xff, 0x80})

	codecs := []*Codec{
		NewCodec(CodecConfig{}),
		NewCodec(CodecConfig{CompactTable: true}),
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		// Skip extremely large inputs to avoid timeout
		if len(data) > 100000 {
			t.Skip("Input too large for fuzz test")
		}

		for _, codec := range codecs {
			artifact := codec.Compress(data)

			restored, err := codec.Decompress(artifact)
			if err != nil {
				t.Fatalf("Decompress failed for %d input bytes: %v", len(data), err)
			}
			if !bytes.Equal(restored, data) {
				t.Errorf("Round trip mismatch: got %d bytes, want %d", len(restored), len(data))
			}
		}
	})
}

// FuzzDecompress_MalformedData tests that arbitrary bytes never panic the
// decoder or produce output alongside an error.
func FuzzDecompress_MalformedData(f *testing.F) {
	// Add seed corpus of malformed and near-valid data
	f.Add([]byte{})
	f.Add([]byte{0x01})
	f.Add(make([]byte, 16))
	f.Add(Compress([]byte("seed artifact")))
	f.Add(bytes.Repeat([]byte{0xff}, 24))
	f.Add(append(freqtable.Table{{Value: 'a', Count: 1}, {Value: 'b', Count: 1}}.ToStream(),
		bytestream.AppendLong(nil, ^uint64(0))...))
	f.Add(append(append(freqtable.Table{{Value: 'A', Count: 1 << 63}}.ToStream(),
		bytestream.AppendLong(nil, 1)...), 0x01))

	f.Fuzz(func(t *testing.T, data []byte) {
		// Skip extremely large inputs
		if len(data) > 100000 {
			t.Skip("Input too large for fuzz test")
		}

		restored, err := Decompress(data)
		if err != nil && restored != nil {
			t.Errorf("Decompress returned %d bytes alongside error %v", len(restored), err)
		}
	})
}

// FuzzDecompress_TruncationDetection tests that cutting a valid artifact at
// any point never yields wrong bytes silently.
func FuzzDecompress_TruncationDetection(f *testing.F) {
	// Add seed corpus
	f.Add([]byte("truncate me"), uint(4))
	f.Add([]byte("aaa"), uint(0))
	f.Add([]byte{0x00, 0x01, 0x02, 0x03}, uint(20))

	f.Fuzz(func(t *testing.T, data []byte, cut uint) {
		if len(data) > 10000 {
			t.Skip("Input too large for fuzz test")
		}

		artifact := Compress(data)
		if int(cut) >= len(artifact) {
			t.Skip("Cut position beyond artifact length")
		}

		restored, err := Decompress(artifact[:cut])
		if err == nil && !bytes.Equal(restored, data) {
			t.Errorf("Truncation at %d of %d decoded silently to wrong bytes", cut, len(artifact))
		}
	})
}
