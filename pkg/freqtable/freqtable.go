// Package freqtable builds and serializes byte frequency tables.
//
// A table records, for every distinct byte value in some source data, the
// number of times that value occurs. Entries are kept in ascending order of
// byte value, so two sources with the same byte counts always produce the
// same table regardless of byte order.
//
// Two wire forms exist. The fixed form stores every count as a full 8-byte
// long. The compact form prefixes the entries with a single width byte and
// stores every count in that many bytes, where the width is the smallest
// that fits the table's largest count.
package freqtable

import (
	"fmt"

	"github.com/Willmo3/will-zip/pkg/bytestream"
)

// MaxEntries is the largest number of entries a table can hold: one per
// distinct byte value.
const MaxEntries = 256

// EntryLen is the wire size of one fixed-form table entry: a value byte
// followed by an 8-byte count.
const EntryLen = 1 + bytestream.LongLen

// ErrCorruptTable reports a serialized table that cannot be valid: too many
// entries, values out of order or duplicated, a zero count, a count width
// outside [1,8], or declared contents that read past the buffer.
var ErrCorruptTable = &bytestream.WireError{Message: "corrupt frequency table"}

// Entry records how many times one byte value occurs.
type Entry struct {
	Value byte
	Count uint64
}

// Table is a byte frequency table ordered by ascending value. Byte values
// absent from the source do not appear, so every count is nonzero.
type Table []Entry

// Build counts the occurrences of each byte value in data.
func Build(data []byte) Table {
	var counts [MaxEntries]uint64
	for _, b := range data {
		counts[b]++
	}

	var t Table
	for v, c := range counts {
		if c > 0 {
			t = append(t, Entry{Value: byte(v), Count: c})
		}
	}
	return t
}

// Count returns the occurrences recorded for value, zero when absent.
func (t Table) Count(value byte) uint64 {
	for _, e := range t {
		if e.Value == value {
			return e.Count
		}
		if e.Value > value {
			break
		}
	}
	return 0
}

// Total returns the sum of all counts, which is the byte length of the
// source the table was built from.
func (t Table) Total() uint64 {
	var total uint64
	for _, e := range t {
		total += e.Count
	}
	return total
}

// CountWidth returns the smallest byte width that holds every count in the
// table. An empty table reports a width of one.
func (t Table) CountWidth() int {
	width := 1
	for _, e := range t {
		if w := bytestream.MinByteSize(e.Count); w > width {
			width = w
		}
	}
	return width
}

// ToStream serializes the table in its fixed form: an 8-byte entry count
// followed by one EntryLen-byte record per entry, ascending by value.
func (t Table) ToStream() []byte {
	out := bytestream.AppendLong(nil, uint64(len(t)))
	for _, e := range t {
		out = append(out, e.Value)
		out = bytestream.AppendLong(out, e.Count)
	}
	return out
}

// ToStreamCompact serializes the table in its compact form: a one-byte count
// width, an 8-byte entry count, then one (1+width)-byte record per entry.
func (t Table) ToStreamCompact() []byte {
	width := t.CountWidth()
	out := append([]byte{byte(width)}, bytestream.AppendLong(nil, uint64(len(t)))...)
	for _, e := range t {
		out = append(out, e.Value)
		out = bytestream.AppendTrimmed(out, e.Count, width)
	}
	return out
}

// FromStream parses a fixed-form table from the front of b, returning the
// table and the number of bytes consumed. Every failure, including a buffer
// too short for what the table declares, is reported as ErrCorruptTable.
func FromStream(b []byte) (Table, int, error) {
	count, err := bytestream.Long(b)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: entry count reads past buffer", ErrCorruptTable)
	}
	return parseEntries(b[bytestream.LongLen:], count, bytestream.LongLen, bytestream.LongLen)
}

// FromStreamCompact parses a compact-form table from the front of b,
// returning the table and the number of bytes consumed.
func FromStreamCompact(b []byte) (Table, int, error) {
	if len(b) < 1 {
		return nil, 0, fmt.Errorf("%w: count width reads past buffer", ErrCorruptTable)
	}
	width := int(b[0])
	if width < 1 || width > bytestream.LongLen {
		return nil, 0, fmt.Errorf("%w: count width %d", ErrCorruptTable, width)
	}

	count, err := bytestream.Long(b[1:])
	if err != nil {
		return nil, 0, fmt.Errorf("%w: entry count reads past buffer", ErrCorruptTable)
	}
	return parseEntries(b[1+bytestream.LongLen:], count, 1+bytestream.LongLen, width)
}

// parseEntries decodes count records of (1+width) bytes each, enforcing
// strictly ascending values and nonzero counts.
func parseEntries(b []byte, count uint64, consumed, width int) (Table, int, error) {
	if count > MaxEntries {
		return nil, 0, fmt.Errorf("%w: %d entries", ErrCorruptTable, count)
	}

	recordLen := 1 + width
	need := count * uint64(recordLen)
	if uint64(len(b)) < need {
		return nil, 0, fmt.Errorf("%w: %d entries read past buffer", ErrCorruptTable, count)
	}

	t := make(Table, 0, count)
	for i := uint64(0); i < count; i++ {
		rec := b[i*uint64(recordLen) : (i+1)*uint64(recordLen)]
		value := rec[0]

		c, err := bytestream.Trimmed(rec[1:], width)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %s", ErrCorruptTable, err)
		}

		if i > 0 && value <= t[i-1].Value {
			return nil, 0, fmt.Errorf("%w: entries out of order at value %d", ErrCorruptTable, value)
		}
		if c == 0 {
			return nil, 0, fmt.Errorf("%w: zero count for value %d", ErrCorruptTable, value)
		}
		t = append(t, Entry{Value: value, Count: c})
	}

	return t, consumed + int(need), nil
}
