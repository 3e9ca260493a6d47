package vault

import (
	"bytes"
	"io"
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Willmo3/will-zip/pkg/compressor"
)

func newTestVault(t *testing.T, compact bool) *Vault {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	v, err := Open(VaultConfig{Path: t.TempDir(), CompactTable: compact}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = v.Close() })

	return v
}

func TestPutGetRoundTrip(t *testing.T) {
	for _, compact := range []bool{false, true} {
		name := "fixed table"
		if compact {
			name = "compact table"
		}

		t.Run(name, func(t *testing.T) {
			v := newTestVault(t, compact)
			data := []byte("the quick brown fox jumps over the lazy dog")

			info, err := v.Put(data)
			require.NoError(t, err)

			id, err := ksuid.Parse(info.ID)
			require.NoError(t, err)

			restored, err := v.Get(id)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(restored, data))
		})
	}
}

func TestPutInfo(t *testing.T) {
	v := newTestVault(t, false)

	info, err := v.Put(bytes.Repeat([]byte("a"), 100))
	require.NoError(t, err)

	assert.Equal(t, uint64(100), info.OriginalSize)
	assert.Equal(t, uint64(38), info.CompressedSize)
	assert.Equal(t, 1, info.Symbols)
	assert.InDelta(t, 0.38, info.Ratio, 0.001)
}

func TestPutEmptyData(t *testing.T) {
	v := newTestVault(t, false)

	info, err := v.Put(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), info.OriginalSize)
	assert.Equal(t, uint64(16), info.CompressedSize)
	assert.Zero(t, info.Ratio)

	id, err := ksuid.Parse(info.ID)
	require.NoError(t, err)

	restored, err := v.Get(id)
	require.NoError(t, err)
	assert.Empty(t, restored)
}

func TestStatMatchesPut(t *testing.T) {
	v := newTestVault(t, false)

	info, err := v.Put([]byte("stat me"))
	require.NoError(t, err)

	id, err := ksuid.Parse(info.ID)
	require.NoError(t, err)

	stat, err := v.Stat(id)
	require.NoError(t, err)
	assert.Equal(t, info, stat)
}

func TestGetMissing(t *testing.T) {
	v := newTestVault(t, false)

	_, err := v.Get(ksuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	v := newTestVault(t, false)

	info, err := v.Put([]byte("delete me"))
	require.NoError(t, err)

	id, err := ksuid.Parse(info.ID)
	require.NoError(t, err)

	require.NoError(t, v.Delete(id))

	_, err = v.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, v.Delete(id), ErrNotFound)
}

func TestList(t *testing.T) {
	v := newTestVault(t, false)

	infos, err := v.List()
	require.NoError(t, err)
	assert.Empty(t, infos)

	seen := map[string]bool{}
	for _, data := range [][]byte{[]byte("one"), []byte("two"), []byte("three")} {
		info, err := v.Put(data)
		require.NoError(t, err)
		seen[info.ID] = false
	}

	infos, err = v.List()
	require.NoError(t, err)
	require.Len(t, infos, 3)

	for _, info := range infos {
		_, known := seen[info.ID]
		assert.True(t, known, "listed unknown artifact %s", info.ID)
		seen[info.ID] = true
	}
	for id, listed := range seen {
		assert.True(t, listed, "artifact %s missing from listing", id)
	}
}

func TestGetCorruptStoredArtifact(t *testing.T) {
	v := newTestVault(t, false)

	// Plant garbage where an artifact should be.
	id := ksuid.New()
	require.NoError(t, v.db.Set(id.Bytes(), []byte{0xde, 0xad, 0xbe, 0xef}, pebble.NoSync))

	_, err := v.Get(id)
	assert.ErrorIs(t, err, compressor.ErrCorruptTable)

	_, err = v.Stat(id)
	assert.ErrorIs(t, err, compressor.ErrCorruptTable)
}
