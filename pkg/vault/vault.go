// Package vault persists compressed artifacts in a local pebble store.
//
// Every artifact is stored under a fresh ksuid, already compressed; the
// vault compresses on the way in and decompresses on the way out, so callers
// only ever handle original bytes plus artifact metadata.
package vault

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
	"github.com/sirupsen/logrus"

	"github.com/Willmo3/will-zip/pkg/compressor"
	"github.com/Willmo3/will-zip/pkg/wzfile"
)

// ErrNotFound reports a lookup for an artifact id the vault does not hold.
var ErrNotFound = errors.New("artifact not found")

// VaultConfig holds configuration for the artifact vault
type VaultConfig struct {
	Path         string // Directory for the pebble store
	CompactTable bool   // Wire form for artifacts written from now on
}

// Vault is an artifact store backed by pebble. Reads decode artifacts in
// either wire form, so flipping CompactTable never strands old data.
type Vault struct {
	db    *pebble.DB
	codec *compressor.Codec
	log   *logrus.Logger
}

// Open opens or creates a vault at the configured path.
func Open(config VaultConfig, log *logrus.Logger) (*Vault, error) {
	db, err := pebble.Open(config.Path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open vault: %w", err)
	}

	return &Vault{
		db:    db,
		codec: compressor.NewCodec(compressor.CodecConfig{CompactTable: config.CompactTable}),
		log:   log,
	}, nil
}

// Info describes one stored artifact.
type Info struct {
	ID             string  `json:"id"`
	OriginalSize   uint64  `json:"original_size"`
	CompressedSize uint64  `json:"compressed_size"`
	Symbols        int     `json:"symbols"`
	Ratio          float64 `json:"ratio"`
}

// Put compresses data, stores the artifact under a fresh id and returns its
// metadata.
func (v *Vault) Put(data []byte) (*Info, error) {
	artifact := v.codec.Compress(data)
	id := ksuid.New()

	if err := v.db.Set(id.Bytes(), artifact, pebble.Sync); err != nil {
		return nil, fmt.Errorf("failed to store artifact: %w", err)
	}

	v.log.WithFields(logrus.Fields{
		"id":              id.String(),
		"original_size":   len(data),
		"compressed_size": len(artifact),
	}).Info("stored artifact")

	return describe(id, artifact)
}

// Get fetches the artifact stored under id and decompresses it back into
// the original bytes.
func (v *Vault) Get(id ksuid.KSUID) ([]byte, error) {
	artifact, err := v.Raw(id)
	if err != nil {
		return nil, err
	}

	data, err := v.codec.Decompress(artifact)
	if err != nil {
		return nil, fmt.Errorf("stored artifact %s: %w", id, err)
	}
	return data, nil
}

// Raw fetches the compressed artifact bytes stored under id.
func (v *Vault) Raw(id ksuid.KSUID) ([]byte, error) {
	data, closer, err := v.db.Get(id.Bytes())
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	defer closer.Close()

	// The buffer pebble hands out is only valid until the closer closes.
	artifact := make([]byte, len(data))
	copy(artifact, data)
	return artifact, nil
}

// Stat returns metadata for the artifact stored under id without decoding
// its payload.
func (v *Vault) Stat(id ksuid.KSUID) (*Info, error) {
	artifact, err := v.Raw(id)
	if err != nil {
		return nil, err
	}
	return describe(id, artifact)
}

// List returns metadata for every stored artifact.
func (v *Vault) List() ([]*Info, error) {
	iter, err := v.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate vault: %w", err)
	}
	defer iter.Close()

	var infos []*Info
	for iter.First(); iter.Valid(); iter.Next() {
		id, err := ksuid.FromBytes(iter.Key())
		if err != nil {
			return nil, fmt.Errorf("malformed artifact key: %w", err)
		}

		info, err := describe(id, iter.Value())
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("failed to iterate vault: %w", err)
	}
	return infos, nil
}

// Delete removes the artifact stored under id. Deleting an id the vault
// does not hold reports ErrNotFound.
func (v *Vault) Delete(id ksuid.KSUID) error {
	if _, err := v.Raw(id); err != nil {
		return err
	}

	if err := v.db.Delete(id.Bytes(), pebble.Sync); err != nil {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}

	v.log.WithField("id", id.String()).Info("deleted artifact")
	return nil
}

// Close closes the underlying store.
func (v *Vault) Close() error {
	return v.db.Close()
}

// describe derives artifact metadata from its wire headers alone.
func describe(id ksuid.KSUID, artifact []byte) (*Info, error) {
	a, _, err := wzfile.FromStream(artifact)
	if err != nil {
		return nil, fmt.Errorf("stored artifact %s: %w", id, err)
	}

	info := &Info{
		ID:             id.String(),
		OriginalSize:   a.Table.Total(),
		CompressedSize: uint64(len(artifact)),
		Symbols:        len(a.Table),
	}
	if info.OriginalSize > 0 {
		info.Ratio = float64(info.CompressedSize) / float64(info.OriginalSize)
	}
	return info, nil
}
