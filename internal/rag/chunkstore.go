package rag

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// chunkStoreVersion changes whenever the persisted layout changes.
const chunkStoreVersion = 1

// Chunk is one retrieval unit cut from a catalog document.
type Chunk struct {
	ID         string            `json:"id"`
	DocumentID string            `json:"document_id"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata"`
}

// chunkManifest is the on-disk form of the chunk store. It travels alongside
// the vector index and records which catalog it was built from.
type chunkManifest struct {
	Version     int     `json:"version"`
	CatalogHash string  `json:"catalog_hash"`
	ChunkSize   int     `json:"chunk_size"`
	Overlap     int     `json:"overlap"`
	Chunks      []Chunk `json:"chunks"`
}

var errStaleChunkStore = errors.New("chunk store is stale")

// saveChunkStore writes the manifest as zstd-compressed JSON via a temp file
// and rename so readers never see a partial file.
func saveChunkStore(path string, m *chunkManifest) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("chunk store: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".chunks-*.tmp")
	if err != nil {
		return fmt.Errorf("chunk store: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	encoder, err := zstd.NewWriter(tmp, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chunk store: create encoder: %w", err)
	}
	if err := json.NewEncoder(encoder).Encode(m); err != nil {
		_ = encoder.Close()
		_ = tmp.Close()
		return fmt.Errorf("chunk store: encode: %w", err)
	}
	if err := encoder.Close(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chunk store: close encoder: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("chunk store: close temp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("chunk store: rename: %w", err)
	}
	return nil
}

// loadChunkStore reads a manifest written by saveChunkStore.
func loadChunkStore(path string) (*chunkManifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("chunk store: open: %w", err)
	}
	defer f.Close()

	decoder, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("chunk store: create decoder: %w", err)
	}
	defer decoder.Close()

	var m chunkManifest
	if err := json.NewDecoder(decoder).Decode(&m); err != nil {
		return nil, fmt.Errorf("chunk store: decode: %w", err)
	}
	if m.Version != chunkStoreVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", errStaleChunkStore, m.Version, chunkStoreVersion)
	}
	return &m, nil
}
