package rag

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestChunkStore_SaveLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", chunkStoreName)

	want := &chunkManifest{
		Version:     chunkStoreVersion,
		CatalogHash: "abc123",
		ChunkSize:   500,
		Overlap:     100,
		Chunks: []Chunk{
			{ID: "ROB101#0", DocumentID: "ROB101", Content: "Title: Robotics", Metadata: map[string]string{"courseId": "ROB101"}},
		},
	}
	if err := saveChunkStore(path, want); err != nil {
		t.Fatalf("saveChunkStore() error = %v", err)
	}

	got, err := loadChunkStore(path)
	if err != nil {
		t.Fatalf("loadChunkStore() error = %v", err)
	}
	if got.CatalogHash != want.CatalogHash || len(got.Chunks) != 1 || got.Chunks[0].Content != "Title: Robotics" {
		t.Errorf("loadChunkStore() = %+v, want %+v", got, want)
	}
	if got.Chunks[0].Metadata["courseId"] != "ROB101" {
		t.Errorf("metadata not preserved: %v", got.Chunks[0].Metadata)
	}
}

func TestChunkStore_VersionMismatch(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), chunkStoreName)

	if err := saveChunkStore(path, &chunkManifest{Version: chunkStoreVersion + 1}); err != nil {
		t.Fatalf("saveChunkStore() error = %v", err)
	}
	_, err := loadChunkStore(path)
	if !errors.Is(err, errStaleChunkStore) {
		t.Errorf("loadChunkStore() error = %v, want errStaleChunkStore", err)
	}
}

func TestChunkStore_Corrupt(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), chunkStoreName)

	if err := os.WriteFile(path, []byte("definitely not zstd"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadChunkStore(path); err == nil {
		t.Error("loadChunkStore() on corrupt file should fail")
	}
}

func TestChunkStore_Missing(t *testing.T) {
	t.Parallel()
	if _, err := loadChunkStore(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("loadChunkStore() on missing file should fail")
	}
}
