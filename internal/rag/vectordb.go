// Package rag provides Retrieval-Augmented Generation functionality
// using chromem-go for vector storage, with optional BM25 keyword ranking
// fused in by Reciprocal Rank Fusion.
package rag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/garyellow/course-advisor-go/internal/catalog"
	apperrors "github.com/garyellow/course-advisor-go/internal/errors"
	"github.com/garyellow/course-advisor-go/internal/logger"
	"github.com/garyellow/course-advisor-go/internal/metrics"
)

const (
	// CourseCollectionName is the chromem collection holding course chunks.
	CourseCollectionName = "courses"

	chromemDirName = "chromem"
	chunkStoreName = "chunks.json.zst"

	// Metadata keys added to every chunk.
	MetaDocumentID = "documentId"
	MetaChunkIndex = "chunkIndex"

	defaultEmbedConcurrency = 4
)

// Index initialization sources reported to metrics and logs.
const (
	SourceLoaded  = "loaded"
	SourceRebuilt = "rebuilt"
)

// SearchResult is one retrieved chunk.
type SearchResult struct {
	ChunkID    string
	DocumentID string
	Content    string
	Metadata   map[string]string
	Similarity float32 // Cosine similarity for vector hits, 0 for keyword-only hits
	Score      float64 // Fused or keyword score, 0 for plain vector hits
}

// IndexConfig configures BuildIndex.
type IndexConfig struct {
	Dir              string // Directory holding the chromem DB and the chunk store
	ChunkSize        int
	Overlap          int
	EmbedConcurrency int
}

// VectorIndex wraps a chromem collection of course chunks and the parallel
// chunk store that mirrors it. It is read-only once built.
type VectorIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	chunks     []Chunk
	source     string
	logger     *logger.Logger
	mu         sync.RWMutex
}

// BuildIndex opens the persisted index under cfg.Dir when it loads cleanly,
// matches the catalog hash and agrees with the chunk store. Otherwise it wipes
// the directory and rebuilds both artifacts from cat. Only a failed rebuild
// returns an error.
func BuildIndex(ctx context.Context, cfg IndexConfig, cat *catalog.Catalog, embed chromem.EmbeddingFunc, log *logger.Logger, m *metrics.Metrics) (*VectorIndex, error) {
	if cat == nil {
		return nil, errors.New("rag: catalog is required")
	}
	if embed == nil {
		return nil, errors.New("rag: embedding function is required")
	}
	if cfg.EmbedConcurrency <= 0 {
		cfg.EmbedConcurrency = defaultEmbedConcurrency
	}
	log = log.WithModule("rag")

	idx, err := loadIndex(cfg, cat.Hash, embed)
	if err == nil {
		idx.logger = log
		log.WithField("chunks", len(idx.chunks)).Info("Loaded persisted vector index")
		m.RecordIndexBuild(SourceLoaded, len(idx.chunks))
		return idx, nil
	}
	log.WithError(err).Warn("Persisted vector index unusable, rebuilding")

	idx, err = rebuildIndex(ctx, cfg, cat, embed)
	if err != nil {
		return nil, apperrors.Op("rag", "build_index", err, "failed to build vector index")
	}
	idx.logger = log
	log.WithFields(map[string]any{
		"documents": len(cat.Documents),
		"chunks":    len(idx.chunks),
	}).Info("Built vector index")
	m.RecordIndexBuild(SourceRebuilt, len(idx.chunks))
	return idx, nil
}

func loadIndex(cfg IndexConfig, catalogHash string, embed chromem.EmbeddingFunc) (*VectorIndex, error) {
	manifest, err := loadChunkStore(filepath.Join(cfg.Dir, chunkStoreName))
	if err != nil {
		return nil, err
	}
	if manifest.CatalogHash != catalogHash {
		return nil, fmt.Errorf("%w: catalog changed", errStaleChunkStore)
	}
	if manifest.ChunkSize != cfg.ChunkSize || manifest.Overlap != cfg.Overlap {
		return nil, fmt.Errorf("%w: chunking changed", errStaleChunkStore)
	}

	db, err := chromem.NewPersistentDB(filepath.Join(cfg.Dir, chromemDirName), true)
	if err != nil {
		return nil, fmt.Errorf("open chromem database: %w", err)
	}
	collection := db.GetCollection(CourseCollectionName, embed)
	if collection == nil {
		return nil, errors.New("course collection missing")
	}
	if got := collection.Count(); got != len(manifest.Chunks) {
		return nil, fmt.Errorf("index holds %d chunks, chunk store holds %d", got, len(manifest.Chunks))
	}

	return &VectorIndex{
		db:         db,
		collection: collection,
		chunks:     manifest.Chunks,
		source:     SourceLoaded,
	}, nil
}

func rebuildIndex(ctx context.Context, cfg IndexConfig, cat *catalog.Catalog, embed chromem.EmbeddingFunc) (*VectorIndex, error) {
	if err := os.RemoveAll(cfg.Dir); err != nil {
		return nil, fmt.Errorf("clear index dir: %w", err)
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	chunks := SplitDocuments(cat.Documents, NewSplitter(cfg.ChunkSize, cfg.Overlap))

	db, err := chromem.NewPersistentDB(filepath.Join(cfg.Dir, chromemDirName), true)
	if err != nil {
		return nil, fmt.Errorf("create chromem database: %w", err)
	}
	collection, err := db.GetOrCreateCollection(CourseCollectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	if len(chunks) > 0 {
		docs := make([]chromem.Document, 0, len(chunks))
		for _, c := range chunks {
			docs = append(docs, chromem.Document{
				ID:       c.ID,
				Content:  c.Content,
				Metadata: c.Metadata,
			})
		}
		if err := collection.AddDocuments(ctx, docs, cfg.EmbedConcurrency); err != nil {
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
	}

	manifest := &chunkManifest{
		Version:     chunkStoreVersion,
		CatalogHash: cat.Hash,
		ChunkSize:   cfg.ChunkSize,
		Overlap:     cfg.Overlap,
		Chunks:      chunks,
	}
	if err := saveChunkStore(filepath.Join(cfg.Dir, chunkStoreName), manifest); err != nil {
		return nil, err
	}

	return &VectorIndex{
		db:         db,
		collection: collection,
		chunks:     chunks,
		source:     SourceRebuilt,
	}, nil
}

// SplitDocuments cuts every document into chunks. Chunk IDs are
// "{documentID}#{n}" and chunks inherit the document metadata.
// A repeated document ID gets a "~{k}" suffix in its chunk IDs.
func SplitDocuments(docs []catalog.Document, splitter *Splitter) []Chunk {
	chunks := make([]Chunk, 0, len(docs))
	seen := make(map[string]int, len(docs))
	for _, doc := range docs {
		prefix := doc.ID
		if n := seen[doc.ID]; n > 0 {
			// Duplicate course ids would collide in the collection.
			prefix = doc.ID + "~" + strconv.Itoa(n)
		}
		seen[doc.ID]++
		for i, text := range splitter.Split(doc.Content) {
			meta := make(map[string]string, len(doc.Metadata)+2)
			for k, v := range doc.Metadata {
				meta[k] = v
			}
			meta[MetaDocumentID] = doc.ID
			meta[MetaChunkIndex] = strconv.Itoa(i)
			chunks = append(chunks, Chunk{
				ID:         prefix + "#" + strconv.Itoa(i),
				DocumentID: doc.ID,
				Content:    text,
				Metadata:   meta,
			})
		}
	}
	return chunks
}

// Search returns up to n chunks nearest to query.
// An empty index yields no results and no error.
func (v *VectorIndex) Search(ctx context.Context, query string, n int) ([]SearchResult, error) {
	if v == nil || v.collection == nil {
		return nil, nil
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	count := v.collection.Count()
	if n > count {
		n = count
	}
	if n <= 0 {
		return nil, nil
	}

	hits, err := v.collection.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, SearchResult{
			ChunkID:    h.ID,
			DocumentID: h.Metadata[MetaDocumentID],
			Content:    h.Content,
			Metadata:   h.Metadata,
			Similarity: h.Similarity,
		})
	}
	return results, nil
}

// Chunks returns the indexed chunks in build order.
func (v *VectorIndex) Chunks() []Chunk {
	if v == nil {
		return nil
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]Chunk, len(v.chunks))
	copy(out, v.chunks)
	return out
}

// Count returns the number of indexed chunks.
func (v *VectorIndex) Count() int {
	if v == nil {
		return 0
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.chunks)
}

// Source reports whether the index was loaded from disk or rebuilt.
func (v *VectorIndex) Source() string {
	if v == nil {
		return ""
	}
	return v.source
}
