package rag

import (
	"context"
	"sync"
	"time"

	"github.com/garyellow/course-advisor-go/internal/logger"
	"github.com/garyellow/course-advisor-go/internal/metrics"
)

// Retrieval strategies reported to metrics.
const (
	StrategyVector = "vector"
	StrategyHybrid = "hybrid"
)

// Retriever returns the chunks most relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]SearchResult, error)
}

// VectorRetriever serves queries from the vector index alone.
type VectorRetriever struct {
	index   *VectorIndex
	metrics *metrics.Metrics
}

// NewVectorRetriever creates a retriever over index.
func NewVectorRetriever(index *VectorIndex, m *metrics.Metrics) *VectorRetriever {
	return &VectorRetriever{index: index, metrics: m}
}

// Retrieve returns up to k nearest chunks.
func (r *VectorRetriever) Retrieve(ctx context.Context, query string, k int) ([]SearchResult, error) {
	start := time.Now()
	results, err := r.index.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	r.metrics.RecordRetrieval(StrategyVector, time.Since(start).Seconds(), len(results))
	return results, nil
}

// HybridRetriever runs BM25 and vector search in parallel and fuses the
// rankings with RRF. When one side fails or returns nothing, the other side
// is used alone.
type HybridRetriever struct {
	index         *VectorIndex
	keyword       *KeywordIndex
	keywordWeight float64
	logger        *logger.Logger
	metrics       *metrics.Metrics
}

// NewHybridRetriever builds the keyword index from the vector index chunks.
func NewHybridRetriever(index *VectorIndex, log *logger.Logger, m *metrics.Metrics) (*HybridRetriever, error) {
	keyword, err := NewKeywordIndex(index.Chunks())
	if err != nil {
		return nil, err
	}
	return &HybridRetriever{
		index:         index,
		keyword:       keyword,
		keywordWeight: DefaultKeywordWeight,
		logger:        log.WithModule("rag"),
		metrics:       m,
	}, nil
}

// Retrieve returns up to k fused chunks.
func (h *HybridRetriever) Retrieve(ctx context.Context, query string, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}
	start := time.Now()

	// Fetch more candidates than needed so fusion has overlap to work with.
	fetchN := max(k*3, 30)

	var (
		keywordResults []SearchResult
		vectorResults  []SearchResult
		keywordErr     error
		vectorErr      error
	)

	// Either side may fail without cancelling the other.
	var wg sync.WaitGroup
	wg.Go(func() {
		keywordResults, keywordErr = h.keyword.Search(query, fetchN)
	})
	wg.Go(func() {
		vectorResults, vectorErr = h.index.Search(ctx, query, fetchN)
	})
	wg.Wait()

	if keywordErr != nil {
		h.logger.WithError(keywordErr).Warn("Keyword search failed")
	}
	if vectorErr != nil {
		if len(keywordResults) == 0 {
			return nil, vectorErr
		}
		h.logger.WithError(vectorErr).Warn("Vector search failed, using keyword results")
	}

	var results []SearchResult
	switch {
	case len(keywordResults) == 0:
		results = vectorResults
	case len(vectorResults) == 0:
		results = keywordResults
	default:
		results = FuseRRF(keywordResults, vectorResults, h.keywordWeight, k)
		h.logger.WithFields(map[string]any{
			"keyword_count": len(keywordResults),
			"vector_count":  len(vectorResults),
			"fused_count":   len(results),
		}).Debug("Hybrid search completed")
	}
	if len(results) > k {
		results = results[:k]
	}

	h.metrics.RecordRetrieval(StrategyHybrid, time.Since(start).Seconds(), len(results))
	return results, nil
}
