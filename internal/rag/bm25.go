package rag

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/iwilltry42/bm25-go/bm25"
)

// KeywordIndex ranks chunks with BM25 Okapi. It complements vector search
// for exact terms such as course codes and subject names.
type KeywordIndex struct {
	okapi  *bm25.BM25Okapi
	chunks []Chunk
	mu     sync.RWMutex
}

// NewKeywordIndex builds a BM25 index over chunks.
// k1=1.5, b=0.75 are the standard Okapi parameters.
func NewKeywordIndex(chunks []Chunk) (*KeywordIndex, error) {
	idx := &KeywordIndex{chunks: chunks}
	if len(chunks) == 0 {
		return idx, nil
	}

	corpus := make([]string, len(chunks))
	for i, c := range chunks {
		corpus[i] = c.Content
	}

	okapi, err := bm25.NewBM25Okapi(corpus, tokenize, 1.5, 0.75, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create BM25 index: %w", err)
	}
	idx.okapi = okapi
	return idx, nil
}

// Search returns up to topN chunks with a positive BM25 score,
// highest first. Ties keep chunk order.
func (idx *KeywordIndex) Search(query string, topN int) ([]SearchResult, error) {
	if idx == nil || idx.okapi == nil || topN <= 0 {
		return nil, nil
	}

	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	scores, err := idx.okapi.GetScores(tokens)
	if err != nil {
		return nil, fmt.Errorf("BM25 scoring failed: %w", err)
	}

	type scored struct {
		pos   int
		score float64
	}
	hits := make([]scored, 0, len(scores))
	for i, s := range scores {
		if s > 0 && i < len(idx.chunks) {
			hits = append(hits, scored{pos: i, score: s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})
	if len(hits) > topN {
		hits = hits[:topN]
	}

	results := make([]SearchResult, len(hits))
	for i, h := range hits {
		c := idx.chunks[h.pos]
		results[i] = SearchResult{
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			Content:    c.Content,
			Metadata:   c.Metadata,
			Score:      h.score,
		}
	}
	return results, nil
}

// Count returns the number of indexed chunks.
func (idx *KeywordIndex) Count() int {
	if idx == nil {
		return 0
	}
	return len(idx.chunks)
}

// tokenize lowercases text and splits it into runs of letters and digits.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
