package rag

import "sort"

const (
	// RRFConstant is k in the RRF formula 1 / (k + rank).
	RRFConstant = 60

	// DefaultKeywordWeight is the keyword share of the fused score.
	// The vector share is 1 - DefaultKeywordWeight.
	DefaultKeywordWeight = 0.4
)

// FuseRRF combines keyword and vector rankings using Reciprocal Rank Fusion:
//
//	score(d) = Σ w_i / (k + rank_i)
//
// Chunks are matched by ChunkID. A vector hit keeps its similarity. The
// fused score lands in Score and the result is sorted by it, descending,
// then cut to topN (topN <= 0 keeps everything).
func FuseRRF(keyword, vector []SearchResult, keywordWeight float64, topN int) []SearchResult {
	keywordWeight = max(0, min(1, keywordWeight))
	vectorWeight := 1.0 - keywordWeight

	byID := make(map[string]*SearchResult, len(keyword)+len(vector))
	order := make([]string, 0, len(keyword)+len(vector))

	add := func(r SearchResult, rank int, weight float64, isVector bool) {
		score := weight / float64(RRFConstant+rank)
		if existing, ok := byID[r.ChunkID]; ok {
			existing.Score += score
			if isVector {
				existing.Similarity = r.Similarity
			}
			return
		}
		fused := r
		fused.Score = score
		if !isVector {
			fused.Similarity = 0
		}
		byID[r.ChunkID] = &fused
		order = append(order, r.ChunkID)
	}

	for i, r := range vector {
		add(r, i+1, vectorWeight, true)
	}
	for i, r := range keyword {
		add(r, i+1, keywordWeight, false)
	}

	results := make([]SearchResult, 0, len(order))
	for _, id := range order {
		results = append(results, *byID[id])
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results
}
