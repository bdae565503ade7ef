package rag

import (
	"context"
	"sort"
)

const (
	// RRFConstant is the k in the RRF formula 1 / (k + rank).
	RRFConstant = 60

	// DefaultBM25Weight is the BM25 share in RRF fusion; vector search
	// takes the remainder.
	DefaultBM25Weight = 0.4
)

// HybridResult is a fused search hit.
type HybridResult struct {
	ID         int
	Content    string  // from vector search when available
	BM25Score  float64 // 0 if absent from BM25 results
	VectorSim  float32 // 0 if absent from vector results
	RRFScore   float64
	BM25Rank   int // 0 if absent
	VectorRank int // 0 if absent
}

// FuseRRF combines BM25 and vector results with weighted Reciprocal Rank
// Fusion: score(d) = Σ w_i / (k + rank_i). Results come back sorted by RRF
// score descending, limited to topN when topN > 0.
func FuseRRF(bm25Results []BM25Result, vectorResults []SearchResult, bm25Weight float64, topN int) []HybridResult {
	if bm25Weight < 0 {
		bm25Weight = 0
	}
	if bm25Weight > 1 {
		bm25Weight = 1
	}
	vectorWeight := 1.0 - bm25Weight

	merged := make(map[int]*HybridResult)

	for i, r := range bm25Results {
		rank := i + 1
		score := bm25Weight / float64(RRFConstant+rank)
		merged[r.ID] = &HybridResult{
			ID:        r.ID,
			BM25Score: r.Score,
			BM25Rank:  rank,
			RRFScore:  score,
		}
	}

	for i, r := range vectorResults {
		rank := i + 1
		score := vectorWeight / float64(RRFConstant+rank)
		if existing, ok := merged[r.ID]; ok {
			existing.VectorSim = r.Similarity
			existing.VectorRank = rank
			existing.Content = r.Content
			existing.RRFScore += score
		} else {
			merged[r.ID] = &HybridResult{
				ID:         r.ID,
				Content:    r.Content,
				VectorSim:  r.Similarity,
				VectorRank: rank,
				RRFScore:   score,
			}
		}
	}

	results := make([]HybridResult, 0, len(merged))
	for _, r := range merged {
		results = append(results, *r)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].RRFScore != results[j].RRFScore {
			return results[i].RRFScore > results[j].RRFScore
		}
		return results[i].ID < results[j].ID
	})

	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results
}

// HybridSearcher runs vector and BM25 search and fuses the rankings.
// Either index may be nil or disabled; fusion degrades to whichever
// source is available.
type HybridSearcher struct {
	vector *VectorDB
	bm25   *BM25Index
}

// NewHybridSearcher creates a hybrid searcher over the two indexes.
func NewHybridSearcher(vector *VectorDB, bm25 *BM25Index) *HybridSearcher {
	return &HybridSearcher{vector: vector, bm25: bm25}
}

// Search returns the fused top-K hits for the query.
func (h *HybridSearcher) Search(ctx context.Context, query string, topK int) ([]HybridResult, error) {
	if h == nil {
		return nil, nil
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	var vectorHits []SearchResult
	if h.vector.IsEnabled() {
		hits, err := h.vector.Search(ctx, query, topK)
		if err != nil {
			return nil, err
		}
		vectorHits = hits
	}

	var bm25Hits []BM25Result
	if h.bm25.IsEnabled() {
		hits, err := h.bm25.Search(query, topK)
		if err != nil {
			return nil, err
		}
		bm25Hits = hits
	}

	return FuseRRF(bm25Hits, vectorHits, DefaultBM25Weight, topK), nil
}

// IsEnabled reports whether at least one underlying index is usable.
func (h *HybridSearcher) IsEnabled() bool {
	return h != nil && (h.vector.IsEnabled() || h.bm25.IsEnabled())
}
