package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuseRRFBothSourcesBoostShared(t *testing.T) {
	bm25 := []BM25Result{
		{ID: 1, Score: 5.0, Rank: 1},
		{ID: 2, Score: 3.0, Rank: 2},
	}
	vector := []SearchResult{
		{ID: 2, Content: "doc two", Similarity: 0.9},
		{ID: 3, Content: "doc three", Similarity: 0.8},
	}

	results := FuseRRF(bm25, vector, DefaultBM25Weight, 10)
	require.Len(t, results, 3)

	// ID 2 appears in both rankings, so it should fuse to the top.
	assert.Equal(t, 2, results[0].ID)
	assert.Equal(t, "doc two", results[0].Content)
	assert.Equal(t, 2, results[0].BM25Rank)
	assert.Equal(t, 1, results[0].VectorRank)
	assert.Greater(t, results[0].RRFScore, results[1].RRFScore)
}

func TestFuseRRFVectorOnly(t *testing.T) {
	vector := []SearchResult{
		{ID: 7, Content: "only", Similarity: 0.5},
	}

	results := FuseRRF(nil, vector, DefaultBM25Weight, 10)
	require.Len(t, results, 1)
	assert.Equal(t, 7, results[0].ID)
	assert.Zero(t, results[0].BM25Rank)
	assert.Equal(t, 1, results[0].VectorRank)
}

func TestFuseRRFBM25Only(t *testing.T) {
	bm25 := []BM25Result{
		{ID: 4, Score: 2.0, Rank: 1},
	}

	results := FuseRRF(bm25, nil, DefaultBM25Weight, 10)
	require.Len(t, results, 1)
	assert.Equal(t, 4, results[0].ID)
	assert.Zero(t, results[0].VectorRank)
}

func TestFuseRRFLimitsToTopN(t *testing.T) {
	bm25 := []BM25Result{
		{ID: 1, Score: 5.0, Rank: 1},
		{ID: 2, Score: 4.0, Rank: 2},
		{ID: 3, Score: 3.0, Rank: 3},
	}

	results := FuseRRF(bm25, nil, 1.0, 2)
	assert.Len(t, results, 2)
	assert.Equal(t, 1, results[0].ID)
}

func TestFuseRRFClampsWeight(t *testing.T) {
	bm25 := []BM25Result{{ID: 1, Score: 5.0, Rank: 1}}

	// Weight above 1 clamps; BM25-only fusion still produces output.
	results := FuseRRF(bm25, nil, 2.0, 10)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0/float64(RRFConstant+1), results[0].RRFScore, 1e-9)
}

func TestHybridSearcherDisabledIndexes(t *testing.T) {
	h := NewHybridSearcher(nil, nil)
	assert.False(t, h.IsEnabled())

	results, err := h.Search(t.Context(), "họp", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestHybridSearcherBM25Fallback(t *testing.T) {
	idx := NewBM25Index(testLogger())
	require.NoError(t, idx.Rebuild(indexedEvents()))

	h := NewHybridSearcher(nil, idx)
	require.True(t, h.IsEnabled())

	results, err := h.Search(t.Context(), "hội nghị viên chức", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, 1, results[0].ID)
}
