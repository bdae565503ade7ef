package rag

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/crawlab-team/bm25"

	"github.com/tmuhub/tmu-weekly-bot/internal/logger"
	"github.com/tmuhub/tmu-weekly-bot/internal/schedule"
)

// BM25Index provides keyword search over event records. It complements the
// vector index: exact tokens like room codes and dates that embeddings blur
// still match lexically.
type BM25Index struct {
	bm25Okapi   *bm25.BM25Okapi
	corpus      []string
	ids         []int                 // corpus position -> event record ID
	docTokens   []map[string]struct{} // corpus position -> token set
	logger      *logger.Logger
	mu          sync.RWMutex
	initialized bool
}

// BM25Result is a keyword search hit.
type BM25Result struct {
	ID    int
	Score float64 // BM25 score, higher is better
	Rank  int     // 1-indexed rank
}

// NewBM25Index creates an empty BM25 index.
func NewBM25Index(log *logger.Logger) *BM25Index {
	return &BM25Index{logger: log}
}

// Rebuild replaces the index contents with the given events.
// BM25 needs the whole corpus for IDF, so updates are full rebuilds.
func (idx *BM25Index) Rebuild(events []schedule.Event) error {
	if idx == nil {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.corpus = nil
	idx.ids = nil
	idx.docTokens = nil
	idx.bm25Okapi = nil

	for _, ev := range events {
		content := ev.IndexText()
		if strings.TrimSpace(content) == "" {
			continue
		}
		idx.corpus = append(idx.corpus, content)
		idx.ids = append(idx.ids, ev.ID)
		idx.docTokens = append(idx.docTokens, tokenSet(tokenizeVietnamese(content)))
	}

	if len(idx.corpus) == 0 {
		idx.initialized = true
		return nil
	}

	// k1=1.5, b=0.75 are standard BM25 parameters.
	okapi, err := bm25.NewBM25Okapi(idx.corpus, tokenizeVietnamese, 1.5, 0.75, nil)
	if err != nil {
		return fmt.Errorf("failed to build BM25 index: %w", err)
	}
	idx.bm25Okapi = okapi
	idx.initialized = true

	idx.logger.WithField("docs", len(idx.corpus)).Info("BM25 index rebuilt")
	return nil
}

// Search performs BM25 keyword search, returning hits sorted by score
// descending with 1-indexed ranks assigned.
func (idx *BM25Index) Search(query string, topN int) ([]BM25Result, error) {
	if idx == nil || strings.TrimSpace(query) == "" {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if !idx.initialized || idx.bm25Okapi == nil {
		return nil, nil
	}

	tokens := tokenizeVietnamese(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	scores, err := idx.bm25Okapi.GetScores(tokens)
	if err != nil {
		return nil, fmt.Errorf("BM25 scoring failed: %w", err)
	}

	// Okapi IDF goes negative for terms appearing in more than half the
	// corpus, which is routine in a single-week store where most records
	// share tokens. A positive-score cutoff would drop exactly the matching
	// documents, so candidates are kept by token overlap with the query and
	// ranked by raw score.
	var results []BM25Result
	for pos, score := range scores {
		if pos >= len(idx.ids) || pos >= len(idx.docTokens) {
			continue
		}
		if !containsAnyToken(idx.docTokens[pos], tokens) {
			continue
		}
		results = append(results, BM25Result{ID: idx.ids[pos], Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	for i := range results {
		results[i].Rank = i + 1
	}
	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results, nil
}

// IsEnabled returns true if the index has been built.
func (idx *BM25Index) IsEnabled() bool {
	if idx == nil {
		return false
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.initialized
}

// Count returns the number of indexed documents.
func (idx *BM25Index) Count() int {
	if idx == nil {
		return 0
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.corpus)
}

// tokenSet builds a lookup set from a token slice.
func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// containsAnyToken reports whether any query token appears in the document
// token set.
func containsAnyToken(set map[string]struct{}, tokens []string) bool {
	for _, t := range tokens {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

// tokenizeVietnamese lowercases and splits on anything that is not a letter
// or digit. Vietnamese is space-separated, so whole lowercase words are the
// right unit; diacritics are preserved so "tư" and "tu" stay distinct.
func tokenizeVietnamese(text string) []string {
	text = strings.ToLower(text)

	var tokens []string
	var word strings.Builder
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			word.WriteRune(r)
			continue
		}
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}
	if word.Len() > 0 {
		tokens = append(tokens, word.String())
	}
	return tokens
}
