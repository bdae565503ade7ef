// Package rag provides retrieval for the question-answering fallback path:
// chromem-go vector search over event records, BM25 keyword search, and
// reciprocal rank fusion of the two.
package rag

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/tmuhub/tmu-weekly-bot/internal/genai"
	"github.com/tmuhub/tmu-weekly-bot/internal/logger"
	"github.com/tmuhub/tmu-weekly-bot/internal/schedule"
)

const (
	// EventCollectionName is the name of the event collection in chromem.
	EventCollectionName = "events"

	// DefaultTopK is the default number of hits for semantic search.
	DefaultTopK = 20

	// embedConcurrency bounds parallel embedding calls during indexing.
	embedConcurrency = 4
)

// VectorDB wraps a chromem-go database for event record semantic search.
// Document IDs are the event record IDs, so hits map back to SQLite rows.
type VectorDB struct {
	db            *chromem.DB
	collection    *chromem.Collection
	embeddingFunc chromem.EmbeddingFunc
	logger        *logger.Logger
	mu            sync.RWMutex
	initialized   bool
}

// SearchResult is a semantic search hit.
type SearchResult struct {
	ID         int     // Event record ID
	Content    string  // Indexed text of the record
	Similarity float32 // Cosine similarity (0-1)
}

// NewVectorDB creates a vector database persisted under dataDir.
// Returns nil if apiKey is empty (semantic search disabled).
func NewVectorDB(dataDir, apiKey string, log *logger.Logger) (*VectorDB, error) {
	if apiKey == "" {
		log.Info("Gemini API key not configured, semantic search disabled")
		return nil, nil
	}

	db, err := chromem.NewPersistentDB(filepath.Join(dataDir, "chromem", "events"), false)
	if err != nil {
		return nil, fmt.Errorf("failed to create chromem database: %w", err)
	}

	return &VectorDB{
		db:            db,
		embeddingFunc: genai.NewEmbeddingFunc(apiKey),
		logger:        log,
	}, nil
}

// Initialize opens the collection and loads any embeddings persisted from a
// previous run. Pass the stored events so an empty collection can be built.
func (v *VectorDB) Initialize(ctx context.Context, events []schedule.Event) error {
	if v == nil {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	collection, err := v.db.GetOrCreateCollection(EventCollectionName, nil, v.embeddingFunc)
	if err != nil {
		return fmt.Errorf("failed to get/create collection: %w", err)
	}
	v.collection = collection

	if existing := collection.Count(); existing > 0 {
		v.logger.WithField("count", existing).Info("Loaded existing event embeddings from disk")
		v.initialized = true
		return nil
	}

	if len(events) > 0 {
		if err := v.addEvents(ctx, events); err != nil {
			return fmt.Errorf("failed to index events: %w", err)
		}
		v.logger.WithField("count", len(events)).Info("Indexed events for semantic search")
	}

	v.initialized = true
	return nil
}

// Rebuild drops the collection and re-indexes the given events.
// Called by ingest after the SQLite store has been replaced.
func (v *VectorDB) Rebuild(ctx context.Context, events []schedule.Event) error {
	if v == nil {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.db.DeleteCollection(EventCollectionName); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}

	collection, err := v.db.GetOrCreateCollection(EventCollectionName, nil, v.embeddingFunc)
	if err != nil {
		return fmt.Errorf("failed to recreate collection: %w", err)
	}
	v.collection = collection

	if len(events) > 0 {
		if err := v.addEvents(ctx, events); err != nil {
			return fmt.Errorf("failed to index events: %w", err)
		}
	}

	v.initialized = true
	v.logger.WithField("count", len(events)).Info("Rebuilt event vector index")
	return nil
}

// addEvents indexes events; assumes the lock is held.
func (v *VectorDB) addEvents(ctx context.Context, events []schedule.Event) error {
	docs := make([]chromem.Document, 0, len(events))
	for _, ev := range events {
		content := ev.IndexText()
		if content == "" {
			continue
		}
		docs = append(docs, chromem.Document{
			ID:      strconv.Itoa(ev.ID),
			Content: content,
			Metadata: map[string]string{
				"date":  ev.Date,
				"dow":   ev.Dow,
				"start": ev.Start,
				"title": ev.Title,
			},
		})
	}

	if len(docs) == 0 {
		return nil
	}
	return v.collection.AddDocuments(ctx, docs, embedConcurrency)
}

// Search performs semantic search over event records.
// Results come back sorted by similarity descending.
func (v *VectorDB) Search(ctx context.Context, query string, topK int) ([]SearchResult, error) {
	if v == nil || v.collection == nil || query == "" {
		return nil, nil
	}

	if topK <= 0 {
		topK = DefaultTopK
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	// chromem rejects nResults greater than the document count.
	docCount := v.collection.Count()
	if docCount == 0 {
		return nil, nil
	}
	if topK > docCount {
		topK = docCount
	}

	hits, err := v.collection.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		id, err := strconv.Atoi(hit.ID)
		if err != nil {
			continue
		}
		results = append(results, SearchResult{
			ID:         id,
			Content:    hit.Content,
			Similarity: hit.Similarity,
		})
	}
	return results, nil
}

// Count returns the number of indexed documents.
func (v *VectorDB) Count() int {
	if v == nil || v.collection == nil {
		return 0
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.collection.Count()
}

// IsEnabled returns true if the vector database is initialized and usable.
func (v *VectorDB) IsEnabled() bool {
	if v == nil {
		return false
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.initialized && v.collection != nil
}

// Close is a no-op; chromem persists on every operation.
func (v *VectorDB) Close() error {
	return nil
}
