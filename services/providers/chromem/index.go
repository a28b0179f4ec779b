// Package chromem adapts the embedded chromem-go vector database to the
// VectorIndex contract. The index holds one collection of curriculum chunks
// with class/subject/source metadata.
package chromem

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/vidyalabs/tutor-backend/config"
	"github.com/vidyalabs/tutor-backend/services/providers"
)

const compress = false

// Index implements providers.VectorIndex over a chromem collection.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
	logger     *zap.Logger
}

// NewIndex opens (or creates) the vector index. An empty path selects an
// in-memory database, used by tests and throwaway dev setups.
func NewIndex(cfg config.IndexConfig, logger *zap.Logger) (*Index, error) {
	var db *chromem.DB
	var err error
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Path, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to open vector index at %s: %w", cfg.Path, err)
		}
	}

	// Embeddings are always supplied by the caller, so no embedding func is
	// registered on the collection.
	collection, err := db.GetOrCreateCollection(cfg.Collection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", cfg.Collection, err)
	}

	logger.Info("vector index ready",
		zap.String("collection", cfg.Collection),
		zap.Int("documents", collection.Count()))

	return &Index{db: db, collection: collection, logger: logger}, nil
}

// Query runs a similarity search with optional metadata equality filters.
func (i *Index) Query(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]providers.VectorMatch, error) {
	count := i.collection.Count()
	if count == 0 {
		return nil, nil
	}
	// chromem rejects nResults larger than the collection
	if topK > count {
		topK = count
	}

	results, err := i.collection.QueryEmbedding(ctx, vector, topK, filter, nil)
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}

	matches := make([]providers.VectorMatch, 0, len(results))
	for _, res := range results {
		matches = append(matches, providers.VectorMatch{
			ID:       res.ID,
			Score:    float64(res.Similarity),
			Content:  res.Content,
			Metadata: res.Metadata,
		})
	}
	return matches, nil
}

// Upsert adds documents (with caller-supplied embeddings) to the collection.
func (i *Index) Upsert(ctx context.Context, docs []providers.IndexDocument) error {
	if len(docs) == 0 {
		return nil
	}

	chromemDocs := make([]chromem.Document, 0, len(docs))
	for _, doc := range docs {
		chromemDocs = append(chromemDocs, chromem.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Embedding: doc.Embedding,
			Metadata:  doc.Metadata,
		})
	}

	if err := i.collection.AddDocuments(ctx, chromemDocs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}

	i.logger.Debug("documents upserted", zap.Int("count", len(docs)))
	return nil
}

// Count returns the number of documents in the collection.
func (i *Index) Count() int {
	return i.collection.Count()
}
