// Package knowledge maintains the curriculum collection in the vector index.
// Chunks arrive pre-chunked over the API; this service embeds them and
// upserts them with their metadata.
package knowledge

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/vidyalabs/tutor-backend/services/providers"
)

// ChunkInput is one curriculum excerpt to index.
type ChunkInput struct {
	Text         string `json:"text" validate:"required,min=20"`
	Source       string `json:"source" validate:"required"`
	Subject      string `json:"subject" validate:"omitempty,oneof=science social_science"`
	ClassNo      int    `json:"class_no" validate:"omitempty,gte=6,lte=12"`
	ChapterTitle string `json:"chapter_title"`
}

// Service embeds and indexes curriculum chunks.
type Service struct {
	embedder providers.Embedder
	index    providers.VectorIndex
	logger   *zap.Logger
}

// NewService creates a new knowledge service.
func NewService(embedder providers.Embedder, index providers.VectorIndex, logger *zap.Logger) *Service {
	return &Service{
		embedder: embedder,
		index:    index,
		logger:   logger,
	}
}

// UpsertChunks embeds and stores the given chunks. Document IDs are content
// hashes, so re-submitting the same text overwrites rather than duplicates.
// Returns the number of chunks stored.
func (s *Service) UpsertChunks(ctx context.Context, chunks []ChunkInput) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	docs := make([]providers.IndexDocument, 0, len(chunks))
	for _, chunk := range chunks {
		embedding, err := s.embedder.EmbedQuery(ctx, chunk.Text)
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunk: %w", err)
		}

		metadata := map[string]string{
			"source": chunk.Source,
		}
		if chunk.Subject != "" {
			metadata["subject"] = chunk.Subject
		}
		if chunk.ClassNo != 0 {
			metadata["class"] = strconv.Itoa(chunk.ClassNo)
		}
		if chunk.ChapterTitle != "" {
			metadata["chapter_title"] = chunk.ChapterTitle
		}

		docs = append(docs, providers.IndexDocument{
			ID:        contentID(chunk.Text),
			Content:   chunk.Text,
			Embedding: embedding,
			Metadata:  metadata,
		})
	}

	if err := s.index.Upsert(ctx, docs); err != nil {
		return 0, err
	}

	s.logger.Info("knowledge chunks indexed", zap.Int("count", len(docs)))
	return len(docs), nil
}

// Count returns the number of indexed chunks.
func (s *Service) Count() int {
	return s.index.Count()
}

func contentID(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
