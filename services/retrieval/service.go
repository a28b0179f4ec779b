// Package retrieval produces the ranked, filtered list of grounding chunks
// for a question: embed, similarity-search with metadata filters, drop
// low-confidence matches, cache the result.
package retrieval

import (
	"context"
	"encoding/json"
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/vidyalabs/tutor-backend/config"
	"github.com/vidyalabs/tutor-backend/models"
	"github.com/vidyalabs/tutor-backend/services"
	"github.com/vidyalabs/tutor-backend/services/cache"
	"github.com/vidyalabs/tutor-backend/services/providers"
)

// Service is the context retriever.
type Service struct {
	embedder providers.Embedder
	index    providers.VectorIndex
	cache    cache.Cache
	policy   config.Policy
	logger   *zap.Logger
}

// NewService creates a new retrieval service.
func NewService(embedder providers.Embedder, index providers.VectorIndex, c cache.Cache, policy config.Policy, logger *zap.Logger) *Service {
	return &Service{
		embedder: embedder,
		index:    index,
		cache:    c,
		policy:   policy,
		logger:   logger,
	}
}

// Retrieve returns the grounding chunks for a question, ordered by descending
// score. topK <= 0 selects the configured default.
//
// Cached entries are returned verbatim: they were filtered before being
// stored. Embedding and vector-index failures both degrade to an empty
// result so the caller can still answer ungrounded; the retrieval layer
// never fails a request. Degraded (empty-by-failure) results are not
// cached, so the next request retries the providers.
func (s *Service) Retrieve(ctx context.Context, question string, classNo *int, subject string, topK int) ([]models.ContextChunk, error) {
	if topK <= 0 {
		topK = s.policy.TopK
	}

	key := cache.RetrievalKey(question, classNo, subject)
	if cached, ok := s.cache.Get(key); ok {
		var chunks []models.ContextChunk
		if err := json.Unmarshal([]byte(cached), &chunks); err == nil {
			s.logger.Debug("retrieval cache hit", zap.String("key", key))
			return chunks, nil
		}
		// Undecodable entry: fall through and recompute.
		s.logger.Warn("dropping undecodable retrieval cache entry", zap.String("key", key))
	}

	vector, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		s.logger.Error("embedding failed, answering ungrounded",
			zap.Error(services.NewDomainError(services.ErrorTypeRetrieval, "failed to embed question", err)))
		return []models.ContextChunk{}, nil
	}

	matches, err := s.index.Query(ctx, vector, topK, buildFilter(classNo, subject))
	if err != nil {
		s.logger.Error("vector index query failed, answering ungrounded",
			zap.Error(services.NewDomainError(services.ErrorTypeRetrieval, "vector query failed", err)))
		return []models.ContextChunk{}, nil
	}

	chunks := s.projectMatches(matches)

	if encoded, err := json.Marshal(chunks); err == nil {
		s.cache.Set(key, string(encoded), s.policy.RetrievalTTL())
	}

	return chunks, nil
}

// projectMatches drops matches below the confidence floor and maps the rest
// into chunks. The floor is inclusive: a match exactly at the threshold is
// evidence, not noise.
func (s *Service) projectMatches(matches []providers.VectorMatch) []models.ContextChunk {
	chunks := make([]models.ContextChunk, 0, len(matches))
	for _, m := range matches {
		if m.Score < s.policy.ScoreThreshold {
			continue
		}

		classNo := 0
		if raw := m.Metadata["class"]; raw != "" {
			classNo, _ = strconv.Atoi(raw)
		}

		source := m.Metadata["source"]
		if source == "" {
			source = "unknown"
		}

		chunks = append(chunks, models.ContextChunk{
			ID:           m.ID,
			Text:         m.Content,
			Score:        math.Round(m.Score*10000) / 10000,
			Source:       source,
			Subject:      m.Metadata["subject"],
			ClassNo:      classNo,
			ChapterTitle: m.Metadata["chapter_title"],
		})
	}
	return chunks
}

// buildFilter builds the metadata equality filter from the optional
// class/subject constraints.
func buildFilter(classNo *int, subject string) map[string]string {
	filter := make(map[string]string)
	if classNo != nil {
		filter["class"] = strconv.Itoa(*classNo)
	}
	if subject != "" {
		filter["subject"] = subject
	}
	if len(filter) == 0 {
		return nil
	}
	return filter
}
