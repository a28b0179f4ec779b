// Package answer orchestrates one student question end to end: answer-cache
// check, context retrieval, prompt building, model invocation with fallback,
// and deferred cache/record writes.
package answer

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vidyalabs/tutor-backend/config"
	"github.com/vidyalabs/tutor-backend/models"
	"github.com/vidyalabs/tutor-backend/services/cache"
	"github.com/vidyalabs/tutor-backend/services/prompt"
	"github.com/vidyalabs/tutor-backend/services/providers"
)

// ServiceUnavailableMessage is the in-band answer body returned when the
// primary and fallback models both fail. The request itself still completes
// with success semantics at the API boundary.
const ServiceUnavailableMessage = "[Error: AI service temporarily unavailable. Please try again.]"

// Retriever produces grounding chunks for a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string, classNo *int, subject string, topK int) ([]models.ContextChunk, error)
}

// Recorder accepts answer records, fire-and-forget.
type Recorder interface {
	Record(rec *models.AnswerRecord)
}

// Answer is the result of a non-streaming ask.
type Answer struct {
	ID        uuid.UUID             `json:"id,omitempty"`
	Text      string                `json:"answer"`
	FromCache bool                  `json:"from_cache"`
	ModelUsed string                `json:"model_used,omitempty"`
	Sources   []models.ContextChunk `json:"sources"`
}

// Service is the answer orchestrator.
type Service struct {
	retriever   Retriever
	completions providers.CompletionClient
	cache       cache.Cache
	recorder    Recorder
	policy      config.Policy
	logger      *zap.Logger
}

// NewService creates a new answer service.
func NewService(retriever Retriever, completions providers.CompletionClient, c cache.Cache, recorder Recorder, policy config.Policy, logger *zap.Logger) *Service {
	return &Service{
		retriever:   retriever,
		completions: completions,
		cache:       c,
		recorder:    recorder,
		policy:      policy,
		logger:      logger,
	}
}

// Ask answers a question in one shot. Cache hits skip retrieval and
// generation entirely and produce no side effects; everything else writes
// exactly one cache entry (on generation success) and emits one record.
func (s *Service) Ask(ctx context.Context, q *models.Query) (*Answer, error) {
	key := cache.AnswerKey(q.Question, q.ClassNo, string(q.Subject))

	if !q.HasImage() {
		if cached, ok := s.cache.Get(key); ok {
			s.logger.Info("answer cache hit")
			return &Answer{
				Text:      cached,
				FromCache: true,
				Sources:   []models.ContextChunk{},
			}, nil
		}
	}

	chunks, err := s.retriever.Retrieve(ctx, q.Question, q.ClassNo, string(q.Subject), 0)
	if err != nil {
		return nil, err
	}

	messages := prompt.BuildMessages(q, chunks)
	text, modelUsed, ok := s.generate(ctx, messages, s.selectModel(q))

	if ok && !q.HasImage() {
		s.cache.Set(key, text, s.policy.AnswerTTL())
	}

	rec := models.NewAnswerRecord(q, text, modelUsed, chunks)
	s.recorder.Record(rec)

	return &Answer{
		ID:        rec.ID,
		Text:      text,
		FromCache: false,
		ModelUsed: modelUsed,
		Sources:   chunks,
	}, nil
}

// AskStream answers a question as a lazy token sequence. The channel closes
// when the answer is complete. The producer accumulates tokens and commits
// the cache write and the record only after the stream fully drains; if the
// consumer cancels mid-flight, the partial answer is discarded.
func (s *Service) AskStream(ctx context.Context, q *models.Query) (<-chan string, error) {
	key := cache.AnswerKey(q.Question, q.ClassNo, string(q.Subject))

	if !q.HasImage() {
		if cached, ok := s.cache.Get(key); ok {
			s.logger.Info("answer cache hit")
			out := make(chan string, 1)
			out <- cached
			close(out)
			return out, nil
		}
	}

	chunks, err := s.retriever.Retrieve(ctx, q.Question, q.ClassNo, string(q.Subject), 0)
	if err != nil {
		return nil, err
	}

	messages := prompt.BuildMessages(q, chunks)
	model := s.selectModel(q)

	out := make(chan string)
	go s.streamAndCommit(ctx, q, key, messages, model, chunks, out)
	return out, nil
}

// streamAndCommit produces the token stream into out, buffering everything
// yielded. Side effects happen only after end-of-stream is observed.
func (s *Service) streamAndCommit(ctx context.Context, q *models.Query, key string, messages []providers.Message, model string, chunks []models.ContextChunk, out chan<- string) {
	defer close(out)

	var buf strings.Builder
	send := func(ctx context.Context, token string) error {
		select {
		case out <- token:
			buf.WriteString(token)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	modelUsed := model
	err := s.completions.CompleteStream(ctx, s.chatRequest(model, messages), send)
	if err != nil && ctx.Err() == nil && model != s.policy.FallbackModel {
		s.logger.Error("streaming completion failed, trying fallback",
			zap.String("model", model),
			zap.String("fallback", s.policy.FallbackModel),
			zap.Error(err))
		modelUsed = s.policy.FallbackModel
		err = s.completions.CompleteStream(ctx, s.chatRequest(modelUsed, messages), send)
	}

	if ctx.Err() != nil {
		// Consumer is gone: the accumulation never completed, so no cache
		// write and no record.
		s.logger.Warn("stream abandoned, discarding partial answer")
		return
	}

	generated := err == nil
	if err != nil {
		s.logger.Error("streaming completion failed on all models",
			zap.String("model", modelUsed),
			zap.Error(err))
		if send(ctx, "\n"+ServiceUnavailableMessage) != nil {
			return
		}
	}

	full := buf.String()
	if generated && !q.HasImage() && full != "" {
		s.cache.Set(key, full, s.policy.AnswerTTL())
	}

	s.recorder.Record(models.NewAnswerRecord(q, full, modelUsed, chunks))
}

// generate runs a non-streaming completion with the flat one-shot fallback
// policy: never recursive, never the same model twice. The returned bool
// reports whether any model produced an answer.
func (s *Service) generate(ctx context.Context, messages []providers.Message, model string) (text, modelUsed string, ok bool) {
	text, err := s.completions.Complete(ctx, s.chatRequest(model, messages))
	if err == nil {
		return text, model, true
	}
	s.logger.Error("completion failed",
		zap.String("model", model),
		zap.Error(err))

	if model != s.policy.FallbackModel {
		text, err = s.completions.Complete(ctx, s.chatRequest(s.policy.FallbackModel, messages))
		if err == nil {
			return text, s.policy.FallbackModel, true
		}
		s.logger.Error("fallback completion failed",
			zap.String("model", s.policy.FallbackModel),
			zap.Error(err))
		model = s.policy.FallbackModel
	}

	return ServiceUnavailableMessage, model, false
}

func (s *Service) selectModel(q *models.Query) string {
	if q.HasImage() {
		return s.policy.VisionModel
	}
	return s.policy.PrimaryModel
}

func (s *Service) chatRequest(model string, messages []providers.Message) *providers.ChatRequest {
	return &providers.ChatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   s.policy.MaxTokens,
		Temperature: s.policy.Temperature,
	}
}
