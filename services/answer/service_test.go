package answer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vidyalabs/tutor-backend/config"
	"github.com/vidyalabs/tutor-backend/models"
	"github.com/vidyalabs/tutor-backend/services/cache"
	"github.com/vidyalabs/tutor-backend/services/providers"
)

type fakeRetriever struct {
	calls  int
	chunks []models.ContextChunk
	err    error
}

func (f *fakeRetriever) Retrieve(ctx context.Context, question string, classNo *int, subject string, topK int) ([]models.ContextChunk, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.chunks, nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []*models.AnswerRecord
}

func (f *fakeRecorder) Record(rec *models.AnswerRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
}

func (f *fakeRecorder) all() []*models.AnswerRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.AnswerRecord(nil), f.records...)
}

// fakeCompletions answers per model: a model absent from responses fails.
type fakeCompletions struct {
	mu        sync.Mutex
	responses map[string]string // model -> full answer
	calls     []string          // models invoked, in order
}

func (f *fakeCompletions) Complete(ctx context.Context, req *providers.ChatRequest) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req.Model)
	text, ok := f.responses[req.Model]
	f.mu.Unlock()
	if !ok {
		return "", errors.New("model unavailable: " + req.Model)
	}
	return text, nil
}

func (f *fakeCompletions) CompleteStream(ctx context.Context, req *providers.ChatRequest, fn providers.TokenFunc) error {
	f.mu.Lock()
	f.calls = append(f.calls, req.Model)
	text, ok := f.responses[req.Model]
	f.mu.Unlock()
	if !ok {
		return errors.New("model unavailable: " + req.Model)
	}
	// Stream word by word to exercise accumulation
	words := strings.SplitAfter(text, " ")
	for _, w := range words {
		if err := fn(ctx, w); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeCompletions) invoked() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func intPtr(v int) *int { return &v }

func textQuery() *models.Query {
	return &models.Query{
		Question: "What is photosynthesis?",
		ClassNo:  intPtr(7),
		Subject:  models.SubjectScience,
		Language: models.LanguageEnglish,
	}
}

func imageQuery() *models.Query {
	q := textQuery()
	q.ImageBase64 = "aGVsbG8="
	q.ImageMIME = "image/png"
	return q
}

type harness struct {
	svc         *Service
	retriever   *fakeRetriever
	completions *fakeCompletions
	recorder    *fakeRecorder
	cache       *cache.MemoryCache
	policy      config.Policy
}

func newHarness(completions *fakeCompletions) *harness {
	h := &harness{
		retriever: &fakeRetriever{
			chunks: []models.ContextChunk{
				{ID: "c1", Text: "Plants make food using sunlight.", Score: 0.92, Source: "science_ch1.pdf", ChapterTitle: "Nutrition in Plants"},
			},
		},
		completions: completions,
		recorder:    &fakeRecorder{},
		cache:       cache.NewMemoryCache(16),
		policy:      config.DefaultPolicy(),
	}
	h.svc = NewService(h.retriever, h.completions, h.cache, h.recorder, h.policy, zap.NewNop())
	return h
}

func drain(t *testing.T, ch <-chan string) string {
	t.Helper()
	var b strings.Builder
	for token := range ch {
		b.WriteString(token)
	}
	return b.String()
}

// waitForRecords waits for the streaming producer goroutine to finish its
// post-drain commit.
func waitForRecords(t *testing.T, rec *fakeRecorder, n int) []*models.AnswerRecord {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if records := rec.all(); len(records) >= n {
			return records
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d records", n)
	return nil
}

func TestAsk_GeneratesCachesAndRecords(t *testing.T) {
	policy := config.DefaultPolicy()
	h := newHarness(&fakeCompletions{responses: map[string]string{
		policy.PrimaryModel: "Photosynthesis is how plants make food.",
	}})

	ans, err := h.svc.Ask(context.Background(), textQuery())
	require.NoError(t, err)

	assert.Equal(t, "Photosynthesis is how plants make food.", ans.Text)
	assert.False(t, ans.FromCache)
	assert.Equal(t, policy.PrimaryModel, ans.ModelUsed)
	require.Len(t, ans.Sources, 1)
	assert.Equal(t, "c1", ans.Sources[0].ID)

	// One record, with the grounding chunks attached
	records := h.recorder.all()
	require.Len(t, records, 1)
	assert.Equal(t, "What is photosynthesis?", records[0].Question)
	assert.Equal(t, policy.PrimaryModel, records[0].ModelUsed)
	assert.Len(t, records[0].Sources, 1)

	// Cached under the answer namespace
	key := cache.AnswerKey("What is photosynthesis?", intPtr(7), "science")
	cached, ok := h.cache.Get(key)
	assert.True(t, ok)
	assert.Equal(t, ans.Text, cached)
}

func TestAsk_CacheHitSkipsRetrievalAndGeneration(t *testing.T) {
	policy := config.DefaultPolicy()
	h := newHarness(&fakeCompletions{responses: map[string]string{
		policy.PrimaryModel: "Photosynthesis is how plants make food.",
	}})

	_, err := h.svc.Ask(context.Background(), textQuery())
	require.NoError(t, err)

	ans, err := h.svc.Ask(context.Background(), textQuery())
	require.NoError(t, err)

	assert.True(t, ans.FromCache)
	assert.Equal(t, "Photosynthesis is how plants make food.", ans.Text)
	assert.Empty(t, ans.ModelUsed)
	assert.NotNil(t, ans.Sources)
	assert.Empty(t, ans.Sources)

	// No second retrieval, completion, or record
	assert.Equal(t, 1, h.retriever.calls)
	assert.Len(t, h.completions.invoked(), 1)
	assert.Len(t, h.recorder.all(), 1)
}

func TestAsk_FallbackOnPrimaryFailure(t *testing.T) {
	policy := config.DefaultPolicy()
	h := newHarness(&fakeCompletions{responses: map[string]string{
		policy.FallbackModel: "Answer from the fallback model.",
	}})

	ans, err := h.svc.Ask(context.Background(), textQuery())
	require.NoError(t, err)

	assert.Equal(t, "Answer from the fallback model.", ans.Text)
	assert.Equal(t, policy.FallbackModel, ans.ModelUsed)
	assert.Equal(t, []string{policy.PrimaryModel, policy.FallbackModel}, h.completions.invoked())

	// Fallback answers are cached like any other
	key := cache.AnswerKey("What is photosynthesis?", intPtr(7), "science")
	_, ok := h.cache.Get(key)
	assert.True(t, ok)
}

func TestAsk_AllModelsFail(t *testing.T) {
	policy := config.DefaultPolicy()
	h := newHarness(&fakeCompletions{responses: map[string]string{}})

	ans, err := h.svc.Ask(context.Background(), textQuery())
	require.NoError(t, err)

	// In-band error sentence, success semantics
	assert.Equal(t, ServiceUnavailableMessage, ans.Text)
	assert.Equal(t, []string{policy.PrimaryModel, policy.FallbackModel}, h.completions.invoked())

	// Recorded for audit, never cached
	require.Len(t, h.recorder.all(), 1)
	assert.Equal(t, ServiceUnavailableMessage, h.recorder.all()[0].Answer)

	key := cache.AnswerKey("What is photosynthesis?", intPtr(7), "science")
	_, ok := h.cache.Get(key)
	assert.False(t, ok)
}

func TestAsk_ImageSelectsVisionModelAndSkipsCache(t *testing.T) {
	policy := config.DefaultPolicy()
	h := newHarness(&fakeCompletions{responses: map[string]string{
		policy.VisionModel: "The diagram shows a plant cell.",
	}})

	ans, err := h.svc.Ask(context.Background(), imageQuery())
	require.NoError(t, err)

	assert.Equal(t, policy.VisionModel, ans.ModelUsed)
	assert.True(t, h.recorder.all()[0].HasImage)

	// Never cached, so an identical follow-up regenerates
	ans2, err := h.svc.Ask(context.Background(), imageQuery())
	require.NoError(t, err)
	assert.False(t, ans2.FromCache)
	assert.Len(t, h.completions.invoked(), 2)
}

func TestAsk_RetrieverErrorPropagates(t *testing.T) {
	h := newHarness(&fakeCompletions{responses: map[string]string{}})
	h.retriever.err = errors.New("embedding endpoint down")

	_, err := h.svc.Ask(context.Background(), textQuery())
	require.Error(t, err)
	assert.Empty(t, h.completions.invoked())
	assert.Empty(t, h.recorder.all())
}

func TestAskStream_AccumulationMatchesCachedValue(t *testing.T) {
	policy := config.DefaultPolicy()
	h := newHarness(&fakeCompletions{responses: map[string]string{
		policy.PrimaryModel: "Photosynthesis is how plants make food.",
	}})

	ch, err := h.svc.AskStream(context.Background(), textQuery())
	require.NoError(t, err)

	full := drain(t, ch)
	assert.Equal(t, "Photosynthesis is how plants make food.", full)

	records := waitForRecords(t, h.recorder, 1)
	assert.Equal(t, full, records[0].Answer)

	// The cached value equals the concatenation of the streamed tokens
	key := cache.AnswerKey("What is photosynthesis?", intPtr(7), "science")
	cached, ok := h.cache.Get(key)
	require.True(t, ok)
	assert.Equal(t, full, cached)
}

func TestAskStream_CacheHitYieldsSingleChunk(t *testing.T) {
	policy := config.DefaultPolicy()
	h := newHarness(&fakeCompletions{responses: map[string]string{
		policy.PrimaryModel: "Photosynthesis is how plants make food.",
	}})

	ch, err := h.svc.AskStream(context.Background(), textQuery())
	require.NoError(t, err)
	drain(t, ch)
	waitForRecords(t, h.recorder, 1)

	ch, err = h.svc.AskStream(context.Background(), textQuery())
	require.NoError(t, err)

	var tokens []string
	for token := range ch {
		tokens = append(tokens, token)
	}
	require.Len(t, tokens, 1)
	assert.Equal(t, "Photosynthesis is how plants make food.", tokens[0])

	// Cache hit produces no new record or completion call
	assert.Len(t, h.recorder.all(), 1)
	assert.Len(t, h.completions.invoked(), 1)
}

func TestAskStream_FallbackAfterPrimaryFailure(t *testing.T) {
	policy := config.DefaultPolicy()
	h := newHarness(&fakeCompletions{responses: map[string]string{
		policy.FallbackModel: "Answer from the fallback model.",
	}})

	ch, err := h.svc.AskStream(context.Background(), textQuery())
	require.NoError(t, err)

	full := drain(t, ch)
	assert.Equal(t, "Answer from the fallback model.", full)
	assert.Equal(t, []string{policy.PrimaryModel, policy.FallbackModel}, h.completions.invoked())

	records := waitForRecords(t, h.recorder, 1)
	assert.Equal(t, policy.FallbackModel, records[0].ModelUsed)
}

func TestAskStream_AllModelsFailEmitsErrorSentence(t *testing.T) {
	h := newHarness(&fakeCompletions{responses: map[string]string{}})

	ch, err := h.svc.AskStream(context.Background(), textQuery())
	require.NoError(t, err)

	full := drain(t, ch)
	assert.Contains(t, full, ServiceUnavailableMessage)

	// Recorded, not cached
	waitForRecords(t, h.recorder, 1)
	key := cache.AnswerKey("What is photosynthesis?", intPtr(7), "science")
	_, ok := h.cache.Get(key)
	assert.False(t, ok)
}

func TestAskStream_CancelDiscardsPartialAnswer(t *testing.T) {
	policy := config.DefaultPolicy()

	// Block mid-stream until the context is cancelled
	completions := &blockingCompletions{
		model:  policy.PrimaryModel,
		tokens: []string{"Photosynthesis ", "is "},
	}
	h := newHarness(&fakeCompletions{})
	h.svc = NewService(h.retriever, completions, h.cache, h.recorder, h.policy, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := h.svc.AskStream(ctx, textQuery())
	require.NoError(t, err)

	// Consume the first token, then walk away
	<-ch
	cancel()

	// Producer must close the channel without emitting side effects
	for range ch {
	}
	time.Sleep(50 * time.Millisecond)

	assert.Empty(t, h.recorder.all())
	key := cache.AnswerKey("What is photosynthesis?", intPtr(7), "science")
	_, ok := h.cache.Get(key)
	assert.False(t, ok)
}

// blockingCompletions emits its tokens then blocks until cancellation.
type blockingCompletions struct {
	model  string
	tokens []string
}

func (b *blockingCompletions) Complete(ctx context.Context, req *providers.ChatRequest) (string, error) {
	return "", errors.New("not used")
}

func (b *blockingCompletions) CompleteStream(ctx context.Context, req *providers.ChatRequest, fn providers.TokenFunc) error {
	for _, tok := range b.tokens {
		if err := fn(ctx, tok); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return ctx.Err()
}
