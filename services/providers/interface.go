package providers

import "context"

// Embedder turns text into a fixed-dimension vector. Implementations must be
// deterministic for identical input and safe for concurrent use.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// IndexDocument is a chunk to be stored in the vector index.
type IndexDocument struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  map[string]string
}

// VectorMatch is one ranked similarity-search result.
type VectorMatch struct {
	ID       string
	Score    float64 // normalized similarity, higher is closer
	Content  string
	Metadata map[string]string
}

// VectorIndex is the similarity-search collaborator. The filter is a
// conjunction of equality constraints over metadata fields; an absent field
// is unconstrained.
type VectorIndex interface {
	Query(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]VectorMatch, error)
	Upsert(ctx context.Context, docs []IndexDocument) error
	Count() int
}

// Message roles
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Part is one piece of a message: plain text or an image reference.
type Part struct {
	Text     string
	ImageURL string
}

// Message is a role-tagged chat message. Most messages carry a single text
// part; vision questions carry an image part followed by a text part.
type Message struct {
	Role  string
	Parts []Part
}

// TextMessage builds a single-part plain-text message.
func TextMessage(role, text string) Message {
	return Message{Role: role, Parts: []Part{{Text: text}}}
}

// VisionMessage builds a user message carrying an image and a text part.
func VisionMessage(imageURL, text string) Message {
	return Message{Role: RoleUser, Parts: []Part{{ImageURL: imageURL}, {Text: text}}}
}

// ChatRequest is a completion request against a named model.
type ChatRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// TokenFunc receives one streamed token. Returning an error stops the stream;
// implementations must return ctx.Err() when the consumer is gone.
type TokenFunc func(ctx context.Context, token string) error

// CompletionClient is the hosted-LLM collaborator.
type CompletionClient interface {
	// Complete runs a non-streaming completion and returns the full text.
	Complete(ctx context.Context, req *ChatRequest) (string, error)

	// CompleteStream runs a streaming completion, invoking fn per token.
	CompleteStream(ctx context.Context, req *ChatRequest, fn TokenFunc) error
}
