// Package langchain adapts langchaingo's OpenAI-compatible client to the
// provider contracts. Any endpoint speaking the OpenAI chat API works
// (Groq, OpenRouter, OpenAI itself).
package langchain

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/vidyalabs/tutor-backend/config"
	"github.com/vidyalabs/tutor-backend/services"
	"github.com/vidyalabs/tutor-backend/services/providers"
)

// Client implements providers.CompletionClient over langchaingo.
type Client struct {
	llm    *openai.LLM
	logger *zap.Logger
}

// NewClient creates a completion client against an OpenAI-compatible endpoint.
// The model is chosen per request, the client here is just the transport.
func NewClient(cfg config.ProviderConfig, logger *zap.Logger) (*Client, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.APIKey, "Bearer ")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize completion client: %w", err)
	}
	return &Client{llm: llm, logger: logger}, nil
}

// Complete runs a non-streaming completion.
func (c *Client) Complete(ctx context.Context, req *providers.ChatRequest) (string, error) {
	resp, err := c.llm.GenerateContent(ctx, toMessageContent(req.Messages), c.callOptions(req)...)
	if err != nil {
		return "", services.NewDomainError(services.ErrorTypeProvider, "completion failed", err).
			WithDetail("model", req.Model)
	}
	if len(resp.Choices) == 0 {
		return "", services.NewDomainError(services.ErrorTypeProvider, "completion returned no choices", nil).
			WithDetail("model", req.Model)
	}
	return resp.Choices[0].Content, nil
}

// CompleteStream runs a streaming completion, forwarding each token to fn.
func (c *Client) CompleteStream(ctx context.Context, req *providers.ChatRequest, fn providers.TokenFunc) error {
	opts := append(c.callOptions(req), llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
		if len(chunk) == 0 {
			return nil
		}
		return fn(ctx, string(chunk))
	}))

	_, err := c.llm.GenerateContent(ctx, toMessageContent(req.Messages), opts...)
	if err != nil {
		return services.NewDomainError(services.ErrorTypeProvider, "streaming completion failed", err).
			WithDetail("model", req.Model)
	}
	return nil
}

func (c *Client) callOptions(req *providers.ChatRequest) []llms.CallOption {
	return []llms.CallOption{
		llms.WithModel(req.Model),
		llms.WithMaxTokens(req.MaxTokens),
		llms.WithTemperature(req.Temperature),
	}
}

// toMessageContent converts provider messages into langchaingo content parts.
func toMessageContent(messages []providers.Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		mc := llms.MessageContent{Role: toRole(msg.Role)}
		for _, part := range msg.Parts {
			if part.ImageURL != "" {
				mc.Parts = append(mc.Parts, llms.ImageURLPart(part.ImageURL))
				continue
			}
			mc.Parts = append(mc.Parts, llms.TextPart(part.Text))
		}
		out = append(out, mc)
	}
	return out
}

func toRole(role string) llms.ChatMessageType {
	switch role {
	case providers.RoleSystem:
		return llms.ChatMessageTypeSystem
	default:
		return llms.ChatMessageTypeHuman
	}
}
