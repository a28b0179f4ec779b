package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Policy holds the tunable answer-pipeline parameters: model selection,
// retrieval limits, and cache lifetimes. Overridable per deployment via a
// YAML policy file (TUTOR_POLICY_FILE) and individual env vars, env taking
// precedence.
type Policy struct {
	PrimaryModel  string `yaml:"primary_model"`
	VisionModel   string `yaml:"vision_model"`
	FallbackModel string `yaml:"fallback_model"`

	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`

	TopK           int     `yaml:"top_k"`
	ScoreThreshold float64 `yaml:"score_threshold"`

	RetrievalTTLSeconds int `yaml:"retrieval_ttl_seconds"`
	AnswerTTLSeconds    int `yaml:"answer_ttl_seconds"`
	CacheSize           int `yaml:"cache_size"`

	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// DefaultPolicy returns the shipped defaults.
func DefaultPolicy() Policy {
	return Policy{
		PrimaryModel:        "llama-3.1-8b-instant",
		VisionModel:         "meta-llama/llama-4-scout-17b-16e-instruct",
		FallbackModel:       "gemma2-9b-it",
		MaxTokens:           1024,
		Temperature:         0.1,
		TopK:                5,
		ScoreThreshold:      0.30,
		RetrievalTTLSeconds: 1800,
		AnswerTTLSeconds:    3600,
		CacheSize:           1024,
		RequestsPerMinute:   60,
	}
}

// loadPolicy layers: defaults <- YAML policy file <- env vars.
func loadPolicy() Policy {
	p := DefaultPolicy()

	if path := os.Getenv("TUTOR_POLICY_FILE"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			// Unknown keys are ignored; zero values in the file keep defaults
			// because we unmarshal over the populated struct.
			_ = yaml.Unmarshal(data, &p)
		}
	}

	p.PrimaryModel = getEnv("PRIMARY_MODEL", p.PrimaryModel)
	p.VisionModel = getEnv("VISION_MODEL", p.VisionModel)
	p.FallbackModel = getEnv("FALLBACK_MODEL", p.FallbackModel)
	p.MaxTokens = getEnvAsInt("MAX_TOKENS", p.MaxTokens)
	p.Temperature = getEnvAsFloat("TEMPERATURE", p.Temperature)
	p.TopK = getEnvAsInt("TOP_K_RETRIEVAL", p.TopK)
	p.ScoreThreshold = getEnvAsFloat("SCORE_THRESHOLD", p.ScoreThreshold)
	p.RetrievalTTLSeconds = getEnvAsInt("RETRIEVAL_TTL_SECONDS", p.RetrievalTTLSeconds)
	p.AnswerTTLSeconds = getEnvAsInt("ANSWER_TTL_SECONDS", p.AnswerTTLSeconds)
	p.CacheSize = getEnvAsInt("CACHE_SIZE", p.CacheSize)
	p.RequestsPerMinute = getEnvAsInt("REQUESTS_PER_MINUTE", p.RequestsPerMinute)

	return p
}

// Validate checks the policy for unusable values.
func (p *Policy) Validate() error {
	if p.PrimaryModel == "" || p.FallbackModel == "" {
		return fmt.Errorf("primary and fallback models must be set")
	}
	if p.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", p.TopK)
	}
	if p.ScoreThreshold < 0 || p.ScoreThreshold > 1 {
		return fmt.Errorf("score_threshold must be in [0,1], got %v", p.ScoreThreshold)
	}
	if p.CacheSize <= 0 {
		return fmt.Errorf("cache_size must be positive, got %d", p.CacheSize)
	}
	return nil
}

// RetrievalTTL returns the retrieval-cache entry lifetime.
func (p *Policy) RetrievalTTL() time.Duration {
	return time.Duration(p.RetrievalTTLSeconds) * time.Second
}

// AnswerTTL returns the answer-cache entry lifetime.
func (p *Policy) AnswerTTL() time.Duration {
	return time.Duration(p.AnswerTTLSeconds) * time.Second
}
