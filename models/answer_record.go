package models

import (
	"time"

	"github.com/google/uuid"
)

// AnswerRecord is the audit entity persisted for every answered question.
// It records the question, the final answer, and the context it was
// grounded in. Useful for analytics, caching decisions, and audit.
type AnswerRecord struct {
	ID        uuid.UUID      `json:"id"`
	SessionID *uuid.UUID     `json:"session_id,omitempty"`
	Question  string         `json:"question"`
	Answer    string         `json:"answer"`
	ClassNo   *int           `json:"class_no,omitempty"`
	Subject   string         `json:"subject,omitempty"`
	Language  string         `json:"language"`
	HasImage  bool           `json:"has_image"`
	Sources   []ContextChunk `json:"sources"`
	FromCache bool           `json:"from_cache"`
	ModelUsed string         `json:"model_used,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewAnswerRecord builds a record for a freshly generated answer.
func NewAnswerRecord(q *Query, answer, modelUsed string, sources []ContextChunk) *AnswerRecord {
	return &AnswerRecord{
		ID:        uuid.New(),
		SessionID: q.SessionID,
		Question:  q.Question,
		Answer:    answer,
		ClassNo:   q.ClassNo,
		Subject:   string(q.Subject),
		Language:  string(q.Language),
		HasImage:  q.HasImage(),
		Sources:   sources,
		FromCache: false,
		ModelUsed: modelUsed,
		CreatedAt: time.Now().UTC(),
	}
}
