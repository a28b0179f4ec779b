package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/vidyalabs/tutor-backend/models"
)

// AnswerRecordFilter narrows List results. Zero values mean unconstrained.
type AnswerRecordFilter struct {
	ClassNo   *int
	Subject   string
	SessionID *uuid.UUID
	Limit     int
}

// AnswerRecordRepository persists and queries answer records.
type AnswerRecordRepository interface {
	// Insert stores one answer record.
	Insert(ctx context.Context, rec *models.AnswerRecord) error

	// List returns records matching the filter, newest first.
	List(ctx context.Context, filter AnswerRecordFilter) ([]*models.AnswerRecord, error)
}
