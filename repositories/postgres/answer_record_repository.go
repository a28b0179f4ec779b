package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/vidyalabs/tutor-backend/models"
	"github.com/vidyalabs/tutor-backend/repositories"
)

const defaultListLimit = 50

// AnswerRecordRepository implements repositories.AnswerRecordRepository
type AnswerRecordRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAnswerRecordRepository creates a new answer record repository
func NewAnswerRecordRepository(db *DB, logger *zap.Logger) repositories.AnswerRecordRepository {
	return &AnswerRecordRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new answer record
func (r *AnswerRecordRepository) Insert(ctx context.Context, rec *models.AnswerRecord) error {
	sources, err := json.Marshal(rec.Sources)
	if err != nil {
		return fmt.Errorf("failed to encode sources: %w", err)
	}

	query := `
		INSERT INTO answer_records (
			id, session_id, question, answer, class_no, subject,
			language, has_image, sources, from_cache, model_used, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`

	_, err = r.db.ExecContext(ctx, query,
		rec.ID,
		rec.SessionID,
		rec.Question,
		rec.Answer,
		rec.ClassNo,
		nullString(rec.Subject),
		rec.Language,
		rec.HasImage,
		sources,
		rec.FromCache,
		nullString(rec.ModelUsed),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert answer record: %w", err)
	}

	r.logger.Debug("answer record inserted", zap.String("id", rec.ID.String()))
	return nil
}

// List returns records matching the filter, newest first.
func (r *AnswerRecordRepository) List(ctx context.Context, filter repositories.AnswerRecordFilter) ([]*models.AnswerRecord, error) {
	query := `
		SELECT id, session_id, question, answer, class_no, subject,
		       language, has_image, sources, from_cache, model_used, created_at
		FROM answer_records
	`

	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	if filter.SessionID != nil {
		args = append(args, *filter.SessionID)
		conditions = append(conditions, "session_id = $"+strconv.Itoa(len(args)))
	}
	if filter.ClassNo != nil {
		args = append(args, *filter.ClassNo)
		conditions = append(conditions, "class_no = $"+strconv.Itoa(len(args)))
	}
	if filter.Subject != "" {
		args = append(args, filter.Subject)
		conditions = append(conditions, "subject = $"+strconv.Itoa(len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)
	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list answer records: %w", err)
	}
	defer rows.Close()

	records := make([]*models.AnswerRecord, 0)
	for rows.Next() {
		rec, err := scanAnswerRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate answer records: %w", err)
	}

	return records, nil
}

func scanAnswerRecord(rows *sql.Rows) (*models.AnswerRecord, error) {
	rec := &models.AnswerRecord{}
	var subject, modelUsed sql.NullString
	var sources []byte

	err := rows.Scan(
		&rec.ID,
		&rec.SessionID,
		&rec.Question,
		&rec.Answer,
		&rec.ClassNo,
		&subject,
		&rec.Language,
		&rec.HasImage,
		&sources,
		&rec.FromCache,
		&modelUsed,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan answer record: %w", err)
	}

	rec.Subject = subject.String
	rec.ModelUsed = modelUsed.String
	if len(sources) > 0 {
		if err := json.Unmarshal(sources, &rec.Sources); err != nil {
			return nil, fmt.Errorf("failed to decode sources: %w", err)
		}
	}

	return rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
