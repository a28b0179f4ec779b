package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vidyalabs/tutor-backend/models"
	"github.com/vidyalabs/tutor-backend/repositories"
)

type mockRecordRepo struct {
	lastFilter repositories.AnswerRecordFilter
	records    []*models.AnswerRecord
	err        error
}

func (m *mockRecordRepo) Insert(ctx context.Context, rec *models.AnswerRecord) error {
	return m.err
}

func (m *mockRecordRepo) List(ctx context.Context, filter repositories.AnswerRecordFilter) ([]*models.AnswerRecord, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

func TestHandleList_ReturnsRecords(t *testing.T) {
	repo := &mockRecordRepo{
		records: []*models.AnswerRecord{
			{ID: uuid.New(), Question: "What is gravity?", Answer: "A force.", Language: "english"},
		},
	}
	h := NewHistoryHandler(repo, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/doubts", nil)
	w := httptest.NewRecorder()
	h.HandleList(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var records []*models.AnswerRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "What is gravity?", records[0].Question)
}

func TestHandleList_AppliesFilters(t *testing.T) {
	repo := &mockRecordRepo{}
	h := NewHistoryHandler(repo, zap.NewNop())

	sessionID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/doubts?class_no=10&subject=science&session_id="+sessionID.String(), nil)
	w := httptest.NewRecorder()
	h.HandleList(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, repo.lastFilter.ClassNo)
	assert.Equal(t, 10, *repo.lastFilter.ClassNo)
	assert.Equal(t, "science", repo.lastFilter.Subject)
	require.NotNil(t, repo.lastFilter.SessionID)
	assert.Equal(t, sessionID, *repo.lastFilter.SessionID)
}

func TestHandleList_RejectsBadParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"non-integer class", "?class_no=abc"},
		{"class out of range", "?class_no=5"},
		{"unknown subject", "?subject=mathematics"},
		{"malformed session id", "?session_id=not-a-uuid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHistoryHandler(&mockRecordRepo{}, zap.NewNop())

			req := httptest.NewRequest(http.MethodGet, "/api/doubts"+tt.query, nil)
			w := httptest.NewRecorder()
			h.HandleList(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHandleList_RepositoryError(t *testing.T) {
	h := NewHistoryHandler(&mockRecordRepo{err: assert.AnError}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/doubts", nil)
	w := httptest.NewRecorder()
	h.HandleList(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
