package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	err := WriteJSON(w, http.StatusCreated, map[string]string{"key": "value"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "value", body["key"])
}

func TestWriteJSON_NilBody(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, WriteJSON(w, http.StatusOK, nil))
	assert.Empty(t, w.Body.String())
}

func TestWriteBadRequest(t *testing.T) {
	w := httptest.NewRecorder()
	err := WriteBadRequest(w, "bad payload", map[string]interface{}{"field": "question"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "bad_request", resp.Error)
	assert.Equal(t, "bad payload", resp.Message)
	assert.Equal(t, "question", resp.Details["field"])
}

func TestWriteValidationError(t *testing.T) {
	validationErr := ValidateStruct(&sampleRequest{})
	require.Error(t, validationErr)

	w := httptest.NewRecorder()
	require.NoError(t, WriteValidationError(w, validationErr))

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "validation_failed", resp.Error)
	assert.Contains(t, resp.Details, "Question")
}

func TestWriteTooManyRequests(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, WriteTooManyRequests(w, "slow down"))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "rate_limited", resp.Error)
}

func TestWriteInternalError(t *testing.T) {
	t.Run("custom message", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, WriteInternalError(w, "something broke"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "something broke", resp.Message)
	})

	t.Run("default message", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, WriteInternalError(w, ""))

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "An internal error occurred", resp.Message)
	})
}
