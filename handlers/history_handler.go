package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vidyalabs/tutor-backend/models"
	"github.com/vidyalabs/tutor-backend/repositories"
	"github.com/vidyalabs/tutor-backend/utils"
)

// HistoryHandler serves recent answer records
type HistoryHandler struct {
	records repositories.AnswerRecordRepository
	logger  *zap.Logger
}

// NewHistoryHandler creates a new HistoryHandler
func NewHistoryHandler(records repositories.AnswerRecordRepository, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		records: records,
		logger:  logger,
	}
}

// HandleList handles GET /api/doubts?class_no=10&subject=science&session_id=...
func (h *HistoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter := repositories.AnswerRecordFilter{}

	if raw := r.URL.Query().Get("class_no"); raw != "" {
		classNo, err := strconv.Atoi(raw)
		if err != nil || classNo < models.ClassMin || classNo > models.ClassMax {
			_ = utils.WriteBadRequest(w, "class_no must be an integer between 6 and 12", nil)
			return
		}
		filter.ClassNo = &classNo
	}

	if subject := r.URL.Query().Get("subject"); subject != "" {
		if !models.Subject(subject).Valid() {
			_ = utils.WriteBadRequest(w, "unknown subject", nil)
			return
		}
		filter.Subject = subject
	}

	if raw := r.URL.Query().Get("session_id"); raw != "" {
		sessionID, err := uuid.Parse(raw)
		if err != nil {
			_ = utils.WriteBadRequest(w, "session_id must be a UUID", nil)
			return
		}
		filter.SessionID = &sessionID
	}

	records, err := h.records.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list answer records", zap.Error(err))
		_ = utils.WriteInternalError(w, "")
		return
	}

	_ = utils.WriteOK(w, records)
}
