package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vidyalabs/tutor-backend/models"
	"github.com/vidyalabs/tutor-backend/services"
	"github.com/vidyalabs/tutor-backend/services/answer"
	"github.com/vidyalabs/tutor-backend/utils"
)

// AskRequest is the payload for POST /api/ask
type AskRequest struct {
	Question    string     `json:"question" validate:"required,min=2,max=2000"`
	ClassNo     *int       `json:"class_no" validate:"omitempty,gte=6,lte=12"`
	Subject     string     `json:"subject" validate:"omitempty,oneof=science social_science"`
	Language    string     `json:"language" validate:"omitempty,oneof=english hindi"`
	SessionID   *uuid.UUID `json:"session_id"`
	ImageBase64 string     `json:"image_base64"`
	ImageMIME   string     `json:"image_mime" validate:"omitempty,oneof=image/jpeg image/png image/webp"`
	Stream      *bool      `json:"stream"`
}

// AskService defines the interface for answering questions
type AskService interface {
	Ask(ctx context.Context, q *models.Query) (*answer.Answer, error)
	AskStream(ctx context.Context, q *models.Query) (<-chan string, error)
}

// AskHandler handles the grounded-question endpoint
type AskHandler struct {
	service AskService
	logger  *zap.Logger
}

// NewAskHandler creates a new AskHandler
func NewAskHandler(service AskService, logger *zap.Logger) *AskHandler {
	return &AskHandler{
		service: service,
		logger:  logger,
	}
}

// HandleAsk handles POST /api/ask.
// Validation failures are the only non-success responses this endpoint
// produces; everything downstream degrades in-band.
func (h *AskHandler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to parse ask request", zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		h.logger.Warn("ask request validation failed", zap.Error(err))
		_ = utils.WriteValidationError(w, err)
		return
	}

	q := req.toQuery()

	if q.Stream {
		h.streamAnswer(w, r, q)
		return
	}

	result, err := h.service.Ask(r.Context(), q)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	_ = utils.WriteOK(w, result)
}

// streamAnswer writes the token stream as chunked text/plain, flushing per
// token so the client sees the answer as it is generated.
func (h *AskHandler) streamAnswer(w http.ResponseWriter, r *http.Request, q *models.Query) {
	tokens, err := h.service.AskStream(r.Context(), q)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, canFlush := w.(http.Flusher)
	for token := range tokens {
		if _, err := w.Write([]byte(token)); err != nil {
			// Client disconnected; the producer sees the context cancel.
			return
		}
		if canFlush {
			flusher.Flush()
		}
	}
}

// writeServiceError maps service-layer failures onto the API surface. Only
// validation failures are client errors; everything else is opaque.
func (h *AskHandler) writeServiceError(w http.ResponseWriter, err error) {
	if services.IsValidationError(err) {
		h.logger.Warn("ask rejected", zap.Error(err))
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}
	h.logger.Error("ask failed",
		zap.String("error_type", string(services.GetErrorType(err))),
		zap.Error(err))
	_ = utils.WriteInternalError(w, "")
}

func (r *AskRequest) toQuery() *models.Query {
	language := models.LanguageEnglish
	if r.Language != "" {
		language = models.Language(r.Language)
	}

	mime := r.ImageMIME
	if mime == "" {
		mime = "image/jpeg"
	}

	stream := true
	if r.Stream != nil {
		stream = *r.Stream
	}

	return &models.Query{
		Question:    r.Question,
		ClassNo:     r.ClassNo,
		Subject:     models.Subject(r.Subject),
		Language:    language,
		SessionID:   r.SessionID,
		ImageBase64: r.ImageBase64,
		ImageMIME:   mime,
		Stream:      stream,
	}
}
