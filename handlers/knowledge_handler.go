package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/vidyalabs/tutor-backend/services/knowledge"
	"github.com/vidyalabs/tutor-backend/utils"
)

// UpsertChunksRequest is the payload for POST /api/knowledge/chunks
type UpsertChunksRequest struct {
	Chunks []knowledge.ChunkInput `json:"chunks" validate:"required,min=1,max=200,dive"`
}

// KnowledgeHandler manages the curriculum index
type KnowledgeHandler struct {
	service *knowledge.Service
	logger  *zap.Logger
}

// NewKnowledgeHandler creates a new KnowledgeHandler
func NewKnowledgeHandler(service *knowledge.Service, logger *zap.Logger) *KnowledgeHandler {
	return &KnowledgeHandler{
		service: service,
		logger:  logger,
	}
}

// HandleUpsertChunks handles POST /api/knowledge/chunks
func (h *KnowledgeHandler) HandleUpsertChunks(w http.ResponseWriter, r *http.Request) {
	var req UpsertChunksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		_ = utils.WriteValidationError(w, err)
		return
	}

	indexed, err := h.service.UpsertChunks(r.Context(), req.Chunks)
	if err != nil {
		h.logger.Error("failed to index chunks", zap.Error(err))
		_ = utils.WriteInternalError(w, "Failed to index chunks")
		return
	}

	_ = utils.WriteOK(w, map[string]int{"indexed": indexed})
}

// HandleStats handles GET /api/knowledge/stats
func (h *KnowledgeHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, map[string]int{"documents": h.service.Count()})
}
