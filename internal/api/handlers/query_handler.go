package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rewardops/pangea-analytics/backend/internal/application/services"
	"github.com/rewardops/pangea-analytics/backend/internal/domain/entities"
	"github.com/rs/zerolog/log"
)

// QueryProcessor defines the analytics pipeline operations used by the
// HTTP and WebSocket handlers.
type QueryProcessor interface {
	ProcessQuery(ctx context.Context, query, sessionID string) *entities.ResponsePayload
}

// QueryHandler serves the one-shot query endpoint, session status lookups
// and the health check.
type QueryHandler struct {
	service     QueryProcessor
	registry    *services.SessionRegistry
	serviceName string
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(service QueryProcessor, registry *services.SessionRegistry, serviceName string) *QueryHandler {
	return &QueryHandler{
		service:     service,
		registry:    registry,
		serviceName: serviceName,
	}
}

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

// HealthCheck handles GET /health
func (h *QueryHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": h.serviceName,
	})
}

// ProcessQuery handles POST /api/query. Pipeline faults surface inside the
// payload; only an unexpected panic maps to a 500 with the message as detail.
func (h *QueryHandler) ProcessQuery(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("query processing panicked")
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("%v", rec))
		}
	}()

	var payload queryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if payload.Query == "" {
		respondWithError(w, http.StatusBadRequest, "query is required")
		return
	}
	if payload.SessionID == "" {
		payload.SessionID = uuid.NewString()
	}

	result := h.service.ProcessQuery(r.Context(), payload.Query, payload.SessionID)

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    result,
	})
}

// GetSessionStatus handles GET /api/sessions/{id}/status. The connection
// count covers all currently registered sessions, independent of the id
// being queried.
func (h *QueryHandler) GetSessionStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"session_id":       sessionID,
		"connected":        h.registry.IsConnected(sessionID),
		"connection_count": h.registry.Count(),
	})
}
