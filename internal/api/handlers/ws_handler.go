package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rewardops/pangea-analytics/backend/internal/application/services"
	"github.com/rewardops/pangea-analytics/backend/internal/domain/entities"
	"github.com/rewardops/pangea-analytics/backend/internal/infrastructure/observability"
	"github.com/rs/zerolog/log"
)

const closeWriteTimeout = time.Second

// WSHandler serves the persistent per-session duplex channel. Each
// connection runs one read loop; messages on a session are handled strictly
// in arrival order with no overlapping work.
type WSHandler struct {
	service  QueryProcessor
	registry *services.SessionRegistry
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WebSocket handler
func NewWSHandler(service QueryProcessor, registry *services.SessionRegistry, metrics *observability.Metrics) *WSHandler {
	return &WSHandler{
		service:  service,
		registry: registry,
		metrics:  metrics,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type wsInbound struct {
	Type  string `json:"type"`
	Query string `json:"query"`
}

// HandleSession handles GET /ws/{session_id}: upgrades the connection,
// registers the session, and relays query frames until disconnect.
func (h *WSHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, "session id is required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("websocket upgrade failed")
		return
	}

	if displaced := h.registry.Register(sessionID, conn); displaced != nil {
		closeDisplaced(displaced)
		log.Info().Str("session_id", sessionID).Msg("replaced existing session connection")
	}
	observability.RecordWSConnected(r.Context(), h.metrics, 1)
	log.Info().Str("session_id", sessionID).Msg("websocket session connected")

	defer func() {
		h.registry.Deregister(sessionID, conn)
		conn.Close()
		observability.RecordWSConnected(r.Context(), h.metrics, -1)
		log.Info().Str("session_id", sessionID).Msg("websocket session disconnected")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg wsInbound
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("malformed websocket frame")
			return
		}

		// Unknown frame types are ignored without a reply.
		if msg.Type != "query" {
			continue
		}

		if err := conn.WriteJSON(map[string]string{
			"type":    "status",
			"message": "Processing your query...",
		}); err != nil {
			return
		}

		result, perr := h.processSafely(r, msg.Query, sessionID)
		if perr != nil {
			if err := conn.WriteJSON(map[string]string{
				"type":    "error",
				"message": perr.Error(),
			}); err != nil {
				return
			}
			continue
		}

		if err := conn.WriteJSON(map[string]interface{}{
			"type": "result",
			"data": result,
		}); err != nil {
			return
		}
	}
}

// processSafely shields the read loop from panics in the pipeline so a bad
// query becomes an error frame instead of tearing down the channel.
func (h *WSHandler) processSafely(r *http.Request, query, sessionID string) (result *entities.ResponsePayload, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("session_id", sessionID).Msg("query processing panicked")
			err = fmt.Errorf("%v", rec)
		}
	}()

	return h.service.ProcessQuery(r.Context(), query, sessionID), nil
}

// closeDisplaced tells the old connection it was replaced before closing it.
func closeDisplaced(displaced services.SessionConn) {
	if ws, ok := displaced.(*websocket.Conn); ok {
		deadline := time.Now().Add(closeWriteTimeout)
		_ = ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "session replaced"),
			deadline,
		)
	}
	_ = displaced.Close()
}
