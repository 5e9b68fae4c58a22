package routes

import (
	"net/http"

	"github.com/rewardops/pangea-analytics/backend/internal/api/handlers"
	"github.com/rewardops/pangea-analytics/backend/internal/api/middleware"
	"github.com/rewardops/pangea-analytics/backend/internal/infrastructure/observability"
)

// NewRouter wires the HTTP and WebSocket endpoints with the middleware chain.
func NewRouter(queryHandler *handlers.QueryHandler, wsHandler *handlers.WSHandler, metrics *observability.Metrics) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", queryHandler.HealthCheck)
	mux.HandleFunc("POST /api/query", queryHandler.ProcessQuery)
	mux.HandleFunc("GET /api/sessions/{id}/status", queryHandler.GetSessionStatus)
	mux.HandleFunc("GET /ws/{session_id}", wsHandler.HandleSession)

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(metrics)(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
