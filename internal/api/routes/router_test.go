package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rewardops/pangea-analytics/backend/internal/api/handlers"
	"github.com/rewardops/pangea-analytics/backend/internal/application/services"
	"github.com/rewardops/pangea-analytics/backend/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProcessor struct{}

func (stubProcessor) ProcessQuery(ctx context.Context, query, sessionID string) *entities.ResponsePayload {
	return &entities.ResponsePayload{
		Response:  "**Found 3 orders:**",
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func newRouterTestServer(t *testing.T) *httptest.Server {
	registry := services.NewSessionRegistry()
	queryHandler := handlers.NewQueryHandler(stubProcessor{}, registry, "pangea-analytics-api")
	wsHandler := handlers.NewWSHandler(stubProcessor{}, registry, nil)

	server := httptest.NewServer(NewRouter(queryHandler, wsHandler, nil))
	t.Cleanup(server.Close)
	return server
}

func TestRouterHealth(t *testing.T) {
	server := newRouterTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

// The WebSocket upgrade hijacks the connection, so it must survive every
// response-writer wrapper in the middleware chain, not just a bare mux.
func TestRouterWebSocketUpgradeThroughMiddleware(t *testing.T) {
	server := newRouterTestServer(t)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/session-1"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err, "upgrade must succeed through the full middleware chain")
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.NoError(t, conn.WriteJSON(map[string]string{
		"type":  "query",
		"query": "show me orders",
	}))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var status struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	require.NoError(t, conn.ReadJSON(&status))
	assert.Equal(t, "status", status.Type)

	var result struct {
		Type string                    `json:"type"`
		Data *entities.ResponsePayload `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&result))
	assert.Equal(t, "result", result.Type)
	require.NotNil(t, result.Data)
	assert.Equal(t, "**Found 3 orders:**", result.Data.Response)
}

func TestRouterCORSPreflight(t *testing.T) {
	server := newRouterTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, server.URL+"/api/query", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
