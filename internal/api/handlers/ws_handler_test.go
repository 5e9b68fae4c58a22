package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rewardops/pangea-analytics/backend/internal/application/services"
	"github.com/rewardops/pangea-analytics/backend/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsFrame struct {
	Type    string                    `json:"type"`
	Message string                    `json:"message"`
	Data    *entities.ResponsePayload `json:"data"`
}

func newWSTestServer(t *testing.T, processor QueryProcessor, registry *services.SessionRegistry) *httptest.Server {
	handler := NewWSHandler(processor, registry, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/{session_id}", handler.HandleSession)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func dialWS(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame wsFrame
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func TestWSQueryRoundTrip(t *testing.T) {
	processor := &stubProcessor{payload: testPayload()}
	registry := services.NewSessionRegistry()
	server := newWSTestServer(t, processor, registry)

	conn := dialWS(t, server, "session-1")

	require.NoError(t, conn.WriteJSON(map[string]string{
		"type":  "query",
		"query": "show me orders",
	}))

	status := readFrame(t, conn)
	assert.Equal(t, "status", status.Type)
	assert.Equal(t, "Processing your query...", status.Message)

	result := readFrame(t, conn)
	assert.Equal(t, "result", result.Type)
	require.NotNil(t, result.Data)
	assert.Equal(t, "**Found 3 orders:**", result.Data.Response)

	assert.Equal(t, "show me orders", processor.lastQuery)
	assert.Equal(t, "session-1", processor.lastSessionID)
}

func TestWSRegistersSession(t *testing.T) {
	registry := services.NewSessionRegistry()
	server := newWSTestServer(t, &stubProcessor{payload: testPayload()}, registry)

	conn := dialWS(t, server, "session-1")

	require.Eventually(t, func() bool {
		return registry.IsConnected("session-1")
	}, 2*time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		return !registry.IsConnected("session-1")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWSDuplicateSessionReplacesConnection(t *testing.T) {
	registry := services.NewSessionRegistry()
	server := newWSTestServer(t, &stubProcessor{payload: testPayload()}, registry)

	first := dialWS(t, server, "session-1")
	require.Eventually(t, func() bool {
		return registry.IsConnected("session-1")
	}, 2*time.Second, 10*time.Millisecond)

	second := dialWS(t, server, "session-1")

	// The displaced connection is told to go away and then closed.
	first.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := first.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway) ||
		websocket.IsUnexpectedCloseError(err))

	// The replacement still serves queries.
	require.NoError(t, second.WriteJSON(map[string]string{
		"type":  "query",
		"query": "show me orders",
	}))
	status := readFrame(t, second)
	assert.Equal(t, "status", status.Type)

	assert.Equal(t, 1, registry.Count())
}

func TestWSErrorFrameOnPanic(t *testing.T) {
	processor := &stubProcessor{panicMessage: "pipeline exploded"}
	registry := services.NewSessionRegistry()
	server := newWSTestServer(t, processor, registry)

	conn := dialWS(t, server, "session-1")

	require.NoError(t, conn.WriteJSON(map[string]string{
		"type":  "query",
		"query": "show me orders",
	}))

	status := readFrame(t, conn)
	assert.Equal(t, "status", status.Type)

	errFrame := readFrame(t, conn)
	assert.Equal(t, "error", errFrame.Type)
	assert.Equal(t, "pipeline exploded", errFrame.Message)

	// The channel survives the failure and serves the next frame.
	processor.panicMessage = ""
	processor.payload = testPayload()
	require.NoError(t, conn.WriteJSON(map[string]string{
		"type":  "query",
		"query": "show me orders",
	}))
	status = readFrame(t, conn)
	assert.Equal(t, "status", status.Type)
	result := readFrame(t, conn)
	assert.Equal(t, "result", result.Type)
}

func TestWSIgnoresUnknownFrameTypes(t *testing.T) {
	processor := &stubProcessor{payload: testPayload()}
	registry := services.NewSessionRegistry()
	server := newWSTestServer(t, processor, registry)

	conn := dialWS(t, server, "session-1")

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	require.NoError(t, conn.WriteJSON(map[string]string{
		"type":  "query",
		"query": "show me orders",
	}))

	// The first reply corresponds to the query frame; the ping got no answer.
	status := readFrame(t, conn)
	assert.Equal(t, "status", status.Type)
}
