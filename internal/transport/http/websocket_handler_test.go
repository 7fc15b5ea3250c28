package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecompulse/internal/config"
	"ecompulse/internal/operations"
	ws "ecompulse/internal/websocket"
)

func setupProgressServer(t *testing.T) (*ws.Hub, *httptest.Server) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := ws.NewHub(config.WebSocketConfig{}, logger)
	hub.Start()
	t.Cleanup(hub.Stop)

	handler := NewWebSocketHandler(hub, config.WebSocketConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}, logger)

	server := httptest.NewServer(http.HandlerFunc(handler.ServeProgress))
	t.Cleanup(server.Close)
	return hub, server
}

func dialProgress(t *testing.T, server *httptest.Server, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	return websocket.DefaultDialer.Dial(wsURL, header)
}

type envelope struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

func TestServeProgressSendsWelcome(t *testing.T) {
	_, server := setupProgressServer(t)

	conn, resp, err := dialProgress(t, server, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg envelope
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "connection", msg.Type)
	assert.Equal(t, "connected", msg.Data["status"])
	assert.NotEmpty(t, msg.Data["client_id"])
}

func TestServeProgressStreamsSnapshots(t *testing.T) {
	hub, server := setupProgressServer(t)

	conn, resp, err := dialProgress(t, server, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var welcome envelope
	require.NoError(t, conn.ReadJSON(&welcome))
	require.Equal(t, "connection", welcome.Type)

	hub.BroadcastRun(operations.RunSnapshot{
		ID:       "run-42",
		Status:   operations.RunStatusRunning,
		Progress: 33.4,
	})

	var snap envelope
	require.NoError(t, conn.ReadJSON(&snap))
	assert.Equal(t, "run:snapshot", snap.Type)
	assert.Equal(t, "run-42", snap.Data["id"])
	assert.Equal(t, "running", snap.Data["status"])
}

func TestServeProgressRejectsCrossOrigin(t *testing.T) {
	_, server := setupProgressServer(t)

	header := http.Header{}
	header.Set("Origin", "http://evil.example.com")

	conn, resp, err := dialProgress(t, server, header)
	require.Error(t, err)
	require.Nil(t, conn)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServeProgressRejectsPlainGET(t *testing.T) {
	_, server := setupProgressServer(t)

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
