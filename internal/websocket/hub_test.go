package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecompulse/internal/config"
	"ecompulse/internal/operations"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(config.WebSocketConfig{}, quietLogger())
	h.Start()
	t.Cleanup(h.Stop)
	return h
}

func newTestClient(h *Hub, sendBuffer int) *Client {
	return &Client{
		hub:    h,
		conn:   NewMockConnection(),
		send:   make(chan []byte, sendBuffer),
		id:     "test-client",
		logger: quietLogger(),
	}
}

func waitForMessage(t *testing.T, ch chan []byte) Envelope {
	t.Helper()
	select {
	case raw := <-ch:
		var env Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for hub message")
		return Envelope{}
	}
}

func TestNewHubStartsEmpty(t *testing.T) {
	h := NewHub(config.WebSocketConfig{}, quietLogger())

	assert.Equal(t, 0, h.ClientCount())
	assert.NotNil(t, h.clients)
	assert.False(t, h.running)
}

func TestStartAndStopAreIdempotent(t *testing.T) {
	h := NewHub(config.WebSocketConfig{}, quietLogger())

	h.Start()
	h.Start()
	h.Stop()
	h.Stop()

	assert.Equal(t, 0, h.ClientCount())
}

func TestRegisterSendsWelcome(t *testing.T) {
	h := testHub(t)
	client := newTestClient(h, 8)

	h.Register(client)

	env := waitForMessage(t, client.send)
	assert.Equal(t, TypeConnection, env.Type)
	assert.NotEmpty(t, env.Timestamp)

	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "connected", data["status"])
	assert.Equal(t, "test-client", data["client_id"])

	assert.Eventually(t, func() bool {
		return h.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestBroadcastRunDeliversSnapshot(t *testing.T) {
	h := testHub(t)
	client := newTestClient(h, 8)
	h.Register(client)
	waitForMessage(t, client.send)

	h.BroadcastRun(operations.RunSnapshot{
		ID:       "run-42",
		Status:   operations.RunStatusRunning,
		Progress: 0.5,
	})

	env := waitForMessage(t, client.send)
	assert.Equal(t, TypeRunSnapshot, env.Type)

	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "run-42", data["id"])
	assert.Equal(t, string(operations.RunStatusRunning), data["status"])
	assert.InDelta(t, 0.5, data["progress"], 1e-9)
}

func TestLateJoinerReceivesLastSnapshot(t *testing.T) {
	h := testHub(t)

	h.BroadcastRun(operations.RunSnapshot{
		ID:     "run-history",
		Status: operations.RunStatusCompleted,
	})

	// Give the hub a moment to drain the broadcast queue.
	assert.Eventually(t, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		return h.lastSnapshot != nil
	}, time.Second, 10*time.Millisecond)

	client := newTestClient(h, 8)
	h.Register(client)

	welcome := waitForMessage(t, client.send)
	assert.Equal(t, TypeConnection, welcome.Type)

	replay := waitForMessage(t, client.send)
	assert.Equal(t, TypeRunSnapshot, replay.Type)
	data, ok := replay.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "run-history", data["id"])
}

func TestSlowClientIsDisconnected(t *testing.T) {
	h := testHub(t)
	client := newTestClient(h, 1)
	h.Register(client)

	// The welcome message fills the single-slot buffer, so the next
	// broadcast cannot be delivered and the hub drops the client.
	assert.Eventually(t, func() bool {
		return h.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	h.BroadcastRun(operations.RunSnapshot{ID: "run-slow", Status: operations.RunStatusRunning})

	assert.Eventually(t, func() bool {
		return h.ClientCount() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestBroadcastWithoutRunningHubDoesNotBlock(t *testing.T) {
	h := NewHub(config.WebSocketConfig{}, quietLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < broadcastQueueSize+8; i++ {
			h.BroadcastRun(operations.RunSnapshot{ID: "run-queued"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked with no hub goroutine running")
	}

	stats := h.Stats()
	assert.Greater(t, stats["messages_dropped"], int64(0))
}

func TestUnregisterRemovesClient(t *testing.T) {
	h := testHub(t)
	client := newTestClient(h, 8)
	h.Register(client)
	waitForMessage(t, client.send)

	h.unregister <- client

	assert.Eventually(t, func() bool {
		return h.ClientCount() == 0
	}, time.Second, 10*time.Millisecond)

	stats := h.Stats()
	assert.Equal(t, int64(1), stats["total_connections"])
	assert.Equal(t, int64(0), stats["active_clients"])
}

func TestStatsCountsMessages(t *testing.T) {
	h := testHub(t)
	client := newTestClient(h, 8)
	h.Register(client)
	waitForMessage(t, client.send)

	h.BroadcastRun(operations.RunSnapshot{ID: "run-a", Status: operations.RunStatusRunning})
	waitForMessage(t, client.send)

	assert.Eventually(t, func() bool {
		return h.Stats()["messages_sent"] >= 1
	}, time.Second, 10*time.Millisecond)
}
