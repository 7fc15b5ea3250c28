package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"ecompulse/internal/config"
	"ecompulse/internal/infrastructure"
	"ecompulse/internal/operations"
)

// Message type constants for the progress stream.
const (
	TypeConnection  = "connection"
	TypeRunSnapshot = "run:snapshot"
)

// broadcastQueueSize bounds the outbound queue. Snapshots supersede each
// other, so dropping under pressure loses nothing a later snapshot does
// not restate.
const broadcastQueueSize = 64

// Envelope is the wire frame for every message on the progress stream.
type Envelope struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// Hub fans run snapshots out to every connected progress client. It
// implements operations.ProgressHub.
type Hub struct {
	cfg config.WebSocketConfig

	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *slog.Logger

	// Most recent snapshot, replayed to late joiners.
	lastSnapshot []byte

	totalConnections int64
	messagesSent     int64
	messagesDropped  int64

	quit    chan struct{}
	running bool
}

// NewHub creates a progress hub with the given stream configuration.
func NewHub(cfg config.WebSocketConfig, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = logger.With(slog.String("component", "websocket.hub"))

	return &Hub{
		cfg:        cfg,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, broadcastQueueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
		quit:       make(chan struct{}),
	}
}

// Start launches the hub loop. Idempotent.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
}

// Run is the hub's main loop. Start runs it in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			// Closing sends here keeps channel closes in the one
			// goroutine that writes to them.
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()

			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.totalConnections++
			count := len(h.clients)
			snapshot := h.lastSnapshot
			h.mu.Unlock()

			h.logger.Info("progress client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			h.greet(client, snapshot)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				count := len(h.clients)
				h.mu.Unlock()

				h.logger.Info("progress client unregistered",
					slog.Int("total_clients", count),
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			sent := int64(0)
			for _, client := range clients {
				select {
				case client.send <- message:
					sent++
				default:
					// Buffer full: the client stopped reading.
					h.mu.Lock()
					close(client.send)
					delete(h.clients, client)
					h.mu.Unlock()

					h.logger.Warn("client send buffer full, disconnecting",
						slog.String("client_id", client.id))
				}
			}

			h.mu.Lock()
			h.messagesSent += sent
			h.mu.Unlock()
		}
	}
}

// greet welcomes a new client and replays the latest snapshot so it does
// not wait for the next transition to see the run state.
func (h *Hub) greet(client *Client, snapshot []byte) {
	welcome, err := json.Marshal(Envelope{
		Type: TypeConnection,
		Data: map[string]string{
			"status":    "connected",
			"message":   "connected to analysis progress stream",
			"client_id": client.id,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err == nil {
		select {
		case client.send <- welcome:
		default:
		}
	}

	if snapshot != nil {
		select {
		case client.send <- snapshot:
		default:
		}
	}
}

// BroadcastRun publishes a run snapshot to all clients. Called by the
// pipeline manager on every state transition.
func (h *Hub) BroadcastRun(snapshot operations.RunSnapshot) {
	data, err := json.Marshal(Envelope{
		Type:      TypeRunSnapshot,
		Data:      snapshot,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		h.logger.Error("marshal run snapshot failed",
			slog.String("run_id", snapshot.ID),
			slog.String("error", err.Error()))
		return
	}

	h.mu.Lock()
	h.lastSnapshot = data
	h.mu.Unlock()

	select {
	case h.broadcast <- data:
	default:
		// Queue full or hub not running; the next snapshot carries
		// the complete state anyway.
		h.mu.Lock()
		h.messagesDropped++
		h.mu.Unlock()
	}
}

// Register hands a client to the hub loop.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats reports hub counters for the health endpoint.
func (h *Hub) Stats() map[string]int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return map[string]int64{
		"active_clients":    int64(len(h.clients)),
		"total_connections": h.totalConnections,
		"messages_sent":     h.messagesSent,
		"messages_dropped":  h.messagesDropped,
	}
}

// Stop shuts the hub down; the hub loop closes every client on its way
// out. Idempotent.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
}
