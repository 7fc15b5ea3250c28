package websocket

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrMockClosed is returned by MockConnection reads and writes after Close.
var ErrMockClosed = errors.New("mock connection closed")

// MockConnection implements Connection in memory so pump behavior can be
// tested without a network listener.
type MockConnection struct {
	mu           sync.Mutex
	written      [][]byte
	writtenTypes []int
	inbound      chan []byte
	closed       bool

	readLimit     int64
	readDeadline  time.Time
	writeDeadline time.Time
	pongHandler   func(string) error
}

func NewMockConnection() *MockConnection {
	return &MockConnection{
		inbound: make(chan []byte, 16),
	}
}

func (m *MockConnection) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrMockClosed
	}
	msg := make([]byte, len(data))
	copy(msg, data)
	m.written = append(m.written, msg)
	m.writtenTypes = append(m.writtenTypes, messageType)
	return nil
}

func (m *MockConnection) ReadMessage() (int, []byte, error) {
	msg, ok := <-m.inbound
	if !ok {
		return 0, nil, ErrMockClosed
	}
	return websocket.TextMessage, msg, nil
}

func (m *MockConnection) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.inbound)
	}
	return nil
}

func (m *MockConnection) SetReadDeadline(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readDeadline = t
	return nil
}

func (m *MockConnection) SetWriteDeadline(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeDeadline = t
	return nil
}

func (m *MockConnection) SetReadLimit(limit int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readLimit = limit
}

func (m *MockConnection) SetPongHandler(h func(appData string) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pongHandler = h
}

func (m *MockConnection) RemoteAddr() string {
	return "mock-remote"
}

// QueueIncoming makes data available to the next ReadMessage call.
func (m *MockConnection) QueueIncoming(data []byte) {
	m.inbound <- data
}

// WrittenMessages returns a copy of everything written so far.
func (m *MockConnection) WrittenMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.written))
	copy(out, m.written)
	return out
}

// WrittenTypes returns the websocket frame type of each write, in order.
func (m *MockConnection) WrittenTypes() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.writtenTypes))
	copy(out, m.writtenTypes)
	return out
}

// IsClosed reports whether Close has been called.
func (m *MockConnection) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// ReadLimit returns the limit set by the read pump.
func (m *MockConnection) ReadLimit() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readLimit
}

// TriggerPong invokes the registered pong handler, if any.
func (m *MockConnection) TriggerPong(appData string) error {
	m.mu.Lock()
	h := m.pongHandler
	m.mu.Unlock()
	if h == nil {
		return nil
	}
	return h(appData)
}
