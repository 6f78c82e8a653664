package test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// MessageHandler processes a received message and returns the frames to send
// back, in order. Each frame is marshalled with WriteJSON.
type MessageHandler func([]byte) []interface{}

// MockWebSocketServer is a websocket gateway for tests. It greets every
// connection with the queued messages, then answers client commands with the
// handler registered for their "event" field.
type MockWebSocketServer struct {
	Server *httptest.Server
	// URL is the ws:// address of the server
	URL string

	connections      []*websocket.Conn
	receivedMessages [][]byte
	messagesToSend   [][]byte
	closeCodes       []int
	messageHandlers  map[string]MessageHandler
	mu               sync.Mutex
	upgrader         websocket.Upgrader
}

// NewMockWebSocketServer creates and starts a new mock WebSocket server
func NewMockWebSocketServer() *MockWebSocketServer {
	mock := &MockWebSocketServer{
		messageHandlers: make(map[string]MessageHandler),
		upgrader: websocket.Upgrader{
			// Allow all origins for testing
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	mock.Server = httptest.NewServer(http.HandlerFunc(mock.handleWebSocket))
	mock.URL = "ws" + mock.Server.URL[len("http"):]

	return mock
}

func (m *MockWebSocketServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	m.mu.Lock()
	m.connections = append(m.connections, conn)
	greeting := append([][]byte(nil), m.messagesToSend...)
	m.mu.Unlock()

	// a single goroutine owns the writes on conn
	go m.serve(conn, greeting)
}

func (m *MockWebSocketServer) serve(conn *websocket.Conn, greeting [][]byte) {
	for _, msg := range greeting {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				m.mu.Lock()
				m.closeCodes = append(m.closeCodes, ce.Code)
				m.mu.Unlock()
			}
			return
		}

		m.mu.Lock()
		m.receivedMessages = append(m.receivedMessages, message)
		handler, ok := m.messageHandlers[eventOf(message)]
		m.mu.Unlock()

		if !ok {
			continue
		}
		for _, response := range handler(message) {
			if err := conn.WriteJSON(response); err != nil {
				return
			}
		}
	}
}

// QueueMessage adds a message sent to every new connection
func (m *MockWebSocketServer) QueueMessage(message []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messagesToSend = append(m.messagesToSend, message)
}

// GetReceivedMessages returns all messages received from clients
func (m *MockWebSocketServer) GetReceivedMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.receivedMessages...)
}

// GetCloseCodes returns the codes of the close frames received from clients
func (m *MockWebSocketServer) GetCloseCodes() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.closeCodes...)
}

// CloseConnections sends a close frame with code to every client.
func (m *MockWebSocketServer) CloseConnections(code int, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, conn := range m.connections {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline())
	}
}

// Close shuts down the mock server and closes all connections
func (m *MockWebSocketServer) Close() {
	m.mu.Lock()
	for _, conn := range m.connections {
		conn.Close()
	}
	m.mu.Unlock()
	m.Server.Close()
}

// RegisterHandler registers a handler for commands whose "event" field is event
func (m *MockWebSocketServer) RegisterHandler(event string, handler MessageHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messageHandlers[event] = handler
}

func eventOf(message []byte) string {
	var msg struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(message, &msg); err != nil {
		return ""
	}
	return msg.Event
}

func deadline() time.Time {
	return time.Now().Add(time.Second)
}
