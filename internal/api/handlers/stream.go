package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sidkm/sift/internal/contracts"
	"github.com/sidkm/sift/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// StreamHandler pushes completed scan results to websocket clients.
// The scheduler calls Broadcast after every scheduled scan; slow
// clients are dropped rather than allowed to stall the broadcast.
type StreamHandler struct {
	upgrader websocket.Upgrader
	logger   *logger.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]chan interface{}
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:  log,
		clients: make(map[*websocket.Conn]chan interface{}),
	}
}

// Serve upgrades the connection and streams scan broadcasts
// GET /ws/scans
func (h *StreamHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	send := make(chan interface{}, 16)
	h.mu.Lock()
	h.clients[conn] = send
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Infof("WebSocket client connected (%d total)", count)

	go h.writeLoop(conn, send)
	h.readLoop(conn)
}

// Broadcast sends a scan result to every connected client
func (h *StreamHandler) Broadcast(strategy contracts.StrategyType, set *contracts.RecommendationSet) {
	payload := map[string]interface{}{
		"type":      "scan_result",
		"strategy":  strategy,
		"result":    set,
		"timestamp": time.Now().UTC(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, send := range h.clients {
		select {
		case send <- payload:
		default:
			// Client is not keeping up
			delete(h.clients, conn)
			close(send)
			conn.Close()
		}
	}
}

// ClientCount returns the number of connected clients
func (h *StreamHandler) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *StreamHandler) writeLoop(conn *websocket.Conn, send chan interface{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case payload, ok := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(payload); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *StreamHandler) readLoop(conn *websocket.Conn) {
	defer h.drop(conn)

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *StreamHandler) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if send, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(send)
	}
	h.mu.Unlock()
	conn.Close()
}
