// Package ws pushes notifications to connected browsers over websockets.
// Delivery is best effort: a user with no open socket simply misses the
// push and reads the notification from the API later.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"immigration-case-portal/backend/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

// Hub tracks open connections per user
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[*connection]struct{}
	log   *logger.Logger

	upgrader websocket.Upgrader
}

type connection struct {
	ws   *websocket.Conn
	send chan []byte
}

// NewHub creates a hub. checkOrigin decides which origins may connect;
// nil allows same-origin only.
func NewHub(log *logger.Logger, checkOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		conns: make(map[string]map[*connection]struct{}),
		log:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Serve upgrades the request and keeps the connection registered until
// the peer goes away
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) error {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	conn := &connection{ws: ws, send: make(chan []byte, sendBufferSize)}
	h.register(userID, conn)
	h.log.Debug("websocket connected", "user_id", userID)

	go h.writeLoop(conn)
	go h.readLoop(userID, conn)
	return nil
}

// Push sends a payload to all of the user's open connections. Slow
// consumers get dropped rather than blocking the sender.
func (h *Hub) Push(userID string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Warn("websocket payload marshal failed", "error", err.Error())
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.conns[userID] {
		select {
		case conn.send <- data:
		default:
			h.log.Debug("websocket send buffer full, dropping", "user_id", userID)
		}
	}
}

// ConnectedUsers returns how many users have at least one open socket
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) register(userID string, conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*connection]struct{})
	}
	h.conns[userID][conn] = struct{}{}
}

func (h *Hub) unregister(userID string, conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.conns[userID]; ok {
		if _, ok := set[conn]; ok {
			delete(set, conn)
			close(conn.send)
			if len(set) == 0 {
				delete(h.conns, userID)
			}
		}
	}
}

// readLoop discards inbound frames; the socket is push-only. It exists to
// process pongs and detect the peer closing.
func (h *Hub) readLoop(userID string, conn *connection) {
	defer func() {
		h.unregister(userID, conn)
		conn.ws.Close()
	}()

	conn.ws.SetReadLimit(512)
	conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(conn *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.ws.Close()
	}()

	for {
		select {
		case data, ok := <-conn.send:
			conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
