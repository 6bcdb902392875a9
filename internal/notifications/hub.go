package notifications

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 32
)

// Hub fans notifications out to the WebSocket connections of a session
type Hub struct {
	sessions map[string]map[string]*Connection
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// Connection represents a WebSocket client connection
type Connection struct {
	ID        string
	SessionID string
	Conn      *websocket.Conn
	Send      chan WebSocketMessage
	closeOnce sync.Once
}

// NewHub creates a new notification hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]map[string]*Connection),
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Publish logs n and delivers it to every connection of sessionID.
// Slow clients drop messages instead of blocking the caller.
func (h *Hub) Publish(ctx context.Context, sessionID string, n Notification) {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	fields := []zap.Field{
		zap.String("session_id", sessionID),
		zap.String("level", string(n.Level)),
		zap.String("message", n.Message),
	}
	if n.Description != "" {
		fields = append(fields, zap.String("description", n.Description))
	}
	h.logger.Debug("Notification", fields...)

	msg := WebSocketMessage{
		Type:      "notification",
		Data:      n,
		Timestamp: n.Timestamp,
		Target:    sessionID,
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.sessions[sessionID] {
		select {
		case conn.Send <- msg:
		default:
			h.logger.Warn("Dropping notification for slow client",
				zap.String("session_id", sessionID),
				zap.String("connection_id", conn.ID))
		}
	}
}

// HandleConnection upgrades the request and subscribes it to sessionID
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request, sessionID string) (*Connection, error) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Conn:      conn,
		Send:      make(chan WebSocketMessage, sendBuffer),
	}

	h.register(connection)

	go h.readPump(connection)
	go h.writePump(connection)

	return connection, nil
}

// ConnectionCount returns the number of live connections for sessionID
func (h *Hub) ConnectionCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// Close disconnects every client of sessionID
func (h *Hub) Close(sessionID string) {
	h.mu.Lock()
	conns := h.sessions[sessionID]
	delete(h.sessions, sessionID)
	h.mu.Unlock()

	for _, conn := range conns {
		conn.close()
	}
}

// Shutdown disconnects every client
func (h *Hub) Shutdown() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]map[string]*Connection)
	h.mu.Unlock()

	for _, conns := range sessions {
		for _, conn := range conns {
			conn.close()
		}
	}
}

func (h *Hub) register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sessions[conn.SessionID] == nil {
		h.sessions[conn.SessionID] = make(map[string]*Connection)
	}
	h.sessions[conn.SessionID][conn.ID] = conn
}

func (h *Hub) unregister(conn *Connection) {
	h.mu.Lock()
	if conns, ok := h.sessions[conn.SessionID]; ok {
		delete(conns, conn.ID)
		if len(conns) == 0 {
			delete(h.sessions, conn.SessionID)
		}
	}
	h.mu.Unlock()

	conn.close()
}

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.Send)
	})
}

// readPump discards client frames and tracks liveness
func (h *Hub) readPump(conn *Connection) {
	defer func() {
		h.unregister(conn)
		conn.Conn.Close()
	}()

	conn.Conn.SetReadLimit(512)
	conn.Conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.Conn.SetPongHandler(func(string) error {
		conn.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("WebSocket read error", zap.String("connection_id", conn.ID), zap.Error(err))
			}
			return
		}
	}
}

// writePump writes queued messages and keepalive pings
func (h *Hub) writePump(conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-conn.Send:
			conn.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.Conn.WriteJSON(msg); err != nil {
				h.logger.Debug("WebSocket write error", zap.String("connection_id", conn.ID), zap.Error(err))
				return
			}
		case <-ticker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
