package websocket

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"drivesafe-backend/internal/models"
	"drivesafe-backend/internal/services"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 8 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type chatService interface {
	SendMessage(ctx context.Context, sessionID uuid.UUID, text string) (models.ChatReply, error)
}

type tokenParser interface {
	ParseToken(tokenStr string) (uuid.UUID, error)
}

// client serializes writes to one connection. gorilla/websocket allows a
// single concurrent writer.
type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) send(msg models.WSMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

// Hub serves the chat WebSocket and tracks open connections per session.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID][]*client
	chat        chatService
	auth        tokenParser
	logger      *zap.Logger
}

func NewHub(chat chatService, auth tokenParser, logger *zap.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID][]*client),
		chat:        chat,
		auth:        auth,
		logger:      logger,
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Authenticate via token query param
	sessionID, err := h.auth.ParseToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(maxMessageSize)

	c := &client{conn: conn}
	h.registerConnection(sessionID, c)

	go func() {
		defer h.unregisterConnection(sessionID, c)
		h.readLoop(sessionID, c)
	}()
}

// readLoop handles frames one at a time, so replies on a connection keep
// the order of the messages that produced them. A dropped connection cancels
// the call in flight.
func (h *Hub) readLoop(sessionID uuid.UUID, c *client) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frames := make(chan models.ChatRequest, 8)
	go func() {
		defer close(frames)
		defer cancel()
		for {
			var req models.ChatRequest
			if err := c.conn.ReadJSON(&req); err != nil {
				var closeErr *websocket.CloseError
				if !errors.As(err, &closeErr) {
					h.logger.Debug("websocket read ended", zap.String("session_id", sessionID.String()), zap.Error(err))
				}
				return
			}
			select {
			case frames <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	for req := range frames {
		if ctx.Err() != nil {
			return
		}

		reply, err := h.chat.SendMessage(ctx, sessionID, req.Message)
		if err != nil {
			h.sendError(c, err)
			continue
		}

		if err := c.send(models.WSMessage{Type: "reply", Payload: reply}); err != nil {
			h.logger.Warn("websocket write failed", zap.String("session_id", sessionID.String()), zap.Error(err))
			return
		}
	}
}

func (h *Hub) sendError(c *client, err error) {
	apiErr := models.APIError{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		apiErr = models.APIError{Code: "VALIDATION_ERROR", Message: "Validation failed", Fields: verr.Fields}
	}
	c.send(models.WSMessage{Type: "error", Payload: apiErr})
}

func (h *Hub) registerConnection(sessionID uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[sessionID] = append(h.connections[sessionID], c)
	h.logger.Info("websocket connected",
		zap.String("session_id", sessionID.String()),
		zap.Int("connections", len(h.connections[sessionID])),
	)
}

func (h *Hub) unregisterConnection(sessionID uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.conn.Close()

	conns := h.connections[sessionID]
	for i, cc := range conns {
		if cc == c {
			h.connections[sessionID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.connections[sessionID]) == 0 {
		delete(h.connections, sessionID)
	}

	h.logger.Info("websocket disconnected", zap.String("session_id", sessionID.String()))
}

// ConnectionCount reports open connections for a session.
func (h *Hub) ConnectionCount(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[sessionID])
}

// CloseAll drops every open connection. Used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conns := range h.connections {
		for _, c := range conns {
			c.writeMu.Lock()
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			c.writeMu.Unlock()
			c.conn.Close()
		}
	}
}
