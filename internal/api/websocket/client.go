package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/KevinKickass/RoverLink/internal/auth"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Time allowed for the first (auth) message
	authWait = 10 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Send channel buffer size
	sendBufferSize = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		// the operator page may be served from a different origin
		return true
	},
}

// Client represents an operator page connection
type Client struct {
	hub           *Hub
	conn          *websocket.Conn
	send          chan []byte
	logger        *zap.Logger
	remoteAddr    string
	authenticated bool
	registered    bool
	permissions   []auth.Permission
	// set once this client sent input, so its disconnect cancels held controls
	drove bool
}

// readPump handles reading messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		if c.drove {
			c.hub.input.Cancel()
		}
		if !c.registered {
			// writePump flushes the auth reply, then closes the connection
			close(c.send)
			return
		}
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if c.authenticated {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
	} else {
		c.conn.SetReadDeadline(time.Now().Add(authWait))
	}
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg InputMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket read error",
					zap.Error(err),
					zap.String("remote_addr", c.remoteAddr))
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		// First message MUST be authentication
		if !c.authenticated {
			if !c.authenticate(msg) {
				return
			}
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Client) authenticate(msg InputMessage) bool {
	if msg.Type != MessageTypeAuth || msg.Token == "" {
		c.sendDirect(NewMessage(MessageTypeAuthFailed, map[string]interface{}{"reason": "first message must be authentication"}))
		return false
	}

	claims, err := c.hub.jwt.ValidateAccessToken(msg.Token)
	if err != nil {
		c.logger.Warn("WebSocket authentication failed",
			zap.Error(err),
			zap.String("remote_addr", c.remoteAddr))
		c.sendDirect(NewMessage(MessageTypeAuthFailed, map[string]interface{}{"reason": "invalid or expired token"}))
		return false
	}

	c.authenticated = true
	c.permissions = claims.Permissions()
	c.sendDirect(NewMessage(MessageTypeAuthSuccess, map[string]interface{}{"permissions": c.permissions}))

	c.logger.Info("WebSocket client authenticated",
		zap.String("remote_addr", c.remoteAddr),
		zap.String("name", claims.Name),
		zap.Any("permissions", c.permissions))

	// register to hub only after auth
	select {
	case c.hub.register <- c:
		c.registered = true
	case <-c.hub.done:
		return false
	}
	return true
}

// sendDirect queues a message for this client before it is registered.
func (c *Client) sendDirect(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) handleMessage(msg InputMessage) {
	if !auth.HasPermission(c.permissions, auth.PermOperator) {
		c.logger.Warn("Input from viewer ignored",
			zap.String("remote_addr", c.remoteAddr),
			zap.String("type", string(msg.Type)))
		return
	}

	sink := c.hub.input

	switch msg.Type {
	case MessageTypePress, MessageTypeRelease:
		ctl, ok := c.hub.controls.Control(msg.Control)
		if !ok {
			c.logger.Debug("Unknown control ignored", zap.String("control", msg.Control))
			return
		}
		c.drove = true
		if msg.Type == MessageTypePress {
			sink.Press(ctl)
		} else {
			sink.Release(ctl)
		}

	case MessageTypeStickBegin:
		c.drove = true
		sink.StickBegin(msg.X, msg.Y)
	case MessageTypeStickMove:
		sink.StickMove(msg.X, msg.Y)
	case MessageTypeStickEnd:
		sink.StickEnd()

	default:
		c.logger.Debug("Received unknown client message",
			zap.String("remote_addr", c.remoteAddr),
			zap.String("type", string(msg.Type)))
	}
}

// writePump handles writing messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs handles WebSocket upgrade requests
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Error("WebSocket upgrade error",
			zap.Error(err),
			zap.String("remote_addr", r.RemoteAddr))
		return
	}

	client := &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufferSize),
		logger:     hub.logger,
		remoteAddr: conn.RemoteAddr().String(),
	}

	if hub.jwt == nil {
		client.authenticated = true
		client.permissions = []auth.Permission{auth.PermViewer, auth.PermOperator}
		select {
		case hub.register <- client:
			client.registered = true
		case <-hub.done:
			conn.Close()
			return
		}
	}

	// Start read and write pumps in separate goroutines
	go client.writePump()
	go client.readPump()
}
