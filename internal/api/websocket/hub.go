package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/KevinKickass/RoverLink/internal/auth"
	"github.com/KevinKickass/RoverLink/internal/display"
	"github.com/KevinKickass/RoverLink/internal/input"
	"go.uber.org/zap"
)

// InputSink receives operator device events.
type InputSink interface {
	Press(input.Control)
	Release(input.Control)
	StickBegin(x, y float64)
	StickMove(x, y float64)
	StickEnd()
	Cancel()
}

// ControlResolver maps a button id to a control on the current surface.
type ControlResolver interface {
	Control(id string) (input.Control, bool)
}

// Hub maintains active operator clients and broadcasts frames to them
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Inbound messages to broadcast
	broadcast chan Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	// Mutex for thread-safe operations
	mu sync.RWMutex

	logger   *zap.Logger
	jwt      *auth.JWTHandler
	input    InputSink
	controls ControlResolver
}

// NewHub creates a new Hub instance. A nil jwt disables authentication.
func NewHub(logger *zap.Logger, jwt *auth.JWTHandler, sink InputSink, controls ControlResolver) *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		done:       make(chan struct{}),
		logger:     logger,
		jwt:        jwt,
		input:      sink,
		controls:   controls,
	}
}

// Watch forwards every frame shown on target to the clients.
func (h *Hub) Watch(target *display.Target) {
	target.Subscribe(func(f display.Frame) {
		h.Broadcast(NewFrameMessage(f))
	})
}

// Run starts the hub's main event loop
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket Hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("WebSocket Hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("WebSocket client registered",
				zap.String("remote_addr", client.remoteAddr),
				zap.Int("total_clients", h.GetClientCount()))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Info("WebSocket client unregistered",
					zap.String("remote_addr", client.remoteAddr),
					zap.Int("total_clients", len(h.clients)))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				h.logger.Error("Failed to marshal broadcast message",
					zap.Error(err))
				continue
			}

			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					// slow client: skip this frame, the next one replaces it anyway
					h.logger.Debug("Client send buffer full, frame skipped",
						zap.String("remote_addr", client.remoteAddr))
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("Hub broadcast channel full, message dropped",
			zap.String("message_type", string(msg.Type)))
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
