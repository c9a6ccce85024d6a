// Package network is the WebSocket transport: it accepts connections,
// frames/parses messages, and delivers player intents to the handler wired
// in at startup. It knows nothing about reactor physics.
package network

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/meltdownclowns/server/internal/platform/logger"
	"github.com/meltdownclowns/server/internal/platform/metrics"
	"github.com/meltdownclowns/server/internal/protocol"
)

// Handler receives parsed client messages and disconnect notices.
type Handler interface {
	HandleMessage(playerID string, msg protocol.ClientMessage)
	HandleDisconnect(playerID string)
}

// Hub maintains the set of active clients and routes outbound messages to
// them by player id.
type Hub struct {
	mu         sync.Mutex
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	idCounter  int

	handler Handler
	logger  *logger.Logger
}

// NewHub initializes a new WebSocket Hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     log,
	}
}

// SetHandler wires in the message router. Must be called before Run.
func (h *Hub) SetHandler(handler Handler) {
	h.handler = handler
}

// Run starts the Hub's main loop to handle client connections.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket Hub shutting down.")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.playerID] = client
			h.mu.Unlock()
			metrics.Get().RecordWSConnection(1)
			h.logger.Info("WebSocket client connected: " + client.playerID)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.playerID]; ok {
				delete(h.clients, client.playerID)
				close(client.send)
				metrics.Get().RecordWSConnection(-1)
			}
			h.mu.Unlock()
			h.logger.Info("WebSocket client disconnected: " + client.playerID)
			if h.handler != nil {
				h.handler.HandleDisconnect(client.playerID)
			}
		}
	}
}

// nextPlayerID mints a connection-scoped player id.
func (h *Hub) nextPlayerID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.idCounter++
	return fmt.Sprintf("player-%d", h.idCounter)
}

// SendTo serializes a message and queues it for one player. Slow consumers
// are dropped rather than allowed to stall the simulation.
func (h *Hub) SendTo(playerID string, message any) {
	payload, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to serialize message for " + playerID + ": " + err.Error())
		metrics.Get().RecordWSError()
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.deliverLocked(playerID, payload)
}

// Broadcast serializes a message once and queues it for each listed player.
func (h *Hub) Broadcast(playerIDs []string, message any) {
	payload, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to serialize broadcast: " + err.Error())
		metrics.Get().RecordWSError()
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, id := range playerIDs {
		h.deliverLocked(id, payload)
	}
}

func (h *Hub) deliverLocked(playerID string, payload []byte) {
	client, ok := h.clients[playerID]
	if !ok {
		return
	}
	select {
	case client.send <- payload:
		metrics.Get().RecordWSMessage(false)
	default:
		// Backpressure: the client stopped draining; cut it loose.
		close(client.send)
		delete(h.clients, playerID)
		metrics.Get().RecordWSError()
	}
}
