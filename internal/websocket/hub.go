package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"ai-buildguide-be/internal/dto"
	"ai-buildguide-be/internal/pkg/logger"
	"ai-buildguide-be/internal/service"
)

const hubModule = "Hub"

// Hub tracks the display connection of every live session and delivers
// frames to it. It implements service.Display.
type Hub struct {
	// Registered clients map: SessionID -> Client
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client

	// closed when Run returns
	done chan struct{}

	mu sync.RWMutex

	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string]*Client),
		done:       make(chan struct{}),
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, c := range h.clients {
				c.close()
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[client.SessionID]; ok {
				old.close()
			}
			h.clients[client.SessionID] = client
			h.mu.Unlock()
			h.logger.Info(hubModule, "Client registered", map[string]interface{}{"session_id": client.SessionID})

		case client := <-h.unregister:
			h.mu.Lock()
			if c, ok := h.clients[client.SessionID]; ok && c == client {
				delete(h.clients, client.SessionID)
				client.close()
				h.logger.Info(hubModule, "Client unregistered", map[string]interface{}{"session_id": client.SessionID})
			}
			h.mu.Unlock()
		}
	}
}

func encode(frameType string, reply service.Reply) ([]byte, error) {
	return json.Marshal(dto.DisplayFrame{
		Type:      frameType,
		SessionID: reply.SessionID,
		Phase:     reply.Phase,
		Text:      reply.Text,
	})
}

// Push delivers a reply to the session's display, if it is connected.
func (h *Hub) Push(reply service.Reply) {
	data, err := encode(dto.FrameTypeDisplay, reply)
	if err != nil {
		h.logger.Error(hubModule, "Failed to encode frame", map[string]interface{}{"error": err.Error()})
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[reply.SessionID]
	if !ok {
		h.logger.Debug(hubModule, "No display for session, dropping frame", map[string]interface{}{"session_id": reply.SessionID})
		return
	}
	client.enqueue(data)
}

// Connected reports how many displays are attached.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
