package websocket

import (
	"strings"
	"time"

	"ai-buildguide-be/internal/service"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// Session driven by this connection
	SessionID string

	// Buffered channel of outbound messages.
	Send chan []byte

	// OnCommand handles one inbound text frame.
	OnCommand func(c *Client, command string)

	// set once Send is closed; guarded by Hub.mu
	closed bool
}

// readPump turns inbound text frames into commands.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn(hubModule, "Unexpected close", map[string]interface{}{
					"session_id": c.SessionID,
					"error":      err.Error(),
				})
			}
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if cmd := strings.TrimSpace(string(data)); cmd != "" && c.OnCommand != nil {
			c.OnCommand(c, cmd)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// one frame per message: every frame is a standalone JSON document
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Deliver queues one frame without blocking the caller.
func (c *Client) Deliver(frameType string, reply service.Reply) {
	data, err := encode(frameType, reply)
	if err != nil {
		c.Hub.logger.Error(hubModule, "Failed to encode frame", map[string]interface{}{"error": err.Error()})
		return
	}

	c.Hub.mu.RLock()
	defer c.Hub.mu.RUnlock()
	c.enqueue(data)
}

// enqueue must run under Hub.mu (read side). Send is closed only under the
// write side, so a frame never races the close.
func (c *Client) enqueue(data []byte) {
	if c.closed {
		c.Hub.logger.Debug(hubModule, "Frame for closed client dropped", map[string]interface{}{"session_id": c.SessionID})
		return
	}
	select {
	case c.Send <- data:
	default:
		c.Hub.logger.Warn(hubModule, "Client Send buffer full, dropping frame", map[string]interface{}{"session_id": c.SessionID})
	}
}

// close must run under Hub.mu (write side).
func (c *Client) close() {
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}
