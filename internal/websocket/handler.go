package websocket

import (
	"ai-buildguide-be/internal/dto"
	"ai-buildguide-be/internal/service"

	"github.com/gofiber/websocket/v2"
)

// ServeWs registers a client for the greeting's session, shows the greeting
// and pumps until the peer leaves. onCommand runs on the read goroutine, so
// commands are handled in arrival order.
func ServeWs(hub *Hub, c *websocket.Conn, greeting service.Reply, onCommand func(*Client, string)) {
	client := &Client{
		Hub:       hub,
		Conn:      c,
		SessionID: greeting.SessionID,
		Send:      make(chan []byte, 64),
		OnCommand: onCommand,
	}
	client.Deliver(dto.FrameTypeDisplay, greeting)
	select {
	case client.Hub.register <- client:
	case <-client.Hub.done:
		c.Close()
		return
	}

	go client.writePump()
	client.readPump()
}
