package handler

import (
	"context"
	"time"

	"ai-buildguide-be/internal/dto"
	"ai-buildguide-be/internal/pkg/logger"
	"ai-buildguide-be/internal/pkg/serverutils"
	"ai-buildguide-be/internal/service"
	internalWS "ai-buildguide-be/internal/websocket"
	"ai-buildguide-be/pkg/apperr"
	"ai-buildguide-be/pkg/events"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const displayModule = "DisplayHandler"

// ScanPublisher is satisfied by *pktNats.Publisher.
type ScanPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type ScanRequest struct {
	Barcode string `json:"barcode" validate:"required,max=64"`
}

// DisplayHandler drives one session per websocket connection: every text
// frame is a command, every reply and async update comes back as a frame.
type DisplayHandler struct {
	sessions  service.ISessionService
	publisher ScanPublisher
	hub       *internalWS.Hub
	logger    logger.ILogger
}

func NewDisplayHandler(sessions service.ISessionService, pub ScanPublisher, hub *internalWS.Hub, log logger.ILogger) *DisplayHandler {
	return &DisplayHandler{
		sessions:  sessions,
		publisher: pub,
		hub:       hub,
		logger:    log,
	}
}

func (h *DisplayHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/ws/display", h.ServeWs)
	r.Post("/debug/scan", h.DebugScan)
}

// ServeWs upgrades the request and runs a session until the peer leaves.
func (h *DisplayHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		greeting, err := h.sessions.Connect(context.Background())
		if err != nil {
			h.logger.Error(displayModule, "Failed to open session", map[string]interface{}{"error": err.Error()})
			conn.Close()
			return
		}

		h.logger.Info(displayModule, "Starting display session", map[string]interface{}{"session_id": greeting.SessionID})
		internalWS.ServeWs(h.hub, conn, greeting, h.handleCommand)

		h.sessions.Disconnect(greeting.SessionID)
		h.logger.Info(displayModule, "Display session ended", map[string]interface{}{"session_id": greeting.SessionID})
	})(c)
}

func (h *DisplayHandler) handleCommand(client *internalWS.Client, command string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reply, err := h.sessions.Handle(ctx, client.SessionID, command)
	if err != nil {
		h.logger.Warn(displayModule, "Command failed", map[string]interface{}{
			"session_id": client.SessionID,
			"error":      err.Error(),
		})
		client.Deliver(dto.FrameTypeError, service.Reply{
			SessionID: client.SessionID,
			Text:      apperr.Kind(err),
		})
		return
	}
	client.Deliver(dto.FrameTypeDisplay, reply)
}

// DebugScan publishes a barcode_scanned event, standing in for a scanner
// attached to the event bus.
func (h *DisplayHandler) DebugScan(c *fiber.Ctx) error {
	var req ScanRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if h.publisher == nil {
		return apperr.Unconfigured("event bus")
	}

	evt := events.BarcodeScanned(req.Barcode, time.Now())
	if err := h.publisher.Publish(c.UserContext(), evt); err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Scan published", evt))
}
