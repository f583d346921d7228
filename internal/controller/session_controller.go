package controller

import (
	"ai-buildguide-be/internal/dto"
	"ai-buildguide-be/internal/pkg/serverutils"
	"ai-buildguide-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Connect(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Command(ctx *fiber.Ctx) error
	Disconnect(ctx *fiber.Ctx) error
}

type sessionController struct {
	sessionService service.ISessionService
}

func NewSessionController(sessionService service.ISessionService) ISessionController {
	return &sessionController{sessionService: sessionService}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/sessions")
	h.Post("", c.Connect)
	h.Get(":id", c.Show)
	h.Post(":id/commands", c.Command)
	h.Delete(":id", c.Disconnect)
}

func (c *sessionController) Connect(ctx *fiber.Ctx) error {
	reply, err := c.sessionService.Connect(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Session created", frame(reply)))
}

func (c *sessionController) Show(ctx *fiber.Ctx) error {
	snap, err := c.sessionService.Snapshot(ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Session", dto.NewSessionResponse(snap)))
}

func (c *sessionController) Command(ctx *fiber.Ctx) error {
	var req dto.SessionCommandRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	reply, err := c.sessionService.Handle(ctx.UserContext(), ctx.Params("id"), req.Command)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Command handled", frame(reply)))
}

func (c *sessionController) Disconnect(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	if _, err := c.sessionService.Snapshot(id); err != nil {
		return err
	}
	c.sessionService.Disconnect(id)
	return ctx.JSON(serverutils.SuccessResponse[any]("Session closed", nil))
}

func frame(r service.Reply) dto.DisplayFrame {
	return dto.DisplayFrame{
		Type:      dto.FrameTypeDisplay,
		SessionID: r.SessionID,
		Phase:     r.Phase,
		Text:      r.Text,
	}
}
