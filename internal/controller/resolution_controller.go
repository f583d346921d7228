package controller

import (
	"ai-buildguide-be/internal/dto"
	"ai-buildguide-be/internal/pkg/serverutils"
	"ai-buildguide-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IResolutionController interface {
	RegisterRoutes(r fiber.Router)
	Resolve(ctx *fiber.Ctx) error
	CurrentBarcode(ctx *fiber.Ctx) error
	ClearCache(ctx *fiber.Ctx) error
}

type resolutionController struct {
	resolutionService service.IResolutionService
}

func NewResolutionController(resolutionService service.IResolutionService) IResolutionController {
	return &resolutionController{resolutionService: resolutionService}
}

func (c *resolutionController) RegisterRoutes(r fiber.Router) {
	r.Post("/resolve", c.Resolve)
	r.Delete("/resolve/cache", c.ClearCache)
	r.Get("/barcode", c.CurrentBarcode)
}

func (c *resolutionController) Resolve(ctx *fiber.Ctx) error {
	var req dto.ResolveRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	entry, err := c.resolutionService.Resolve(ctx.UserContext(), req.Command, req.Barcode)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Barcode resolved", dto.NewResolveResponse(entry)))
}

func (c *resolutionController) CurrentBarcode(ctx *fiber.Ctx) error {
	info := c.resolutionService.CurrentBarcode(ctx.UserContext())
	return ctx.JSON(serverutils.SuccessResponse("Current barcode", dto.BarcodeResponse{
		Barcode:    info.Barcode,
		Known:      info.Known,
		AgeSeconds: info.Age.Seconds(),
	}))
}

func (c *resolutionController) ClearCache(ctx *fiber.Ctx) error {
	c.resolutionService.ClearCache(ctx.Query("barcode", ""))
	return ctx.JSON(serverutils.SuccessResponse[any]("Resolution cache cleared", nil))
}
