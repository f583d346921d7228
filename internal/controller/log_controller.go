package controller

import (
	"errors"

	"ai-buildguide-be/internal/dto"
	"ai-buildguide-be/internal/pkg/logger"
	"ai-buildguide-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

// LogReader is implemented by *logger.ZapLogger.
type LogReader interface {
	GetLogs(level string, limit, offset int) ([]logger.LogEntry, error)
	GetLogById(id string) (*logger.LogEntry, error)
}

type ILogController interface {
	RegisterRoutes(r fiber.Router)
	GetLogs(ctx *fiber.Ctx) error
	GetLogDetail(ctx *fiber.Ctx) error
}

type logController struct {
	reader LogReader
}

func NewLogController(reader LogReader) ILogController {
	return &logController{reader: reader}
}

func (c *logController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/logs")
	h.Get("", c.GetLogs)
	h.Get(":id", c.GetLogDetail)
}

func (c *logController) GetLogs(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 50)
	offset := ctx.QueryInt("offset", 0)
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := c.reader.GetLogs(ctx.Query("level", ""), limit, offset)
	if err != nil {
		return err
	}

	res := make([]dto.LogListResponse, 0, len(entries))
	for _, e := range entries {
		res = append(res, dto.NewLogListResponse(e))
	}
	return ctx.JSON(serverutils.SuccessResponse("System logs", res))
}

func (c *logController) GetLogDetail(ctx *fiber.Ctx) error {
	// Log ID is a string (MD5 hash), not UUID
	entry, err := c.reader.GetLogById(ctx.Params("id"))
	if errors.Is(err, logger.ErrLogNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "log not found")
	}
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Log detail", dto.NewLogDetailResponse(entry)))
}
