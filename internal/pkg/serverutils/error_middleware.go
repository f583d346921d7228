package serverutils

import (
	"errors"

	"ai-buildguide-be/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into the JSON envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code, message := StatusFor(err)
		resp := ErrorResponse(code, message)
		resp.Kind = apperr.Kind(err)

		var verr *ValidationError
		if errors.As(err, &verr) {
			resp.Data = verr.Fields
			resp.Kind = "validation"
		}
		return ctx.Status(code).JSON(resp)
	}
}

// StatusFor maps an error to an HTTP status and a client-safe message.
func StatusFor(err error) (int, string) {
	var fe *fiber.Error
	var verr *ValidationError
	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.As(err, &verr):
		return fiber.StatusBadRequest, verr.Error()
	case errors.Is(err, apperr.ErrSessionNotFound):
		return fiber.StatusNotFound, "session not found"
	case errors.Is(err, apperr.ErrNoResultFound):
		return fiber.StatusUnprocessableEntity, "could not resolve instructions"
	case errors.Is(err, apperr.ErrProviderUnconfigured), errors.Is(err, apperr.ErrProviderUnavailable):
		return fiber.StatusServiceUnavailable, err.Error()
	default:
		return fiber.StatusInternalServerError, err.Error()
	}
}
