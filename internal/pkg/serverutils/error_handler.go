package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorMapping assigns an HTTP status to a sentinel error from the service layer.
type ErrorMapping struct {
	Err    error
	Status int
}

// ErrorHandlerMiddleware turns errors returned by handlers into JSON error responses.
func ErrorHandlerMiddleware(mappings ...ErrorMapping) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code, message := resolveError(err, mappings)
		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}

func resolveError(err error, mappings []ErrorMapping) (int, string) {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return fiber.StatusBadRequest, validationErr.Error()
	}

	for _, m := range mappings {
		if errors.Is(err, m.Err) {
			return m.Status, err.Error()
		}
	}

	return fiber.StatusInternalServerError, "Internal server error"
}
