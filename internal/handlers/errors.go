package handlers

import (
	"errors"

	"hystore/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// statusFor maps service errors to HTTP status codes. Anything unknown is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrUnauthenticated), errors.Is(err, services.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrUsernameTaken):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrLineNotFound),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrNoReport):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrInvalidPreload),
		errors.Is(err, services.ErrInvalidPrice),
		errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrOrderTooLarge),
		errors.Is(err, services.ErrInvalidReport):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// respondError writes {"message", "error"} with the status matching err.
// Server-side failures are logged and reported without internal detail.
func respondError(c *fiber.Ctx, logger *zap.Logger, message string, err error) error {
	status := statusFor(err)
	clientErr := err.Error()
	if status == fiber.StatusInternalServerError {
		logger.Error(message, zap.String("path", c.Path()), zap.Error(err))
		clientErr = services.ErrPersistence.Error()
	}
	if errors.Is(err, services.ErrEmptyCart) {
		clientErr = "Cart is empty. Cannot checkout."
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   clientErr,
	})
}

func badRequest(c *fiber.Ctx, message string, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}
