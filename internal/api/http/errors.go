package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/i474232898/crop-advisory/internal/agronomy"
	"github.com/i474232898/crop-advisory/internal/disease"
	"github.com/i474232898/crop-advisory/internal/store"
	"github.com/i474232898/crop-advisory/internal/weather"
)

// ErrorHandler is the centralized Fiber error handler. Domain errors are
// mapped to status codes here so handlers can return them unchanged.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *fiber.Ctx, err error) error {
		code := statusFor(err)
		msg := err.Error()
		if code >= fiber.StatusInternalServerError && code != fiber.StatusServiceUnavailable {
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err))
			if code == fiber.StatusInternalServerError {
				msg = "internal server error"
			}
		}
		return c.Status(code).JSON(fiber.Map{
			"error":   true,
			"message": msg,
		})
	}
}

func statusFor(err error) int {
	var fe *fiber.Error
	var ve validator.ValidationErrors
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.As(err, &ve), errors.Is(err, agronomy.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, agronomy.ErrUnknownCrop),
		errors.Is(err, agronomy.ErrUnknownStage),
		errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, disease.ErrNotConfigured),
		errors.Is(err, disease.ErrUnavailable),
		errors.Is(err, weather.ErrNoProviders),
		errors.Is(err, weather.ErrNoForecast),
		errors.Is(err, errWeatherDisabled):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, disease.ErrEmptyAnalysis):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
