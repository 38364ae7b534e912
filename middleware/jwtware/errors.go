package jwtware

import (
	"errors"
	"time"

	"github.com/carthy/go-auth"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders errors with the default logger.
var ErrorHandler = NewErrorHandler(nil)

// NewErrorHandler renders err as auth.ErrorDetails JSON. Statuses come from
// *auth.Error, then *fiber.Error; anything else is a 500 without internals.
// It can be used as fiber.Config.ErrorHandler.
func NewErrorHandler(logger auth.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defaultLogger()
	}
	return func(c *fiber.Ctx, err error) error {
		details := Details(err, c.Path(), time.Now())
		if details.HTTPCode >= fiber.StatusInternalServerError {
			logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		}
		return c.Status(details.HTTPCode).JSON(details)
	}
}

// Details builds the error payload for err.
func Details(err error, path string, now time.Time) auth.ErrorDetails {
	var richErr *auth.Error
	if errors.As(err, &richErr) {
		return auth.NewErrorDetails(richErr, path, now)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return auth.ErrorDetails{
			Timestamp:   now.UTC(),
			Message:     fiberErr.Message,
			Path:        path,
			Label:       auth.StatusLabel(fiberErr.Code),
			HTTPCode:    fiberErr.Code,
			Code:        codeForStatus(fiberErr.Code),
			FieldErrors: []auth.FieldError{},
		}
	}

	return auth.NewErrorDetails(err, path, now)
}

func codeForStatus(status int) auth.ErrorCode {
	switch status {
	case fiber.StatusBadRequest:
		return auth.CodeValidationError
	case fiber.StatusUnauthorized:
		return auth.CodeAuthenticationDenied
	case fiber.StatusForbidden:
		return auth.CodeAccessForbidden
	case fiber.StatusNotFound:
		return auth.CodeEntityNotFound
	case fiber.StatusUnprocessableEntity:
		return auth.CodeUnprocessableEntity
	default:
		return auth.CodeServerError
	}
}
