package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/adstudio/api/internal/apperr"
	"github.com/adstudio/api/pkg/response"
)

// writeError maps a service error onto the response envelope. Provider,
// timeout and internal details are logged, never sent to the client.
func writeError(c *fiber.Ctx, log *logrus.Logger, err error) error {
	entry := log.WithFields(logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
	})
	if rid, ok := c.Locals("requestid").(string); ok {
		entry = entry.WithField("requestId", rid)
	}

	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		var verr *apperr.ValidationError
		errors.As(err, &verr)
		return response.ValidationError(c, "Validation failed", verr.Details())

	case apperr.KindConfiguration:
		entry.WithError(err).Warn("request hit unconfigured component")
		return response.ConfigurationError(c, "Service is not configured for this request")

	case apperr.KindProvider:
		entry.WithError(err).Error("video provider failed")
		return response.ProviderError(c, "Video provider failed to process the request")

	case apperr.KindTimeout:
		entry.WithError(err).Warn("request timed out")
		return response.Timeout(c, "The request timed out")

	case apperr.KindNotFound:
		return response.NotFound(c, err.Error())

	case apperr.KindForbidden:
		return response.Forbidden(c, err.Error())

	case apperr.KindConflict:
		return response.Conflict(c, err.Error())
	}

	if errors.Is(err, context.DeadlineExceeded) {
		entry.WithError(err).Warn("request timed out")
		return response.Timeout(c, "The request timed out")
	}

	entry.WithError(err).Error("request failed")
	return response.ServiceError(c, "Internal server error")
}

// ErrorHandler renders errors that escape handlers (unknown routes, failed
// upgrades, recovered panics) in the same envelope as handled ones.
func ErrorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "Internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
			message = fe.Message
		} else {
			log.WithError(err).WithField("path", c.Path()).Error("unhandled error")
		}

		code := response.CodeServiceError
		switch status {
		case fiber.StatusNotFound:
			code = response.CodeNotFound
		case fiber.StatusRequestTimeout:
			status = fiber.StatusGatewayTimeout
			code = response.CodeTimeout
			message = "The request timed out"
		case fiber.StatusBadRequest, fiber.StatusUpgradeRequired, fiber.StatusRequestEntityTooLarge, fiber.StatusMethodNotAllowed:
			code = response.CodeBadRequest
		}
		return response.Error(c, status, code, message, nil)
	}
}
