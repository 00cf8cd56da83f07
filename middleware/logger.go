package middleware

import (
	"time"

	"github.com/Fababum/portfolio/shared"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request once the handler chain returns.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if appErr, ok := shared.GetAppError(err); ok {
				status = appErr.StatusCode
			} else if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		entry := log.WithFields(log.Fields{
			"method":  c.Method(),
			"route":   c.Route().Path,
			"status":  status,
			"latency": time.Since(start).String(),
			"ip":      shared.ClientIP(c),
		})
		if client, ok := c.Locals(shared.ClientID).(string); ok {
			entry = entry.WithField("client", client)
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			entry.Error("Request failed")
		case status >= fiber.StatusBadRequest:
			entry.Info("Request rejected")
		default:
			entry.Debug("Request handled")
		}
		return err
	}
}
