package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestLogger writes one zap entry per request, at a level chosen by status.
func RequestLogger(log *zap.Logger) fiber.Handler {
	log = log.Named("http")

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		// Render the error here so the logged status matches the response.
		if err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		status := c.Response().StatusCode()

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		}
		if userID, ok := GetCurrentUserID(c); ok {
			fields = append(fields, zap.String("user_id", userID.String()))
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			if err != nil {
				fields = append(fields, zap.Error(err))
			}
			log.Error("request", fields...)
		case status >= fiber.StatusBadRequest:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
		return nil
	}
}
