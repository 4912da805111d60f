package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

type errorResponse struct {
	err     error
	status  int
	message string
}

// An empty message renders the error text itself.
var errorResponses = []errorResponse{
	{services.ErrRateLimited, fiber.StatusTooManyRequests, "Please wait before requesting a new OTP"},
	{services.ErrInvalidOrExpiredOTP, fiber.StatusBadRequest, "Invalid or expired OTP"},
	{services.ErrInvalidCredentials, fiber.StatusBadRequest, "Invalid phone number or password"},
	{services.ErrInactiveAccount, fiber.StatusUnauthorized, "User account is inactive"},
	{services.ErrUserNotFound, fiber.StatusNotFound, "User not found"},
	{services.ErrTooManyCarts, fiber.StatusConflict, "You can only have up to 2 carts"},
	{services.ErrPermissionDenied, fiber.StatusForbidden, "You do not have permission to perform this action"},
	{services.ErrNotFound, fiber.StatusNotFound, "Not found"},
	{services.ErrInsufficientStock, fiber.StatusConflict, ""},
	{services.ErrEmptyCart, fiber.StatusBadRequest, "Cart is empty"},
	{services.ErrInvalidTransition, fiber.StatusConflict, ""},
	{services.ErrInvalidToken, fiber.StatusUnauthorized, "Token is invalid or expired"},
}

// ErrorHandler renders every error returned by a handler in the JSON envelope.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid request",
				"fields":  verr.Fields,
			})
		}

		var rl *services.RateLimitError
		if errors.As(err, &rl) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success":                false,
				"error":                  "Please wait before requesting a new OTP",
				"time_remaining_seconds": rl.RemainingSeconds(),
			})
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"success": false, "error": fe.Message})
		}

		for _, r := range errorResponses {
			if errors.Is(err, r.err) {
				message := r.message
				if message == "" {
					message = err.Error()
				}
				return c.Status(r.status).JSON(fiber.Map{"success": false, "error": message})
			}
		}

		log.Error("unhandled error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Internal server error",
		})
	}
}

func currentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return userID, nil
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return nil
}

func paginated(c *fiber.Ctx, data interface{}, pg utils.Pagination, total int64) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}
