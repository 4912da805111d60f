package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

const (
	userContextKey  = "currentUserID"
	staffContextKey = "currentUserIsStaff"
)

// AuthMiddleware validates access tokens and loads the authenticated user ID into context.
func AuthMiddleware(tokens *utils.TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		claims, err := tokens.Parse(strings.TrimSpace(parts[1]), utils.TokenTypeAccess)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(userContextKey, claims.UserID)
		c.Locals(staffContextKey, claims.IsStaff)
		return c.Next()
	}
}

// RequireStaff rejects requests whose user is not an active staff member.
// The flag is re-read from storage so demoted staff lose access immediately.
func RequireStaff(users *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := GetCurrentUserID(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}

		user, err := users.GetByID(c.UserContext(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}
		if !user.IsActive || !user.IsStaff {
			return fiber.NewError(fiber.StatusForbidden, "staff access required")
		}
		return c.Next()
	}
}

// GetCurrentUserID extracts the authenticated user ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	value := c.Locals(userContextKey)
	if value == nil {
		return uuid.Nil, false
	}

	if id, ok := value.(uuid.UUID); ok {
		return id, true
	}

	return uuid.Nil, false
}
