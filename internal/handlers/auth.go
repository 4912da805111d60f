package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/services"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	otp  *services.OTPService
	auth *services.AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(otp *services.OTPService, auth *services.AuthService) *AuthHandler {
	return &AuthHandler{otp: otp, auth: auth}
}

type sendOTPRequest struct {
	PhoneNumber string `json:"phone_number"`
}

// SendOTP issues a one-time code to the given phone number.
func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	var req sendOTPRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.otp.Send(c.UserContext(), req.PhoneNumber); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "OTP sent successfully",
	})
}

type verifyOTPRequest struct {
	PhoneNumber string `json:"phone_number"`
	Code        string `json:"code"`
}

// VerifyOTP exchanges a valid code for a token pair.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	pair, err := h.otp.Verify(c.UserContext(), req.PhoneNumber, req.Code)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"access_token":  pair.Access,
		"refresh_token": pair.Refresh,
	})
}

type loginRequest struct {
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

// Login authenticates with phone number and password.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	pair, err := h.auth.Login(c.UserContext(), req.PhoneNumber, req.Password)
	if errors.Is(err, services.ErrInactiveAccount) {
		return fiber.NewError(fiber.StatusBadRequest, "User account is inactive")
	}
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"access_token":  pair.Access,
		"refresh_token": pair.Refresh,
	})
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// Refresh returns a new access token for a live refresh token.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	access, err := h.auth.Refresh(c.UserContext(), req.Refresh)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"access_token": access,
	})
}

// Logout revokes the caller's refresh token.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req refreshRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.auth.Logout(c.UserContext(), userID, req.Refresh); err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid token")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Successfully logged out",
	})
}
