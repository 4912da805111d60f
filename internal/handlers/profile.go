package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/services"
)

// ProfileHandler serves the current user's profile and address book.
type ProfileHandler struct {
	users     *services.UserService
	addresses *services.AddressService
	reviews   *services.ReviewService
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(users *services.UserService, addresses *services.AddressService, reviews *services.ReviewService) *ProfileHandler {
	return &ProfileHandler{users: users, addresses: addresses, reviews: reviews}
}

// GetProfile returns the authenticated user with their profile.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	user, err := h.users.GetByID(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": user})
}

// UpdateProfile edits names, email, username or password.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req services.ProfileInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.users.UpdateProfile(c.UserContext(), userID, req)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": user})
}

// ListMyReviews returns reviews written by the authenticated user.
func (h *ProfileHandler) ListMyReviews(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	reviews, err := h.reviews.ListByUser(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": reviews})
}

// ListAddresses returns user addresses.
func (h *ProfileHandler) ListAddresses(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	addresses, err := h.addresses.List(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": addresses})
}

// CreateAddress adds an address; an active one replaces the current active address.
func (h *ProfileHandler) CreateAddress(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req services.AddressInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	address, err := h.addresses.Create(c.UserContext(), userID, req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": address})
}

func (h *ProfileHandler) GetAddress(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	address, err := h.addresses.Get(c.UserContext(), userID, id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": address})
}

// UpdateAddress modifies an existing address.
func (h *ProfileHandler) UpdateAddress(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req services.AddressUpdate
	if err := parseBody(c, &req); err != nil {
		return err
	}

	address, err := h.addresses.Update(c.UserContext(), userID, id, req)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": address})
}

// DeleteAddress removes an address.
func (h *ProfileHandler) DeleteAddress(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.addresses.Delete(c.UserContext(), userID, id); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}
