package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/services"
)

type WishlistHandler struct {
	wishlist *services.WishlistService
}

func NewWishlistHandler(wishlist *services.WishlistService) *WishlistHandler {
	return &WishlistHandler{wishlist: wishlist}
}

func (h *WishlistHandler) List(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	items, err := h.wishlist.List(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

func (h *WishlistHandler) Add(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	productID, err := paramID(c, "productId")
	if err != nil {
		return err
	}

	if err := h.wishlist.Add(c.UserContext(), userID, productID); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true})
}

func (h *WishlistHandler) Remove(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	productID, err := paramID(c, "productId")
	if err != nil {
		return err
	}

	if err := h.wishlist.Remove(c.UserContext(), userID, productID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}
