package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/storefront/internal/services"
)

// CartHandler serves cart and cart item endpoints.
type CartHandler struct {
	carts *services.CartService
}

func NewCartHandler(carts *services.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

func (h *CartHandler) ListCarts(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	carts, err := h.carts.List(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": carts})
}

// CreateCart opens a new cart; a user may hold two at most.
func (h *CartHandler) CreateCart(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	cart, err := h.carts.Create(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": cart})
}

func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	cartID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	cart, err := h.carts.Get(c.UserContext(), userID, cartID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": cart})
}

func (h *CartHandler) DeleteCart(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	cartID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.carts.Delete(c.UserContext(), userID, cartID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// AddItem adds a product to the cart, merging with an existing line.
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	cartID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req addItemRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.ProductID == uuid.Nil {
		return services.NewValidationError("product_id", "required")
	}

	cart, err := h.carts.AddItem(c.UserContext(), userID, cartID, req.ProductID, req.Quantity)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": cart})
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	cartID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	itemID, err := paramID(c, "itemId")
	if err != nil {
		return err
	}

	var req updateItemRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	cart, err := h.carts.UpdateItem(c.UserContext(), userID, cartID, itemID, req.Quantity)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": cart})
}

func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	cartID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	itemID, err := paramID(c, "itemId")
	if err != nil {
		return err
	}

	cart, err := h.carts.RemoveItem(c.UserContext(), userID, cartID, itemID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": cart})
}
