package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

// OrderHandler serves checkout and the customer's order history.
type OrderHandler struct {
	orders *services.OrderService
}

func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type checkoutRequest struct {
	AddressID uuid.UUID `json:"address_id"`
}

// Checkout places an order for every line in the cart.
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	cartID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req checkoutRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.AddressID == uuid.Nil {
		return services.NewValidationError("address_id", "required")
	}

	order, err := h.orders.Checkout(c.UserContext(), userID, cartID, req.AddressID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": order})
}

// ListOrders returns orders for authenticated user.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	pg := utils.ParsePagination(c)
	orders, total, err := h.orders.List(c.UserContext(), userID, pg)
	if err != nil {
		return err
	}

	return paginated(c, orders, pg, total)
}

// GetOrder returns a single order for the authenticated user.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orders.Get(c.UserContext(), userID, id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}
