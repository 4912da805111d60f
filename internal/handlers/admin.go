package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

// AdminHandler manages staff-only endpoints.
type AdminHandler struct {
	auth    *services.AuthService
	users   *services.UserService
	catalog *services.CatalogService
	orders  *services.OrderService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(auth *services.AuthService, users *services.UserService, catalog *services.CatalogService, orders *services.OrderService) *AdminHandler {
	return &AdminHandler{auth: auth, users: users, catalog: catalog, orders: orders}
}

// Login issues tokens to staff accounts only.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	pair, user, err := h.auth.StaffLogin(c.UserContext(), req.PhoneNumber, req.Password)
	if errors.Is(err, services.ErrPermissionDenied) {
		return fiber.NewError(fiber.StatusForbidden, "You do not have staff access")
	}
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"access_token":  pair.Access,
		"refresh_token": pair.Refresh,
		"user":          user,
	})
}

// Me returns the authenticated staff user.
func (h *AdminHandler) Me(c *fiber.Ctx) error {
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

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	stats, err := h.orders.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": stats})
}

// ListAllUsers returns all registered users with pagination and search.
func (h *AdminHandler) ListAllUsers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	users, total, err := h.users.List(c.UserContext(), pg, c.Query("search"))
	if err != nil {
		return err
	}
	return paginated(c, users, pg, total)
}

// ListAllOrders returns all orders with pagination and status filtering.
func (h *AdminHandler) ListAllOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	orders, total, err := h.orders.ListAll(c.UserContext(), pg, c.Query("status"))
	if err != nil {
		return err
	}
	return paginated(c, orders, pg, total)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus moves an order to a new status.
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req statusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	order, err := h.orders.UpdateStatus(c.UserContext(), id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": order})
}

func (h *AdminHandler) CreateProduct(c *fiber.Ctx) error {
	var req services.ProductInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	product, err := h.catalog.CreateProduct(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": product})
}

func (h *AdminHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req services.ProductUpdate
	if err := parseBody(c, &req); err != nil {
		return err
	}

	product, err := h.catalog.UpdateProduct(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": product})
}

type stockRequest struct {
	Stock *int `json:"stock"`
}

// SetStock overwrites the stock level of a product.
func (h *AdminHandler) SetStock(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req stockRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Stock == nil {
		return services.NewValidationError("stock", "required")
	}

	product, err := h.catalog.AdjustStock(c.UserContext(), id, *req.Stock)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": product})
}

func (h *AdminHandler) AddPromotion(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req services.PromotionInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	promotion, err := h.catalog.AddPromotion(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": promotion})
}
