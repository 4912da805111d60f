package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/services"
)

// CatalogHandler serves categories and product attributes.
type CatalogHandler struct {
	catalog *services.CatalogService
}

func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.catalog.ListCategories(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": categories})
}

func (h *CatalogHandler) ListBrands(c *fiber.Ctx) error {
	brands, err := h.catalog.ListBrands(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": brands})
}

func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var req services.CategoryInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	category, err := h.catalog.CreateCategory(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": category})
}

func (h *CatalogHandler) CreateBrand(c *fiber.Ctx) error {
	return h.createAttribute(c, func(in services.AttributeInput) (interface{}, error) {
		return h.catalog.CreateBrand(c.UserContext(), in)
	})
}

func (h *CatalogHandler) CreateColor(c *fiber.Ctx) error {
	return h.createAttribute(c, func(in services.AttributeInput) (interface{}, error) {
		return h.catalog.CreateColor(c.UserContext(), in)
	})
}

func (h *CatalogHandler) CreateSize(c *fiber.Ctx) error {
	return h.createAttribute(c, func(in services.AttributeInput) (interface{}, error) {
		return h.catalog.CreateSize(c.UserContext(), in)
	})
}

func (h *CatalogHandler) createAttribute(c *fiber.Ctx, create func(services.AttributeInput) (interface{}, error)) error {
	var req services.AttributeInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	created, err := create(req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": created})
}
