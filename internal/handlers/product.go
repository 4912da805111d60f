package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

// ProductHandler serves the public catalog and product reviews.
type ProductHandler struct {
	catalog *services.CatalogService
	reviews *services.ReviewService
}

func NewProductHandler(catalog *services.CatalogService, reviews *services.ReviewService) *ProductHandler {
	return &ProductHandler{catalog: catalog, reviews: reviews}
}

// ListProducts returns paginated products, optionally within one category.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	var categoryID *uuid.UUID
	if raw := c.Query("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid category_id")
		}
		categoryID = &id
	}

	products, total, err := h.catalog.ListProducts(c.UserContext(), pg, categoryID)
	if err != nil {
		return err
	}

	return paginated(c, products, pg, total)
}

// GetProduct returns one product by slug.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	product, err := h.catalog.GetProductBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

func (h *ProductHandler) ListReviews(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	reviews, total, err := h.reviews.ListByProduct(c.UserContext(), c.Params("slug"), pg)
	if err != nil {
		return err
	}

	return paginated(c, reviews, pg, total)
}

func (h *ProductHandler) CreateReview(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req services.ReviewInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	review, err := h.reviews.Create(c.UserContext(), userID, c.Params("slug"), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": review})
}
