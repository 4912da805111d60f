package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/utils"
)

const (
	slugPrefix = "prd-"
	maxStock   = 10000
)

var maxUnitPrice = decimal.NewFromInt(1000000)

// CatalogService manages products and their attributes.
type CatalogService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db, now: time.Now}
}

// ProductInput is the payload for creating a product.
type ProductInput struct {
	Title       string          `json:"title" validate:"required,max=255"`
	Description string          `json:"description" validate:"max=2083"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Stock       int             `json:"stock" validate:"min=0,max=10000"`
	CategoryID  uuid.UUID       `json:"category_id" validate:"required"`
	BrandID     *uuid.UUID      `json:"brand_id"`
	ColorIDs    []uuid.UUID     `json:"color_ids"`
	SizeIDs     []uuid.UUID     `json:"size_ids"`
}

// ProductUpdate changes only the fields that are set.
type ProductUpdate struct {
	Title       *string          `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string          `json:"description" validate:"omitempty,max=2083"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	CategoryID  *uuid.UUID       `json:"category_id"`
	BrandID     *uuid.UUID       `json:"brand_id"`
	ColorIDs    []uuid.UUID      `json:"color_ids"`
	SizeIDs     []uuid.UUID      `json:"size_ids"`
}

func validatePrice(field string, price decimal.Decimal) error {
	if price.IsNegative() || price.GreaterThan(maxUnitPrice) {
		return NewValidationError(field, "range")
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	if err := ValidateStruct(input); err != nil {
		return nil, err
	}
	if err := validatePrice("unit_price", input.UnitPrice); err != nil {
		return nil, err
	}

	product := &models.Product{
		Title:       input.Title,
		Description: input.Description,
		UnitPrice:   input.UnitPrice,
		Stock:       input.Stock,
		CategoryID:  input.CategoryID,
		BrandID:     input.BrandID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireExists(tx, &models.Category{}, input.CategoryID, "category_id"); err != nil {
			return err
		}
		if input.BrandID != nil {
			if err := requireExists(tx, &models.Brand{}, *input.BrandID, "brand_id"); err != nil {
				return err
			}
		}

		slug, err := uniqueSlug(tx, input.Title, uuid.Nil)
		if err != nil {
			return err
		}
		product.Slug = slug

		if err := tx.Create(product).Error; err != nil {
			return err
		}
		return replaceVariants(tx, product, input.ColorIDs, input.SizeIDs)
	})
	if err != nil {
		return nil, err
	}

	return s.GetProduct(ctx, product.ID)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductUpdate) (*models.Product, error) {
	if err := ValidateStruct(input); err != nil {
		return nil, err
	}
	if input.UnitPrice != nil {
		if err := validatePrice("unit_price", *input.UnitPrice); err != nil {
			return nil, err
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, "id = ?", id).Error; err != nil {
			return notFound(err)
		}

		updates := map[string]interface{}{}
		if input.Title != nil && *input.Title != product.Title {
			slug, err := uniqueSlug(tx, *input.Title, product.ID)
			if err != nil {
				return err
			}
			updates["title"] = *input.Title
			updates["slug"] = slug
		}
		if input.Description != nil {
			updates["description"] = *input.Description
		}
		if input.UnitPrice != nil {
			updates["unit_price"] = *input.UnitPrice
		}
		if input.CategoryID != nil {
			if err := requireExists(tx, &models.Category{}, *input.CategoryID, "category_id"); err != nil {
				return err
			}
			updates["category_id"] = *input.CategoryID
		}
		if input.BrandID != nil {
			if err := requireExists(tx, &models.Brand{}, *input.BrandID, "brand_id"); err != nil {
				return err
			}
			updates["brand_id"] = *input.BrandID
		}
		if len(updates) > 0 {
			if err := tx.Model(&product).Updates(updates).Error; err != nil {
				return err
			}
		}
		if input.ColorIDs != nil || input.SizeIDs != nil {
			return replaceVariants(tx, &product, input.ColorIDs, input.SizeIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetProduct(ctx, id)
}

func replaceVariants(tx *gorm.DB, product *models.Product, colorIDs, sizeIDs []uuid.UUID) error {
	if colorIDs != nil {
		var colors []models.Color
		if len(colorIDs) > 0 {
			if err := tx.Where("id IN ?", colorIDs).Find(&colors).Error; err != nil {
				return err
			}
			if len(colors) != len(colorIDs) {
				return NewValidationError("color_ids", "exists")
			}
		}
		if err := tx.Model(product).Association("Colors").Replace(colors); err != nil {
			return err
		}
	}
	if sizeIDs != nil {
		var sizes []models.Size
		if len(sizeIDs) > 0 {
			if err := tx.Where("id IN ?", sizeIDs).Find(&sizes).Error; err != nil {
				return err
			}
			if len(sizes) != len(sizeIDs) {
				return NewValidationError("size_ids", "exists")
			}
		}
		if err := tx.Model(product).Association("Sizes").Replace(sizes); err != nil {
			return err
		}
	}
	return nil
}

// uniqueSlug derives a slug from title, appending -2, -3, ... on collision.
func uniqueSlug(tx *gorm.DB, title string, exclude uuid.UUID) (string, error) {
	base := slugPrefix + utils.Slugify(title)
	slug := base
	for n := 2; ; n++ {
		var count int64
		q := tx.Model(&models.Product{}).Where("slug = ?", slug)
		if exclude != uuid.Nil {
			q = q.Where("id <> ?", exclude)
		}
		if err := q.Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}

func requireExists(tx *gorm.DB, model interface{}, id uuid.UUID, field string) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return NewValidationError(field, "exists")
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *CatalogService) productQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Category").
		Preload("Brand").
		Preload("Colors").
		Preload("Sizes").
		Preload("Promotions")
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.productQuery(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	product.ApplyPromotions(product.Promotions, s.now())
	return &product, nil
}

func (s *CatalogService) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := s.productQuery(ctx).First(&product, "slug = ?", slug).Error; err != nil {
		return nil, notFound(err)
	}
	product.ApplyPromotions(product.Promotions, s.now())
	return &product, nil
}

// ListProducts returns one page of products, newest first, and the total count.
func (s *CatalogService) ListProducts(ctx context.Context, page utils.Pagination, categoryID *uuid.UUID) ([]models.Product, int64, error) {
	base := s.db.WithContext(ctx).Model(&models.Product{})
	if categoryID != nil {
		base = base.Where("category_id = ?", *categoryID)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	q := s.productQuery(ctx)
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}
	if err := q.Order("created_at desc").Limit(page.Limit).Offset(page.Offset).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	now := s.now()
	for i := range products {
		products[i].ApplyPromotions(products[i].Promotions, now)
	}
	return products, total, nil
}

// ReduceStock decrements stock by qty when enough is on hand.
// It reports false and leaves stock untouched otherwise.
func (s *CatalogService) ReduceStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	return reduceStock(s.db.WithContext(ctx), productID, qty)
}

func reduceStock(tx *gorm.DB, productID uuid.UUID, qty int) (bool, error) {
	if qty < 1 {
		return false, NewValidationError("quantity", "min")
	}

	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	var count int64
	if err := tx.Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, ErrNotFound
	}
	return false, nil
}

func restoreStock(tx *gorm.DB, productID uuid.UUID, qty int) error {
	return tx.Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty)).Error
}

// AdjustStock sets the absolute stock level of a product.
func (s *CatalogService) AdjustStock(ctx context.Context, productID uuid.UUID, stock int) (*models.Product, error) {
	if stock < 0 || stock > maxStock {
		return nil, NewValidationError("stock", "range")
	}

	res := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Update("stock", stock)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetProduct(ctx, productID)
}

// PromotionInput is the payload for a time-boxed discount.
type PromotionInput struct {
	DiscountPrice decimal.Decimal `json:"discount_price"`
	StartsAt      time.Time       `json:"starts_at" validate:"required"`
	EndsAt        time.Time       `json:"ends_at" validate:"required,gtfield=StartsAt"`
}

func (s *CatalogService) AddPromotion(ctx context.Context, productID uuid.UUID, input PromotionInput) (*models.Promotion, error) {
	if err := ValidateStruct(input); err != nil {
		return nil, err
	}
	if err := validatePrice("discount_price", input.DiscountPrice); err != nil {
		return nil, err
	}

	promotion := &models.Promotion{
		ProductID:     productID,
		DiscountPrice: input.DiscountPrice,
		StartsAt:      input.StartsAt,
		EndsAt:        input.EndsAt,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, "id = ?", productID).Error; err != nil {
			return notFound(err)
		}
		if !input.DiscountPrice.LessThan(product.UnitPrice) {
			return NewValidationError("discount_price", "ltfield")
		}
		return tx.Create(promotion).Error
	})
	if err != nil {
		return nil, err
	}
	return promotion, nil
}

// CategoryInput is the payload for a category.
type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=2083"`
}

func (s *CatalogService) CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error) {
	if err := ValidateStruct(input); err != nil {
		return nil, err
	}
	category := &models.Category{Name: input.Name, Description: input.Description}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("name asc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// AttributeInput names a brand, color or size.
type AttributeInput struct {
	Name string `json:"name" validate:"required,max=255"`
	Hex  string `json:"hex" validate:"omitempty,hexcolor"`
}

func (s *CatalogService) CreateBrand(ctx context.Context, input AttributeInput) (*models.Brand, error) {
	if err := ValidateStruct(input); err != nil {
		return nil, err
	}
	brand := &models.Brand{Name: input.Name}
	if err := createUnique(s.db.WithContext(ctx), brand, "name", input.Name); err != nil {
		return nil, err
	}
	return brand, nil
}

func (s *CatalogService) ListBrands(ctx context.Context) ([]models.Brand, error) {
	var brands []models.Brand
	if err := s.db.WithContext(ctx).Order("name asc").Find(&brands).Error; err != nil {
		return nil, err
	}
	return brands, nil
}

func (s *CatalogService) CreateColor(ctx context.Context, input AttributeInput) (*models.Color, error) {
	if err := ValidateStruct(input); err != nil {
		return nil, err
	}
	color := &models.Color{Name: input.Name, Hex: input.Hex}
	if err := createUnique(s.db.WithContext(ctx), color, "name", input.Name); err != nil {
		return nil, err
	}
	return color, nil
}

func (s *CatalogService) CreateSize(ctx context.Context, input AttributeInput) (*models.Size, error) {
	if err := ValidateStruct(input); err != nil {
		return nil, err
	}
	size := &models.Size{Name: input.Name}
	if err := createUnique(s.db.WithContext(ctx), size, "name", input.Name); err != nil {
		return nil, err
	}
	return size, nil
}

func createUnique(db *gorm.DB, record interface{}, column, value string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(record).Where(column+" = ?", value).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return NewValidationError(column, "exists")
		}
		return tx.Create(record).Error
	})
}
