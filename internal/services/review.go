package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/utils"
)

type ReviewService struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

// ReviewInput is the payload for a product review.
type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// Create adds a review by userID for the product with the given slug.
func (s *ReviewService) Create(ctx context.Context, userID uuid.UUID, slug string, input ReviewInput) (*models.Review, error) {
	if err := ValidateStruct(input); err != nil {
		return nil, err
	}

	var product models.Product
	if err := s.db.WithContext(ctx).Select("id").First(&product, "slug = ?", slug).Error; err != nil {
		return nil, notFound(err)
	}

	review := &models.Review{
		UserID:    userID,
		ProductID: product.ID,
		Rating:    input.Rating,
		Comment:   input.Comment,
	}
	if err := s.db.WithContext(ctx).Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

// ListByProduct returns one page of a product's reviews, newest first.
func (s *ReviewService) ListByProduct(ctx context.Context, slug string, page utils.Pagination) ([]models.Review, int64, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).Select("id").First(&product, "slug = ?", slug).Error; err != nil {
		return nil, 0, notFound(err)
	}

	q := s.db.WithContext(ctx).Model(&models.Review{}).Where("product_id = ?", product.ID).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []models.Review
	if err := q.Order("created_at desc").Limit(page.Limit).Offset(page.Offset).Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (s *ReviewService) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}
