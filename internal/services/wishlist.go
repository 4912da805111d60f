package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/storefront/internal/models"
)

type WishlistService struct {
	db *gorm.DB
}

func NewWishlistService(db *gorm.DB) *WishlistService {
	return &WishlistService{db: db}
}

// Add puts a product on the user's wishlist. Adding it twice is a no-op.
func (s *WishlistService) Add(ctx context.Context, userID, productID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		item := models.WishlistItem{UserID: userID, ProductID: productID}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).Create(&item).Error
	})
}

func (s *WishlistService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.WishlistItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *WishlistService) List(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := s.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
