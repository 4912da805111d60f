package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/storefront/internal/models"
)

// CartService manages the (at most two) carts of each user.
type CartService struct {
	db *gorm.DB
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

// Create opens a new cart labelled with the first free label.
func (s *CartService) Create(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart := &models.Cart{UserID: userID}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockUser(tx, userID); err != nil {
			return err
		}

		var labels []string
		if err := tx.Model(&models.Cart{}).Where("user_id = ?", userID).Pluck("label", &labels).Error; err != nil {
			return err
		}
		if len(labels) >= models.MaxCartsPerUser {
			return ErrTooManyCarts
		}

		cart.Label = nextCartLabel(labels)
		if cart.Label == "" {
			return ErrTooManyCarts
		}
		return tx.Create(cart).Error
	})
	if err != nil {
		return nil, err
	}

	cart.Items = []models.CartItem{}
	return cart, nil
}

func nextCartLabel(taken []string) string {
	used := make(map[string]bool, len(taken))
	for _, l := range taken {
		used[l] = true
	}
	for _, l := range models.CartLabels {
		if !used[l] {
			return l
		}
	}
	return ""
}

func (s *CartService) List(ctx context.Context, userID uuid.UUID) ([]models.Cart, error) {
	var carts []models.Cart
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&carts).Error
	if err != nil {
		return nil, err
	}
	return carts, nil
}

func (s *CartService) Get(ctx context.Context, userID, cartID uuid.UUID) (*models.Cart, error) {
	return loadCart(s.db.WithContext(ctx), userID, cartID)
}

func loadCart(db *gorm.DB, userID, cartID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Preload("Items.Product").
		First(&cart, "id = ?", cartID).Error
	if err != nil {
		return nil, notFound(err)
	}
	if cart.UserID != userID {
		return nil, ErrPermissionDenied
	}
	return &cart, nil
}

// lockOwnedCart locks the cart row and checks it belongs to userID.
func lockOwnedCart(tx *gorm.DB, userID, cartID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&cart, "id = ?", cartID).Error
	if err != nil {
		return nil, notFound(err)
	}
	if cart.UserID != userID {
		return nil, ErrPermissionDenied
	}
	return &cart, nil
}

func (s *CartService) Delete(ctx context.Context, userID, cartID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := lockOwnedCart(tx, userID, cartID)
		if err != nil {
			return err
		}
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(cart).Error
	})
}

func validateQuantity(qty int) error {
	if qty < 1 || qty > maxStock {
		return NewValidationError("quantity", "range")
	}
	return nil
}

// AddItem adds qty of a product to the cart, merging with an existing line.
func (s *CartService) AddItem(ctx context.Context, userID, cartID, productID uuid.UUID, qty int) (*models.Cart, error) {
	if err := validateQuantity(qty); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := lockOwnedCart(tx, userID, cartID)
		if err != nil {
			return err
		}

		var product models.Product
		if err := tx.First(&product, "id = ?", productID).Error; err != nil {
			return notFound(err)
		}

		var item models.CartItem
		err = tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).First(&item).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: qty}
		case err != nil:
			return err
		default:
			item.Quantity += qty
			if err := validateQuantity(item.Quantity); err != nil {
				return err
			}
		}

		item.Reprice(product.UnitPrice)
		if err := tx.Save(&item).Error; err != nil {
			return err
		}
		return recalculateCart(tx, cart)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, userID, cartID)
}

// UpdateItem sets the quantity of one cart line.
func (s *CartService) UpdateItem(ctx context.Context, userID, cartID, itemID uuid.UUID, qty int) (*models.Cart, error) {
	if err := validateQuantity(qty); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := lockOwnedCart(tx, userID, cartID)
		if err != nil {
			return err
		}

		var item models.CartItem
		if err := tx.Preload("Product").Where("cart_id = ?", cart.ID).First(&item, "id = ?", itemID).Error; err != nil {
			return notFound(err)
		}

		item.Quantity = qty
		item.Reprice(item.Product.UnitPrice)
		if err := tx.Model(&item).Updates(map[string]interface{}{
			"quantity": item.Quantity,
			"price":    item.Price,
		}).Error; err != nil {
			return err
		}
		return recalculateCart(tx, cart)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, userID, cartID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, cartID, itemID uuid.UUID) (*models.Cart, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := lockOwnedCart(tx, userID, cartID)
		if err != nil {
			return err
		}

		res := tx.Where("cart_id = ? AND id = ?", cart.ID, itemID).Delete(&models.CartItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return recalculateCart(tx, cart)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, userID, cartID)
}

// recalculateCart stores the sum of the cart's line prices as its total.
func recalculateCart(tx *gorm.DB, cart *models.Cart) error {
	if err := tx.Where("cart_id = ?", cart.ID).Find(&cart.Items).Error; err != nil {
		return err
	}
	cart.Recalculate()
	return tx.Model(cart).Update("total_price", cart.TotalPrice).Error
}
