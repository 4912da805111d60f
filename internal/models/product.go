package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	BaseModel
	Title       string          `gorm:"not null" json:"title"`
	Slug        string          `gorm:"uniqueIndex;not null" json:"slug"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Stock       int             `gorm:"not null;default:0" json:"stock"`
	CategoryID  uuid.UUID       `gorm:"type:uuid;index;not null" json:"category_id"`
	Category    *Category       `json:"category,omitempty"`
	BrandID     *uuid.UUID      `gorm:"type:uuid;index" json:"brand_id"`
	Brand       *Brand          `json:"brand,omitempty"`
	Colors      []Color         `gorm:"many2many:product_colors;" json:"colors,omitempty"`
	Sizes       []Size          `gorm:"many2many:product_sizes;" json:"sizes,omitempty"`
	Promotions  []Promotion     `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	IsAvailable   bool             `gorm:"-" json:"is_available"`
	DiscountPrice *decimal.Decimal `gorm:"-" json:"discount_price"`
}

// AfterFind fills the fields derived from stored state.
func (p *Product) AfterFind(tx *gorm.DB) error {
	p.IsAvailable = p.Stock > 0
	return nil
}

// ApplyPromotions sets DiscountPrice from the lowest promotion valid at now.
func (p *Product) ApplyPromotions(promotions []Promotion, now time.Time) {
	p.DiscountPrice = nil
	for _, promo := range promotions {
		if promo.ProductID != p.ID || !promo.ActiveAt(now) {
			continue
		}
		if p.DiscountPrice == nil || promo.DiscountPrice.LessThan(*p.DiscountPrice) {
			price := promo.DiscountPrice
			p.DiscountPrice = &price
		}
	}
}

// Promotion lowers the displayed price of a product for a time window.
type Promotion struct {
	BaseModel
	ProductID     uuid.UUID       `gorm:"type:uuid;index;not null" json:"product_id"`
	DiscountPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount_price"`
	StartsAt      time.Time       `gorm:"not null" json:"starts_at"`
	EndsAt        time.Time       `gorm:"not null" json:"ends_at"`
}

// ActiveAt reports whether the promotion applies at the given instant.
func (p Promotion) ActiveAt(now time.Time) bool {
	return !now.Before(p.StartsAt) && now.Before(p.EndsAt)
}

type Review struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ProductID uuid.UUID `gorm:"type:uuid;index;not null" json:"product_id"`
	Product   *Product  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `json:"comment"`
}

type WishlistItem struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_user_product" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_user_product" json:"product_id"`
	Product   *Product  `gorm:"constraint:OnDelete:CASCADE" json:"product,omitempty"`
}
