package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	CartLabelPrimary   = "Primary"
	CartLabelSecondary = "Secondary"
)

// CartLabels lists cart labels in the order they are handed out.
var CartLabels = []string{CartLabelPrimary, CartLabelSecondary}

// MaxCartsPerUser is the number of carts a user may own at once.
const MaxCartsPerUser = 2

type Cart struct {
	BaseModel
	UserID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_carts_user_label" json:"user_id"`
	User       *User           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Label      string          `gorm:"size:16;not null;uniqueIndex:idx_carts_user_label" json:"label"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"total_price"`
	Items      []CartItem      `gorm:"constraint:OnDelete:CASCADE" json:"items"`
}

// Recalculate sets TotalPrice to the sum of the item prices.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Price)
	}
	c.TotalPrice = total
}

type CartItem struct {
	BaseModel
	CartID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cart_items_cart_product" json:"cart_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cart_items_cart_product" json:"product_id"`
	Product   *Product        `gorm:"constraint:OnDelete:CASCADE" json:"product,omitempty"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
}

// Reprice recomputes the line price from the product's current unit price.
func (i *CartItem) Reprice(unitPrice decimal.Decimal) {
	i.Price = unitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
