package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending   = "Pending"
	OrderStatusShipped   = "Shipped"
	OrderStatusDelivered = "Delivered"
	OrderStatusCanceled  = "Canceled"
)

var orderTransitions = map[string][]string{
	OrderStatusPending: {OrderStatusShipped, OrderStatusDelivered, OrderStatusCanceled},
	OrderStatusShipped: {OrderStatusDelivered},
}

// IsOrderStatus reports whether s is a known order status.
func IsOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusShipped, OrderStatusDelivered, OrderStatusCanceled:
		return true
	}
	return false
}

type Order struct {
	BaseModel
	UserID          uuid.UUID       `gorm:"type:uuid;index;not null" json:"user_id"`
	User            *User           `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Number          string          `gorm:"uniqueIndex;not null" json:"number"`
	Status          string          `gorm:"size:16;index;not null" json:"status"`
	PlacedAt        time.Time       `json:"placed_at"`
	AddressID       *uuid.UUID      `gorm:"type:uuid" json:"address_id"`
	ShippingAddress string          `json:"shipping_address"`
	ShippingCity    string          `json:"shipping_city"`
	ShippingProv    string          `gorm:"column:shipping_province" json:"shipping_province"`
	ShippingPostal  string          `gorm:"column:shipping_postal_code" json:"shipping_postal_code"`
	TotalPrice      decimal.Decimal `gorm:"column:order_total_price;type:numeric(12,2);not null;default:0" json:"order_total_price"`
	Items           []OrderItem     `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// CanTransitionTo reports whether the order may move to the given status.
func (o *Order) CanTransitionTo(status string) bool {
	for _, next := range orderTransitions[o.Status] {
		if next == status {
			return true
		}
	}
	return false
}

// Recalculate sets TotalPrice to the sum of the item prices.
func (o *Order) Recalculate() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Price)
	}
	o.TotalPrice = total
}

// OrderItem is a snapshot of a cart line at checkout.
type OrderItem struct {
	BaseModel
	OrderID      uuid.UUID       `gorm:"type:uuid;index;not null" json:"order_id"`
	ProductID    uuid.UUID       `gorm:"type:uuid;index;not null" json:"product_id"`
	ProductTitle string          `json:"product_title"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	UnitPrice    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Price        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
}
