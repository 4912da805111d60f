package models

import "github.com/google/uuid"

// Address is a shipping address. At most one address per user is active.
type Address struct {
	BaseModel
	UserID     uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_addresses_user_active,where:is_active = true" json:"user_id"`
	User       *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Address    string    `gorm:"not null" json:"address"`
	City       string    `json:"city"`
	Province   string    `json:"province"`
	PostalCode string    `json:"postal_code"`
	IsActive   bool      `gorm:"not null;default:false" json:"is_active"`
}
