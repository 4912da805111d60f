package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a customer or staff account identified by phone number.
// An empty PasswordHash means the account can only sign in by OTP.
type User struct {
	BaseModel
	PhoneNumber  string       `gorm:"size:11;uniqueIndex;not null" json:"phone_number"`
	PasswordHash string       `json:"-"`
	IsActive     bool         `gorm:"not null;default:true" json:"is_active"`
	IsStaff      bool         `gorm:"not null;default:false" json:"is_staff"`
	IsSuperuser  bool         `gorm:"not null;default:false" json:"is_superuser"`
	Profile      *UserProfile `gorm:"constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

// HasPassword reports whether the account can use the password login path.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// UserProfile keeps the editable personal details of a user.
type UserProfile struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
}

// OTP is a one-time login code issued to a user.
type OTP struct {
	BaseModel
	UserID   uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	User     *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Code     string    `gorm:"size:6;not null" json:"-"`
	Attempts int       `gorm:"not null;default:0" json:"attempts"`
}

// IsValid reports whether the code may still be checked at the given instant.
func (o *OTP) IsValid(now time.Time, cooldown time.Duration, maxAttempts int) bool {
	return !now.After(o.CreatedAt.Add(cooldown)) && o.Attempts < maxAttempts
}

// CanResend reports whether the cooldown window has elapsed.
func (o *OTP) CanResend(now time.Time, cooldown time.Duration) bool {
	return !now.Before(o.CreatedAt.Add(cooldown))
}

// ResendIn returns the time left until a new code may be requested, floored at zero.
func (o *OTP) ResendIn(now time.Time, cooldown time.Duration) time.Duration {
	remaining := o.CreatedAt.Add(cooldown).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
