package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/example/storefront/internal/utils"
)

var (
	ErrRateLimited         = errors.New("please wait before requesting a new OTP")
	ErrInvalidOrExpiredOTP = errors.New("invalid or expired OTP")
	ErrInvalidCredentials  = errors.New("invalid phone number or password")
	ErrInactiveAccount     = errors.New("user account is inactive")
	ErrUserNotFound        = errors.New("user not found")
	ErrTooManyCarts        = errors.New("you can only have up to 2 carts")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrNotFound            = errors.New("not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidTransition   = errors.New("invalid order status transition")
	ErrInvalidToken        = errors.New("invalid or expired token")
)

// ValidationError reports malformed input, keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

// ValidateStruct runs the shared validator and converts failures to *ValidationError.
func ValidateStruct(s interface{}) error {
	err := utils.Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return &ValidationError{Fields: utils.FieldErrors(verrs)}
	}
	return err
}

func validatePhone(phone string) error {
	if !utils.ValidPhone(phone) {
		return NewValidationError("phone_number", "phone")
	}
	return nil
}

// RateLimitError is returned when an OTP is requested inside the cooldown window.
type RateLimitError struct {
	Remaining time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s (%d seconds remaining)", ErrRateLimited.Error(), e.RemainingSeconds())
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// RemainingSeconds rounds the wait down to whole seconds, never below 1 while waiting.
func (e *RateLimitError) RemainingSeconds() int {
	secs := int(e.Remaining / time.Second)
	if secs < 1 && e.Remaining > 0 {
		return 1
	}
	return secs
}
