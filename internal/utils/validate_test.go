package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type phoneRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,phone"`
	Code        string `json:"code" validate:"omitempty,otp"`
}

func TestValidPhone(t *testing.T) {
	assert.True(t, ValidPhone("09123456789"))
	assert.False(t, ValidPhone("9123456789"))
	assert.False(t, ValidPhone("0912345678a"))
	assert.False(t, ValidPhone("091234567890"))
	assert.False(t, ValidPhone("08123456789"))
}

func TestValidOTP(t *testing.T) {
	assert.True(t, ValidOTP("004213"))
	assert.False(t, ValidOTP("12345"))
	assert.False(t, ValidOTP("12a456"))
}

func TestValidator(t *testing.T) {
	err := Validator().Struct(phoneRequest{PhoneNumber: "12345", Code: "12"})
	require.Error(t, err)

	fields := FieldErrors(err)
	assert.Equal(t, "phone", fields["phone_number"])
	assert.Equal(t, "otp", fields["code"])

	assert.NoError(t, Validator().Struct(phoneRequest{PhoneNumber: "09123456789", Code: "123456"}))
}
