package utils

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	phonePattern = regexp.MustCompile(`^09\d{9}$`)
	otpPattern   = regexp.MustCompile(`^\d{6}$`)

	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator with the storefront tags registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("otp", func(fl validator.FieldLevel) bool {
			return otpPattern.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// ValidPhone reports whether phone is an 11 digit number starting with 09.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// ValidOTP reports whether code is exactly six digits.
func ValidOTP(code string) bool {
	return otpPattern.MatchString(code)
}

// FieldErrors flattens validation errors into field name -> failed tag.
func FieldErrors(err error) map[string]string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}
