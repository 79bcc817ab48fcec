package service

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	appErrors "github.com/noah-isme/sciclub-api/pkg/errors"
)

// NewValidator returns a validator that reports JSON field names and knows
// the club's custom rules.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// letters and digits both required
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		var letter, digit bool
		for _, r := range fl.Field().String() {
			switch {
			case unicode.IsLetter(r):
				letter = true
			case unicode.IsDigit(r):
				digit = true
			}
		}
		return letter && digit
	})
	return v
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// checkApplicationID rejects identifiers that cannot name a stored application
// so a malformed path segment never reaches the database.
func checkApplicationID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, "application not found")
	}
	return nil
}
