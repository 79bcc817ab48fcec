package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Status  int               `json:"status"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so that clones of a predefined
// error still satisfy errors.Is against the original.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials      = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrNotFound                = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden               = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized            = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict                = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation              = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal                = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss               = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrOTPExpired              = New("OTP_EXPIRED", http.StatusUnprocessableEntity, "OTP has expired. Please request a new one.")
	ErrOTPInvalid              = New("OTP_INVALID", http.StatusUnprocessableEntity, "Invalid OTP. Please try again.")
	ErrCertificateUploadFailed = New("CERTIFICATE_UPLOAD_FAILED", http.StatusUnprocessableEntity, "Failed to upload certificate image.")
	ErrNotificationFailed      = New("NOTIFICATION_FAILED", http.StatusBadGateway, "failed to send notification")
	ErrFileNotFound            = New("FILE_NOT_FOUND", http.StatusNotFound, "File not found")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Validation converts validator failures into a field-scoped validation error.
func Validation(err error, message string) *Error {
	out := Wrap(err, ErrValidation.Code, ErrValidation.Status, message)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out.Fields = make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out.Fields[fieldName(fe)] = fieldMessage(fe)
		}
	}
	return out
}

// FieldError builds a validation error for a single field.
func FieldError(field, message string) *Error {
	out := Clone(ErrValidation, message)
	out.Fields = map[string]string{field: message}
	return out
}

func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return strings.ToLower(fe.StructField())
	}
	return name
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "numeric":
		return "must contain digits only"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "eqfield":
		return "confirmation does not match"
	case "uuid4", "uuid":
		return "must be a valid identifier"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
