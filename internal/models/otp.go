package models

import "time"

// OTPTTL is the fixed lifetime of every one-time code.
const OTPTTL = 10 * time.Minute

// OTPPurpose namespaces OTP entries.
type OTPPurpose string

const (
	OTPPurposeEmailChange    OTPPurpose = "email_change"
	OTPPurposePasswordChange OTPPurpose = "password_change"
	OTPPurposeContact        OTPPurpose = "contact"
)

// OTPKey builds the store key for a purpose and subject (user id or email).
func OTPKey(purpose OTPPurpose, subject string) string {
	return "otp:" + string(purpose) + ":" + subject
}

// OTPEntry is the ephemeral value held by an OTP store.
type OTPEntry struct {
	Code      string            `json:"code"`
	Payload   map[string]string `json:"payload,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// Expired reports whether the entry is no longer valid at now.
func (e OTPEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}
