package models

import "time"

// SystemMetrics is a lightweight snapshot of process counters.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	NotificationsSent        uint64    `json:"notifications_sent"`
	NotificationsFailed      uint64    `json:"notifications_failed"`
	OTPIssued                uint64    `json:"otp_issued"`
	OTPVerified              uint64    `json:"otp_verified"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
