package models

import "time"

// UserRole represents the principals known to the RBAC middleware.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleAdvisor UserRole = "ADVISOR"
)

// User is a back-office administrator stored in the users table.
type User struct {
	ID              string     `db:"id" json:"id"`
	Name            string     `db:"name" json:"name"`
	Email           string     `db:"email" json:"email"`
	PasswordHash    string     `db:"password_hash" json:"-"`
	EmailVerifiedAt *time.Time `db:"email_verified_at" json:"email_verified_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
