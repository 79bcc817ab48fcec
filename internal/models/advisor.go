package models

import "time"

// ClubRole distinguishes advisors from moderators.
type ClubRole string

const (
	ClubRoleAdvisor   ClubRole = "Advisor"
	ClubRoleModerator ClubRole = "Moderator"
)

// Advisor is a faculty account that approves verified applications.
type Advisor struct {
	ID           string    `db:"id" json:"id"`
	AdvisorName  string    `db:"advisor_name" json:"advisor_name"`
	Email        string    `db:"email" json:"email"`
	Department   *string   `db:"department" json:"department,omitempty"`
	Designation  *string   `db:"designation" json:"designation,omitempty"`
	ClubRole     ClubRole  `db:"club_role" json:"club_role"`
	FacebookURL  *string   `db:"facebook_url" json:"facebook_url,omitempty"`
	LinkedinURL  *string   `db:"linkedin_url" json:"linkedin_url,omitempty"`
	ProfileImage *string   `db:"profile_image" json:"profile_image,omitempty"`
	Signature    *string   `db:"signature" json:"signature,omitempty"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CertificateTemplate is a background design for rendered certificates.
type CertificateTemplate struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	ImagePath string    `db:"image_path" json:"image_path"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
