package dto

import (
	"time"

	"github.com/noah-isme/sciclub-api/internal/models"
)

// SubmitApplicationRequest is the public certificate application form.
type SubmitApplicationRequest struct {
	ApplicantName string  `json:"applicant_name" validate:"required,max=255"`
	Email         string  `json:"email" validate:"required,email,max=255"`
	Designation   string  `json:"designation" validate:"required,max=255"`
	MemberSince   string  `json:"member_since" validate:"required,max=255"`
	MemberTill    string  `json:"member_till" validate:"required,max=255"`
	Impact        *string `json:"impact" validate:"omitempty,max=500"`
}

// SubmitApplicationResponse tells the applicant where to track the request.
type SubmitApplicationResponse struct {
	ID                string                   `json:"id"`
	Email             string                   `json:"email"`
	Updated           bool                     `json:"updated"`
	CertificateStatus models.CertificateStatus `json:"certificate_status"`
	TrackURL          string                   `json:"track_url"`
}

// TrackApplicationRequest looks up an application status by email.
type TrackApplicationRequest struct {
	Email string `json:"email" form:"email" validate:"required,email,max=255"`
}

// TrackApplicationResponse only ever exposes the status.
type TrackApplicationResponse struct {
	CertificateStatus models.CertificateStatus `json:"certificate_status"`
}

// DownloadCertificateRequest identifies the applicant whose certificate is requested.
type DownloadCertificateRequest struct {
	Email string `json:"email" form:"email" validate:"required,email,max=255"`
}

// CertificateDescriptor is the JSON form of a download for programmatic callers.
type CertificateDescriptor struct {
	ID              string `json:"id"`
	ApplicantName   string `json:"applicant_name"`
	CertificateFile string `json:"certificate_file"`
	Email           string `json:"email"`
}

// CertificateDescriptorResponse wraps the descriptor under "application".
type CertificateDescriptorResponse struct {
	Application CertificateDescriptor `json:"application"`
}

// UpdateApplicationRequest is the admin review form.
type UpdateApplicationRequest struct {
	Note                 *string `json:"note" validate:"omitempty,max=300"`
	CertificateText      *string `json:"certificate_text"`
	CertificateStatus    string  `json:"certificate_status" validate:"required,oneof=pending verified revision approved declined"`
	TemplateID           *string `json:"certificate_template" validate:"omitempty,uuid"`
	IssuedBy             *string `json:"certificate_issued_by" validate:"omitempty,uuid"`
	CertificatePositions *string `json:"certificate_positions"`
	// CertificateFile is an optional data URI (data:image/<type>;base64,<payload>).
	CertificateFile *string `json:"certificate_file"`
}

// ApplicationListQuery holds admin listing query parameters.
type ApplicationListQuery struct {
	Search    string `form:"search"`
	Status    string `form:"status" validate:"omitempty,oneof=pending verified revision approved declined"`
	Page      int    `form:"page" validate:"omitempty,min=1"`
	PageSize  int    `form:"page_size" validate:"omitempty,min=1,max=100"`
	SortBy    string `form:"sort"`
	SortOrder string `form:"order"`
}

// ApprovalResponse is returned by the advisor approval action.
type ApprovalResponse struct {
	ID                string                   `json:"id"`
	CertificateStatus models.CertificateStatus `json:"certificate_status"`
	IssuedBy          string                   `json:"issued_by"`
	IssueDate         time.Time                `json:"issue_date"`
	CertificateURL    string                   `json:"certificate_url,omitempty"`
}
