package models

import (
	"fmt"
	"strings"
	"time"
)

// CertificateStatus is the closed set of states an application moves through.
type CertificateStatus string

const (
	StatusPending  CertificateStatus = "pending"
	StatusVerified CertificateStatus = "verified"
	StatusRevision CertificateStatus = "revision"
	StatusApproved CertificateStatus = "approved"
	StatusDeclined CertificateStatus = "declined"
)

// CertificateStatuses lists every status in display order.
var CertificateStatuses = []CertificateStatus{StatusPending, StatusVerified, StatusRevision, StatusApproved, StatusDeclined}

// ParseCertificateStatus accepts a status name case-insensitively.
func ParseCertificateStatus(raw string) (CertificateStatus, error) {
	s := CertificateStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown certificate status %q", raw)
	}
	return s, nil
}

// Valid reports whether s is one of the defined statuses.
func (s CertificateStatus) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusRevision, StatusApproved, StatusDeclined:
		return true
	}
	return false
}

// Notification names the email a status change triggers.
type Notification string

const (
	NotifyNone              Notification = ""
	NotifyAdvisor           Notification = "advisor_verification"
	NotifyApplicantRevision Notification = "applicant_revision"
	NotifyApplicantDeclined Notification = "applicant_declined"
)

// StatusChange is a single admin-driven transition.
type StatusChange struct {
	From CertificateStatus
	To   CertificateStatus
}

// Changed reports whether the status actually moves.
func (c StatusChange) Changed() bool {
	return c.From != c.To
}

// Notification returns the email triggered by entering the new status.
// Same-status updates and moves into pending or approved notify nobody.
func (c StatusChange) Notification() Notification {
	if !c.Changed() {
		return NotifyNone
	}
	switch c.To {
	case StatusVerified:
		return NotifyAdvisor
	case StatusRevision:
		return NotifyApplicantRevision
	case StatusDeclined:
		return NotifyApplicantDeclined
	default:
		return NotifyNone
	}
}

// AdminAllowed reports whether the admin edit path may perform the change.
// Entering approved is reserved for the advisor action, which stamps issue data.
func (c StatusChange) AdminAllowed() bool {
	if !c.From.Valid() || !c.To.Valid() {
		return false
	}
	return c.To != StatusApproved || c.From == StatusApproved
}

// AdvisorMayApprove reports whether an advisor can approve from the given status.
func AdvisorMayApprove(from CertificateStatus) bool {
	return from == StatusVerified
}

// Application is a membership certificate request, one per applicant email.
type Application struct {
	ID                   string            `db:"id" json:"id"`
	ApplicantName        string            `db:"applicant_name" json:"applicant_name"`
	Email                string            `db:"email" json:"email"`
	Designation          string            `db:"designation" json:"designation"`
	MemberSince          string            `db:"member_since" json:"member_since"`
	MemberTill           string            `db:"member_till" json:"member_till"`
	Impact               *string           `db:"impact" json:"impact,omitempty"`
	CertificateStatus    CertificateStatus `db:"certificate_status" json:"certificate_status"`
	Note                 *string           `db:"note" json:"note,omitempty"`
	CertificateText      *string           `db:"certificate_text" json:"certificate_text,omitempty"`
	TemplateID           *string           `db:"template_id" json:"template_id,omitempty"`
	IssuedBy             *string           `db:"issued_by" json:"issued_by,omitempty"`
	IssueDate            *time.Time        `db:"issue_date" json:"issue_date,omitempty"`
	CertificatePositions *string           `db:"certificate_positions" json:"certificate_positions,omitempty"`
	CertificateFile      *string           `db:"certificate_file" json:"certificate_file,omitempty"`
	CreatedAt            time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time         `db:"updated_at" json:"updated_at"`
}

// HasCertificateFile reports whether a certificate image path is recorded.
func (a *Application) HasCertificateFile() bool {
	return a != nil && a.CertificateFile != nil && *a.CertificateFile != ""
}

// Downloadable reports whether the certificate may be released to the applicant.
func (a *Application) Downloadable() bool {
	return a != nil && a.CertificateStatus == StatusApproved && a.HasCertificateFile()
}

// ApplicationSubmission carries applicant-editable fields for create-or-update.
type ApplicationSubmission struct {
	ApplicantName string
	Email         string
	Designation   string
	MemberSince   string
	MemberTill    string
	Impact        *string
}

// ApplicationReview carries the admin-editable workflow fields.
// A nil CertificateFile keeps the stored path.
type ApplicationReview struct {
	Note                 *string
	CertificateText      *string
	Status               CertificateStatus
	TemplateID           *string
	IssuedBy             *string
	CertificatePositions *string
	CertificateFile      *string
}

// ApplicationFilter captures admin listing criteria.
type ApplicationFilter struct {
	Search    string
	Status    *CertificateStatus
	IssuedBy  string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
