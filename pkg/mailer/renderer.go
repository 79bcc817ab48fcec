package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
)

// Template identifiers for every email the club sends.
const (
	TemplateApplicationSubmitted = "application_submitted"
	TemplateApplicationUpdated   = "application_updated"
	TemplateVerificationRequired = "certificate_verification_required"
	TemplateCertificateRevision  = "certificate_revision"
	TemplateCertificateDeclined  = "certificate_declined"
	TemplateCertificateApproved  = "certificate_approved"
	TemplateEmailChangeOTP       = "email_change_otp"
	TemplatePasswordChangeOTP    = "password_change_otp"
	TemplateContactOTP           = "contact_otp"
	TemplateContactMessage       = "contact_message"
	TemplateContactConfirmation  = "contact_confirmation"
)

//go:embed templates/*.html
var defaultTemplates embed.FS

// Renderer executes named HTML email templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded club templates.
func NewRenderer() (*Renderer, error) {
	return NewRendererFS(defaultTemplates, "templates/*.html")
}

// NewRendererFS parses templates matching pattern from fsys.
func NewRendererFS(fsys fs.FS, pattern string) (*Renderer, error) {
	tmpl, err := template.New("mail").Option("missingkey=zero").ParseFS(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render executes the template identified by id with data.
func (r *Renderer) Render(id string, data interface{}) (string, error) {
	t := r.tmpl.Lookup(id + ".html")
	if t == nil {
		return "", fmt.Errorf("mail template %q not found", id)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render mail template %q: %w", id, err)
	}
	return buf.String(), nil
}
