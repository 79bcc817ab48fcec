package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sciclub-api/internal/dto"
	"github.com/noah-isme/sciclub-api/internal/models"
	appErrors "github.com/noah-isme/sciclub-api/pkg/errors"
	"github.com/noah-isme/sciclub-api/pkg/export"
	"github.com/noah-isme/sciclub-api/pkg/mailer"
	"github.com/noah-isme/sciclub-api/pkg/slug"
	"github.com/noah-isme/sciclub-api/pkg/storage"
)

type applicationRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Application, error)
	FindByID(ctx context.Context, id string) (*models.Application, error)
	UpsertByEmail(ctx context.Context, sub models.ApplicationSubmission) (*models.Application, bool, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int, error)
}

type certificateReader interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
}

type workflowNotifier interface {
	Dispatch(ctx context.Context, n Notification) error
}

type downloadTokenParser interface {
	Parse(token string) (*storage.SignedObject, error)
}

type tableRenderer interface {
	Render(table export.Table) ([]byte, error)
}

type documentRenderer interface {
	tableRenderer
	RenderImage(png []byte, title string) ([]byte, error)
}

// DownloadFormat selects the representation returned for a certificate.
type DownloadFormat string

const (
	DownloadDescriptor DownloadFormat = "json"
	DownloadPNG        DownloadFormat = "png"
	DownloadPDF        DownloadFormat = "pdf"
)

// ExportFormat selects the admin roster format.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

const (
	exportRowLimit   = 1000
	exportPageSize   = 100
	downloadNotFound = "Certificate not found or not approved"
)

// CertificateDownload is a released certificate. Data is empty for descriptors.
type CertificateDownload struct {
	Descriptor  dto.CertificateDescriptor
	Filename    string
	ContentType string
	Data        []byte
}

// ExportFile is a rendered admin export.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ApplicationConfig holds the addresses used by the public workflow.
type ApplicationConfig struct {
	AdminRecipient string
	PublicBaseURL  string
	APIPrefix      string
}

// ApplicationService runs the applicant-facing certificate workflow and the admin roster.
type ApplicationService struct {
	repo      applicationRepository
	files     certificateReader
	notifier  workflowNotifier
	tokens    downloadTokenParser
	csv       tableRenderer
	pdf       documentRenderer
	validator *validator.Validate
	logger    *zap.Logger
	config    ApplicationConfig
}

// NewApplicationService constructs an ApplicationService.
func NewApplicationService(
	repo applicationRepository,
	files certificateReader,
	notifier workflowNotifier,
	tokens downloadTokenParser,
	validate *validator.Validate,
	logger *zap.Logger,
	config ApplicationConfig,
) *ApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &ApplicationService{
		repo:      repo,
		files:     files,
		notifier:  notifier,
		tokens:    tokens,
		csv:       export.NewCSVExporter().WithBOM(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
		config:    config,
	}
}

// Submit creates the application for req.Email or resubmits the existing one,
// resetting it to pending. The admin notice is best-effort.
func (s *ApplicationService) Submit(ctx context.Context, req dto.SubmitApplicationRequest) (*dto.SubmitApplicationResponse, error) {
	req.Email = normalizeEmail(req.Email)
	req.ApplicantName = strings.TrimSpace(req.ApplicantName)
	req.Designation = strings.TrimSpace(req.Designation)
	req.MemberSince = strings.TrimSpace(req.MemberSince)
	req.MemberTill = strings.TrimSpace(req.MemberTill)
	req.Impact = optionalString(req.Impact)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid application payload")
	}

	previous, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}

	app, updated, err := s.repo.UpsertByEmail(ctx, models.ApplicationSubmission{
		ApplicantName: req.ApplicantName,
		Email:         req.Email,
		Designation:   req.Designation,
		MemberSince:   req.MemberSince,
		MemberTill:    req.MemberTill,
		Impact:        req.Impact,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save application")
	}

	n := Notification{
		To:       s.config.AdminRecipient,
		Subject:  "New certificate application",
		Template: mailer.TemplateApplicationSubmitted,
		Data:     map[string]interface{}{"application": app},
	}
	if updated {
		n.Subject = "Certificate application updated"
		n.Template = mailer.TemplateApplicationUpdated
		n.Data["existing"] = previous
	}
	if err := s.notifier.Dispatch(ctx, n); err != nil {
		s.logger.Warn("failed to notify admin about application",
			zap.String("application_id", app.ID),
			zap.Bool("updated", updated),
			zap.Error(err))
	}

	return &dto.SubmitApplicationResponse{
		ID:                app.ID,
		Email:             app.Email,
		Updated:           updated,
		CertificateStatus: app.CertificateStatus,
		TrackURL:          s.TrackURL(app.Email),
	}, nil
}

// Track returns only the status for email, or nil when nothing was submitted.
func (s *ApplicationService) Track(ctx context.Context, req dto.TrackApplicationRequest) (*dto.TrackApplicationResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid tracking request")
	}

	app, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	return &dto.TrackApplicationResponse{CertificateStatus: app.CertificateStatus}, nil
}

// Download releases an approved certificate. Unknown emails and unapproved
// applications produce the same error.
func (s *ApplicationService) Download(ctx context.Context, req dto.DownloadCertificateRequest, format DownloadFormat) (*CertificateDownload, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid download request")
	}

	app, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, downloadNotFound)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if !app.Downloadable() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, downloadNotFound)
	}
	return s.release(ctx, app, format)
}

// ResolveSignedDownload releases the certificate referenced by a signed link.
func (s *ApplicationService) ResolveSignedDownload(ctx context.Context, token string, format DownloadFormat) (*CertificateDownload, error) {
	if s.tokens == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, downloadNotFound)
	}
	obj, err := s.tokens.Parse(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "download link has expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid download link")
	}

	app, err := s.repo.FindByID(ctx, obj.OwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, downloadNotFound)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if !app.Downloadable() || *app.CertificateFile != obj.Path {
		return nil, appErrors.Clone(appErrors.ErrNotFound, downloadNotFound)
	}
	return s.release(ctx, app, format)
}

// List returns a page of applications for the admin roster.
func (s *ApplicationService) List(ctx context.Context, query dto.ApplicationListQuery) ([]models.Application, *models.Pagination, error) {
	filter, err := s.filterFromQuery(query)
	if err != nil {
		return nil, nil, err
	}
	apps, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	if pagination.Page < 1 {
		pagination.Page = 1
	}
	if pagination.PageSize <= 0 {
		pagination.PageSize = 20
	}
	return apps, pagination, nil
}

// Get returns an application by id.
func (s *ApplicationService) Get(ctx context.Context, id string) (*models.Application, error) {
	if err := checkApplicationID(id); err != nil {
		return nil, err
	}
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	return app, nil
}

// Delete removes the application and, best-effort, its certificate file.
func (s *ApplicationService) Delete(ctx context.Context, id string) error {
	app, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete application")
	}
	if app.HasCertificateFile() {
		if err := s.files.Delete(ctx, *app.CertificateFile); err != nil {
			s.logger.Warn("failed to delete certificate file", zap.String("application_id", id), zap.Error(err))
		}
	}
	return nil
}

// Export renders the filtered roster, capped at exportRowLimit rows.
func (s *ApplicationService) Export(ctx context.Context, query dto.ApplicationListQuery, format ExportFormat) (*ExportFile, error) {
	filter, err := s.filterFromQuery(query)
	if err != nil {
		return nil, err
	}
	filter.PageSize = exportPageSize

	var rows []map[string]string
	for page := 1; len(rows) < exportRowLimit; page++ {
		filter.Page = page
		apps, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
		}
		for _, app := range apps {
			if len(rows) == exportRowLimit {
				break
			}
			rows = append(rows, exportRow(app))
		}
		if len(apps) < exportPageSize || page*exportPageSize >= total {
			break
		}
	}

	table := export.Table{
		Title: "Certificate applications",
		Columns: []export.Column{
			{Key: "applicant_name", Label: "Name", Width: 2},
			{Key: "email", Label: "Email", Width: 2.5},
			{Key: "designation", Label: "Designation", Width: 1.5},
			{Key: "membership", Label: "Membership", Width: 1.2},
			{Key: "certificate_status", Label: "Status"},
			{Key: "issue_date", Label: "Issued"},
			{Key: "created_at", Label: "Submitted"},
		},
		Rows: rows,
	}

	stamp := time.Now().UTC().Format("20060102")
	switch format {
	case ExportPDF:
		data, err := s.pdf.Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
		}
		return &ExportFile{Filename: "applications_" + stamp + ".pdf", ContentType: "application/pdf", Data: data}, nil
	case ExportCSV, "":
		data, err := s.csv.Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
		}
		return &ExportFile{Filename: "applications_" + stamp + ".csv", ContentType: "text/csv", Data: data}, nil
	default:
		return nil, appErrors.FieldError("format", "must be one of [csv pdf]")
	}
}

// TrackURL is the public tracking address for email.
func (s *ApplicationService) TrackURL(email string) string {
	base := strings.TrimRight(s.config.PublicBaseURL, "/") + s.config.APIPrefix
	return base + "/applications/track?email=" + url.QueryEscape(email)
}

func (s *ApplicationService) release(ctx context.Context, app *models.Application, format DownloadFormat) (*CertificateDownload, error) {
	path := *app.CertificateFile
	rc, err := s.files.Open(ctx, path)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, appErrors.Clone(appErrors.ErrFileNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open certificate")
	}
	defer rc.Close()

	out := &CertificateDownload{
		Descriptor: dto.CertificateDescriptor{
			ID:              app.ID,
			ApplicantName:   app.ApplicantName,
			CertificateFile: path,
			Email:           app.Email,
		},
	}
	if format == DownloadDescriptor {
		return out, nil
	}

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read certificate")
	}
	base := slug.Filename(app.ApplicantName, "member") + "_certificate"

	if format == DownloadPDF {
		doc, err := s.pdf.RenderImage(data, app.ApplicantName)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
		}
		out.Filename = base + ".pdf"
		out.ContentType = "application/pdf"
		out.Data = doc
		return out, nil
	}

	out.Filename = base + ".png"
	out.ContentType = "image/png"
	out.Data = data
	return out, nil
}

func (s *ApplicationService) filterFromQuery(query dto.ApplicationListQuery) (models.ApplicationFilter, error) {
	query.Status = strings.ToLower(strings.TrimSpace(query.Status))
	if err := s.validator.Struct(query); err != nil {
		return models.ApplicationFilter{}, appErrors.Validation(err, "invalid query parameters")
	}
	filter := models.ApplicationFilter{
		Search:    strings.TrimSpace(query.Search),
		Page:      query.Page,
		PageSize:  query.PageSize,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
	}
	if query.Status != "" {
		status := models.CertificateStatus(query.Status)
		filter.Status = &status
	}
	return filter, nil
}

func exportRow(app models.Application) map[string]string {
	issued := ""
	if app.IssueDate != nil {
		issued = app.IssueDate.Format("2006-01-02")
	}
	return map[string]string{
		"applicant_name":     app.ApplicantName,
		"email":              app.Email,
		"designation":        app.Designation,
		"membership":         fmt.Sprintf("%s - %s", app.MemberSince, app.MemberTill),
		"certificate_status": string(app.CertificateStatus),
		"issue_date":         issued,
		"created_at":         app.CreatedAt.Format("2006-01-02"),
	}
}
