package service

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sciclub-api/internal/dto"
	"github.com/noah-isme/sciclub-api/internal/models"
	appErrors "github.com/noah-isme/sciclub-api/pkg/errors"
	"github.com/noah-isme/sciclub-api/pkg/mailer"
	"github.com/noah-isme/sciclub-api/pkg/slug"
)

const certificateDir = "certificates"

var (
	errInvalidImageFormat = errors.New("invalid image format")
	errImageDecode        = errors.New("image decode error")

	dataURIPrefix = regexp.MustCompile(`^data:image/([a-zA-Z0-9.+-]+);base64,`)
)

type reviewRepository interface {
	FindByID(ctx context.Context, id string) (*models.Application, error)
	UpdateReview(ctx context.Context, id string, review models.ApplicationReview) (*models.Application, error)
	Approve(ctx context.Context, id, advisorID string, issuedAt time.Time) (*models.Application, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int, error)
}

type advisorLookup interface {
	FindByID(ctx context.Context, id string) (*models.Advisor, error)
}

type templateLookup interface {
	FindByID(ctx context.Context, id string) (*models.CertificateTemplate, error)
}

type certificateWriter interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	Delete(ctx context.Context, name string) error
	EnsureDir(ctx context.Context, dir string) error
}

type downloadLinkSigner interface {
	Generate(ownerID, relPath string) (string, time.Time, error)
}

// ReviewConfig holds addresses placed in review emails.
type ReviewConfig struct {
	PublicBaseURL string
	APIPrefix     string
	DashboardURL  string
}

// ReviewService handles admin status updates and advisor approvals.
type ReviewService struct {
	repo      reviewRepository
	advisors  advisorLookup
	templates templateLookup
	files     certificateWriter
	notifier  workflowNotifier
	links     downloadLinkSigner
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    ReviewConfig
	now       func() time.Time
	suffix    func() int
}

// NewReviewService constructs a ReviewService.
func NewReviewService(
	repo reviewRepository,
	advisors advisorLookup,
	templates templateLookup,
	files certificateWriter,
	notifier workflowNotifier,
	links downloadLinkSigner,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	config ReviewConfig,
) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &ReviewService{
		repo:      repo,
		advisors:  advisors,
		templates: templates,
		files:     files,
		notifier:  notifier,
		links:     links,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
		suffix:    func() int { return 10000 + rand.IntN(90000) },
	}
}

// UpdateApplication applies an admin review. A supplied certificate image is
// stored before the row is updated and the previous file is removed only
// after the update succeeds. Transition emails are best-effort.
func (s *ReviewService) UpdateApplication(ctx context.Context, id string, req dto.UpdateApplicationRequest) (*models.Application, error) {
	req.CertificateStatus = strings.ToLower(strings.TrimSpace(req.CertificateStatus))
	req.TemplateID = optionalString(req.TemplateID)
	req.IssuedBy = optionalString(req.IssuedBy)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid application update")
	}
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

	change := models.StatusChange{From: app.CertificateStatus, To: models.CertificateStatus(req.CertificateStatus)}
	if !change.AdminAllowed() {
		return nil, appErrors.FieldError("certificate_status", "Approval must be granted by the assigned advisor.")
	}

	var advisor *models.Advisor
	if change.Notification() == models.NotifyAdvisor && req.IssuedBy == nil {
		return nil, appErrors.FieldError("certificate_issued_by", "An advisor must be assigned before verification.")
	}
	if req.IssuedBy != nil {
		if advisor, err = s.lookupAdvisor(ctx, *req.IssuedBy); err != nil {
			return nil, err
		}
	}
	if req.TemplateID != nil {
		if _, err := s.templates.FindByID(ctx, *req.TemplateID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.FieldError("certificate_template", "The selected template does not exist.")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
		}
	}

	review := models.ApplicationReview{
		Note:                 optionalString(req.Note),
		CertificateText:      req.CertificateText,
		Status:               change.To,
		TemplateID:           req.TemplateID,
		IssuedBy:             req.IssuedBy,
		CertificatePositions: req.CertificatePositions,
	}

	var newFile string
	if image := optionalString(req.CertificateFile); image != nil {
		if newFile, err = s.storeCertificate(ctx, app, *image); err != nil {
			return nil, err
		}
		review.CertificateFile = &newFile
	}

	updated, err := s.repo.UpdateReview(ctx, id, review)
	if err != nil {
		if newFile != "" {
			if delErr := s.files.Delete(ctx, newFile); delErr != nil {
				s.logger.Warn("failed to remove orphaned certificate", zap.String("file", newFile), zap.Error(delErr))
			}
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update application")
	}

	if newFile != "" && app.HasCertificateFile() && *app.CertificateFile != newFile {
		if err := s.files.Delete(ctx, *app.CertificateFile); err != nil {
			s.logger.Warn("failed to delete previous certificate", zap.String("file", *app.CertificateFile), zap.Error(err))
		}
	}

	if change.Changed() {
		s.metrics.RecordStatusChange(change.From, change.To)
	}
	s.notifyTransition(ctx, change, updated, advisor)
	return updated, nil
}

// Approve marks a verified application approved on behalf of advisorID and
// always emails the applicant.
func (s *ReviewService) Approve(ctx context.Context, advisorID, applicationID string) (*dto.ApprovalResponse, error) {
	if err := checkApplicationID(applicationID); err != nil {
		return nil, err
	}
	app, err := s.repo.FindByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if app.IssuedBy != nil && *app.IssuedBy != advisorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "application is assigned to another advisor")
	}
	if !models.AdvisorMayApprove(app.CertificateStatus) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "only verified applications can be approved")
	}

	issuedAt := s.now()
	approved, err := s.repo.Approve(ctx, applicationID, advisorID, issuedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "application status changed, reload and try again")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve application")
	}
	s.metrics.RecordStatusChange(app.CertificateStatus, models.StatusApproved)

	certificateURL := s.certificateURL(approved)
	if err := s.notifier.Dispatch(ctx, Notification{
		To:       approved.Email,
		Subject:  "Your certificate has been approved",
		Template: mailer.TemplateCertificateApproved,
		Data: map[string]interface{}{
			"applicant_name":  approved.ApplicantName,
			"certificate_url": certificateURL,
		},
	}); err != nil {
		s.logger.Warn("failed to notify applicant about approval", zap.String("application_id", approved.ID), zap.Error(err))
	}

	issueDate := issuedAt
	if approved.IssueDate != nil {
		issueDate = *approved.IssueDate
	}
	return &dto.ApprovalResponse{
		ID:                approved.ID,
		CertificateStatus: approved.CertificateStatus,
		IssuedBy:          advisorID,
		IssueDate:         issueDate,
		CertificateURL:    certificateURL,
	}, nil
}

// ListForAdvisor returns applications assigned to advisorID.
func (s *ReviewService) ListForAdvisor(ctx context.Context, advisorID string, query dto.ApplicationListQuery) ([]models.Application, *models.Pagination, error) {
	query.Status = strings.ToLower(strings.TrimSpace(query.Status))
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Validation(err, "invalid query parameters")
	}
	filter := models.ApplicationFilter{
		Search:    strings.TrimSpace(query.Search),
		IssuedBy:  advisorID,
		Page:      query.Page,
		PageSize:  query.PageSize,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
	}
	if query.Status != "" {
		status := models.CertificateStatus(query.Status)
		filter.Status = &status
	}
	apps, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return apps, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func (s *ReviewService) lookupAdvisor(ctx context.Context, id string) (*models.Advisor, error) {
	advisor, err := s.advisors.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.FieldError("certificate_issued_by", "The selected advisor does not exist.")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load advisor")
	}
	return advisor, nil
}

func (s *ReviewService) storeCertificate(ctx context.Context, app *models.Application, dataURI string) (string, error) {
	data, err := decodeCertificateImage(dataURI)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrCertificateUploadFailed.Code, appErrors.ErrCertificateUploadFailed.Status, appErrors.ErrCertificateUploadFailed.Message)
	}
	if err := s.files.EnsureDir(ctx, certificateDir); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrCertificateUploadFailed.Code, appErrors.ErrCertificateUploadFailed.Status, appErrors.ErrCertificateUploadFailed.Message)
	}
	name := fmt.Sprintf("%s/%s_%05d.png", certificateDir, slug.Filename(app.ApplicantName, "member"), s.suffix())
	stored, err := s.files.Save(ctx, name, data)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrCertificateUploadFailed.Code, appErrors.ErrCertificateUploadFailed.Status, appErrors.ErrCertificateUploadFailed.Message)
	}
	return stored, nil
}

func (s *ReviewService) notifyTransition(ctx context.Context, change models.StatusChange, app *models.Application, advisor *models.Advisor) {
	var n Notification
	switch change.Notification() {
	case models.NotifyAdvisor:
		if advisor == nil {
			s.logger.Error("verified application has no resolvable advisor", zap.String("application_id", app.ID))
			return
		}
		n = Notification{
			To:       advisor.Email,
			Subject:  "Certificate approval requested",
			Template: mailer.TemplateVerificationRequired,
			Data: map[string]interface{}{
				"application_id": app.ID,
				"club_role":      string(advisor.ClubRole),
				"advisor_name":   advisor.AdvisorName,
				"dashboard_url":  s.config.DashboardURL,
			},
		}
	case models.NotifyApplicantRevision:
		n = s.applicantNotice(app, change, "Your certificate application needs revision", mailer.TemplateCertificateRevision)
	case models.NotifyApplicantDeclined:
		n = s.applicantNotice(app, change, "Your certificate application was declined", mailer.TemplateCertificateDeclined)
	default:
		return
	}

	if err := s.notifier.Dispatch(ctx, n); err != nil {
		s.logger.Warn("failed to send status notification",
			zap.String("application_id", app.ID),
			zap.String("template", n.Template),
			zap.Error(err))
	}
}

func (s *ReviewService) applicantNotice(app *models.Application, change models.StatusChange, subject, template string) Notification {
	return Notification{
		To:       app.Email,
		Subject:  subject,
		Template: template,
		Data: map[string]interface{}{
			"application": app,
			"note":        stringValue(app.Note),
			"old_status":  string(change.From),
		},
	}
}

func (s *ReviewService) certificateURL(app *models.Application) string {
	if s.links == nil || !app.HasCertificateFile() {
		return ""
	}
	token, _, err := s.links.Generate(app.ID, *app.CertificateFile)
	if err != nil {
		s.logger.Warn("failed to sign certificate link", zap.String("application_id", app.ID), zap.Error(err))
		return ""
	}
	return strings.TrimRight(s.config.PublicBaseURL, "/") + s.config.APIPrefix + "/certificates/files/" + token
}

func decodeCertificateImage(dataURI string) ([]byte, error) {
	loc := dataURIPrefix.FindStringIndex(dataURI)
	if loc == nil {
		return nil, errInvalidImageFormat
	}
	payload := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, dataURI[loc[1]:])
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errImageDecode, err)
	}
	if len(data) == 0 {
		return nil, errImageDecode
	}
	return data, nil
}
