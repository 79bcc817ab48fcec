package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sciclub-api/internal/dto"
	"github.com/noah-isme/sciclub-api/internal/models"
	appErrors "github.com/noah-isme/sciclub-api/pkg/errors"
	"github.com/noah-isme/sciclub-api/pkg/slug"
)

const (
	advisorImageDir     = "advisors"
	advisorSignatureDir = "advisor_sign"
)

type advisorProfileRepository interface {
	FindByID(ctx context.Context, id string) (*models.Advisor, error)
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	UpdateProfile(ctx context.Context, advisor *models.Advisor) error
}

// advisorUpload describes one replaceable advisor image.
type advisorUpload struct {
	field   string
	label   string
	dir     string
	prefix  string
	formats map[string]string
	allowed string
	dataURI *string
	current **string
}

var (
	profileImageFormats = map[string]string{"jpeg": "jpg", "jpg": "jpg", "png": "png", "gif": "gif"}
	signatureFormats    = map[string]string{"jpeg": "jpg", "jpg": "jpg", "png": "png", "gif": "gif", "svg+xml": "svg"}
)

// AdvisorProfileService lets a signed-in advisor maintain their own account.
type AdvisorProfileService struct {
	repo      advisorProfileRepository
	files     certificateWriter
	validator *validator.Validate
	logger    *zap.Logger
	suffix    func() int
}

// NewAdvisorProfileService constructs an AdvisorProfileService.
func NewAdvisorProfileService(repo advisorProfileRepository, files certificateWriter, validate *validator.Validate, logger *zap.Logger) *AdvisorProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &AdvisorProfileService{
		repo:      repo,
		files:     files,
		validator: validate,
		logger:    logger,
		suffix:    func() int { return 10000 + rand.IntN(90000) },
	}
}

// Profile returns the signed-in advisor.
func (s *AdvisorProfileService) Profile(ctx context.Context, advisorID string) (*models.Advisor, error) {
	return s.loadAdvisor(ctx, advisorID)
}

// UpdateProfile replaces the advisor's editable fields. New images are written
// before the row is updated; replaced files are removed only after it succeeds.
func (s *AdvisorProfileService) UpdateProfile(ctx context.Context, advisorID string, req dto.UpdateAdvisorProfileRequest) (*models.Advisor, error) {
	req.AdvisorName = strings.TrimSpace(req.AdvisorName)
	req.Email = normalizeEmail(req.Email)
	req.Department = strings.TrimSpace(req.Department)
	req.Designation = strings.TrimSpace(req.Designation)
	req.FacebookURL = optionalString(req.FacebookURL)
	req.LinkedinURL = optionalString(req.LinkedinURL)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid advisor profile")
	}

	advisor, err := s.loadAdvisor(ctx, advisorID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(advisor.Email, req.Email) {
		taken, err := s.repo.EmailTaken(ctx, req.Email, advisor.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
		}
		if taken {
			return nil, appErrors.FieldError("email", "The email has already been taken.")
		}
	}

	updated := *advisor
	updated.AdvisorName = req.AdvisorName
	updated.Email = req.Email
	updated.Department = &req.Department
	updated.Designation = &req.Designation
	updated.FacebookURL = req.FacebookURL
	updated.LinkedinURL = req.LinkedinURL
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		updated.PasswordHash = string(hash)
	}

	uploads := []advisorUpload{
		{field: "profile_image", label: "profile image", dir: advisorImageDir, prefix: "profile", formats: profileImageFormats, allowed: "jpeg, png or gif", dataURI: req.ProfileImage, current: &updated.ProfileImage},
		{field: "signature", label: "signature", dir: advisorSignatureDir, prefix: "signature", formats: signatureFormats, allowed: "jpeg, png, gif or svg", dataURI: req.Signature, current: &updated.Signature},
	}
	var written, replaced []string
	for _, u := range uploads {
		dataURI := optionalString(u.dataURI)
		if dataURI == nil {
			continue
		}
		name, err := s.storeImage(ctx, &updated, u, *dataURI)
		if err != nil {
			s.discard(ctx, written, "failed to remove unused advisor image")
			return nil, err
		}
		written = append(written, name)
		if old := *u.current; old != nil && *old != "" && *old != name {
			replaced = append(replaced, *old)
		}
		*u.current = &name
	}

	if err := s.repo.UpdateProfile(ctx, &updated); err != nil {
		s.discard(ctx, written, "failed to remove unused advisor image")
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "advisor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update advisor profile")
	}
	s.discard(ctx, replaced, "failed to delete replaced advisor image")

	s.logger.Info("advisor profile updated", zap.String("advisor_id", advisor.ID), zap.Bool("password_changed", req.Password != ""))
	return &updated, nil
}

func (s *AdvisorProfileService) storeImage(ctx context.Context, advisor *models.Advisor, u advisorUpload, dataURI string) (string, error) {
	ext, ok := u.formats[strings.ToLower(imageSubtype(dataURI))]
	if !ok {
		return "", appErrors.FieldError(u.field, fmt.Sprintf("The %s must be a %s image.", u.label, u.allowed))
	}
	data, err := decodeCertificateImage(dataURI)
	if err != nil {
		return "", appErrors.FieldError(u.field, fmt.Sprintf("The %s could not be decoded.", u.label))
	}
	if err := s.files.EnsureDir(ctx, u.dir); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store "+u.label)
	}
	name := fmt.Sprintf("%s/%s_%s_%05d.%s", u.dir, u.prefix, slug.Filename(advisor.AdvisorName, "advisor"), s.suffix(), ext)
	stored, err := s.files.Save(ctx, name, data)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store "+u.label)
	}
	return stored, nil
}

func (s *AdvisorProfileService) discard(ctx context.Context, names []string, msg string) {
	for _, name := range names {
		if err := s.files.Delete(ctx, name); err != nil {
			s.logger.Warn(msg, zap.String("file", name), zap.Error(err))
		}
	}
}

func (s *AdvisorProfileService) loadAdvisor(ctx context.Context, id string) (*models.Advisor, error) {
	advisor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "advisor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load advisor")
	}
	return advisor, nil
}

func imageSubtype(dataURI string) string {
	if m := dataURIPrefix.FindStringSubmatch(dataURI); m != nil {
		return m[1]
	}
	return ""
}
