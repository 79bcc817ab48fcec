package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sciclub-api/internal/dto"
	"github.com/noah-isme/sciclub-api/internal/models"
	appErrors "github.com/noah-isme/sciclub-api/pkg/errors"
)

type accountUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	UpdateEmail(ctx context.Context, id, email string, verifiedAt time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	UpdateName(ctx context.Context, id, name string, updatedAt time.Time) error
}

type otpProtocol interface {
	Request(ctx context.Context, flow OTPFlow, ch OTPChallenge) error
	Verify(ctx context.Context, flow OTPFlow, subject, code string, commit OTPCommit) error
}

const (
	payloadEmail        = "email"
	payloadPasswordHash = "password_hash"
)

// AccountService manages the signed-in admin's own profile.
type AccountService struct {
	repo      accountUserRepository
	otp       otpProtocol
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAccountService constructs an AccountService.
func NewAccountService(repo accountUserRepository, otp otpProtocol, validate *validator.Validate, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &AccountService{
		repo:      repo,
		otp:       otp,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RequestEmailChange mails a code to the current address authorising a move to req.Email.
func (s *AccountService) RequestEmailChange(ctx context.Context, userID string, req dto.EmailChangeRequest) (*dto.OTPAcknowledgement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid email change payload")
	}
	newEmail := normalizeEmail(req.Email)

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(user.Email, newEmail) {
		return nil, appErrors.FieldError("email", "The new email must differ from the current one.")
	}
	if err := s.ensureEmailAvailable(ctx, newEmail, user.ID); err != nil {
		return nil, err
	}

	err = s.otp.Request(ctx, EmailChangeFlow, OTPChallenge{
		Subject:   user.ID,
		Recipient: user.Email,
		Payload:   map[string]string{payloadEmail: newEmail},
		Context:   map[string]interface{}{"name": user.Name, "new_email": newEmail},
	})
	if err != nil {
		return nil, err
	}
	return otpAcknowledgement("A verification code has been sent to your current email address."), nil
}

// VerifyEmailChange applies the pending email change when the code matches.
func (s *AccountService) VerifyEmailChange(ctx context.Context, userID string, req dto.VerifyOTPRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid verification payload")
	}

	err := s.otp.Verify(ctx, EmailChangeFlow, userID, req.OTP, func(ctx context.Context, entry *models.OTPEntry) error {
		newEmail := entry.Payload[payloadEmail]
		if newEmail == "" {
			return appErrors.Clone(appErrors.ErrOTPExpired, "")
		}
		if err := s.ensureEmailAvailable(ctx, newEmail, userID); err != nil {
			return err
		}
		if err := s.repo.UpdateEmail(ctx, userID, newEmail, s.now()); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "user not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update email")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("admin email changed", zap.String("user_id", userID))
	return s.loadUser(ctx, userID)
}

// RequestPasswordChange checks the current password and mails a code
// authorising the new one. Only the hash of the new password is held.
func (s *AccountService) RequestPasswordChange(ctx context.Context, userID string, req dto.PasswordChangeRequest) (*dto.OTPAcknowledgement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid password change payload")
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return nil, appErrors.FieldError("current_password", "The current password is incorrect.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	err = s.otp.Request(ctx, PasswordChangeFlow, OTPChallenge{
		Subject:   user.ID,
		Recipient: user.Email,
		Payload:   map[string]string{payloadPasswordHash: string(hash)},
		Context:   map[string]interface{}{"name": user.Name},
	})
	if err != nil {
		return nil, err
	}
	return otpAcknowledgement("A verification code has been sent to your email address."), nil
}

// VerifyPasswordChange stores the pending password hash when the code matches.
func (s *AccountService) VerifyPasswordChange(ctx context.Context, userID string, req dto.VerifyOTPRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid verification payload")
	}

	err := s.otp.Verify(ctx, PasswordChangeFlow, userID, req.OTP, func(ctx context.Context, entry *models.OTPEntry) error {
		hash := entry.Payload[payloadPasswordHash]
		if hash == "" {
			return appErrors.Clone(appErrors.ErrOTPExpired, "")
		}
		if err := s.repo.UpdatePassword(ctx, userID, hash, s.now()); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "user not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("admin password changed", zap.String("user_id", userID))
	return nil
}

// UpdateName changes the display name.
func (s *AccountService) UpdateName(ctx context.Context, userID string, req dto.UpdateNameRequest) (*models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid name payload")
	}
	if err := s.repo.UpdateName(ctx, userID, req.Name, s.now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update name")
	}
	return s.loadUser(ctx, userID)
}

// Profile returns the signed-in admin.
func (s *AccountService) Profile(ctx context.Context, userID string) (*models.User, error) {
	return s.loadUser(ctx, userID)
}

func (s *AccountService) loadUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

func (s *AccountService) ensureEmailAvailable(ctx context.Context, email, userID string) error {
	taken, err := s.repo.EmailTaken(ctx, email, userID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if taken {
		return appErrors.FieldError("email", "The email has already been taken.")
	}
	return nil
}
