package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sciclub-api/internal/dto"
	"github.com/noah-isme/sciclub-api/internal/models"
	appErrors "github.com/noah-isme/sciclub-api/pkg/errors"
	"github.com/noah-isme/sciclub-api/pkg/mailer"
)

// ContactConfig names the inbox that receives contact messages.
type ContactConfig struct {
	Recipient string
}

// ContactService verifies the sender's address before relaying a contact message.
type ContactService struct {
	otp       otpProtocol
	notifier  otpNotifier
	validator *validator.Validate
	logger    *zap.Logger
	config    ContactConfig
}

// NewContactService constructs a ContactService.
func NewContactService(otp otpProtocol, notifier otpNotifier, validate *validator.Validate, logger *zap.Logger, config ContactConfig) *ContactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &ContactService{otp: otp, notifier: notifier, validator: validate, logger: logger, config: config}
}

// RequestCode mails a verification code to the sender.
func (s *ContactService) RequestCode(ctx context.Context, req dto.ContactOTPRequest) (*dto.OTPAcknowledgement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid contact payload")
	}
	email := normalizeEmail(req.Email)

	if err := s.otp.Request(ctx, ContactFlow, OTPChallenge{Subject: email, Recipient: email}); err != nil {
		return nil, err
	}
	return otpAcknowledgement("A verification code has been sent to your email address."), nil
}

// Verify relays the message once the code for the same email matches. The code
// is consumed once the relay is delivered; the confirmation to the sender is
// best-effort so a retry never relays the same message twice.
func (s *ContactService) Verify(ctx context.Context, req dto.ContactVerifyRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid contact payload")
	}
	email := normalizeEmail(req.Email)
	subject := strings.TrimSpace(req.Subject)
	message := strings.TrimSpace(req.MessageText)

	return s.otp.Verify(ctx, ContactFlow, email, req.OTP, func(ctx context.Context, _ *models.OTPEntry) error {
		data := map[string]interface{}{
			"email":   email,
			"subject": subject,
			"message": message,
		}
		if err := s.notifier.Send(ctx, Notification{
			To:       s.config.Recipient,
			Subject:  "Contact form: " + subject,
			Template: mailer.TemplateContactMessage,
			Data:     data,
		}); err != nil {
			s.logger.Error("failed to relay contact message", zap.Error(err))
			return appErrors.Wrap(err, appErrors.ErrNotificationFailed.Code, appErrors.ErrNotificationFailed.Status, "Failed to send your message. Please try again.")
		}
		if err := s.notifier.Send(ctx, Notification{
			To:       email,
			Subject:  "We received your message",
			Template: mailer.TemplateContactConfirmation,
			Data:     data,
		}); err != nil {
			s.logger.Warn("failed to send contact confirmation", zap.String("email", email), zap.Error(err))
		}
		return nil
	})
}
