package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sciclub-api/internal/dto"
	"github.com/noah-isme/sciclub-api/internal/models"
	appErrors "github.com/noah-isme/sciclub-api/pkg/errors"
	"github.com/noah-isme/sciclub-api/pkg/mailer"
)

// OTPStore holds pending codes keyed by purpose and subject.
type OTPStore interface {
	Put(ctx context.Context, key string, entry models.OTPEntry, ttl time.Duration) error
	Get(ctx context.Context, key string) (*models.OTPEntry, error)
	Forget(ctx context.Context, key string) error
}

type otpNotifier interface {
	Send(ctx context.Context, n Notification) error
}

// OTPFlow parameterises one use of the request/verify protocol.
type OTPFlow struct {
	Purpose     models.OTPPurpose
	Min         int
	Max         int
	Template    string
	MailSubject string
}

// Flows sharing the OTP protocol.
var (
	EmailChangeFlow = OTPFlow{
		Purpose:     models.OTPPurposeEmailChange,
		Min:         111111,
		Max:         999999,
		Template:    mailer.TemplateEmailChangeOTP,
		MailSubject: "Email change verification code",
	}
	PasswordChangeFlow = OTPFlow{
		Purpose:     models.OTPPurposePasswordChange,
		Min:         111111,
		Max:         999999,
		Template:    mailer.TemplatePasswordChangeOTP,
		MailSubject: "Password change verification code",
	}
	ContactFlow = OTPFlow{
		Purpose:     models.OTPPurposeContact,
		Min:         100000,
		Max:         999999,
		Template:    mailer.TemplateContactOTP,
		MailSubject: "Your contact form verification code",
	}
)

// OTPChallenge describes who a code is issued for and where it is sent.
type OTPChallenge struct {
	Subject   string
	Recipient string
	Payload   map[string]string
	Context   map[string]interface{}
}

// OTPCommit applies the effect of a verified code. An error keeps the entry.
type OTPCommit func(ctx context.Context, entry *models.OTPEntry) error

// CodeGenerator returns a uniformly drawn code in [min, max].
type CodeGenerator func(min, max int) (string, error)

// OTPService implements the shared request-code / verify-code protocol.
type OTPService struct {
	store    OTPStore
	notifier otpNotifier
	metrics  *MetricsService
	logger   *zap.Logger
	generate CodeGenerator
	now      func() time.Time
}

// NewOTPService constructs an OTPService.
func NewOTPService(store OTPStore, notifier otpNotifier, metrics *MetricsService, logger *zap.Logger) *OTPService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OTPService{
		store:    store,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		generate: randomCode,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source.
func (s *OTPService) WithClock(now func() time.Time) *OTPService {
	if now != nil {
		s.now = now
	}
	return s
}

// WithCodeGenerator overrides code generation.
func (s *OTPService) WithCodeGenerator(gen CodeGenerator) *OTPService {
	if gen != nil {
		s.generate = gen
	}
	return s
}

// Request issues a fresh code, replacing any pending one, and mails it.
// The entry is discarded when the email cannot be delivered.
func (s *OTPService) Request(ctx context.Context, flow OTPFlow, ch OTPChallenge) error {
	code, err := s.generate(flow.Min, flow.Max)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate verification code")
	}

	now := s.now()
	key := models.OTPKey(flow.Purpose, ch.Subject)
	entry := models.OTPEntry{
		Code:      code,
		Payload:   ch.Payload,
		CreatedAt: now,
		ExpiresAt: now.Add(models.OTPTTL),
	}
	if err := s.store.Put(ctx, key, entry, models.OTPTTL); err != nil {
		s.metrics.RecordOTP(flow.Purpose, "request", OutcomeFailure)
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store verification code")
	}

	data := map[string]interface{}{
		"otp":         code,
		"ttl_minutes": int(models.OTPTTL / time.Minute),
	}
	for k, v := range ch.Context {
		data[k] = v
	}
	err = s.notifier.Send(ctx, Notification{
		To:       ch.Recipient,
		Subject:  flow.MailSubject,
		Template: flow.Template,
		Data:     data,
	})
	if err != nil {
		if forgetErr := s.store.Forget(ctx, key); forgetErr != nil {
			s.logger.Warn("failed to discard undelivered otp", zap.String("purpose", string(flow.Purpose)), zap.Error(forgetErr))
		}
		s.metrics.RecordOTP(flow.Purpose, "request", OutcomeFailure)
		s.logger.Error("failed to deliver otp", zap.String("purpose", string(flow.Purpose)), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrNotificationFailed.Code, appErrors.ErrNotificationFailed.Status, "Failed to send verification code. Please try again.")
	}

	s.metrics.RecordOTP(flow.Purpose, "request", OutcomeSuccess)
	return nil
}

// Verify checks code against the pending entry for subject and runs commit on
// a match. A mismatch leaves the entry in place; success removes it.
func (s *OTPService) Verify(ctx context.Context, flow OTPFlow, subject, code string, commit OTPCommit) error {
	key := models.OTPKey(flow.Purpose, subject)
	entry, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			s.metrics.RecordOTP(flow.Purpose, "verify", OutcomeExpired)
			return appErrors.Clone(appErrors.ErrOTPExpired, "")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load verification code")
	}

	if entry.Expired(s.now()) {
		if err := s.store.Forget(ctx, key); err != nil {
			s.logger.Warn("failed to forget expired otp", zap.String("purpose", string(flow.Purpose)), zap.Error(err))
		}
		s.metrics.RecordOTP(flow.Purpose, "verify", OutcomeExpired)
		return appErrors.Clone(appErrors.ErrOTPExpired, "")
	}

	if subtle.ConstantTimeCompare([]byte(entry.Code), []byte(code)) != 1 {
		s.metrics.RecordOTP(flow.Purpose, "verify", OutcomeInvalid)
		return appErrors.Clone(appErrors.ErrOTPInvalid, "")
	}

	if commit != nil {
		if err := commit(ctx, entry); err != nil {
			s.metrics.RecordOTP(flow.Purpose, "verify", OutcomeFailure)
			return err
		}
	}

	if err := s.store.Forget(ctx, key); err != nil {
		s.logger.Warn("failed to forget verified otp", zap.String("purpose", string(flow.Purpose)), zap.Error(err))
	}
	s.metrics.RecordOTP(flow.Purpose, "verify", OutcomeSuccess)
	return nil
}

func randomCode(min, max int) (string, error) {
	if max < min {
		return "", fmt.Errorf("invalid code range %d-%d", min, max)
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max-min+1)))
	if err != nil {
		return "", err
	}
	return strconv.Itoa(min + int(n.Int64())), nil
}

func otpAcknowledgement(message string) *dto.OTPAcknowledgement {
	return &dto.OTPAcknowledgement{Message: message, ExpiresIn: int(models.OTPTTL.Seconds())}
}
