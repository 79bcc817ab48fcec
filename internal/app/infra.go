package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/sciclub-api/internal/repository"
	"github.com/noah-isme/sciclub-api/internal/service"
	"github.com/noah-isme/sciclub-api/pkg/cache"
	"github.com/noah-isme/sciclub-api/pkg/config"
	"github.com/noah-isme/sciclub-api/pkg/mailer"
	"github.com/noah-isme/sciclub-api/pkg/storage"
)

// CertificateStore is the object storage used for certificate images.
type CertificateStore interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
	EnsureDir(ctx context.Context, dir string) error
}

// OTPStore is a service.OTPStore that can also sweep expired entries.
type OTPStore interface {
	service.OTPStore
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}

// OpenStorage returns the certificate store selected by STORAGE_DRIVER.
func OpenStorage(ctx context.Context, cfg config.StorageConfig) (CertificateStore, func() error, error) {
	switch cfg.Driver {
	case config.DriverGCS:
		store, err := storage.NewGCSStorage(ctx, storage.GCSOptions{
			Bucket:          cfg.GCSBucket,
			CredentialsFile: cfg.GCSCredentialsFile,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.DriverLocal, "":
		store, err := storage.NewLocalStorage(cfg.LocalDir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// OpenOTPStore returns the OTP store selected by OTP_STORE. The redis client
// is returned so callers can reuse it for readiness checks; it is nil for the
// memory store.
func OpenOTPStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (OTPStore, *redis.Client, error) {
	switch cfg.OTP.Store {
	case config.DriverMemory:
		logger.Warn("using in-memory OTP store; codes do not survive restarts or span instances")
		return repository.NewMemoryOTPStore(), nil, nil
	case config.DriverRedis, "":
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisOTPStore(client, logger), client, nil
	default:
		return nil, nil, fmt.Errorf("unknown otp store %q", cfg.OTP.Store)
	}
}

// NewMailSender returns the transport selected by MAIL_DRIVER.
func NewMailSender(cfg config.MailConfig, logger *zap.Logger) (mailer.Sender, error) {
	switch cfg.Driver {
	case config.DriverSMTP:
		return mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:        cfg.Host,
			Port:        cfg.Port,
			Username:    cfg.Username,
			Password:    cfg.Password,
			FromAddress: cfg.FromAddress,
			FromName:    cfg.FromName,
			TLSPolicy:   cfg.TLSPolicy,
			Timeout:     cfg.Timeout,
		})
	case config.DriverLog, "":
		return mailer.NewLogSender(logger.Named("mail")), nil
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.Driver)
	}
}
