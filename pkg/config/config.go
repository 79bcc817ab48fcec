package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Driver names shared by pluggable backends.
const (
	DriverSMTP   = "smtp"
	DriverLog    = "log"
	DriverLocal  = "local"
	DriverGCS    = "gcs"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

type Config struct {
	Env           string
	Port          int
	APIPrefix     string
	PublicBaseURL string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Mail       MailConfig
	Storage    StorageConfig
	OTP        OTPConfig
	Statistics StatisticsConfig
	Metrics    MetricsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host        string
	Port        int
	Password    string
	DB          int
	PoolSize    int
	DialTimeout time.Duration
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MailConfig selects the mail transport and the fixed recipients of club notifications.
type MailConfig struct {
	Driver      string
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string
	TLSPolicy   string
	Timeout     time.Duration

	// AdminRecipient receives new and updated application notices.
	AdminRecipient string
	// ContactRecipient receives verified contact form messages.
	ContactRecipient string

	AsyncWorkers int
	AsyncRetries int
	RetryDelay   time.Duration
}

// StorageConfig selects where certificate images live.
type StorageConfig struct {
	Driver             string
	LocalDir           string
	GCSBucket          string
	GCSCredentialsFile string
	SignedURLSecret    string
	SignedURLTTL       time.Duration
}

// OTPConfig selects the OTP store backend.
type OTPConfig struct {
	Store string
}

// StatisticsConfig toggles page-view recording.
type StatisticsConfig struct {
	Enabled bool
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.PublicBaseURL = strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:        v.GetString("REDIS_HOST"),
		Port:        v.GetInt("REDIS_PORT"),
		Password:    v.GetString("REDIS_PASSWORD"),
		DB:          v.GetInt("REDIS_DB"),
		PoolSize:    v.GetInt("REDIS_POOL_SIZE"),
		DialTimeout: parseDuration(v.GetString("REDIS_DIAL_TIMEOUT"), 5*time.Second),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Mail = MailConfig{
		Driver:           strings.ToLower(v.GetString("MAIL_DRIVER")),
		Host:             v.GetString("MAIL_HOST"),
		Port:             v.GetInt("MAIL_PORT"),
		Username:         v.GetString("MAIL_USERNAME"),
		Password:         v.GetString("MAIL_PASSWORD"),
		FromAddress:      v.GetString("MAIL_FROM_ADDRESS"),
		FromName:         v.GetString("MAIL_FROM_NAME"),
		TLSPolicy:        strings.ToLower(v.GetString("MAIL_TLS_POLICY")),
		Timeout:          parseDuration(v.GetString("MAIL_TIMEOUT"), 15*time.Second),
		AdminRecipient:   v.GetString("MAIL_ADMIN_RECIPIENT"),
		ContactRecipient: v.GetString("MAIL_CONTACT_RECIPIENT"),
		AsyncWorkers:     v.GetInt("MAIL_ASYNC_WORKERS"),
		AsyncRetries:     v.GetInt("MAIL_ASYNC_RETRIES"),
		RetryDelay:       parseDuration(v.GetString("MAIL_RETRY_DELAY"), 5*time.Second),
	}

	cfg.Storage = StorageConfig{
		Driver:             strings.ToLower(v.GetString("STORAGE_DRIVER")),
		LocalDir:           v.GetString("STORAGE_LOCAL_DIR"),
		GCSBucket:          v.GetString("STORAGE_GCS_BUCKET"),
		GCSCredentialsFile: v.GetString("STORAGE_GCS_CREDENTIALS_FILE"),
		SignedURLSecret:    v.GetString("CERTIFICATE_SIGNED_URL_SECRET"),
		SignedURLTTL:       parseDuration(v.GetString("CERTIFICATE_SIGNED_URL_TTL"), 30*24*time.Hour),
	}

	cfg.OTP = OTPConfig{Store: strings.ToLower(v.GetString("OTP_STORE"))}

	cfg.Statistics = StatisticsConfig{Enabled: v.GetBool("ENABLE_STATISTICS")}
	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "sciclub")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "sciclub-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("MAIL_DRIVER", DriverLog)
	v.SetDefault("MAIL_HOST", "localhost")
	v.SetDefault("MAIL_PORT", 587)
	v.SetDefault("MAIL_USERNAME", "")
	v.SetDefault("MAIL_PASSWORD", "")
	v.SetDefault("MAIL_FROM_ADDRESS", "no-reply@mbstusc.edu.bd")
	v.SetDefault("MAIL_FROM_NAME", "MBSTU Science Club")
	v.SetDefault("MAIL_TLS_POLICY", "opportunistic")
	v.SetDefault("MAIL_TIMEOUT", "15s")
	v.SetDefault("MAIL_ADMIN_RECIPIENT", "admin@mbstusc.edu.bd")
	v.SetDefault("MAIL_CONTACT_RECIPIENT", "admin@mbstusc.edu.bd")
	v.SetDefault("MAIL_ASYNC_WORKERS", 2)
	v.SetDefault("MAIL_ASYNC_RETRIES", 3)
	v.SetDefault("MAIL_RETRY_DELAY", "5s")

	v.SetDefault("STORAGE_DRIVER", DriverLocal)
	v.SetDefault("STORAGE_LOCAL_DIR", "./storage")
	v.SetDefault("STORAGE_GCS_BUCKET", "")
	v.SetDefault("STORAGE_GCS_CREDENTIALS_FILE", "")
	v.SetDefault("CERTIFICATE_SIGNED_URL_SECRET", "dev_certificate_secret")
	v.SetDefault("CERTIFICATE_SIGNED_URL_TTL", "720h")

	v.SetDefault("OTP_STORE", DriverRedis)
	v.SetDefault("ENABLE_STATISTICS", true)
	v.SetDefault("ENABLE_METRICS", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
