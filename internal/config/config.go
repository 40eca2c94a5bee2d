package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config aggregates runtime configuration for the modelvault API.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	MinIO    MinIOConfig
	Storage  StorageConfig
	Auth     AuthConfig
	Billing  BillingConfig
	Log      LogConfig
	Metrics  MetricsConfig
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	PublicURL    string
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PostgresConfig contains PostgreSQL connection details.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DSN returns the PostgreSQL DSN string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// RedisConfig locates the Redis instance holding pairing sessions.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MinIOConfig carries MinIO connection and shared bucket information.
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	Region          string
	UploadsBucket   string
	CatalogBucket   string
}

// StorageConfig tunes quota and upload behaviour.
type StorageConfig struct {
	DefaultQuotaBytes int64
	MaxUploadBytes    int64
	PresignTTL        time.Duration
	CatalogDir        string
}

// AuthConfig groups authentication-related settings.
type AuthConfig struct {
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	BcryptCost         int
	SecureCookies      bool
}

// BillingConfig holds Stripe credentials.
type BillingConfig struct {
	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string
}

// LogConfig selects logger level and encoding.
type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

var defaults = map[string]any{
	"MODELVAULT_API_HOST":           "0.0.0.0",
	"MODELVAULT_API_PORT":           8080,
	"MODELVAULT_API_READ_TIMEOUT":   "30s",
	"MODELVAULT_API_WRITE_TIMEOUT":  "120s",
	"MODELVAULT_API_IDLE_TIMEOUT":   "60s",
	"MODELVAULT_PUBLIC_URL":         "http://localhost:5173",
	"POSTGRES_HOST":                 "localhost",
	"POSTGRES_PORT":                 5432,
	"POSTGRES_USER":                 "modelvault",
	"POSTGRES_PASSWORD":             "change-me",
	"POSTGRES_DB":                   "modelvault",
	"POSTGRES_SSL_MODE":             "disable",
	"REDIS_ADDR":                    "localhost:6379",
	"REDIS_PASSWORD":                "",
	"REDIS_DB":                      0,
	"MINIO_ENDPOINT":                "localhost:9000",
	"MINIO_ACCESS_KEY":              "admin",
	"MINIO_SECRET_KEY":              "admin12345",
	"MINIO_USE_SSL":                 false,
	"MINIO_REGION":                  "us-east-1",
	"MINIO_UPLOADS_BUCKET":          "user-uploads",
	"MINIO_CATALOG_BUCKET":          "3d-models",
	"STORAGE_DEFAULT_QUOTA_BYTES":   int64(1 << 30),
	"STORAGE_MAX_UPLOAD_BYTES":      int64(100 << 20),
	"STORAGE_PRESIGN_TTL":           "1h",
	"STORAGE_CATALOG_DIR":           "static/models",
	"MODELVAULT_JWT_SECRET":         "change-me-to-a-32-byte-secret",
	"MODELVAULT_JWT_REFRESH_SECRET": "change-me-to-a-64-byte-secret",
	"MODELVAULT_ACCESS_TOKEN_TTL":   "1h",
	"MODELVAULT_REFRESH_TOKEN_TTL":  "720h",
	"MODELVAULT_BCRYPT_COST":        12,
	"MODELVAULT_SECURE_COOKIES":     false,
	"STRIPE_SECRET_KEY":             "",
	"STRIPE_WEBHOOK_SECRET":         "",
	"STRIPE_CURRENCY":               "eur",
	"LOG_LEVEL":                     "info",
	"LOG_FORMAT":                    "json",
	"MODELVAULT_METRICS_PATH":       "/metrics",
}

// Load reads configuration from the environment, optionally overlaid by a
// .env file in the working directory, applying defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := Config{
		Server: ServerConfig{
			Host:         v.GetString("MODELVAULT_API_HOST"),
			Port:         v.GetInt("MODELVAULT_API_PORT"),
			ReadTimeout:  v.GetDuration("MODELVAULT_API_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("MODELVAULT_API_WRITE_TIMEOUT"),
			IdleTimeout:  v.GetDuration("MODELVAULT_API_IDLE_TIMEOUT"),
			PublicURL:    strings.TrimRight(v.GetString("MODELVAULT_PUBLIC_URL"), "/"),
		},
		Postgres: PostgresConfig{
			Host:     v.GetString("POSTGRES_HOST"),
			Port:     v.GetInt("POSTGRES_PORT"),
			User:     v.GetString("POSTGRES_USER"),
			Password: v.GetString("POSTGRES_PASSWORD"),
			Database: v.GetString("POSTGRES_DB"),
			SSLMode:  strings.ToLower(v.GetString("POSTGRES_SSL_MODE")),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		MinIO: MinIOConfig{
			Endpoint:        v.GetString("MINIO_ENDPOINT"),
			AccessKeyID:     v.GetString("MINIO_ACCESS_KEY"),
			SecretAccessKey: v.GetString("MINIO_SECRET_KEY"),
			UseSSL:          v.GetBool("MINIO_USE_SSL"),
			Region:          v.GetString("MINIO_REGION"),
			UploadsBucket:   v.GetString("MINIO_UPLOADS_BUCKET"),
			CatalogBucket:   v.GetString("MINIO_CATALOG_BUCKET"),
		},
		Storage: StorageConfig{
			DefaultQuotaBytes: v.GetInt64("STORAGE_DEFAULT_QUOTA_BYTES"),
			MaxUploadBytes:    v.GetInt64("STORAGE_MAX_UPLOAD_BYTES"),
			PresignTTL:        v.GetDuration("STORAGE_PRESIGN_TTL"),
			CatalogDir:        v.GetString("STORAGE_CATALOG_DIR"),
		},
		Auth: loadAuthConfig(v),
		Billing: BillingConfig{
			StripeSecretKey:     v.GetString("STRIPE_SECRET_KEY"),
			StripeWebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
			Currency:            strings.ToLower(v.GetString("STRIPE_CURRENCY")),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
		Metrics: MetricsConfig{
			PrometheusPath: v.GetString("MODELVAULT_METRICS_PATH"),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Storage.DefaultQuotaBytes <= 0 {
		return fmt.Errorf("STORAGE_DEFAULT_QUOTA_BYTES must be positive")
	}
	if c.Storage.MaxUploadBytes <= 0 {
		return fmt.Errorf("STORAGE_MAX_UPLOAD_BYTES must be positive")
	}
	if c.Storage.PresignTTL <= 0 {
		return fmt.Errorf("STORAGE_PRESIGN_TTL must be positive")
	}
	if c.MinIO.UploadsBucket == "" || c.MinIO.CatalogBucket == "" {
		return fmt.Errorf("shared bucket names must not be empty")
	}
	return nil
}

func loadAuthConfig(v *viper.Viper) AuthConfig {
	cost := v.GetInt("MODELVAULT_BCRYPT_COST")
	if cost < 4 || cost > 31 {
		cost = 12
	}

	return AuthConfig{
		AccessTokenSecret:  v.GetString("MODELVAULT_JWT_SECRET"),
		RefreshTokenSecret: v.GetString("MODELVAULT_JWT_REFRESH_SECRET"),
		AccessTokenTTL:     v.GetDuration("MODELVAULT_ACCESS_TOKEN_TTL"),
		RefreshTokenTTL:    v.GetDuration("MODELVAULT_REFRESH_TOKEN_TTL"),
		BcryptCost:         cost,
		SecureCookies:      v.GetBool("MODELVAULT_SECURE_COOKIES"),
	}
}
