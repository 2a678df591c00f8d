package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "change-me-in-production"

// Config holds all application configuration
type Config struct {
	// Environment name ("development", "production", ...)
	Env string

	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Media    MediaConfig
	Payment  PaymentConfig
	Mail     MailConfig
	Upload   UploadConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MigrationsPath  string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL          string
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// AuthConfig holds token signing and login lockout settings
type AuthConfig struct {
	JWTSecret         string
	JWTIssuer         string
	TokenTTL          time.Duration
	BcryptCost        int
	MaxLoginAttempts  int
	LockoutWindow     time.Duration
	ResetTokenTTL     time.Duration
	MinPasswordLength int
}

// CORSConfig holds the allowed browser origins
type CORSConfig struct {
	AllowedOrigins []string
}

// MediaConfig holds media CDN credentials. Media routes are disabled when CloudName is empty.
type MediaConfig struct {
	CloudName    string
	APIKey       string
	APISecret    string
	FolderPrefix string
}

// Enabled reports whether media credentials are configured
func (m MediaConfig) Enabled() bool {
	return m.CloudName != "" && m.APIKey != "" && m.APISecret != ""
}

// PaymentConfig holds payment processor credentials
type PaymentConfig struct {
	SecretKey     string
	WebhookSecret string
	FrontendURL   string
	Currency      string
}

// Enabled reports whether payment credentials are configured
func (p PaymentConfig) Enabled() bool {
	return p.SecretKey != ""
}

// MailConfig holds SMTP and dispatcher settings
type MailConfig struct {
	Host         string
	Port         int
	Username     string
	Password     string
	From         string
	FromName     string
	NotifyEmail  string // receives new contact message notices; empty disables them
	Workers      int
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	// SendingTimeout is how long a claimed email may stay in sending
	// before another dispatcher picks it up again
	SendingTimeout time.Duration
}

// Enabled reports whether an SMTP host is configured
func (m MailConfig) Enabled() bool {
	return m.Host != ""
}

// UploadConfig holds upload limits
type UploadConfig struct {
	MaxImageSize   int64 // in bytes
	MaxFileSize    int64 // in bytes
	MaxFiles       int
	RatePerMinute  int
	AdminRateBurst int
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from environment variables, after loading .env when present
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env: getEnv("ENV", "production"),
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		},
		Database: DatabaseConfig{
			URL:          getEnv("DATABASE_URL", ""),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Name:         getEnv("DB_NAME", "agency_cms"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret:         getEnv("JWT_SECRET", defaultJWTSecret),
			JWTIssuer:         getEnv("JWT_ISSUER", "agency-cms-api"),
			TokenTTL:          getDurationEnv("JWT_EXPIRES_IN", 7*24*time.Hour),
			BcryptCost:        getIntEnv("BCRYPT_COST", 10),
			MaxLoginAttempts:  getIntEnv("MAX_LOGIN_ATTEMPTS", 5),
			LockoutWindow:     getDurationEnv("LOCKOUT_DURATION", 15*time.Minute),
			ResetTokenTTL:     getDurationEnv("RESET_TOKEN_TTL", time.Hour),
			MinPasswordLength: getIntEnv("MIN_PASSWORD_LENGTH", 6),
		},
		CORS: CORSConfig{
			AllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Media: MediaConfig{
			CloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:       getEnv("CLOUDINARY_API_KEY", ""),
			APISecret:    getEnv("CLOUDINARY_API_SECRET", ""),
			FolderPrefix: getEnv("CLOUDINARY_FOLDER_PREFIX", "agency"),
		},
		Payment: PaymentConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			FrontendURL:   getEnv("FRONTEND_URL", "http://localhost:3000"),
			Currency:      getEnv("PAYMENT_CURRENCY", "eur"),
		},
		Mail: MailConfig{
			Host:           getEnv("SMTP_HOST", ""),
			Port:           getIntEnv("SMTP_PORT", 587),
			Username:       getEnv("SMTP_USER", ""),
			Password:       getEnv("SMTP_PASSWORD", ""),
			From:           getEnv("EMAIL_FROM", "no-reply@localhost"),
			FromName:       getEnv("EMAIL_FROM_NAME", "Agency"),
			NotifyEmail:    getEnv("ADMIN_NOTIFY_EMAIL", ""),
			Workers:        getIntEnv("MAIL_WORKERS", 4),
			PollInterval:   getDurationEnv("MAIL_POLL_INTERVAL", 5*time.Second),
			BatchSize:      getIntEnv("MAIL_BATCH_SIZE", 50),
			MaxAttempts:    getIntEnv("MAIL_MAX_ATTEMPTS", 3),
			SendingTimeout: getDurationEnv("MAIL_SENDING_TIMEOUT", 10*time.Minute),
		},
		Upload: UploadConfig{
			MaxImageSize:   getInt64Env("MAX_IMAGE_SIZE", 10*1024*1024), // 10MB
			MaxFileSize:    getInt64Env("MAX_FILE_SIZE", 50*1024*1024),  // 50MB
			MaxFiles:       getIntEnv("MAX_UPLOAD_FILES", 10),
			RatePerMinute:  getIntEnv("UPLOAD_RATE_PER_MINUTE", 20),
			AdminRateBurst: getIntEnv("UPLOAD_ADMIN_BURST", 50),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required")
		}
	}
	if !c.IsDevelopment() && (c.Auth.JWTSecret == "" || c.Auth.JWTSecret == defaultJWTSecret) {
		return fmt.Errorf("JWT_SECRET must be set outside development")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN must be positive")
	}
	if c.Payment.Enabled() && c.Payment.WebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required when STRIPE_SECRET_KEY is set")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
