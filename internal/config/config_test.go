package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STRIPE_SECRET_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 5, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Auth.LockoutWindow)
	assert.Equal(t, int64(10*1024*1024), cfg.Upload.MaxImageSize)
	assert.False(t, cfg.Payment.Enabled())
	assert.False(t, cfg.Media.Enabled())
}

func TestLoad_RejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_PaymentNeedsWebhookSecret(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetListEnv(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	got := getListEnv("CORS_ALLOWED_ORIGINS", nil)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, got)
}

func TestGetDSN_PrefersURL(t *testing.T) {
	db := DatabaseConfig{URL: "postgres://u:p@db/x", Host: "ignored"}
	assert.Equal(t, "postgres://u:p@db/x", db.GetDSN())

	db = DatabaseConfig{Host: "h", Port: "1", User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=n sslmode=disable", db.GetDSN())
}
