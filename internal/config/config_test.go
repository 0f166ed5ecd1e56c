package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, time.Hour, cfg.Auth.ResetTokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, 8, cfg.Auth.MinPasswordLength)
	assert.False(t, cfg.Auth.ConcealAccountExistence)
	assert.Equal(t, 20, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Empty(t, cfg.Mail.FromEmail)
}

func TestLoad_LegacyEnvNames(t *testing.T) {
	t.Setenv("JWT_SECRET", "legacy-secret")
	t.Setenv("PORT", "4000")
	t.Setenv("FRONTEND_URL", "https://clinic.example.com")
	t.Setenv("SES_FROM_EMAIL", "no-reply@clinic.example.com")
	t.Setenv("DB_PATH", "/tmp/clinic.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "legacy-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "4000", cfg.Server.Port)
	assert.Equal(t, "https://clinic.example.com", cfg.Mail.FrontendURL)
	assert.Equal(t, "no-reply@clinic.example.com", cfg.Mail.FromEmail)
	assert.Equal(t, "/tmp/clinic.db", cfg.Database.Path)
}

func TestLoad_NestedEnvNames(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "nested-secret")
	t.Setenv("AUTH_SESSION_TTL", "30m")
	t.Setenv("AUTH_CONCEAL_ACCOUNT_EXISTENCE", "true")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "nested-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 30*time.Minute, cfg.Auth.SessionTTL)
	assert.True(t, cfg.Auth.ConcealAccountExistence)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Database: DatabaseConfig{Type: "sqlite", Path: "clinic.db"},
			Auth:     AuthConfig{JWTSecret: "s", MinPasswordLength: 8},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid sqlite", func(c *Config) {}, false},
		{"blank secret", func(c *Config) { c.Auth.JWTSecret = "  " }, true},
		{"postgres without url", func(c *Config) { c.Database.Type = "postgres" }, true},
		{"pgx with url", func(c *Config) { c.Database = DatabaseConfig{Type: "pgx", URL: "postgres://x"} }, false},
		{"mysql with url", func(c *Config) { c.Database = DatabaseConfig{Type: "mysql", URL: "u:p@/db"} }, false},
		{"unknown type", func(c *Config) { c.Database.Type = "mongo" }, true},
		{"sqlite without path", func(c *Config) { c.Database.Path = "" }, true},
		{"zero password length", func(c *Config) { c.Auth.MinPasswordLength = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
