package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Mail      MailConfig      `mapstructure:"mail"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`

	// TrustProxyHeaders is set only behind a reverse proxy
	TrustProxyHeaders bool `mapstructure:"trust_proxy_headers"`
}

// DatabaseConfig selects the SQL dialect and where to connect
type DatabaseConfig struct {
	Type string `mapstructure:"type"` // sqlite, postgres, pgx, mysql
	Path string `mapstructure:"path"` // sqlite only
	URL  string `mapstructure:"url"`  // postgres/pgx/mysql
}

// AuthConfig holds credential lifecycle settings
type AuthConfig struct {
	JWTSecret               string        `mapstructure:"jwt_secret"`
	SessionTTL              time.Duration `mapstructure:"session_ttl"`
	ResetTokenTTL           time.Duration `mapstructure:"reset_token_ttl"`
	BcryptCost              int           `mapstructure:"bcrypt_cost"`
	MinPasswordLength       int           `mapstructure:"min_password_length"`
	ConcealAccountExistence bool          `mapstructure:"conceal_account_existence"`
}

// MailConfig configures outbound email through Amazon SES.
// An empty FromEmail disables delivery; messages are only logged.
type MailConfig struct {
	AWSRegion   string `mapstructure:"aws_region"`
	FromEmail   string `mapstructure:"from_email"`
	FromName    string `mapstructure:"from_name"`
	FrontendURL string `mapstructure:"frontend_url"`
	Debug       bool   `mapstructure:"debug"`
}

// RedisConfig is optional; an empty Addr keeps rate limiting in memory
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RateLimitConfig bounds requests per client on credential endpoints
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LogConfig controls the slog handler
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// Load reads configuration from an optional config file, a .env file and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindLegacyEnv(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports settings the server cannot start with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("auth.jwt_secret (JWT_SECRET) must be set")
	}
	switch strings.ToLower(c.Database.Type) {
	case "sqlite", "sqlite3", "":
		if c.Database.Path == "" {
			return errors.New("database.path is required for sqlite")
		}
	case "postgres", "postgresql", "pgx", "mysql":
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for %s", c.Database.Type)
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if c.Auth.MinPasswordLength < 1 {
		return errors.New("auth.min_password_length must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.trust_proxy_headers", false)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.path", "./clinicbook.db")
	v.SetDefault("database.url", "")

	v.SetDefault("auth.session_ttl", "1h")
	v.SetDefault("auth.reset_token_ttl", "1h")
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.min_password_length", 8)
	v.SetDefault("auth.conceal_account_existence", false)

	v.SetDefault("mail.aws_region", "us-east-1")
	v.SetDefault("mail.from_name", "Clinic Appointments")
	v.SetDefault("mail.frontend_url", "http://localhost:5173")
	v.SetDefault("mail.from_email", "")
	v.SetDefault("mail.debug", false)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("rate_limit.requests", 20)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// bindLegacyEnv keeps the flat variable names used by earlier deployments working
func bindLegacyEnv(v *viper.Viper) {
	v.BindEnv("server.port", "SERVER_PORT", "PORT")
	v.BindEnv("database.type", "DATABASE_TYPE", "DB_TYPE")
	v.BindEnv("database.path", "DATABASE_PATH", "DB_PATH")
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("auth.jwt_secret", "AUTH_JWT_SECRET", "JWT_SECRET")
	v.BindEnv("mail.aws_region", "MAIL_AWS_REGION", "AWS_REGION")
	v.BindEnv("mail.from_email", "MAIL_FROM_EMAIL", "SES_FROM_EMAIL")
	v.BindEnv("mail.from_name", "MAIL_FROM_NAME", "SES_FROM_NAME")
	v.BindEnv("mail.frontend_url", "MAIL_FRONTEND_URL", "FRONTEND_URL")
	v.BindEnv("redis.addr", "REDIS_ADDR")
}
