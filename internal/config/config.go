package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string

	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	FrontendCallbackURL string
	FrontendURL         string
	BaseURL             string

	GitHub OAuthConfig
	GitLab OAuthConfig
	Google OAuthConfig

	SMTP           SMTPConfig
	SendGridAPIKey string

	Redis RedisConfig
	Log   LogConfig

	ApplyRate RateConfig
	Cron      CronConfig
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// RedisConfig configures the query cache. An empty Addr selects the in-process cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	// Capacity bounds the in-process cache; least recently used keys go first.
	Capacity int
}

type LogConfig struct {
	Level  string
	Format string
}

// RateConfig limits how often a single user may submit project applications.
type RateConfig struct {
	PerMinute int
	Burst     int
}

// CronConfig holds six-field (seconds first) cron expressions for background jobs.
type CronConfig struct {
	TokenCleanup    string
	PhaseReminders  string
	ReviewReminders string
}

// Load reads the environment (and .env when present). Every problem found is
// reported at once so a misconfigured deployment fails with the full list.
func Load() (*Config, error) {
	_ = godotenv.Load()

	l := &loader{}
	cfg := &Config{
		Port:        l.str("PORT", "8080"),
		Env:         l.str("ENV", "development"),
		DatabaseURL: l.required("DATABASE_URL"),

		JWTSecret:        l.required("JWT_SECRET"),
		JWTAccessExpiry:  l.duration("JWT_ACCESS_EXPIRY", 15*time.Minute),
		JWTRefreshExpiry: l.duration("JWT_REFRESH_EXPIRY", 7*24*time.Hour),

		FrontendCallbackURL: l.str("FRONTEND_CALLBACK_URL", "http://localhost:5173/auth/callback"),
		FrontendURL:         l.str("FRONTEND_URL", "http://localhost:5173"),
		BaseURL:             l.str("BASE_URL", "http://localhost:8080"),

		GitHub: l.oauth("GITHUB"),
		GitLab: l.oauth("GITLAB"),
		Google: l.oauth("GOOGLE"),

		SMTP: SMTPConfig{
			Host:     l.str("SMTP_HOST", ""),
			Port:     l.str("SMTP_PORT", "587"),
			Username: l.str("SMTP_USERNAME", ""),
			Password: l.str("SMTP_PASSWORD", ""),
			From:     l.str("SMTP_FROM", ""),
		},
		SendGridAPIKey: l.str("SENDGRID_API_KEY", ""),

		Redis: RedisConfig{
			Addr:     l.str("REDIS_ADDR", ""),
			Password: l.str("REDIS_PASSWORD", ""),
			DB:       l.integer("REDIS_DB", 0),
			TTL:      l.duration("CACHE_TTL", 5*time.Minute),
			Capacity: l.integer("CACHE_CAPACITY", 10000),
		},
		Log: LogConfig{
			Level:  l.str("LOG_LEVEL", "info"),
			Format: l.str("LOG_FORMAT", "text"),
		},

		ApplyRate: RateConfig{
			PerMinute: l.integer("APPLY_RATE_PER_MINUTE", 10),
			Burst:     l.integer("APPLY_RATE_BURST", 3),
		},
		Cron: CronConfig{
			TokenCleanup:    l.str("CRON_TOKEN_CLEANUP", "0 0 * * * *"),
			PhaseReminders:  l.str("CRON_PHASE_REMINDERS", "0 0 8 * * *"),
			ReviewReminders: l.str("CRON_REVIEW_REMINDERS", "0 0 9 * * *"),
		},
	}

	if cfg.ApplyRate.PerMinute <= 0 || cfg.ApplyRate.Burst <= 0 {
		l.fail("APPLY_RATE_PER_MINUTE and APPLY_RATE_BURST must be positive")
	}
	if cfg.Redis.Capacity <= 0 {
		l.fail("CACHE_CAPACITY must be positive")
	}
	if cfg.SMTP.From == "" && (cfg.SMTP.Host != "" || cfg.SendGridAPIKey != "") {
		l.fail("SMTP_FROM is required when e-mail delivery is configured")
	}
	if len(l.problems) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(l.problems...))
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

type loader struct {
	problems []error
}

func (l *loader) fail(format string, args ...any) {
	l.problems = append(l.problems, fmt.Errorf(format, args...))
}

func (l *loader) str(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func (l *loader) required(key string) string {
	value := os.Getenv(key)
	if value == "" {
		l.fail("%s is required", key)
	}
	return value
}

func (l *loader) integer(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		l.fail("%s: %q is not an integer", key, value)
		return fallback
	}
	return n
}

func (l *loader) duration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		l.fail("%s: %q is not a positive duration", key, value)
		return fallback
	}
	return d
}

// oauth reads <PREFIX>_CLIENT_ID, _CLIENT_SECRET and _REDIRECT_URL. Setting
// only one of ID and secret is an error.
func (l *loader) oauth(prefix string) OAuthConfig {
	c := OAuthConfig{
		ClientID:     l.str(prefix+"_CLIENT_ID", ""),
		ClientSecret: l.str(prefix+"_CLIENT_SECRET", ""),
		RedirectURL:  l.str(prefix+"_REDIRECT_URL", ""),
	}
	if (c.ClientID == "") != (c.ClientSecret == "") {
		l.fail("%s_CLIENT_ID and %s_CLIENT_SECRET must be set together", prefix, prefix)
	}
	return c
}
