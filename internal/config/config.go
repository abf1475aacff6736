package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// MinSecretLength is the minimum accepted length of JWT_SECRET in bytes.
const MinSecretLength = 32

// RateRule is a fixed-window limit for one logical bucket.
type RateRule struct {
	Bucket string
	Limit  int
	Window time.Duration
}

// RateLimits groups the rules applied by the HTTP layer.
type RateLimits struct {
	SDKInit        RateRule
	SDKInitBundle  RateRule
	SDKEvent       RateRule
	SDKEventBundle RateRule
	AuthLogin      RateRule
	AuthRegister   RateRule
}

// Config contains runtime configuration required by the service.
// It is loaded once at startup and treated as read-only afterwards.
type Config struct {
	DBURL          string
	HTTPAddr       string
	Env            string
	LogLevel       string
	JWTSecret      []byte
	AllowedOrigins []string

	SuperAdminEmail    string
	SuperAdminPassword string

	RateLimits RateLimits
}

// Production reports whether the service runs with production settings.
func (c Config) Production() bool {
	return c.Env == "production"
}

// DefaultRateLimits returns the per-minute limits used when no override is set.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		SDKInit:        RateRule{Bucket: "sdk-init", Limit: 300, Window: time.Minute},
		SDKInitBundle:  RateRule{Bucket: "sdk-init-bundle", Limit: 600, Window: time.Minute},
		SDKEvent:       RateRule{Bucket: "sdk-event", Limit: 1000, Window: time.Minute},
		SDKEventBundle: RateRule{Bucket: "sdk-event-bundle", Limit: 2000, Window: time.Minute},
		AuthLogin:      RateRule{Bucket: "auth-login", Limit: 20, Window: time.Minute},
		AuthRegister:   RateRule{Bucket: "auth-register", Limit: 10, Window: time.Minute},
	}
}

// Load reads required values from environment variables.
// ALLOWED_ORIGINS format: "https://a.example,https://b.example"
func Load() (Config, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return Config{}, errors.New("JWT_SECRET required")
	}
	if len(secret) < MinSecretLength {
		return Config{}, fmt.Errorf("JWT_SECRET must be at least %d bytes", MinSecretLength)
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "development"
	}
	if env != "development" && env != "production" {
		return Config{}, errors.New(`APP_ENV must be "development" or "production"`)
	}

	cfg := Config{
		DBURL:              strings.TrimSpace(os.Getenv("DB_URL")),
		HTTPAddr:           envOr("HTTP_ADDR", ":8080"),
		Env:                env,
		LogLevel:           envOr("LOG_LEVEL", "info"),
		JWTSecret:          []byte(secret),
		SuperAdminEmail:    strings.TrimSpace(os.Getenv("SUPER_ADMIN_EMAIL")),
		SuperAdminPassword: os.Getenv("SUPER_ADMIN_PASSWORD"),
		RateLimits:         DefaultRateLimits(),
	}

	for _, o := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	overrides := []struct {
		name string
		rule *RateRule
	}{
		{"RATE_LIMIT_SDK_INIT", &cfg.RateLimits.SDKInit},
		{"RATE_LIMIT_SDK_INIT_BUNDLE", &cfg.RateLimits.SDKInitBundle},
		{"RATE_LIMIT_SDK_EVENT", &cfg.RateLimits.SDKEvent},
		{"RATE_LIMIT_SDK_EVENT_BUNDLE", &cfg.RateLimits.SDKEventBundle},
		{"RATE_LIMIT_AUTH_LOGIN", &cfg.RateLimits.AuthLogin},
		{"RATE_LIMIT_AUTH_REGISTER", &cfg.RateLimits.AuthRegister},
	}
	for _, o := range overrides {
		raw := strings.TrimSpace(os.Getenv(o.name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("%s must be a positive integer", o.name)
		}
		o.rule.Limit = n
	}

	if (cfg.SuperAdminEmail == "") != (cfg.SuperAdminPassword == "") {
		return Config{}, errors.New("SUPER_ADMIN_EMAIL and SUPER_ADMIN_PASSWORD must be set together")
	}

	return cfg, nil
}

func envOr(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}
