package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

const (
	defaultAccessTTL         = "72h"
	defaultRefreshTTL        = "168h"
	defaultRefreshRemember   = "720h"
	defaultRevokedRetention  = "720h"
	defaultCookieSecure      = "false"
	defaultCookieSameSite    = "Lax"
	defaultRefreshCookiePath = "/api/v1/auth/refresh"
	defaultTokenIssuer       = "tokenvault"
	defaultTokenAudience     = "tokenvault"
	defaultMaxSessions       = "10"
)

// Runtime is the full configuration surface, read once at process start.
type Runtime struct {
	AppEnv string

	JWTSecret     string
	TokenIssuer   string
	TokenAudience string

	AccessTTL          time.Duration
	RefreshTTL         time.Duration
	RefreshTTLRemember time.Duration
	RevokedRetention   time.Duration

	MaxSessionsPerUser int

	CookieSecure      bool
	CookieSameSite    string
	RefreshCookiePath string
}

func LoadRuntime() (*Runtime, error) {
	cfg := &Runtime{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.JWTSecret = strings.TrimSpace(os.Getenv("JWT_SECRET"))
	cfg.TokenIssuer = strings.TrimSpace(getEnv("TOKEN_ISSUER", defaultTokenIssuer))
	cfg.TokenAudience = strings.TrimSpace(getEnv("TOKEN_AUDIENCE", defaultTokenAudience))

	var err error
	cfg.AccessTTL, err = parseDurationEnv("ACCESS_TTL", defaultAccessTTL)
	if err != nil {
		return nil, err
	}
	cfg.RefreshTTL, err = parseDurationEnv("REFRESH_TTL", defaultRefreshTTL)
	if err != nil {
		return nil, err
	}
	cfg.RefreshTTLRemember, err = parseDurationEnv("REFRESH_TTL_REMEMBER", defaultRefreshRemember)
	if err != nil {
		return nil, err
	}
	cfg.RevokedRetention, err = parseDurationEnv("REVOKED_RETENTION", defaultRevokedRetention)
	if err != nil {
		return nil, err
	}

	cfg.MaxSessionsPerUser, err = parseIntEnv("MAX_SESSIONS_PER_USER", defaultMaxSessions)
	if err != nil {
		return nil, err
	}

	cfg.CookieSecure = parseBoolEnv("COOKIE_SECURE", defaultCookieSecure)
	cfg.CookieSameSite = strings.TrimSpace(getEnv("COOKIE_SAMESITE", defaultCookieSameSite))
	cfg.RefreshCookiePath = strings.TrimSpace(getEnv("REFRESH_COOKIE_PATH", defaultRefreshCookiePath))

	if err := validateRuntime(cfg); err != nil {
		return nil, err
	}

	log.Printf("token cookie config: secure=%t, sameSite=%s, refreshPath=%s", cfg.CookieSecure, cfg.CookieSameSite, cfg.RefreshCookiePath)

	return cfg, nil
}

func validateRuntime(cfg *Runtime) error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.AccessTTL <= 0 {
		return fmt.Errorf("ACCESS_TTL must be > 0")
	}
	if cfg.RefreshTTL <= 0 {
		return fmt.Errorf("REFRESH_TTL must be > 0")
	}
	if cfg.RefreshTTLRemember < cfg.RefreshTTL {
		return fmt.Errorf("REFRESH_TTL_REMEMBER must be >= REFRESH_TTL")
	}
	if cfg.RevokedRetention <= 0 {
		return fmt.Errorf("REVOKED_RETENTION must be > 0")
	}
	if cfg.MaxSessionsPerUser <= 0 {
		return fmt.Errorf("MAX_SESSIONS_PER_USER must be > 0")
	}
	if cfg.TokenIssuer == "" || cfg.TokenAudience == "" {
		return fmt.Errorf("TOKEN_ISSUER and TOKEN_AUDIENCE must not be empty")
	}
	if cfg.RefreshCookiePath == "" {
		return fmt.Errorf("REFRESH_COOKIE_PATH must not be empty")
	}

	sameSite := strings.ToLower(strings.TrimSpace(cfg.CookieSameSite))
	if sameSite != "lax" && sameSite != "none" && sameSite != "strict" {
		return fmt.Errorf("COOKIE_SAMESITE must be one of: Lax, None, Strict")
	}
	if sameSite == "none" && !cfg.CookieSecure {
		return fmt.Errorf("COOKIE_SECURE must be true when COOKIE_SAMESITE=None")
	}

	if isProdLike(cfg.AppEnv) {
		if len(cfg.JWTSecret) < 32 {
			return fmt.Errorf("in prod/release JWT_SECRET must be at least 32 bytes")
		}
		if !cfg.CookieSecure {
			return fmt.Errorf("in prod/release COOKIE_SECURE must be true")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	var n int
	if _, err := fmt.Sscanf(value, "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
