// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// JWTSecret signs session tokens. Required.
	JWTSecret string

	// TokenTTL is the lifetime of a session token. Defaults to 24h.
	TokenTTL time.Duration

	// ResetTokenTTL is the lifetime of a password-reset token. Defaults to 1h.
	ResetTokenTTL time.Duration

	// RedisURL enables the popular-destinations cache when set.
	RedisURL string

	// PopularCacheTTL bounds how stale a cached ranking may be. Defaults to 5m.
	PopularCacheTTL time.Duration

	// SMTP settings. Mail is only logged unless all of them are set.
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	EmailFrom    string

	// SharePolicy selects how expense shares with non-participants are
	// handled: "narrow" drops them silently, "strict" rejects the request.
	// Defaults to "narrow".
	SharePolicy string

	// AppBaseURL is the public URL of the web app, used to build links in
	// emails. Defaults to "http://localhost:5173".
	AppBaseURL string
}

// Load reads configuration from environment variables and returns a Config.
// Each envFile that exists is loaded first; variables already present in the
// environment win over the file. Returns an error listing any required
// variables that are not set.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config.Load: reading %s: %w", f, err)
		}
	}

	cfg := Config{
		Port:         getEnv("PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		CORSOrigins:  splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		RedisURL:     os.Getenv("REDIS_URL"),
		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASS"),
		EmailFrom:    os.Getenv("EMAIL_FROM"),
		AppBaseURL:   getEnv("APP_BASE_URL", "http://localhost:5173"),
		SharePolicy:  strings.ToLower(getEnv("SHARE_POLICY", "narrow")),
	}

	var missing, invalid []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	for _, d := range []struct {
		key      string
		fallback time.Duration
		dst      *time.Duration
	}{
		{"TOKEN_TTL", 24 * time.Hour, &cfg.TokenTTL},
		{"RESET_TOKEN_TTL", time.Hour, &cfg.ResetTokenTTL},
		{"POPULAR_CACHE_TTL", 5 * time.Minute, &cfg.PopularCacheTTL},
	} {
		v, err := getDuration(d.key, d.fallback)
		if err != nil {
			invalid = append(invalid, d.key)
			continue
		}
		*d.dst = v
	}
	if cfg.SharePolicy != "narrow" && cfg.SharePolicy != "strict" {
		invalid = append(invalid, "SHARE_POLICY")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid values for environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
