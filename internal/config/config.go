// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultUploadLabels are the sample labels offered by the multi-file picker.
const DefaultUploadLabels = "醋酸,棉,亚麻,素缎,聚酯,蚕丝,羊毛"

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host      string
	Port      string
	Env       string // "development", "production", "testing"
	PublicURL string
	// TrustProxy makes the rate limiter read the client address from
	// X-Forwarded-For / X-Real-IP set by a reverse proxy.
	TrustProxy bool

	// Catalog API
	APIURL     string
	APITimeout time.Duration

	// Valkey (sessions and category cache)
	ValkeyHost       string
	ValkeyPort       string
	ValkeyPassword   string
	CategoryCacheTTL time.Duration

	// PostgreSQL upload journal; disabled when DBHost is empty
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// S3 download mirror; disabled when endpoint, keys or bucket are empty
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string

	// Upload wizard
	UploadLabels []string
	UploadMaxMB  int64
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if a value is
// malformed or unsafe in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host:      envOrDefault("APP_HOST", "0.0.0.0"),
		Port:      envOrDefault("APP_PORT", "8080"),
		Env:       envOrDefault("APP_ENV", "development"),
		PublicURL: strings.TrimRight(envOrDefault("PUBLIC_URL", "http://localhost:8080"), "/"),

		APIURL: strings.TrimRight(envOrDefault("SPECTRA_API_URL", "http://localhost:8000"), "/"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		DBHost:     os.Getenv("POSTGRES_HOST"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "spectranet"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "spectranet"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    os.Getenv("S3_BUCKET"),

		UploadLabels: splitList(envOrDefault("UPLOAD_LABELS", DefaultUploadLabels)),
	}

	var err error
	if cfg.APITimeout, err = durationEnv("SPECTRA_API_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.CategoryCacheTTL, err = durationEnv("CATEGORY_CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.UploadMaxMB, err = intEnv("UPLOAD_MAX_MB", 200); err != nil {
		return nil, err
	}
	if cfg.TrustProxy, err = boolEnv("TRUST_PROXY", false); err != nil {
		return nil, err
	}

	u, err := url.Parse(cfg.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("SPECTRA_API_URL %q is not an absolute URL", cfg.APIURL)
	}

	if cfg.Env == "production" {
		if isLoopback(u.Hostname()) {
			return nil, fmt.Errorf("SPECTRA_API_URL must not point at localhost in production")
		}
		if cfg.JournalEnabled() && cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// SecureCookies reports whether cookies should carry the Secure flag.
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(c.PublicURL, "https://")
}

// JournalEnabled reports whether the PostgreSQL upload journal is configured.
func (c *Config) JournalEnabled() bool {
	return c.DBHost != ""
}

// UploadMaxBytes is the request body limit for file uploads.
func (c *Config) UploadMaxBytes() int64 {
	return c.UploadMaxMB << 20
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func intEnv(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: invalid positive integer %q", key, v)
	}
	return n, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
