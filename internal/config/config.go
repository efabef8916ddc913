// Package config handles loading and validation of application configuration
// from environment variables. Supports .env files via godotenv.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port        int
	Environment string // "development" | "staging" | "production"

	// Database
	DatabaseURL string

	// Redis (quota block state)
	RedisURL string

	// Security
	JWTSecret      string
	AllowedOrigins []string
	RateLimitRPM   int

	// Media storage (photo uploads)
	MediaUploadURL string
	MediaAPIKey    string

	// Quota breaker: local hour at which the provider's daily write
	// quota rolls over.
	QuotaResetHour int

	// Network timeout for remote document and media calls, seconds.
	RequestTimeoutSeconds int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		Environment: getEnv("ENVIRONMENT", "development"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),

		JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"), ","),
		RateLimitRPM:   getEnvInt("RATE_LIMIT_RPM", 60),

		MediaUploadURL: getEnv("MEDIA_UPLOAD_URL", ""),
		MediaAPIKey:    getEnv("MEDIA_API_KEY", ""),

		QuotaResetHour:        getEnvInt("QUOTA_RESET_HOUR", 16),
		RequestTimeoutSeconds: getEnvInt("REQUEST_TIMEOUT_SECONDS", 30),
	}

	if cfg.QuotaResetHour < 0 || cfg.QuotaResetHour > 23 {
		return nil, fmt.Errorf("QUOTA_RESET_HOUR must be 0-23, got %d", cfg.QuotaResetHour)
	}

	// Validate required fields in production
	if cfg.Environment == "production" {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required in production")
		}
		if cfg.JWTSecret == "dev-secret-change-in-production" {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}
