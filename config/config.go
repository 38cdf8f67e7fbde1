// Package config loads the server configuration from environment variables.
// A .env file in the working directory is read first when present, so local
// development does not need exported variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every setting, grouped by concern.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Upload    UploadConfig
	WS        WSConfig
	Crypto    CryptoConfig
	RateLimit RateLimitConfig
}

// ServerConfig is the HTTP listener.
type ServerConfig struct {
	Host string
	Port int
	// TrustProxy makes the login limiter key on X-Forwarded-For / X-Real-IP.
	// Only enable it behind a reverse proxy that overwrites those headers.
	TrustProxy bool
}

// DatabaseConfig points at the SQLite file.
type DatabaseConfig struct {
	Path string // e.g. ./data/gaduly.db
}

// JWTConfig controls the bearer credential.
type JWTConfig struct {
	Secret      string // signing key, must be kept private
	ExpiryHours int    // token lifetime, default 7 days
}

// UploadConfig controls image and avatar uploads.
type UploadConfig struct {
	Dir     string
	MaxSize int64 // bytes, default 8MB
}

// WSConfig controls the push channel.
type WSConfig struct {
	// RequireAuth makes the handshake require ?token= and checks every
	// join-channel request against server membership. Off by default, which
	// keeps the anonymous join existing clients rely on.
	RequireAuth    bool
	AllowedOrigins []string
}

// CryptoConfig holds the key used to encrypt voice channel passwords.
// An empty key stores passwords as given.
type CryptoConfig struct {
	ChannelKey string // 64 hex chars
}

// RateLimitConfig tunes the login and message limiters.
type RateLimitConfig struct {
	LoginMax        int
	LoginWindow     time.Duration
	MessageMax      int
	MessageWindow   time.Duration
	MessageCooldown time.Duration
}

// Load builds a Config from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", getEnv("SERVER_PORT", "8080")))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	expiry, err := strconv.Atoi(getEnv("JWT_EXPIRY_HOURS", "168"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRY_HOURS: %w", err)
	}

	maxSize, err := strconv.ParseInt(getEnv("UPLOAD_MAX_SIZE", "8388608"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_MAX_SIZE: %w", err)
	}

	requireAuth, err := strconv.ParseBool(getEnv("WS_REQUIRE_AUTH", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_REQUIRE_AUTH: %w", err)
	}

	trustProxy, err := strconv.ParseBool(getEnv("TRUST_PROXY", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid TRUST_PROXY: %w", err)
	}

	loginMax, err := strconv.Atoi(getEnv("LOGIN_RATE_MAX", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOGIN_RATE_MAX: %w", err)
	}
	loginWindow, err := time.ParseDuration(getEnv("LOGIN_RATE_WINDOW", "2m"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOGIN_RATE_WINDOW: %w", err)
	}
	messageMax, err := strconv.Atoi(getEnv("MESSAGE_RATE_MAX", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid MESSAGE_RATE_MAX: %w", err)
	}
	messageWindow, err := time.ParseDuration(getEnv("MESSAGE_RATE_WINDOW", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid MESSAGE_RATE_WINDOW: %w", err)
	}
	messageCooldown, err := time.ParseDuration(getEnv("MESSAGE_RATE_COOLDOWN", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid MESSAGE_RATE_COOLDOWN: %w", err)
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:       getEnv("SERVER_HOST", "0.0.0.0"),
			Port:       port,
			TrustProxy: trustProxy,
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/gaduly.db"),
		},
		JWT: JWTConfig{
			Secret:      jwtSecret,
			ExpiryHours: expiry,
		},
		Upload: UploadConfig{
			Dir:     getEnv("UPLOADS_DIR", "./data/uploads"),
			MaxSize: maxSize,
		},
		WS: WSConfig{
			RequireAuth:    requireAuth,
			AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
		},
		Crypto: CryptoConfig{
			ChannelKey: getEnv("CHANNEL_SECRET_KEY", ""),
		},
		RateLimit: RateLimitConfig{
			LoginMax:        loginMax,
			LoginWindow:     loginWindow,
			MessageMax:      messageMax,
			MessageWindow:   messageWindow,
			MessageCooldown: messageCooldown,
		},
	}

	return cfg, nil
}

// Addr returns the listen address, e.g. "0.0.0.0:8080".
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv reads key, falling back when it is unset.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
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
