package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds everything the server reads from the environment. It is
// loaded and validated once at startup; nothing re-reads env vars per
// request.
type Config struct {
	Addr             string
	DatabaseURL      string
	JWTSecret        string
	AdminSetupSecret string
	GoogleClientID   string
	TokenTTL         time.Duration
	CORSOrigin       string
	RateLimits       RateLimits
}

type RateLimits struct {
	AuthRPS   float64
	AuthBurst int
}

func Load() Config {
	addr := envString("ADDR", "")
	if addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		} else {
			addr = ":8080"
		}
	}
	return Config{
		Addr:             addr,
		DatabaseURL:      envString("DATABASE_URL", "sqlite://monochrome.db"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		AdminSetupSecret: os.Getenv("ADMIN_SETUP_SECRET"),
		GoogleClientID:   os.Getenv("GOOGLE_CLIENT_ID"),
		TokenTTL:         envDuration("TOKEN_TTL", 7*24*time.Hour),
		CORSOrigin:       envString("CORS_ORIGIN", "*"),
		RateLimits: RateLimits{
			AuthRPS:   envFloat("AUTH_RATE_RPS", 1.0/3.0),
			AuthBurst: envInt("AUTH_RATE_BURST", 3),
		},
	}
}

// Validate returns an error when the process must not start. A missing or
// weak signing key is a deployment mistake, never something to handle
// per request.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET is too short, need at least 16 bytes")
	}
	if c.AdminSetupSecret == "" {
		return errors.New("ADMIN_SETUP_SECRET is not set")
	}
	if c.AdminSetupSecret == c.JWTSecret {
		return errors.New("ADMIN_SETUP_SECRET must differ from JWT_SECRET")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
