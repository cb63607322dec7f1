package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int
	DatabasePath string
	CORSOrigin   string
	LogLevel     string

	// JWTSecret signs bearer tokens. It is loaded once at startup and
	// injected into the token service; rotating it invalidates every
	// outstanding token.
	JWTSecret string
	TokenTTL  time.Duration

	BcryptCost int

	ReminderSchedule  string
	ReminderLookahead time.Duration
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}

	cost, err := strconv.Atoi(getEnv("BCRYPT_COST", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}

	lookahead, err := time.ParseDuration(getEnv("REMINDER_LOOKAHEAD", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid REMINDER_LOOKAHEAD: %w", err)
	}

	return &Config{
		ServerPort:        port,
		DatabasePath:      getEnv("DATABASE_PATH", "./taskhive.db"),
		CORSOrigin:        getEnv("CORS_ORIGIN", "http://localhost:3000"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		JWTSecret:         secret,
		TokenTTL:          ttl,
		BcryptCost:        cost,
		ReminderSchedule:  getEnv("REMINDER_SCHEDULE", "*/5 * * * *"),
		ReminderLookahead: lookahead,
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
