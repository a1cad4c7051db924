package config

import (
	"os"
	"time"
)

type Config struct {
	DatabaseURL       string
	JWTSecret         string
	Port              string
	FCMServiceAccount string

	// CORSOrigins is comma-separated. Credentials are allowed, so the
	// wildcard origin is not.
	CORSOrigins string

	// PollInterval is how often open boards are refreshed from the store.
	PollInterval time.Duration

	// Per-operation cooldown windows for the rate limiter.
	CreateItemCooldown time.Duration
	DeleteItemCooldown time.Duration
	VoteCooldown       time.Duration
}

func Load() *Config {
	return &Config{
		DatabaseURL:        getEnv("DATABASE_URL", "scrumkit.db"),
		JWTSecret:          getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		Port:               getEnv("PORT", "8080"),
		FCMServiceAccount:  getEnv("FCM_SERVICE_ACCOUNT", ""),
		CORSOrigins:        getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		PollInterval:       getDuration("POLL_INTERVAL", 5*time.Second),
		CreateItemCooldown: getDuration("CREATE_ITEM_COOLDOWN", 2*time.Second),
		DeleteItemCooldown: getDuration("DELETE_ITEM_COOLDOWN", time.Second),
		VoteCooldown:       getDuration("VOTE_COOLDOWN", 500*time.Millisecond),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
