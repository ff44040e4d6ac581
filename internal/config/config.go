package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	RedisURL  string
	JWTSecret string

	// Timezone decides where calendar days start for streaks and challenge windows.
	Timezone           *time.Location
	MaxConflictRetries int

	LeaderboardCacheTTL time.Duration
	RateLimitComplete   time.Duration
	SchedulerInterval   time.Duration
	MetricsEnabled      bool
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		RedisURL:  os.Getenv("REDIS_URL"),
		JWTSecret: getEnv("JWT_SECRET", "12345"),
	}

	var err error
	cfg.Timezone, err = time.LoadLocation(getEnv("GAMIFICATION_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid GAMIFICATION_TIMEZONE: %w", err)
	}

	cfg.MaxConflictRetries, err = strconv.Atoi(getEnv("MAX_CONFLICT_RETRIES", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_CONFLICT_RETRIES: %w", err)
	}

	// Parsing durations
	cfg.LeaderboardCacheTTL, err = parseDuration(getEnv("LEADERBOARD_CACHE_TTL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid LEADERBOARD_CACHE_TTL: %w", err)
	}
	cfg.RateLimitComplete, err = parseDuration(getEnv("RATE_LIMIT_COMPLETE", "2s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_COMPLETE: %w", err)
	}
	cfg.SchedulerInterval, err = parseDuration(getEnv("SCHEDULER_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_INTERVAL: %w", err)
	}
	if cfg.SchedulerInterval < time.Minute {
		return nil, fmt.Errorf("invalid SCHEDULER_INTERVAL: must be at least 1m")
	}

	cfg.MetricsEnabled, err = strconv.ParseBool(getEnv("METRICS_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid METRICS_ENABLED: %w", err)
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}
