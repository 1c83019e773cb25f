package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-driven settings for the order engine.
type Config struct {
	Port     string
	DBPath   string
	LogLevel string

	// Admission queue
	MaxQueueSize  int // waiting orders before new submissions are rejected
	MaxConcurrent int // in-flight execution cap

	// Dispatcher
	DispatchInterval time.Duration

	// Execution pipeline
	BuildLatency time.Duration // simulated transaction construction time

	// Retry policy
	MaxRetries        int
	RetryInitialDelay time.Duration

	// Venue simulation profiles (YAML); empty means built-in defaults.
	VenueProfilesPath string
}

// Load reads environment variables (optionally via .env) into Config.
func Load() (*Config, error) {
	// Ignore error so the app still starts when .env is missing.
	_ = godotenv.Load()

	return &Config{
		Port:              getEnv("PORT", "8080"),
		DBPath:            getEnv("DB_PATH", "./data/orders.db"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		MaxQueueSize:      getEnvInt("MAX_QUEUE_SIZE", 100),
		MaxConcurrent:     getEnvInt("MAX_CONCURRENT_ORDERS", 10),
		DispatchInterval:  getEnvDuration("DISPATCH_INTERVAL_MS", 100*time.Millisecond),
		BuildLatency:      getEnvDuration("BUILD_LATENCY_MS", 500*time.Millisecond),
		MaxRetries:        getEnvInt("MAX_RETRIES", 3),
		RetryInitialDelay: getEnvDuration("RETRY_INITIAL_DELAY_MS", time.Second),
		VenueProfilesPath: getEnv("VENUE_PROFILES_PATH", ""),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// getEnvDuration reads a millisecond count from the environment.
func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return def
}
