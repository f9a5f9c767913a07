package app

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	StoreDriver string // Store backing: memory, sqlite, postgres (default: sqlite)

	DatabaseFile string // Path to SQLite database file (default: ./gatehouse.db)
	PostgresDSN  string // Postgres connection string (required when StoreDriver=postgres)
	PepperFile   string // Path to file containing pepper for password hashing (default: ./pepper)

	LockoutThreshold int           // Failed attempts before the account locks (default: 5)
	LockoutDuration  time.Duration // How long a lock lasts (default: 15m)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

// LoadConfig reads configuration from the environment, after loading a .env
// file when one is present. Missing values fall back to defaults suitable for
// local development.
func LoadConfig() Config {
	// Best effort; a missing .env just means plain env vars.
	_ = godotenv.Load()

	return Config{
		StoreDriver:         getEnvOrDefault("GATEHOUSE_STORE_DRIVER", "sqlite"),
		DatabaseFile:        getEnvOrDefault("GATEHOUSE_DATABASE_FILE", "gatehouse.db"),
		PostgresDSN:         os.Getenv("GATEHOUSE_POSTGRES_DSN"),
		PepperFile:          getEnvOrDefault("GATEHOUSE_PEPPER_FILE", "pepper"),
		LockoutThreshold:    getEnvIntOrDefault("GATEHOUSE_LOCKOUT_THRESHOLD", 5),
		LockoutDuration:     getEnvDurationOrDefault("GATEHOUSE_LOCKOUT_DURATION", 15*time.Minute),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Duration syntax first (e.g. "15m", "90s").
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are taken as minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
