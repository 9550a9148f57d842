package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything read from the environment. Read once at process
// start; no hot reload.
type Config struct {
	Port        string
	APIKey      string
	DBPath      string
	LockDir     string
	LogLevel    string
	Environment string
	UpdateMode  string
	RedisURL    string
	CORSOrigins string

	// Transport pacing: maximum API requests per second.
	RateLimit int

	// Incremental fetch-set policy. Empirically chosen cost/freshness
	// trade-offs; configuration, not law.
	RefreshWindowDays int
	RotationPercent   int

	// Advisory locks older than this are reclaimed by the janitor.
	LockMaxAgeHours int

	// In-server snapshot sweep cadence. 0 disables the worker; the
	// cmd/snapshots binary remains for manual or cron-driven runs.
	SweepIntervalHours int
}

// Load reads the configuration from the environment, after a best-effort
// .env load.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:              getEnv("PORT", "8080"),
		APIKey:            os.Getenv("YT_API_KEY"),
		DBPath:            getEnv("DB_PATH", "data/rankings.db"),
		LockDir:           getEnv("LOCK_DIR", "data/locks"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		UpdateMode:        getEnv("UPDATE_MODE", "incremental"),
		RedisURL:          os.Getenv("REDIS_URL"),
		CORSOrigins:       getEnv("CORS_ORIGINS", "*"),
		RateLimit:         getEnvInt("YT_RATE_LIMIT", 50),
		RefreshWindowDays: getEnvInt("REFRESH_WINDOW_DAYS", 90),
		RotationPercent:   getEnvInt("ROTATION_PERCENT", 10),
		LockMaxAgeHours:   getEnvInt("LOCK_MAX_AGE_HOURS", 24),

		SweepIntervalHours: getEnvInt("SWEEP_INTERVAL_HOURS", 0),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
