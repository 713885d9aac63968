package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tradeHive/internal/adapters/logger"
)

// Config holds all application configuration.
type Config struct {
	// Database
	DBPath string

	// Logging
	LogLevel  logger.LogLevel
	LogFormat string // "std" or "json"

	// Webhook server
	WebhookAddr    string
	WebhookBaseURL string

	// Job intervals
	MonitorInterval     time.Duration
	SignalInterval      time.Duration
	MetricsInterval     time.Duration
	BalanceSyncInterval time.Duration
	MaintenanceInterval time.Duration
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/tradehive.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Logging
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", "json"))
	if cfg.LogFormat != "json" && cfg.LogFormat != "std" {
		errs = append(errs, fmt.Sprintf("invalid LOG_FORMAT %q (must be json or std)", cfg.LogFormat))
	}

	// Webhook server
	cfg.WebhookAddr = getEnv("WEBHOOK_ADDR", ":8080")
	cfg.WebhookBaseURL = getEnv("WEBHOOK_BASE_URL", "")

	// Job intervals
	cfg.MonitorInterval = getEnvAsSeconds("MONITOR_INTERVAL_SECONDS", 10, &errs)
	cfg.SignalInterval = getEnvAsSeconds("SIGNAL_INTERVAL_SECONDS", 5, &errs)
	cfg.MetricsInterval = getEnvAsSeconds("METRICS_INTERVAL_SECONDS", 60, &errs)
	cfg.BalanceSyncInterval = getEnvAsSeconds("BALANCE_SYNC_INTERVAL_SECONDS", 300, &errs)

	maintenanceHours := getEnvAsInt("MAINTENANCE_INTERVAL_HOURS", 24)
	if maintenanceHours <= 0 {
		errs = append(errs, "MAINTENANCE_INTERVAL_HOURS must be positive")
	}
	cfg.MaintenanceInterval = time.Duration(maintenanceHours) * time.Hour

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSeconds(key string, defaultSeconds int, errs *[]string) time.Duration {
	seconds := getEnvAsInt(key, defaultSeconds)
	if seconds <= 0 {
		*errs = append(*errs, fmt.Sprintf("%s must be positive", key))
		seconds = defaultSeconds
	}
	return time.Duration(seconds) * time.Second
}
