package config

import (
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv            string
	DBPath            string
	DBDriver          string
	RedisAddr         string
	HTTPPort          int
	RequestLogEnabled bool
	MetricsCacheTTL   time.Duration
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() *Config {
	portStr := getEnv("HTTP_PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = 8080
	}

	requestLogStr := getEnv("HTTP_REQUEST_LOG", "true")
	requestLog, err := strconv.ParseBool(requestLogStr)
	if err != nil {
		requestLog = true
	}

	ttlStr := getEnv("METRICS_CACHE_TTL_SECONDS", "60")
	ttlSeconds, err := strconv.Atoi(ttlStr)
	if err != nil || ttlSeconds <= 0 {
		ttlSeconds = 60
	}

	return &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		DBPath:            getEnv("DB_PATH", "./data/database.db"),
		DBDriver:          getEnv("DB_DRIVER", "sqlite3"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		HTTPPort:          port,
		RequestLogEnabled: requestLog,
		MetricsCacheTTL:   time.Duration(ttlSeconds) * time.Second,
	}
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.AppEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
