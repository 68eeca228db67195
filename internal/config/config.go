package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"sla-tracker/internal/stats"
	"sla-tracker/internal/tracker"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Tracker              tracker.Config
	DefaultThresholdDays int
	DataPath             string
	LogDir               string
	CacheDir             string
	EnableMermaidCharts  bool
	MetricsAddr          string
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	return fromEnv(exeDir), nil
}

func fromEnv(exeDir string) *AppConfig {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs"))
	cacheDir := filepath.Join(dataPath, "cache")

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", cacheDir).Msg("Failed to create cache directory")
	}

	return &AppConfig{
		Tracker: tracker.Config{
			BaseURL:      getEnv("SLA_API_URL", ""),
			Token:        getEnv("SLA_API_TOKEN", ""),
			RequestDelay: time.Duration(getEnvInt("SLA_REQUEST_DELAY_MS", 250)) * time.Millisecond,
			Timeout:      time.Duration(getEnvInt("SLA_TIMEOUT_SECONDS", 30)) * time.Second,
			CacheTTL:     time.Duration(getEnvInt("SLA_CACHE_TTL_MINUTES", 5)) * time.Minute,
		},
		DefaultThresholdDays: getEnvInt("SLA_DEFAULT_THRESHOLD_DAYS", stats.DefaultThresholdDays),
		DataPath:             dataPath,
		LogDir:               logDir,
		CacheDir:             cacheDir,
		EnableMermaidCharts:  getEnvBool("ENABLE_MERMAID_CHARTS", false),
		MetricsAddr:          getEnv("METRICS_ADDR", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		log.Warn().Str("key", key).Str("value", value).Int("fallback", fallback).Msg("Ignoring invalid integer setting")
		return fallback
	}
	return n
}
