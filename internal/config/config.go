package config

import (
	"os"
	"strconv"
	"time"

	"github.com/dvloznov/slip-scanner/internal/analyzer"
	"github.com/dvloznov/slip-scanner/internal/ingest"
)

// Config holds all runtime settings, sourced from the environment.
type Config struct {
	// HTTP server
	Port string

	// Analyzer
	GeminiAPIKey           string
	GeminiModel            string
	AnalyzerMaxAttempts    int
	AnalyzerInitialBackoff time.Duration

	// Ingestion
	IngestMaxConcurrent int64
}

// Load reads configuration from environment variables, applying defaults for
// anything unset.
func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),

		GeminiAPIKey:           getEnv("GEMINI_API_KEY", ""),
		GeminiModel:            getEnv("GEMINI_MODEL", analyzer.DefaultModelName),
		AnalyzerMaxAttempts:    getEnvInt("ANALYZER_MAX_ATTEMPTS", analyzer.DefaultMaxAttempts),
		AnalyzerInitialBackoff: getEnvDuration("ANALYZER_INITIAL_BACKOFF", analyzer.DefaultInitialBackoff),

		IngestMaxConcurrent: int64(getEnvInt("INGEST_MAX_CONCURRENT", ingest.DefaultMaxConcurrent)),
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
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
