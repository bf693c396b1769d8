package config

import (
	"testing"
	"time"

	"github.com/dvloznov/slip-scanner/internal/analyzer"
	"github.com/dvloznov/slip-scanner/internal/ingest"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "GEMINI_API_KEY", "GEMINI_MODEL", "ANALYZER_MAX_ATTEMPTS", "ANALYZER_INITIAL_BACKOFF", "INGEST_MAX_CONCURRENT"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.GeminiAPIKey != "" {
		t.Errorf("GeminiAPIKey = %q, want empty", cfg.GeminiAPIKey)
	}
	if cfg.GeminiModel != analyzer.DefaultModelName {
		t.Errorf("GeminiModel = %q, want %q", cfg.GeminiModel, analyzer.DefaultModelName)
	}
	if cfg.AnalyzerMaxAttempts != analyzer.DefaultMaxAttempts {
		t.Errorf("AnalyzerMaxAttempts = %d, want %d", cfg.AnalyzerMaxAttempts, analyzer.DefaultMaxAttempts)
	}
	if cfg.AnalyzerInitialBackoff != analyzer.DefaultInitialBackoff {
		t.Errorf("AnalyzerInitialBackoff = %v, want %v", cfg.AnalyzerInitialBackoff, analyzer.DefaultInitialBackoff)
	}
	if cfg.IngestMaxConcurrent != ingest.DefaultMaxConcurrent {
		t.Errorf("IngestMaxConcurrent = %d, want %d", cfg.IngestMaxConcurrent, ingest.DefaultMaxConcurrent)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_MODEL", "gemini-2.5-pro")
	t.Setenv("ANALYZER_MAX_ATTEMPTS", "3")
	t.Setenv("ANALYZER_INITIAL_BACKOFF", "500ms")
	t.Setenv("INGEST_MAX_CONCURRENT", "2")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.GeminiAPIKey != "test-key" {
		t.Errorf("GeminiAPIKey = %q, want test-key", cfg.GeminiAPIKey)
	}
	if cfg.GeminiModel != "gemini-2.5-pro" {
		t.Errorf("GeminiModel = %q", cfg.GeminiModel)
	}
	if cfg.AnalyzerMaxAttempts != 3 {
		t.Errorf("AnalyzerMaxAttempts = %d, want 3", cfg.AnalyzerMaxAttempts)
	}
	if cfg.AnalyzerInitialBackoff != 500*time.Millisecond {
		t.Errorf("AnalyzerInitialBackoff = %v, want 500ms", cfg.AnalyzerInitialBackoff)
	}
	if cfg.IngestMaxConcurrent != 2 {
		t.Errorf("IngestMaxConcurrent = %d, want 2", cfg.IngestMaxConcurrent)
	}
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("ANALYZER_MAX_ATTEMPTS", "lots")
	t.Setenv("ANALYZER_INITIAL_BACKOFF", "soon")

	cfg := Load()

	if cfg.AnalyzerMaxAttempts != analyzer.DefaultMaxAttempts {
		t.Errorf("AnalyzerMaxAttempts = %d, want default %d", cfg.AnalyzerMaxAttempts, analyzer.DefaultMaxAttempts)
	}
	if cfg.AnalyzerInitialBackoff != analyzer.DefaultInitialBackoff {
		t.Errorf("AnalyzerInitialBackoff = %v, want default %v", cfg.AnalyzerInitialBackoff, analyzer.DefaultInitialBackoff)
	}
}
