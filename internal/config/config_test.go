package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.MemoryWindowLimit != 10 {
		t.Fatalf("MemoryWindowLimit = %d, want 10", cfg.MemoryWindowLimit)
	}
	if cfg.MessageMaxLength != 5000 {
		t.Fatalf("MessageMaxLength = %d, want 5000", cfg.MessageMaxLength)
	}
	if cfg.GenerationTimeout != 30*time.Second {
		t.Fatalf("GenerationTimeout = %s, want 30s", cfg.GenerationTimeout)
	}
	if cfg.ResolvedGenerationProvider() != "mock" {
		t.Fatalf("ResolvedGenerationProvider() = %q, want mock without a key", cfg.ResolvedGenerationProvider())
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("DatabaseURL = %q, want empty default", cfg.DatabaseURL)
	}
}

func TestLoadAutoPicksGeminiWithKey(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("GEMINI_API_KEY", "  test-key  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GeminiAPIKey != "test-key" {
		t.Fatalf("GeminiAPIKey = %q, want trimmed value", cfg.GeminiAPIKey)
	}
	if cfg.ResolvedGenerationProvider() != "gemini" {
		t.Fatalf("ResolvedGenerationProvider() = %q, want gemini", cfg.ResolvedGenerationProvider())
	}
}

func TestLoadOverrides(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("GENERATION_TEMPERATURE", "0.2")
	t.Setenv("GENERATION_TOP_K", "12")
	t.Setenv("GENERATION_TIMEOUT", "5s")
	t.Setenv("MEMORY_WINDOW_LIMIT", "4")
	t.Setenv("MEMORY_REDACT_PII", "yes")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Temperature != 0.2 {
		t.Fatalf("Temperature = %v, want 0.2", cfg.Temperature)
	}
	if cfg.TopK != 12 {
		t.Fatalf("TopK = %d, want 12", cfg.TopK)
	}
	if cfg.GenerationTimeout != 5*time.Second {
		t.Fatalf("GenerationTimeout = %s, want 5s", cfg.GenerationTimeout)
	}
	if cfg.MemoryWindowLimit != 4 {
		t.Fatalf("MemoryWindowLimit = %d, want 4", cfg.MemoryWindowLimit)
	}
	if !cfg.MemoryRedactPII {
		t.Fatalf("MemoryRedactPII = false, want true")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"GENERATION_PROVIDER":    "openai",
		"GENERATION_TOP_P":       "1.5",
		"GENERATION_TIMEOUT":     "soon",
		"MEMORY_WINDOW_LIMIT":    "0",
		"MEMORY_REDACT_PII":      "maybe",
		"APP_LOG_LEVEL":          "verbose",
		"GENERATION_TEMPERATURE": "-1",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			setCoreEnvEmpty(t)
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() expected error for %s=%q", key, value)
			}
		})
	}
}

func TestLoadGeminiProviderRequiresKey(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("GENERATION_PROVIDER", "gemini")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() expected error without GEMINI_API_KEY")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_LOG_LEVEL",
		"APP_LOG_DEVELOPMENT",
		"APP_ALLOWED_ORIGIN",
		"DATABASE_URL",
		"PERSONALITY_CATALOG_PATH",
		"GENERATION_PROVIDER",
		"GEMINI_API_KEY",
		"GEMINI_MODEL",
		"GEMINI_BASE_URL",
		"GENERATION_TIMEOUT",
		"GENERATION_TEMPERATURE",
		"GENERATION_TOP_P",
		"GENERATION_TOP_K",
		"GENERATION_MAX_OUTPUT_TOKENS",
		"MEMORY_WINDOW_LIMIT",
		"MESSAGE_MAX_LENGTH",
		"MEMORY_REDACT_PII",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
