package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the chat service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string
	LogLevel         string
	LogDevelopment   bool
	AllowedOrigin    string

	DatabaseURL            string
	PersonalityCatalogPath string

	GenerationProvider string
	GeminiAPIKey       string
	GeminiModel        string
	GeminiBaseURL      string
	GenerationTimeout  time.Duration
	Temperature        float64
	TopP               float64
	TopK               int
	MaxOutputTokens    int
	MemoryWindowLimit  int
	MessageMaxLength   int
	MemoryRedactPII    bool
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:               envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:       envOrDefault("APP_METRICS_NAMESPACE", "the37thmove"),
		LogLevel:               strings.ToLower(envOrDefault("APP_LOG_LEVEL", "info")),
		AllowedOrigin:          envOrDefault("APP_ALLOWED_ORIGIN", "*"),
		DatabaseURL:            strings.TrimSpace(os.Getenv("DATABASE_URL")),
		PersonalityCatalogPath: strings.TrimSpace(os.Getenv("PERSONALITY_CATALOG_PATH")),
		GenerationProvider:     strings.ToLower(envOrDefault("GENERATION_PROVIDER", "auto")),
		GeminiAPIKey:           strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:            envOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL:          strings.TrimSpace(os.Getenv("GEMINI_BASE_URL")),
		ShutdownTimeout:        15 * time.Second,
		GenerationTimeout:      30 * time.Second,
		// Sampling policy; requests cannot override these.
		Temperature:       0.8,
		TopP:              0.95,
		TopK:              40,
		MaxOutputTokens:   1024,
		MemoryWindowLimit: 10,
		MessageMaxLength:  5000,
	}

	var err error
	if cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return Config{}, err
	}
	if cfg.LogDevelopment, err = boolFromEnv("APP_LOG_DEVELOPMENT", cfg.LogDevelopment); err != nil {
		return Config{}, err
	}
	if cfg.GenerationTimeout, err = durationFromEnv("GENERATION_TIMEOUT", cfg.GenerationTimeout); err != nil {
		return Config{}, err
	}
	if cfg.Temperature, err = floatFromEnv("GENERATION_TEMPERATURE", cfg.Temperature); err != nil {
		return Config{}, err
	}
	if cfg.TopP, err = floatFromEnv("GENERATION_TOP_P", cfg.TopP); err != nil {
		return Config{}, err
	}
	if cfg.TopK, err = intFromEnv("GENERATION_TOP_K", cfg.TopK); err != nil {
		return Config{}, err
	}
	if cfg.MaxOutputTokens, err = intFromEnv("GENERATION_MAX_OUTPUT_TOKENS", cfg.MaxOutputTokens); err != nil {
		return Config{}, err
	}
	if cfg.MemoryWindowLimit, err = intFromEnv("MEMORY_WINDOW_LIMIT", cfg.MemoryWindowLimit); err != nil {
		return Config{}, err
	}
	if cfg.MessageMaxLength, err = intFromEnv("MESSAGE_MAX_LENGTH", cfg.MessageMaxLength); err != nil {
		return Config{}, err
	}
	if cfg.MemoryRedactPII, err = boolFromEnv("MEMORY_REDACT_PII", cfg.MemoryRedactPII); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("APP_LOG_LEVEL must be one of debug|info|warn|error, got %q", c.LogLevel)
	}
	switch c.GenerationProvider {
	case "auto", "gemini", "mock":
	default:
		return fmt.Errorf("GENERATION_PROVIDER must be one of auto|gemini|mock, got %q", c.GenerationProvider)
	}
	if c.GenerationProvider == "gemini" && c.GeminiAPIKey == "" {
		return fmt.Errorf("GENERATION_PROVIDER=gemini requires GEMINI_API_KEY")
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT must be positive")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("GENERATION_TEMPERATURE must be within [0,2]")
	}
	if c.TopP <= 0 || c.TopP > 1 {
		return fmt.Errorf("GENERATION_TOP_P must be within (0,1]")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("GENERATION_TOP_K must be positive")
	}
	if c.MaxOutputTokens <= 0 {
		return fmt.Errorf("GENERATION_MAX_OUTPUT_TOKENS must be positive")
	}
	if c.MemoryWindowLimit <= 0 {
		return fmt.Errorf("MEMORY_WINDOW_LIMIT must be positive")
	}
	if c.MessageMaxLength <= 0 {
		return fmt.Errorf("MESSAGE_MAX_LENGTH must be positive")
	}
	return nil
}

// ResolvedGenerationProvider collapses "auto" into the concrete backend.
func (c Config) ResolvedGenerationProvider() string {
	if c.GenerationProvider != "auto" {
		return c.GenerationProvider
	}
	if c.GeminiAPIKey != "" {
		return "gemini"
	}
	return "mock"
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
