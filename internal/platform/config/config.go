package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Triage provider names
const (
	ProviderRules = "rules"
	ProviderModel = "model"
)

// RetentionDays is how long request records are kept (7 years)
const RetentionDays = 2555

// Config holds runtime configuration read from the environment
type Config struct {
	Port            string
	Env             string
	LogLevel        string
	DatabaseURL     string
	RedisURL        string
	BacklogCacheTTL time.Duration
	NATSURL         string
	NATSSubject     string
	GeminiAPIKey    string
	GeminiModel     string
	TriageProvider  string
	RulesFile       string
}

// Load reads an optional .env file, then the environment.
// It reports whether a .env file was found so the caller can log it.
func Load() (*Config, bool) {
	found := godotenv.Load() == nil
	return FromEnv(), found
}

// FromEnv builds a Config from environment variables with defaults
func FromEnv() *Config {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("GO_ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RedisURL:        getEnv("REDIS_URL", ""),
		BacklogCacheTTL: getDuration("BACKLOG_CACHE_TTL", 30*time.Second),
		NATSURL:         getEnv("NATS_URL", ""),
		NATSSubject:     getEnv("NATS_SUBJECT", "citizen.requests.routed"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		TriageProvider:  getEnv("TRIAGE_PROVIDER", ProviderRules),
		RulesFile:       getEnv("RULES_FILE", ""),
	}

	// A model provider without a key silently degrades to rules
	if cfg.TriageProvider != ProviderModel || cfg.GeminiAPIKey == "" {
		cfg.TriageProvider = ProviderRules
	}
	return cfg
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration accepts Go durations ("45s") or plain seconds ("45")
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
