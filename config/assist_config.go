package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// generateWorkerID creates a unique worker ID using hostname and PID
func generateWorkerID() string {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "assist"
	}
	return fmt.Sprintf("%s-%d", hostname, os.Getpid())
}

type Config struct {
	Port        string
	Environment string

	// External stores (optional; nil-safe degradation when unset)
	DatabaseURL string
	RedisURL    string

	// LLM capability
	OpenAIAPIKey   string
	LLMModel       string
	LLMMaxTokens   int
	LLMTemperature float64
	LLMTimeout     time.Duration

	// Pipeline
	NormalizerMaxChars int
	ExtractionCacheTTL time.Duration
	SuggestionLimit    int

	// Auto-send
	AutoSendThreshold  float64
	AutoSendCountdown  int
	AutoSendMinTextLen int

	// Dispatch worker
	WorkerID           string
	ConsumerBatchSize  int
	ConsumerBlockMS    int
	ConsumerMaxRetries int

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		LLMModel:       getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 2048),
		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
		LLMTimeout:     time.Duration(getEnvInt("LLM_TIMEOUT_SEC", 15)) * time.Second,

		NormalizerMaxChars: getEnvInt("NORMALIZER_MAX_CHARS", 2000),
		ExtractionCacheTTL: time.Duration(getEnvInt("EXTRACTION_CACHE_TTL_SEC", 60)) * time.Second,
		SuggestionLimit:    getEnvInt("SUGGESTION_LIMIT", 6),

		AutoSendThreshold:  getEnvFloat("AUTOSEND_THRESHOLD", 0.85),
		AutoSendCountdown:  getEnvInt("AUTOSEND_COUNTDOWN_SEC", 10),
		AutoSendMinTextLen: getEnvInt("AUTOSEND_MIN_TEXT_LEN", 20),

		WorkerID:           getEnv("WORKER_ID", generateWorkerID()),
		ConsumerBatchSize:  getEnvInt("CONSUMER_BATCH_SIZE", 50),
		ConsumerBlockMS:    getEnvInt("CONSUMER_BLOCK_MS", 5000),
		ConsumerMaxRetries: getEnvInt("CONSUMER_MAX_RETRIES", 3),

		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
