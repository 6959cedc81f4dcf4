package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/studypilot/assessment-service/internal/llm"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	Environment string
	LogLevel    string

	Grading  GradingConfig
	Sessions SessionConfig
	LLM     llm.Config
	Events  EventConfig
}

// GradingConfig tunes how short answers reach the semantic grader.
type GradingConfig struct {
	MaxConcurrency  int
	DelegateTimeout time.Duration
	CacheEnabled    bool
	CacheTTL        time.Duration
}

// SessionConfig bounds how long idle sessions stay in memory. A zero
// IdleTimeout keeps them until deleted.
type SessionConfig struct {
	IdleTimeout   time.Duration
	SweepInterval time.Duration
}

// LoadConfig reads the environment, seeded from a .env file when one exists.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Grading: GradingConfig{
			MaxConcurrency:  getEnvInt("GRADING_MAX_CONCURRENCY", 8),
			DelegateTimeout: getEnvDuration("GRADING_DELEGATE_TIMEOUT", 30*time.Second),
			CacheEnabled:    getEnvBool("GRADING_CACHE_ENABLED", true),
			CacheTTL:        getEnvDuration("GRADING_CACHE_TTL", 24*time.Hour),
		},
		Sessions: SessionConfig{
			IdleTimeout:   getEnvDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour),
			SweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
		},
		LLM: llm.Config{
			Provider:    strings.ToLower(getEnv("LLM_PROVIDER", llm.ProviderMock)),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", llm.DefaultMaxTokens),
			Temperature: getEnvFloat("LLM_TEMPERATURE", llm.DefaultTemperature),
			OpenAI: llm.OpenAIConfig{
				APIKey:  getEnv("OPENAI_API_KEY", ""),
				Model:   getEnv("OPENAI_MODEL", ""),
				BaseURL: getEnv("OPENAI_BASE_URL", ""),
			},
			Anthropic: llm.AnthropicConfig{
				APIKey: getEnv("ANTHROPIC_API_KEY", ""),
				Model:  getEnv("ANTHROPIC_MODEL", ""),
			},
			Gemini: llm.GeminiConfig{
				APIKey: getEnv("GEMINI_API_KEY", ""),
				Model:  getEnv("GEMINI_MODEL", ""),
			},
		},
		Events: EventConfig{
			Enabled:         getEnvBool("EVENTS_ENABLED", false),
			Publisher:       getEnv("EVENTS_PUBLISHER", "kafka"),
			KafkaBrokers:    getEnv("KAFKA_BROKERS", "localhost:9092"),
			AssessmentTopic: getEnv("ASSESSMENT_TOPIC", "assessment-events"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case llm.ProviderOpenAI, llm.ProviderAnthropic, llm.ProviderGemini, llm.ProviderMock:
	default:
		return fmt.Errorf("invalid LLM_PROVIDER %q", c.LLM.Provider)
	}
	if c.Grading.MaxConcurrency < 0 {
		return fmt.Errorf("GRADING_MAX_CONCURRENCY must not be negative")
	}
	if c.Grading.DelegateTimeout < 0 {
		return fmt.Errorf("GRADING_DELEGATE_TIMEOUT must not be negative")
	}
	if c.Sessions.IdleTimeout < 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must not be negative")
	}
	if c.Sessions.IdleTimeout > 0 && c.Sessions.SweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
