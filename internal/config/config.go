package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Ai       AIConfig
	Session  SessionConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	ServiceURL         string // Used by the reclaimer process to reach the REST service
	OtelEnabled        bool
	OtelEndpoint       string
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JWTSecret      string
	ReclaimerToken string // Shared secret for the end-stale-sessions route, empty disables the check
}

type AIConfig struct {
	LLMProvider         string // "openai" or "ollama"
	LLMModel            string
	OpenAIAPIKey        string
	OpenAIBaseURL       string
	OllamaBaseURL       string
	OllamaContextWindow int
	ProviderTimeout     time.Duration
	DocsURL             string
	DocsCacheTTL        time.Duration
	SystemInstruction   string
}

type SessionConfig struct {
	StaleThreshold time.Duration
	SweepLockTTL   time.Duration
	ReclaimCron    string
}

const DefaultSystemInstruction = "With the help of the documentation, you have become an expert in JavaScript. " +
	"With the help of this documentation, answer prompts in a concise way."

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			ServiceURL:         getEnv("LLM_SERVICE_URL", "http://localhost:3000"),
			OtelEnabled:        getEnv("OTEL_ENABLED", "") == "true",
			OtelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JWTSecret:      getEnv("JWT_SECRET", ""),
			ReclaimerToken: getEnv("RECLAIMER_TOKEN", ""),
		},
		Ai: AIConfig{
			LLMProvider:         getEnv("LLM_PROVIDER", "openai"),
			LLMModel:            getEnv("LLM_MODEL", "gpt-3.5-turbo"),
			OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", ""),
			OllamaBaseURL:       getEnv("OLLAMA_BASE_URL", "http://127.0.0.1:11434"),
			OllamaContextWindow: getEnvAsInt("OLLAMA_CONTEXT_WINDOW", 4096),
			ProviderTimeout:     getEnvAsDuration("PROVIDER_TIMEOUT", 120*time.Second),
			DocsURL:             getEnv("DOCS_URL", ""),
			DocsCacheTTL:        getEnvAsDuration("DOCS_CACHE_TTL", time.Hour),
			SystemInstruction:   getEnv("SYSTEM_INSTRUCTION", DefaultSystemInstruction),
		},
		Session: SessionConfig{
			StaleThreshold: getEnvAsDuration("SESSION_STALE_THRESHOLD", 2*time.Minute),
			SweepLockTTL:   getEnvAsDuration("SWEEP_LOCK_TTL", 30*time.Second),
			ReclaimCron:    getEnv("RECLAIM_CRON", "@every 1m"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("2m", "90s") or a bare number of milliseconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if ms, err := strconv.ParseInt(strValue, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
