package config

import (
	"log/slog"
	"os"
	"strconv"
)

type Config struct {
	OpenAIApiKey  string
	OpenAIBaseURL string
	OpenAIOrgID   string
	AssistantID   string
	VectorStoreID string
	AllowedOrigin string
	Port          string
	DatabaseURL   string
	DBMaxConns    int
	SyncAssistant bool
	LogLevel      slog.Level
}

// Load reads the process configuration from the environment. Callers are
// expected to have loaded any .env file beforehand.
func Load() *Config {
	return &Config{
		OpenAIApiKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrgID:   getEnv("OPENAI_ORG_ID", ""),
		AssistantID:   getEnv("OPENAI_ASSISTANT_ID", ""),
		VectorStoreID: getEnv("OPENAI_VECTOR_STORE_ID", ""),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),
		Port:          getEnv("PORT", "8000"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		DBMaxConns:    getEnvAsInt("DB_MAX_CONNS", 25),
		SyncAssistant: getEnvAsBool("SYNC_ASSISTANT", true),
		LogLevel:      getEnvAsLevel("LOG_LEVEL", slog.LevelInfo),
	}
}

// HistoryEnabled reports whether interactions should be persisted.
func (c *Config) HistoryEnabled() bool {
	return c.DatabaseURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsLevel(key string, defaultValue slog.Level) slog.Level {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(valueStr)); err != nil {
		return defaultValue
	}
	return level
}
