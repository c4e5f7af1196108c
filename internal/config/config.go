package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	RedisURL    string
	ArchivePath string

	AgentProvider string // "ollama" or "mock"
	OllamaURL     string
	ModelName     string

	// DefaultTurnLimit applies to episodes created without an explicit limit.
	DefaultTurnLimit int
}

func Load() (*Config, error) {
	turnLimit, err := strconv.Atoi(getEnv("TURN_LIMIT", "20"))
	if err != nil || turnLimit < 0 {
		return nil, fmt.Errorf("invalid TURN_LIMIT: %q", os.Getenv("TURN_LIMIT"))
	}

	return &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		LogLevel:         parseLogLevel(getEnv("LOG_LEVEL", "info")),
		RedisURL:         getEnv("REDIS_URL", "localhost:6379"),
		ArchivePath:      getEnv("ARCHIVE_PATH", "./data/episodes.db"),
		AgentProvider:    getEnv("AGENT_PROVIDER", "ollama"),
		OllamaURL:        getEnv("OLLAMA_URL", "http://localhost:11434"),
		ModelName:        getEnv("MODEL_NAME", "llama3.1"),
		DefaultTurnLimit: turnLimit,
	}, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
