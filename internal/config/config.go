// Package config loads service configuration from the process environment.
// No config-file parsing: env vars only, each with a logged fallback.
package config

import (
	"os"
	"strconv"

	"github.com/jlpt-tutor/tutor-service/internal/logger"
)

type Config struct {
	DatabaseURL    string
	AppHost        string
	AppPort        string
	LogLevel       string
	LogMode        string
	OllamaBaseURL  string
	OllamaModel    string
	PiperBinary    string
	PiperModelPath string
	NewCardsPerDay int
}

func Load(log *logger.Logger) Config {
	return Config{
		DatabaseURL:    GetEnv("DATABASE_URL", "", log),
		AppHost:        GetEnv("APP_HOST", "0.0.0.0", log),
		AppPort:        GetEnv("APP_PORT", "8080", log),
		LogLevel:       GetEnv("LOG_LEVEL", "info", log),
		LogMode:        GetEnv("LOG_MODE", "development", log),
		OllamaBaseURL:  GetEnv("OLLAMA_BASE_URL", "http://localhost:11434", log),
		OllamaModel:    GetEnv("OLLAMA_MODEL", "llama3.1:70b", log),
		PiperBinary:    GetEnv("PIPER_BINARY_PATH", "piper", log),
		PiperModelPath: GetEnv("PIPER_MODEL_PATH", "", log),
		NewCardsPerDay: GetEnvAsInt("NEW_CARDS_PER_DAY", 20, log),
	}
}

func GetEnv(key, defaultVal string, log *logger.Logger) string {
	if log != nil {
		log = log.With("env_var", key)
	}
	val, ok := os.LookupEnv(key)
	if !ok {
		if log != nil {
			log.Debug("environment variable not found, using default", "default", defaultVal)
		}
		return defaultVal
	}
	if log != nil {
		log.Debug("environment variable found, using environment", "environment", val)
	}
	return val
}

func GetEnvAsInt(key string, defaultVal int, log *logger.Logger) int {
	if log != nil {
		log = log.With("env_var", key)
	}
	valStr, ok := os.LookupEnv(key)
	if !ok {
		if log != nil {
			log.Debug("environment variable not found, using default", "default", defaultVal)
		}
		return defaultVal
	}
	i, err := strconv.Atoi(valStr)
	if err != nil {
		if log != nil {
			log.Debug("environment variable could not be parsed as int, using default", "providedVal", valStr, "defaultVal", defaultVal, "error", err)
		}
		return defaultVal
	}
	if log != nil {
		log.Debug("environment variable found, using it", "value", i)
	}
	return i
}
