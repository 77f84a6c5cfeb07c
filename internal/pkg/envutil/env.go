package envutil

import (
	"os"
	"strconv"

	"github.com/fixloop/fixloop-backend/internal/pkg/logger"
)

// GetEnv reads a string env var, falling back to a default.
func GetEnv(key, fallback string, log *logger.Logger) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	if log != nil {
		log.Debug("Env var not set, using fallback", "key", key, "fallback", fallback)
	}
	return fallback
}

// GetEnvAsInt reads an integer env var, falling back on absence or parse
// failure.
func GetEnvAsInt(key string, fallback int, log *logger.Logger) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		if log != nil {
			log.Warn("Env var not an int, using fallback", "key", key, "value", value, "fallback", fallback)
		}
		return fallback
	}
	return parsed
}

// GetEnvAsBool reads a boolean env var, falling back on absence or parse
// failure.
func GetEnvAsBool(key string, fallback bool, log *logger.Logger) bool {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		if log != nil {
			log.Warn("Env var not a bool, using fallback", "key", key, "value", value, "fallback", fallback)
		}
		return fallback
	}
	return parsed
}
