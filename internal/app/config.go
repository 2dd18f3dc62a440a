package app

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr       string
	MongoURI       string
	MongoDatabase  string
	LogLevel       string
	LogFormat      string
	TranslateURL   string // empty disables subtitle translation
	SynchronizeURL string // empty disables subtitle synchronization
	AITimeoutSec   int64
	RateLimitRPS   int64
	RateLimitBurst int64
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:  getEnv("MONGO_DB", "playback"),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", "text")),
		TranslateURL:   getEnv("SUBTITLE_TRANSLATE_URL", ""),
		SynchronizeURL: getEnv("SUBTITLE_SYNCHRONIZE_URL", ""),
		AITimeoutSec:   getEnvInt64("SUBTITLE_AI_TIMEOUT_SECONDS", 60),
		RateLimitRPS:   getEnvInt64("HTTP_RATE_LIMIT_RPS", 200),
		RateLimitBurst: getEnvInt64("HTTP_RATE_LIMIT_BURST", 400),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	if parsed < 0 {
		return fallback
	}
	return parsed
}
