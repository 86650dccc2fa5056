package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort          string
	LogLevel          string
	JWTSecret         string
	CORSOrigin        string
	DatabaseDriver    string
	DatabaseURL       string
	ArchiveInterval   time.Duration
	UpstreamBaseURL   string
	UpstreamAPIKey    string
	TitleModel        string
	MaxMessagesPerDay int
}

// Load reads a .env file when one exists and then the process environment.
// The returned bool reports whether a .env file was found.
func Load() (Config, bool) {
	envFileFound := godotenv.Load() == nil

	return Config{
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		CORSOrigin:        getEnv("CORS_ORIGIN", "*"),
		DatabaseDriver:    getEnv("DATABASE_DRIVER", "postgres"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		ArchiveInterval:   getEnvAsDuration("ARCHIVE_INTERVAL", 10*time.Second),
		UpstreamBaseURL:   getEnv("UPSTREAM_BASE_URL", "http://localhost:8000/v1"),
		UpstreamAPIKey:    getEnv("UPSTREAM_API_KEY", ""),
		TitleModel:        getEnv("TITLE_MODEL", "gpt-3.5-turbo"),
		MaxMessagesPerDay: getEnvAsInt("MAX_MESSAGES_PER_DAY", 0),
	}, envFileFound
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil && value > 0 {
		return value
	}
	return defaultValue
}
