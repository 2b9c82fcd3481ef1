package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Logging
	LogLevel  string
	LogFormat string

	// Gemini AI
	GeminiAPIKey         string
	GeminiEndpoint       string
	GeminiModel          string
	GeminiBackend        string
	GeminiConcurrentReqs int

	// Chat
	ChatTimeout         time.Duration
	ChatHistoryCapacity int
	ChatHistoryTTL      time.Duration

	// Sessions
	SessionSecret string
	SessionTTL    time.Duration

	// Optional stores
	RedisURL      string
	DatabaseURL   string
	MigrationsDir string

	// Calculator
	StrictSafetyInput bool

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		Env:                  getEnvOrDefault("ENV", "development"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "console"),
		GeminiAPIKey:         mustGetEnv("GEMINI_API_KEY"),
		GeminiEndpoint:       getEnvOrDefault("GEMINI_ENDPOINT", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiModel:          getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBackend:        getEnvOrDefault("GEMINI_BACKEND", "rest"),
		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
		ChatTimeout:          time.Duration(getEnvAsIntOrDefault("CHAT_TIMEOUT_SECONDS", 30)) * time.Second,
		ChatHistoryCapacity:  getEnvAsIntOrDefault("CHAT_HISTORY_CAPACITY", 50),
		ChatHistoryTTL:       time.Duration(getEnvAsIntOrDefault("CHAT_HISTORY_TTL_MINUTES", 60)) * time.Minute,
		SessionSecret:        mustGetEnv("SESSION_SECRET"),
		SessionTTL:           time.Duration(getEnvAsIntOrDefault("SESSION_TTL_MINUTES", 120)) * time.Minute,
		RedisURL:             getEnvOrDefault("REDIS_URL", ""),
		DatabaseURL:          getEnvOrDefault("DATABASE_URL", ""),
		MigrationsDir:        getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		StrictSafetyInput:    getEnvAsBoolOrDefault("SAFETY_STRICT_INPUT", true),
		FrontendURL:          getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

// ChatRouteTimeout bounds a chat HTTP request: one generation call plus slack
// for waiting on the session lock and the rate bucket.
func (c *Config) ChatRouteTimeout() time.Duration {
	return c.ChatTimeout + 15*time.Second
}

// WriteTimeout is the server write deadline. It outlasts ChatRouteTimeout so
// a timed-out chat handler can still write its reply.
func (c *Config) WriteTimeout() time.Duration {
	return c.ChatRouteTimeout() + 5*time.Second
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}
