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

	// Store engine: redis, postgres, or memory
	StoreDriver string
	DatabaseURL string
	RedisURL    string

	// JWT
	JWTSecret string

	// Telemetry cadence
	HeartbeatInterval    time.Duration
	OnlineThreshold      time.Duration
	PresencePollInterval time.Duration
	TrackingInterval     time.Duration

	// Activity audit log
	ActivityLogCap int

	// Cap on the live duration attributed to an abandoned open session
	MaxLiveSession time.Duration

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		Env:         getEnvOrDefault("ENV", "development"),
		StoreDriver: getEnvOrDefault("STORE_DRIVER", "redis"),
		DatabaseURL: getEnvOrDefault("DATABASE_URL", ""),
		RedisURL:    mustGetEnv("REDIS_URL"),
		JWTSecret:   mustGetEnv("JWT_SECRET"),

		HeartbeatInterval:    secondsEnv("HEARTBEAT_INTERVAL_SECONDS", 30),
		OnlineThreshold:      secondsEnv("ONLINE_THRESHOLD_SECONDS", 60),
		PresencePollInterval: secondsEnv("PRESENCE_POLL_SECONDS", 10),
		TrackingInterval:     secondsEnv("TRACKING_INTERVAL_SECONDS", 60),

		ActivityLogCap: getEnvAsIntOrDefault("ACTIVITY_LOG_CAP", 1000),
		MaxLiveSession: secondsEnv("MAX_LIVE_SESSION_SECONDS", 43200),

		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
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

func secondsEnv(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvAsIntOrDefault(key, defaultSeconds)) * time.Second
}
