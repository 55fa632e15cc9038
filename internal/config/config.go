package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DemoOwnerID is the bootstrap owner used when no actor token is presented.
const DemoOwnerID = "123e4567-e89b-12d3-a456-426614174000"

// Config holds application configuration
type Config struct {
	Port            string
	Env             string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	DatabaseURL      string
	DatabaseMaxConns int

	RedisAddr        string
	RedisPassword    string
	RedisTLS         bool
	LeadListCacheTTL time.Duration
	LeadListLimit    int

	CORSAllowedOrigins []string

	// Actor identity. With no JWT secret every request acts as the default owner.
	ActorJWTSecret    string
	DefaultOwnerID    string
	DefaultOwnerEmail string

	// Per-IP token bucket for lead submissions
	LeadSubmitRate  float64
	LeadSubmitBurst int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       strings.ToLower(strings.TrimSpace(getEnv("LOG_FORMAT", "json"))),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL:      getEnv("DATABASE_URL", ""),
		DatabaseMaxConns: getEnvAsInt("DATABASE_MAX_CONNS", 10),

		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisTLS:         getEnvAsBool("REDIS_TLS", false),
		LeadListCacheTTL: getEnvAsDuration("LEAD_LIST_CACHE_TTL", 5*time.Minute),
		LeadListLimit:    getEnvAsInt("LEAD_LIST_LIMIT", 10),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),

		ActorJWTSecret:    getEnv("ACTOR_JWT_SECRET", ""),
		DefaultOwnerID:    getEnv("DEFAULT_OWNER_ID", DemoOwnerID),
		DefaultOwnerEmail: getEnv("DEFAULT_OWNER_EMAIL", "demo@example.com"),

		LeadSubmitRate:  getEnvAsFloat("LEAD_SUBMIT_RATE", 1),
		LeadSubmitBurst: getEnvAsInt("LEAD_SUBMIT_BURST", 5),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blank entries.
func getEnvAsList(key string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
