package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	RedisURL    string
	ListenAddr  string
	BaseURL     string // Public base URL short links are served from
	NotFoundURL string // Landing page for dead/expired/deactivated codes
	CachePrefix string // Key prefix isolating environments on a shared Redis

	OwnerTokenSecret string // HMAC secret of the identity collaborator's tokens

	CacheTTLShort  time.Duration
	CacheTTLMedium time.Duration
	CacheTTLLong   time.Duration

	RateLimitRPS           float64 // Rate limit for API endpoints (requests per second)
	RateLimitBurst         int
	RateLimitRedirectRPS   float64 // More lenient tier for the redirect path
	RateLimitRedirectBurst int
}

func Load() *Config {
	// Try to load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or defaults")
	}

	return &Config{
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		ListenAddr:       getEnv("LISTEN_ADDR", ":8080"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:8080"),
		NotFoundURL:      getEnv("NOT_FOUND_URL", "http://localhost:3000/not-found"),
		CachePrefix:      getEnv("CACHE_PREFIX", ""),
		OwnerTokenSecret: getEnv("OWNER_TOKEN_SECRET", ""),

		CacheTTLShort:  getEnvDuration("CACHE_TTL_SHORT", 30*time.Second),
		CacheTTLMedium: getEnvDuration("CACHE_TTL_MEDIUM", 5*time.Minute),
		CacheTTLLong:   getEnvDuration("CACHE_TTL_LONG", 1*time.Hour),

		RateLimitRPS:           getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:         getEnvInt("RATE_LIMIT_BURST", 20),
		RateLimitRedirectRPS:   getEnvFloat("RATE_LIMIT_REDIRECT_RPS", 30),
		RateLimitRedirectBurst: getEnvInt("RATE_LIMIT_REDIRECT_BURST", 60),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
