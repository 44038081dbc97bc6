package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool

	JWTSecret string

	// External sources
	DemandSourceURL  string
	JourneySourceURL string

	// Redis cache for source summaries
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	SourceCacheTTL time.Duration

	// Rate limit applied to discovery endpoints, in ulule/limiter formatted
	// notation (e.g. "30-M" for 30 requests per minute).
	DiscoveryRateLimit string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("DEMAND_SOURCE_URL", "http://localhost:8081/api/v1")
	viper.SetDefault("JOURNEY_SOURCE_URL", "http://localhost:8082/api/v1")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("SOURCE_CACHE_TTL", "5m")
	viper.SetDefault("DISCOVERY_RATE_LIMIT", "30-M")

	// Environment variables override defaults (and .env values loaded above).
	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	cfg.DemandSourceURL = viper.GetString("DEMAND_SOURCE_URL")
	cfg.JourneySourceURL = viper.GetString("JOURNEY_SOURCE_URL")
	cfg.RedisAddr = viper.GetString("REDIS_ADDR")
	cfg.RedisPassword = viper.GetString("REDIS_PASSWORD")
	cfg.RedisDB = viper.GetInt("REDIS_DB")
	cfg.SourceCacheTTL = viper.GetDuration("SOURCE_CACHE_TTL")
	cfg.DiscoveryRateLimit = viper.GetString("DISCOVERY_RATE_LIMIT")

	return cfg, nil
}
