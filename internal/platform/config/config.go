package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Cache backend selection values.
const (
	CacheBackendPostgres = "postgres"
	CacheBackendRedis    = "redis"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool
	AppVersion   string

	// HomeCurrency is the currency valuations are reported in.
	HomeCurrency string

	// MarketEnable gates every live upstream fetch. When false the refresh
	// operation is rejected before any provider is contacted.
	MarketEnable bool

	// TTLs are per key-class; FX moves faster than equities.
	StockCacheTTL time.Duration
	FxCacheTTL    time.Duration
	MetalCacheTTL time.Duration

	// ProviderTimeout bounds each upstream request.
	ProviderTimeout time.Duration

	// CacheBackend picks the store behind the price cache.
	CacheBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// RefreshRateLimit is a ulule/limiter formatted rate, e.g. "30-M".
	RefreshRateLimit string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("APP_VERSION", "dev")
	viper.SetDefault("HOME_CURRENCY", "JPY")
	viper.SetDefault("MARKET_ENABLE", false)
	viper.SetDefault("STOCK_CACHE_TTL", "15m")
	viper.SetDefault("FX_CACHE_TTL", "5m")
	viper.SetDefault("METAL_CACHE_TTL", "15m")
	viper.SetDefault("PROVIDER_TIMEOUT", "10s")
	viper.SetDefault("CACHE_BACKEND", CacheBackendPostgres)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REFRESH_RATE_LIMIT", "30-M")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.AppVersion = viper.GetString("APP_VERSION")
	cfg.HomeCurrency = viper.GetString("HOME_CURRENCY")
	cfg.MarketEnable = viper.GetBool("MARKET_ENABLE")
	if !cfg.MarketEnable {
		log.Println("Warning: MARKET_ENABLE not set. Live market refresh is disabled.")
	}

	cfg.StockCacheTTL = durationOrDefault("STOCK_CACHE_TTL", 15*time.Minute)
	cfg.FxCacheTTL = durationOrDefault("FX_CACHE_TTL", 5*time.Minute)
	cfg.MetalCacheTTL = durationOrDefault("METAL_CACHE_TTL", 15*time.Minute)
	cfg.ProviderTimeout = durationOrDefault("PROVIDER_TIMEOUT", 10*time.Second)

	cfg.CacheBackend = viper.GetString("CACHE_BACKEND")
	if cfg.CacheBackend != CacheBackendPostgres && cfg.CacheBackend != CacheBackendRedis {
		log.Printf("Warning: Invalid CACHE_BACKEND (%q). Defaulting to %s.\n", cfg.CacheBackend, CacheBackendPostgres)
		cfg.CacheBackend = CacheBackendPostgres
	}
	cfg.RedisAddr = viper.GetString("REDIS_ADDR")
	cfg.RedisPassword = viper.GetString("REDIS_PASSWORD")
	cfg.RedisDB = viper.GetInt("REDIS_DB")

	cfg.RefreshRateLimit = viper.GetString("REFRESH_RATE_LIMIT")

	return cfg, nil
}

func durationOrDefault(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		}
		return fallback
	}
	return d
}
