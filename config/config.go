package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is read once at startup and treated as immutable afterwards.
type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	// DatabaseDSN selects postgres when it starts with postgres:// or
	// postgresql://, a sqlite file otherwise.
	DatabaseDSN string

	JWTSecret    []byte
	TokenTTL     time.Duration
	BcryptCost   int
	StoreTimeout time.Duration

	// Redis backs the revocation store when RedisAddr is set; otherwise
	// revocations live in the main database.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	FactoryURL         string
	FactoryAPIKey      string
	FulfillmentTimeout time.Duration

	LoginRatePerMin         int
	RevocationPurgeInterval time.Duration

	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// Load reads .env (if present) and then the environment.
// JWT_SECRET is required; everything else has a default.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		GinMode:                 getEnv("GIN_MODE", "debug"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		DatabaseDSN:             getEnv("DATABASE_DSN", "pizza.db"),
		TokenTTL:                getEnvDuration("TOKEN_TTL", 24*time.Hour),
		BcryptCost:              getEnvInt("BCRYPT_COST", 10),
		StoreTimeout:            getEnvDuration("STORE_TIMEOUT", 3*time.Second),
		RedisAddr:               os.Getenv("REDIS_ADDR"),
		RedisPassword:           os.Getenv("REDIS_PASSWORD"),
		RedisDB:                 getEnvInt("REDIS_DB", 0),
		FactoryURL:              getEnv("FACTORY_URL", "http://localhost:9090"),
		FactoryAPIKey:           os.Getenv("FACTORY_API_KEY"),
		FulfillmentTimeout:      getEnvDuration("FULFILLMENT_TIMEOUT", 10*time.Second),
		LoginRatePerMin:         getEnvInt("LOGIN_RATE_PER_MIN", 20),
		RevocationPurgeInterval: getEnvDuration("REVOCATION_PURGE_INTERVAL", time.Hour),
		AdminName:               getEnv("ADMIN_NAME", "pizza admin"),
		AdminEmail:              os.Getenv("ADMIN_EMAIL"),
		AdminPassword:           os.Getenv("ADMIN_PASSWORD"),
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("required environment variable JWT_SECRET is not set")
	}
	if len(secret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 bytes, got %d", len(secret))
	}
	cfg.JWTSecret = []byte(secret)

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
