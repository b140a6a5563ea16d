package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	APIPrefix   string
	ProjectName string
	Environment string
	CORSOrigins []string

	MySQLDSN       string
	DBMaxOpenConns int
	DBMaxIdleConns int
	DBConnLifetime time.Duration
	AutoMigrate    bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string
	MaxUploadBytes int64

	SecretKey       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ResetTokenTTL   time.Duration

	AuthRateLimit float64
	AuthRateBurst int
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	} else if err != nil {
		slog.Info("no .env file, using process environment")
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8000"),
		APIPrefix:   getEnv("API_V1_STR", "/api/v1"),
		ProjectName: getEnv("PROJECT_NAME", "Rod Royale Backend API"),
		Environment: getEnv("ENVIRONMENT", "development"),
		CORSOrigins: splitList(os.Getenv("CORS_ORIGINS")),

		MySQLDSN:       getEnv("MYSQL_DSN", "root:123456@tcp(127.0.0.1:3306)/rod_royale?charset=utf8mb4&parseTime=True&loc=UTC"),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		DBConnLifetime: getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
		AutoMigrate:    getEnvAsBool("DB_AUTO_MIGRATE", true),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		CacheTTL:      getEnvAsDuration("LEADERBOARD_CACHE_TTL", time.Minute),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", "admin"),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", "password123"),
		MinioBucket:    getEnv("MINIO_BUCKET", "rod-royale"),
		MinioUseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
		MinioPublicURL: os.Getenv("MINIO_PUBLIC_URL"),
		MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_BYTES", 10<<20)),

		SecretKey:       os.Getenv("SECRET_KEY"),
		AccessTokenTTL:  getEnvAsDuration("ACCESS_TOKEN_TTL", 30*time.Minute),
		RefreshTokenTTL: getEnvAsDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		ResetTokenTTL:   getEnvAsDuration("RESET_TOKEN_TTL", time.Hour),

		AuthRateLimit: getEnvAsFloat("AUTH_RATE_LIMIT", 1),
		AuthRateBurst: getEnvAsInt("AUTH_RATE_BURST", 10),
	}

	if cfg.MinioPublicURL == "" {
		scheme := "http"
		if cfg.MinioUseSSL {
			scheme = "https"
		}
		cfg.MinioPublicURL = scheme + "://" + cfg.MinioEndpoint
	}

	if cfg.SecretKey == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("SECRET_KEY is required in production")
		}
		slog.Warn("SECRET_KEY not set, using an insecure development key")
		cfg.SecretKey = "dev-secret-change-me"
	}

	if !strings.HasPrefix(cfg.APIPrefix, "/") {
		return nil, fmt.Errorf("API_V1_STR must start with /: %q", cfg.APIPrefix)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		slog.Warn("invalid int in environment, using default", "key", key, "value", valueStr)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		slog.Warn("invalid float in environment, using default", "key", key, "value", valueStr)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		slog.Warn("invalid bool in environment, using default", "key", key, "value", valueStr)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", valueStr)
		return defaultValue
	}
	return value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
