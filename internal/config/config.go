// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Cache backends
const (
	CacheBackendFS     = "fs"
	CacheBackendMemory = "memory"
	CacheBackendSQLite = "sqlite"
	CacheBackendS3     = "s3"
)

// Cache key strategies
const (
	KeyStrategySignature = "signature"
	KeyStrategyContent   = "content"
)

// Config holds application configuration
type Config struct {
	DataDir      string // Base directory for databases, portfolios and cache (always absolute)
	CacheDir     string // Artifact directory of the fs cache backend
	PortfolioDir string // Directory scanned for {name}.csv portfolio files
	MarketDB     string // Path of the price/FX SQLite database
	LogLevel     string
	LogFile      string // Optional rotated log file
	Port         int
	DevMode      bool
	Cache        CacheConfig
}

// CacheConfig holds cache backend configuration
type CacheConfig struct {
	Backend         string // fs, memory, sqlite or s3
	KeyStrategy     string // signature or content
	CleanupSchedule string // cron expression with seconds; empty disables cleanup
	S3              S3Config
}

// S3Config holds the bucket settings of the s3 cache backend.
// Static credentials are optional; the default AWS chain is used without them.
type S3Config struct {
	Bucket          string
	Prefix          string
	Endpoint        string // Custom endpoint for S3-compatible stores (R2, MinIO)
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("ANALYTICS_DATA_DIR", "./data")

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:      absDataDir,
		CacheDir:     getEnv("ANALYTICS_CACHE_DIR", filepath.Join(absDataDir, "cache")),
		PortfolioDir: getEnv("ANALYTICS_PORTFOLIO_DIR", filepath.Join(absDataDir, "portfolios")),
		MarketDB:     getEnv("ANALYTICS_MARKET_DB", filepath.Join(absDataDir, "market.db")),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFile:      getEnv("LOG_FILE", ""),
		Port:         getEnvAsInt("GO_PORT", 8001),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		Cache: CacheConfig{
			Backend:         strings.ToLower(getEnv("CACHE_BACKEND", CacheBackendFS)),
			KeyStrategy:     strings.ToLower(getEnv("CACHE_KEY_STRATEGY", KeyStrategySignature)),
			CleanupSchedule: getEnv("CACHE_CLEANUP_SCHEDULE", "0 0 3 * * *"), // 3 AM daily
			S3: S3Config{
				Bucket:          getEnv("CACHE_S3_BUCKET", ""),
				Prefix:          getEnv("CACHE_S3_PREFIX", "analytics-cache"),
				Endpoint:        getEnv("CACHE_S3_ENDPOINT", ""),
				Region:          getEnv("AWS_REGION", "us-east-1"),
				AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			},
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheBackendFS, CacheBackendMemory, CacheBackendSQLite:
	case CacheBackendS3:
		if c.Cache.S3.Bucket == "" {
			return fmt.Errorf("CACHE_S3_BUCKET is required for the s3 cache backend")
		}
		if strings.Trim(strings.TrimSpace(c.Cache.S3.Prefix), "/") == "" {
			return fmt.Errorf("CACHE_S3_PREFIX must not be empty for the s3 cache backend")
		}
		if (c.Cache.S3.AccessKeyID == "") != (c.Cache.S3.SecretAccessKey == "") {
			return fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set together")
		}
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q (want fs, memory, sqlite or s3)", c.Cache.Backend)
	}

	switch c.Cache.KeyStrategy {
	case KeyStrategySignature, KeyStrategyContent:
	default:
		return fmt.Errorf("unknown CACHE_KEY_STRATEGY %q (want signature or content)", c.Cache.KeyStrategy)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid GO_PORT %d", c.Port)
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
