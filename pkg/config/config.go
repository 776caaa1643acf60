package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Upload   UploadConfig
	Watchdog WatchdogConfig
	Metrics  MetricsConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type StorageConfig struct {
	// "local" is the only backend today; the object store is an interface
	// so deployments can swap in S3-compatible storage.
	Type      string
	LocalPath string
}

// Empty statement policy values for UploadConfig.EmptyStatementPolicy.
const (
	EmptyStatementComplete = "complete"
	EmptyStatementFail     = "fail"
)

// UploadConfig controls statement upload validation and async processing.
type UploadConfig struct {
	MaxFileSize      int64
	AllowedMediaType string
	Workers          int
	QueueSize        int
	// EmptyStatementPolicy decides how a structurally valid statement with
	// zero extracted transactions finishes: "complete" or "fail".
	EmptyStatementPolicy string
}

// WatchdogConfig controls the stuck-upload sweep.
type WatchdogConfig struct {
	Enabled    bool
	Schedule   string
	StuckAfter time.Duration
}

type MetricsConfig struct {
	Enabled bool
	Port    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "statements-dev"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Storage: StorageConfig{
			Type:      getEnv("STORAGE_TYPE", "local"),
			LocalPath: getEnv("STORAGE_LOCAL_PATH", "./uploads"),
		},
		Upload: UploadConfig{
			MaxFileSize:          getEnvAsInt64("UPLOAD_MAX_FILE_SIZE", 50*1024*1024),
			AllowedMediaType:     getEnv("UPLOAD_ALLOWED_MEDIA_TYPE", "application/pdf"),
			Workers:              getEnvAsInt("UPLOAD_WORKERS", 4),
			QueueSize:            getEnvAsInt("UPLOAD_QUEUE_SIZE", 64),
			EmptyStatementPolicy: getEnv("UPLOAD_EMPTY_STATEMENT_POLICY", EmptyStatementComplete),
		},
		Watchdog: WatchdogConfig{
			Enabled:    getEnvAsBool("WATCHDOG_ENABLED", true),
			Schedule:   getEnv("WATCHDOG_SCHEDULE", "*/10 * * * *"),
			StuckAfter: getEnvAsDuration("WATCHDOG_STUCK_AFTER", 30*time.Minute),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
			Port:    getEnvAsInt("METRICS_PORT", 9090),
		},
	}

	if p := cfg.Upload.EmptyStatementPolicy; p != EmptyStatementComplete && p != EmptyStatementFail {
		return nil, fmt.Errorf("invalid UPLOAD_EMPTY_STATEMENT_POLICY: %q", p)
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
