// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir          string // Base directory for the sessions database (always absolute)
	Port             int
	LogLevel         string
	DevMode          bool
	StrictGates      bool          // Fail replays on unknown gate identifiers instead of skipping them
	PlaybackInterval time.Duration // Delay between frames on the playback stream
	SessionTTL       time.Duration // Sessions untouched for longer are removed by the cleanup job
	CleanupSchedule  string        // Cron expression (with seconds) for the cleanup job
	MaxQubits        int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("BLOCH_DATA_DIR", "./data")

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
		DataDir:          absDataDir,
		Port:             getEnvAsInt("BLOCH_PORT", 8080),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		StrictGates:      getEnvAsBool("BLOCH_STRICT_GATES", false),
		PlaybackInterval: time.Duration(getEnvAsInt("BLOCH_PLAYBACK_INTERVAL_MS", 480)) * time.Millisecond,
		SessionTTL:       time.Duration(getEnvAsInt("BLOCH_SESSION_TTL_HOURS", 720)) * time.Hour,
		CleanupSchedule:  getEnv("BLOCH_CLEANUP_SCHEDULE", "0 0 3 * * *"), // 03:00 daily
		MaxQubits:        getEnvAsInt("BLOCH_MAX_QUBITS", 10),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.PlaybackInterval <= 0 {
		return fmt.Errorf("playback interval must be positive, got %s", c.PlaybackInterval)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive, got %s", c.SessionTTL)
	}
	if c.MaxQubits < 1 || c.MaxQubits > 10 {
		return fmt.Errorf("max qubits must be between 1 and 10, got %d", c.MaxQubits)
	}
	return nil
}

// SessionsDBPath returns the location of the sessions database.
func (c *Config) SessionsDBPath() string {
	return filepath.Join(c.DataDir, "circuits.db")
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
