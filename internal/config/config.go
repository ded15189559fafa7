package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Store backends
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	Port           string
	Environment    string
	StoreBackend   string // "mongo" or "memory"
	MongoURI       string // mongodb://host:port/dbname, replica set required for bulk deletes
	RedisURL       string // Optional: shares rate limit counters between replicas
	AdminSecret    string // Shared secret for the admin API; empty disables it
	AllowedOrigins string

	// DisplayLocation renders admin dates
	DisplayLocation *time.Location
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "3001"),
		Environment:     strings.ToLower(getEnv("ENVIRONMENT", "development")),
		StoreBackend:    strings.ToLower(getEnv("STORE_BACKEND", StoreMongo)),
		MongoURI:        getEnv("MONGODB_URI", ""),
		RedisURL:        getEnv("REDIS_URL", ""),
		AdminSecret:     getEnv("ADMIN_SECRET", ""),
		AllowedOrigins:  getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"),
		DisplayLocation: getLocationEnv("DISPLAY_TIMEZONE", time.UTC),
	}
}

// Validate reports configuration that cannot start the server
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required when STORE_BACKEND=%s", StoreMongo)
		}
	case StoreMemory:
		if c.IsProduction() {
			return fmt.Errorf("STORE_BACKEND=%s is not allowed in production", StoreMemory)
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

// IsProduction reports whether ENVIRONMENT=production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getLocationEnv(key string, defaultValue *time.Location) *time.Location {
	if value := os.Getenv(key); value != "" {
		loc, err := time.LoadLocation(value)
		if err == nil {
			return loc
		}
	}
	return defaultValue
}
