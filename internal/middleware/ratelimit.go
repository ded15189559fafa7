package middleware

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	// Editor API limits (per IP)
	APIMax        int
	APIExpiration time.Duration

	// Admin API limits (per IP) - bulk deletes and full scans are expensive
	AdminMax        int
	AdminExpiration time.Duration

	// Storage shares counters between replicas. Nil keeps them in memory.
	Storage fiber.Storage
}

// DefaultRateLimitConfig returns production-safe defaults
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		// Editor: 120/min = 2 req/sec, autosave included
		APIMax:        120,
		APIExpiration: 1 * time.Minute,

		// Admin: 30/min
		AdminMax:        30,
		AdminExpiration: 1 * time.Minute,
	}
}

// LoadRateLimitConfig loads config from environment variables with defaults
func LoadRateLimitConfig() *RateLimitConfig {
	config := DefaultRateLimitConfig()

	if v := os.Getenv("RATE_LIMIT_API"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.APIMax = n
		}
	}

	if v := os.Getenv("RATE_LIMIT_ADMIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.AdminMax = n
		}
	}

	// Development mode: more lenient limits
	if os.Getenv("ENVIRONMENT") == "development" {
		config.APIMax = 1000
		config.AdminMax = 200
		log.Println("⚠️  [RATE-LIMIT] Development mode: using relaxed rate limits")
	}

	return config
}

// APIRateLimiter limits the itinerary editor endpoints
func APIRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.APIMax,
		Expiration: config.APIExpiration,
		Storage:    config.Storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "api:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("🚫 [RATE-LIMIT] API limit reached for IP: %s", c.IP())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many requests. Please slow down.",
				"retry_after": int(config.APIExpiration.Seconds()),
			})
		},
	})
}

// AdminRateLimiter limits the moderation endpoints
func AdminRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.AdminMax,
		Expiration: config.AdminExpiration,
		Storage:    config.Storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "admin:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("⚠️  [RATE-LIMIT] Admin limit reached for IP: %s on %s", c.IP(), c.Path())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many admin requests. Please wait.",
				"retry_after": int(config.AdminExpiration.Seconds()),
			})
		},
	})
}
