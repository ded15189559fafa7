package middleware

import (
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func newAdminApp(secret string) *fiber.App {
	app := fiber.New()
	app.Use(AdminMiddleware(secret))
	app.Get("/admin", func(c *fiber.Ctx) error {
		if c.Locals("is_admin") != true {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString("ok")
	})
	return app
}

func TestAdminMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		header string
		value  string
		want   int
	}{
		{"disabled", "", AdminSecretHeader, "anything", fiber.StatusServiceUnavailable},
		{"missing", "s3cret", "", "", fiber.StatusUnauthorized},
		{"wrong", "s3cret", AdminSecretHeader, "guess", fiber.StatusForbidden},
		{"header", "s3cret", AdminSecretHeader, "s3cret", fiber.StatusOK},
		{"bearer", "s3cret", fiber.HeaderAuthorization, "Bearer s3cret", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newAdminApp(tt.secret)
			req := httptest.NewRequest("GET", "/admin", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("Failed to send request: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestAPIRateLimiter(t *testing.T) {
	app := fiber.New()
	app.Use(APIRateLimiter(&RateLimitConfig{APIMax: 2, APIExpiration: time.Minute}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		if err != nil {
			t.Fatalf("Failed to send request: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("Request %d: expected 200, got %d", i, resp.StatusCode)
		}
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("Failed to send request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", resp.StatusCode)
	}
}

func TestLoadRateLimitConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_API", "42")
	t.Setenv("RATE_LIMIT_ADMIN", "-1")
	t.Setenv("ENVIRONMENT", "production")

	config := LoadRateLimitConfig()
	if config.APIMax != 42 {
		t.Errorf("Expected APIMax 42, got %d", config.APIMax)
	}
	if config.AdminMax != DefaultRateLimitConfig().AdminMax {
		t.Errorf("Invalid override should keep default, got %d", config.AdminMax)
	}
}

func TestRedisStorage_EmptyKeys(t *testing.T) {
	// Unroutable address: these calls must not reach the network
	storage := NewRedisStorageFromClient(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}))
	defer storage.Close()

	val, err := storage.Get("")
	if err != nil || val != nil {
		t.Errorf("Expected nil, nil for empty key, got %v, %v", val, err)
	}
	if err := storage.Set("", []byte("x"), time.Second); err != nil {
		t.Errorf("Expected no-op Set, got %v", err)
	}
	if err := storage.Delete(""); err != nil {
		t.Errorf("Expected no-op Delete, got %v", err)
	}
}

func TestRedisStorage_Integration(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}

	storage, err := NewRedisStorage(url)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer storage.Close()
	defer storage.Reset()

	if err := storage.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, err := storage.Get("k")
	if err != nil || string(val) != "v" {
		t.Fatalf("Get returned %q, %v", val, err)
	}
	if err := storage.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	val, err = storage.Get("k")
	if err != nil || val != nil {
		t.Errorf("Expected missing key, got %q, %v", val, err)
	}
}
