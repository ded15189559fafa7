package middleware

import (
	"crypto/subtle"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// AdminSecretHeader carries the shared admin secret
const AdminSecretHeader = "X-Admin-Secret"

// AdminMiddleware gates the moderation API behind a single shared secret.
// The secret is read from X-Admin-Secret or an "Authorization: Bearer" header.
// With an empty secret the admin API is disabled.
func AdminMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Admin access is not configured",
			})
		}

		provided := c.Get(AdminSecretHeader)
		if provided == "" {
			provided = strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		}
		if provided == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Admin secret required",
			})
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			log.Printf("🚫 [ADMIN] Rejected admin request from %s on %s", c.IP(), c.Path())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Invalid admin secret",
			})
		}

		c.Locals("is_admin", true)
		return c.Next()
	}
}
