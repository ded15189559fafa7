package handlers

import (
	"errors"
	"log"
	"net/url"

	"tripvault/internal/docstore"
	"tripvault/internal/services"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidUsername),
		errors.Is(err, services.ErrInvalidFileID),
		errors.Is(err, services.ErrInvalidPayload),
		errors.Is(err, docstore.ErrInvalidPath):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrStoreUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError logs server side failures and writes a JSON error. Client
// errors echo the validation message; everything else uses fallback.
func respondError(c *fiber.Ctx, err error, fallback string) error {
	status := statusFor(err)
	msg := fallback
	switch status {
	case fiber.StatusBadRequest:
		msg = err.Error()
	case fiber.StatusNotFound:
		msg = "Not found"
	default:
		log.Printf("❌ %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

// pathParam returns a decoded route parameter
func pathParam(c *fiber.Ctx, name string) string {
	raw := c.Params(name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
