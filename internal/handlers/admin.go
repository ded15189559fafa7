package handlers

import (
	"errors"
	"log"
	"time"

	"tripvault/internal/models"
	"tripvault/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler handles moderation operations
type AdminHandler struct {
	service  *services.AdminService
	location *time.Location
}

// NewAdminHandler creates a new admin handler. Dates are rendered in location.
func NewAdminHandler(service *services.AdminService, location *time.Location) *AdminHandler {
	return &AdminHandler{
		service:  service,
		location: location,
	}
}

// ListUsers returns every user with itineraries, most recently active first
// GET /api/admin/users
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	summaries, err := h.service.ListAllUsers(c.Context())
	if err != nil {
		// The listing is all or nothing
		log.Printf("❌ Admin list users failed: %v", err)
		status := fiber.StatusInternalServerError
		if errors.Is(err, services.ErrStoreUnavailable) {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{
			"error": "Failed to list users",
		})
	}

	return c.JSON(fiber.Map{
		"users": models.NewUserSummaryViews(summaries, h.location),
		"total": len(summaries),
	})
}

// GetUser returns one user's summary
// GET /api/admin/users/:username
func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	summary, err := h.service.GetUser(c.Context(), pathParam(c, "username"))
	if err != nil {
		return respondError(c, err, "Failed to load user data")
	}
	return c.JSON(models.NewUserSummaryView(*summary, h.location))
}

// GetItinerary lets an admin inspect one itinerary
// GET /api/admin/users/:username/itineraries/:fileId
func (h *AdminHandler) GetItinerary(c *fiber.Ctx) error {
	itinerary, err := h.service.InspectItinerary(c.Context(), pathParam(c, "username"), pathParam(c, "fileId"))
	if err != nil {
		return respondError(c, err, "Failed to load itinerary")
	}
	return c.JSON(itinerary)
}

// DeleteUser removes all of a user's itineraries atomically
// DELETE /api/admin/users/:username
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	username := pathParam(c, "username")

	deleted, err := h.service.DeleteUser(c.Context(), username)
	if err != nil {
		if errors.Is(err, services.ErrDeletionFailed) {
			log.Printf("❌ Admin delete of user %s failed, nothing removed: %v", username, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Failed to delete user data",
				"deleted": 0,
			})
		}
		return respondError(c, err, "Failed to delete user data")
	}

	log.Printf("🗑️  Admin deleted user %s (%d itineraries)", username, deleted)
	return c.JSON(fiber.Map{
		"username": username,
		"deleted":  deleted,
	})
}

// DeleteItinerary removes one itinerary of any user
// DELETE /api/admin/users/:username/itineraries/:fileId
func (h *AdminHandler) DeleteItinerary(c *fiber.Ctx) error {
	username := pathParam(c, "username")
	fileID := pathParam(c, "fileId")

	if err := h.service.DeleteItinerary(c.Context(), username, fileID); err != nil {
		return respondError(c, err, "Failed to delete itinerary")
	}

	log.Printf("🗑️  Admin deleted itinerary %s of user %s", fileID, username)
	return c.SendStatus(fiber.StatusNoContent)
}
