package handlers

import (
	"tripvault/internal/models"
	"tripvault/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ItineraryHandler serves the itinerary editor
type ItineraryHandler struct {
	service *services.ItineraryService
}

// NewItineraryHandler creates a new itinerary handler
func NewItineraryHandler(service *services.ItineraryService) *ItineraryHandler {
	return &ItineraryHandler{service: service}
}

// ListFiles lists a user's itinerary files
// GET /api/users/:username/itineraries
func (h *ItineraryHandler) ListFiles(c *fiber.Ctx) error {
	username := pathParam(c, "username")

	files, err := h.service.ListFiles(c.Context(), username)
	if err != nil {
		return respondError(c, err, "Failed to load user data")
	}

	return c.JSON(models.ListFilesResponse{
		UserFolderID: username,
		Files:        files,
	})
}

// Get returns one itinerary
// GET /api/users/:username/itineraries/:fileId
func (h *ItineraryHandler) Get(c *fiber.Ctx) error {
	itinerary, err := h.service.Get(c.Context(), pathParam(c, "username"), pathParam(c, "fileId"))
	if err != nil {
		return respondError(c, err, "Failed to load itinerary")
	}
	return c.JSON(itinerary)
}

// Save creates or overwrites an itinerary
// POST /api/users/:username/itineraries
func (h *ItineraryHandler) Save(c *fiber.Ctx) error {
	var req models.SaveItineraryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Data == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "data is required",
		})
	}

	fileID, err := h.service.SaveItinerary(c.Context(), pathParam(c, "username"), &req)
	if err != nil {
		return respondError(c, err, "Failed to save itinerary")
	}

	return c.JSON(models.SaveItineraryResponse{FileID: fileID})
}

// Delete removes one itinerary; missing itineraries are not an error
// DELETE /api/users/:username/itineraries/:fileId
func (h *ItineraryHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), pathParam(c, "username"), pathParam(c, "fileId")); err != nil {
		return respondError(c, err, "Failed to delete itinerary")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
