package handlers

import "github.com/gofiber/fiber/v2"

// Routes wires the handlers onto an app. Limiters are optional.
type Routes struct {
	Itineraries  *ItineraryHandler
	Admin        *AdminHandler
	Health       *HealthHandler
	AdminGate    fiber.Handler
	APILimiter   fiber.Handler
	AdminLimiter fiber.Handler
}

// Register mounts every route on app
func (r *Routes) Register(app *fiber.App) {
	app.Get("/health", r.Health.Handle)

	users := app.Group("/api/users", withOptional(r.APILimiter)...)
	users.Get("/:username/itineraries", r.Itineraries.ListFiles)
	users.Post("/:username/itineraries", r.Itineraries.Save)
	users.Get("/:username/itineraries/:fileId", r.Itineraries.Get)
	users.Delete("/:username/itineraries/:fileId", r.Itineraries.Delete)

	admin := app.Group("/api/admin", append(withOptional(r.AdminLimiter), r.AdminGate)...)
	admin.Get("/users", r.Admin.ListUsers)
	admin.Get("/users/:username", r.Admin.GetUser)
	admin.Delete("/users/:username", r.Admin.DeleteUser)
	admin.Get("/users/:username/itineraries/:fileId", r.Admin.GetItinerary)
	admin.Delete("/users/:username/itineraries/:fileId", r.Admin.DeleteItinerary)
}

func withOptional(h fiber.Handler) []fiber.Handler {
	if h == nil {
		return nil
	}
	return []fiber.Handler{h}
}
