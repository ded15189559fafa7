package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	slog.SetDefault(New(os.Stdout, os.Getenv("ENVIRONMENT")))
}

// New builds the logger Init installs, writing to w.
func New(w io.Writer, environment string) *slog.Logger {
	var handler slog.Handler
	if strings.ToLower(environment) == "production" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}
	return slog.New(handler)
}

// WithUser returns a logger with the owning username attached.
// Use this for everything logged on behalf of one user partition.
func WithUser(username string) *slog.Logger {
	return slog.With("username", username)
}

// WithItinerary returns a logger scoped to a single itinerary document.
func WithItinerary(logger *slog.Logger, fileID string) *slog.Logger {
	return logger.With("file_id", fileID)
}
