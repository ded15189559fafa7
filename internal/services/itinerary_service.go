package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tripvault/internal/docstore"
	"tripvault/internal/logging"
	"tripvault/internal/models"
)

// Store layout: users/{username}/itineraries/{fileId}
const (
	CollectionUsers       = "users"
	CollectionItineraries = "itineraries"
)

// TimestampLayout is the format of updatedAt
const TimestampLayout = models.TimestampLayout

// UserRef returns the user's partition document, the optional placeholder.
func UserRef(username string) (*docstore.DocumentRef, error) {
	if username == "" || strings.Contains(username, "/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUsername, username)
	}
	return docstore.Collection(CollectionUsers).Doc(username), nil
}

// ItinerariesRef returns the collection holding a user's itineraries.
func ItinerariesRef(username string) (*docstore.CollectionRef, error) {
	user, err := UserRef(username)
	if err != nil {
		return nil, err
	}
	return user.Collection(CollectionItineraries), nil
}

// ItineraryRef returns the document of one itinerary.
func ItineraryRef(username, fileID string) (*docstore.DocumentRef, error) {
	coll, err := ItinerariesRef(username)
	if err != nil {
		return nil, err
	}
	if fileID == "" || strings.Contains(fileID, "/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFileID, fileID)
	}
	return coll.Doc(fileID), nil
}

// ResolveFileID picks the id a save is stored under. An existing id is reused
// as is; otherwise the file name minus a trailing ".json" is used.
func ResolveFileID(fileName, existingFileID string) (string, error) {
	if existingFileID != "" {
		return existingFileID, nil
	}
	id := strings.TrimSuffix(fileName, models.FileExtension)
	if id == "" {
		return "", fmt.Errorf("%w: file name %q", ErrInvalidFileID, fileName)
	}
	return id, nil
}

// ItineraryService is the per-user itinerary repository. It holds no state
// of its own and is safe for concurrent use.
type ItineraryService struct {
	store docstore.Store
	now   func() time.Time
}

// NewItineraryService creates a new itinerary service
func NewItineraryService(store docstore.Store) *ItineraryService {
	return &ItineraryService{
		store: store,
		now:   time.Now,
	}
}

func (s *ItineraryService) timestamp() string {
	return s.now().UTC().Format(TimestampLayout)
}

// ListFiles lists every itinerary in the user's partition
func (s *ItineraryService) ListFiles(ctx context.Context, username string) ([]models.FileEntry, error) {
	coll, err := ItinerariesRef(username)
	if err != nil {
		return nil, err
	}

	snaps, err := s.store.List(ctx, coll)
	if err != nil {
		return nil, fmt.Errorf("failed to list itineraries for %s: %w", username, err)
	}

	files := make([]models.FileEntry, 0, len(snaps))
	for _, snap := range snaps {
		files = append(files, models.FileEntry{
			ID:   snap.Ref.ID,
			Name: models.FileNameFor(snap.Ref.ID),
		})
	}
	return files, nil
}

// Load returns the day records of one itinerary
func (s *ItineraryService) Load(ctx context.Context, username, fileID string) ([]models.DayRecord, error) {
	itinerary, err := s.Get(ctx, username, fileID)
	if err != nil {
		return nil, err
	}
	return itinerary.Data, nil
}

// Get returns one itinerary with its metadata
func (s *ItineraryService) Get(ctx context.Context, username, fileID string) (*models.Itinerary, error) {
	ref, err := ItineraryRef(username, fileID)
	if err != nil {
		return nil, err
	}

	snap, err := s.store.Get(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to load itinerary %s: %w", ref.Path, err)
	}

	var doc models.StoredItinerary
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}
	data, err := doc.Days()
	if err != nil {
		return nil, fmt.Errorf("failed to read itinerary %s: %w", ref.Path, err)
	}

	return &models.Itinerary{
		ID:        fileID,
		Name:      models.FileNameFor(fileID),
		Title:     doc.Title(fileID),
		UpdatedAt: doc.UpdatedAt(),
		Data:      data,
	}, nil
}

// Save stores data under the resolved file id and returns that id. The
// document is replaced as a whole.
func (s *ItineraryService) Save(ctx context.Context, username string, data []models.DayRecord, fileName, existingFileID string) (string, error) {
	return s.SaveItinerary(ctx, username, &models.SaveItineraryRequest{
		Data:           data,
		FileName:       fileName,
		ExistingFileID: existingFileID,
	})
}

// SaveItinerary is Save with the optional display title
func (s *ItineraryService) SaveItinerary(ctx context.Context, username string, req *models.SaveItineraryRequest) (string, error) {
	fileID, err := ResolveFileID(req.FileName, req.ExistingFileID)
	if err != nil {
		return "", err
	}
	ref, err := ItineraryRef(username, fileID)
	if err != nil {
		return "", err
	}

	doc := models.ItineraryDocument{
		Data:      make([]string, 0, len(req.Data)),
		UpdatedAt: s.timestamp(),
	}
	for i, day := range req.Data {
		if !json.Valid(day) {
			return "", fmt.Errorf("%w: day %d is not valid JSON", ErrInvalidPayload, i)
		}
		doc.Data = append(doc.Data, string(day))
	}
	if req.Title != "" {
		doc.Metadata = &models.ItineraryMetadata{Title: req.Title}
	}

	if err := s.store.Set(ctx, ref, doc); err != nil {
		return "", fmt.Errorf("failed to save itinerary %s: %w", ref.Path, err)
	}

	logging.WithItinerary(logging.WithUser(username), fileID).Debug("itinerary saved", "days", len(doc.Data))
	return fileID, nil
}

// Delete removes one itinerary. Deleting a missing itinerary succeeds.
func (s *ItineraryService) Delete(ctx context.Context, username, fileID string) error {
	ref, err := ItineraryRef(username, fileID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, ref); err != nil {
		return fmt.Errorf("failed to delete itinerary %s: %w", ref.Path, err)
	}
	return nil
}
