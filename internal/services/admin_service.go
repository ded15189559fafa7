package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"tripvault/internal/docstore"
	"tripvault/internal/logging"
	"tripvault/internal/models"
)

// AdminService builds the cross-user moderation view and removes user data.
type AdminService struct {
	store       docstore.Store
	itineraries *ItineraryService
	now         func() time.Time
}

// NewAdminService creates a new admin service
func NewAdminService(store docstore.Store, itineraries *ItineraryService) *AdminService {
	return &AdminService{
		store:       store,
		itineraries: itineraries,
		now:         time.Now,
	}
}

// summaryBuilder groups itinerary snapshots by owning user
type summaryBuilder struct {
	now   string
	users map[string]*models.UserSummary
}

func newSummaryBuilder(now string) *summaryBuilder {
	return &summaryBuilder{now: now, users: make(map[string]*models.UserSummary)}
}

// add folds one itinerary into its owner's summary. Snapshots without an
// owning document are not part of any user partition and are skipped.
func (b *summaryBuilder) add(snap *docstore.Snapshot) error {
	owner := snap.Ref.Owner()
	if owner == nil {
		return nil
	}

	var header models.ItineraryHeader
	if err := snap.DataTo(&header); err != nil {
		return err
	}
	updatedAt := header.UpdatedAt()
	if updatedAt == "" {
		updatedAt = b.now
	}

	summary, ok := b.users[owner.ID]
	if !ok {
		summary = &models.UserSummary{
			Username:    owner.ID,
			LastUpdated: updatedAt,
		}
		b.users[owner.ID] = summary
	}

	summary.ItineraryCount++
	summary.Itineraries = append(summary.Itineraries, models.ItineraryDescriptor{
		ID:        snap.Ref.ID,
		Name:      header.Title(snap.Ref.ID),
		UpdatedAt: updatedAt,
	})
	if updatedAt > summary.LastUpdated {
		summary.LastUpdated = updatedAt
	}
	return nil
}

// summaries returns users most recently active first
func (b *summaryBuilder) summaries() []models.UserSummary {
	out := make([]models.UserSummary, 0, len(b.users))
	for _, s := range b.users {
		sort.SliceStable(s.Itineraries, func(i, j int) bool {
			return s.Itineraries[i].UpdatedAt > s.Itineraries[j].UpdatedAt
		})
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastUpdated != out[j].LastUpdated {
			return out[i].LastUpdated > out[j].LastUpdated
		}
		return out[i].Username < out[j].Username
	})
	return out
}

// ListAllUsers summarises every user that owns at least one itinerary using a
// single collection group query. Any failure fails the whole listing.
func (s *AdminService) ListAllUsers(ctx context.Context) ([]models.UserSummary, error) {
	snaps, err := s.store.Query(ctx, docstore.CollectionGroup(CollectionItineraries))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAggregationFailed, err)
	}

	builder := newSummaryBuilder(s.now().UTC().Format(TimestampLayout))
	for _, snap := range snaps {
		if err := builder.add(snap); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrAggregationFailed, err)
		}
	}
	return builder.summaries(), nil
}

// GetUser summarises a single user partition. Returns ErrNotFound when the
// user has no itineraries.
func (s *AdminService) GetUser(ctx context.Context, username string) (*models.UserSummary, error) {
	coll, err := ItinerariesRef(username)
	if err != nil {
		return nil, err
	}

	snaps, err := s.store.List(ctx, coll)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAggregationFailed, err)
	}

	builder := newSummaryBuilder(s.now().UTC().Format(TimestampLayout))
	for _, snap := range snaps {
		if err := builder.add(snap); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrAggregationFailed, err)
		}
	}

	summaries := builder.summaries()
	if len(summaries) == 0 {
		return nil, fmt.Errorf("%w: user %s has no itineraries", ErrNotFound, username)
	}
	return &summaries[0], nil
}

// InspectItinerary returns one itinerary of any user
func (s *AdminService) InspectItinerary(ctx context.Context, username, fileID string) (*models.Itinerary, error) {
	return s.itineraries.Get(ctx, username, fileID)
}

// DeleteUser removes every itinerary of username in one atomic batch, then
// tries to remove the user's placeholder document. It returns how many
// itineraries were deleted. On ErrDeletionFailed nothing was removed.
func (s *AdminService) DeleteUser(ctx context.Context, username string) (int, error) {
	coll, err := ItinerariesRef(username)
	if err != nil {
		return 0, err
	}
	logger := logging.WithUser(username)

	snaps, err := s.store.List(ctx, coll)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDeletionFailed, err)
	}

	if len(snaps) > 0 {
		batch := s.store.Batch()
		for _, snap := range snaps {
			batch.Delete(snap.Ref)
		}
		if err := batch.Commit(ctx); err != nil {
			logger.Error("bulk delete failed, no itineraries removed", "itineraries", len(snaps), "error", err)
			return 0, fmt.Errorf("%w: %w", ErrDeletionFailed, err)
		}
	}

	// The placeholder may never have existed; its removal is best effort.
	if err := s.store.Delete(ctx, coll.Parent); err != nil && !errors.Is(err, docstore.ErrNotFound) {
		logger.Warn("failed to delete user placeholder document", "error", err)
	}

	logger.Info("user data deleted", "itineraries", len(snaps))
	return len(snaps), nil
}

// DeleteItinerary removes a single itinerary of any user
func (s *AdminService) DeleteItinerary(ctx context.Context, username, fileID string) error {
	return s.itineraries.Delete(ctx, username, fileID)
}
