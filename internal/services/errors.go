package services

import (
	"errors"

	"tripvault/internal/docstore"
)

var (
	// ErrNotFound means the requested itinerary (or user) does not exist.
	ErrNotFound = docstore.ErrNotFound

	// ErrStoreUnavailable marks transient store and network failures. They are
	// never retried here.
	ErrStoreUnavailable = docstore.ErrUnavailable

	// ErrAggregationFailed means the admin listing could not be built. No
	// partial listing is ever returned alongside it.
	ErrAggregationFailed = errors.New("failed to aggregate user summaries")

	// ErrDeletionFailed means a user's bulk delete did not commit. None of the
	// user's itineraries were removed.
	ErrDeletionFailed = errors.New("failed to delete user data")

	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidFileID   = errors.New("invalid file id")
	ErrInvalidPayload  = errors.New("invalid itinerary payload")
)
