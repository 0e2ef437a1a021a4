package domain

import (
	"context"
	"time"
)

type DirectoryRepository interface {
	// Businesses
	InsertBusiness(ctx context.Context, b Business) error
	GetBusiness(ctx context.Context, id string) (Business, error)
	ListBusinesses(ctx context.Context, q BusinessQuery) ([]Business, error)
	ListPlaceRefs(ctx context.Context) ([]PlaceRef, error)

	// First-party reviews
	InsertReview(ctx context.Context, r FirstPartyReview) error
	ListRecentReviews(ctx context.Context, businessID string, limit int) ([]FirstPartyReview, error)
	SetVendorResponse(ctx context.Context, businessID, reviewID, text string, at time.Time) error

	// External review cache
	ValidCachedReviews(ctx context.Context, businessID string, now time.Time, limit int) ([]CachedExternalReview, error)
	ReplaceCachedReviews(ctx context.Context, businessID string, rows []CachedExternalReview) error
	SetCachedReviewHidden(ctx context.Context, businessID, providerReviewID string, hidden bool) error

	// Import runs
	SaveImportRun(ctx context.Context, run ImportRun) error
}

type PlacesClient interface {
	PlaceReviews(ctx context.Context, placeID string) ([]PlaceReview, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
