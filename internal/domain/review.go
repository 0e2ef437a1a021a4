package domain

import "time"

// FirstPartyReview is a review submitted through the platform by a renter.
// Append-only; the owning business may attach a vendor response later.
type FirstPartyReview struct {
	ID                string
	BusinessID        string
	AuthorName        string
	AuthorEmail       *string
	Rating            int // 1..5
	Text              *string
	ShowInitials      bool
	VendorResponse    *string
	VendorRespondedAt *time.Time
	CreatedAt         time.Time
}

// CachedExternalReview is a provider review mirrored into the local cache.
// Rows for a business are replaced wholesale on refresh, never merged.
type CachedExternalReview struct {
	BusinessID       string
	ProviderReviewID string
	AuthorName       string
	Rating           int
	Text             *string
	PostedAt         *time.Time
	FetchedAt        time.Time
	ExpiresAt        time.Time
	AdminHidden      bool
}

// PlaceReview is a review as returned by the external provider.
type PlaceReview struct {
	ID       string
	Author   string
	Rating   int
	Text     string
	PostedAt *time.Time
}

// Source tags which review set a decision presents. The constant values are
// the wire tags the API emits.
type Source string

const (
	SourceFirstParty Source = "user"
	SourceExternal   Source = "google"
	SourceNone       Source = "none"
)

// CacheSource tags how a cache lookup was satisfied.
type CacheSource string

const (
	CacheSourceCache CacheSource = "cache"
	CacheSourceLive  CacheSource = "google"
	CacheSourceNone  CacheSource = "none"
	CacheSourceError CacheSource = "error"
)

// DisplayReview is the presentation shape shared by both review sources.
type DisplayReview struct {
	ID                string
	Author            string
	Rating            int
	Text              *string
	Date              time.Time
	VendorResponse    *string
	VendorRespondedAt *time.Time
}

// ReviewSourceDecision is computed fresh on every read; never persisted.
type ReviewSourceDecision struct {
	Source  Source
	Reviews []DisplayReview
}
