package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/amandagilmer/Rental-Directory-sub002/internal/domain"
)

// ReviewService owns the review source decision for a business: first-party
// reviews when any exist, cached provider reviews as the zero-first-party
// fallback, and the refresh of that cache.
type ReviewService struct {
	repo    domain.DirectoryRepository
	places  domain.PlacesClient // nil when no provider is configured
	ttl     time.Duration       // expiry stamp for freshly cached provider reviews
	extCap  int                 // max cached/displayed provider reviews
	fpLimit int                 // first-party reviews shown per business
	sf      singleflight.Group  // coalesces concurrent refreshes per business
}

func NewReviewService(r domain.DirectoryRepository, p domain.PlacesClient, ttl time.Duration, extCap, fpLimit int) *ReviewService {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	if extCap <= 0 {
		extCap = 3
	}
	if fpLimit <= 0 {
		fpLimit = 5
	}
	return &ReviewService{repo: r, places: p, ttl: ttl, extCap: extCap, fpLimit: fpLimit}
}

// ResolveReviews decides which review set to present for a business.
// Priority: first-party reviews whenever any exist (no blending), cached or
// freshly fetched provider reviews only at exactly zero first-party reviews,
// otherwise none. Never returns an error: review display is best-effort
// content and every failure degrades to an emptier decision.
func (s *ReviewService) ResolveReviews(ctx context.Context, businessID, placeRef string) domain.ReviewSourceDecision {
	// Cache rows are keyed by business id, so an unknown id must never reach
	// the provider or seed cache rows.
	if _, err := s.repo.GetBusiness(ctx, businessID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ReviewSourceDecision{Source: domain.SourceNone, Reviews: []domain.DisplayReview{}}
		}
		log.Warn().Err(err).Str("business_id", businessID).Msg("business read failed; continuing")
	}

	first, err := s.repo.ListRecentReviews(ctx, businessID, s.fpLimit)
	if err != nil {
		log.Warn().Err(err).Str("business_id", businessID).Msg("first-party review read failed; treating as empty")
		first = nil
	}

	if len(first) >= s.fpLimit {
		// Full display capacity: the provider is not consulted at all.
		return domain.ReviewSourceDecision{
			Source:  domain.SourceFirstParty,
			Reviews: mapFirstParty(first[:s.fpLimit]),
		}
	}

	if len(first) > 0 {
		// Having any first-party reviews suppresses external display, but the
		// cache is still warmed as a side effect for the zero-review case.
		if _, _, err := s.LookupExternal(ctx, businessID, placeRef); err != nil {
			log.Debug().Err(err).Str("business_id", businessID).Msg("external prefetch failed")
		}
		return domain.ReviewSourceDecision{
			Source:  domain.SourceFirstParty,
			Reviews: mapFirstParty(first),
		}
	}

	ext, _, err := s.LookupExternal(ctx, businessID, placeRef)
	if err != nil {
		log.Warn().Err(err).Str("business_id", businessID).Msg("external review lookup failed; degrading to none")
	}
	// Hidden rows count toward cache presence but never reach the page.
	visible := visibleCached(ext)
	if len(visible) > 0 {
		if len(visible) > s.extCap {
			visible = visible[:s.extCap]
		}
		return domain.ReviewSourceDecision{
			Source:  domain.SourceExternal,
			Reviews: mapCached(visible),
		}
	}
	return domain.ReviewSourceDecision{Source: domain.SourceNone, Reviews: []domain.DisplayReview{}}
}

// LookupExternal returns up to cap valid cached provider reviews for a
// business, refreshing through the provider on a miss. The source tag makes
// the fail-open branches explicit: cache (valid rows, no network), google
// (fresh fetch), none (no ref or zero reviews), error (provider failure,
// cache untouched).
func (s *ReviewService) LookupExternal(ctx context.Context, businessID, placeRef string) ([]domain.CachedExternalReview, domain.CacheSource, error) {
	rows, err := s.repo.ValidCachedReviews(ctx, businessID, time.Now().UTC(), s.extCap)
	if err != nil {
		log.Warn().Err(err).Str("business_id", businessID).Msg("cache read failed; treating as miss")
		rows = nil
	}
	if len(rows) > 0 {
		return rows, domain.CacheSourceCache, nil
	}
	if placeRef == "" || s.places == nil {
		return nil, domain.CacheSourceNone, nil
	}

	// Concurrent misses for the same business within this process share one
	// provider call. Across processes the swap stays last-writer-wins.
	v, err, _ := s.sf.Do(businessID, func() (any, error) {
		return s.refresh(ctx, businessID, placeRef)
	})
	if err != nil {
		return nil, domain.CacheSourceError, err
	}
	fresh := v.([]domain.CachedExternalReview)
	if len(fresh) == 0 {
		return nil, domain.CacheSourceNone, nil
	}
	return fresh, domain.CacheSourceLive, nil
}

func (s *ReviewService) refresh(ctx context.Context, businessID, placeRef string) ([]domain.CachedExternalReview, error) {
	fetched, err := s.places.PlaceReviews(ctx, placeRef)
	if err != nil {
		// Provider failure leaves the cache untouched.
		return nil, err
	}
	if len(fetched) > s.extCap {
		fetched = fetched[:s.extCap]
	}
	now := time.Now().UTC()
	rows := mapPlaceReviews(businessID, fetched, now, now.Add(s.ttl))
	if err := s.repo.ReplaceCachedReviews(ctx, businessID, rows); err != nil {
		log.Warn().Err(err).Str("business_id", businessID).Msg("cache swap failed; serving fetched reviews uncached")
	}
	sortCachedByRating(rows)
	return rows, nil
}

// WarmExternal refreshes a business's provider review cache if stale; used by
// the warmer CLI.
func (s *ReviewService) WarmExternal(ctx context.Context, businessID, placeRef string) error {
	_, _, err := s.LookupExternal(ctx, businessID, placeRef)
	return err
}

// ReviewSubmission is the renter-facing write shape.
type ReviewSubmission struct {
	AuthorName   string
	AuthorEmail  *string
	Rating       int
	Text         *string
	ShowInitials bool
}

func (s *ReviewService) SubmitReview(ctx context.Context, businessID string, in ReviewSubmission) (domain.FirstPartyReview, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return domain.FirstPartyReview{}, domain.ErrInvalidRating
	}
	if _, err := s.repo.GetBusiness(ctx, businessID); err != nil {
		return domain.FirstPartyReview{}, err
	}
	rv := domain.FirstPartyReview{
		ID:           uuid.NewString(),
		BusinessID:   businessID,
		AuthorName:   in.AuthorName,
		AuthorEmail:  in.AuthorEmail,
		Rating:       in.Rating,
		Text:         in.Text,
		ShowInitials: in.ShowInitials,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.InsertReview(ctx, rv); err != nil {
		return domain.FirstPartyReview{}, err
	}
	return rv, nil
}

func (s *ReviewService) RespondToReview(ctx context.Context, businessID, reviewID, text string) error {
	return s.repo.SetVendorResponse(ctx, businessID, reviewID, text, time.Now().UTC())
}

func (s *ReviewService) HideCachedReview(ctx context.Context, businessID, providerReviewID string, hidden bool) error {
	return s.repo.SetCachedReviewHidden(ctx, businessID, providerReviewID, hidden)
}
