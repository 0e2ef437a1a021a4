package app

import (
	"sort"
	"strings"
	"time"

	"github.com/amandagilmer/Rental-Directory-sub002/internal/domain"
)

func mapFirstParty(in []domain.FirstPartyReview) []domain.DisplayReview {
	out := make([]domain.DisplayReview, 0, len(in))
	for _, rv := range in {
		out = append(out, domain.DisplayReview{
			ID:                rv.ID,
			Author:            displayName(rv.AuthorName, rv.ShowInitials),
			Rating:            rv.Rating,
			Text:              rv.Text,
			Date:              rv.CreatedAt,
			VendorResponse:    rv.VendorResponse,
			VendorRespondedAt: rv.VendorRespondedAt,
		})
	}
	return out
}

func mapCached(in []domain.CachedExternalReview) []domain.DisplayReview {
	out := make([]domain.DisplayReview, 0, len(in))
	for _, cr := range in {
		date := cr.FetchedAt
		if cr.PostedAt != nil {
			date = *cr.PostedAt
		}
		out = append(out, domain.DisplayReview{
			ID:     cr.ProviderReviewID,
			Author: cr.AuthorName,
			Rating: cr.Rating,
			Text:   cr.Text,
			Date:   date,
		})
	}
	return out
}

func mapPlaceReviews(businessID string, in []domain.PlaceReview, fetchedAt, expiresAt time.Time) []domain.CachedExternalReview {
	out := make([]domain.CachedExternalReview, 0, len(in))
	for _, pr := range in {
		var text *string
		if pr.Text != "" {
			t := pr.Text
			text = &t
		}
		out = append(out, domain.CachedExternalReview{
			BusinessID:       businessID,
			ProviderReviewID: pr.ID,
			AuthorName:       pr.Author,
			Rating:           clampRating(pr.Rating),
			Text:             text,
			PostedAt:         pr.PostedAt,
			FetchedAt:        fetchedAt,
			ExpiresAt:        expiresAt,
		})
	}
	return out
}

// visibleCached drops admin-hidden rows; relative order is preserved.
func visibleCached(in []domain.CachedExternalReview) []domain.CachedExternalReview {
	var out []domain.CachedExternalReview
	for _, cr := range in {
		if cr.AdminHidden {
			continue
		}
		out = append(out, cr)
	}
	return out
}

func sortCachedByRating(rows []domain.CachedExternalReview) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Rating > rows[j].Rating })
}

func clampRating(n int) int {
	if n < 1 {
		return 1
	}
	if n > 5 {
		return 5
	}
	return n
}

// displayName renders "Johnathan Doe" as "Johnathan D." when the reviewer
// asked to be shown by initials.
func displayName(full string, initials bool) string {
	if !initials {
		return full
	}
	parts := strings.Fields(full)
	if len(parts) < 2 {
		return full
	}
	last := []rune(parts[len(parts)-1])
	return parts[0] + " " + string(last[:1]) + "."
}
