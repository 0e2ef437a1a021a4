package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/amandagilmer/Rental-Directory-sub002/internal/adapters/observability"
	"github.com/amandagilmer/Rental-Directory-sub002/internal/app"
	"github.com/amandagilmer/Rental-Directory-sub002/internal/domain"
)

type Handlers struct {
	Q *app.QueryService
	R *app.ReviewService
	I *app.ImportService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/businesses", h.listBusinesses)
	s.mux.Get("/v1/businesses/{id}", h.getBusiness)
	s.mux.Get("/v1/businesses/{id}/reviews", h.getReviews)
	s.mux.Post("/v1/businesses/{id}/reviews", h.createReview)
	s.mux.Post("/v1/businesses/{id}/reviews/{reviewID}/response", h.respondToReview)
	s.mux.Get("/v1/internal/review-cache", h.reviewCache)
	s.mux.Post("/v1/imports", h.runImport)
	s.mux.Post("/v1/admin/review-cache/{businessID}/{reviewID}/hide", h.hideCachedReview)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// ---- wire shapes ----

type businessJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Phone     *string   `json:"phone,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Address   *string   `json:"address,omitempty"`
	City      *string   `json:"city,omitempty"`
	State     *string   `json:"state,omitempty"`
	Zip       *string   `json:"zip,omitempty"`
	PlaceID   *string   `json:"place_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toBusinessJSON(b domain.Business) businessJSON {
	return businessJSON{
		ID: b.ID, Name: b.Name, Category: b.Category,
		Phone: b.Phone, Email: b.Email, Address: b.Address,
		City: b.City, State: b.State, Zip: b.Zip,
		PlaceID: b.PlaceID, CreatedAt: b.CreatedAt,
	}
}

type reviewJSON struct {
	ID               string     `json:"id"`
	Author           string     `json:"author"`
	Rating           int        `json:"rating"`
	ReviewText       *string    `json:"review_text"`
	Date             time.Time  `json:"date"`
	VendorResponse   *string    `json:"vendor_response,omitempty"`
	VendorResponseAt *time.Time `json:"vendor_response_at,omitempty"`
}

type decisionJSON struct {
	Reviews []reviewJSON `json:"reviews"`
	Source  string       `json:"source"`
}

func toDecisionJSON(d domain.ReviewSourceDecision) decisionJSON {
	out := decisionJSON{Source: string(d.Source), Reviews: make([]reviewJSON, 0, len(d.Reviews))}
	for _, rv := range d.Reviews {
		out.Reviews = append(out.Reviews, reviewJSON{
			ID:               rv.ID,
			Author:           rv.Author,
			Rating:           rv.Rating,
			ReviewText:       rv.Text,
			Date:             rv.Date,
			VendorResponse:   rv.VendorResponse,
			VendorResponseAt: rv.VendorRespondedAt,
		})
	}
	return out
}

type cachedReviewJSON struct {
	BusinessID  string     `json:"business_id"`
	ReviewID    string     `json:"review_id"`
	Author      string     `json:"author"`
	Rating      int        `json:"rating"`
	ReviewText  *string    `json:"review_text,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	FetchedAt   time.Time  `json:"fetched_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	AdminHidden bool       `json:"admin_hidden"`
}

// ---- directory reads ----

func (h *Handlers) getBusiness(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, err := h.Q.GetBusiness(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "business not found")
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	etag, body := calcETagAndBody(toBusinessJSON(b))
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write getBusiness body")
	}
}

func (h *Handlers) listBusinesses(w http.ResponseWriter, r *http.Request) {
	q := domain.BusinessQuery{Limit: 50}
	if v := strings.TrimSpace(r.URL.Query().Get("q")); v != "" {
		q.Q = &v
	}
	if v := strings.TrimSpace(r.URL.Query().Get("category")); v != "" {
		q.Category = &v
	}
	if v := strings.TrimSpace(r.URL.Query().Get("city")); v != "" {
		q.City = &v
	}
	if v := strings.TrimSpace(r.URL.Query().Get("state")); v != "" {
		q.State = &v
	}

	bs, err := h.Q.ListBusinesses(r.Context(), q)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]businessJSON, 0, len(bs))
	for _, b := range bs {
		out = append(out, toBusinessJSON(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"businesses": out})
}

// ---- review reconciliation ----

// getReviews never fails: review display is best-effort page content, so
// every internal failure has already been degraded to a smaller decision.
func (h *Handlers) getReviews(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	placeID := r.URL.Query().Get("place_id")

	d := h.R.ResolveReviews(r.Context(), id, placeID)
	observability.ObserveDecision(string(d.Source))
	writeJSON(w, http.StatusOK, toDecisionJSON(d))
}

func (h *Handlers) reviewCache(w http.ResponseWriter, r *http.Request) {
	businessID := r.URL.Query().Get("business_id")
	if businessID == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid request", "business_id is required")
		return
	}
	placeID := r.URL.Query().Get("place_id")

	rows, src, err := h.R.LookupExternal(r.Context(), businessID, placeID)
	resp := struct {
		Reviews []cachedReviewJSON `json:"reviews"`
		Source  string             `json:"source"`
		Message string             `json:"message,omitempty"`
	}{
		Reviews: make([]cachedReviewJSON, 0, len(rows)),
		Source:  string(src),
	}
	if err != nil {
		resp.Message = err.Error()
	}
	for _, cr := range rows {
		resp.Reviews = append(resp.Reviews, cachedReviewJSON{
			BusinessID:  cr.BusinessID,
			ReviewID:    cr.ProviderReviewID,
			Author:      cr.AuthorName,
			Rating:      cr.Rating,
			ReviewText:  cr.Text,
			Date:        cr.PostedAt,
			FetchedAt:   cr.FetchedAt,
			ExpiresAt:   cr.ExpiresAt,
			AdminHidden: cr.AdminHidden,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ---- review writes ----

func (h *Handlers) createReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var in struct {
		Author       string  `json:"author"`
		AuthorEmail  *string `json:"author_email"`
		Rating       int     `json:"rating"`
		ReviewText   *string `json:"review_text"`
		ShowInitials bool    `json:"show_initials"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid request", "malformed JSON body")
		return
	}
	if strings.TrimSpace(in.Author) == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid request", "author is required")
		return
	}

	rv, err := h.R.SubmitReview(r.Context(), id, app.ReviewSubmission{
		AuthorName:   strings.TrimSpace(in.Author),
		AuthorEmail:  in.AuthorEmail,
		Rating:       in.Rating,
		Text:         in.ReviewText,
		ShowInitials: in.ShowInitials,
	})
	switch {
	case errors.Is(err, domain.ErrInvalidRating):
		writeProblem(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "business not found")
		return
	case err != nil:
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	writeJSON(w, http.StatusCreated, reviewJSON{
		ID:         rv.ID,
		Author:     rv.AuthorName,
		Rating:     rv.Rating,
		ReviewText: rv.Text,
		Date:       rv.CreatedAt,
	})
}

func (h *Handlers) respondToReview(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "id")
	reviewID := chi.URLParam(r, "reviewID")

	var in struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || strings.TrimSpace(in.Response) == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid request", "response is required")
		return
	}

	if err := h.R.RespondToReview(r.Context(), businessID, reviewID, strings.TrimSpace(in.Response)); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "review not found")
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- bulk import ----

func (h *Handlers) runImport(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ImportID string `json:"importId"`
		Rows     []struct {
			BusinessName string  `json:"business_name"`
			Category     string  `json:"category"`
			Phone        *string `json:"phone"`
			Email        *string `json:"email"`
			Address      *string `json:"address"`
			City         *string `json:"city"`
			State        *string `json:"state"`
			Zip          *string `json:"zip"`
			PlaceID      *string `json:"place_id"`
		} `json:"rows"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid request", "malformed JSON body")
		return
	}
	if strings.TrimSpace(in.ImportID) == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid request", "importId is required")
		return
	}

	rows := make([]domain.ImportRow, 0, len(in.Rows))
	for _, row := range in.Rows {
		rows = append(rows, domain.ImportRow{
			BusinessName: row.BusinessName,
			Category:     row.Category,
			Phone:        row.Phone,
			Email:        row.Email,
			Address:      row.Address,
			City:         row.City,
			State:        row.State,
			Zip:          row.Zip,
			PlaceID:      row.PlaceID,
		})
	}

	res := h.I.ProcessBatch(r.Context(), rows, in.ImportID)
	rowErrs := make([]map[string]any, 0, len(res.Errors))
	for _, re := range res.Errors {
		rowErrs = append(rowErrs, map[string]any{"row": re.Row, "error": re.Error})
	}
	// The batch always succeeds at the transport level, even if every row
	// failed business validation.
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"results": map[string]any{
			"successful": res.Successful,
			"failed":     res.Failed,
			"errors":     rowErrs,
		},
	})
}

// ---- admin ----

func (h *Handlers) hideCachedReview(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "businessID")
	reviewID := chi.URLParam(r, "reviewID")

	var in struct {
		Hidden bool `json:"hidden"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid request", "malformed JSON body")
		return
	}

	if err := h.R.HideCachedReview(r.Context(), businessID, reviewID, in.Hidden); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "cached review not found")
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
