package places

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/amandagilmer/Rental-Directory-sub002/internal/adapters/observability"
	"github.com/amandagilmer/Rental-Directory-sub002/internal/domain"
)

// Client talks to the Google Places details API. Calls are rate limited
// client-side and carry a bounded timeout so a slow provider degrades to the
// caller's fail-open path instead of hanging a request.
type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 10 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

var (
	ErrNotFound     = errors.New("places: place not found")
	ErrUnauthorized = errors.New("places: request denied")
	ErrOverLimit    = errors.New("places: over query limit")
)

// detailsEnvelope is the provider's response shape for a details lookup
// restricted to the reviews field.
type detailsEnvelope struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Result       struct {
		Reviews []struct {
			AuthorName string `json:"author_name"`
			Rating     int    `json:"rating"`
			Text       string `json:"text"`
			Time       int64  `json:"time"` // unix seconds
		} `json:"reviews"`
	} `json:"result"`
}

// PlaceReviews fetches the provider's review set for a place. The provider
// returns at most five reviews, pre-selected by its own relevance/rating
// ranking; callers cap and order for display.
func (c *Client) PlaceReviews(ctx context.Context, placeID string) ([]domain.PlaceReview, error) {
	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("fields", "reviews")
	q.Set("key", c.key)
	u := fmt.Sprintf("%s/place/details/json?%s", c.base, q.Encode())

	var env detailsEnvelope
	err := c.get(ctx, u, &env)
	observability.ObserveProvider(err)
	if err != nil {
		return nil, err
	}

	switch env.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, nil
	case "NOT_FOUND", "INVALID_REQUEST":
		return nil, ErrNotFound
	case "REQUEST_DENIED":
		return nil, ErrUnauthorized
	case "OVER_QUERY_LIMIT":
		return nil, ErrOverLimit
	default:
		return nil, fmt.Errorf("places: status %s: %s", env.Status, env.ErrorMessage)
	}

	out := make([]domain.PlaceReview, 0, len(env.Result.Reviews))
	for i, rv := range env.Result.Reviews {
		pr := domain.PlaceReview{
			// The details endpoint does not expose a review id; synthesize a
			// stable one from the place and position so cache rows have a key.
			ID:     fmt.Sprintf("%s:%d", placeID, i),
			Author: rv.AuthorName,
			Rating: rv.Rating,
			Text:   rv.Text,
		}
		if rv.Time > 0 {
			t := time.Unix(rv.Time, 0).UTC()
			pr.PostedAt = &t
		}
		out = append(out, pr)
	}
	return out, nil
}

// get performs a GET with client-side rate limiting, retries, and JSON decode
// into out. Retries on 429 and transient 5xx, honoring Retry-After.
func (c *Client) get(ctx context.Context, u string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "patriot-hauls/1.0")

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("places: remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("places: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles each attempt (200ms, 400ms, 800ms...) with up to +50%
// jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
