package domain

import "time"

type Business struct {
	ID        string
	Name      string
	Category  string
	Phone     *string
	Email     *string
	Address   *string
	City      *string
	State     *string
	Zip       *string
	PlaceID   *string // external provider place reference, when the operator linked one
	CreatedAt time.Time
	UpdatedAt time.Time
}

type BusinessQuery struct {
	Q        *string
	Category *string
	City     *string
	State    *string
	Limit    int
}

// PlaceRef pairs a business with its provider place reference; used by the
// cache warmer to enumerate refreshable businesses.
type PlaceRef struct {
	BusinessID string
	PlaceID    string
}

type ImportRow struct {
	BusinessName string
	Category     string
	Phone        *string
	Email        *string
	Address      *string
	City         *string
	State        *string
	Zip          *string
	PlaceID      *string
}

type ImportRowError struct {
	Row   int // 1-indexed, as reported to the user
	Error string
}

type ImportRun struct {
	ID         string
	Total      int
	Successful int
	Failed     int
	Errors     []ImportRowError
	Status     string // completed | completed_with_errors
	CreatedAt  time.Time
}

const (
	ImportStatusCompleted  = "completed"
	ImportStatusWithErrors = "completed_with_errors"
)
