package entities

import "time"

// SaveSummary is one row of the save history.
type SaveSummary struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	VenueCount   int       `json:"venue_count"`
	BlockedCount int       `json:"blocked_count"`
	CreatedAt    time.Time `json:"created_at"`
}
