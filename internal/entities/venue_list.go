package entities

// SkippedRecord is a backend record that could not be loaded.
type SkippedRecord struct {
	Index  int    `json:"index"`
	Code   string `json:"code,omitempty"`
	Reason string `json:"reason"`
}

// LoadWarning is data a loaded record lost on the way in.
type LoadWarning struct {
	Index   int    `json:"index"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type VenueList struct {
	Total    int             `json:"total"`
	Dirty    bool            `json:"dirty"`
	Skipped  []SkippedRecord `json:"skipped"`
	Warnings []LoadWarning   `json:"warnings"`
	Venues   []Venue         `json:"venues"`
}
