package entities

type WeekdayOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// OptionsResponse is everything the panel needs to render its selectors.
type OptionsResponse struct {
	Times                []string        `json:"times"`
	Weekdays             []WeekdayOption `json:"weekdays"`
	MaxPartySize         Range           `json:"max_party_size"`
	MaxDailyReservations Range           `json:"max_daily_reservations"`
}
