package entities

// Venue is one restaurant location and its reservation configuration, with all
// times in display format.
type Venue struct {
	Code                 string           `json:"code"`
	Name                 string           `json:"name"`
	Address              string           `json:"address"`
	Image                string           `json:"image,omitempty"`
	ReservationStart     string           `json:"reservation_start"`
	ReservationEnd       string           `json:"reservation_end"`
	ServiceUntil         string           `json:"service_until"`
	MaxPartySize         int              `json:"max_party_size"`
	MaxDailyReservations int              `json:"max_daily_reservations"`
	AvailableWeekdays    []string         `json:"available_weekdays"`
	BlockedDates         []BlockException `json:"blocked_dates"`
}

func (v Venue) Clone() Venue {
	out := v
	out.AvailableWeekdays = append([]string(nil), v.AvailableWeekdays...)
	out.BlockedDates = make([]BlockException, len(v.BlockedDates))
	for i, b := range v.BlockedDates {
		out.BlockedDates[i] = b.Clone()
	}
	return out
}
