package availability

import (
	"fmt"
	"strings"

	"puntoazul/internal/entities"
	"puntoazul/internal/schedule"
	"puntoazul/internal/utils"
)

const (
	MinPartySize         = 1
	MaxPartySize         = 50
	MinDailyReservations = 1
	MaxDailyReservations = 100
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// FieldIssue is one advisory finding about a venue. Errors block a save, warnings do not.
type FieldIssue struct {
	Field    string   `json:"field"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func ValidateVenue(v entities.Venue) []FieldIssue {
	var issues []FieldIssue
	fail := func(field, format string, args ...any) {
		issues = append(issues, FieldIssue{Field: field, Severity: SeverityError, Message: fmt.Sprintf(format, args...)})
	}
	warn := func(field, format string, args ...any) {
		issues = append(issues, FieldIssue{Field: field, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(v.Name) == "" {
		fail(string(FieldName), "name is required")
	}
	if v.MaxPartySize < MinPartySize || v.MaxPartySize > MaxPartySize {
		fail(string(FieldMaxPartySize), "must be between %d and %d", MinPartySize, MaxPartySize)
	}
	if v.MaxDailyReservations < MinDailyReservations || v.MaxDailyReservations > MaxDailyReservations {
		fail(string(FieldMaxDailyReservations), "must be between %d and %d", MinDailyReservations, MaxDailyReservations)
	}

	for _, h := range schedule.ValidateVenueHours(v.ReservationStart, v.ReservationEnd, v.ServiceUntil) {
		fail(h.Field, "%s", h.Message)
	}
	times := []struct {
		field Field
		value string
	}{
		{FieldReservationStart, v.ReservationStart},
		{FieldReservationEnd, v.ReservationEnd},
		{FieldServiceUntil, v.ServiceUntil},
	}
	for _, t := range times {
		if schedule.OptionStatus(t.value) == schedule.OptionLegacy {
			warn(string(t.field), "%s is outside the selectable times", t.value)
		}
	}

	for _, d := range v.AvailableWeekdays {
		if _, ok := utils.NormalizeWeekday(d); !ok {
			warn("available_weekdays", "%q is not a weekday", d)
		}
	}

	for _, b := range v.BlockedDates {
		if b.IsFullDay() {
			continue
		}
		if err := schedule.ValidateSet(b.Intervals); err != nil {
			fail("blocked_dates["+b.Date+"]", "%v", err)
		}
	}
	return issues
}

// HasErrors reports whether any issue blocks a save.
func HasErrors(issues []FieldIssue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}
