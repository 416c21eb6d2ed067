package availability

import (
	"fmt"
	"strings"

	"puntoazul/internal/entities"
	"puntoazul/internal/schedule"
)

// ToWirePayload maps venues to the records the write endpoint expects. Times go
// back to "HH:mm", counts become strings and the image is left out so the
// backend keeps its media reference.
func ToWirePayload(venues []entities.Venue) ([]entities.WireRecord, error) {
	out := make([]entities.WireRecord, 0, len(venues))
	for _, v := range venues {
		rec, err := venueToWire(v)
		if err != nil {
			return nil, fmt.Errorf("venue %s: %w", v.Code, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func venueToWire(v entities.Venue) (entities.WireRecord, error) {
	rec := entities.WireRecord{
		Code:                 v.Code,
		Name:                 v.Name,
		Location:             v.Address,
		MaxDailyReservations: entities.NewWireNumber(v.MaxDailyReservations),
		MaxPartySize:         entities.NewWireNumber(v.MaxPartySize),
		BlockedDates:         entities.WireBlockList{},
	}
	var err error
	if rec.ReservationStart, err = wireOrEmpty(v.ReservationStart); err != nil {
		return rec, fmt.Errorf("reservation_start: %w", err)
	}
	if rec.ReservationEnd, err = wireOrEmpty(v.ReservationEnd); err != nil {
		return rec, fmt.Errorf("reservation_end: %w", err)
	}
	if rec.ServiceUntil, err = wireOrEmpty(v.ServiceUntil); err != nil {
		return rec, fmt.Errorf("service_until: %w", err)
	}
	rec.AvailableWeekdays = entities.WireStrings(append([]string{}, v.AvailableWeekdays...))

	for _, b := range v.BlockedDates {
		bd, err := exceptionToWire(b)
		if err != nil {
			return rec, fmt.Errorf("blocked date %s: %w", b.Date, err)
		}
		rec.BlockedDates = append(rec.BlockedDates, bd)
	}
	return rec, nil
}

func wireOrEmpty(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	return schedule.ToWire(value)
}

func exceptionToWire(b entities.BlockException) (entities.WireBlockedDate, error) {
	key, err := schedule.NormalizeKey(b.Date)
	if err != nil {
		return entities.WireBlockedDate{}, err
	}
	bd := entities.WireBlockedDate{Date: key}
	if b.IsFullDay() || len(b.Intervals) == 0 {
		bd.Hours = entities.WireHours{FullDay: true}
		return bd, nil
	}
	for _, iv := range b.Intervals {
		start, err := schedule.ToWire(iv.Start)
		if err != nil {
			return bd, err
		}
		end, err := schedule.ToWire(iv.End)
		if err != nil {
			return bd, err
		}
		bd.Hours.Ranges = append(bd.Hours.Ranges, entities.WireHour{Start: start, End: end})
	}
	return bd, nil
}
