package api

import (
	"puntoazul/internal/availability"
	"puntoazul/internal/service"
	"strconv"
)

// Auth
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
type LoginResponse struct {
	Token   string           `json:"token"`
	Session *service.Session `json:"session"`
}

// Venues

// VenuePatchRequest only touches the fields that are present in the body.
type VenuePatchRequest struct {
	Name                 *string  `json:"name"`
	Address              *string  `json:"address"`
	ReservationStart     *string  `json:"reservation_start"`
	ReservationEnd       *string  `json:"reservation_end"`
	ServiceUntil         *string  `json:"service_until"`
	MaxPartySize         *int     `json:"max_party_size"`
	MaxDailyReservations *int     `json:"max_daily_reservations"`
	AvailableWeekdays    []string `json:"available_weekdays" validate:"omitempty,dive,required"`
}

func (r VenuePatchRequest) toPatch() service.VenuePatch {
	fields := map[availability.Field]string{}
	set := func(f availability.Field, v *string) {
		if v != nil {
			fields[f] = *v
		}
	}
	setInt := func(f availability.Field, v *int) {
		if v != nil {
			fields[f] = strconv.Itoa(*v)
		}
	}
	set(availability.FieldName, r.Name)
	set(availability.FieldAddress, r.Address)
	set(availability.FieldReservationStart, r.ReservationStart)
	set(availability.FieldReservationEnd, r.ReservationEnd)
	set(availability.FieldServiceUntil, r.ServiceUntil)
	setInt(availability.FieldMaxPartySize, r.MaxPartySize)
	setInt(availability.FieldMaxDailyReservations, r.MaxDailyReservations)
	return service.VenuePatch{Fields: fields, Weekdays: r.AvailableWeekdays}
}

// Edit sessions
type IntervalRequest struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}
type FullDayRequest struct {
	FullDay *bool `json:"full_day" validate:"required"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
