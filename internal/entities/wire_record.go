package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// WireRecord is one element of the ACF `locales` repeater as the backend sends and accepts it.
type WireRecord struct {
	Code                 string        `json:"codigo_local"`
	Name                 string        `json:"nombre"`
	Image                WireImage     `json:"imagen,omitempty"`
	Location             string        `json:"location"`
	ReservationStart     string        `json:"inicio_reserva"`
	ReservationEnd       string        `json:"fin_reserva"`
	AvailableWeekdays    WireStrings   `json:"dias_disponibles"`
	MaxDailyReservations WireNumber    `json:"nro_reservas_max"`
	MaxPartySize         WireNumber    `json:"cantidad_personas_max"`
	ServiceUntil         string        `json:"atencion_hasta_x_hora"`
	BlockedDates         WireBlockList `json:"fechas_no_disponibles"`
}

type WireBlockedDate struct {
	Date  string    `json:"fecha_bloq"`
	Hours WireHours `json:"horas"`
}

type WireHour struct {
	Start string `json:"hora_inicio"`
	End   string `json:"hora_fin"`
}

// WireHours is `false` for a whole-day block or a list of ranges otherwise.
// null, "" and [] all decode as a whole-day block.
type WireHours struct {
	FullDay bool
	Ranges  []WireHour
}

func (h WireHours) MarshalJSON() ([]byte, error) {
	if h.FullDay || len(h.Ranges) == 0 {
		return []byte("false"), nil
	}
	return json.Marshal(h.Ranges)
}

func (h *WireHours) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if isEmptyACFValue(data) {
		*h = WireHours{FullDay: true}
		return nil
	}
	var ranges []WireHour
	if err := json.Unmarshal(data, &ranges); err != nil {
		return fmt.Errorf("horas: %w", err)
	}
	*h = WireHours{FullDay: len(ranges) == 0, Ranges: ranges}
	return nil
}

// WireBlockList tolerates ACF's `false` for an empty repeater.
type WireBlockList []WireBlockedDate

func (l WireBlockList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]WireBlockedDate(l))
}

func (l *WireBlockList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if isEmptyACFValue(data) {
		*l = WireBlockList{}
		return nil
	}
	var items []WireBlockedDate
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("fechas_no_disponibles: %w", err)
	}
	*l = items
	return nil
}

// WireStrings tolerates `false`, null, "" and a bare string for checkbox fields.
type WireStrings []string

func (s WireStrings) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}

func (s *WireStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if isEmptyACFValue(data) {
		*s = WireStrings{}
		return nil
	}
	if data[0] == '"' {
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*s = WireStrings{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("dias_disponibles: %w", err)
	}
	*s = many
	return nil
}

// WireNumber is a number the backend schema stores as a string. It decodes from
// either a JSON string or number and always encodes as a string.
type WireNumber string

func (n WireNumber) Int() (int, error) {
	s := strings.TrimSpace(string(n))
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func NewWireNumber(v int) WireNumber {
	return WireNumber(strconv.Itoa(v))
}

func (n *WireNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if isEmptyACFValue(data) {
		*n = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = WireNumber(strings.TrimSpace(s))
		return nil
	}
	var f json.Number
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("number: %w", err)
	}
	*n = WireNumber(f.String())
	return nil
}

// WireImage keeps the image URL for display only. ACF may send a URL, an
// attachment object or an attachment ID.
type WireImage string

func (i *WireImage) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case isEmptyACFValue(data):
		*i = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*i = WireImage(s)
	case data[0] == '{':
		var obj struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*i = WireImage(obj.URL)
	default:
		*i = ""
	}
	return nil
}

func isEmptyACFValue(data []byte) bool {
	switch string(data) {
	case "", "null", "false", `""`, "[]":
		return true
	}
	return false
}

// ACFPage is the read endpoint's response body.
type ACFPage struct {
	ACF struct {
		Locales RawRecords `json:"locales"`
	} `json:"acf"`
}

// RawRecords keeps each repeater row undecoded so rows can fail one at a time.
type RawRecords []json.RawMessage

func (r *RawRecords) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if isEmptyACFValue(data) {
		*r = RawRecords{}
		return nil
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("locales: %w", err)
	}
	*r = rows
	return nil
}

// ACFUpdate is the write endpoint's request body.
type ACFUpdate struct {
	Fields struct {
		Locales []WireRecord `json:"locales"`
	} `json:"fields"`
}
