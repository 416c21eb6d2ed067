package utils

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical weekday keys, Monday first.
var WeekdayKeys = []string{"lunes", "martes", "miercoles", "jueves", "viernes", "sabado", "domingo"}

var weekdayLabels = map[string]string{
	"lunes":     "Lunes",
	"martes":    "Martes",
	"miercoles": "Miércoles",
	"jueves":    "Jueves",
	"viernes":   "Viernes",
	"sabado":    "Sábado",
	"domingo":   "Domingo",
}

// english aliases seen in older records
var weekdayAliases = map[string]string{
	"monday":    "lunes",
	"tuesday":   "martes",
	"wednesday": "miercoles",
	"thursday":  "jueves",
	"friday":    "viernes",
	"saturday":  "sabado",
	"sunday":    "domingo",
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeWeekday maps "Miércoles", "MIERCOLES" or "wednesday" to "miercoles".
// The second result is false when the value is not a weekday.
func NormalizeWeekday(value string) (string, bool) {
	key := strings.ToLower(foldAccents(strings.TrimSpace(value)))
	if _, ok := weekdayLabels[key]; ok {
		return key, true
	}
	if alias, ok := weekdayAliases[key]; ok {
		return alias, true
	}
	return value, false
}

func WeekdayLabel(key string) string {
	if label, ok := weekdayLabels[key]; ok {
		return label
	}
	return key
}

// OrderWeekdays puts days Monday first without rewriting them. Two values for
// the same weekday keep the first one. Values that are not weekdays follow the
// known ones in their original order.
func OrderWeekdays(days []string) []string {
	byKey := make(map[string]string, len(days))
	seen := make(map[string]bool, len(days))
	var unknown []string
	for _, d := range days {
		key, ok := NormalizeWeekday(d)
		if !ok {
			if strings.TrimSpace(d) != "" && !seen[d] {
				seen[d] = true
				unknown = append(unknown, d)
			}
			continue
		}
		if _, dup := byKey[key]; !dup {
			byKey[key] = d
		}
	}
	out := make([]string, 0, len(days))
	for _, k := range WeekdayKeys {
		if d, ok := byKey[k]; ok {
			out = append(out, d)
		}
	}
	return append(out, unknown...)
}

// WeekdayKey returns the canonical key for a time.Weekday.
func WeekdayKey(d time.Weekday) string {
	return WeekdayKeys[(int(d)+6)%7]
}
