package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CalendarDate is a date without time of day or location.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

func NewCalendarDate(t time.Time) CalendarDate {
	return CalendarDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d CalendarDate) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d CalendarDate) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// ISO returns "YYYY-MM-DD", the form used in URL paths.
func (d CalendarDate) ISO() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d CalendarDate) Before(o CalendarDate) bool {
	return d.Time().Before(o.Time())
}

func (d CalendarDate) String() string {
	return ToWireSlash(d)
}

var genericLayouts = []string{
	time.RFC3339,
	"20060102",
	"January 2, 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseDate accepts "YYYY-MM-DD" (backend), "MM/DD/YYYY" (locally authored, padding
// optional) or a handful of generic layouts.
func ParseDate(wire string) (CalendarDate, error) {
	s := strings.TrimSpace(wire)
	switch {
	case strings.Contains(s, "-") && !strings.Contains(s, "T"):
		return parseParts(wire, strings.Split(s, "-"), 0, 1, 2)
	case strings.Contains(s, "/"):
		return parseParts(wire, strings.Split(s, "/"), 2, 0, 1)
	}
	for _, layout := range genericLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewCalendarDate(t), nil
		}
	}
	return CalendarDate{}, &UnrecognizedDateFormatError{Value: wire}
}

func parseParts(raw string, parts []string, yi, mi, di int) (CalendarDate, error) {
	if len(parts) != 3 {
		return CalendarDate{}, &UnrecognizedDateFormatError{Value: raw}
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return CalendarDate{}, &UnrecognizedDateFormatError{Value: raw}
		}
		nums[i] = n
	}
	year, month, day := nums[yi], nums[mi], nums[di]
	if year < 1000 || year > 9999 || month < 1 || month > 12 || day < 1 {
		return CalendarDate{}, &FormatError{Value: raw, Expected: "a real calendar date"}
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return CalendarDate{}, &FormatError{Value: raw, Expected: "a real calendar date"}
	}
	return NewCalendarDate(t), nil
}

// ToWireSlash renders the canonical persisted key "MM/DD/YYYY".
func ToWireSlash(d CalendarDate) string {
	return fmt.Sprintf("%02d/%02d/%04d", int(d.Month), d.Day, d.Year)
}

// DisplayDate renders a wire date as "DD/MM/YYYY" for presentation.
func DisplayDate(wire string) (string, error) {
	d, err := ParseDate(wire)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, int(d.Month), d.Year), nil
}

// NormalizeKey maps either wire format onto the "MM/DD/YYYY" key used to deduplicate exceptions.
func NormalizeKey(wire string) (string, error) {
	d, err := ParseDate(wire)
	if err != nil {
		return "", err
	}
	return ToWireSlash(d), nil
}
