package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

var (
	displayPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*(am|pm)$`)
	wirePattern    = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::\d{2})?$`)
)

// ToMinutes parses a display time ("h:mm am/pm") into minutes since midnight.
func ToMinutes(display string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(display))
	m := displayPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, &FormatError{Value: display, Expected: "h:mm am/pm"}
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour < 1 || hour > 12 || minute > 59 {
		return 0, &FormatError{Value: display, Expected: "h:mm am/pm"}
	}
	hour %= 12
	if m[3] == "pm" {
		hour += 12
	}
	return hour*60 + minute, nil
}

// wireMinutes parses "H:mm" or "HH:mm" (seconds tolerated) in 24-hour form.
func wireMinutes(wire string) (int, error) {
	m := wirePattern.FindStringSubmatch(strings.TrimSpace(wire))
	if m == nil {
		return 0, &FormatError{Value: wire, Expected: "HH:mm"}
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return 0, &FormatError{Value: wire, Expected: "HH:mm"}
	}
	return hour*60 + minute, nil
}

// ParseClock accepts either representation and returns minutes since midnight.
func ParseClock(value string) (int, error) {
	if mins, err := ToMinutes(value); err == nil {
		return mins, nil
	}
	if mins, err := wireMinutes(value); err == nil {
		return mins, nil
	}
	return 0, &FormatError{Value: value, Expected: "HH:mm or h:mm am/pm"}
}

// FormatDisplay renders minutes since midnight as canonical "h:mm am/pm".
func FormatDisplay(mins int) string {
	mins = ((mins % minutesPerDay) + minutesPerDay) % minutesPerDay
	hour, minute := mins/60, mins%60
	meridiem := "am"
	if hour >= 12 {
		meridiem = "pm"
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", hour12, minute, meridiem)
}

// FormatWire renders minutes since midnight as zero-padded "HH:mm".
func FormatWire(mins int) string {
	mins = ((mins % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// ToDisplay normalizes a wire or display time to "h:mm am/pm". It is idempotent.
func ToDisplay(wireOrDisplay string) (string, error) {
	mins, err := ParseClock(wireOrDisplay)
	if err != nil {
		return "", err
	}
	return FormatDisplay(mins), nil
}

// ToWire converts a display (or already wire) time to "HH:mm".
func ToWire(display string) (string, error) {
	mins, err := ParseClock(display)
	if err != nil {
		return "", err
	}
	return FormatWire(mins), nil
}

// GenerateOptions lists every half hour from startHour:00 through endHour:30.
func GenerateOptions(startHour, endHour int) []string {
	if startHour < 0 {
		startHour = 0
	}
	if endHour > 23 {
		endHour = 23
	}
	var options []string
	for h := startHour; h <= endHour; h++ {
		for _, m := range []int{0, 30} {
			options = append(options, FormatDisplay(h*60+m))
		}
	}
	return options
}

const (
	OptionsStartHour = 8
	OptionsEndHour   = 23
)

// DefaultOptions is the only option set the panel offers: 8:00 am to 11:30 pm.
var DefaultOptions = GenerateOptions(OptionsStartHour, OptionsEndHour)

type OptionState string

const (
	OptionValid   OptionState = "valid"
	OptionLegacy  OptionState = "legacy"
	OptionInvalid OptionState = "invalid"
)

// OptionStatus reports whether a stored time can be preselected from DefaultOptions.
// A parseable time that is not in the set is a legacy value and must be shown as such.
func OptionStatus(value string) OptionState {
	display, err := ToDisplay(value)
	if err != nil {
		return OptionInvalid
	}
	for _, o := range DefaultOptions {
		if o == display {
			return OptionValid
		}
	}
	return OptionLegacy
}
