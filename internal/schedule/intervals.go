package schedule

import (
	"fmt"

	"puntoazul/internal/entities"
)

type span struct {
	start, end int
}

func toSpan(iv entities.TimeInterval) (span, error) {
	start, err := ParseClock(iv.Start)
	if err != nil {
		return span{}, err
	}
	end, err := ParseClock(iv.End)
	if err != nil {
		return span{}, err
	}
	return span{start: start, end: end}, nil
}

// IsOrdered reports whether end is strictly after start. Unparseable bounds are never ordered.
func IsOrdered(iv entities.TimeInterval) bool {
	s, err := toSpan(iv)
	if err != nil {
		return false
	}
	return s.end > s.start
}

// overlaps is the half-open test: a.start < b.end && b.start < a.end
func overlaps(a, b span) bool {
	return a.start < b.end && b.start < a.end
}

// FindOverlap returns the first overlapping pair ordered by i, then j.
// Intervals whose bounds cannot be parsed are skipped.
func FindOverlap(intervals []entities.TimeInterval) (int, int, bool) {
	spans := make([]*span, len(intervals))
	for i, iv := range intervals {
		if s, err := toSpan(iv); err == nil {
			spans[i] = &s
		}
	}
	for i := 0; i < len(spans); i++ {
		if spans[i] == nil {
			continue
		}
		for j := i + 1; j < len(spans); j++ {
			if spans[j] != nil && overlaps(*spans[i], *spans[j]) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// ValidateSet checks a partial-day interval list. Per-interval checks (format,
// equal bounds, ordering) run in index order before the overlap scan.
func ValidateSet(intervals []entities.TimeInterval) error {
	if len(intervals) == 0 {
		return &ValidationError{Kind: EmptySet}
	}
	for i, iv := range intervals {
		s, err := toSpan(iv)
		if err != nil {
			return &ValidationError{Kind: BadTimeValue, I: i, Err: err}
		}
		if s.start == s.end {
			return &ValidationError{Kind: EqualBounds, I: i}
		}
		if s.end < s.start {
			return &ValidationError{Kind: OutOfOrder, I: i}
		}
	}
	if i, j, ok := FindOverlap(intervals); ok {
		return &ValidationError{Kind: Overlap, I: i, J: j}
	}
	return nil
}

// HoursIssue is one problem with a venue's reservation window.
type HoursIssue struct {
	Field   string
	Message string
}

// ValidateVenueHours applies the venue-level rules: the reservation window is
// strict (start < end) while service may end exactly when reservations do (end <= until).
func ValidateVenueHours(start, end, until string) []HoursIssue {
	var issues []HoursIssue
	parse := func(field, v string) (int, bool) {
		mins, err := ParseClock(v)
		if err != nil {
			issues = append(issues, HoursIssue{Field: field, Message: err.Error()})
			return 0, false
		}
		return mins, true
	}
	s, okS := parse("reservation_start", start)
	e, okE := parse("reservation_end", end)
	u, okU := parse("service_until", until)
	if okS && okE && e <= s {
		issues = append(issues, HoursIssue{
			Field:   "reservation_end",
			Message: fmt.Sprintf("reservations must end after they start (%s)", FormatDisplay(s)),
		})
	}
	if okE && okU && u < e {
		issues = append(issues, HoursIssue{
			Field:   "service_until",
			Message: fmt.Sprintf("service cannot end before the last reservation (%s)", FormatDisplay(e)),
		})
	}
	return issues
}
