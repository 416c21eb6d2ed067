package schedule

import "fmt"

// FormatError is returned when a time or date string cannot be parsed.
type FormatError struct {
	Value    string
	Expected string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid format %q, expected %s", e.Value, e.Expected)
}

// UnrecognizedDateFormatError is returned by ParseDate when no layout matches.
type UnrecognizedDateFormatError struct {
	Value string
}

func (e *UnrecognizedDateFormatError) Error() string {
	return fmt.Sprintf("unrecognized date format %q", e.Value)
}

type ValidationKind string

const (
	EmptySet     ValidationKind = "empty_set"
	EqualBounds  ValidationKind = "equal_bounds"
	OutOfOrder   ValidationKind = "out_of_order"
	Overlap      ValidationKind = "overlap"
	BadTimeValue ValidationKind = "bad_time"
)

// ValidationError describes the first failing interval (I) or pair (I, J).
type ValidationError struct {
	Kind ValidationKind
	I    int
	J    int
	Err  error
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case EmptySet:
		return "at least one time range is required unless the whole day is blocked"
	case EqualBounds:
		return fmt.Sprintf("range %d: start and end cannot be equal", e.I+1)
	case OutOfOrder:
		return fmt.Sprintf("range %d: end must be after start", e.I+1)
	case Overlap:
		return fmt.Sprintf("ranges %d and %d overlap", e.I+1, e.J+1)
	case BadTimeValue:
		return fmt.Sprintf("range %d: %v", e.I+1, e.Err)
	}
	return string(e.Kind)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
