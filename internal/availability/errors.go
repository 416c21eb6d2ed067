package availability

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrVenueNotFound   = errors.New("venue not found")
	ErrUnknownField    = errors.New("unknown field")
	ErrSessionNotOpen  = errors.New("edit session is not open")
	ErrIntervalMissing = errors.New("interval not found")
)

// MalformedRecordError is returned for a backend record missing its identity fields.
type MalformedRecordError struct {
	Index   int
	Missing []string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("record %d is missing %s", e.Index, strings.Join(e.Missing, ", "))
}

// InvalidValueError is returned by SetField for text that cannot be stored in the field.
type InvalidValueError struct {
	Field Field
	Value string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("%s: invalid value %q", e.Field, e.Value)
}

// DuplicateCodeError is returned for a record whose codigo_local an earlier record already uses.
type DuplicateCodeError struct {
	Index int
	Code  string
	First int
}

func (e *DuplicateCodeError) Error() string {
	return fmt.Sprintf("record %d: codigo_local %q already used by record %d", e.Index, e.Code, e.First)
}
