package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindAuth           Kind = "auth_error"
	KindNetwork        Kind = "network_error"
	KindTimeout        Kind = "timeout"
	KindValidation     Kind = "validation_error"
	KindFormat         Kind = "format_error"
	KindMalformed      Kind = "malformed_record"
	KindSaveInProgress Kind = "save_in_progress"
	KindSessionClosed  Kind = "session_not_open"
	KindNotFound       Kind = "not_found"
	KindBadRequest     Kind = "bad_request"
	KindRateLimited    Kind = "rate_limited"
	KindInternal       Kind = "internal"
)

// HTTPError represents an error with an associated HTTP status code and kind.
type HTTPError struct {
	Code    int
	Kind    Kind
	Message string
	Details any
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// WithDetails returns a copy of e carrying details in the response body.
func (e *HTTPError) WithDetails(details any) *HTTPError {
	out := *e
	out.Details = details
	return &out
}

// NewHTTPError creates a new HTTPError with the given code, kind and message.
func NewHTTPError(code int, kind Kind, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

func wrap(code int, kind Kind, message string, err error) *HTTPError {
	return &HTTPError{Code: code, Kind: kind, Message: message, Err: err}
}

// Helpers for common errors
var (
	ErrUnauthorized   = func(msg string) *HTTPError { return NewHTTPError(http.StatusUnauthorized, KindAuth, msg) }
	ErrBadRequest     = func(msg string) *HTTPError { return NewHTTPError(http.StatusBadRequest, KindBadRequest, msg) }
	ErrNotFound       = func(msg string) *HTTPError { return NewHTTPError(http.StatusNotFound, KindNotFound, msg) }
	ErrRateLimited    = func(msg string) *HTTPError { return NewHTTPError(http.StatusTooManyRequests, KindRateLimited, msg) }
	ErrSaveInProgress = NewHTTPError(http.StatusConflict, KindSaveInProgress, "a save is already in progress")
)

func Auth(msg string, err error) *HTTPError {
	return wrap(http.StatusUnauthorized, KindAuth, msg, err)
}

func Network(msg string, err error) *HTTPError {
	return wrap(http.StatusBadGateway, KindNetwork, msg, err)
}

func Timeout(msg string, err error) *HTTPError {
	return wrap(http.StatusGatewayTimeout, KindTimeout, msg, err)
}

func Validation(msg string, err error) *HTTPError {
	return wrap(http.StatusUnprocessableEntity, KindValidation, msg, err)
}

func Format(msg string, err error) *HTTPError {
	return wrap(http.StatusUnprocessableEntity, KindFormat, msg, err)
}

func Internal(err error) *HTTPError {
	return wrap(http.StatusInternalServerError, KindInternal, "internal error", err)
}

// IsKind reports whether err carries an HTTPError of the given kind.
func IsKind(err error, kind Kind) bool {
	var he *HTTPError
	return stderrors.As(err, &he) && he.Kind == kind
}

// FromContext turns a context expiry into a Timeout and anything else into a NetworkError.
func FromContext(msg string, err error) *HTTPError {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return Timeout(msg+": request timed out", err)
	}
	return Network(msg, err)
}
