package errors

import (
	stderrors "errors"
	"net/http"

	"puntoazul/internal/availability"
	"puntoazul/internal/schedule"
)

// From maps any error returned by the service layer onto the HTTP taxonomy.
// Errors already carrying a kind pass through unchanged.
func From(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var he *HTTPError
	if stderrors.As(err, &he) {
		return he
	}

	var ve *schedule.ValidationError
	if stderrors.As(err, &ve) {
		return Validation(ve.Error(), err).WithDetails(map[string]any{
			"rule": ve.Kind,
			"i":    ve.I,
			"j":    ve.J,
		})
	}
	var mr *availability.MalformedRecordError
	if stderrors.As(err, &mr) {
		return wrap(http.StatusUnprocessableEntity, KindMalformed, mr.Error(), err)
	}
	var fe *schedule.FormatError
	if stderrors.As(err, &fe) {
		return Format(fe.Error(), err)
	}
	var ue *schedule.UnrecognizedDateFormatError
	if stderrors.As(err, &ue) {
		return Format(ue.Error(), err)
	}
	var ive *availability.InvalidValueError
	if stderrors.As(err, &ive) {
		return Format(ive.Error(), err)
	}

	switch {
	case availability.IsNotFound(err):
		return wrap(http.StatusNotFound, KindNotFound, err.Error(), err)
	case stderrors.Is(err, availability.ErrUnknownField):
		return wrap(http.StatusBadRequest, KindBadRequest, err.Error(), err)
	case stderrors.Is(err, availability.ErrSessionNotOpen):
		return wrap(http.StatusConflict, KindSessionClosed, err.Error(), err)
	}
	return Internal(err)
}
