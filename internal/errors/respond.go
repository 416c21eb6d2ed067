package errors

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Body is the JSON shape of every error response.
type Body struct {
	Error   string `json:"error"`
	Kind    Kind   `json:"kind"`
	Details any    `json:"details,omitempty"`
}

// Write maps err onto the taxonomy and writes it as JSON. Internal errors are
// logged and their cause is not echoed to the client.
func Write(w http.ResponseWriter, err error) {
	he := From(err)
	if he == nil {
		he = Internal(nil)
	}
	msg := he.Error()
	if he.Code >= http.StatusInternalServerError && he.Kind == KindInternal {
		zap.L().Error("Request failed", zap.Error(err))
		msg = he.Message
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.Code)
	json.NewEncoder(w).Encode(Body{Error: msg, Kind: he.Kind, Details: he.Details})
}
