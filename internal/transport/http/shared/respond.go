// Package shared holds the JSON response helpers every handler uses so the
// error envelope stays identical across endpoints.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "userhub/pkg/domain-errors"
)

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the `{"error": message}`
// envelope. Uncoded errors degrade to a generic 500 without leaking
// internals.
func WriteError(w http.ResponseWriter, err error) {
	var de *dErrors.Error
	if errors.As(err, &de) {
		WriteJSON(w, dErrors.ToHTTPStatus(de.Code), map[string]string{"error": de.Message})
		return
	}
	WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
}
