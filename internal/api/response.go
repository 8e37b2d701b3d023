package api

import (
	"encoding/json"
	"net/http"

	"github.com/inkpress/newsletter/internal/idempotency"
)

// respondJSON writes a JSON body with the given status. A nil body writes
// headers only.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError writes a JSON {"error": message} body with the given status.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondValidationErrors writes a 400 listing every failed field check.
func respondValidationErrors(w http.ResponseWriter, errs []string) {
	respondJSON(w, http.StatusBadRequest, map[string]any{
		"error":   "validation_failed",
		"details": errs,
	})
}

// seeOtherResponse builds the 303 redirect recorded for a successful publish.
// The full triple (status, headers, body) is persisted so a replay can
// reproduce it byte for byte.
func seeOtherResponse(location string, body []byte) idempotency.SavedResponse {
	return idempotency.SavedResponse{
		StatusCode: http.StatusSeeOther,
		Headers: http.Header{
			"Content-Type": {"application/json"},
			"Location":     {location},
		},
		Body: body,
	}
}

// writeSavedResponse writes a recorded response so that original and replay
// are byte-identical.
func writeSavedResponse(w http.ResponseWriter, resp idempotency.SavedResponse) {
	for name, values := range resp.Headers {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	w.Write(resp.Body)
}
