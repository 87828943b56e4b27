// Package httputil centralizes JSON encoding and domain-error translation for
// HTTP handlers so every endpoint returns the same envelopes.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "custodia/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a coded domain error into a JSON error envelope.
// Internal errors omit the description so backend details never leak.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal {
		if msg := dErrors.MessageOf(err); msg != "" {
			body["error_description"] = msg
		}
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}

// Decode reads a JSON request body into T, rejecting unknown fields. A false
// return means the error response has already been written.
func Decode[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var req T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return req, false
	}
	return req, true
}
