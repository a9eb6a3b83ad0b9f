package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"truckFleetManagement/internal/apperr"
)

const maxBodySize = 1 << 20 // 1MB

// errorEnvelope is the uniform error body: {error, message, details}.
type errorEnvelope struct {
	Error   apperr.Kind    `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err through the taxonomy. Unclassified errors become
// an opaque 500 so internals never leak to clients.
func writeError(w http.ResponseWriter, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = apperr.New(apperr.KindInternal, "internal server error")
	}
	writeJSON(w, apperr.HTTPStatus(ae.Kind), errorEnvelope{
		Error:   ae.Kind,
		Message: ae.Message,
		Details: ae.Details,
	})
}

// decodeBody decodes a JSON request body into v with a size cap.
func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return apperr.New(apperr.KindValidation, "cannot read request body")
	}
	if len(body) == 0 {
		return apperr.New(apperr.KindValidation, "request body is required")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return apperr.New(apperr.KindValidation, "malformed JSON body")
	}
	return nil
}

func unauthorized(message string) error {
	return apperr.New(apperr.KindUnauthorized, message)
}

// emptyList substitutes an empty slice for nil so list endpoints always
// render a JSON array.
func emptyList[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
